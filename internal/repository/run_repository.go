package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lifepath/lifepath-backend/internal/model"
)

// RunRepository persists completed scenario runs — the history sink. The
// core never blocks on it: writes arrive through the background worker.
type RunRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository creates a new RunRepository.
func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// Insert stores one completed run.
func (r *RunRepository) Insert(ctx context.Context, run *model.CompletedRun) error {
	metricsRaw, err := json.Marshal(run.Metrics)
	if err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}
	historyRaw, err := json.Marshal(run.History)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO game_states (player_id, scenario_id, final_scene, metrics, history, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		run.PlayerID, run.ScenarioID, run.FinalScene, metricsRaw, historyRaw, run.CompletedAt,
	).Scan(&run.ID)
}

// ListByPlayer returns a player's completed runs, newest first.
func (r *RunRepository) ListByPlayer(ctx context.Context, playerID string) ([]model.CompletedRun, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, player_id, scenario_id, final_scene, metrics, history, completed_at
		 FROM game_states
		 WHERE player_id = $1
		 ORDER BY completed_at DESC`, playerID)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []model.CompletedRun
	for rows.Next() {
		var run model.CompletedRun
		var metricsRaw, historyRaw []byte
		if err := rows.Scan(&run.ID, &run.PlayerID, &run.ScenarioID, &run.FinalScene, &metricsRaw, &historyRaw, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if err := json.Unmarshal(metricsRaw, &run.Metrics); err != nil {
			return nil, fmt.Errorf("decode metrics: %w", err)
		}
		if err := json.Unmarshal(historyRaw, &run.History); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
