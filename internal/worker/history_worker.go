package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lifepath/lifepath-backend/internal/config"
	"github.com/lifepath/lifepath-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	HistoryBatchSize    = 50
	HistoryBatchTimeout = 2 * time.Second
	HistoryPollTimeout  = 1 * time.Second
)

// HistoryWorker drains the completed-run queue into PostgreSQL. Play never
// waits on it; a worker crash loses at most the in-flight batch, which is
// requeued on persistence failure.
type HistoryWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

func NewHistoryWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *HistoryWorker {
	return &HistoryWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "history_worker").Logger(),
	}
}

type historyPayload struct {
	PlayerID    string               `json:"player_id"`
	ScenarioID  string               `json:"scenario_id"`
	FinalScene  string               `json:"final_scene"`
	Metrics     model.Metrics        `json:"metrics"`
	History     []model.HistoryEntry `json:"history"`
	CompletedAt time.Time            `json:"completed_at"`
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *HistoryWorker) Start(ctx context.Context) {
	w.log.Info().Msg("HistoryWorker started")

	batch := make([]*historyPayload, 0, HistoryBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= HistoryBatchSize || time.Since(lastFlush) >= HistoryBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, HistoryPollTimeout, config.WorkerKey.PersistHistoriesQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p historyPayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &p)
		}
	}
}

// ----------------------------------------------------------------
// Batch Insert Wrapper
// ----------------------------------------------------------------

func (w *HistoryWorker) flushSafe(ctx context.Context, batch []*historyPayload) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkInsertRuns(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk run insert failed, using fallback")

		for _, p := range batch {
			if err := w.persistSingle(ctx, p); err != nil {
				w.log.Error().Err(err).Msg("persistSingle failed — requeueing")
				raw, _ := json.Marshal(p)
				w.rdb.RPush(ctx, config.WorkerKey.PersistHistoriesQueue, raw)
			}
		}
	}
}

// ----------------------------------------------------------------
// BULK PostgreSQL INSERT using UNNEST + alias
// ----------------------------------------------------------------

func (w *HistoryWorker) bulkInsertRuns(ctx context.Context, batch []*historyPayload) error {
	n := len(batch)

	players := make([]string, 0, n)
	scenarios := make([]string, 0, n)
	finalScenes := make([]string, 0, n)
	metrics := make([]string, 0, n)
	histories := make([]string, 0, n)
	completedAts := make([]time.Time, 0, n)

	for _, p := range batch {
		metricsJSON, err := json.Marshal(p.Metrics)
		if err != nil {
			return err
		}
		historyJSON, err := json.Marshal(p.History)
		if err != nil {
			return err
		}

		players = append(players, p.PlayerID)
		scenarios = append(scenarios, p.ScenarioID)
		finalScenes = append(finalScenes, p.FinalScene)
		metrics = append(metrics, string(metricsJSON))
		histories = append(histories, string(historyJSON))
		completedAts = append(completedAts, p.CompletedAt)
	}

	query := `
		INSERT INTO game_states (player_id, scenario_id, final_scene, metrics, history, completed_at)
		SELECT
			u.player_id,
			u.scenario_id,
			u.final_scene,
			u.metrics,
			u.history,
			u.completed_at
		FROM UNNEST(
			$1::text[],
			$2::text[],
			$3::text[],
			$4::jsonb[],
			$5::jsonb[],
			$6::timestamptz[]
		) AS u (player_id, scenario_id, final_scene, metrics, history, completed_at)
	`

	_, err := w.pool.Exec(ctx, query, players, scenarios, finalScenes, metrics, histories, completedAts)
	return err
}

// ----------------------------------------------------------------
// FALLBACK single insert
// ----------------------------------------------------------------

func (w *HistoryWorker) persistSingle(ctx context.Context, p *historyPayload) error {
	metricsJSON, err := json.Marshal(p.Metrics)
	if err != nil {
		return err
	}
	historyJSON, err := json.Marshal(p.History)
	if err != nil {
		return err
	}

	_, err = w.pool.Exec(ctx,
		`INSERT INTO game_states (player_id, scenario_id, final_scene, metrics, history, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.PlayerID, p.ScenarioID, p.FinalScene, metricsJSON, historyJSON, p.CompletedAt,
	)

	return err
}
