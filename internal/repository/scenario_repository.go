package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lifepath/lifepath-backend/internal/model"
)

// ScenarioRepository handles scenario catalog data access. The catalog is
// read-mostly: writes happen only through the seeding CLI.
type ScenarioRepository struct {
	pool *pgxpool.Pool
}

// NewScenarioRepository creates a new ScenarioRepository.
func NewScenarioRepository(pool *pgxpool.Pool) *ScenarioRepository {
	return &ScenarioRepository{pool: pool}
}

// LoadAll reads the full catalog: every scenario with its scenes and
// choices in declared order.
func (r *ScenarioRepository) LoadAll(ctx context.Context) ([]*model.Scenario, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, description, initial_metrics
		 FROM scenarios
		 ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("query scenarios: %w", err)
	}
	defer rows.Close()

	var scenarios []*model.Scenario
	for rows.Next() {
		s := &model.Scenario{}
		var metricsRaw []byte
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &metricsRaw); err != nil {
			return nil, fmt.Errorf("scan scenario: %w", err)
		}
		if err := json.Unmarshal(metricsRaw, &s.InitialMetrics); err != nil {
			return nil, fmt.Errorf("decode initial metrics for %s: %w", s.ID, err)
		}
		scenarios = append(scenarios, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, s := range scenarios {
		if err := r.loadScenes(ctx, s); err != nil {
			return nil, err
		}
	}
	return scenarios, nil
}

func (r *ScenarioRepository) loadScenes(ctx context.Context, s *model.Scenario) error {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, description, image_url, mirror_prompt, is_ending
		 FROM scenes
		 WHERE scenario_id = $1
		 ORDER BY position, id`, s.ID)
	if err != nil {
		return fmt.Errorf("query scenes for %s: %w", s.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var sc model.Scene
		if err := rows.Scan(&sc.ID, &sc.Title, &sc.Description, &sc.ImageURL, &sc.MirrorPrompt, &sc.IsEnding); err != nil {
			return fmt.Errorf("scan scene: %w", err)
		}
		s.Scenes = append(s.Scenes, sc)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range s.Scenes {
		if err := r.loadChoices(ctx, s.ID, &s.Scenes[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *ScenarioRepository) loadChoices(ctx context.Context, scenarioID string, scene *model.Scene) error {
	rows, err := r.pool.Query(ctx,
		`SELECT id, label, tooltip, next_scene_id, effects
		 FROM choices
		 WHERE scenario_id = $1 AND scene_id = $2
		 ORDER BY position, id`, scenarioID, scene.ID)
	if err != nil {
		return fmt.Errorf("query choices for %s/%s: %w", scenarioID, scene.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var c model.Choice
		var effectsRaw []byte
		if err := rows.Scan(&c.ID, &c.Label, &c.Tooltip, &c.NextSceneID, &effectsRaw); err != nil {
			return fmt.Errorf("scan choice: %w", err)
		}
		if len(effectsRaw) > 0 {
			if err := json.Unmarshal(effectsRaw, &c.Effects); err != nil {
				return fmt.Errorf("decode effects for choice %s: %w", c.ID, err)
			}
		}
		scene.Choices = append(scene.Choices, c)
	}
	return rows.Err()
}

// Upsert writes a full scenario (scenario row, scenes, choices) inside one
// transaction, replacing any previous version. Used by the seeding CLI.
func (r *ScenarioRepository) Upsert(ctx context.Context, position int, s *model.Scenario) error {
	metricsRaw, err := json.Marshal(s.InitialMetrics)
	if err != nil {
		return fmt.Errorf("encode initial metrics: %w", err)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Replace wholesale: choices and scenes cascade from the scenario row.
	if _, err := tx.Exec(ctx, `DELETE FROM scenarios WHERE id = $1`, s.ID); err != nil {
		return fmt.Errorf("delete previous version: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO scenarios (id, title, description, initial_metrics, position)
		 VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.Title, s.Description, metricsRaw, position); err != nil {
		return fmt.Errorf("insert scenario: %w", err)
	}

	for i := range s.Scenes {
		sc := &s.Scenes[i]
		if _, err := tx.Exec(ctx,
			`INSERT INTO scenes (scenario_id, id, title, description, image_url, mirror_prompt, is_ending, position)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			s.ID, sc.ID, sc.Title, sc.Description, sc.ImageURL, sc.MirrorPrompt, sc.IsEnding, i); err != nil {
			return fmt.Errorf("insert scene %s: %w", sc.ID, err)
		}

		for j, c := range sc.Choices {
			effectsRaw, err := json.Marshal(c.Effects)
			if err != nil {
				return fmt.Errorf("encode effects for choice %s: %w", c.ID, err)
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO choices (scenario_id, scene_id, id, label, tooltip, next_scene_id, effects, position)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				s.ID, sc.ID, c.ID, c.Label, c.Tooltip, c.NextSceneID, effectsRaw, j); err != nil {
				return fmt.Errorf("insert choice %s: %w", c.ID, err)
			}
		}
	}

	return tx.Commit(ctx)
}
