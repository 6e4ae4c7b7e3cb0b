package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lifepath/lifepath-backend/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	ReflectionBatchSize    = 50
	ReflectionBatchTimeout = 2 * time.Second
	ReflectionPollTimeout  = 1 * time.Second
)

// ReflectionWorker drains mirror-moment reflections into PostgreSQL.
type ReflectionWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

func NewReflectionWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *ReflectionWorker {
	return &ReflectionWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "reflection_worker").Logger(),
	}
}

type reflectionPayload struct {
	PlayerID  string    `json:"player_id"`
	SceneID   string    `json:"scene_id"`
	Prompt    string    `json:"prompt"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *ReflectionWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ReflectionWorker started")

	batch := make([]*reflectionPayload, 0, ReflectionBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ReflectionBatchSize || time.Since(lastFlush) >= ReflectionBatchTimeout) {

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
			item, err := w.rdb.BLPop(ctx, ReflectionPollTimeout, config.WorkerKey.PersistReflectionsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p reflectionPayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &p)
		}
	}
}

func (w *ReflectionWorker) flushSafe(ctx context.Context, batch []*reflectionPayload) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkInsertReflections(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk reflection insert failed, using fallback")

		for _, p := range batch {
			if err := w.persistSingle(ctx, p); err != nil {
				w.log.Error().Err(err).Msg("persistSingle failed — requeueing")
				raw, _ := json.Marshal(p)
				w.rdb.RPush(ctx, config.WorkerKey.PersistReflectionsQueue, raw)
			}
		}
	}
}

// ----------------------------------------------------------------
// BULK PostgreSQL INSERT using UNNEST + alias
// ----------------------------------------------------------------

func (w *ReflectionWorker) bulkInsertReflections(ctx context.Context, batch []*reflectionPayload) error {
	n := len(batch)

	players := make([]string, 0, n)
	scenes := make([]string, 0, n)
	prompts := make([]string, 0, n)
	contents := make([]string, 0, n)
	createdAts := make([]time.Time, 0, n)

	for _, p := range batch {
		players = append(players, p.PlayerID)
		scenes = append(scenes, p.SceneID)
		prompts = append(prompts, p.Prompt)
		contents = append(contents, p.Content)
		createdAts = append(createdAts, p.CreatedAt)
	}

	query := `
		INSERT INTO reflections (player_id, scene_id, prompt, content, created_at)
		SELECT
			u.player_id,
			u.scene_id,
			u.prompt,
			u.content,
			u.created_at
		FROM UNNEST(
			$1::text[],
			$2::text[],
			$3::text[],
			$4::text[],
			$5::timestamptz[]
		) AS u (player_id, scene_id, prompt, content, created_at)
	`

	_, err := w.pool.Exec(ctx, query, players, scenes, prompts, contents, createdAts)
	return err
}

// ----------------------------------------------------------------
// FALLBACK single insert
// ----------------------------------------------------------------

func (w *ReflectionWorker) persistSingle(ctx context.Context, p *reflectionPayload) error {
	_, err := w.pool.Exec(ctx,
		`INSERT INTO reflections (player_id, scene_id, prompt, content, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		p.PlayerID, p.SceneID, p.Prompt, p.Content, p.CreatedAt,
	)

	return err
}
