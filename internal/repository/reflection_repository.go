package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lifepath/lifepath-backend/internal/model"
)

// ReflectionRepository persists mirror-moment reflections verbatim.
type ReflectionRepository struct {
	pool *pgxpool.Pool
}

// NewReflectionRepository creates a new ReflectionRepository.
func NewReflectionRepository(pool *pgxpool.Pool) *ReflectionRepository {
	return &ReflectionRepository{pool: pool}
}

// Insert stores a single reflection.
func (r *ReflectionRepository) Insert(ctx context.Context, ref *model.Reflection) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO reflections (player_id, scene_id, prompt, content, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		ref.PlayerID, ref.SceneID, ref.Prompt, ref.Content, ref.CreatedAt,
	).Scan(&ref.ID)
}

// ListByPlayer returns a player's reflections, newest first.
func (r *ReflectionRepository) ListByPlayer(ctx context.Context, playerID string) ([]model.Reflection, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, player_id, scene_id, prompt, content, created_at
		 FROM reflections
		 WHERE player_id = $1
		 ORDER BY created_at DESC`, playerID)
	if err != nil {
		return nil, fmt.Errorf("list reflections: %w", err)
	}
	defer rows.Close()

	var refs []model.Reflection
	for rows.Next() {
		var ref model.Reflection
		if err := rows.Scan(&ref.ID, &ref.PlayerID, &ref.SceneID, &ref.Prompt, &ref.Content, &ref.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reflection: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
