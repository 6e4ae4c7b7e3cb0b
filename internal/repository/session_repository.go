package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lifepath/lifepath-backend/internal/model"
)

// SessionRepository handles classroom session data access. The durable rows
// trail the live in-memory coordinator; they exist for teacher dashboards
// and post-session review, not for driving the live state machine.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create inserts a new classroom session row.
func (r *SessionRepository) Create(ctx context.Context, s *model.ClassroomSession) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO classroom_sessions (id, join_code, name, teacher_id, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		s.ID, s.JoinCode, s.Name, s.TeacherID, s.Status,
	).Scan(&s.CreatedAt)
}

// GetByID retrieves a session row.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ClassroomSession, error) {
	s := &model.ClassroomSession{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, join_code, name, teacher_id, scenario_id, current_scene_id, status, created_at, ended_at
		 FROM classroom_sessions
		 WHERE id = $1`, id,
	).Scan(&s.ID, &s.JoinCode, &s.Name, &s.TeacherID, &s.ScenarioID, &s.CurrentSceneID, &s.Status, &s.CreatedAt, &s.EndedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByCode retrieves a session row by join code.
func (r *SessionRepository) GetByCode(ctx context.Context, joinCode string) (*model.ClassroomSession, error) {
	s := &model.ClassroomSession{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, join_code, name, teacher_id, scenario_id, current_scene_id, status, created_at, ended_at
		 FROM classroom_sessions
		 WHERE join_code = $1
		 ORDER BY created_at DESC
		 LIMIT 1`, joinCode,
	).Scan(&s.ID, &s.JoinCode, &s.Name, &s.TeacherID, &s.ScenarioID, &s.CurrentSceneID, &s.Status, &s.CreatedAt, &s.EndedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListByTeacher returns a teacher's sessions, newest first.
func (r *SessionRepository) ListByTeacher(ctx context.Context, teacherID int) ([]model.ClassroomSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, join_code, name, teacher_id, scenario_id, current_scene_id, status, created_at, ended_at
		 FROM classroom_sessions
		 WHERE teacher_id = $1
		 ORDER BY created_at DESC`, teacherID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.ClassroomSession
	for rows.Next() {
		var s model.ClassroomSession
		if err := rows.Scan(&s.ID, &s.JoinCode, &s.Name, &s.TeacherID, &s.ScenarioID, &s.CurrentSceneID, &s.Status, &s.CreatedAt, &s.EndedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// UpdateProgress persists the scenario/scene pointer and status after a
// coordinator mutation. Best-effort from the service's point of view.
func (r *SessionRepository) UpdateProgress(ctx context.Context, s *model.ClassroomSession) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE classroom_sessions
		 SET scenario_id = $1, current_scene_id = $2, status = $3, ended_at = $4
		 WHERE id = $5`,
		s.ScenarioID, s.CurrentSceneID, s.Status, s.EndedAt, s.ID)
	return err
}

// AddParticipant records a roster join. Re-joining refreshes the name.
func (r *SessionRepository) AddParticipant(ctx context.Context, sessionID uuid.UUID, p model.Participant) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO session_participants (session_id, participant_id, display_name, joined_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (session_id, participant_id)
		 DO UPDATE SET display_name = EXCLUDED.display_name`,
		sessionID, p.ID, p.DisplayName, p.JoinedAt)
	return err
}

// RemoveParticipant marks a roster leave. The row keeps the join for
// history; only the left_at timestamp is set.
func (r *SessionRepository) RemoveParticipant(ctx context.Context, sessionID uuid.UUID, participantID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE session_participants
		 SET left_at = $1
		 WHERE session_id = $2 AND participant_id = $3`,
		time.Now(), sessionID, participantID)
	return err
}

// ListParticipants returns the full roster history for a session.
func (r *SessionRepository) ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]model.Participant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT participant_id, display_name, joined_at
		 FROM session_participants
		 WHERE session_id = $1
		 ORDER BY joined_at`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var participants []model.Participant
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}
