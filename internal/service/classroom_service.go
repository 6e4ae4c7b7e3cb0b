package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lifepath/lifepath-backend/internal/config"
	"github.com/lifepath/lifepath-backend/internal/game"
	"github.com/lifepath/lifepath-backend/internal/model"
	"github.com/lifepath/lifepath-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// joinCodeAlphabet avoids easily confused characters (0/O, 1/I/L).
const joinCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// ClassroomService owns every live classroom session in this process: one
// authoritative coordinator per session, on the teacher's instance of
// record. Students converge on its state through snapshots; the Redis
// pub/sub channel only signals "something changed", and each subscriber
// re-reads its role-filtered snapshot.
//
// Durable rows in PostgreSQL trail the live state for dashboards and
// review; they never drive the state machine.
type ClassroomService struct {
	sessionRepo *repository.SessionRepository
	catalog     *CatalogService
	rdb         *redis.Client
	cfg         *config.Config
	log         zerolog.Logger

	mu   sync.RWMutex
	live map[uuid.UUID]*game.Coordinator
}

// NewClassroomService creates a new ClassroomService.
func NewClassroomService(
	sessionRepo *repository.SessionRepository,
	catalog *CatalogService,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *ClassroomService {
	return &ClassroomService{
		sessionRepo: sessionRepo,
		catalog:     catalog,
		rdb:         rdb,
		cfg:         cfg,
		log:         log.With().Str("component", "classroom_service").Logger(),
		live:        make(map[uuid.UUID]*game.Coordinator),
	}
}

// CreateSession opens a new classroom session in the WAITING state and
// registers its coordinator as the live authority.
func (s *ClassroomService) CreateSession(ctx context.Context, teacherID int, name string) (*model.ClassroomSession, error) {
	code, err := generateJoinCode(6)
	if err != nil {
		return nil, fmt.Errorf("generate join code: %w", err)
	}

	session := &model.ClassroomSession{
		ID:        uuid.New(),
		JoinCode:  code,
		Name:      name,
		TeacherID: teacherID,
		Status:    model.SessionStatusWaiting,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	sessionID := session.ID
	mirror := game.NewMirrorScheduler(s.cfg.MirrorMoments, func(sceneID, prompt, content string) {
		s.queueSessionReflection(sessionID, sceneID, prompt, content)
	})
	coordinator := game.NewCoordinator(*session, s.catalog, mirror)

	s.mu.Lock()
	s.live[sessionID] = coordinator
	s.mu.Unlock()

	// Join-code lookup stays fast even with many historic sessions.
	codeKey := config.CacheKey.SessionJoinCodeKey(code)
	if err := s.rdb.Set(ctx, codeKey, sessionID.String(), 24*time.Hour).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Cache join code failed")
	}

	s.log.Info().
		Str("session_id", sessionID.String()).
		Str("join_code", code).
		Int("teacher_id", teacherID).
		Msg("Classroom session created")
	return session, nil
}

// ResolveJoinCode maps a join code to a live session id.
func (s *ClassroomService) ResolveJoinCode(ctx context.Context, code string) (uuid.UUID, error) {
	codeKey := config.CacheKey.SessionJoinCodeKey(code)
	val, err := s.rdb.Get(ctx, codeKey).Result()
	if err == nil {
		if id, parseErr := uuid.Parse(val); parseErr == nil {
			return id, nil
		}
	}

	// Cache miss: fall back to the database row.
	session, err := s.sessionRepo.GetByCode(ctx, code)
	if err != nil {
		return uuid.Nil, game.ErrNotFound
	}
	return session.ID, nil
}

// Join adds the actor to the session roster and broadcasts the change.
func (s *ClassroomService) Join(ctx context.Context, sessionID uuid.UUID, actor game.Actor) (*game.Snapshot, error) {
	c, err := s.coordinator(sessionID)
	if err != nil {
		return nil, err
	}

	participant := model.Participant{
		ID:          actor.ID,
		DisplayName: actor.DisplayName,
		JoinedAt:    time.Now(),
	}
	if err := c.Join(participant); err != nil {
		return nil, err
	}

	if err := s.sessionRepo.AddParticipant(ctx, sessionID, participant); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Persist participant failed")
	}
	s.notify(ctx, sessionID)

	snap := c.Snapshot(actor.Role)
	return &snap, nil
}

// Leave removes the actor from the roster. Allowed in any state.
func (s *ClassroomService) Leave(ctx context.Context, sessionID uuid.UUID, actorID string) {
	c, err := s.coordinator(sessionID)
	if err != nil {
		return
	}
	c.Leave(actorID)
	if err := s.sessionRepo.RemoveParticipant(ctx, sessionID, actorID); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Persist leave failed")
	}
	s.notify(ctx, sessionID)
}

// SelectScenario is the teacher command moving WAITING → ACTIVE.
func (s *ClassroomService) SelectScenario(ctx context.Context, sessionID uuid.UUID, actor game.Actor, scenarioID string) error {
	c, err := s.coordinator(sessionID)
	if err != nil {
		return err
	}
	if err := c.SelectScenario(actor, scenarioID); err != nil {
		return err
	}
	s.persistProgress(ctx, c)
	s.notify(ctx, sessionID)
	return nil
}

// SubmitVote records a student's vote for the current scene epoch.
func (s *ClassroomService) SubmitVote(ctx context.Context, sessionID uuid.UUID, actor game.Actor, choiceID string, epoch int) error {
	c, err := s.coordinator(sessionID)
	if err != nil {
		return err
	}
	if err := c.SubmitVote(actor, choiceID, epoch); err != nil {
		return err
	}
	s.notify(ctx, sessionID)
	return nil
}

// Reveal opens the tally to the class.
func (s *ClassroomService) Reveal(ctx context.Context, sessionID uuid.UUID, actor game.Actor) error {
	c, err := s.coordinator(sessionID)
	if err != nil {
		return err
	}
	if err := c.Reveal(actor); err != nil {
		return err
	}
	s.notify(ctx, sessionID)
	return nil
}

// Advance resolves the majority and moves the shared scene forward.
func (s *ClassroomService) Advance(ctx context.Context, sessionID uuid.UUID, actor game.Actor) (*game.Snapshot, error) {
	c, err := s.coordinator(sessionID)
	if err != nil {
		return nil, err
	}
	snap, err := c.Advance(actor)
	if err != nil {
		return nil, err
	}
	s.afterAdvance(ctx, c, snap)
	return snap, nil
}

// ForceAdvance moves forward with a teacher-chosen default when the class
// has no consensus.
func (s *ClassroomService) ForceAdvance(ctx context.Context, sessionID uuid.UUID, actor game.Actor, choiceID string) (*game.Snapshot, error) {
	c, err := s.coordinator(sessionID)
	if err != nil {
		return nil, err
	}
	snap, err := c.ForceAdvance(actor, choiceID)
	if err != nil {
		return nil, err
	}
	s.afterAdvance(ctx, c, snap)
	return snap, nil
}

// DismissMirror clears the shared reflection prompt.
func (s *ClassroomService) DismissMirror(ctx context.Context, sessionID uuid.UUID, actor game.Actor, content string) error {
	c, err := s.coordinator(sessionID)
	if err != nil {
		return err
	}
	if err := c.DismissMirror(actor, content); err != nil {
		return err
	}
	s.notify(ctx, sessionID)
	return nil
}

// Pause freezes votes; Resume re-admits them for the unchanged epoch.
func (s *ClassroomService) Pause(ctx context.Context, sessionID uuid.UUID, actor game.Actor) error {
	return s.statusCommand(ctx, sessionID, actor, func(c *game.Coordinator) error { return c.Pause(actor) })
}

// Resume returns a paused session to ACTIVE.
func (s *ClassroomService) Resume(ctx context.Context, sessionID uuid.UUID, actor game.Actor) error {
	return s.statusCommand(ctx, sessionID, actor, func(c *game.Coordinator) error { return c.Resume(actor) })
}

// End terminates the session and queues the shared run history if the
// class finished the scenario.
func (s *ClassroomService) End(ctx context.Context, sessionID uuid.UUID, actor game.Actor) error {
	c, err := s.coordinator(sessionID)
	if err != nil {
		return err
	}
	if err := c.End(actor); err != nil {
		return err
	}
	s.persistProgress(ctx, c)
	s.notify(ctx, sessionID)

	session := c.Session()
	codeKey := config.CacheKey.SessionJoinCodeKey(session.JoinCode)
	if err := s.rdb.Del(ctx, codeKey).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Drop join code failed")
	}

	if st := c.GameState(); st.Status == model.GameStatusComplete {
		s.queueSessionHistory(ctx, session.ID, st)
	}

	s.mu.Lock()
	delete(s.live, sessionID)
	s.mu.Unlock()

	s.log.Info().Str("session_id", sessionID.String()).Msg("Classroom session ended")
	return nil
}

// Snapshot returns the role-filtered converged view of a session. Live
// sessions read from their coordinator. After End evicts the coordinator
// the durable row still answers, so a subscriber whose change signal
// arrives after the eviction receives the terminal ENDED state instead
// of an error.
func (s *ClassroomService) Snapshot(ctx context.Context, sessionID uuid.UUID, role model.Role) (*game.Snapshot, error) {
	if c, err := s.coordinator(sessionID); err == nil {
		snap := c.Snapshot(role)
		return &snap, nil
	}
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, game.ErrNotFound
	}
	snap := game.SnapshotFromRecord(*session, s.catalog)
	return &snap, nil
}

// ListByTeacher returns a teacher's durable session rows.
func (s *ClassroomService) ListByTeacher(ctx context.Context, teacherID int) ([]model.ClassroomSession, error) {
	return s.sessionRepo.ListByTeacher(ctx, teacherID)
}

// GetSession returns a session's durable row, live or historic.
func (s *ClassroomService) GetSession(ctx context.Context, sessionID uuid.UUID) (*model.ClassroomSession, error) {
	if c, err := s.coordinator(sessionID); err == nil {
		session := c.Session()
		return &session, nil
	}
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, game.ErrNotFound
	}
	return session, nil
}

// Subscribe attaches to the session's change-notification channel.
func (s *ClassroomService) Subscribe(ctx context.Context, sessionID uuid.UUID) *redis.PubSub {
	channel := config.CacheKey.SessionEventsChannel(sessionID.String())
	return s.rdb.Subscribe(ctx, channel)
}

func (s *ClassroomService) coordinator(sessionID uuid.UUID) (*game.Coordinator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.live[sessionID]
	if !ok {
		return nil, game.ErrNotFound
	}
	return c, nil
}

func (s *ClassroomService) statusCommand(ctx context.Context, sessionID uuid.UUID, actor game.Actor, op func(*game.Coordinator) error) error {
	c, err := s.coordinator(sessionID)
	if err != nil {
		return err
	}
	if err := op(c); err != nil {
		return err
	}
	s.persistProgress(ctx, c)
	s.notify(ctx, sessionID)
	return nil
}

func (s *ClassroomService) afterAdvance(ctx context.Context, c *game.Coordinator, snap *game.Snapshot) {
	s.persistProgress(ctx, c)
	s.notify(ctx, snap.Session.ID)
}

// persistProgress trails the live state into PostgreSQL. Failures are
// logged, never surfaced: the in-memory coordinator stays authoritative.
func (s *ClassroomService) persistProgress(ctx context.Context, c *game.Coordinator) {
	session := c.Session()
	if err := s.sessionRepo.UpdateProgress(ctx, &session); err != nil {
		s.log.Warn().Err(err).Str("session_id", session.ID.String()).Msg("Persist session progress failed")
	}
}

// notify publishes a change signal; subscribers re-read their snapshot.
func (s *ClassroomService) notify(ctx context.Context, sessionID uuid.UUID) {
	channel := config.CacheKey.SessionEventsChannel(sessionID.String())
	payload, _ := json.Marshal(map[string]string{"type": "changed"})
	if err := s.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Publish change signal failed")
	}
}

func (s *ClassroomService) queueSessionHistory(ctx context.Context, sessionID uuid.UUID, st model.GameState) {
	payload, err := json.Marshal(historyPayload{
		PlayerID:    "session:" + sessionID.String(),
		ScenarioID:  st.ScenarioID,
		FinalScene:  st.SceneID,
		Metrics:     st.Metrics,
		History:     st.History,
		CompletedAt: time.Now(),
	})
	if err != nil {
		s.log.Error().Err(err).Msg("Encode session history failed")
		return
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistHistoriesQueue, payload).Err(); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Queue session history failed")
	}
}

// queueSessionReflection is the coordinator's reflection sink. It runs
// inside coordinator calls, so it must not block; Redis RPush with a short
// background context keeps it fire-and-forget.
func (s *ClassroomService) queueSessionReflection(sessionID uuid.UUID, sceneID, prompt, content string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	payload, err := json.Marshal(reflectionPayload{
		PlayerID:  "session:" + sessionID.String(),
		SceneID:   sceneID,
		Prompt:    prompt,
		Content:   content,
		CreatedAt: time.Now(),
	})
	if err != nil {
		s.log.Error().Err(err).Msg("Encode session reflection failed")
		return
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistReflectionsQueue, payload).Err(); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Queue session reflection failed")
	}
}

func generateJoinCode(length int) (string, error) {
	// 256 is not a multiple of the alphabet size, so bytes past the
	// largest multiple are rejected to keep every character equally
	// likely.
	limit := byte(256 - 256%len(joinCodeAlphabet))
	code := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(code) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			code = append(code, joinCodeAlphabet[int(b)%len(joinCodeAlphabet)])
			if len(code) == length {
				break
			}
		}
	}
	return string(code), nil
}
