package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lifepath/lifepath-backend/internal/config"
	"github.com/lifepath/lifepath-backend/internal/game"
	"github.com/lifepath/lifepath-backend/internal/model"
	"github.com/lifepath/lifepath-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrNoActiveGame means the player has no run snapshot in Redis.
var ErrNoActiveGame = errors.New("no active game")

// PlaySnapshot is the individual-mode view returned to the client: the run
// state plus the resolved current scene and any pending mirror prompt.
type PlaySnapshot struct {
	model.GameState
	Scene  *model.Scene       `json:"scene,omitempty"`
	Mirror *game.MirrorPrompt `json:"mirror,omitempty"`
}

// playState is the Redis-cached form of one player's run. The engine is
// rebuilt from it per request, so the HTTP layer stays stateless.
type playState struct {
	State        model.GameState    `json:"state"`
	Mirror       *game.MirrorPrompt `json:"mirror,omitempty"`
	MirrorServed int                `json:"mirror_served"`
}

// historyPayload is queued for the history worker when a run completes.
type historyPayload struct {
	PlayerID    string               `json:"player_id"`
	ScenarioID  string               `json:"scenario_id"`
	FinalScene  string               `json:"final_scene"`
	Metrics     model.Metrics        `json:"metrics"`
	History     []model.HistoryEntry `json:"history"`
	CompletedAt time.Time            `json:"completed_at"`
}

// reflectionPayload is queued for the reflection worker on mirror dismissal.
type reflectionPayload struct {
	PlayerID  string    `json:"player_id"`
	SceneID   string    `json:"scene_id"`
	Prompt    string    `json:"prompt"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// PlayService drives individual-mode play. Each request restores the
// engine from the player's Redis snapshot, applies one operation, and
// writes the snapshot back. History and reflections go to Redis queues,
// fire-and-forget; in-memory correctness never depends on them.
type PlayService struct {
	catalog        *CatalogService
	runRepo        *repository.RunRepository
	reflectionRepo *repository.ReflectionRepository
	rdb            *redis.Client
	cfg            *config.Config
	log            zerolog.Logger
}

// NewPlayService creates a new PlayService.
func NewPlayService(
	catalog *CatalogService,
	runRepo *repository.RunRepository,
	reflectionRepo *repository.ReflectionRepository,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *PlayService {
	return &PlayService{
		catalog:        catalog,
		runRepo:        runRepo,
		reflectionRepo: reflectionRepo,
		rdb:            rdb,
		cfg:            cfg,
		log:            log.With().Str("component", "play_service").Logger(),
	}
}

// StartGame begins a fresh run, replacing any previous snapshot.
func (s *PlayService) StartGame(ctx context.Context, playerID, scenarioID string) (*PlaySnapshot, error) {
	engine := game.NewEngine(s.catalog)
	if err := engine.Start(scenarioID); err != nil {
		return nil, err
	}

	ps := playState{State: engine.State()}
	if err := s.save(ctx, playerID, &ps); err != nil {
		return nil, err
	}
	return s.view(&ps), nil
}

// ApplyChoice applies one choice to the player's active run. A pending
// mirror prompt suspends progress until dismissed. Completing the run
// queues the history for persistence.
func (s *PlayService) ApplyChoice(ctx context.Context, playerID, choiceID string) (*PlaySnapshot, error) {
	ps, err := s.load(ctx, playerID)
	if err != nil {
		return nil, err
	}

	mirror := game.NewMirrorScheduler(s.cfg.MirrorMoments, nil)
	mirror.Restore(ps.Mirror, ps.MirrorServed)
	if mirror.Blocked() {
		return nil, game.ErrMirrorPending
	}

	engine := game.NewEngine(s.catalog)
	if err := engine.Restore(ps.State); err != nil {
		return nil, err
	}

	prev := engine.Scene()
	if prev == nil {
		return nil, game.ErrInvalidChoice
	}
	if _, err := engine.ApplyChoice(choiceID); err != nil {
		return nil, err
	}
	mirror.AfterAdvance(prev.ID, prev.MirrorPrompt)

	ps.State = engine.State()
	ps.Mirror = mirror.Pending()
	ps.MirrorServed = mirror.Served()
	if err := s.save(ctx, playerID, ps); err != nil {
		return nil, err
	}

	if engine.Completed() {
		s.queueHistory(ctx, playerID, ps.State)
	}
	return s.view(ps), nil
}

// DismissMirror clears the pending reflection prompt, queueing any
// non-empty reflection text for persistence.
func (s *PlayService) DismissMirror(ctx context.Context, playerID, content string) (*PlaySnapshot, error) {
	ps, err := s.load(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if ps.Mirror != nil && content != "" {
		s.queueReflection(ctx, playerID, ps.Mirror, content)
	}
	ps.Mirror = nil
	if err := s.save(ctx, playerID, ps); err != nil {
		return nil, err
	}
	return s.view(ps), nil
}

// GetState returns the player's current run snapshot.
func (s *PlayService) GetState(ctx context.Context, playerID string) (*PlaySnapshot, error) {
	ps, err := s.load(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return s.view(ps), nil
}

// ResetGame discards the player's run. Idempotent.
func (s *PlayService) ResetGame(ctx context.Context, playerID string) error {
	key := config.CacheKey.PlayerGameStateKey(playerID)
	return s.rdb.Del(ctx, key).Err()
}

// ListCompletedRuns returns the player's persisted run history.
func (s *PlayService) ListCompletedRuns(ctx context.Context, playerID string) ([]model.CompletedRun, error) {
	return s.runRepo.ListByPlayer(ctx, playerID)
}

// ListReflections returns the player's persisted reflections.
func (s *PlayService) ListReflections(ctx context.Context, playerID string) ([]model.Reflection, error) {
	return s.reflectionRepo.ListByPlayer(ctx, playerID)
}

func (s *PlayService) load(ctx context.Context, playerID string) (*playState, error) {
	key := config.CacheKey.PlayerGameStateKey(playerID)
	raw, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoActiveGame
	}
	if err != nil {
		return nil, fmt.Errorf("load game state: %w", err)
	}

	ps := &playState{}
	if err := json.Unmarshal([]byte(raw), ps); err != nil {
		return nil, fmt.Errorf("decode game state: %w", err)
	}
	return ps, nil
}

func (s *PlayService) save(ctx context.Context, playerID string, ps *playState) error {
	raw, err := json.Marshal(ps)
	if err != nil {
		return fmt.Errorf("encode game state: %w", err)
	}
	key := config.CacheKey.PlayerGameStateKey(playerID)
	if err := s.rdb.Set(ctx, key, raw, s.cfg.GameStateTTL).Err(); err != nil {
		return fmt.Errorf("save game state: %w", err)
	}
	return nil
}

func (s *PlayService) view(ps *playState) *PlaySnapshot {
	snap := &PlaySnapshot{GameState: ps.State, Mirror: ps.Mirror}
	if scenario, ok := s.catalog.Scenario(ps.State.ScenarioID); ok {
		if scene, ok := scenario.Scene(ps.State.SceneID); ok {
			snap.Scene = scene
		}
	}
	return snap
}

func (s *PlayService) queueHistory(ctx context.Context, playerID string, st model.GameState) {
	payload, err := json.Marshal(historyPayload{
		PlayerID:    playerID,
		ScenarioID:  st.ScenarioID,
		FinalScene:  st.SceneID,
		Metrics:     st.Metrics,
		History:     st.History,
		CompletedAt: time.Now(),
	})
	if err != nil {
		s.log.Error().Err(err).Msg("Encode history payload failed")
		return
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistHistoriesQueue, payload).Err(); err != nil {
		s.log.Warn().Err(err).Str("player_id", playerID).Msg("Queue history failed")
	}
}

func (s *PlayService) queueReflection(ctx context.Context, playerID string, prompt *game.MirrorPrompt, content string) {
	payload, err := json.Marshal(reflectionPayload{
		PlayerID:  playerID,
		SceneID:   prompt.SceneID,
		Prompt:    prompt.Question,
		Content:   content,
		CreatedAt: time.Now(),
	})
	if err != nil {
		s.log.Error().Err(err).Msg("Encode reflection payload failed")
		return
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistReflectionsQueue, payload).Err(); err != nil {
		s.log.Warn().Err(err).Str("player_id", playerID).Msg("Queue reflection failed")
	}
}
