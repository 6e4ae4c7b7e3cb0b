package service

import (
	"context"
	"fmt"

	"github.com/lifepath/lifepath-backend/internal/model"
	"github.com/lifepath/lifepath-backend/internal/repository"
	"github.com/rs/zerolog"
)

// CatalogService loads the scenario catalog once at startup and serves it
// from memory thereafter. It implements game.Catalog; nothing writes
// through it.
type CatalogService struct {
	repo *repository.ScenarioRepository
	log  zerolog.Logger

	ordered []*model.Scenario
	byID    map[string]*model.Scenario
}

// NewCatalogService creates an empty catalog; call Load before serving.
func NewCatalogService(repo *repository.ScenarioRepository, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		repo: repo,
		log:  log.With().Str("component", "catalog_service").Logger(),
		byID: make(map[string]*model.Scenario),
	}
}

// Load reads every scenario from the database, validates scene-graph
// referential integrity, and caches the result. Called once before the
// server accepts traffic; a scenario that fails validation rejects the
// whole load rather than serving a broken graph.
func (s *CatalogService) Load(ctx context.Context) error {
	scenarios, err := s.repo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	byID := make(map[string]*model.Scenario, len(scenarios))
	for _, sc := range scenarios {
		if err := sc.Validate(); err != nil {
			return fmt.Errorf("validate catalog: %w", err)
		}
		byID[sc.ID] = sc
	}

	s.ordered = scenarios
	s.byID = byID
	s.log.Info().Int("scenarios", len(scenarios)).Msg("Scenario catalog loaded")
	return nil
}

// Scenario returns a scenario by id.
func (s *CatalogService) Scenario(id string) (*model.Scenario, bool) {
	sc, ok := s.byID[id]
	return sc, ok
}

// Scenarios returns every scenario in catalog order.
func (s *CatalogService) Scenarios() []*model.Scenario {
	return s.ordered
}
