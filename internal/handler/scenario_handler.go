package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lifepath/lifepath-backend/internal/model"
	"github.com/lifepath/lifepath-backend/internal/response"
	"github.com/lifepath/lifepath-backend/internal/service"
)

// ScenarioHandler serves the read-only scenario catalog.
type ScenarioHandler struct {
	catalog *service.CatalogService
}

// NewScenarioHandler creates a new ScenarioHandler.
func NewScenarioHandler(catalog *service.CatalogService) *ScenarioHandler {
	return &ScenarioHandler{catalog: catalog}
}

// scenarioSummary is the catalog listing entry: no scene graph, just
// enough to pick one.
type scenarioSummary struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	InitialMetrics model.Metrics `json:"initial_metrics"`
	SceneCount     int           `json:"scene_count"`
}

// ListScenarios godoc
// GET /api/v1/scenarios
// Lists every scenario in catalog order.
func (h *ScenarioHandler) ListScenarios(c *gin.Context) {
	scenarios := h.catalog.Scenarios()
	summaries := make([]scenarioSummary, 0, len(scenarios))
	for _, s := range scenarios {
		summaries = append(summaries, scenarioSummary{
			ID:             s.ID,
			Title:          s.Title,
			Description:    s.Description,
			InitialMetrics: s.InitialMetrics,
			SceneCount:     len(s.Scenes),
		})
	}
	response.Success(c, http.StatusOK, summaries)
}

// GetScenario godoc
// GET /api/v1/scenarios/:id
// Returns one scenario with its full scene graph.
func (h *ScenarioHandler) GetScenario(c *gin.Context) {
	scenario, ok := h.catalog.Scenario(c.Param("id"))
	if !ok {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, scenario)
}
