package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lifepath/lifepath-backend/internal/middleware"
	"github.com/lifepath/lifepath-backend/internal/response"
	"github.com/lifepath/lifepath-backend/internal/service"
	"github.com/lifepath/lifepath-backend/internal/validator"
)

// PlayHandler exposes individual-mode play. Every route requires a player
// token; the actor id from the claims scopes the run.
type PlayHandler struct {
	playService *service.PlayService
}

// NewPlayHandler creates a new PlayHandler.
func NewPlayHandler(playService *service.PlayService) *PlayHandler {
	return &PlayHandler{playService: playService}
}

// StartGame godoc
// POST /api/v1/play/start
// Begins a fresh run of a scenario, replacing any previous one.
func (h *PlayHandler) StartGame(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req struct {
		ScenarioID string `json:"scenario_id" binding:"required,min=1,max=64"`
	}
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	snap, err := h.playService.StartGame(c.Request.Context(), claims.Subject, req.ScenarioID)
	if err != nil {
		failGame(c, err)
		return
	}
	response.Success(c, http.StatusCreated, snap)
}

// ApplyChoice godoc
// POST /api/v1/play/choice
// Applies one choice to the active run.
func (h *PlayHandler) ApplyChoice(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req struct {
		ChoiceID string `json:"choice_id" binding:"required,min=1,max=64"`
	}
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	snap, err := h.playService.ApplyChoice(c.Request.Context(), claims.Subject, req.ChoiceID)
	if err != nil {
		failGame(c, err)
		return
	}
	response.Success(c, http.StatusOK, snap)
}

// GetState godoc
// GET /api/v1/play/state
// Returns the current run snapshot.
func (h *PlayHandler) GetState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	snap, err := h.playService.GetState(c.Request.Context(), claims.Subject)
	if err != nil {
		failGame(c, err)
		return
	}
	response.Success(c, http.StatusOK, snap)
}

// DismissMirror godoc
// POST /api/v1/play/mirror/dismiss
// Clears the pending reflection prompt; reflection text is optional.
func (h *PlayHandler) DismissMirror(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req struct {
		Reflection string `json:"reflection" binding:"omitempty,max=4000"`
	}
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	snap, err := h.playService.DismissMirror(c.Request.Context(), claims.Subject, req.Reflection)
	if err != nil {
		failGame(c, err)
		return
	}
	response.Success(c, http.StatusOK, snap)
}

// ResetGame godoc
// DELETE /api/v1/play/state
// Discards the active run. Idempotent.
func (h *PlayHandler) ResetGame(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.playService.ResetGame(c.Request.Context(), claims.Subject); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ListRuns godoc
// GET /api/v1/play/runs
// Returns the player's completed runs from the history sink.
func (h *PlayHandler) ListRuns(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	runs, err := h.playService.ListCompletedRuns(c.Request.Context(), claims.Subject)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, runs)
}

// ListReflections godoc
// GET /api/v1/play/reflections
// Returns the player's persisted mirror-moment reflections.
func (h *PlayHandler) ListReflections(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	reflections, err := h.playService.ListReflections(c.Request.Context(), claims.Subject)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, reflections)
}
