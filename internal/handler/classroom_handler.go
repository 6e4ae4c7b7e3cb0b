package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lifepath/lifepath-backend/internal/game"
	"github.com/lifepath/lifepath-backend/internal/middleware"
	"github.com/lifepath/lifepath-backend/internal/model"
	"github.com/lifepath/lifepath-backend/internal/response"
	"github.com/lifepath/lifepath-backend/internal/service"
	"github.com/lifepath/lifepath-backend/internal/validator"
)

// ClassroomHandler exposes the classroom session REST surface. The teacher
// commands here mirror the WebSocket actions so a dashboard can drive a
// session without holding a socket open.
type ClassroomHandler struct {
	classroomService *service.ClassroomService
}

// NewClassroomHandler creates a new ClassroomHandler.
func NewClassroomHandler(classroomService *service.ClassroomService) *ClassroomHandler {
	return &ClassroomHandler{classroomService: classroomService}
}

// CreateSession godoc
// POST /api/v1/classroom/sessions
// Opens a new waiting session and returns its join code.
func (h *ClassroomHandler) CreateSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.classroomService.CreateSession(c.Request.Context(), claims.UserID, req.Name)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, session)
}

// ListSessions godoc
// GET /api/v1/classroom/sessions
// Lists the authenticated teacher's sessions, live and ended.
func (h *ClassroomHandler) ListSessions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessions, err := h.classroomService.ListByTeacher(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, sessions)
}

// GetSession godoc
// GET /api/v1/classroom/sessions/:id
// Returns the session row; works for live and historic sessions.
func (h *ClassroomHandler) GetSession(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	session, err := h.classroomService.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		failGame(c, err)
		return
	}
	response.Success(c, http.StatusOK, session)
}

// GetSnapshot godoc
// GET /api/v1/classroom/sessions/:id/snapshot
// Returns the role-filtered snapshot of the session, live or ended.
func (h *ClassroomHandler) GetSnapshot(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	snap, err := h.classroomService.Snapshot(c.Request.Context(), sessionID, claims.Role)
	if err != nil {
		failGame(c, err)
		return
	}
	response.Success(c, http.StatusOK, snap)
}

// ResolveJoinCode godoc
// POST /api/v1/classroom/join
// Maps a join code to a session id so the client can open its socket.
func (h *ClassroomHandler) ResolveJoinCode(c *gin.Context) {
	var req model.JoinSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sessionID, err := h.classroomService.ResolveJoinCode(c.Request.Context(), req.JoinCode)
	if err != nil {
		failGame(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session_id": sessionID.String()})
}

// SelectScenario godoc
// POST /api/v1/classroom/sessions/:id/scenario
// Teacher command: pick the scenario and start the shared run.
func (h *ClassroomHandler) SelectScenario(c *gin.Context) {
	claims, sessionID, ok := h.commandContext(c)
	if !ok {
		return
	}

	var req model.SelectScenarioRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.classroomService.SelectScenario(c.Request.Context(), sessionID, claims.Actor(), req.ScenarioID); err != nil {
		failGame(c, err)
		return
	}
	h.snapshot(c, sessionID, claims.Role)
}

// Reveal godoc
// POST /api/v1/classroom/sessions/:id/reveal
// Teacher command: open the vote tally to the class.
func (h *ClassroomHandler) Reveal(c *gin.Context) {
	h.simpleCommand(c, h.classroomService.Reveal)
}

// Advance godoc
// POST /api/v1/classroom/sessions/:id/advance
// Teacher command: resolve the majority and move the scene forward.
func (h *ClassroomHandler) Advance(c *gin.Context) {
	claims, sessionID, ok := h.commandContext(c)
	if !ok {
		return
	}

	snap, err := h.classroomService.Advance(c.Request.Context(), sessionID, claims.Actor())
	if err != nil {
		failGame(c, err)
		return
	}
	response.Success(c, http.StatusOK, snap)
}

// ForceAdvance godoc
// POST /api/v1/classroom/sessions/:id/force-advance
// Teacher command: advance on a teacher-chosen choice when votes deadlock.
func (h *ClassroomHandler) ForceAdvance(c *gin.Context) {
	claims, sessionID, ok := h.commandContext(c)
	if !ok {
		return
	}

	var req struct {
		ChoiceID string `json:"choice_id" binding:"required,min=1,max=64"`
	}
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	snap, err := h.classroomService.ForceAdvance(c.Request.Context(), sessionID, claims.Actor(), req.ChoiceID)
	if err != nil {
		failGame(c, err)
		return
	}
	response.Success(c, http.StatusOK, snap)
}

// DismissMirror godoc
// POST /api/v1/classroom/sessions/:id/mirror/dismiss
// Teacher command: close the shared reflection prompt.
func (h *ClassroomHandler) DismissMirror(c *gin.Context) {
	claims, sessionID, ok := h.commandContext(c)
	if !ok {
		return
	}

	var req struct {
		Reflection string `json:"reflection" binding:"omitempty,max=4000"`
	}
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.classroomService.DismissMirror(c.Request.Context(), sessionID, claims.Actor(), req.Reflection); err != nil {
		failGame(c, err)
		return
	}
	h.snapshot(c, sessionID, claims.Role)
}

// Pause godoc
// POST /api/v1/classroom/sessions/:id/pause
func (h *ClassroomHandler) Pause(c *gin.Context) {
	h.simpleCommand(c, h.classroomService.Pause)
}

// Resume godoc
// POST /api/v1/classroom/sessions/:id/resume
func (h *ClassroomHandler) Resume(c *gin.Context) {
	h.simpleCommand(c, h.classroomService.Resume)
}

// End godoc
// POST /api/v1/classroom/sessions/:id/end
// Teacher command: terminate the session. Terminal in every state.
func (h *ClassroomHandler) End(c *gin.Context) {
	claims, sessionID, ok := h.commandContext(c)
	if !ok {
		return
	}

	if err := h.classroomService.End(c.Request.Context(), sessionID, claims.Actor()); err != nil {
		failGame(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ─── Helpers ───

// simpleCommand handles the teacher commands with no request body: run the
// operation, then respond with the caller's fresh snapshot.
func (h *ClassroomHandler) simpleCommand(c *gin.Context, op func(context.Context, uuid.UUID, game.Actor) error) {
	claims, sessionID, ok := h.commandContext(c)
	if !ok {
		return
	}

	if err := op(c.Request.Context(), sessionID, claims.Actor()); err != nil {
		failGame(c, err)
		return
	}
	h.snapshot(c, sessionID, claims.Role)
}

func (h *ClassroomHandler) commandContext(c *gin.Context) (*service.Claims, uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, uuid.Nil, false
	}
	sessionID, ok := parseSessionID(c)
	if !ok {
		return nil, uuid.Nil, false
	}
	return claims, sessionID, true
}

func (h *ClassroomHandler) snapshot(c *gin.Context, sessionID uuid.UUID, role model.Role) {
	snap, err := h.classroomService.Snapshot(c.Request.Context(), sessionID, role)
	if err != nil {
		failGame(c, err)
		return
	}
	response.Success(c, http.StatusOK, snap)
}

func parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation)
		return uuid.Nil, false
	}
	return sessionID, true
}
