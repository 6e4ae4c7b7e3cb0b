package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lifepath/lifepath-backend/internal/middleware"
	"github.com/lifepath/lifepath-backend/internal/model"
	"github.com/lifepath/lifepath-backend/internal/response"
	"github.com/lifepath/lifepath-backend/internal/service"
	"github.com/lifepath/lifepath-backend/internal/validator"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	accountService *service.AccountService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accountService *service.AccountService) *AuthHandler {
	return &AuthHandler{accountService: accountService}
}

// TeacherLogin godoc
// POST /api/v1/auth/teacher/login
// Authenticates a teacher by email and password.
func (h *AuthHandler) TeacherLogin(c *gin.Context) {
	var req model.TeacherLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.accountService.TeacherLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// StudentRegister godoc
// POST /api/v1/auth/student/register
// Creates a lightweight student identity from a display name.
func (h *AuthHandler) StudentRegister(c *gin.Context) {
	var req model.StudentRegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.accountService.RegisterStudent(c.Request.Context(), req.Name)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// GuestToken godoc
// POST /api/v1/auth/guest
// Issues an anonymous token for individual-mode play.
func (h *AuthHandler) GuestToken(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"omitempty,max=100"`
	}
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if req.Name == "" {
		req.Name = "Guest"
	}

	result, err := h.accountService.GuestToken(req.Name)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Me godoc
// GET /api/v1/auth/me
// Returns the identity triple of the current actor.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"actor_id":     claims.Subject,
		"role":         claims.Role,
		"display_name": claims.DisplayName,
	})
}
