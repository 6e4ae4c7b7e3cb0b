package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lifepath/lifepath-backend/internal/game"
	"github.com/lifepath/lifepath-backend/internal/response"
	"github.com/lifepath/lifepath-backend/internal/service"
)

// mapGameError translates core sentinel errors into HTTP status codes and
// API error codes. One mapping for every handler keeps the edge honest.
func mapGameError(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, game.ErrNotFound):
		return http.StatusNotFound, response.ErrNotFound
	case errors.Is(err, service.ErrNoActiveGame):
		return http.StatusNotFound, response.ErrGameNotActive
	case errors.Is(err, game.ErrInvalidChoice):
		return http.StatusBadRequest, response.ErrInvalidChoice
	case errors.Is(err, game.ErrNoConsensus), errors.Is(err, game.ErrNoVotes):
		return http.StatusConflict, response.ErrNoConsensus
	case errors.Is(err, game.ErrSessionPaused):
		return http.StatusConflict, response.ErrSessionPaused
	case errors.Is(err, game.ErrSessionEnded):
		return http.StatusGone, response.ErrSessionEnded
	case errors.Is(err, game.ErrStaleVote):
		return http.StatusConflict, response.ErrStaleVote
	case errors.Is(err, game.ErrMirrorPending):
		return http.StatusConflict, response.ErrMirrorPending
	case errors.Is(err, game.ErrNotRevealed):
		return http.StatusConflict, response.ErrNotRevealed
	case errors.Is(err, game.ErrUnauthorized):
		return http.StatusForbidden, response.ErrForbidden
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}

// failGame sends the mapped error response for a core failure.
func failGame(c *gin.Context, err error) {
	status, code := mapGameError(err)
	response.Fail(c, status, code)
}
