package handler

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lifepath/lifepath-backend/internal/game"
	"github.com/lifepath/lifepath-backend/internal/middleware"
	"github.com/lifepath/lifepath-backend/internal/model"
	"github.com/lifepath/lifepath-backend/internal/response"
	"github.com/lifepath/lifepath-backend/internal/service"
	ws "github.com/lifepath/lifepath-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allow-list permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a classroom session over WebSocket. Each connection
// joins the session roster on upgrade, receives a fresh role-filtered
// snapshot whenever the session changes, and drives its actions through
// the classroom service.
type WSHandler struct {
	classroomService *service.ClassroomService
	log              zerolog.Logger
	upgrader         websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(classroomService *service.ClassroomService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		classroomService: classroomService,
		log:              log.With().Str("component", "ws_handler").Logger(),
		upgrader:         buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/classroom/sessions/:id/stream
// Upgrades to WebSocket for live classroom play.
func (h *WSHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	actor := claims.Actor()
	wsLog := h.log.With().
		Str("actor_id", actor.ID).
		Str("role", string(actor.Role)).
		Str("session_id", sessionID.String()).
		Logger()

	// Gorilla allows one concurrent writer; the pub/sub forwarder and the
	// action loop share the connection, so every write goes through mu.
	var mu sync.Mutex
	write := func(v interface{}) error {
		mu.Lock()
		defer mu.Unlock()
		return ws.WriteTyped(conn, v)
	}
	writeErr := func(err error) {
		_, code := mapGameError(err)
		mu.Lock()
		defer mu.Unlock()
		ws.WriteError(conn, string(code), response.GetMessage(code))
	}

	snap, err := h.classroomService.Join(c.Request.Context(), sessionID, actor)
	if err != nil {
		writeErr(err)
		return
	}
	defer h.classroomService.Leave(context.Background(), sessionID, actor.ID)

	wsLog.Info().Msg("Participant connected")

	if err := write(ws.SnapshotResponse{Event: ws.EventSnapshot, Payload: snap}); err != nil {
		return
	}

	// Forward change signals as fresh snapshots until the reader exits.
	forwardCtx, cancelForward := context.WithCancel(c.Request.Context())
	defer cancelForward()
	go h.forwardSnapshots(forwardCtx, wsLog, sessionID, actor.Role, write)

	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}
		h.dispatch(c.Request.Context(), wsLog, sessionID, actor, &msg, write, writeErr)
	}
}

// forwardSnapshots re-reads the caller's role-filtered snapshot on every
// change signal. The payload on the channel is only a nudge; reading the
// coordinator directly means late or coalesced signals still converge.
func (h *WSHandler) forwardSnapshots(
	ctx context.Context,
	wsLog zerolog.Logger,
	sessionID uuid.UUID,
	role model.Role,
	write func(interface{}) error,
) {
	pubsub := h.classroomService.Subscribe(ctx, sessionID)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			snap, err := h.classroomService.Snapshot(ctx, sessionID, role)
			if err != nil {
				wsLog.Debug().Msg("Snapshot after change signal failed")
				return
			}
			if err := write(ws.SnapshotResponse{Event: ws.EventSnapshot, Payload: snap}); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) dispatch(
	ctx context.Context,
	wsLog zerolog.Logger,
	sessionID uuid.UUID,
	actor game.Actor,
	msg *ws.RequestEnvelope,
	write func(interface{}) error,
	writeErr func(error),
) {
	switch msg.Action {
	case ws.ActionVote:
		if err := h.classroomService.SubmitVote(ctx, sessionID, actor, msg.ChoiceID, msg.Epoch); err != nil {
			writeErr(err)
			return
		}
		write(ws.VoteAckResponse{Event: ws.EventVoteAck, Epoch: msg.Epoch})

	case ws.ActionMirrorAck:
		if err := h.classroomService.DismissMirror(ctx, sessionID, actor, msg.Reflection); err != nil {
			writeErr(err)
		}

	case ws.ActionPing:
		write(ws.PongResponse{Event: ws.EventPong})

	case ws.ActionSelectScenario:
		if err := h.classroomService.SelectScenario(ctx, sessionID, actor, msg.ScenarioID); err != nil {
			writeErr(err)
		}

	case ws.ActionReveal:
		if err := h.classroomService.Reveal(ctx, sessionID, actor); err != nil {
			writeErr(err)
		}

	case ws.ActionAdvance:
		if _, err := h.classroomService.Advance(ctx, sessionID, actor); err != nil {
			writeErr(err)
		}

	case ws.ActionForceAdvance:
		if _, err := h.classroomService.ForceAdvance(ctx, sessionID, actor, msg.ChoiceID); err != nil {
			writeErr(err)
		}

	case ws.ActionPause:
		if err := h.classroomService.Pause(ctx, sessionID, actor); err != nil {
			writeErr(err)
		}

	case ws.ActionResume:
		if err := h.classroomService.Resume(ctx, sessionID, actor); err != nil {
			writeErr(err)
		}

	case ws.ActionEnd:
		if err := h.classroomService.End(ctx, sessionID, actor); err != nil {
			writeErr(err)
		}

	default:
		wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
		write(ws.ErrorResponse{
			Event: ws.EventError,
			Code:  "UNKNOWN_ACTION",
			Error: "unknown action: " + string(msg.Action),
		})
	}
}
