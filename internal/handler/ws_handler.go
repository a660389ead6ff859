package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/websurvey-backend/internal/middleware"
	"github.com/stemsi/websurvey-backend/internal/service"
	"github.com/stemsi/websurvey-backend/internal/validator"
	ws "github.com/stemsi/websurvey-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
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

// WSHandler streams survey answers over a WebSocket.
type WSHandler struct {
	sessions SessionManager
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessions SessionManager, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/survey-sessions/:id/stream
// Upgrades to WebSocket for answer-by-answer autosave of a survey session.
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

	// Refuse the upgrade for sessions the caller cannot write to.
	if res := h.sessions.GetSession(c.Request.Context(), sessionID, claims.UserID); !res.Success {
		writeResult(c, res, http.StatusOK)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	userID := claims.UserID
	wsLog := h.log.With().
		Str("user_id", userID.String()).
		Str("session_id", sessionID.String()).
		Logger()

	wsLog.Info().Msg("Respondent connected")

	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		// Operations must outlive a dropped connection mid-write.
		ctx := context.Background()

		switch msg.Action {
		case ws.ActionSubmitResponse:
			h.handleSubmitResponse(ctx, conn, sessionID, userID, msg.Data)
		case ws.ActionUpdateTime:
			h.handleUpdateTime(ctx, conn, sessionID, userID, msg.Data)
		case ws.ActionComplete:
			res := h.sessions.CompleteSession(ctx, sessionID, userID)
			writeEvent(conn, ws.EventCompleted, res)
			if res.Success {
				wsLog.Info().Msg("Survey completed over stream")
			}
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}
}

func (h *WSHandler) handleSubmitResponse(ctx context.Context, conn *websocket.Conn, sessionID, userID uuid.UUID, data json.RawMessage) {
	var req ws.SubmitResponseRequest
	if err := json.Unmarshal(data, &req); err != nil {
		ws.WriteError(conn, "invalid submit_response payload: "+err.Error())
		return
	}
	if err := validator.Struct(req); err != nil {
		ws.WriteError(conn, err.Error())
		return
	}
	writeEvent(conn, ws.EventSaved, h.sessions.SubmitResponse(ctx, sessionID, userID, req))
}

func (h *WSHandler) handleUpdateTime(ctx context.Context, conn *websocket.Conn, sessionID, userID uuid.UUID, data json.RawMessage) {
	var req ws.UpdateTimeRequest
	if err := json.Unmarshal(data, &req); err != nil || req.Karakteristik == nil || req.Survei == nil {
		ws.WriteError(conn, "karakteristik and survei are required numbers")
		return
	}
	writeEvent(conn, ws.EventTime, h.sessions.UpdateTimeConsumed(ctx, sessionID, userID, *req.Karakteristik, *req.Survei))
}

func writeEvent(conn *websocket.Conn, event ws.Event, res service.Result) {
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = "request failed"
		}
		ws.WriteError(conn, msg)
		return
	}
	ws.WriteTyped(conn, ws.ResultResponse{
		Event:   event,
		Success: true,
		Data:    res.Data,
		Message: res.Message,
	})
}
