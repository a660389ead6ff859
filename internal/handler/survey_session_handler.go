package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/websurvey-backend/internal/model"
	"github.com/stemsi/websurvey-backend/internal/response"
	"github.com/stemsi/websurvey-backend/internal/service"
	"github.com/stemsi/websurvey-backend/internal/validator"
)

// SessionManager is the survey session lifecycle used by the HTTP and
// WebSocket handlers.
type SessionManager interface {
	CreateSession(ctx context.Context, userID uuid.UUID) service.Result
	GetSession(ctx context.Context, id, userID uuid.UUID) service.Result
	GetUserSessions(ctx context.Context, userID uuid.UUID) service.Result
	UpdateSession(ctx context.Context, id, userID uuid.UUID, patch model.SessionPatch) service.Result
	DeleteSession(ctx context.Context, id, userID uuid.UUID) service.Result
	SubmitResponse(ctx context.Context, id, userID uuid.UUID, in model.SubmitResponseRequest) service.Result
	UpdateTimeConsumed(ctx context.Context, id, userID uuid.UUID, karakteristik, survei float64) service.Result
	CompleteSession(ctx context.Context, id, userID uuid.UUID) service.Result
}

// SurveySessionHandler handles survey session endpoints.
type SurveySessionHandler struct {
	sessions SessionManager
}

// NewSurveySessionHandler creates a new SurveySessionHandler.
func NewSurveySessionHandler(sessions SessionManager) *SurveySessionHandler {
	return &SurveySessionHandler{sessions: sessions}
}

// CreateSession godoc
// POST /api/v1/survey-sessions
// Starts the caller's survey session seeded with the question catalog.
func (h *SurveySessionHandler) CreateSession(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	writeResult(c, h.sessions.CreateSession(c.Request.Context(), userID), http.StatusCreated)
}

// GetUserSessions godoc
// GET /api/v1/survey-sessions/all-sessions
func (h *SurveySessionHandler) GetUserSessions(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	writeResult(c, h.sessions.GetUserSessions(c.Request.Context(), userID), http.StatusOK)
}

// GetSession godoc
// GET /api/v1/survey-sessions/:id
func (h *SurveySessionHandler) GetSession(c *gin.Context) {
	userID, id, ok := h.target(c)
	if !ok {
		return
	}
	writeResult(c, h.sessions.GetSession(c.Request.Context(), id, userID), http.StatusOK)
}

// UpdateSession godoc
// PUT /api/v1/survey-sessions/:id
// Replaces responses and/or time_consumed while the session is in progress.
func (h *SurveySessionHandler) UpdateSession(c *gin.Context) {
	userID, id, ok := h.target(c)
	if !ok {
		return
	}

	var req model.UpdateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	patch := model.SessionPatch{TimeConsumed: req.TimeConsumed}
	if req.Responses != nil {
		patch.Responses = *req.Responses
		if patch.Responses == nil {
			patch.Responses = []model.Response{}
		}
	}
	if patch.Empty() {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"detail": "responses or time_consumed is required"})
		return
	}

	writeResult(c, h.sessions.UpdateSession(c.Request.Context(), id, userID, patch), http.StatusOK)
}

// DeleteSession godoc
// DELETE /api/v1/survey-sessions/:id
func (h *SurveySessionHandler) DeleteSession(c *gin.Context) {
	userID, id, ok := h.target(c)
	if !ok {
		return
	}
	writeResult(c, h.sessions.DeleteSession(c.Request.Context(), id, userID), http.StatusOK)
}

// SubmitResponse godoc
// POST /api/v1/survey-sessions/:id/submit-response
// Upserts one answer keyed by question_code.
func (h *SurveySessionHandler) SubmitResponse(c *gin.Context) {
	userID, id, ok := h.target(c)
	if !ok {
		return
	}

	var req model.SubmitResponseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	writeResult(c, h.sessions.SubmitResponse(c.Request.Context(), id, userID, req), http.StatusOK)
}

// UpdateTimeConsumed godoc
// PUT /api/v1/survey-sessions/:id/time-consumed
func (h *SurveySessionHandler) UpdateTimeConsumed(c *gin.Context) {
	userID, id, ok := h.target(c)
	if !ok {
		return
	}

	var req model.UpdateTimeConsumedRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res := h.sessions.UpdateTimeConsumed(c.Request.Context(), id, userID, *req.Karakteristik, *req.Survei)
	writeResult(c, res, http.StatusOK)
}

// CompleteSession godoc
// POST /api/v1/survey-sessions/:id/complete
// Computes the response metrics and closes the session.
func (h *SurveySessionHandler) CompleteSession(c *gin.Context) {
	userID, id, ok := h.target(c)
	if !ok {
		return
	}
	writeResult(c, h.sessions.CompleteSession(c.Request.Context(), id, userID), http.StatusOK)
}

func (h *SurveySessionHandler) target(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := callerID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	id, ok := paramID(c, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return userID, id, true
}
