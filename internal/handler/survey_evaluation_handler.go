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

// EvaluationManager is the evaluation questionnaire lifecycle.
type EvaluationManager interface {
	CreateEvaluation(ctx context.Context, userID uuid.UUID, sessionID *uuid.UUID) service.Result
	GetEvaluation(ctx context.Context, id, userID uuid.UUID) service.Result
	GetEvaluationBySessionID(ctx context.Context, sessionID, userID uuid.UUID) service.Result
	GetUserEvaluations(ctx context.Context, userID uuid.UUID) service.Result
	UpdateEvaluation(ctx context.Context, id, userID uuid.UUID, patch model.EvaluationPatch) service.Result
	DeleteEvaluation(ctx context.Context, id, userID uuid.UUID) service.Result
	SubmitAnswer(ctx context.Context, id, userID uuid.UUID, answers map[string]any) service.Result
	SubmitEvaluationAnswer(ctx context.Context, id, userID uuid.UUID, criteriaName string, value any) service.Result
}

// SurveyEvaluationHandler handles survey evaluation endpoints.
type SurveyEvaluationHandler struct {
	evaluations EvaluationManager
}

// NewSurveyEvaluationHandler creates a new SurveyEvaluationHandler.
func NewSurveyEvaluationHandler(evaluations EvaluationManager) *SurveyEvaluationHandler {
	return &SurveyEvaluationHandler{evaluations: evaluations}
}

// CreateEvaluation godoc
// POST /api/v1/survey-evaluations
// Body is optional; session_id binds the evaluation to one of the caller's sessions.
func (h *SurveyEvaluationHandler) CreateEvaluation(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req model.CreateEvaluationRequest
	if c.Request.ContentLength != 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	writeResult(c, h.evaluations.CreateEvaluation(c.Request.Context(), userID, req.SessionID), http.StatusCreated)
}

// GetUserEvaluations godoc
// GET /api/v1/survey-evaluations/all-evaluations
func (h *SurveyEvaluationHandler) GetUserEvaluations(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	writeResult(c, h.evaluations.GetUserEvaluations(c.Request.Context(), userID), http.StatusOK)
}

// GetEvaluationBySessionID godoc
// GET /api/v1/survey-evaluations/session/:session_id
func (h *SurveyEvaluationHandler) GetEvaluationBySessionID(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	sessionID, ok := paramID(c, "session_id")
	if !ok {
		return
	}
	writeResult(c, h.evaluations.GetEvaluationBySessionID(c.Request.Context(), sessionID, userID), http.StatusOK)
}

// GetEvaluation godoc
// GET /api/v1/survey-evaluations/:id
func (h *SurveyEvaluationHandler) GetEvaluation(c *gin.Context) {
	userID, id, ok := h.target(c)
	if !ok {
		return
	}
	writeResult(c, h.evaluations.GetEvaluation(c.Request.Context(), id, userID), http.StatusOK)
}

// UpdateEvaluation godoc
// PUT /api/v1/survey-evaluations/:id
func (h *SurveyEvaluationHandler) UpdateEvaluation(c *gin.Context) {
	userID, id, ok := h.target(c)
	if !ok {
		return
	}

	var req model.UpdateEvaluationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	patch := model.EvaluationPatch{Answers: req.Answers, Completed: req.Completed}
	if patch.Empty() {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"detail": "answers or completed is required"})
		return
	}

	writeResult(c, h.evaluations.UpdateEvaluation(c.Request.Context(), id, userID, patch), http.StatusOK)
}

// DeleteEvaluation godoc
// DELETE /api/v1/survey-evaluations/:id
func (h *SurveyEvaluationHandler) DeleteEvaluation(c *gin.Context) {
	userID, id, ok := h.target(c)
	if !ok {
		return
	}
	writeResult(c, h.evaluations.DeleteEvaluation(c.Request.Context(), id, userID), http.StatusOK)
}

// SubmitAnswer godoc
// POST /api/v1/survey-evaluations/:id/submit-answer
// Replaces every answer at once.
func (h *SurveyEvaluationHandler) SubmitAnswer(c *gin.Context) {
	userID, id, ok := h.target(c)
	if !ok {
		return
	}

	var req model.SubmitAnswersRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	writeResult(c, h.evaluations.SubmitAnswer(c.Request.Context(), id, userID, req.Answers), http.StatusOK)
}

// SubmitEvaluationAnswer godoc
// POST /api/v1/survey-evaluations/:id/answer
// Answers a single criterion.
func (h *SurveyEvaluationHandler) SubmitEvaluationAnswer(c *gin.Context) {
	userID, id, ok := h.target(c)
	if !ok {
		return
	}

	var req model.SubmitEvaluationAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res := h.evaluations.SubmitEvaluationAnswer(c.Request.Context(), id, userID, req.CriteriaName, req.Value)
	writeResult(c, res, http.StatusOK)
}

func (h *SurveyEvaluationHandler) target(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
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
