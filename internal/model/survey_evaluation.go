package model

import (
	"time"

	"github.com/google/uuid"
)

// SurveyEvaluation is the post-survey satisfaction questionnaire.
type SurveyEvaluation struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	SessionID *uuid.UUID     `json:"session_id,omitempty"`
	Answers   map[string]any `json:"answers"`
	Completed bool           `json:"completed"`
	CreatedAt time.Time      `json:"created_at"`
}

// EvaluationPatch carries the fields a generic evaluation update may replace.
type EvaluationPatch struct {
	Answers   map[string]any
	Completed *bool
}

// Empty reports whether the patch changes nothing.
func (p EvaluationPatch) Empty() bool {
	return p.Answers == nil && p.Completed == nil
}

// CreateEvaluationRequest is the payload for starting an evaluation.
type CreateEvaluationRequest struct {
	SessionID *uuid.UUID `json:"session_id"`
}

// UpdateEvaluationRequest is the payload for a generic evaluation patch.
type UpdateEvaluationRequest struct {
	Answers   map[string]any `json:"answers"`
	Completed *bool          `json:"completed"`
}

// SubmitAnswersRequest is the bulk answer payload.
type SubmitAnswersRequest struct {
	Answers map[string]any `json:"answers" binding:"required"`
}

// SubmitEvaluationAnswerRequest answers a single criterion.
type SubmitEvaluationAnswerRequest struct {
	CriteriaName string `json:"criteriaName" binding:"required,criterion_name"`
	Value        any    `json:"value"`
}
