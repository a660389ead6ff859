package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stemsi/websurvey-backend/internal/model"
)

// SurveySessionStore is the storage collaborator for survey sessions.
// Conditional writes (Patch, SaveResponses, Complete) must re-check the
// IN_PROGRESS filter at write time and return repository.ErrNotFound when it
// no longer matches.
type SurveySessionStore interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*model.SurveySession, error)
	GetByID(ctx context.Context, id, userID uuid.UUID) (*model.SurveySession, error)
	GetInProgress(ctx context.Context, id, userID uuid.UUID) (*model.SurveySession, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.SurveySession, error)
	Create(ctx context.Context, s *model.SurveySession) error
	Patch(ctx context.Context, id, userID uuid.UUID, patch model.SessionPatch) (*model.SurveySession, error)
	SaveResponses(ctx context.Context, id, userID uuid.UUID, responses []model.Response) (*model.SurveySession, error)
	UpdateTimeConsumed(ctx context.Context, id, userID uuid.UUID, tc model.TimeConsumed, avgResponseTime float64) (*model.SurveySession, error)
	Complete(ctx context.Context, id, userID uuid.UUID, metrics model.ResponseMetrics) (*model.SurveySession, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// SessionLookup is the slice of SurveySessionStore the evaluation service needs.
type SessionLookup interface {
	GetByID(ctx context.Context, id, userID uuid.UUID) (*model.SurveySession, error)
}

// SurveyEvaluationStore is the storage collaborator for evaluations.
// Patch and SaveAnswers must re-check completed = false at write time.
type SurveyEvaluationStore interface {
	Create(ctx context.Context, e *model.SurveyEvaluation) error
	GetByID(ctx context.Context, id, userID uuid.UUID) (*model.SurveyEvaluation, error)
	GetOpen(ctx context.Context, id, userID uuid.UUID) (*model.SurveyEvaluation, error)
	GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*model.SurveyEvaluation, error)
	GetBySessionIDForUser(ctx context.Context, sessionID, userID uuid.UUID) (*model.SurveyEvaluation, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.SurveyEvaluation, error)
	Patch(ctx context.Context, id, userID uuid.UUID, patch model.EvaluationPatch) (*model.SurveyEvaluation, error)
	SaveAnswers(ctx context.Context, id, userID uuid.UUID, answers map[string]any, completed bool) (*model.SurveyEvaluation, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// ActiveRefStore writes the denormalised active pointers on the user record.
// A nil id clears the pointer.
type ActiveRefStore interface {
	SetActiveSurveySession(ctx context.Context, userID uuid.UUID, sessionID *uuid.UUID) error
	SetActiveEvaluation(ctx context.Context, userID uuid.UUID, evaluationID *uuid.UUID) error
}

// UserDirectory reads user accounts.
type UserDirectory interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListAll(ctx context.Context) ([]model.User, error)
}

// SessionArchive reads sessions across users for reporting.
type SessionArchive interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*model.SurveySession, error)
	ListAll(ctx context.Context) ([]model.SurveySession, error)
}

// EvaluationArchive reads evaluations across users for reporting.
type EvaluationArchive interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.SurveyEvaluation, error)
	ListFirstPerUser(ctx context.Context) ([]model.SurveyEvaluation, error)
}

// UniqueCodeStore persists unique survey codes.
type UniqueCodeStore interface {
	Create(ctx context.Context, c *model.UniqueSurveyCode) error
	CreateMany(ctx context.Context, codes []model.UniqueSurveyCode) (*model.BulkInsertResult, error)
	GetByCode(ctx context.Context, kodeUnik string) (*model.UniqueSurveyCode, error)
	DeleteByCode(ctx context.Context, kodeUnik string) (*model.UniqueSurveyCode, error)
}
