package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/websurvey-backend/internal/config"
	"github.com/stemsi/websurvey-backend/internal/lock"
	"github.com/stemsi/websurvey-backend/internal/model"
	"github.com/stemsi/websurvey-backend/internal/repository"
)

// SurveyEvaluationService manages the post-survey questionnaire. An
// evaluation accepts answers while completed is false and is immutable after.
type SurveyEvaluationService struct {
	evaluations SurveyEvaluationStore
	sessions    SessionLookup
	users       ActiveRefStore
	locker      lock.Locker
	log         zerolog.Logger
}

// NewSurveyEvaluationService creates a new SurveyEvaluationService.
func NewSurveyEvaluationService(evaluations SurveyEvaluationStore, sessions SessionLookup, users ActiveRefStore, locker lock.Locker, log zerolog.Logger) *SurveyEvaluationService {
	return &SurveyEvaluationService{
		evaluations: evaluations,
		sessions:    sessions,
		users:       users,
		locker:      locker,
		log:         log.With().Str("component", "survey_evaluation_service").Logger(),
	}
}

// CreateEvaluation starts an evaluation, optionally bound to one of the
// caller's sessions. A session can carry at most one evaluation.
func (s *SurveyEvaluationService) CreateEvaluation(ctx context.Context, userID uuid.UUID, sessionID *uuid.UUID) Result {
	const op = "Error creating evaluation"

	if sessionID != nil {
		existing, err := s.evaluations.GetBySessionID(ctx, *sessionID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return s.fault(op, err, userID, uuid.Nil)
		}
		if existing != nil {
			return rejected(MsgEvaluationExists, ownedOrNil(existing, userID))
		}

		_, err = s.sessions.GetByID(ctx, *sessionID, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return rejected(MsgSessionNotFound, nil)
		}
		if err != nil {
			return s.fault(op, err, userID, uuid.Nil)
		}
	}

	evaluation := &model.SurveyEvaluation{
		UserID:    userID,
		SessionID: sessionID,
		Answers:   map[string]any{},
	}
	if err := s.evaluations.Create(ctx, evaluation); err != nil {
		if errors.Is(err, repository.ErrDuplicate) && sessionID != nil {
			winner, fetchErr := s.evaluations.GetBySessionID(ctx, *sessionID)
			if fetchErr != nil {
				return s.fault(op, fetchErr, userID, uuid.Nil)
			}
			return rejected(MsgEvaluationExists, ownedOrNil(winner, userID))
		}
		return s.fault(op, err, userID, uuid.Nil)
	}

	s.setActive(ctx, userID, &evaluation.ID)

	s.log.Info().
		Str("user_id", userID.String()).
		Str("evaluation_id", evaluation.ID.String()).
		Msg("Survey evaluation created")

	return ok(evaluation)
}

// GetEvaluation returns the evaluation if it is owned by userID.
func (s *SurveyEvaluationService) GetEvaluation(ctx context.Context, id, userID uuid.UUID) Result {
	evaluation, err := s.evaluations.GetByID(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(MsgEvaluationNotFound)
	}
	if err != nil {
		return s.fault("Error retrieving evaluation", err, userID, id)
	}
	return ok(evaluation)
}

// GetEvaluationBySessionID returns the caller's evaluation bound to sessionID.
func (s *SurveyEvaluationService) GetEvaluationBySessionID(ctx context.Context, sessionID, userID uuid.UUID) Result {
	evaluation, err := s.evaluations.GetBySessionIDForUser(ctx, sessionID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(MsgEvaluationNotFoundForSession)
	}
	if err != nil {
		return s.fault("Error retrieving evaluation", err, userID, uuid.Nil)
	}
	return ok(evaluation)
}

// GetUserEvaluations lists the user's evaluations, newest first.
func (s *SurveyEvaluationService) GetUserEvaluations(ctx context.Context, userID uuid.UUID) Result {
	evaluations, err := s.evaluations.ListByUser(ctx, userID)
	if err != nil {
		return s.fault("Error retrieving user evaluations", err, userID, uuid.Nil)
	}
	if evaluations == nil {
		evaluations = []model.SurveyEvaluation{}
	}
	return ok(evaluations)
}

// UpdateEvaluation patches an open evaluation. Replaced answers go through
// the same per-criterion validation as the submit paths.
func (s *SurveyEvaluationService) UpdateEvaluation(ctx context.Context, id, userID uuid.UUID, patch model.EvaluationPatch) Result {
	const op = "Error updating evaluation"

	if patch.Answers != nil {
		if err := model.ValidateAnswers(patch.Answers); err != nil {
			return rejected(err.Error(), nil)
		}
	}

	unlock, err := s.locker.Lock(ctx, config.CacheKey.EvaluationLockKey(id.String()))
	if err != nil {
		return s.fault(op, err, userID, id)
	}
	defer unlock()

	evaluation, err := s.evaluations.Patch(ctx, id, userID, patch)
	if errors.Is(err, repository.ErrNotFound) {
		return rejected(MsgEvaluationNotFoundOrCompleted, nil)
	}
	if err != nil {
		return s.fault(op, err, userID, id)
	}

	if evaluation.Completed {
		s.setActive(ctx, userID, nil)
	}
	return ok(evaluation)
}

// DeleteEvaluation removes the caller's evaluation and clears the active pointer.
func (s *SurveyEvaluationService) DeleteEvaluation(ctx context.Context, id, userID uuid.UUID) Result {
	err := s.evaluations.Delete(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(MsgEvaluationNotFound)
	}
	if err != nil {
		return s.fault("Error deleting evaluation", err, userID, id)
	}

	s.setActive(ctx, userID, nil)
	return okMessage(MsgEvaluationDeleted)
}

// SubmitAnswer replaces all answers at once. The evaluation completes when
// the submitted map holds at least as many keys as there are criteria.
func (s *SurveyEvaluationService) SubmitAnswer(ctx context.Context, id, userID uuid.UUID, answers map[string]any) Result {
	const op = "Error submitting answers"

	if err := model.ValidateAnswers(answers); err != nil {
		return rejected(err.Error(), nil)
	}
	if answers == nil {
		answers = map[string]any{}
	}
	completed := len(answers) >= model.RequiredCriteriaCount

	unlock, err := s.locker.Lock(ctx, config.CacheKey.EvaluationLockKey(id.String()))
	if err != nil {
		return s.fault(op, err, userID, id)
	}
	defer unlock()

	evaluation, err := s.evaluations.SaveAnswers(ctx, id, userID, answers, completed)
	if errors.Is(err, repository.ErrNotFound) {
		return rejected(MsgEvaluationNotFoundOrCompleted, nil)
	}
	if err != nil {
		return s.fault(op, err, userID, id)
	}

	if completed {
		s.setActive(ctx, userID, nil)
	}
	return ok(evaluation)
}

// SubmitEvaluationAnswer merges a single criterion into the answers. The
// evaluation completes once every required criterion has a value.
func (s *SurveyEvaluationService) SubmitEvaluationAnswer(ctx context.Context, id, userID uuid.UUID, criteriaName string, value any) Result {
	const op = "Error submitting evaluation answer"

	unlock, err := s.locker.Lock(ctx, config.CacheKey.EvaluationLockKey(id.String()))
	if err != nil {
		return s.fault(op, err, userID, id)
	}
	defer unlock()

	current, err := s.evaluations.GetOpen(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return rejected(MsgEvaluationNotFoundOrCompleted, nil)
	}
	if err != nil {
		return s.fault(op, err, userID, id)
	}

	if err := model.ValidateCriterion(criteriaName, value); err != nil {
		return rejected(err.Error(), nil)
	}

	answers := make(map[string]any, len(current.Answers)+1)
	for k, v := range current.Answers {
		answers[k] = v
	}
	answers[criteriaName] = value
	completed := model.HasAllCriteria(answers)

	evaluation, err := s.evaluations.SaveAnswers(ctx, id, userID, answers, completed)
	if errors.Is(err, repository.ErrNotFound) {
		return rejected(MsgEvaluationNotFoundOrCompleted, nil)
	}
	if err != nil {
		return s.fault(op, err, userID, id)
	}

	if completed {
		s.setActive(ctx, userID, nil)
		s.log.Info().
			Str("user_id", userID.String()).
			Str("evaluation_id", id.String()).
			Msg("Survey evaluation completed")
	}
	return ok(evaluation)
}

// ownedOrNil hides another user's evaluation from a duplicate rejection.
func ownedOrNil(evaluation *model.SurveyEvaluation, userID uuid.UUID) any {
	if evaluation.UserID != userID {
		return nil
	}
	return evaluation
}

func (s *SurveyEvaluationService) setActive(ctx context.Context, userID uuid.UUID, evaluationID *uuid.UUID) {
	if err := s.users.SetActiveEvaluation(ctx, userID, evaluationID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID.String()).Msg("Failed to update active evaluation pointer")
	}
}

func (s *SurveyEvaluationService) fault(msg string, err error, userID, evaluationID uuid.UUID) Result {
	s.log.Error().Err(err).
		Str("user_id", userID.String()).
		Str("evaluation_id", evaluationID.String()).
		Msg(msg)
	return fault(msg, err)
}
