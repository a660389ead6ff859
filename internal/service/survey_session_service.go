package service

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/websurvey-backend/internal/config"
	"github.com/stemsi/websurvey-backend/internal/lock"
	"github.com/stemsi/websurvey-backend/internal/model"
	"github.com/stemsi/websurvey-backend/internal/repository"
)

// SurveySessionService owns the survey session lifecycle: creation with the
// seeded catalog, response upserts, time tracking and completion.
//
// Every write to an existing session runs under the session's entity lock,
// and conditional writes keep their IN_PROGRESS filter, so a completion and
// a late submission can never both succeed.
type SurveySessionService struct {
	sessions SurveySessionStore
	users    ActiveRefStore
	locker   lock.Locker
	log      zerolog.Logger
}

// NewSurveySessionService creates a new SurveySessionService.
func NewSurveySessionService(sessions SurveySessionStore, users ActiveRefStore, locker lock.Locker, log zerolog.Logger) *SurveySessionService {
	return &SurveySessionService{
		sessions: sessions,
		users:    users,
		locker:   locker,
		log:      log.With().Str("component", "survey_session_service").Logger(),
	}
}

// CreateSession seeds a new IN_PROGRESS session for a user with no session.
// If one exists (whatever its status) it is returned as data of a failed result.
func (s *SurveySessionService) CreateSession(ctx context.Context, userID uuid.UUID) Result {
	const op = "Error creating session"

	existing, err := s.sessions.GetByUser(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return s.fault(op, err, userID, uuid.Nil)
	}
	if existing != nil {
		return rejected(MsgSessionExists, existing)
	}

	session := &model.SurveySession{
		UserID:    userID,
		Status:    model.SessionStatusInProgress,
		Responses: model.InitialResponses(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost a concurrent create; report the winner.
			winner, fetchErr := s.sessions.GetByUser(ctx, userID)
			if fetchErr != nil {
				return s.fault(op, fetchErr, userID, uuid.Nil)
			}
			return rejected(MsgSessionExists, winner)
		}
		return s.fault(op, err, userID, uuid.Nil)
	}

	s.setActive(ctx, userID, &session.ID)

	s.log.Info().
		Str("user_id", userID.String()).
		Str("session_id", session.ID.String()).
		Msg("Survey session created")

	return ok(session)
}

// GetSession returns the session if it is owned by userID.
func (s *SurveySessionService) GetSession(ctx context.Context, id, userID uuid.UUID) Result {
	session, err := s.sessions.GetByID(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(MsgSessionNotFound)
	}
	if err != nil {
		return s.fault("Error retrieving session", err, userID, id)
	}
	return ok(session)
}

// GetUserSessions lists the user's sessions, newest first.
func (s *SurveySessionService) GetUserSessions(ctx context.Context, userID uuid.UUID) Result {
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return s.fault("Error retrieving user sessions", err, userID, uuid.Nil)
	}
	if sessions == nil {
		sessions = []model.SurveySession{}
	}
	return ok(sessions)
}

// UpdateSession patches an IN_PROGRESS session. Replaced responses must be
// unique by code and are stored sorted.
func (s *SurveySessionService) UpdateSession(ctx context.Context, id, userID uuid.UUID, patch model.SessionPatch) Result {
	const op = "Error updating session"

	if patch.Responses != nil {
		if hasDuplicateCodes(patch.Responses) {
			return rejected(MsgDuplicateQuestionCode, nil)
		}
		sorted := make([]model.Response, len(patch.Responses))
		copy(sorted, patch.Responses)
		sortResponses(sorted)
		patch.Responses = sorted
	}

	unlock, err := s.locker.Lock(ctx, config.CacheKey.SurveySessionLockKey(id.String()))
	if err != nil {
		return s.fault(op, err, userID, id)
	}
	defer unlock()

	session, err := s.sessions.Patch(ctx, id, userID, patch)
	if errors.Is(err, repository.ErrNotFound) {
		return rejected(MsgSessionNotFoundOrCompleted, nil)
	}
	if err != nil {
		return s.fault(op, err, userID, id)
	}
	return ok(session)
}

// DeleteSession removes the caller's session and clears the active pointer.
func (s *SurveySessionService) DeleteSession(ctx context.Context, id, userID uuid.UUID) Result {
	err := s.sessions.Delete(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(MsgSessionNotFound)
	}
	if err != nil {
		return s.fault("Error deleting session", err, userID, id)
	}

	s.setActive(ctx, userID, nil)
	return okMessage(MsgSessionDeleted)
}

// SubmitResponse upserts one answer into an IN_PROGRESS session.
func (s *SurveySessionService) SubmitResponse(ctx context.Context, id, userID uuid.UUID, in model.SubmitResponseRequest) Result {
	const op = "Error submitting response"

	unlock, err := s.locker.Lock(ctx, config.CacheKey.SurveySessionLockKey(id.String()))
	if err != nil {
		return s.fault(op, err, userID, id)
	}
	defer unlock()

	session, err := s.sessions.GetInProgress(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return rejected(MsgActiveSessionNotFound, nil)
	}
	if err != nil {
		return s.fault(op, err, userID, id)
	}

	saved, err := s.sessions.SaveResponses(ctx, id, userID, upsertResponse(session.Responses, in))
	if errors.Is(err, repository.ErrNotFound) {
		return rejected(MsgActiveSessionNotFound, nil)
	}
	if err != nil {
		return s.fault(op, err, userID, id)
	}
	return ok(saved)
}

// UpdateTimeConsumed stores the per-tab durations and derives per-question
// averages from the current responses. The survey-tab average becomes the
// session's running avg_response_time. Status is not checked.
func (s *SurveySessionService) UpdateTimeConsumed(ctx context.Context, id, userID uuid.UUID, karakteristik, survei float64) Result {
	const op = "Error updating time consumed"

	if !validDuration(karakteristik) || !validDuration(survei) {
		return rejected(MsgInvalidTimeConsumed, nil)
	}

	unlock, err := s.locker.Lock(ctx, config.CacheKey.SurveySessionLockKey(id.String()))
	if err != nil {
		return s.fault(op, err, userID, id)
	}
	defer unlock()

	session, err := s.sessions.GetByID(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(MsgSessionNotFound)
	}
	if err != nil {
		return s.fault(op, err, userID, id)
	}

	stats := computeTimeStats(session.Responses, karakteristik, survei)
	tc := model.TimeConsumed{Karakteristik: karakteristik, Survei: survei}

	updated, err := s.sessions.UpdateTimeConsumed(ctx, id, userID, tc, stats.AvgResponseTimeSurvei)
	if errors.Is(err, repository.ErrNotFound) {
		return rejected(MsgSessionUpdateFailed, nil)
	}
	if err != nil {
		return s.fault(op, err, userID, id)
	}

	stats.TimeConsumed = tc
	if updated.TimeConsumed != nil {
		stats.TimeConsumed = *updated.TimeConsumed
	}
	if updated.Metrics != nil {
		stats.AvgResponseTime = updated.Metrics.AvgResponseTime
	}
	return ok(stats)
}

// CompleteSession computes the metrics, marks the session COMPLETED and
// clears the user's active pointer.
func (s *SurveySessionService) CompleteSession(ctx context.Context, id, userID uuid.UUID) Result {
	const op = "Error completing session"

	unlock, err := s.locker.Lock(ctx, config.CacheKey.SurveySessionLockKey(id.String()))
	if err != nil {
		return s.fault(op, err, userID, id)
	}
	defer unlock()

	session, err := s.sessions.GetInProgress(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return rejected(MsgSessionNotFoundOrCompleted, nil)
	}
	if err != nil {
		return s.fault(op, err, userID, id)
	}

	metrics := computeMetrics(session.Responses)

	completed, err := s.sessions.Complete(ctx, id, userID, metrics)
	if errors.Is(err, repository.ErrNotFound) {
		return rejected(MsgSessionNotFoundOrCompleted, nil)
	}
	if err != nil {
		return s.fault(op, err, userID, id)
	}

	s.setActive(ctx, userID, nil)

	s.log.Info().
		Str("user_id", userID.String()).
		Str("session_id", id.String()).
		Int("item_nonresponse", metrics.ItemNonresponse).
		Int("dont_know_response", metrics.DontKnowResponse).
		Float64("avg_response_time", metrics.AvgResponseTime).
		Msg("Survey session completed")

	return ok(completed)
}

// setActive updates the user's active-session pointer. It is a cache of the
// sessions table, so failures are logged and never fail the operation.
func (s *SurveySessionService) setActive(ctx context.Context, userID uuid.UUID, sessionID *uuid.UUID) {
	if err := s.users.SetActiveSurveySession(ctx, userID, sessionID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID.String()).Msg("Failed to update active session pointer")
	}
}

func (s *SurveySessionService) fault(msg string, err error, userID, sessionID uuid.UUID) Result {
	s.log.Error().Err(err).
		Str("user_id", userID.String()).
		Str("session_id", sessionID.String()).
		Msg(msg)
	return fault(msg, err)
}

func validDuration(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
