package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/websurvey-backend/internal/model"
)

const sessionColumns = `id, user_id, status, responses, time_consumed, metrics, created_at, updated_at`

// SurveySessionRepository stores survey sessions as rows with JSONB documents.
// The unique index on user_id enforces one session per user.
type SurveySessionRepository struct {
	pool *pgxpool.Pool
}

// NewSurveySessionRepository creates a new SurveySessionRepository.
func NewSurveySessionRepository(pool *pgxpool.Pool) *SurveySessionRepository {
	return &SurveySessionRepository{pool: pool}
}

func scanSession(row pgx.Row) (*model.SurveySession, error) {
	s := &model.SurveySession{}
	err := row.Scan(&s.ID, &s.UserID, &s.Status, &s.Responses, &s.TimeConsumed, &s.Metrics, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	if s.Responses == nil {
		s.Responses = []model.Response{}
	}
	return s, nil
}

// GetByUser returns the user's session regardless of status.
func (r *SurveySessionRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*model.SurveySession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM survey_sessions WHERE user_id = $1`, userID))
}

// GetByID returns the session if it is owned by userID.
func (r *SurveySessionRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*model.SurveySession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM survey_sessions WHERE id = $1 AND user_id = $2`, id, userID))
}

// GetInProgress returns the session if it is owned by userID and still IN_PROGRESS.
func (r *SurveySessionRepository) GetInProgress(ctx context.Context, id, userID uuid.UUID) (*model.SurveySession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM survey_sessions
		 WHERE id = $1 AND user_id = $2 AND status = $3`,
		id, userID, model.SessionStatusInProgress))
}

// ListByUser returns the user's sessions, newest first.
func (r *SurveySessionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.SurveySession, error) {
	return r.list(ctx,
		`SELECT `+sessionColumns+` FROM survey_sessions WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// ListAll returns every session, used for combined exports.
func (r *SurveySessionRepository) ListAll(ctx context.Context) ([]model.SurveySession, error) {
	return r.list(ctx, `SELECT `+sessionColumns+` FROM survey_sessions ORDER BY created_at ASC`)
}

func (r *SurveySessionRepository) list(ctx context.Context, query string, args ...any) ([]model.SurveySession, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.SurveySession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// Create inserts a new session. ErrDuplicate means the user already has one.
func (r *SurveySessionRepository) Create(ctx context.Context, s *model.SurveySession) error {
	responses, err := jsonParam(s.Responses)
	if err != nil {
		return err
	}
	err = r.pool.QueryRow(ctx,
		`INSERT INTO survey_sessions (user_id, status, responses)
		 VALUES ($1, $2, $3::jsonb)
		 RETURNING id, created_at, updated_at`,
		s.UserID, s.Status, responses,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return mapErr(err)
}

// Patch applies the non-nil patch fields while the session is IN_PROGRESS.
// The status filter is evaluated at write time.
func (r *SurveySessionRepository) Patch(ctx context.Context, id, userID uuid.UUID, patch model.SessionPatch) (*model.SurveySession, error) {
	var responses, timeConsumed any
	var err error
	if patch.Responses != nil {
		if responses, err = jsonParam(patch.Responses); err != nil {
			return nil, err
		}
	}
	if patch.TimeConsumed != nil {
		if timeConsumed, err = jsonParam(patch.TimeConsumed); err != nil {
			return nil, err
		}
	}
	return scanSession(r.pool.QueryRow(ctx,
		`UPDATE survey_sessions
		 SET responses = COALESCE($4::jsonb, responses),
		     time_consumed = COALESCE($5::jsonb, time_consumed),
		     updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND status = $3
		 RETURNING `+sessionColumns,
		id, userID, model.SessionStatusInProgress, responses, timeConsumed))
}

// SaveResponses replaces the response list while the session is IN_PROGRESS.
func (r *SurveySessionRepository) SaveResponses(ctx context.Context, id, userID uuid.UUID, responses []model.Response) (*model.SurveySession, error) {
	return r.Patch(ctx, id, userID, model.SessionPatch{Responses: responses})
}

// UpdateTimeConsumed records tab durations and the running survey average.
// It does not depend on the session status.
func (r *SurveySessionRepository) UpdateTimeConsumed(ctx context.Context, id, userID uuid.UUID, tc model.TimeConsumed, avgResponseTime float64) (*model.SurveySession, error) {
	timeConsumed, err := jsonParam(tc)
	if err != nil {
		return nil, err
	}
	return scanSession(r.pool.QueryRow(ctx,
		`UPDATE survey_sessions
		 SET time_consumed = $3::jsonb,
		     metrics = jsonb_set(
		         COALESCE(metrics, '{"is_breakoff":false,"avg_response_time":0,"item_nonresponse":0,"dont_know_response":0}'::jsonb),
		         '{avg_response_time}', to_jsonb($4::float8)),
		     updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+sessionColumns,
		id, userID, timeConsumed, avgResponseTime))
}

// Complete moves an IN_PROGRESS session to COMPLETED with its metrics.
// ErrNotFound means the session is missing, foreign or already completed.
func (r *SurveySessionRepository) Complete(ctx context.Context, id, userID uuid.UUID, metrics model.ResponseMetrics) (*model.SurveySession, error) {
	m, err := jsonParam(metrics)
	if err != nil {
		return nil, err
	}
	return scanSession(r.pool.QueryRow(ctx,
		`UPDATE survey_sessions
		 SET status = $4, metrics = $5::jsonb, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND status = $3
		 RETURNING `+sessionColumns,
		id, userID, model.SessionStatusInProgress, model.SessionStatusCompleted, m))
}

// Delete removes the session if owned by userID.
func (r *SurveySessionRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	var deleted uuid.UUID
	err := r.pool.QueryRow(ctx,
		`DELETE FROM survey_sessions WHERE id = $1 AND user_id = $2 RETURNING id`, id, userID,
	).Scan(&deleted)
	if err != nil {
		return fmt.Errorf("delete session: %w", mapErr(err))
	}
	return nil
}
