package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/websurvey-backend/internal/model"
)

const evaluationColumns = `id, user_id, session_id, answers, completed, created_at`

// SurveyEvaluationRepository stores evaluations. A partial unique index on
// session_id allows at most one evaluation per linked session.
type SurveyEvaluationRepository struct {
	pool *pgxpool.Pool
}

// NewSurveyEvaluationRepository creates a new SurveyEvaluationRepository.
func NewSurveyEvaluationRepository(pool *pgxpool.Pool) *SurveyEvaluationRepository {
	return &SurveyEvaluationRepository{pool: pool}
}

func scanEvaluation(row pgx.Row) (*model.SurveyEvaluation, error) {
	e := &model.SurveyEvaluation{}
	if err := row.Scan(&e.ID, &e.UserID, &e.SessionID, &e.Answers, &e.Completed, &e.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	if e.Answers == nil {
		e.Answers = map[string]any{}
	}
	return e, nil
}

// Create inserts a new evaluation. ErrDuplicate means the linked session
// already has one.
func (r *SurveyEvaluationRepository) Create(ctx context.Context, e *model.SurveyEvaluation) error {
	if e.Answers == nil {
		e.Answers = map[string]any{}
	}
	answers, err := jsonParam(e.Answers)
	if err != nil {
		return err
	}
	err = r.pool.QueryRow(ctx,
		`INSERT INTO survey_evaluations (user_id, session_id, answers, completed)
		 VALUES ($1, $2, $3::jsonb, $4)
		 RETURNING id, created_at`,
		e.UserID, e.SessionID, answers, e.Completed,
	).Scan(&e.ID, &e.CreatedAt)
	return mapErr(err)
}

// GetByID returns the evaluation if owned by userID.
func (r *SurveyEvaluationRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*model.SurveyEvaluation, error) {
	return scanEvaluation(r.pool.QueryRow(ctx,
		`SELECT `+evaluationColumns+` FROM survey_evaluations WHERE id = $1 AND user_id = $2`, id, userID))
}

// GetOpen returns the evaluation if owned by userID and not yet completed.
func (r *SurveyEvaluationRepository) GetOpen(ctx context.Context, id, userID uuid.UUID) (*model.SurveyEvaluation, error) {
	return scanEvaluation(r.pool.QueryRow(ctx,
		`SELECT `+evaluationColumns+` FROM survey_evaluations
		 WHERE id = $1 AND user_id = $2 AND completed = FALSE`, id, userID))
}

// GetBySessionID returns the evaluation linked to sessionID, whoever owns it.
func (r *SurveyEvaluationRepository) GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*model.SurveyEvaluation, error) {
	return scanEvaluation(r.pool.QueryRow(ctx,
		`SELECT `+evaluationColumns+` FROM survey_evaluations WHERE session_id = $1`, sessionID))
}

// GetBySessionIDForUser returns the evaluation linked to sessionID if owned by userID.
func (r *SurveyEvaluationRepository) GetBySessionIDForUser(ctx context.Context, sessionID, userID uuid.UUID) (*model.SurveyEvaluation, error) {
	return scanEvaluation(r.pool.QueryRow(ctx,
		`SELECT `+evaluationColumns+` FROM survey_evaluations WHERE session_id = $1 AND user_id = $2`,
		sessionID, userID))
}

// ListByUser returns the user's evaluations, newest first.
func (r *SurveyEvaluationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.SurveyEvaluation, error) {
	return r.list(ctx,
		`SELECT `+evaluationColumns+` FROM survey_evaluations WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// ListFirstPerUser returns each user's earliest evaluation.
func (r *SurveyEvaluationRepository) ListFirstPerUser(ctx context.Context) ([]model.SurveyEvaluation, error) {
	return r.list(ctx,
		`SELECT DISTINCT ON (user_id) `+evaluationColumns+`
		 FROM survey_evaluations
		 ORDER BY user_id, created_at ASC`)
}

func (r *SurveyEvaluationRepository) list(ctx context.Context, query string, args ...any) ([]model.SurveyEvaluation, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var evaluations []model.SurveyEvaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		evaluations = append(evaluations, *e)
	}
	return evaluations, rows.Err()
}

// Patch applies the non-nil patch fields while the evaluation is not completed.
func (r *SurveyEvaluationRepository) Patch(ctx context.Context, id, userID uuid.UUID, patch model.EvaluationPatch) (*model.SurveyEvaluation, error) {
	var answers any
	if patch.Answers != nil {
		var err error
		if answers, err = jsonParam(patch.Answers); err != nil {
			return nil, err
		}
	}
	return scanEvaluation(r.pool.QueryRow(ctx,
		`UPDATE survey_evaluations
		 SET answers = COALESCE($3::jsonb, answers),
		     completed = COALESCE($4, completed)
		 WHERE id = $1 AND user_id = $2 AND completed = FALSE
		 RETURNING `+evaluationColumns,
		id, userID, answers, patch.Completed))
}

// SaveAnswers replaces the answers and completion flag while the evaluation
// is not completed.
func (r *SurveyEvaluationRepository) SaveAnswers(ctx context.Context, id, userID uuid.UUID, answers map[string]any, completed bool) (*model.SurveyEvaluation, error) {
	return r.Patch(ctx, id, userID, model.EvaluationPatch{Answers: answers, Completed: &completed})
}

// Delete removes the evaluation if owned by userID.
func (r *SurveyEvaluationRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	var deleted uuid.UUID
	err := r.pool.QueryRow(ctx,
		`DELETE FROM survey_evaluations WHERE id = $1 AND user_id = $2 RETURNING id`, id, userID,
	).Scan(&deleted)
	if err != nil {
		return fmt.Errorf("delete evaluation: %w", mapErr(err))
	}
	return nil
}
