package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/websurvey-backend/internal/model"
)

const userColumns = `id, name, email, password_hash, role, active_survey_session_id, active_evaluation_id, created_at`

// UserRepository handles user accounts and their active back-references.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.ActiveSurveySessionID, &u.ActiveEvaluationID, &u.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

// Create inserts a user. ErrDuplicate means the email is taken.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		u.Name, u.Email, u.PasswordHash, u.Role,
	).Scan(&u.ID, &u.CreatedAt)
	return mapErr(err)
}

// GetByEmail retrieves a user for login.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// ListAll returns every user ordered by creation.
func (r *UserRepository) ListAll(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// SetActiveSurveySession sets or, with a nil id, clears the user's active session pointer.
func (r *UserRepository) SetActiveSurveySession(ctx context.Context, userID uuid.UUID, sessionID *uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET active_survey_session_id = $2 WHERE id = $1`, userID, sessionID)
	return err
}

// SetActiveEvaluation sets or, with a nil id, clears the user's active evaluation pointer.
func (r *UserRepository) SetActiveEvaluation(ctx context.Context, userID uuid.UUID, evaluationID *uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET active_evaluation_id = $2 WHERE id = $1`, userID, evaluationID)
	return err
}

// ReconcileActiveRefs recomputes the back-references from the session and
// evaluation tables. A user's active session is their IN_PROGRESS session;
// evaluation pointers that no longer resolve to one of the user's rows are
// cleared. Returns the number of users changed.
func (r *UserRepository) ReconcileActiveRefs(ctx context.Context) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	sessions, err := tx.Exec(ctx,
		`UPDATE users u
		 SET active_survey_session_id = s.id
		 FROM users u2
		 LEFT JOIN survey_sessions s ON s.user_id = u2.id AND s.status = $1
		 WHERE u.id = u2.id AND u.active_survey_session_id IS DISTINCT FROM s.id`,
		model.SessionStatusInProgress)
	if err != nil {
		return 0, err
	}

	evaluations, err := tx.Exec(ctx,
		`UPDATE users u
		 SET active_evaluation_id = NULL
		 WHERE u.active_evaluation_id IS NOT NULL
		   AND NOT EXISTS (
		       SELECT 1 FROM survey_evaluations e
		       WHERE e.id = u.active_evaluation_id AND e.user_id = u.id)`)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return sessions.RowsAffected() + evaluations.RowsAffected(), nil
}
