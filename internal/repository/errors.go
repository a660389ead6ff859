package repository

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound means no row matched the filter, including the status or
	// completed guard of a conditional write.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate means a uniqueness constraint rejected the write.
	ErrDuplicate = errors.New("duplicate record")
)

const pgUniqueViolation = "23505"

// mapErr converts driver errors to the repository sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

// jsonParam encodes v for a jsonb parameter. A nil v becomes SQL NULL so
// COALESCE-style patches leave the column untouched.
func jsonParam(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode jsonb: %w", err)
	}
	return b, nil
}
