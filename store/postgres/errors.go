package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// postgresErrCodeUniqueViolation is Postgres's SQLSTATE for a unique
// constraint violation.
const postgresErrCodeUniqueViolation = "23505"

type backendError struct {
	op  string
	err error
}

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &backendError{op: op, err: err}
}

func (e *backendError) Error() string { return fmt.Sprintf("postgres: %s: %v", e.op, e.err) }
func (e *backendError) Unwrap() error { return e.err }

func (e *backendError) IsUniqueViolation() bool {
	var pgErr *pgconn.PgError
	if errors.As(e.err, &pgErr) {
		return pgErr.Code == postgresErrCodeUniqueViolation
	}
	return false
}

func (e *backendError) IsNotFound() bool {
	return errors.Is(e.err, pgx.ErrNoRows)
}
