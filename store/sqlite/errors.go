package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
)

// sqliteErrCodeConstraintUnique is the extended result code
// SQLITE_CONSTRAINT_UNIQUE: SQLITE_CONSTRAINT in the low byte of
// sqlite.Error.Code(), narrowed to unique-constraint violations.
const sqliteErrCodeConstraintUnique = 2067 // SQLITE_CONSTRAINT_UNIQUE

// backendError wraps a driver error with the classification cachekeep's
// MetadataStore contract requires (IsUniqueViolation / IsNotFound).
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

func (e *backendError) Error() string {
	return fmt.Sprintf("sqlite: %s: %v", e.op, e.err)
}

func (e *backendError) Unwrap() error { return e.err }

func (e *backendError) IsUniqueViolation() bool {
	var sqliteErr *sqlite.Error
	if errors.As(e.err, &sqliteErr) {
		return sqliteErr.Code() == sqliteErrCodeConstraintUnique
	}
	return false
}

func (e *backendError) IsNotFound() bool {
	return errors.Is(e.err, sql.ErrNoRows)
}
