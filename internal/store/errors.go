package store

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// uniqueViolation is the Postgres SQLSTATE for unique constraint violations.
const uniqueViolation = "23505"

// DuplicateKeyError is returned when a write violates a unique constraint.
// Field names the offending column, e.g. "username" or "name".
type DuplicateKeyError struct {
	Field string
	Err   error
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key on %s", e.Field)
}

func (e *DuplicateKeyError) Unwrap() error {
	return e.Err
}

// IsDuplicateKey reports whether err is a DuplicateKeyError.
func IsDuplicateKey(err error) bool {
	var dup *DuplicateKeyError
	return errors.As(err, &dup)
}

var constraintFields = map[string]string{
	"users_username_key": "username",
	"users_email_key":    "email",
	"users_phone_key":    "phone",
	"roles_name_key":     "name",
}

// translate converts driver errors into store errors.
func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		field, ok := constraintFields[pqErr.Constraint]
		if !ok {
			field = pqErr.Constraint
		}
		return &DuplicateKeyError{Field: field, Err: err}
	}
	return err
}
