package services

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure. Handlers map each kind to one HTTP status.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindUnauthorized
	KindBadRequest
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	case KindBadRequest:
		return "bad_request"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a classified failure whose Message is safe to return to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func wrapInternal(err error) *Error {
	return &Error{Kind: KindInternal, Message: err.Error(), Err: err}
}

// KindOf returns the kind carried by err, KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	var pwdErr *InvalidPasswordError
	if errors.As(err, &pwdErr) || errors.Is(err, ErrLoginAttemptsExceeded) {
		return KindUnauthorized
	}
	return KindInternal
}

// MessageOf returns the client-facing message for err.
func MessageOf(err error) string {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Message
	}
	return err.Error()
}

// Sign-in outcomes with fixed client messages.
var (
	ErrUserNotFound          = newError(KindNotFound, "User Not found.")
	ErrAccountDeactivated    = newError(KindForbidden, "Access denied, account is deactivated.")
	ErrSubjectNotFound       = newError(KindForbidden, "Access denied, user no longer exists.")
	ErrLoginAttemptsExceeded = errors.New("Exceeded maximum number of login attempts. Please reset your password.")
)

// InvalidPasswordError reports a failed password check and the attempt
// count recorded for it.
type InvalidPasswordError struct {
	Attempts int
}

func (e *InvalidPasswordError) Error() string {
	return "Invalid Password!"
}
