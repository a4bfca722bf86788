// Package common defines shared constants and sentinel errors used across
// the server and client layers. Callers should use errors.Is to match these
// values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level error kinds.
	ErrorInternal         = errors.New("internal error")
	ErrorUnauthorized     = errors.New("unauthorized")
	ErrorConflict         = errors.New("conflict")
	ErrorPermissionDenied = errors.New("permission denied")
	ErrorInvalidArgument  = errors.New("invalid argument")

	// ErrorUnavailable marks transient infrastructure failures (lock wait
	// timeouts, serialization failures). The caller may retry.
	ErrorUnavailable = errors.New("temporarily unavailable")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// UserError is a domain error whose message is safe to show to the end user.
// It matches its kind with errors.Is.
type UserError struct {
	kind error
	msg  string
}

// NewUserError builds a UserError of the given kind (one of the sentinel
// errors above).
func NewUserError(kind error, format string, args ...any) *UserError {
	return &UserError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func (e *UserError) Error() string { return e.msg }

func (e *UserError) Unwrap() error { return e.kind }

// Kind returns the sentinel the error was built with.
func (e *UserError) Kind() error { return e.kind }
