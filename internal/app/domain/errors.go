package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated marks a request whose signature is missing or invalid.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrBadRequest marks an unparseable payload or a missing required field.
	ErrBadRequest = errors.New("bad request")
	// ErrUnauthorized marks a caller that may not use the bot in this context.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrServerConfiguration marks a missing required configuration value.
	ErrServerConfiguration = errors.New("server configuration")
	// ErrDataAccess marks a failed call to the relational store.
	ErrDataAccess = errors.New("data access")
	// ErrNotFound marks a missing row.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate marks a unique constraint violation.
	ErrDuplicate = errors.New("duplicate")
)

// ValidationError is a user input problem whose message is safe to show back to the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid builds a ValidationError for one option.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// AsValidation unwraps a ValidationError from err.
func AsValidation(err error) (*ValidationError, bool) {
	var target *ValidationError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}
