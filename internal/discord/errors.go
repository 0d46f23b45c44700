package discord

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FailureKind classifies a failed platform API call.
type FailureKind int

const (
	FailureOther FailureKind = iota
	FailureMissingAccess
	FailureMissingPermissions
	FailureUnauthorized
)

const (
	codeMissingAccess      = 50001
	codeMissingPermissions = 50013
)

var (
	// ErrMissingAccess means the bot cannot see the channel. Not retryable.
	ErrMissingAccess = errors.New("discord: missing access")
	// ErrMissingPermissions means the bot may not send or mention. Retrying with fewer mentions can help.
	ErrMissingPermissions = errors.New("discord: missing permissions")
	// ErrInvalidToken means the bot token was rejected.
	ErrInvalidToken = errors.New("discord: invalid bot token")
)

// APIError is a non-2xx response from the platform API.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("discord api %s %s: status=%d code=%d message=%s", e.Method, e.Path, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("discord api %s %s: status=%d message=%s", e.Method, e.Path, e.Status, e.Message)
}

// Kind returns the failure classification.
func (e *APIError) Kind() FailureKind {
	switch {
	case e.Status == http.StatusUnauthorized:
		return FailureUnauthorized
	case e.Status == http.StatusForbidden && e.Code == codeMissingAccess:
		return FailureMissingAccess
	case e.Status == http.StatusForbidden && e.Code == codeMissingPermissions:
		return FailureMissingPermissions
	default:
		return FailureOther
	}
}

// Is lets callers match classifications with errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrMissingAccess:
		return e.Kind() == FailureMissingAccess
	case ErrMissingPermissions:
		return e.Kind() == FailureMissingPermissions
	case ErrInvalidToken:
		return e.Kind() == FailureUnauthorized
	default:
		return false
	}
}

// KindOf returns the classification of err, or FailureOther when err is not an APIError.
func KindOf(err error) FailureKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind()
	}
	return FailureOther
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{Method: method, Path: path, Status: status}
	var payload struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Code = payload.Code
		apiErr.Message = payload.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}
