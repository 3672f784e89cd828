package services

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned when the upstream rejects a token with 401.
// It always rides alongside the client's unauthorized hook, which invalidates
// every session carrying that token.
var ErrUnauthorized = errors.New("unauthorized")

// ErrSessionNotFound is returned by the gate when no usable session exists.
var ErrSessionNotFound = errors.New("session not found")

// APIError is a non-401 error answer from the upstream portal API. 4xx
// responses carry the upstream's own message; 5xx and non-JSON bodies are
// collapsed into a generic server-error message so a broken proxy page can
// never crash a caller.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("portal api: %s (status %d)", e.Message, e.StatusCode)
}

// IsValidationError reports whether err is a 4xx rejection with a message
// worth showing inline.
func IsValidationError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500
}

// IsServerError reports whether err is a 5xx or unintelligible upstream answer.
func IsServerError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode >= 500
}

// UnreachableError wraps a transport-level failure reaching the upstream.
type UnreachableError struct {
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("portal api unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}

// IsUnreachable reports whether err means the upstream could not be reached.
func IsUnreachable(err error) bool {
	var ue *UnreachableError
	return errors.As(err, &ue)
}

// PreconditionError is a local validation failure caught before any network
// call is made, e.g. a cheque without an amount.
type PreconditionError struct {
	Field   string
	Message string
}

func (e *PreconditionError) Error() string {
	return e.Message
}

// IsPrecondition reports whether err is a local precondition failure.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}
