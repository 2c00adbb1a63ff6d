package models

import (
	"fmt"
	"time"
)

// ValidationError rejects malformed input before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
	}
	return "validation: " + e.Message
}

// ExecutionError is a backend refusal of a trade or settings publish.
// Reason carries the backend's message verbatim when available, since
// end-user wording originates server-side. Never retried automatically.
type ExecutionError struct {
	Reason string
	Err    error
}

func (e *ExecutionError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return "operation failed"
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// NewExecutionError builds an ExecutionError, falling back to a generic
// reason when the backend gave none.
func NewExecutionError(reason string, err error) *ExecutionError {
	if reason == "" {
		reason = "operation failed"
	}
	return &ExecutionError{Reason: reason, Err: err}
}

// ConnectionError marks the transport as unavailable. Recovered by
// automatic reconnect and surfaced only as a status indicator.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string { return fmt.Sprintf("connection: %v", e.Err) }

func (e *ConnectionError) Unwrap() error { return e.Err }

// StaleDataWarning is advisory, not a failure of any operation: the
// session is disconnected and keeps displaying cached collections.
type StaleDataWarning struct {
	Since time.Time
}

func (e *StaleDataWarning) Error() string {
	return fmt.Sprintf("displaying cached data since %s", e.Since.UTC().Format(time.RFC3339))
}
