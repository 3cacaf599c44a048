// Package errors provides the standardized error taxonomy for the lifecycle engine.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Fatal to the caller, never retried automatically.
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeMissingField      ErrorCode = "MISSING_FIELD"

	// Stale expected-version on write; caller should re-read and retry.
	ErrCodeConflict ErrorCode = "CONFLICT"

	// Primary transition committed, one or more cascade writes did not.
	ErrCodePartialCascadeFailure ErrorCode = "PARTIAL_CASCADE_FAILURE"

	// Best-effort delivery failure, logged only, never surfaced to the caller.
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// WorkflowError is a structured engine error.
type WorkflowError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("WorkflowError[%s]: %s", e.Code, e.Message)
}

// CodeOf extracts the ErrorCode from err. Foreign errors map to
// ErrCodeInternal; nil maps to the empty code.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var we *WorkflowError
	if errors.As(err, &we) {
		return we.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// NewNotFoundError creates a non-retryable unknown-entity error.
func NewNotFoundError(entityType, id string) *WorkflowError {
	return &WorkflowError{
		Code:      ErrCodeNotFound,
		Message:   "Entity not found",
		Details:   fmt.Sprintf("entityType: %s, id: %s", entityType, id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnauthorizedError creates a non-retryable ownership-mismatch error.
func NewUnauthorizedError(details string) *WorkflowError {
	return &WorkflowError{
		Code:      ErrCodeUnauthorized,
		Message:   "Actor is not allowed to act on this entity",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidTransitionError creates a non-retryable illegal-transition error.
func NewInvalidTransitionError(entityType, status, action, role string) *WorkflowError {
	return &WorkflowError{
		Code:      ErrCodeInvalidTransition,
		Message:   "Action is not legal for the current status and role",
		Details:   fmt.Sprintf("entityType: %s, status: %s, action: %s, role: %s", entityType, status, action, role),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingFieldError creates a non-retryable incomplete-payload error.
func NewMissingFieldError(field string) *WorkflowError {
	return &WorkflowError{
		Code:      ErrCodeMissingField,
		Message:   "Required payload field missing",
		Details:   fmt.Sprintf("field: %s", field),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewConflictError creates a retryable stale-write error. The caller must
// re-read and retry with fresh state; the engine never overwrites silently.
func NewConflictError(entityType, id string) *WorkflowError {
	return &WorkflowError{
		Code:      ErrCodeConflict,
		Message:   "Concurrent write detected, state is stale",
		Details:   fmt.Sprintf("entityType: %s, id: %s", entityType, id),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// CascadeFailure records one secondary write that did not apply.
type CascadeFailure struct {
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

// NewPartialCascadeFailureError reports committed-primary / failed-secondary.
// Never user-facing for the triggering action, but observable to operators so
// a reconciliation job can catch up.
func NewPartialCascadeFailureError(failures []CascadeFailure) *WorkflowError {
	return &WorkflowError{
		Code:      ErrCodePartialCascadeFailure,
		Message:   "Primary transition committed but some cascade writes failed",
		Details:   fmt.Sprintf("failedWrites: %d", len(failures)),
		Retryable: false,
		Metadata:  map[string]interface{}{"failures": failures},
		Timestamp: time.Now().UTC(),
	}
}

// Failures returns the cascade failure list carried by a
// PARTIAL_CASCADE_FAILURE error, or nil.
func (e *WorkflowError) Failures() []CascadeFailure {
	if e.Metadata == nil {
		return nil
	}
	if fs, ok := e.Metadata["failures"].([]CascadeFailure); ok {
		return fs
	}
	return nil
}

// NewNotificationSendFailedError creates a retryable delivery error.
func NewNotificationSendFailedError(kind string, err error) *WorkflowError {
	return &WorkflowError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("kind: %s, error: %s", kind, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(err error) *WorkflowError {
	return &WorkflowError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected internal error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// GetRetryCount returns how many automatic retries a code allows.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeConflict:
		return 3
	case ErrCodeNotificationSendFailed:
		return 3
	default:
		return 0
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}
