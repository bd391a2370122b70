package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotFound indicates that a requested job was not found.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyTerminal indicates that a job is already in a terminal state.
	ErrAlreadyTerminal = errors.New("already terminal")

	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCancelled indicates that a job was cancelled.
	ErrCancelled = errors.New("cancelled")

	// ErrServiceUnavailable indicates that an external collaborator is unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")
)

// ValidationError represents a fatal input validation failure. Jobs failing
// validation never enter a retry loop.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// TransientError represents a collaborator failure that is expected to be
// retryable without changing inputs (search unavailable, fetch batch down,
// synthesis API error).
type TransientError struct {
	Stage string
	Cause error
}

// Error implements the error interface.
func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient failure: %v", e.Stage, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *TransientError) Unwrap() error {
	return e.Cause
}

// CancellationError marks a job that was cancelled cooperatively. It is
// fatal but recorded as its own reason, distinct from ordinary failures.
type CancellationError struct {
	Reason string
}

// Error implements the error interface.
func (e *CancellationError) Error() string {
	if e.Reason == "" {
		return "job cancelled"
	}
	return fmt.Sprintf("job cancelled: %s", e.Reason)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *CancellationError) Unwrap() error {
	return ErrCancelled
}

// PublishError wraps a failure of the downstream publisher. Publishing
// failures never change a completed job's status; they only surface as
// warnings.
type PublishError struct {
	Cause error
}

// Error implements the error interface.
func (e *PublishError) Error() string {
	return fmt.Sprintf("publish failed: %v", e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *PublishError) Unwrap() error {
	return e.Cause
}

// NotFoundError provides details about a missing job.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewTransientError creates a new TransientError for the given stage.
func NewTransientError(stage string, cause error) *TransientError {
	return &TransientError{Stage: stage, Cause: cause}
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}
