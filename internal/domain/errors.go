package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across layers.
var (
	// ErrNotFound is returned when a claim reference does not exist within
	// the caller's org.
	ErrNotFound = errors.New("claim not found")

	// ErrAlreadyScored is returned by the repository when a scoring pass
	// finds a score already persisted. Callers treat it as a no-op.
	ErrAlreadyScored = errors.New("claim already scored")
)

// ValidationError reports malformed or incomplete input, field by field.
// Maps to HTTP 400.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d invalid field(s)", len(e.Fields))
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// ConflictError reports an operation that is invalid from the claim's current
// lifecycle state, typically because a concurrent actor got there first.
// Maps to HTTP 409.
type ConflictError struct {
	Current   ClaimStatus
	Attempted string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("cannot %s claim in status %q", e.Attempted, e.Current)
}

// ForbiddenError reports an operation that is well-formed but prohibited by
// policy regardless of state, such as editing fields after submission.
// Maps to HTTP 403.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return e.Reason
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsForbidden reports whether err is (or wraps) a ForbiddenError.
func IsForbidden(err error) bool {
	var fe *ForbiddenError
	return errors.As(err, &fe)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
