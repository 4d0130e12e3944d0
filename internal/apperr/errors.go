// Package apperr defines the error taxonomy shared by the deployment,
// registry and shift packages. Every failure is scoped to the single
// operation that raised it; nothing here is fatal to the process.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or out-of-range input. The operation
// is rejected and prior state is left untouched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return "validation failed: " + e.Message
}

// NewValidation builds a ValidationError for a named field.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConflictError reports a state conflict, e.g. a vehicle that already has
// an open deployment. Never retried automatically.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// NotFoundError reports an unknown id or registration. Suggestion, when
// set, is a human-readable hint surfaced to the caller.
type NotFoundError struct {
	Resource   string
	Key        string
	Suggestion string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

// VehicleValidationError reports a failed registry lookup during checkout.
type VehicleValidationError struct {
	Registration string
	Message      string
	Suggestion   string
}

func (e *VehicleValidationError) Error() string {
	return fmt.Sprintf("vehicle validation failed for %s: %s", e.Registration, e.Message)
}

// InvalidStateError reports a transition that is not in the state machine's
// transition table.
type InvalidStateError struct {
	Current string
	Attempt string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s from state %s", e.Attempt, e.Current)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}
