package domain

import (
	"errors"
	"strings"
)

// ErrValidation is returned when a domain entity fails validation.
// ValidationError values match it through errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError reports every rule an entity violated, not just the first.
type ValidationError struct {
	Violations []string
}

// NewValidationError creates a ValidationError from the given violation messages.
func NewValidationError(violations ...string) *ValidationError {
	return &ValidationError{Violations: violations}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return ErrValidation.Error()
	}
	return ErrValidation.Error() + ": " + strings.Join(e.Violations, "; ")
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
