package domain

import (
	"errors"
	"fmt"
)

var (
	ErrTaskNotFound     = errors.New("task: not found")
	ErrStoreUnavailable = errors.New("task store: unavailable")
	ErrMalformedItem    = errors.New("task store: malformed item")
)

// ValidationError names the offending field and the constraint it broke.
type ValidationError struct {
	Field      string
	Constraint string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Constraint)
}

func invalid(field, constraint string) error {
	return &ValidationError{Field: field, Constraint: constraint}
}

// IsValidation unwraps err looking for a *ValidationError.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// NewValidationError is used by adapters that validate input the commands
// do not cover, such as upload payloads.
func NewValidationError(field, constraint string) error {
	return invalid(field, constraint)
}
