package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks request problems detected before any query runs.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a write collided with existing data.
	ErrConflict = errors.New("conflict")
)

// Invalid wraps ErrValidation with the offending field.
func Invalid(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrValidation, field, reason)
}
