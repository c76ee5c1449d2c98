package status

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("booking: record not found")
	ErrInvalidTransition  = errors.New("booking: invalid status transition")
	ErrSubscriptionClosed = errors.New("booking: subscription closed")
	ErrUnavailable        = errors.New("booking: interval not available")
	ErrInvalidPass        = errors.New("boarding pass: invalid payload")
)

// ValidationError is raised at the input boundary, before any write reaches the store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
