package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for request validation failures. These are the only error
// class surfaced to callers; degraded upstreams are ordinary return values.
var (
	ErrNegativeLimit  = errors.New("limit must not be negative")
	ErrLimitTooLarge  = errors.New("limit exceeds maximum")
	ErrNegativeOffset = errors.New("offset must not be negative")
	ErrQueryTooLong   = errors.New("query too long")
)

// ValidationError wraps a sentinel with the offending field and value.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}

// IsValidationError reports whether err is a request validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
