package domain

import (
	"errors"
	"fmt"
)

var (
	// Auth errors
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidSignature = fmt.Errorf("%w: invalid signature", ErrUnauthorized)
	ErrStaleAssertion   = fmt.Errorf("%w: stale identity assertion", ErrUnauthorized)
	ErrMissingIdentity  = fmt.Errorf("%w: identity assertion required", ErrUnauthorized)
	ErrForbidden        = fmt.Errorf("%w: identity is not whitelisted", ErrUnauthorized)

	// Entry errors
	ErrInvalidEntry = errors.New("invalid entry")

	// Store errors
	ErrPersistenceUnavailable = errors.New("persistence unavailable")

	// Export errors
	ErrExportInProgress = errors.New("export already in progress for this day")
	ErrExportFailed     = errors.New("export failed")
)

// FieldError names the entry field that failed validation.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid entry: %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidEntry.
func (e *FieldError) Unwrap() error {
	return ErrInvalidEntry
}

func fieldError(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}
