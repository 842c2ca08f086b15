// Package errors provides the base error taxonomy shared by every domain package.
// Domain packages derive their sentinels from these with Wrap so callers can
// branch on the category with Is while still seeing the specific message.
package errors

import (
	"errors"
	"fmt"
)

// Base categories.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a concurrent modification or a uniqueness violation.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input failed validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIntegrity indicates data failed an authenticity or integrity check
	// (AEAD tag mismatch, wrong key, corrupted record).
	ErrIntegrity = errors.New("integrity check failed")

	// ErrMisconfigured indicates the process was started with unusable configuration.
	ErrMisconfigured = errors.New("misconfigured")
)

// New creates a new error with the given message.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps err with message while preserving the error chain. Returns nil for a nil err.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join returns an error that wraps the given errors, discarding nils.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
