// Package errors is the error taxonomy shared by every layer. Use cases return these
// sentinels (usually wrapped with context) and httputil maps them to status codes.
package errors

import (
	"errors"
	"fmt"
)

// Request and data errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)

// Access errors for the admin surface.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// ErrInvalidTransition is returned when a state machine has no edge for the requested
// event. The operation that returned it changed nothing.
var ErrInvalidTransition = errors.New("invalid transition")

// ErrUnavailable is returned when a collaborator (credential pool, notification
// channel, QR renderer, payment account configuration) cannot serve the request.
var ErrUnavailable = errors.New("collaborator unavailable")

// New returns a plain error with message.
func New(message string) error {
	return errors.New(message)
}

// Wrap prefixes err with message and keeps it in the chain. Wrap(nil, ...) is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Unavailable reports that collaborator failed with cause. The result matches both
// ErrUnavailable and cause.
func Unavailable(collaborator string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%s: %w", collaborator, ErrUnavailable)
	}
	return fmt.Errorf("%s: %w: %w", collaborator, ErrUnavailable, cause)
}

// Is is errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}
