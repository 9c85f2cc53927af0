package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrUnavailable       = errors.New("upstream unavailable")
	ErrInvalidTransition = errors.New("invalid package status transition")
)

// ValidationError carries the message shown to the user when input is
// rejected before any call is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func Invalid(message string) error {
	return &ValidationError{Message: message}
}

// APIError is a non-2xx answer from the remote API. Kind is one of the
// sentinel errors above so callers can use errors.Is.
type APIError struct {
	Status  int
	Message string
	Kind    error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api status %d", e.Status)
}

func (e *APIError) Unwrap() error {
	return e.Kind
}
