package services

import (
	"errors"
	"log"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
)

const sessionExpiredMessage = "Your session has expired. Please log in again."

// Messages maps a failed operation onto the single notice the user sees.
type Messages struct {
	// Generic is shown for network and unexpected failures.
	Generic string
	// Conflict is shown for HTTP 409; empty falls back to the server message
	// or Generic.
	Conflict string
	// PreferServer shows the API's own message when one was returned.
	PreferServer bool
	// Credentials marks a login, where 401 means bad credentials rather
	// than an expired session.
	Credentials bool
}

func (m Messages) For(err error) string {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	if errors.Is(err, domain.ErrUnauthorized) && !m.Credentials {
		return sessionExpiredMessage
	}
	if errors.Is(err, domain.ErrConflict) && m.Conflict != "" {
		return m.Conflict
	}
	var apiErr *domain.APIError
	if (m.PreferServer || errors.Is(err, domain.ErrConflict)) && errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return m.Generic
}

// NoticeError is an operation failure already translated for display.
type NoticeError struct {
	Message string
	Err     error
}

func (e *NoticeError) Error() string {
	return e.Message
}

func (e *NoticeError) Unwrap() error {
	return e.Err
}

// fail logs the failure once at the call site and translates it. Validation
// failures are not logged; they never left the console.
func fail(op string, err error, m Messages) error {
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrValidation) {
		log.Printf("%s failed: %v", op, err)
	}
	return &NoticeError{Message: m.For(err), Err: err}
}

// Message returns the user-facing text for any error returned by this
// package.
func Message(err error) string {
	var n *NoticeError
	if errors.As(err, &n) {
		return n.Message
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	return "Something went wrong. Please try again."
}
