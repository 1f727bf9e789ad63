package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the classified failure of a remote call. Status is zero when no
// response was received; NetworkError is true in that case (offline, DNS
// failure, timeout).
type Error struct {
	Status       int
	Message      string
	NetworkError bool
	TraceID      string
}

func (e *Error) Error() string {
	if e.NetworkError {
		if e.Message != "" {
			return fmt.Sprintf("network error: %s", e.Message)
		}
		return "network error: no response received"
	}
	if e.Message != "" {
		return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error (%d): %s", e.Status, http.StatusText(e.Status))
}

// Retryable reports whether the failure is transient: no response was
// received, or the server answered 5xx.
func (e *Error) Retryable() bool {
	return e.NetworkError || (e.Status >= 500 && e.Status <= 599)
}

// IsNetwork reports whether err is a network-level failure (no response).
func IsNetwork(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.NetworkError
}

// IsAuth reports whether err is a 401 (token invalid or expired).
func IsAuth(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsForbidden reports whether err is a 403.
func IsForbidden(err error) bool {
	return hasStatus(err, http.StatusForbidden)
}

// IsNotFound reports whether err is a 404.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsValidation reports whether err is a 400 carrying a server-side
// validation message.
func IsValidation(err error) bool {
	return hasStatus(err, http.StatusBadRequest)
}

func hasStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}
