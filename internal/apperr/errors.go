// Package apperr defines the error kinds shared by every layer of the service.
// Callers wrap one of the sentinels with fmt.Errorf("...: %w", ...) and the HTTP
// layer maps it back to a status code with Status.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation is returned for malformed or missing input, before anything is mutated.
	ErrValidation = errors.New("validation error")

	// ErrNotFound covers missing entities and entities hidden from the caller.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is an ACL or ownership failure.
	ErrForbidden = errors.New("forbidden")

	// ErrTransient wraps I/O and decryption failures. Callers may retry later.
	ErrTransient = errors.New("service unavailable")

	ErrConflict = errors.New("conflict")
	ErrQuota    = errors.New("storage quota exceeded")
)

// Status returns the HTTP status code matching the kind of err.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrQuota):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Public reports whether the error message is safe to show to a client.
// Internal errors are replaced with a generic message by the handlers.
func Public(err error) bool {
	return Status(err) != http.StatusInternalServerError && !errors.Is(err, ErrTransient)
}
