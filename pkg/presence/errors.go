package presence

import (
	"errors"

	"github.com/presencepro/presencepro-go/internal/types"
)

// Sentinel errors. These are the same values the transport layer wraps, so
// errors.Is works across the package boundary.
var (
	// ErrNotAuthenticated is returned when authentication is required
	ErrNotAuthenticated = types.ErrNotAuthenticated

	// ErrLoginFailed is returned when login fails
	ErrLoginFailed = types.ErrLoginFailed

	// ErrSessionExpired is returned when the session could not be refreshed
	// and stored credentials have been cleared
	ErrSessionExpired = types.ErrSessionExpired

	// ErrUnreachable is returned when the backend cannot be contacted at all
	ErrUnreachable = types.ErrUnreachable

	// ErrNotFound is returned when a resource does not exist
	ErrNotFound = types.ErrNotFound

	// ErrServerError is returned for server-side failures
	ErrServerError = types.ErrServerError
)

// APIError is the normalized failure surfaced for any non-2xx response.
type APIError = types.APIError

// IsAuthError checks if error is authentication related
func IsAuthError(err error) bool {
	return errors.Is(err, ErrNotAuthenticated) ||
		errors.Is(err, ErrLoginFailed) ||
		errors.Is(err, ErrSessionExpired)
}

// IsUnreachable reports whether the error was a transport-level failure
// rather than an HTTP response.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

// StatusCode extracts the HTTP status from an error, or 0 when the error did
// not come from an HTTP response.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
