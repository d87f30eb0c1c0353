package types

import (
	"errors"
	"time"
)

const (
	// DefaultBaseURL is the default PresencePro API base URL. Point this at a
	// real deployment via ClientOptions.BaseURL.
	DefaultBaseURL = "http://127.0.0.1:8000/api"

	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 30 * time.Second

	// UserAgent is the user agent string
	UserAgent = "presencepro-go/1.0.0"

	// LoginEndpoint exchanges credentials for a token pair.
	LoginEndpoint = "/auth/token/"

	// RefreshEndpoint exchanges a refresh token for a new access token.
	RefreshEndpoint = "/auth/token/refresh/"
)

// Common errors
var (
	// ErrNotAuthenticated is returned when authentication is required
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrLoginFailed is returned when login fails
	ErrLoginFailed = errors.New("login failed")

	// ErrSessionExpired is returned when the session could not be refreshed
	// and the stored credentials have been cleared.
	ErrSessionExpired = errors.New("session expired")

	// ErrUnreachable is returned when the backend cannot be contacted at all
	ErrUnreachable = errors.New("cannot reach the server")

	// ErrNotFound is returned when resource not found
	ErrNotFound = errors.New("resource not found")

	// ErrServerError is returned for server errors
	ErrServerError = errors.New("server error")
)
