package types

import (
	"context"
	"net/http"
	"time"
)

// User is the cached profile returned by the login endpoint. It is
// informational only; the client never makes authorization decisions from it.
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// Session represents an authenticated session. The access and refresh tokens
// are persisted together as one unit: a stored session either has both or
// neither.
type Session struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
	User         *User  `json:"user,omitempty"`
}

// Logger interface for logging
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// RetryConfig configures retry behavior for transient transport failures.
// Unauthorized responses are never retried here; those go through the
// refresh-and-retry-once path instead.
type RetryConfig struct {
	MaxRetries int           `json:"maxRetries"`
	RetryWait  time.Duration `json:"retryWait"`
	MaxWait    time.Duration `json:"maxWait"`
}

// Hooks provides lifecycle hooks for requests
type Hooks struct {
	OnRequest  func(ctx context.Context, req *http.Request)
	OnResponse func(ctx context.Context, resp *http.Response, duration time.Duration)
	OnError    func(ctx context.Context, err error)

	// OnSessionExpired fires when an unrecoverable unauthorized state is
	// detected. Storage has already been cleared; reason is suitable for
	// display on a login screen.
	OnSessionExpired func(reason string)
}
