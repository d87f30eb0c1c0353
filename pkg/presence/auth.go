package presence

import (
	"context"

	"github.com/pkg/errors"

	"github.com/presencepro/presencepro-go/internal/types"
)

// authService implements the AuthService interface
type authService struct {
	client *Client
}

// Login exchanges credentials for a token pair. The access token, refresh
// token, and user profile are persisted as one unit only after the exchange
// fully succeeds, so no partial session can be observed.
func (a *authService) Login(ctx context.Context, username, password string) (*User, error) {
	body := map[string]string{
		"username": username,
		"password": password,
	}

	var sess Session
	if err := a.client.post(ctx, types.LoginEndpoint, body, &sess); err != nil {
		return nil, err
	}

	if sess.AccessToken == "" || sess.RefreshToken == "" {
		return nil, errors.Wrap(ErrLoginFailed, "no token pair in login response")
	}

	if err := a.client.store.Save(&sess); err != nil {
		return nil, errors.Wrap(err, "failed to persist session")
	}

	if a.client.options.Logger != nil {
		a.client.options.Logger.Info("login successful", "username", username)
	}

	return sess.User, nil
}

// Logout clears the stored session. Idempotent.
func (a *authService) Logout() error {
	return a.client.store.Clear()
}

// Refresh exchanges the stored refresh token for a new access token.
func (a *authService) Refresh(ctx context.Context) bool {
	return a.client.transport.Refresh(ctx)
}

// CurrentUser returns the cached profile from the stored session.
func (a *authService) CurrentUser() (*User, error) {
	sess, err := a.client.store.Read()
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.User == nil {
		return nil, ErrNotAuthenticated
	}
	return sess.User, nil
}

// IsAuthenticated reports whether a session with an access token is stored.
// It does not evaluate expiry; a stale token is handled transparently by the
// transport on the next request.
func (a *authService) IsAuthenticated() bool {
	sess, err := a.client.store.Read()
	return err == nil && sess != nil && sess.AccessToken != ""
}

// AuthError returns the one-shot session-termination message and deletes it.
func (a *authService) AuthError() string {
	return a.client.store.TakeAuthError()
}
