package presence

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/presencepro/presencepro-go/internal/session"
)

// MockTransport is a mock implementation of the Transport interface
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Do(ctx context.Context, method, path string, body, result interface{}) error {
	args := m.Called(ctx, method, path, body, result)

	// If the mock provides result data, unmarshal it
	if args.Get(0) != nil && result != nil {
		resultJSON := args.Get(0).(string)
		if err := json.Unmarshal([]byte(resultJSON), result); err != nil {
			return err
		}
	}

	return args.Error(1)
}

func (m *MockTransport) Upload(ctx context.Context, path, fileField, fileName, mimeType string, data []byte, fields map[string]string, result interface{}) error {
	args := m.Called(ctx, path, fileField, fileName, mimeType, data, fields, result)

	if args.Get(0) != nil && result != nil {
		resultJSON := args.Get(0).(string)
		if err := json.Unmarshal([]byte(resultJSON), result); err != nil {
			return err
		}
	}
	return args.Error(1)
}

func (m *MockTransport) Refresh(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockTransport) Download(ctx context.Context, rawURL string) ([]byte, string, error) {
	args := m.Called(ctx, rawURL)
	var data []byte
	if args.Get(0) != nil {
		data = args.Get(0).([]byte)
	}
	return data, args.String(1), args.Error(2)
}

// newTestClient wires a client around a mock transport and an in-memory
// session store.
func newTestClient(mockTransport *MockTransport) *Client {
	client := &Client{
		transport: mockTransport,
		store:     session.NewMemoryStore(),
		options:   &ClientOptions{},
		baseURL:   "http://api.test",
	}
	client.initServices()
	return client
}

func TestAuthService_Login(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newTestClient(mockTransport)

	response := `{
		"access": "A",
		"refresh": "R",
		"user": {
			"id": 1,
			"username": "admin",
			"email": "admin@ecole.test",
			"first_name": "Ada",
			"last_name": "Lovelace",
			"role": "admin"
		}
	}`

	mockTransport.On("Do",
		mock.Anything,
		http.MethodPost,
		"/auth/token/",
		mock.MatchedBy(func(body interface{}) bool {
			creds, ok := body.(map[string]string)
			return ok && creds["username"] == "admin" && creds["password"] == "Admin123!"
		}),
		mock.Anything,
	).Return(response, nil)

	user, err := client.Auth.Login(context.Background(), "admin", "Admin123!")

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, 1, user.ID)
	assert.Equal(t, "admin", user.Username)

	// The store holds exactly the returned triple.
	sess, err := client.store.Read()
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "A", sess.AccessToken)
	assert.Equal(t, "R", sess.RefreshToken)
	require.NotNil(t, sess.User)
	assert.Equal(t, "admin", sess.User.Username)

	mockTransport.AssertExpectations(t)
}

func TestAuthService_Login_MissingTokenPair(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newTestClient(mockTransport)

	mockTransport.On("Do", mock.Anything, http.MethodPost, "/auth/token/", mock.Anything, mock.Anything).
		Return(`{"access": "A"}`, nil)

	user, err := client.Auth.Login(context.Background(), "admin", "Admin123!")

	require.Error(t, err)
	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrLoginFailed)

	sess, readErr := client.store.Read()
	require.NoError(t, readErr)
	assert.Nil(t, sess, "no partial session is persisted")
}

func TestAuthService_Login_BadCredentials(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newTestClient(mockTransport)

	apiErr := &APIError{Message: "No active account found with the given credentials", StatusCode: 401}
	mockTransport.On("Do", mock.Anything, http.MethodPost, "/auth/token/", mock.Anything, mock.Anything).
		Return(nil, apiErr)

	_, err := client.Auth.Login(context.Background(), "admin", "wrong")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "No active account found")
	assert.Equal(t, 401, StatusCode(err))
}

func TestAuthService_LogoutAndState(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newTestClient(mockTransport)

	assert.False(t, client.Auth.IsAuthenticated())
	_, err := client.Auth.CurrentUser()
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	require.NoError(t, client.store.Save(&Session{
		AccessToken:  "A",
		RefreshToken: "R",
		User:         &User{ID: 2, Username: "director"},
	}))

	assert.True(t, client.Auth.IsAuthenticated())

	user, err := client.Auth.CurrentUser()
	require.NoError(t, err)
	assert.Equal(t, "director", user.Username)

	require.NoError(t, client.Auth.Logout())
	assert.False(t, client.Auth.IsAuthenticated())
	require.NoError(t, client.Auth.Logout(), "logout is idempotent")
}

func TestAuthService_AuthErrorOneShot(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newTestClient(mockTransport)

	client.store.SetAuthError("Session expired. Please sign in again.")

	assert.Equal(t, "Session expired. Please sign in again.", client.Auth.AuthError())
	assert.Empty(t, client.Auth.AuthError())
}

func TestAuthService_RefreshDelegates(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newTestClient(mockTransport)

	mockTransport.On("Refresh", mock.Anything).Return(true)

	assert.True(t, client.Auth.Refresh(context.Background()))
	mockTransport.AssertExpectations(t)
}
