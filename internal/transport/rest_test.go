package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/presencepro/presencepro-go/internal/session"
	"github.com/presencepro/presencepro-go/internal/types"
)

func makeToken(t *testing.T, exp time.Time) string {
	t.Helper()

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload, err := json.Marshal(map[string]interface{}{"exp": exp.Unix(), "user_id": 1})
	require.NoError(t, err)

	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}

func storedSession(t *testing.T, exp time.Time) (session.Store, string) {
	t.Helper()

	store := session.NewMemoryStore()
	access := makeToken(t, exp)
	require.NoError(t, store.Save(&types.Session{
		AccessToken:  access,
		RefreshToken: "refresh-token",
		User:         &types.User{ID: 1, Username: "admin"},
	}))
	return store, access
}

func newTestTransport(srv *httptest.Server, store session.Store, hooks *types.Hooks) *RESTTransport {
	return NewRESTTransport(&Options{
		BaseURL: srv.URL,
		Store:   store,
		Hooks:   hooks,
	})
}

func TestRefresh_NoStoredToken(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	tr := newTestTransport(srv, session.NewMemoryStore(), nil)

	assert.False(t, tr.Refresh(context.Background()))
	assert.EqualValues(t, 0, atomic.LoadInt32(&calls), "no network call without a refresh token")
}

func TestRefresh_RejectedClearsStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, types.RefreshEndpoint, r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail": "Token is invalid or expired"}`))
	}))
	defer srv.Close()

	store, _ := storedSession(t, time.Now().Add(time.Hour))
	tr := newTestTransport(srv, store, nil)

	assert.False(t, tr.Refresh(context.Background()))

	sess, err := store.Read()
	require.NoError(t, err)
	assert.Nil(t, sess, "rejected refresh clears the whole session")
}

func TestRefresh_ReplacesAccessTokenOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "refresh-token", body["refresh"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access": "new-access-token"}`))
	}))
	defer srv.Close()

	store, oldAccess := storedSession(t, time.Now().Add(time.Hour))
	tr := newTestTransport(srv, store, nil)

	assert.True(t, tr.Refresh(context.Background()))

	sess, err := store.Read()
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "new-access-token", sess.AccessToken)
	assert.NotEqual(t, oldAccess, sess.AccessToken)
	assert.Equal(t, "refresh-token", sess.RefreshToken, "refresh token is preserved")
	require.NotNil(t, sess.User)
	assert.Equal(t, "admin", sess.User.Username, "user profile is preserved")
}

func TestRefresh_NetworkErrorKeepsStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // immediately unreachable

	store, _ := storedSession(t, time.Now().Add(time.Hour))
	tr := newTestTransport(srv, store, nil)

	assert.False(t, tr.Refresh(context.Background()))

	sess, err := store.Read()
	require.NoError(t, err)
	assert.NotNil(t, sess, "transport failure does not invalidate the session")
}

func TestDo_RetriesExactlyOnceAfter401(t *testing.T) {
	var resourceCalls, refreshCalls int32
	var retryAuth string

	mux := http.NewServeMux()
	mux.HandleFunc("/etudiants/", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&resourceCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		if n == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail": "token expired"}`))
			return
		}
		retryAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[{"id": 7, "nom": "Diallo", "prenom": "Aminata"}]`))
	})
	mux.HandleFunc(types.RefreshEndpoint, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access": "refreshed-token"}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	store, _ := storedSession(t, time.Now().Add(time.Hour))
	tr := newTestTransport(srv, store, nil)

	var students []map[string]interface{}
	err := tr.Get(context.Background(), "/etudiants/", &students)

	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.EqualValues(t, 7, students[0]["id"])

	assert.EqualValues(t, 2, atomic.LoadInt32(&resourceCalls), "one failed call plus one retry")
	assert.EqualValues(t, 1, atomic.LoadInt32(&refreshCalls))
	assert.Equal(t, "Bearer refreshed-token", retryAuth, "retry carries the refreshed token")
}

func TestDo_SecondUnauthorizedSurfacesRetryBody(t *testing.T) {
	var resourceCalls, refreshCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/etudiants/", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&resourceCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		if n == 1 {
			_, _ = w.Write([]byte(`{"detail": "original failure"}`))
		} else {
			_, _ = w.Write([]byte(`{"detail": "retry failure"}`))
		}
	})
	mux.HandleFunc(types.RefreshEndpoint, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access": "refreshed-token"}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	store, _ := storedSession(t, time.Now().Add(time.Hour))
	tr := newTestTransport(srv, store, nil)

	err := tr.Get(context.Background(), "/etudiants/", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry failure")
	assert.NotContains(t, err.Error(), "original failure")

	assert.EqualValues(t, 2, atomic.LoadInt32(&resourceCalls))
	assert.EqualValues(t, 1, atomic.LoadInt32(&refreshCalls), "the retry's 401 does not trigger a second refresh")
}

func TestDo_UnauthorizedWithFailedRefreshTerminatesSession(t *testing.T) {
	var expiredReason string

	mux := http.NewServeMux()
	mux.HandleFunc("/etudiants/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail": "token expired"}`))
	})
	mux.HandleFunc(types.RefreshEndpoint, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	store, _ := storedSession(t, time.Now().Add(time.Hour))
	hooks := &types.Hooks{OnSessionExpired: func(reason string) { expiredReason = reason }}
	tr := newTestTransport(srv, store, hooks)

	err := tr.Get(context.Background(), "/etudiants/", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrSessionExpired)
	assert.Contains(t, err.Error(), "token expired", "error carries the 401 body")

	sess, readErr := store.Read()
	require.NoError(t, readErr)
	assert.Nil(t, sess, "storage is cleared")
	assert.NotEmpty(t, expiredReason)
	assert.Equal(t, expiredReason, store.TakeAuthError())
}

func TestDo_PreflightRefreshFailure(t *testing.T) {
	var resourceCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/etudiants/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&resourceCalls, 1)
	})
	mux.HandleFunc(types.RefreshEndpoint, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	// Access token already inside the expiry leeway.
	store, _ := storedSession(t, time.Now().Add(-time.Minute))
	tr := newTestTransport(srv, store, nil)

	err := tr.Get(context.Background(), "/etudiants/", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrSessionExpired)
	assert.EqualValues(t, 0, atomic.LoadInt32(&resourceCalls), "the resource call is never dispatched")

	sess, readErr := store.Read()
	require.NoError(t, readErr)
	assert.Nil(t, sess)
}

func TestDo_PreflightRefreshSuccess(t *testing.T) {
	var gotAuth string

	mux := http.NewServeMux()
	mux.HandleFunc("/etudiants/", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})
	mux.HandleFunc(types.RefreshEndpoint, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access": "preflighted-token"}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	store, _ := storedSession(t, time.Now().Add(-time.Minute))
	tr := newTestTransport(srv, store, nil)

	var out []struct{}
	require.NoError(t, tr.Get(context.Background(), "/etudiants/", &out))
	assert.Equal(t, "Bearer preflighted-token", gotAuth)
}

func TestDo_LoginSkipsPreflightAndAuthHeader(t *testing.T) {
	var gotAuth string
	var loginCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc(types.LoginEndpoint, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&loginCalls, 1)
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access": "a", "refresh": "r"}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	// No stored session at all: a login must still go out.
	tr := newTestTransport(srv, session.NewMemoryStore(), nil)

	var out map[string]string
	err := tr.Post(context.Background(), types.LoginEndpoint, map[string]string{"username": "admin", "password": "Admin123!"}, &out)

	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&loginCalls))
	assert.Empty(t, gotAuth)
	assert.Equal(t, "a", out["access"])
}

func TestNewRequest_OmitsAuthHeaderWithoutToken(t *testing.T) {
	tr := NewRESTTransport(&Options{BaseURL: "http://api.test", Store: session.NewMemoryStore()})

	req, err := tr.newRequest(context.Background(), http.MethodGet, "/etudiants/", nil)
	require.NoError(t, err)

	_, present := req.Header["Authorization"]
	assert.False(t, present, "no Authorization header at all, not a malformed bearer value")
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
}

func TestDo_NetworkErrorIsDistinct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	store, _ := storedSession(t, time.Now().Add(time.Hour))
	tr := newTestTransport(srv, store, nil)

	err := tr.Get(context.Background(), "/etudiants/", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrUnreachable)
	assert.Contains(t, err.Error(), "cannot reach the server")
}

func TestDo_EmptySuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	store, _ := storedSession(t, time.Now().Add(time.Hour))
	tr := newTestTransport(srv, store, nil)

	var out map[string]string
	require.NoError(t, tr.Get(context.Background(), "/ping/", &out))
	assert.Nil(t, out)
}

func TestDo_NonJSONSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("OK"))
	}))
	defer srv.Close()

	store, _ := storedSession(t, time.Now().Add(time.Hour))
	tr := newTestTransport(srv, store, nil)

	var out map[string]string
	require.NoError(t, tr.Get(context.Background(), "/ping/", &out))
	assert.Nil(t, out, "a non-JSON 2xx is an empty success")
}

func TestDo_ValidationErrorSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"nom": ["This field is required."], "classe": ["Invalid pk."]}`))
	}))
	defer srv.Close()

	store, _ := storedSession(t, time.Now().Add(time.Hour))
	tr := newTestTransport(srv, store, nil)

	err := tr.Post(context.Background(), "/etudiants/", map[string]string{}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "nom: This field is required.")
	assert.Contains(t, err.Error(), "classe: Invalid pk.")

	var apiErr *types.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestExtractErrorMessage_Priority(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        string
	}{
		{"detail wins", "application/json", `{"detail": "d", "message": "m", "error": "e"}`, "d"},
		{"then message", "application/json", `{"message": "m", "error": "e"}`, "m"},
		{"then error", "application/json", `{"error": "e"}`, "e"},
		{"bare JSON string", "application/json", `"plain failure"`, "plain failure"},
		{"field map", "application/json", `{"nom": ["This field is required."]}`, "validation errors: nom: This field is required."},
		{"non-JSON text", "text/html", "<h1>Server Error</h1>", "error 500: <h1>Server Error</h1>"},
		{"empty body", "text/plain", "", "error 500: Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{
				StatusCode: http.StatusInternalServerError,
				Header:     http.Header{"Content-Type": []string{tt.contentType}},
			}
			assert.Equal(t, tt.want, extractErrorMessage(resp, []byte(tt.body)))
		})
	}
}

func TestDownload_SendsAuthAndReturnsBytes(t *testing.T) {
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		_, _ = w.Write([]byte("xlsx-bytes"))
	}))
	defer srv.Close()

	store, access := storedSession(t, time.Now().Add(time.Hour))
	tr := newTestTransport(srv, store, nil)

	data, contentType, err := tr.Download(context.Background(), srv.URL+"/export/presences/jour/?format=xlsx")

	require.NoError(t, err)
	assert.Equal(t, []byte("xlsx-bytes"), data)
	assert.Contains(t, contentType, "spreadsheetml")
	assert.Equal(t, "Bearer "+access, gotAuth)
}

func TestUpload_SendsMultipartWithAuth(t *testing.T) {
	var (
		gotAuth     string
		gotMsgID    string
		gotFileName string
		gotFile     []byte
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotMsgID = r.FormValue("message_id")

		file, header, err := r.FormFile("fichier")
		require.NoError(t, err)
		defer file.Close()
		gotFileName = header.Filename
		gotFile, err = io.ReadAll(file)
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 7, "nom_fichier": "sortie.pdf"}`))
	}))
	defer srv.Close()

	store, access := storedSession(t, time.Now().Add(time.Hour))
	tr := newTestTransport(srv, store, nil)

	var result struct {
		ID       int    `json:"id"`
		FileName string `json:"nom_fichier"`
	}
	err := tr.Upload(context.Background(), "/messages/11/add_attachment/",
		"fichier", "sortie.pdf", "application/pdf", []byte("pdf-bytes"),
		map[string]string{"message_id": "11"}, &result)

	require.NoError(t, err)
	assert.Equal(t, "Bearer "+access, gotAuth)
	assert.Equal(t, "11", gotMsgID)
	assert.Equal(t, "sortie.pdf", gotFileName)
	assert.Equal(t, []byte("pdf-bytes"), gotFile)
	assert.Equal(t, 7, result.ID)
}

func TestUpload_RetriesOnceAfter401(t *testing.T) {
	var uploadCalls, refreshCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc(types.RefreshEndpoint, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access": "new-access-token"}`))
	})
	mux.HandleFunc("/messages/11/add_attachment/", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&uploadCalls, 1) == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail": "Token expired"}`))
			return
		}
		require.NoError(t, r.ParseMultipartForm(1<<20))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 7}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store, _ := storedSession(t, time.Now().Add(time.Hour))
	tr := newTestTransport(srv, store, nil)

	err := tr.Upload(context.Background(), "/messages/11/add_attachment/",
		"fichier", "sortie.pdf", "application/pdf", []byte("pdf-bytes"), nil, nil)

	require.NoError(t, err)
	assert.EqualValues(t, 2, uploadCalls)
	assert.EqualValues(t, 1, refreshCalls)
}
