package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	"github.com/presencepro/presencepro-go/internal/session"
	"github.com/presencepro/presencepro-go/internal/token"
	"github.com/presencepro/presencepro-go/internal/types"
)

const (
	contentType = "application/json"

	// sessionExpiredMessage is recorded in the store's auth-error slot and
	// carried on the returned error when a session terminates.
	sessionExpiredMessage = "Session expired. Please sign in again."
)

// RESTTransport performs authenticated JSON calls against the PresencePro
// backend. It owns the access-token lifecycle for each logical request: a
// preflight expiry check, the Authorization header, and exactly one
// refresh-triggered retry after a 401.
type RESTTransport struct {
	baseURL     string
	httpClient  *http.Client
	retryClient *retryablehttp.Client
	headers     map[string]string
	store       session.Store
	logger      types.Logger
	hooks       *types.Hooks
}

// Options for the REST transport
type Options struct {
	BaseURL     string
	HTTPClient  *http.Client
	Headers     map[string]string
	RetryConfig *types.RetryConfig
	Logger      types.Logger
	Hooks       *types.Hooks
	Store       session.Store
}

// NewRESTTransport creates a new REST transport
func NewRESTTransport(opts *Options) *RESTTransport {
	if opts == nil {
		opts = &Options{}
	}

	if opts.BaseURL == "" {
		opts.BaseURL = types.DefaultBaseURL
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Timeout: types.DefaultTimeout,
		}
	}

	if opts.Store == nil {
		opts.Store = session.NewMemoryStore()
	}

	// Create retry client if configured. Retries here cover transient
	// transport failures only; a 401 is handled by the refresh path and is
	// never retried by this layer.
	var retryClient *retryablehttp.Client
	if opts.RetryConfig != nil {
		retryClient = retryablehttp.NewClient()
		retryClient.HTTPClient = opts.HTTPClient
		retryClient.RetryMax = opts.RetryConfig.MaxRetries
		retryClient.RetryWaitMin = opts.RetryConfig.RetryWait
		retryClient.RetryWaitMax = opts.RetryConfig.MaxWait

		if opts.Logger != nil {
			retryClient.Logger = &retryLogger{logger: opts.Logger}
		}
	}

	headers := map[string]string{
		"Accept":       contentType,
		"Content-Type": contentType,
		"User-Agent":   types.UserAgent,
		"X-Client-ID":  uuid.New().String(),
	}

	// Merge custom headers
	for k, v := range opts.Headers {
		headers[k] = v
	}

	return &RESTTransport{
		baseURL:     strings.TrimSuffix(opts.BaseURL, "/"),
		httpClient:  opts.HTTPClient,
		retryClient: retryClient,
		headers:     headers,
		store:       opts.Store,
		logger:      opts.Logger,
		hooks:       opts.Hooks,
	}
}

// BaseURL returns the configured API base URL.
func (t *RESTTransport) BaseURL() string {
	return t.baseURL
}

// Store returns the session store backing this transport.
func (t *RESTTransport) Store() session.Store {
	return t.store
}

// Do performs one logical API call: preflight token check, the request
// itself, at most one refresh-and-retry on 401, and error normalization. A
// 2xx response is decoded into result; an empty or non-JSON success body
// leaves result untouched.
func (t *RESTTransport) Do(ctx context.Context, method, path string, body, result interface{}) error {
	// Preflight: never dispatch a request with a token that will expire
	// mid-flight. Login and refresh calls are exempt, they carry no token.
	if !isAuthPath(path) && t.accessTokenExpired() {
		if !t.Refresh(ctx) {
			return t.terminateSession(ctx, sessionExpiredMessage)
		}
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to marshal request body")
		}
	}

	var resp *http.Response
	var respBody []byte
	for attempt := 0; ; attempt++ {
		req, err := t.newRequest(ctx, method, path, payload)
		if err != nil {
			return err
		}

		if t.hooks != nil && t.hooks.OnRequest != nil {
			t.hooks.OnRequest(ctx, req)
		}
		if t.logger != nil {
			t.logger.Debug("API request", "method", method, "path", path, "attempt", attempt)
		}

		start := time.Now()
		resp, err = t.doRequest(req)
		duration := time.Since(start)

		if err != nil {
			apiErr := &types.APIError{
				Message: fmt.Sprintf("cannot reach the server at %s: %v", t.baseURL, err),
				Err:     types.ErrUnreachable,
			}
			t.emitError(ctx, apiErr)
			return apiErr
		}

		if t.hooks != nil && t.hooks.OnResponse != nil {
			t.hooks.OnResponse(ctx, resp, duration)
		}

		respBody, err = io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return errors.Wrap(err, "failed to read response")
		}

		if t.logger != nil {
			t.logger.Debug("API response", "status", resp.StatusCode, "path", path, "duration", duration, "size", len(respBody))
		}

		// Anything but a first-attempt 401 on a bearer-authenticated path is
		// final. The attempt counter caps the refresh-triggered retry at one.
		if resp.StatusCode != http.StatusUnauthorized || attempt > 0 || isAuthPath(path) {
			break
		}

		if !t.Refresh(ctx) {
			// Unrecoverable: the refresh was rejected (storage already
			// cleared) or no refresh token existed. Terminate the session and
			// surface the error derived from the 401 in hand.
			t.expireSession(sessionExpiredMessage)
			apiErr := t.apiError(resp, respBody)
			apiErr.Err = types.ErrSessionExpired
			t.emitError(ctx, apiErr)
			return apiErr
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := t.apiError(resp, respBody)
		t.emitError(ctx, apiErr)
		return apiErr
	}

	if result == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if !isJSONContent(resp.Header.Get("Content-Type")) {
		// A 2xx with a non-JSON body counts as an empty success.
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return errors.Wrap(err, "failed to unmarshal response")
	}
	return nil
}

// Get issues a GET request.
func (t *RESTTransport) Get(ctx context.Context, path string, result interface{}) error {
	return t.Do(ctx, http.MethodGet, path, nil, result)
}

// Post issues a POST request.
func (t *RESTTransport) Post(ctx context.Context, path string, body, result interface{}) error {
	return t.Do(ctx, http.MethodPost, path, body, result)
}

// Put issues a PUT request.
func (t *RESTTransport) Put(ctx context.Context, path string, body, result interface{}) error {
	return t.Do(ctx, http.MethodPut, path, body, result)
}

// Patch issues a PATCH request.
func (t *RESTTransport) Patch(ctx context.Context, path string, body, result interface{}) error {
	return t.Do(ctx, http.MethodPatch, path, body, result)
}

// Delete issues a DELETE request and discards any response body.
func (t *RESTTransport) Delete(ctx context.Context, path string) error {
	return t.Do(ctx, http.MethodDelete, path, nil, nil)
}

// Refresh exchanges the stored refresh token for a new access token. A false
// return is the only failure signal: no stored refresh token means false with
// no network call, a server rejection clears the store and returns false, and
// a transport failure returns false with the store left intact. On success
// only the access token in the stored session is replaced.
//
// Concurrent refreshes are not coalesced. The server treats refresh as
// idempotent and the session write is a last-write-wins overwrite, so two
// racing refreshes simply leave one of two valid tokens behind.
func (t *RESTTransport) Refresh(ctx context.Context) bool {
	sess, err := t.store.Read()
	if err != nil || sess == nil || sess.RefreshToken == "" {
		return false
	}

	payload, err := json.Marshal(map[string]string{"refresh": sess.RefreshToken})
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+types.RefreshEndpoint, bytes.NewReader(payload))
	if err != nil {
		return false
	}
	// No Authorization header: the refresh token in the body is the
	// credential here.
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", contentType)
	req.Header.Set("User-Agent", types.UserAgent)

	resp, err := t.doRequest(req)
	if err != nil {
		if t.logger != nil {
			t.logger.Warn("token refresh failed", "error", err)
		}
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// The refresh token is no longer honored; drop the whole session so
		// no half-valid credential pair survives.
		_ = t.store.Clear()
		if t.logger != nil {
			t.logger.Warn("refresh token rejected", "status", resp.StatusCode)
		}
		return false
	}

	var out struct {
		Access string `json:"access"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Access == "" {
		return false
	}

	sess.AccessToken = out.Access
	if err := t.store.Save(sess); err != nil {
		return false
	}

	if t.logger != nil {
		t.logger.Debug("access token refreshed")
	}
	return true
}

// Download fetches a backend-rendered file (exports, report downloads) with
// the same credential handling as Do: preflight check, bearer header, one
// refresh-and-retry on 401. Returns the raw bytes and the content type.
func (t *RESTTransport) Download(ctx context.Context, rawURL string) ([]byte, string, error) {
	if t.accessTokenExpired() {
		if !t.Refresh(ctx) {
			return nil, "", t.terminateSession(ctx, sessionExpiredMessage)
		}
	}

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, "", errors.Wrap(err, "failed to create request")
		}
		req.Header.Set("User-Agent", types.UserAgent)
		if sess, _ := t.store.Read(); sess != nil && sess.AccessToken != "" {
			req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
		}

		resp, err := t.doRequest(req)
		if err != nil {
			return nil, "", &types.APIError{
				Message: fmt.Sprintf("cannot reach the server at %s: %v", t.baseURL, err),
				Err:     types.ErrUnreachable,
			}
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, "", errors.Wrap(err, "failed to read response")
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			if !t.Refresh(ctx) {
				t.expireSession(sessionExpiredMessage)
				apiErr := t.apiError(resp, body)
				apiErr.Err = types.ErrSessionExpired
				return nil, "", apiErr
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, "", t.apiError(resp, body)
		}
		return body, resp.Header.Get("Content-Type"), nil
	}
}

// Upload sends a multipart/form-data request: the file under fileField plus
// any extra form fields. Credential handling matches Do, including the
// preflight check and the single refresh-and-retry on 401. A 2xx JSON body is
// decoded into result.
func (t *RESTTransport) Upload(ctx context.Context, path, fileField, fileName, mimeType string, data []byte, fields map[string]string, result interface{}) error {
	if t.accessTokenExpired() {
		if !t.Refresh(ctx) {
			return t.terminateSession(ctx, sessionExpiredMessage)
		}
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return errors.Wrap(err, "failed to write form field")
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fileField, fileName))
	if mimeType != "" {
		header.Set("Content-Type", mimeType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return errors.Wrap(err, "failed to create form file")
	}
	if _, err := part.Write(data); err != nil {
		return errors.Wrap(err, "failed to write form file")
	}
	if err := writer.Close(); err != nil {
		return errors.Wrap(err, "failed to finalize form")
	}
	payload := buf.Bytes()

	for attempt := 0; ; attempt++ {
		req, err := t.newRequest(ctx, http.MethodPost, path, payload)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())

		resp, err := t.doRequest(req)
		if err != nil {
			apiErr := &types.APIError{
				Message: fmt.Sprintf("cannot reach the server at %s: %v", t.baseURL, err),
				Err:     types.ErrUnreachable,
			}
			t.emitError(ctx, apiErr)
			return apiErr
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return errors.Wrap(err, "failed to read response")
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			if !t.Refresh(ctx) {
				t.expireSession(sessionExpiredMessage)
				apiErr := t.apiError(resp, respBody)
				apiErr.Err = types.ErrSessionExpired
				t.emitError(ctx, apiErr)
				return apiErr
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := t.apiError(resp, respBody)
			t.emitError(ctx, apiErr)
			return apiErr
		}

		if result == nil || len(bytes.TrimSpace(respBody)) == 0 {
			return nil
		}
		if err := json.Unmarshal(respBody, result); err != nil {
			return errors.Wrap(err, "failed to unmarshal response")
		}
		return nil
	}
}

// newRequest builds an HTTP request with the transport's base headers and,
// for bearer-authenticated paths, the current Authorization header. The store
// is re-read on every build so a retried request picks up the token the
// refresh just wrote. When no token is stored the header is omitted entirely.
func (t *RESTTransport) newRequest(ctx context.Context, method, path string, payload []byte) (*http.Request, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, bodyReader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	if !isAuthPath(path) {
		if sess, _ := t.store.Read(); sess != nil && sess.AccessToken != "" {
			req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
		}
	}
	return req, nil
}

// doRequest executes the HTTP request with retry if configured
func (t *RESTTransport) doRequest(req *http.Request) (*http.Response, error) {
	if t.retryClient != nil {
		retryReq, err := retryablehttp.FromRequest(req)
		if err != nil {
			return nil, err
		}
		return t.retryClient.Do(retryReq)
	}
	return t.httpClient.Do(req)
}

// accessTokenExpired reports whether the stored access token is absent,
// malformed, or inside the expiry leeway window.
func (t *RESTTransport) accessTokenExpired() bool {
	sess, err := t.store.Read()
	if err != nil || sess == nil {
		return true
	}
	return token.IsExpired(sess.AccessToken)
}

// expireSession clears stored credentials, records the one-shot auth error,
// and fires the session-expired hook.
func (t *RESTTransport) expireSession(reason string) {
	_ = t.store.Clear()
	t.store.SetAuthError(reason)
	if t.logger != nil {
		t.logger.Warn("session terminated", "reason", reason)
	}
	if t.hooks != nil && t.hooks.OnSessionExpired != nil {
		t.hooks.OnSessionExpired(reason)
	}
}

func (t *RESTTransport) terminateSession(ctx context.Context, reason string) error {
	t.expireSession(reason)
	err := &types.APIError{Message: reason, Err: types.ErrSessionExpired}
	t.emitError(ctx, err)
	return err
}

func (t *RESTTransport) emitError(ctx context.Context, err error) {
	if t.hooks != nil && t.hooks.OnError != nil {
		t.hooks.OnError(ctx, err)
	}
}

func (t *RESTTransport) apiError(resp *http.Response, body []byte) *types.APIError {
	return &types.APIError{
		Message:    extractErrorMessage(resp, body),
		StatusCode: resp.StatusCode,
	}
}

// extractErrorMessage pulls the best human-readable message out of an error
// response. JSON bodies are probed in priority order: a "detail" field (the
// Django REST framework convention), then "message", then "error", then a
// bare JSON string, then a field-to-messages validation map. Non-JSON bodies
// fall back to the status code plus the raw text.
func extractErrorMessage(resp *http.Response, body []byte) string {
	if isJSONContent(resp.Header.Get("Content-Type")) {
		var data interface{}
		if err := json.Unmarshal(body, &data); err == nil {
			switch v := data.(type) {
			case string:
				if v != "" {
					return v
				}
			case map[string]interface{}:
				for _, key := range []string{"detail", "message", "error"} {
					if s, ok := v[key].(string); ok && s != "" {
						return s
					}
				}
				if len(v) > 0 {
					return validationSummary(v)
				}
			}
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return fmt.Sprintf("error %d: %s", resp.StatusCode, text)
	}
	return fmt.Sprintf("error %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}

// validationSummary flattens a Django field-validation error object into one
// line, e.g. {"nom": ["This field is required."]} becomes
// "validation errors: nom: This field is required.". Keys are sorted so the
// message is deterministic.
func validationSummary(fields map[string]interface{}) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, fieldMessages(fields[k])))
	}
	return "validation errors: " + strings.Join(parts, "; ")
}

func fieldMessages(v interface{}) string {
	if msgs, ok := v.([]interface{}); ok {
		out := make([]string, 0, len(msgs))
		for _, m := range msgs {
			out = append(out, fmt.Sprint(m))
		}
		return strings.Join(out, ", ")
	}
	return fmt.Sprint(v)
}

func isJSONContent(ct string) bool {
	return strings.Contains(ct, "application/json")
}

func isAuthPath(path string) bool {
	return path == types.LoginEndpoint || path == types.RefreshEndpoint
}

// retryLogger adapts our logger to retryablehttp
type retryLogger struct {
	logger types.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, keysAndValues...)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keysAndValues...)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, keysAndValues...)
}
