package presence

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/presencepro/presencepro-go/internal/session"
	"github.com/presencepro/presencepro-go/internal/transport"
	"github.com/presencepro/presencepro-go/internal/types"
)

const (
	// DefaultBaseURL is the default PresencePro API base URL
	DefaultBaseURL = types.DefaultBaseURL

	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = types.DefaultTimeout

	// UserAgent is the user agent string
	UserAgent = types.UserAgent
)

// Client is the main PresencePro API client
type Client struct {
	// Service interfaces
	Auth        AuthService
	Students    StudentService
	Classes     ClassService
	Parents     ParentService
	Attendance  AttendanceService
	Recognition RecognitionService
	Messages    MessageService
	Templates   MessageTemplateService
	Statistics  StatisticsService
	Exports     ExportService

	// Internal fields
	baseURL    string
	httpClient *http.Client
	transport  Transport
	store      SessionStore
	options    *ClientOptions
}

// ClientOptions configures the client
type ClientOptions struct {
	// BaseURL overrides the default API base URL
	BaseURL string

	// HTTPClient allows using a custom HTTP client
	HTTPClient *http.Client

	// Timeout sets the HTTP client timeout
	Timeout time.Duration

	// SessionStore overrides where the token pair and user profile live.
	// Defaults to an in-memory store.
	SessionStore SessionStore

	// SessionFile selects a file-backed session store when SessionStore is
	// not set
	SessionFile string

	// Logger for debug logging
	Logger Logger

	// RetryConfig configures retry behavior for transient failures
	RetryConfig *RetryConfig

	// RateLimiter for rate limiting
	RateLimiter RateLimiter

	// Hooks for observability
	Hooks *Hooks

	// SentryDSN enables Sentry error tracking when set
	SentryDSN string

	// SentryOptions allows custom Sentry configuration
	SentryOptions *sentry.ClientOptions
}

// Logger interface for logging
type Logger = types.Logger

// RetryConfig configures retry behavior
type RetryConfig = types.RetryConfig

// Hooks provides request lifecycle hooks
type Hooks = types.Hooks

// RateLimiter interface for rate limiting
type RateLimiter interface {
	Wait(ctx context.Context) error
}

// Transport performs authenticated HTTP calls, including the token-refresh
// and retry-once handling for 401 responses
type Transport interface {
	Do(ctx context.Context, method, path string, body, result interface{}) error
	Upload(ctx context.Context, path, fileField, fileName, mimeType string, data []byte, fields map[string]string, result interface{}) error
	Refresh(ctx context.Context) bool
	Download(ctx context.Context, rawURL string) ([]byte, string, error)
}

// NewClient creates a new PresencePro client
func NewClient(opts *ClientOptions) (*Client, error) {
	if opts == nil {
		opts = &ClientOptions{}
	}

	// Initialize Sentry if DSN is provided
	if opts.SentryDSN != "" || opts.SentryOptions != nil {
		sentryOpts := sentry.ClientOptions{}

		if opts.SentryOptions != nil {
			sentryOpts = *opts.SentryOptions
		}

		if opts.SentryDSN != "" {
			sentryOpts.Dsn = opts.SentryDSN
		}

		if sentryOpts.Environment == "" {
			sentryOpts.Environment = "production"
		}

		if err := sentry.Init(sentryOpts); err != nil {
			// Log error but don't fail client creation
			if opts.Logger != nil {
				opts.Logger.Error("Failed to initialize Sentry", "error", err)
			}
		}
	}

	// Set defaults
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Timeout: DefaultTimeout,
		}
	}

	if opts.Timeout > 0 {
		opts.HTTPClient.Timeout = opts.Timeout
	}

	store := opts.SessionStore
	if store == nil {
		if opts.SessionFile != "" {
			store = session.NewFileStore(opts.SessionFile)
		} else {
			store = session.NewMemoryStore()
		}
	}

	trans := transport.NewRESTTransport(&transport.Options{
		BaseURL:     opts.BaseURL,
		HTTPClient:  opts.HTTPClient,
		RetryConfig: opts.RetryConfig,
		Logger:      opts.Logger,
		Hooks:       opts.Hooks,
		Store:       store,
	})

	c := &Client{
		baseURL:    trans.BaseURL(),
		httpClient: opts.HTTPClient,
		transport:  trans,
		store:      store,
		options:    opts,
	}

	c.initServices()

	return c, nil
}

// initServices initializes all service implementations
func (c *Client) initServices() {
	c.Auth = &authService{client: c}
	c.Students = &studentService{client: c}
	c.Classes = &classService{client: c}
	c.Parents = &parentService{client: c}
	c.Attendance = &attendanceService{client: c}
	c.Recognition = &recognitionService{client: c}
	c.Messages = &messageService{client: c}
	c.Templates = &templateService{client: c}
	c.Statistics = &statisticsService{client: c}
	c.Exports = &exportService{client: c}
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session returns the currently stored session, or nil when logged out.
func (c *Client) Session() *Session {
	sess, _ := c.store.Read()
	return sess
}

// do executes one logical API call through the transport, applying rate
// limiting and Sentry capture around it.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	if c.options.RateLimiter != nil {
		if err := c.options.RateLimiter.Wait(ctx); err != nil {
			if hub := sentry.GetHubFromContext(ctx); hub != nil {
				hub.CaptureException(err)
			} else {
				sentry.CaptureException(err)
			}
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	start := time.Now()
	err := c.transport.Do(ctx, method, path, body, result)
	duration := time.Since(start)

	if err != nil {
		captureRequestError(ctx, err, method, path, duration)
	}

	return err
}

// Typed verb helpers. Each fixes the HTTP method and forwards to the
// transport, preserving its refresh-and-retry contract.

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

func (c *Client) put(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPut, path, body, result)
}

func (c *Client) patch(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPatch, path, body, result)
}

// del discards any response body on success rather than decoding it.
func (c *Client) del(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// upload sends a multipart file with optional form fields.
func (c *Client) upload(ctx context.Context, path, fileField, fileName, mimeType string, data []byte, fields map[string]string, result interface{}) error {
	if c.options.RateLimiter != nil {
		if err := c.options.RateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	start := time.Now()
	err := c.transport.Upload(ctx, path, fileField, fileName, mimeType, data, fields, result)
	if err != nil {
		captureRequestError(ctx, err, http.MethodPost, path, time.Since(start))
	}
	return err
}

// captureRequestError reports a failed call to Sentry with request context.
func captureRequestError(ctx context.Context, err error, method, path string, duration time.Duration) {
	reqContext := map[string]interface{}{
		"method":   method,
		"path":     path,
		"duration": duration.String(),
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("api.path", path)
			scope.SetContext("request", reqContext)
			hub.CaptureException(err)
		})
	} else {
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("api.path", path)
			scope.SetContext("request", reqContext)
			sentry.CaptureException(err)
		})
	}
}

// Close flushes any pending Sentry events and performs cleanup
func (c *Client) Close() {
	// Flush Sentry events with a 2 second timeout
	sentry.Flush(2 * time.Second)
}
