package coachapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"podium/internal/logging"
	"podium/internal/services"
)

const (
	defaultHTTPTimeout  = 2 * time.Minute
	defaultPollInterval = 2 * time.Second
	defaultMaxAttempts  = 120
	requestIDHeader     = "X-Request-ID"
	errorSnippetLimit   = 2048
)

// Config captures the backend connection and polling budget.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	PollInterval time.Duration
	MaxAttempts  int
}

// ProgressFunc observes job snapshots after every transition or poll.
type ProgressFunc func(Job)

// Client wraps the analysis backend HTTP API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	sleeper    func(time.Duration)
	progress   ProgressFunc
	now        func() time.Time
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSleeper overrides how poll waits are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithProgress registers an observer that receives a job snapshot after each
// poll and on every state change.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Client) {
		c.progress = fn
	}
}

// WithClock overrides the time source used for job timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient constructs a backend client.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logging.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "coachapi")
	return client
}

// BaseURL returns the normalized backend URL.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// PollBudget returns the longest time Await will wait before timing out.
func (c *Client) PollBudget() time.Duration {
	return c.cfg.PollInterval * time.Duration(c.cfg.MaxAttempts)
}

// Ping verifies the backend is reachable. Any HTTP response below 500 counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrBackend, "coachapi", "ping", "backend unreachable", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusInternalServerError {
		return services.Wrap(services.ErrBackend, "coachapi", "ping", fmt.Sprintf("backend returned %d", resp.StatusCode), nil)
	}
	return nil
}

// statusError reports a non-2xx response from a JSON endpoint.
type statusError struct {
	Prefix     string
	StatusCode int
	Body       string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s error %d", e.Prefix, e.StatusCode)
}

func (e *statusError) Unwrap() error { return services.ErrBackend }

func (c *Client) endpoint(path string) (string, error) {
	if c.cfg.BaseURL == "" {
		return "", services.Wrap(services.ErrConfiguration, "coachapi", "build url", "backend url not configured", nil)
	}
	full, err := url.JoinPath(c.cfg.BaseURL, path)
	if err != nil {
		return "", fmt.Errorf("coachapi: build url: %w", err)
	}
	return full, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	endpoint, err := c.endpoint(path)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("coachapi: new request: %w", err)
	}
	req.Header.Set(requestIDHeader, requestIDFor(ctx))
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// postJSON sends payload and decodes a 2xx response into target.
func (c *Client) postJSON(ctx context.Context, path, errPrefix string, payload, target any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("coachapi: encode body: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.transportError(ctx, path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return services.Wrap(services.ErrBackend, "coachapi", path, "read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{Prefix: errPrefix, StatusCode: resp.StatusCode, Body: snippet(body)}
	}
	if err := json.Unmarshal(body, target); err != nil {
		return services.Wrap(services.ErrBackend, "coachapi", path, "decode response", err)
	}
	return nil
}

func (c *Client) transportError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return services.Wrap(services.ErrBackend, "coachapi", op, "request failed", err)
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) notify(job *Job) {
	if c.progress != nil {
		c.progress(job.Snapshot())
	}
}

func requestIDFor(ctx context.Context) string {
	if id, ok := services.RequestIDFromContext(ctx); ok {
		return id
	}
	return uuid.NewString()
}

// EnsureRequestID attaches a fresh correlation id to ctx unless one exists.
func EnsureRequestID(ctx context.Context) context.Context {
	if _, ok := services.RequestIDFromContext(ctx); ok {
		return ctx
	}
	return services.WithRequestID(ctx, uuid.NewString())
}

// snippet returns the trimmed body, cut to errorSnippetLimit bytes on a rune
// boundary with a trailing ellipsis when it is longer.
func snippet(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= errorSnippetLimit {
		return text
	}
	cut := errorSnippetLimit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "…"
}

var errMissingJobID = errors.New("response did not include a jobId")
