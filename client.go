// Package morphogen is a Go client for the Morphogen multimodal
// generation API: token-streamed text plus single-shot image and mesh
// generation, with session, model-catalog, and account operations.
package morphogen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Default timeouts. The stream bounds match the backend's documented
// worst-case queueing (connect) and generation stall (inactivity) windows.
const (
	DefaultConnectTimeout    = 30 * time.Second
	DefaultInactivityTimeout = 90 * time.Second

	defaultUnaryTimeout = 120 * time.Second
)

// Client is a Morphogen API client. It is safe for concurrent use;
// each streaming call owns its own buffer and timers, so any number of
// streams may run concurrently without cross-session interference.
type Client struct {
	baseURL string
	apiKey  string

	// httpClient serves unary calls and carries an overall timeout.
	// streamClient serves streaming calls and must not: a healthy stream
	// may legitimately outlive any fixed deadline, so stream lifetime is
	// bounded by the connect and inactivity watchdogs instead.
	httpClient   *http.Client
	streamClient *http.Client

	connectTimeout    time.Duration
	inactivityTimeout time.Duration

	logger *slog.Logger

	catalog modelCatalog
}

// Option configures a Client created with NewClient.
type Option func(*Client)

// WithHTTPClient replaces the underlying client for unary calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithConnectTimeout bounds the time between dispatching a stream request
// and receiving the first byte of the response.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.connectTimeout = d
	}
}

// WithInactivityTimeout bounds the gap between successive chunks of an
// open stream. The bound restarts on every chunk.
func WithInactivityTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.inactivityTimeout = d
	}
}

// WithLogger attaches a logger for stream diagnostics (malformed
// fragments, discarded trailing bytes). The client is silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a Morphogen client for the given backend base URL
// (e.g. "https://api.morphogen.ai") and API key.
func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrInvalidAPIKey
	}
	if baseURL == "" {
		return nil, &ValidationError{Field: "base_url", Reason: "base URL is required", Err: ErrInvalidRequest}
	}

	c := &Client{
		baseURL:           strings.TrimRight(baseURL, "/"),
		apiKey:            apiKey,
		httpClient:        &http.Client{Timeout: defaultUnaryTimeout},
		streamClient:      &http.Client{},
		connectTimeout:    DefaultConnectTimeout,
		inactivityTimeout: DefaultInactivityTimeout,
		logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// newRequest creates an HTTP request for the Morphogen API.
func (c *Client) newRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("morphogen: failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// doJSON issues a unary request and decodes a JSON response into out
// (which may be nil for calls without a response body).
func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	req, err := c.newRequest(ctx, method, path, payload)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("morphogen: HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.errorFromResponse(resp)
	}

	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("morphogen: failed to parse response: %w", err)
	}

	return nil
}

// errorFromResponse drains a non-2xx response and builds a RequestError,
// extracting a structured detail message from the body when one exists.
func (c *Client) errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	reqErr := &RequestError{
		StatusCode: resp.StatusCode,
		Detail:     extractErrorDetail(body),
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		reqErr.Err = ErrInvalidAPIKey
	}
	return reqErr
}

// extractErrorDetail pulls a human-readable message out of an error body.
// The backend uses {"detail": ...}; {"error": ...} and {"message": ...}
// are accepted for intermediaries (proxies, gateways). Falls back to the
// raw body.
func extractErrorDetail(body []byte) string {
	for _, field := range []string{"detail", "error", "message"} {
		if v := gjson.GetBytes(body, field); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return strings.TrimSpace(string(body))
}
