// Package api provides the HTTP client for the VoxForm remote API: bearer
// auth injection, per-attempt trace identifiers, retry with exponential
// backoff, and session-expiry propagation.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voxform/voxform-go/clock"
	"github.com/voxform/voxform-go/credstore"
)

const (
	// TraceHeader carries the per-attempt trace identifier so retries are
	// distinguishable in server logs.
	TraceHeader = "X-Request-ID"

	defaultTimeout   = 30 * time.Second
	defaultRetryMax  = 3
	defaultBaseDelay = 1 * time.Second
)

// Config holds the dependencies and policy for a Client.
type Config struct {
	BaseURL     string
	Credentials credstore.Store

	// Clock drives backoff delays and trace timestamps. Defaults to the
	// system clock.
	Clock clock.Clock

	// HTTPClient is the underlying transport. Defaults to a plain
	// http.Client.
	HTTPClient *http.Client

	// Timeout is the per-attempt ceiling. Defaults to 30s. An attempt that
	// exceeds it counts as a network failure.
	Timeout time.Duration

	// RetryMax is the number of additional attempts after the first.
	// Defaults to 3; negative disables retries entirely.
	RetryMax int

	// RetryBaseDelay is the delay before the first retry; each subsequent
	// delay doubles. Defaults to 1s.
	RetryBaseDelay time.Duration

	// AtEntrySurface, when set and returning true, suppresses the
	// session-expiry signal on 401 (the caller is already on the login
	// surface, so redirecting again would loop). The credential store is
	// cleared either way.
	AtEntrySurface func() bool
}

// CallOptions tune a single call.
type CallOptions struct {
	// Timeout overrides the client's per-attempt ceiling when > 0.
	Timeout time.Duration

	// Retry overrides the per-method default: retries are on for
	// idempotent methods (GET, HEAD, PUT, DELETE) and off otherwise.
	Retry *bool
}

// Client executes logical remote calls against the VoxForm API.
type Client struct {
	baseURL   string
	hc        *http.Client
	creds     credstore.Store
	clock     clock.Clock
	timeout   time.Duration
	retryMax  int
	baseDelay time.Duration
	atEntry   func() bool

	mu      sync.Mutex
	expired []func()
}

// New creates a Client from cfg, applying defaults for unset fields.
func New(cfg Config) *Client {
	c := &Client{
		baseURL:   cfg.BaseURL,
		hc:        cfg.HTTPClient,
		creds:     cfg.Credentials,
		clock:     cfg.Clock,
		timeout:   cfg.Timeout,
		retryMax:  cfg.RetryMax,
		baseDelay: cfg.RetryBaseDelay,
		atEntry:   cfg.AtEntrySurface,
	}
	if c.hc == nil {
		c.hc = &http.Client{}
	}
	if c.clock == nil {
		c.clock = clock.System()
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.retryMax < 0 {
		c.retryMax = 0
	} else if c.retryMax == 0 {
		c.retryMax = defaultRetryMax
	}
	if c.baseDelay <= 0 {
		c.baseDelay = defaultBaseDelay
	}
	return c
}

// OnSessionExpired registers fn to be called when a 401 invalidates the
// session. Handlers fire exactly once per failed call, after the credential
// store has been cleared.
func (c *Client) OnSessionExpired(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expired = append(c.expired, fn)
}

// Get performs a GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out, nil)
}

// Post performs a POST with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out, nil)
}

// Put performs a PUT with a JSON body and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out, nil)
}

// Patch performs a PATCH with a JSON body and decodes the response into out.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, body, out, nil)
}

// Delete performs a DELETE and decodes the JSON response into out.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out, nil)
}

// Do executes one logical call: it encodes body as JSON when non-nil,
// attaches credentials and a fresh trace ID per attempt, retries transient
// failures with exponential backoff, and decodes the response into out when
// non-nil. The returned error is always a classified *Error (possibly
// wrapped) or nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts *CallOptions) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
	}

	timeout := c.timeout
	if opts != nil && opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	attempts := 1
	if c.retryPermitted(method, opts) {
		attempts += c.retryMax
	}

	var lastErr *Error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			// Backoff: 1s, 2s, 4s for the default base delay.
			delay := c.baseDelay << (attempt - 2)
			if err := c.clock.Sleep(ctx, delay); err != nil {
				return fmt.Errorf("%s %s: %w", method, path, err)
			}
		}

		traceID := c.newTraceID()
		slog.Debug("api request",
			"method", method,
			"url", c.baseURL+path,
			"attempt", attempt,
			"trace_id", traceID)

		apiErr := c.attempt(ctx, method, path, payload, out, timeout, traceID)
		if apiErr == nil {
			return nil
		}
		lastErr = apiErr

		if apiErr.Status == http.StatusUnauthorized {
			// Never retried; the session is gone.
			c.sessionExpired(ctx)
			break
		}
		if !apiErr.Retryable() {
			break
		}
		if attempt < attempts {
			slog.Debug("api request failed, will retry",
				"method", method,
				"url", c.baseURL+path,
				"attempt", attempt,
				"trace_id", traceID,
				"error", apiErr)
		}
	}

	return fmt.Errorf("%s %s: %w", method, path, lastErr)
}

// attempt performs a single request/response round trip.
func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, out any, timeout time.Duration, traceID string) *Error {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{NetworkError: true, Message: err.Error(), TraceID: traceID}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(TraceHeader, traceID)
	c.attachBearer(attemptCtx, req)

	resp, err := c.hc.Do(req)
	if err != nil {
		// No response received: offline, DNS failure, or timeout.
		return &Error{NetworkError: true, Message: err.Error(), TraceID: traceID}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &Error{Status: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err), TraceID: traceID}
		}
		return nil
	}

	return &Error{
		Status:  resp.StatusCode,
		Message: serverMessage(resp.Body),
		TraceID: traceID,
	}
}

func (c *Client) attachBearer(ctx context.Context, req *http.Request) {
	if c.creds == nil {
		return
	}
	token, ok, err := c.creds.Get(ctx, credstore.KeyToken)
	if err != nil {
		slog.Warn("failed to read session token", "error", err)
		return
	}
	if ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// sessionExpired clears stored credentials and fires the registered
// handlers, unless the caller is already on the unauthenticated entry
// surface (which would cause a redirect loop).
func (c *Client) sessionExpired(ctx context.Context) {
	if c.creds != nil {
		if err := c.creds.Delete(ctx, credstore.KeyToken); err != nil {
			slog.Warn("failed to clear session token", "error", err)
		}
		if err := c.creds.Delete(ctx, credstore.KeyUser); err != nil {
			slog.Warn("failed to clear cached user", "error", err)
		}
	}

	if c.atEntry != nil && c.atEntry() {
		return
	}

	c.mu.Lock()
	handlers := make([]func(), len(c.expired))
	copy(handlers, c.expired)
	c.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}

func (c *Client) retryPermitted(method string, opts *CallOptions) bool {
	if opts != nil && opts.Retry != nil {
		return *opts.Retry
	}
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// newTraceID builds a per-attempt identifier from a timestamp and a random
// suffix.
func (c *Client) newTraceID() string {
	return fmt.Sprintf("%d-%s", c.clock.Now().UnixMilli(), uuid.NewString()[:8])
}

// serverMessage extracts a human-readable message from a JSON error body.
func serverMessage(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 64*1024))
	if err != nil || len(body) == 0 {
		return ""
	}
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return string(bytes.TrimSpace(body))
}
