// Package apiclient is the shared HTTP plumbing of the remote backend clients:
// bearer auth, client-side rate limiting, bounded retries with exponential backoff.
package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 3
	maxErrorBodyBytes  = 4096
	userAgent          = "MealDraft/1.0"
)

// Config configures a Client
type Config struct {
	Name          string // log prefix, e.g. "Catalogue"
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	RatePerSecond float64 // zero disables client-side limiting
	Burst         int
	MaxAttempts   int
}

// Client performs requests against one remote API
type Client struct {
	httpClient  *http.Client
	name        string
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	maxAttempts int
	debug       bool
}

// Request describes one API call. Body is resent on retries.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        []byte
	ContentType string
	Retry       bool
}

// Response is a completed call with its full body
type Response struct {
	StatusCode int
	Body       []byte
}

// StatusError is returned when all attempts ended with a retryable status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}

// New creates a Client from cfg
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 10
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		name:        cfg.Name,
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		rateLimiter: rate.NewLimiter(limit, burst),
		maxAttempts: attempts,
	}
}

// SetDebug enables or disables verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// Do executes req. Transport errors, 429 and 5xx responses are retried when req.Retry is set;
// any other response is returned to the caller as is.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	reqURL := c.baseURL + req.Path
	if len(req.Query) > 0 {
		reqURL += "?" + req.Query.Encode()
	}

	attempts := 1
	if req.Retry {
		attempts = c.maxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := sleepContext(ctx, exponentialBackoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := c.send(ctx, req, reqURL)
		if err != nil {
			log.Printf("[%s] %s %s failed (attempt %d): %v", c.name, req.Method, req.Path, attempt, err)
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		if retryable(resp.StatusCode) {
			log.Printf("[%s] %s %s status %d (attempt %d)", c.name, req.Method, req.Path, resp.StatusCode, attempt)
			lastErr = &StatusError{StatusCode: resp.StatusCode, Body: truncate(resp.Body)}
			continue
		}

		c.debugLog("%s %s -> %d (%d bytes)", req.Method, req.Path, resp.StatusCode, len(resp.Body))
		return resp, nil
	}

	return nil, lastErr
}

func (c *Client) send(ctx context.Context, req Request, reqURL string) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Accept", "application/json")
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

func (c *Client) debugLog(format string, args ...interface{}) {
	if c.debug {
		log.Printf("[%s] "+format, append([]interface{}{c.name}, args...)...)
	}
}

// ErrorBody returns a truncated response body for error messages
func ErrorBody(resp *Response) string {
	return truncate(resp.Body)
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// exponentialBackoff returns the wait before retry number attempt: 500ms, 1s, 2s, ...
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(body []byte) string {
	if len(body) > maxErrorBodyBytes {
		return string(body[:maxErrorBodyBytes])
	}
	return string(body)
}
