package apiclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	c := New(Config{Name: "Test", BaseURL: "https://api.example.com/", APIKey: "k"})

	assert.Equal(t, "https://api.example.com", c.baseURL)
	assert.Equal(t, defaultMaxAttempts, c.maxAttempts)
	assert.Equal(t, defaultTimeout, c.httpClient.Timeout)
	assert.NotNil(t, c.rateLimiter)
	assert.False(t, c.debug)

	c.SetDebug(true)
	assert.True(t, c.debug)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
	}
}

func TestDo_SendsHeadersAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/things", r.URL.Path)
		assert.Equal(t, "x", r.URL.Query().Get("q"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"a":1}`, string(body))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := New(Config{Name: "Test", BaseURL: server.URL, APIKey: "secret"})
	resp, err := c.Do(context.Background(), Request{
		Method:      http.MethodPost,
		Path:        "/v1/things",
		Query:       map[string][]string{"q": {"x"}},
		Body:        []byte(`{"a":1}`),
		ContentType: "application/json",
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, `{"ok":true}`, string(resp.Body))
}

func TestDo_RetriesServerErrors(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "payload", string(body))
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("done"))
	}))
	defer server.Close()

	c := New(Config{Name: "Test", BaseURL: server.URL})
	resp, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/", Body: []byte("payload"), Retry: true})

	require.NoError(t, err)
	assert.Equal(t, "done", string(resp.Body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestDo_NoRetryWithoutFlag(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("down"))
	}))
	defer server.Close()

	c := New(Config{Name: "Test", BaseURL: server.URL})
	resp, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/"})

	assert.Nil(t, resp)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, "down", statusErr.Body)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestDo_ClientErrorsAreReturned(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := New(Config{Name: "Test", BaseURL: server.URL})
	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/", Retry: true})

	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestDo_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	c := New(Config{Name: "Test", BaseURL: server.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/", Retry: true})
	assert.Nil(t, resp)
	assert.Error(t, err)
}

func TestDo_InvalidURL(t *testing.T) {
	c := New(Config{Name: "Test", BaseURL: "://invalid-url"})
	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/"})

	assert.Nil(t, resp)
	assert.Error(t, err)
}

func TestDebugLog(t *testing.T) {
	c := New(Config{Name: "Test"})
	c.debugLog("quiet %s", "arg")
	c.SetDebug(true)
	c.debugLog("loud %s", "arg")
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", maxErrorBodyBytes+10)
	assert.Len(t, truncate([]byte(long)), maxErrorBodyBytes)
	assert.Equal(t, "short", ErrorBody(&Response{Body: []byte("short")}))
}
