package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Suhaibinator/digwebs/pkg/common"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLoggingLevels tests that the log level follows the response status
func TestLoggingLevels(t *testing.T) {
	tests := []struct {
		name    string
		next    common.Next
		level   zapcore.Level
		message string
		status  int64
	}{
		{"ok", func() (common.Result, error) { return common.Text("ok"), nil }, zapcore.DebugLevel, "Request", 200},
		{"not found", failing(common.NotFound()), zapcore.WarnLevel, "Client error", 404},
		{"failure", failing(errors.New("boom")), zapcore.ErrorLevel, "Server error", 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			mw := Logging(zap.New(core))

			c := newTestContext("GET", "/users/1", nil)
			_, _ = mw.Handler(c, tt.next)

			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("Expected 1 log entry, got %d", len(entries))
			}
			entry := entries[0]
			if entry.Level != tt.level {
				t.Errorf("Expected level %s, got %s", tt.level, entry.Level)
			}
			if entry.Message != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, entry.Message)
			}
			fields := entry.ContextMap()
			if fields["status"] != tt.status {
				t.Errorf("Expected status %d, got %v", tt.status, fields["status"])
			}
			if fields["path"] != "/users/1" {
				t.Errorf("Expected path %q, got %v", "/users/1", fields["path"])
			}
		})
	}
}

// TestLoggingPassesThrough tests that the logging middleware returns the inner result and error
func TestLoggingPassesThrough(t *testing.T) {
	mw := Logging(nil)
	c := newTestContext("GET", "/", nil)

	called := false
	res, err := mw.Handler(c, terminal(&called, "hello"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !called || res.Text() != "hello" {
		t.Errorf("Expected inner result %q, got %q", "hello", res.Text())
	}

	want := common.Found("/login")
	if _, err := mw.Handler(c, failing(want)); err != want {
		t.Errorf("Expected the redirect signal to pass through, got %v", err)
	}
}

// TestLoggingIncludesTraceID tests that the trace ID is the first logged field
func TestLoggingIncludesTraceID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	chain := common.NewMiddlewareChain(Logging(zap.New(core)), TraceMiddleware()).Sorted()

	c := newTestContext("GET", "/", nil)
	if _, err := chain.Dispatch(c); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 log entry, got %d", len(entries))
	}
	if entries[0].Context[0].Key != "trace_id" {
		t.Errorf("Expected first field to be trace_id, got %s", entries[0].Context[0].Key)
	}
	if entries[0].Context[0].String != GetTraceID(c) {
		t.Errorf("Expected trace ID %q, got %q", GetTraceID(c), entries[0].Context[0].String)
	}
}

// TestCORS tests CORS headers and preflight handling
func TestCORS(t *testing.T) {
	mw := CORS([]string{"https://a.example", "https://b.example"}, []string{"GET", "POST"}, []string{"Content-Type"})

	c := newTestContext("GET", "/", nil)
	called := false
	if _, err := mw.Handler(c, terminal(&called, "ok")); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !called {
		t.Error("Expected next to be called for a GET request")
	}
	if got := c.Response.Header("access-control-allow-origin"); got != "https://a.example, https://b.example" {
		t.Errorf("Expected origins header, got %q", got)
	}
	if got := c.Response.Header("Access-Control-Allow-Methods"); got != "GET, POST" {
		t.Errorf("Expected methods header %q, got %q", "GET, POST", got)
	}

	c = newTestContext("OPTIONS", "/", nil)
	called = false
	res, err := mw.Handler(c, terminal(&called, "ok"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if called {
		t.Error("Expected preflight request to short-circuit the chain")
	}
	if res.Kind() != common.KindEmpty {
		t.Errorf("Expected empty result, got %s", res.Kind())
	}
	if c.Response.StatusCode() != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, c.Response.StatusCode())
	}
}

// TestMaxBodySize tests body size limiting for declared and streamed bodies
func TestMaxBodySize(t *testing.T) {
	mw := MaxBodySize(4)

	// Declared length over the limit is rejected before the chain continues
	c := newTestContext("POST", "/", strings.NewReader("too long"))
	called := false
	_, err := mw.Handler(c, terminal(&called, "ok"))
	var httpErr *common.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413 error, got %v", err)
	}
	if called {
		t.Error("Expected next not to be called")
	}

	// Unknown length is cut off while reading
	r := httptest.NewRequest("POST", "/", strings.NewReader("streamed body"))
	r.ContentLength = -1
	c = newContextFromRequest(r)
	_, err = mw.Handler(c, func() (common.Result, error) {
		_, err := c.Request.Body()
		return common.Empty(), err
	})
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413 error while reading, got %v", err)
	}

	// Small bodies pass
	c = newTestContext("POST", "/", strings.NewReader("ok"))
	res, err := mw.Handler(c, func() (common.Result, error) {
		body, err := c.Request.Body()
		return common.Text(string(body)), err
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.Text() != "ok" {
		t.Errorf("Expected body %q, got %q", "ok", res.Text())
	}
}

// TestDefaultPriorities tests that the built-in middlewares sort into a sensible order
func TestDefaultPriorities(t *testing.T) {
	chain := common.NewMiddlewareChain(
		NewBearerTokenMiddleware(func(string) (*string, string, error) { return nil, "", nil }, nil),
		RateLimit(nil, nil, nil),
		MaxBodySize(1),
		CORS(nil, nil, nil),
		Logging(nil),
		TraceMiddleware(),
		ClientIPMiddleware(nil),
	).Sorted()

	expected := []string{"client_ip", "trace", "logging", "cors", "max_body_size", "ratelimit", "auth"}
	for i, mw := range chain {
		if mw.Name != expected[i] {
			t.Errorf("Expected middleware %d to be %q, got %q", i, expected[i], mw.Name)
		}
	}

	moved := WithPriority(Logging(nil), 1)
	if moved.Priority != 1 {
		t.Errorf("Expected priority %d, got %d", 1, moved.Priority)
	}
}
