package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/Suhaibinator/digwebs/pkg/common"
	"github.com/google/uuid"
)

// TestTraceMiddleware tests that a trace ID is generated and echoed
func TestTraceMiddleware(t *testing.T) {
	c := newTestContext("GET", "/test", nil)

	var seen string
	_, err := TraceMiddleware().Handler(c, func() (common.Result, error) {
		seen = GetTraceID(c)
		return common.Empty(), nil
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err := uuid.Parse(seen); err != nil {
		t.Errorf("Expected a UUID trace ID, got %q", seen)
	}
	if got := c.Response.Header(TraceHeader); got != seen {
		t.Errorf("Expected %s header %q, got %q", TraceHeader, seen, got)
	}
}

// TestTraceMiddlewareReusesIncomingID tests that a valid incoming ID is kept
func TestTraceMiddlewareReusesIncomingID(t *testing.T) {
	incoming := uuid.New().String()

	r := httptest.NewRequest("GET", "/test", nil)
	r.Header.Set(TraceHeader, incoming)
	c := newContextFromRequest(r)

	called := false
	if _, err := TraceMiddleware().Handler(c, terminal(&called, "")); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := GetTraceID(c); got != incoming {
		t.Errorf("Expected trace ID %q, got %q", incoming, got)
	}

	// Arbitrary strings are replaced
	r = httptest.NewRequest("GET", "/test", nil)
	r.Header.Set(TraceHeader, "<script>")
	c = newContextFromRequest(r)
	if _, err := TraceMiddleware().Handler(c, terminal(&called, "")); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := GetTraceID(c); got == "<script>" {
		t.Error("Expected an invalid incoming trace ID to be replaced")
	}
}

// TestGetTraceIDMissing tests that GetTraceID returns "" without the middleware
func TestGetTraceIDMissing(t *testing.T) {
	c := newTestContext("GET", "/test", nil)
	if traceID := GetTraceID(c); traceID != "" {
		t.Errorf("Expected trace ID to be empty, got %q", traceID)
	}
}
