package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Suhaibinator/digwebs/pkg/common"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testUser struct {
	ID   string
	Name string
}

func lookupToken(token string) (*testUser, string, error) {
	if token != "valid-token" {
		return nil, "", errors.New("invalid token")
	}
	return &testUser{ID: "u1", Name: "Alice"}, "u1", nil
}

// TestBearerTokenMiddleware tests bearer authentication outcomes
func TestBearerTokenMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		header string
		ok     bool
	}{
		{"valid", "Bearer valid-token", true},
		{"wrong token", "Bearer nope", false},
		{"missing", "", false},
		{"wrong scheme", "Basic dXNlcjpwYXNz", false},
		{"empty token", "Bearer ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			mw := NewBearerTokenMiddleware(lookupToken, zap.New(core))

			r := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			c := newContextFromRequest(r)

			called := false
			_, err := mw.Handler(c, terminal(&called, "secret"))
			if called != tt.ok {
				t.Errorf("Expected next called %v, got %v", tt.ok, called)
			}
			if tt.ok {
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				user := GetUser[testUser](c)
				if user == nil || user.Name != "Alice" {
					t.Errorf("Expected user Alice, got %v", user)
				}
				if id, _ := c.Get(UserIDKey); id != "u1" {
					t.Errorf("Expected user ID %q, got %v", "u1", id)
				}
				return
			}

			if common.StatusFromError(err) != http.StatusUnauthorized {
				t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, common.StatusFromError(err))
			}
			if c.Response.Header("WWW-Authenticate") != "Bearer" {
				t.Errorf("Expected WWW-Authenticate header, got %q", c.Response.Header("WWW-Authenticate"))
			}
			if logs.FilterMessage("Authentication failed").Len() != 1 {
				t.Error("Expected an authentication failure to be logged")
			}
		})
	}
}

// TestAPIKeyMiddleware tests header and query parameter keys
func TestAPIKeyMiddleware(t *testing.T) {
	lookup := func(key string) (*testUser, string, error) {
		if key != "k1" {
			return nil, "", errors.New("unknown key")
		}
		return &testUser{ID: "svc"}, "svc", nil
	}
	mw := NewAPIKeyMiddleware(lookup, "X-API-Key", "api_key", nil)

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-API-Key", "k1")
	called := false
	if _, err := mw.Handler(newContextFromRequest(r), terminal(&called, "")); err != nil || !called {
		t.Errorf("Expected header key to authenticate, got %v", err)
	}

	called = false
	if _, err := mw.Handler(newTestContext("GET", "/?api_key=k1", nil), terminal(&called, "")); err != nil || !called {
		t.Errorf("Expected query key to authenticate, got %v", err)
	}

	called = false
	_, err := mw.Handler(newTestContext("GET", "/?api_key=bad", nil), terminal(&called, ""))
	if called || common.StatusFromError(err) != http.StatusUnauthorized {
		t.Errorf("Expected 401 for a bad key, got %v", err)
	}
}

// TestGetUserWrongType tests that GetUser does not return users of another type
func TestGetUserWrongType(t *testing.T) {
	c := newTestContext("GET", "/", nil)
	c.Set(UserKey, &testUser{ID: "x"})

	if user := GetUser[string](c); user != nil {
		t.Errorf("Expected nil user, got %v", user)
	}
}
