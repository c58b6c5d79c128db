package middleware

import (
	"errors"
	"strings"

	"github.com/Suhaibinator/digwebs/pkg/common"
	"go.uber.org/zap"
)

type userKey struct{}
type userIDKey struct{}

// UserKey is the context value key the authenticated user is stored under.
var UserKey = userKey{}

// UserIDKey is the context value key the authenticated user's ID is stored under.
// Rate limiting with the "user" strategy reads it.
var UserIDKey = userIDKey{}

// AuthProvider authenticates a request and returns the user it belongs to.
type AuthProvider[T any] interface {
	// Authenticate examines the request for credentials and returns the user, its ID and
	// nil on success, or an error if the request is not authenticated.
	Authenticate(c *common.Context) (*T, string, error)
}

// BearerTokenProvider provides Bearer Token Authentication.
// GetUser resolves a token to a user and its ID.
type BearerTokenProvider[T any] struct {
	GetUser func(token string) (*T, string, error)
}

// Authenticate extracts the token from the Authorization header and resolves it with GetUser.
func (p *BearerTokenProvider[T]) Authenticate(c *common.Context) (*T, string, error) {
	authHeader := c.Request.Header("Authorization")
	if authHeader == "" {
		return nil, "", errors.New("no authorization header")
	}

	// Check if the header starts with "Bearer "
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || token == "" {
		return nil, "", errors.New("invalid authorization header format")
	}

	return p.GetUser(token)
}

// APIKeyProvider provides API Key Authentication from a header or query parameter.
type APIKeyProvider[T any] struct {
	GetUser func(key string) (*T, string, error)
	Header  string // header name (e.g., "X-API-Key")
	Query   string // query parameter name (e.g., "api_key")
}

// Authenticate checks the configured header first and then the query parameter.
func (p *APIKeyProvider[T]) Authenticate(c *common.Context) (*T, string, error) {
	if p.Header != "" {
		if key := c.Request.Header(p.Header); key != "" {
			return p.GetUser(key)
		}
	}
	if p.Query != "" {
		if key := c.Request.Query().Get(p.Query); key != "" {
			return p.GetUser(key)
		}
	}
	return nil, "", errors.New("no API key found")
}

// Authentication is a middleware that authenticates every request with provider.
// On success the user and its ID are stored on the context; otherwise the request
// ends with 401 Unauthorized.
func Authentication[T any](provider AuthProvider[T], logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Middleware{
		Name:     "auth",
		Priority: PriorityAuth,
		Handler: func(c *common.Context, next common.Next) (common.Result, error) {
			user, id, err := provider.Authenticate(c)
			if err != nil || user == nil {
				logger.Warn("Authentication failed",
					zap.Error(err),
					zap.String("method", c.Request.Method()),
					zap.String("path", c.Request.Path()),
					zap.String("remote_addr", c.Request.RemoteAddr()),
				)
				c.Response.SetHeader("WWW-Authenticate", "Bearer")
				return common.Empty(), common.Unauthorized()
			}

			c.Set(UserKey, user)
			c.Set(UserIDKey, id)
			return next()
		},
	}
}

// NewBearerTokenMiddleware creates a middleware that uses Bearer Token Authentication.
func NewBearerTokenMiddleware[T any](getUser func(token string) (*T, string, error), logger *zap.Logger) Middleware {
	return Authentication[T](&BearerTokenProvider[T]{GetUser: getUser}, logger)
}

// NewAPIKeyMiddleware creates a middleware that uses API Key Authentication.
func NewAPIKeyMiddleware[T any](getUser func(key string) (*T, string, error), header, query string, logger *zap.Logger) Middleware {
	return Authentication[T](&APIKeyProvider[T]{GetUser: getUser, Header: header, Query: query}, logger)
}

// GetUser retrieves the authenticated user from the context.
// Returns nil if no user of type T is found.
func GetUser[T any](c *common.Context) *T {
	if user, ok := c.Get(UserKey); ok {
		if u, ok := user.(*T); ok {
			return u
		}
	}
	return nil
}
