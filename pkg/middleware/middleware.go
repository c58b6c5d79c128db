// Package middleware provides a collection of chain middlewares for the digwebs framework.
// Each constructor returns a common.Middleware with a default priority; set Priority on the
// returned value to move it within the chain.
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/Suhaibinator/digwebs/pkg/common"
	"go.uber.org/zap"
)

// Default priorities. Every default sorts before the router (priority 10000).
// Authentication runs before rate limiting so the "user" strategy sees the user.
const (
	PriorityClientIP    = 100
	PriorityTrace       = 200
	PriorityLogging     = 300
	PriorityCORS        = 500
	PriorityMaxBodySize = 600
	PriorityAuth        = 650
	PriorityRateLimit   = 700
)

// Use the Middleware type from the common package
type Middleware = common.Middleware

// WithPriority returns a copy of mw with the given priority.
func WithPriority(mw Middleware, priority int) Middleware {
	mw.Priority = priority
	return mw
}

// Logging is a middleware that logs requests
func Logging(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Middleware{
		Name:     "logging",
		Priority: PriorityLogging,
		Handler: func(c *common.Context, next common.Next) (common.Result, error) {
			start := time.Now()
			method := c.Request.Method()
			path := c.Request.Path()

			// Call the next middleware
			res, err := next()

			// Calculate duration
			duration := time.Since(start)

			status := c.Response.StatusCode()
			if err != nil {
				status = common.StatusFromError(err)
			}

			fields := []zap.Field{
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("status", status),
				zap.Duration("duration", duration),
			}
			if traceID := GetTraceID(c); traceID != "" {
				fields = append([]zap.Field{zap.String("trace_id", traceID)}, fields...)
			}

			// Use appropriate log level based on status code and duration
			switch {
			case status >= 500:
				// Server errors at Error level
				logger.Error("Server error", append(fields, zap.String("remote_addr", c.Request.RemoteAddr()))...)
			case status >= 400:
				// Client errors at Warn level
				logger.Warn("Client error", fields...)
			case duration > 1*time.Second:
				logger.Warn("Slow request", fields...)
			default:
				// Normal requests at Debug level to avoid log spam
				logger.Debug("Request", fields...)
			}

			return res, err
		},
	}
}

// MaxBodySize is a middleware that limits the size of the request body.
// Reading past the limit fails, which surfaces as a 413 from ParseBody.
func MaxBodySize(maxSize int64) Middleware {
	return Middleware{
		Name:     "max_body_size",
		Priority: PriorityMaxBodySize,
		Handler: func(c *common.Context, next common.Next) (common.Result, error) {
			raw := c.Request.Raw()
			if raw.ContentLength > maxSize {
				return common.Empty(), common.NewHTTPError(http.StatusRequestEntityTooLarge, "")
			}
			if raw.Body != nil {
				raw.Body = http.MaxBytesReader(nil, raw.Body, maxSize)
			}
			return next()
		},
	}
}

// CORS is a middleware that adds CORS headers to the response.
// Preflight OPTIONS requests are answered without running the rest of the chain.
func CORS(origins []string, methods []string, headers []string) Middleware {
	return Middleware{
		Name:     "cors",
		Priority: PriorityCORS,
		Handler: func(c *common.Context, next common.Next) (common.Result, error) {
			// Set CORS headers
			if len(origins) > 0 {
				c.Response.SetHeader("Access-Control-Allow-Origin", strings.Join(origins, ", "))
			}
			if len(methods) > 0 {
				c.Response.SetHeader("Access-Control-Allow-Methods", strings.Join(methods, ", "))
			}
			if len(headers) > 0 {
				c.Response.SetHeader("Access-Control-Allow-Headers", strings.Join(headers, ", "))
			}

			// Handle preflight requests
			if c.Request.Method() == http.MethodOptions {
				return common.Empty(), nil
			}

			return next()
		},
	}
}
