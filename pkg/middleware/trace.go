package middleware

import (
	"github.com/Suhaibinator/digwebs/pkg/common"
	"github.com/google/uuid"
)

// TraceHeader carries the trace ID on requests and responses
const TraceHeader = "X-Request-ID"

type traceIDKey struct{}

// TraceIDKey is the context value key the trace ID is stored under
var TraceIDKey = traceIDKey{}

// TraceMiddleware creates a middleware that assigns a trace ID to each request, stores it
// on the context and echoes it in the X-Request-ID response header. An incoming
// X-Request-ID is reused when it is a valid UUID.
func TraceMiddleware() Middleware {
	return Middleware{
		Name:     "trace",
		Priority: PriorityTrace,
		Handler: func(c *common.Context, next common.Next) (common.Result, error) {
			traceID := c.Request.Header(TraceHeader)
			if _, err := uuid.Parse(traceID); err != nil {
				traceID = uuid.New().String()
			}

			c.Set(TraceIDKey, traceID)
			c.Response.SetHeader(TraceHeader, traceID)

			return next()
		},
	}
}

// GetTraceID returns the trace ID stored on the context, or "" if there is none.
func GetTraceID(c *common.Context) string {
	if traceID, ok := c.Get(TraceIDKey); ok {
		if s, ok := traceID.(string); ok {
			return s
		}
	}
	return ""
}
