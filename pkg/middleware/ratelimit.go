package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Suhaibinator/digwebs/pkg/common"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Unique identifier for this rate limit bucket.
	// Middlewares sharing a BucketName and limiter share the same counters.
	BucketName string

	// Maximum number of requests allowed in the time window
	Limit int

	// Time window for the rate limit (e.g., 1 minute, 1 hour)
	Window time.Duration

	// Strategy for identifying clients:
	// - "ip": Use the client IP address
	// - "user": Use the authenticated user stored by an auth middleware
	// - "custom": Use KeyExtractor
	Strategy string

	// Custom key extractor function (used when Strategy is "custom")
	KeyExtractor func(*common.Context) (string, error)
}

// RateLimiter defines the interface for rate limiting algorithms
type RateLimiter interface {
	// Allow checks if a request is allowed based on the key and rate limit config.
	// It also returns the number of remaining requests and the time until the window resets.
	Allow(key string, limit int, window time.Duration) (bool, int, time.Duration)
}

// systemClock is the wall clock used by UberRateLimiter outside tests
type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// bucket is the fixed window of a single key. pacer is set only for a window that follows
// an exhausted one.
type bucket struct {
	start time.Time
	count int
	pacer ratelimit.Limiter
}

// UberRateLimiter implements RateLimiter with a fixed-window counter per key. Requests
// within the limit are admitted immediately. When a key used up its whole previous window,
// the requests of the next window are paced by Uber's leaky-bucket limiter, one every
// window/limit, so a client cannot land two full bursts around a window boundary.
type UberRateLimiter struct {
	mu      sync.Mutex
	clock   ratelimit.Clock
	buckets map[string]*bucket
}

// NewUberRateLimiter creates a new rate limiter using Uber's ratelimit library
func NewUberRateLimiter() *UberRateLimiter {
	return newUberRateLimiter(systemClock{})
}

func newUberRateLimiter(clock ratelimit.Clock) *UberRateLimiter {
	return &UberRateLimiter{
		clock:   clock,
		buckets: make(map[string]*bucket),
	}
}

// Allow checks if a request is allowed based on the key and rate limit config.
// A non-positive limit is treated as 1 and a non-positive window as one second.
func (u *UberRateLimiter) Allow(key string, limit int, window time.Duration) (bool, int, time.Duration) {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Second
	}

	u.mu.Lock()
	now := u.clock.Now()
	b, ok := u.buckets[key]
	if !ok {
		b = &bucket{start: now}
		u.buckets[key] = b
	} else if now.Sub(b.start) >= window {
		// Start a new window, paced if the previous one was used up
		b.pacer = nil
		if b.count >= limit {
			b.pacer = ratelimit.New(limit, ratelimit.Per(window), ratelimit.WithClock(u.clock), ratelimit.WithoutSlack)
		}
		b.start = now
		b.count = 0
	}

	reset := b.start.Add(window).Sub(now)
	if b.count >= limit {
		u.mu.Unlock()
		return false, 0, reset
	}
	b.count++
	remaining := limit - b.count
	pacer := b.pacer
	u.mu.Unlock()

	// Wait for the pacer outside the lock so other keys are not blocked
	if pacer != nil {
		pacer.Take()
	}

	return true, remaining, reset
}

// RateLimit creates a middleware that enforces rate limits. Every response carries the
// X-RateLimit headers; a request over the limit gets a 429 with Retry-After.
func RateLimit(config *RateLimitConfig, limiter RateLimiter, logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Middleware{
		Name:     "ratelimit",
		Priority: PriorityRateLimit,
		Handler: func(c *common.Context, next common.Next) (common.Result, error) {
			// Skip rate limiting if config is nil
			if config == nil || limiter == nil {
				return next()
			}

			// Extract key based on strategy
			var key string
			switch config.Strategy {
			case "user":
				key = extractUser(c)
				// If no user is found, fall back to IP
				if key == "" {
					key = ClientIP(c)
				}
			case "custom":
				if config.KeyExtractor == nil {
					key = ClientIP(c)
					break
				}
				var err error
				key, err = config.KeyExtractor(c)
				if err != nil {
					logger.Error("Failed to extract rate limit key",
						zap.Error(err),
						zap.String("method", c.Request.Method()),
						zap.String("path", c.Request.Path()),
					)
					return common.Empty(), common.InternalError()
				}
			default:
				key = ClientIP(c)
			}

			// Combine bucket name and key to create a unique identifier
			bucketKey := config.BucketName + ":" + key

			allowed, remaining, reset := limiter.Allow(bucketKey, config.Limit, config.Window)

			c.Response.SetHeader("X-RateLimit-Limit", strconv.Itoa(config.Limit))
			c.Response.SetHeader("X-RateLimit-Remaining", strconv.Itoa(remaining))
			c.Response.SetHeader("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(reset).Unix(), 10))

			if !allowed {
				c.Response.SetHeader("Retry-After", strconv.FormatInt(int64(reset.Seconds()), 10))

				logger.Warn("Rate limit exceeded",
					zap.String("method", c.Request.Method()),
					zap.String("path", c.Request.Path()),
					zap.String("key", key),
					zap.Int("limit", config.Limit),
				)
				return common.Empty(), common.NewHTTPError(http.StatusTooManyRequests, "")
			}

			return next()
		},
	}
}

// extractUser returns the ID of the user stored by an auth middleware, or "".
func extractUser(c *common.Context) string {
	if id, ok := c.Get(UserIDKey); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
