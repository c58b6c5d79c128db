// Package common provides shared types and utilities used across the digwebs framework.
package common

// Next runs the remainder of the middleware chain and returns its result.
// A middleware may call it zero, one or several times.
type Next func() (Result, error)

// MiddlewareFunc is a chain participant. It receives the request context and a
// continuation that invokes the next middleware. Logic placed before the call to
// next is pre-processing, logic after it is post-processing, and not calling next
// at all short-circuits the chain.
type MiddlewareFunc func(c *Context, next Next) (Result, error)

// Middleware pairs a MiddlewareFunc with the priority used to order it in the chain.
// Lower priorities run first.
type Middleware struct {
	Name     string         // Used in logs only
	Priority int            // Ascending execution order
	Handler  MiddlewareFunc // The chain participant
}
