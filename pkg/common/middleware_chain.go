package common

import (
	"sort"
)

// MiddlewareChain represents an ordered chain of middleware
type MiddlewareChain []Middleware

// NewMiddlewareChain creates a new middleware chain
func NewMiddlewareChain(middlewares ...Middleware) MiddlewareChain {
	return middlewares
}

// Append adds middleware to the end of the chain
func (c MiddlewareChain) Append(middlewares ...Middleware) MiddlewareChain {
	return append(c, middlewares...)
}

// Prepend adds middleware to the beginning of the chain
func (c MiddlewareChain) Prepend(middlewares ...Middleware) MiddlewareChain {
	result := make(MiddlewareChain, len(middlewares)+len(c))
	copy(result, middlewares)
	copy(result[len(middlewares):], c)
	return result
}

// Sorted returns a copy of the chain ordered by ascending priority.
// Middlewares with equal priority keep their insertion order.
func (c MiddlewareChain) Sorted() MiddlewareChain {
	result := make(MiddlewareChain, len(c))
	copy(result, c)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority < result[j].Priority
	})
	return result
}

// Dispatch runs the chain against the given context, starting at the first middleware.
// The chain is used as-is; call Sorted first if it has not been ordered yet.
func (c MiddlewareChain) Dispatch(ctx *Context) (Result, error) {
	r := chainRunner{chain: c, ctx: ctx}
	return r.dispatch(0)
}

// chainRunner holds the per-request state needed to walk the chain.
type chainRunner struct {
	chain MiddlewareChain
	ctx   *Context
}

// dispatch invokes middleware i with a continuation bound to i+1.
// Past the end of the chain the continuation returns an empty result.
func (r *chainRunner) dispatch(i int) (Result, error) {
	if i >= len(r.chain) {
		return Empty(), nil
	}
	return r.chain[i].Handler(r.ctx, func() (Result, error) {
		return r.dispatch(i + 1)
	})
}
