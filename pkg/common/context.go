package common

import (
	"context"
	"net/http"

	"github.com/Suhaibinator/digwebs/pkg/codec"
)

// Application is the process-wide, read-only information shared by every request.
type Application struct {
	DocumentRoot string         // Root directory for static files
	Parsers      *codec.Parsers // Body parsers keyed by MIME type
}

// Context is the per-request bundle threaded through the middleware chain.
// A Context belongs to exactly one request and is cleared by Release when it ends.
type Context struct {
	Application *Application
	Request     *Request
	Response    *Response

	ctx      context.Context
	params   map[string]string
	values   map[any]any
	released bool
}

// NewContext creates a fresh context for r with a default Response.
func NewContext(app *Application, r *http.Request) *Context {
	var parsers *codec.Parsers
	if app != nil {
		parsers = app.Parsers
	}
	return &Context{
		Application: app,
		Request:     NewRequest(r, parsers),
		Response:    NewResponse(),
		ctx:         r.Context(),
	}
}

// Context returns the context.Context of the wire request.
// It returns context.Background after the Context has been released.
func (c *Context) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// Set stores a request-scoped value.
func (c *Context) Set(key, value any) {
	if c.released {
		return
	}
	if c.values == nil {
		c.values = make(map[any]any)
	}
	c.values[key] = value
}

// Get returns a value stored with Set.
func (c *Context) Get(key any) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// SetParams records the named route parameters captured for this request.
func (c *Context) SetParams(names, values []string) {
	if c.released {
		return
	}
	c.params = make(map[string]string, len(names))
	for i, name := range names {
		if i < len(values) {
			c.params[name] = values[i]
		}
	}
}

// Param returns a named route parameter, or "" if absent.
func (c *Context) Param(name string) string {
	return c.params[name]
}

// Params returns a copy of the named route parameters.
func (c *Context) Params() map[string]string {
	params := make(map[string]string, len(c.params))
	for k, v := range c.params {
		params[k] = v
	}
	return params
}

// Release drops every reference held by the context. It is called by the dispatcher
// on every exit path so no state survives into another request.
func (c *Context) Release() {
	c.Application = nil
	c.Request = nil
	c.Response = nil
	c.ctx = nil
	c.params = nil
	c.values = nil
	c.released = true
}

// Released reports whether Release has been called.
func (c *Context) Released() bool {
	return c.released
}
