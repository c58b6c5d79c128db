package web

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/Suhaibinator/digwebs/pkg/common"
	"github.com/Suhaibinator/digwebs/pkg/middleware"
	"go.uber.org/zap"
)

const (
	errorPagePrefix = "<html><body><h1>"
	errorPageSuffix = "</h1></body></html>"

	tracePagePrefix = `<html><body><h1>500 Internal Server Error</h1><div style="font-family:Monaco, Menlo, Consolas, 'Courier New', monospace;"><pre>`
	tracePageSuffix = `</pre></div></body></html>`
)

// ServeHTTP dispatches one request: it builds a fresh Context, runs the middleware chain,
// turns the result into the response body and writes status, headers and body. Redirect
// and HTTP error signals are answered here, and any other failure becomes a 500 page with
// the escaped trace. The Context is released on every exit path.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := a.Seal(); err != nil {
		a.logger.Error("Failed to start application", zap.Error(err))
		a.writeTrace(w, err)
		return
	}

	// First add to the wait group before checking shutdown status
	a.wg.Add(1)

	a.shutdownMu.RLock()
	isShutdown := a.shutdown
	a.shutdownMu.RUnlock()

	if isShutdown {
		a.wg.Done()
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}
	defer a.wg.Done()

	c := common.NewContext(a.application, r)
	defer c.Release()

	res, err := a.run(c)
	if closer, ok := res.Body().(io.Closer); ok {
		defer closer.Close()
	}

	var body io.Reader
	if err == nil {
		body, err = a.serialize(c, res)
	}
	if err != nil {
		a.handleError(w, c, err)
		return
	}

	writeHeaders(w, c.Response.HeaderList())
	w.WriteHeader(c.Response.StatusCode())
	if body == nil || c.Request.Method() == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, body); err != nil {
		a.logger.Warn("Failed to write response body", a.requestFields(c, zap.Error(err))...)
	}
}

// run dispatches the sorted chain, converting a panic into a *common.PanicError.
func (a *App) run(c *common.Context) (res common.Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			res = common.Empty()
			err = &common.PanicError{Value: rec, Stack: debug.Stack()}
		}
	}()
	return a.chain.Dispatch(c)
}

// serialize resolves a result into the response body. An empty result has no body.
func (a *App) serialize(c *common.Context, res common.Result) (io.Reader, error) {
	switch res.Kind() {
	case common.KindTemplate:
		if a.engine == nil {
			return nil, ErrNoTemplateEngine
		}
		// The handler keeps ownership of its model; render a merged copy
		t := res.Template()
		data := make(map[string]any, len(t.Model)+1)
		for k, v := range t.Model {
			data[k] = v
		}
		for _, cb := range a.callbacks {
			for k, v := range cb.fn(c) {
				data[k] = v
			}
		}
		data["ctx"] = c
		out, err := a.engine.Render(t.Name, data)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", t.Name, err)
		}
		return bytes.NewReader(out), nil
	case common.KindText:
		return strings.NewReader(res.Text()), nil
	case common.KindBytes:
		return res.Body(), nil
	default:
		return nil, nil
	}
}

// handleError is the single interception point for failures of a request.
func (a *App) handleError(w http.ResponseWriter, c *common.Context, err error) {
	var redirect *common.RedirectError
	if errors.As(err, &redirect) {
		c.Response.SetHeader("Location", redirect.Location)
		c.Response.UnsetHeader("Content-Length")
		writeHeaders(w, c.Response.HeaderList())
		w.WriteHeader(redirect.StatusCode)
		return
	}

	var httpErr *common.HTTPError
	if errors.As(err, &httpErr) {
		c.Response.UnsetHeader("Content-Length")
		writeHeaders(w, c.Response.HeaderList())
		w.WriteHeader(httpErr.StatusCode)
		_, _ = io.WriteString(w, errorPagePrefix+html.EscapeString(httpErr.Status())+errorPageSuffix)
		return
	}

	fields := a.requestFields(c, zap.Error(err))
	var panicErr *common.PanicError
	if errors.As(err, &panicErr) {
		fields = append(fields, zap.String("stack", string(panicErr.Stack)))
	}
	a.logger.Error("Uncaught failure", fields...)

	a.writeTrace(w, err)
}

// writeTrace answers with the 500 page showing the escaped trace of err.
func (a *App) writeTrace(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", common.DefaultContentType)
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = io.WriteString(w, tracePagePrefix+html.EscapeString(trace(err))+tracePageSuffix)
}

// trace describes err: the panic value and stack for recovered panics, otherwise one
// line per error in the wrap chain.
func trace(err error) string {
	var panicErr *common.PanicError
	if errors.As(err, &panicErr) {
		return panicErr.Error() + "\n\n" + string(panicErr.Stack)
	}

	var b strings.Builder
	for e := err; e != nil; e = errors.Unwrap(e) {
		fmt.Fprintf(&b, "%T: %s\n", e, e.Error())
	}
	return b.String()
}

// requestFields builds the log fields of the current request, trace ID first.
func (a *App) requestFields(c *common.Context, extra ...zap.Field) []zap.Field {
	fields := []zap.Field{
		zap.String("method", c.Request.Method()),
		zap.String("path", c.Request.Path()),
	}
	if traceID := middleware.GetTraceID(c); traceID != "" {
		fields = append([]zap.Field{zap.String("trace_id", traceID)}, fields...)
	}
	return append(fields, extra...)
}

// writeHeaders copies the response headers to w. Set-Cookie may repeat.
func writeHeaders(w http.ResponseWriter, headers []common.Header) {
	h := w.Header()
	for _, header := range headers {
		if header.Name == "Set-Cookie" {
			h.Add(header.Name, header.Value)
		} else {
			h.Set(header.Name, header.Value)
		}
	}
}
