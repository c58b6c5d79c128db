package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Suhaibinator/digwebs/pkg/codec"
	"github.com/Suhaibinator/digwebs/pkg/common"
	"github.com/Suhaibinator/digwebs/pkg/router"
)

// ViewFunc is a handler that produces a template model.
type ViewFunc func(c *common.Context, args ...string) (map[string]any, error)

// View renders the model returned by fn with the named template.
func View(name string, fn ViewFunc) router.Handler {
	return DynamicView(func(*common.Context) string { return name }, fn)
}

// DynamicView is View with the template name chosen per request.
func DynamicView(name func(c *common.Context) string, fn ViewFunc) router.Handler {
	return func(c *common.Context, args ...string) (common.Result, error) {
		model, err := fn(c, args...)
		if err != nil {
			return common.Empty(), err
		}
		return common.Render(name(c), model), nil
	}
}

// APIError is a failure reported to API clients in the JSON body
// {"error": ..., "data": ..., "message": ...}.
type APIError struct {
	Err     string `json:"error"`
	Data    string `json:"data"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err, e.Message)
}

// NewAPIError creates an APIError.
func NewAPIError(err, data, message string) *APIError {
	return &APIError{Err: err, Data: data, Message: message}
}

// APIValueError reports an invalid input value; data names the field.
func APIValueError(field, message string) *APIError {
	return NewAPIError("value:invalid", field, message)
}

// APIResourceNotFoundError reports a missing resource; data names the resource.
func APIResourceNotFoundError(resource, message string) *APIError {
	return NewAPIError("value:notfound", resource, message)
}

// APIPermissionError reports a forbidden operation.
func APIPermissionError(message string) *APIError {
	return NewAPIError("permission:forbidden", "permission", message)
}

// APIFunc is a handler whose return value is sent as JSON.
type APIFunc func(c *common.Context, args ...string) (any, error)

// API encodes the value returned by fn as JSON with Content-Type application/json.
// An *APIError is encoded as the error body; any other error except redirect and
// HTTP error signals is reported as an "internalerror" body naming the error type.
func API(fn APIFunc) router.Handler {
	return func(c *common.Context, args ...string) (common.Result, error) {
		v, err := fn(c, args...)
		if err != nil {
			if isSignal(err) {
				return common.Empty(), err
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				apiErr = NewAPIError("internalerror", fmt.Sprintf("%T", err), err.Error())
			}
			v = apiErr
		}

		body, err := json.Marshal(v)
		if err != nil {
			return common.Empty(), err
		}
		c.Response.SetContentType("application/json")
		return common.Bytes(body), nil
	}
}

// isSignal reports whether err is a redirect or HTTP error for the dispatcher.
func isSignal(err error) bool {
	var redirect *common.RedirectError
	var httpErr *common.HTTPError
	return errors.As(err, &redirect) || errors.As(err, &httpErr)
}

// GenericHandler is a typed handler: it receives the decoded request body.
type GenericHandler[T any, U any] func(c *common.Context, req T, args ...string) (U, error)

// Generic decodes the request body with cdc, calls fn and encodes its response with cdc.
// A body that cannot be decoded is a 400. The body is read through Request.Body, so it
// decodes the same bytes an earlier middleware may already have read.
func Generic[T any, U any](cdc codec.Codec[T, U], fn GenericHandler[T, U]) router.Handler {
	return func(c *common.Context, args ...string) (common.Result, error) {
		body, err := c.Request.Body()
		if err != nil {
			return common.Empty(), err
		}
		raw := c.Request.Raw().WithContext(c.Context())
		raw.Body = http.NoBody
		if len(body) > 0 {
			raw.Body = io.NopCloser(bytes.NewReader(body))
		}
		raw.ContentLength = int64(len(body))

		req, err := cdc.Decode(raw)
		if err != nil {
			return common.Empty(), common.BadRequest("Failed to decode request")
		}

		resp, err := fn(c, req, args...)
		if err != nil {
			return common.Empty(), err
		}

		body, err = cdc.Encode(resp)
		if err != nil {
			return common.Empty(), fmt.Errorf("encode response: %w", err)
		}
		c.Response.SetContentType(cdc.ContentType())
		return common.Bytes(body), nil
	}
}
