package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is matched by every not-found HTTPError via errors.Is.
var ErrNotFound = errors.New("not found")

// HTTPError represents an HTTP error with a status code and message.
// Handlers and middlewares return it to end the request with a specific non-2xx status.
// The dispatcher renders it as a minimal HTML page naming the status.
type HTTPError struct {
	StatusCode int    // HTTP status code (e.g., 400, 404, 500)
	Message    string // Reason phrase used in the status line and body
}

// Error implements the error interface.
// It returns a string representation of the HTTP error in the format "status: message".
func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// Is makes errors.Is(err, ErrNotFound) true for 404 errors.
func (e *HTTPError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Status returns the status line, e.g. "404 Not Found".
func (e *HTTPError) Status() string {
	return fmt.Sprintf("%d %s", e.StatusCode, e.Message)
}

// NewHTTPError creates a new HTTPError with the specified status code and message.
// An empty message is replaced by the standard reason phrase.
func NewHTTPError(statusCode int, message string) *HTTPError {
	if message == "" {
		message = http.StatusText(statusCode)
	}
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
	}
}

// NotFound returns a 404 error.
func NotFound() *HTTPError {
	return NewHTTPError(http.StatusNotFound, "")
}

// BadRequest returns a 400 error with message, or the standard reason phrase if it is empty.
func BadRequest(message string) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message)
}

// Unauthorized returns a 401 error.
func Unauthorized() *HTTPError {
	return NewHTTPError(http.StatusUnauthorized, "")
}

// Forbidden returns a 403 error.
func Forbidden() *HTTPError {
	return NewHTTPError(http.StatusForbidden, "")
}

// InternalError returns a 500 error.
func InternalError() *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, "")
}

// RedirectError asks the dispatcher to redirect the client.
// It is a control-flow signal, not a failure.
type RedirectError struct {
	StatusCode int
	Location   string
}

// Error implements the error interface.
func (e *RedirectError) Error() string {
	return fmt.Sprintf("%d %s, %s", e.StatusCode, http.StatusText(e.StatusCode), e.Location)
}

// Status returns the status line, e.g. "302 Found".
func (e *RedirectError) Status() string {
	return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Redirect returns a 301 Moved Permanently signal.
func Redirect(location string) *RedirectError {
	return &RedirectError{StatusCode: http.StatusMovedPermanently, Location: location}
}

// Found returns a 302 Found signal.
func Found(location string) *RedirectError {
	return &RedirectError{StatusCode: http.StatusFound, Location: location}
}

// SeeOther returns a 303 See Other signal.
func SeeOther(location string) *RedirectError {
	return &RedirectError{StatusCode: http.StatusSeeOther, Location: location}
}

// TemporaryRedirect returns a 307 Temporary Redirect signal.
func TemporaryRedirect(location string) *RedirectError {
	return &RedirectError{StatusCode: http.StatusTemporaryRedirect, Location: location}
}

// PanicError wraps a value recovered from a panic during dispatch.
type PanicError struct {
	Value any
	Stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// StatusFromError returns the status code the dispatcher will answer with for err.
func StatusFromError(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	var redirect *RedirectError
	if errors.As(err, &redirect) {
		return redirect.StatusCode
	}
	return http.StatusInternalServerError
}
