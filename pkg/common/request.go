package common

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/Suhaibinator/digwebs/pkg/codec"
)

// maxMemory bounds the in-memory part of multipart form parsing.
const maxMemory = 32 << 20

// Request is a read-only view over the incoming wire request.
type Request struct {
	raw     *http.Request
	parsers *codec.Parsers

	body     []byte
	bodyRead bool
	formErr  error
	formRead bool
}

// NewRequest wraps r. parsers may be nil, in which case bodies are returned raw.
func NewRequest(r *http.Request, parsers *codec.Parsers) *Request {
	return &Request{raw: r, parsers: parsers}
}

// Raw returns the underlying *http.Request.
func (r *Request) Raw() *http.Request {
	return r.raw
}

// Method returns the request method, e.g. "GET".
func (r *Request) Method() string {
	return r.raw.Method
}

// Path returns the unescaped request path.
func (r *Request) Path() string {
	return r.raw.URL.Path
}

// QueryString returns the raw query string without the leading '?'.
func (r *Request) QueryString() string {
	return r.raw.URL.RawQuery
}

// Query returns the parsed query string.
func (r *Request) Query() url.Values {
	return r.raw.URL.Query()
}

// Host returns the Host header.
func (r *Request) Host() string {
	return r.raw.Host
}

// RemoteAddr returns the network address of the client, or "0.0.0.0" if unknown.
func (r *Request) RemoteAddr() string {
	if r.raw.RemoteAddr == "" {
		return "0.0.0.0"
	}
	return r.raw.RemoteAddr
}

// Header returns the named request header. The name is case-insensitive.
func (r *Request) Header(name string) string {
	return r.raw.Header.Get(name)
}

// Headers returns all request headers keyed by upper-cased name.
// Multiple values are joined with ", ".
func (r *Request) Headers() map[string]string {
	headers := make(map[string]string, len(r.raw.Header))
	for name, values := range r.raw.Header {
		headers[strings.ToUpper(name)] = strings.Join(values, ", ")
	}
	return headers
}

// Cookie returns the unescaped value of the named cookie and whether it was present.
func (r *Request) Cookie(name string) (string, bool) {
	c, err := r.raw.Cookie(name)
	if err != nil {
		return "", false
	}
	return unquote(c.Value), true
}

// Cookies returns all cookies as a name to unescaped value map.
func (r *Request) Cookies() map[string]string {
	cookies := make(map[string]string)
	for _, c := range r.raw.Cookies() {
		cookies[c.Name] = unquote(c.Value)
	}
	return cookies
}

func unquote(s string) string {
	if v, err := url.PathUnescape(s); err == nil {
		return v
	}
	return s
}

// parseForm parses query and body form values once.
func (r *Request) parseForm() error {
	if r.formRead {
		return r.formErr
	}
	r.formRead = true
	err := r.raw.ParseMultipartForm(maxMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = nil
	}
	r.formErr = err
	return err
}

// Get returns the first input value for key from the query string or the form body.
func (r *Request) Get(key string) (string, bool) {
	values := r.Gets(key)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// Gets returns all input values for key. Multipart values are included.
func (r *Request) Gets(key string) []string {
	if err := r.parseForm(); err != nil {
		return nil
	}
	return r.raw.Form[key]
}

// Input returns the first value of every input, filled with defaults for missing keys.
func (r *Request) Input(defaults map[string]string) map[string]string {
	input := make(map[string]string, len(defaults))
	for k, v := range defaults {
		input[k] = v
	}
	if err := r.parseForm(); err != nil {
		return input
	}
	for k, v := range r.raw.Form {
		if len(v) > 0 {
			input[k] = v[0]
		}
	}
	return input
}

// File returns the first uploaded file for key in a multipart request.
func (r *Request) File(key string) (*multipart.FileHeader, bool) {
	if err := r.parseForm(); err != nil || r.raw.MultipartForm == nil {
		return nil, false
	}
	files := r.raw.MultipartForm.File[key]
	if len(files) == 0 {
		return nil, false
	}
	return files[0], true
}

// Body reads the whole request body. The result is cached, so later calls return the same bytes.
// A body cut off by a size limit yields a 413 *HTTPError.
func (r *Request) Body() ([]byte, error) {
	if r.bodyRead {
		return r.body, nil
	}
	if r.raw.Body == nil {
		r.bodyRead = true
		return nil, nil
	}
	data, err := io.ReadAll(r.raw.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, NewHTTPError(http.StatusRequestEntityTooLarge, "")
		}
		return nil, err
	}
	r.body, r.bodyRead = data, true
	return data, nil
}

// ParseBody reads the body and parses it with the parser registered for its Content-Type.
func (r *Request) ParseBody() (any, error) {
	data, err := r.Body()
	if err != nil {
		return nil, err
	}
	if r.parsers == nil {
		return codec.Raw(data)
	}
	return r.parsers.Parse(r.Header("Content-Type"), data)
}
