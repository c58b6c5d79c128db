package common

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// PoweredBy is appended to every response as the X-Powered-By header.
const PoweredBy = "digwebs/1.0"

// DefaultContentType is the Content-Type of a fresh Response.
const DefaultContentType = "text/html; charset=utf-8"

// responseHeaders is the fixed table of canonical response header names, keyed by upper-case name.
var responseHeaders = func() map[string]string {
	names := []string{
		"Accept-Ranges", "Age", "Allow", "Cache-Control", "Connection", "Content-Encoding",
		"Content-Language", "Content-Length", "Content-Location", "Content-MD5",
		"Content-Disposition", "Content-Range", "Content-Type", "Date", "ETag", "Expires",
		"Last-Modified", "Link", "Location", "P3P", "Pragma", "Proxy-Authenticate", "Refresh",
		"Retry-After", "Server", "Set-Cookie", "Strict-Transport-Security", "Trailer",
		"Transfer-Encoding", "Vary", "Via", "Warning", "WWW-Authenticate", "X-Frame-Options",
		"X-XSS-Protection", "X-Content-Type-Options", "X-Forwarded-Proto", "X-Powered-By",
		"X-UA-Compatible", "X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining",
		"X-RateLimit-Reset", "Access-Control-Allow-Origin", "Access-Control-Allow-Methods",
		"Access-Control-Allow-Headers",
	}
	table := make(map[string]string, len(names))
	for _, name := range names {
		table[strings.ToUpper(name)] = name
	}
	return table
}()

// canonicalHeader returns the table spelling of name, or name itself when it is not in the table.
func canonicalHeader(name string) string {
	if canonical, ok := responseHeaders[strings.ToUpper(name)]; ok {
		return canonical
	}
	return name
}

// Header is a single response header.
type Header struct {
	Name  string
	Value string
}

// Response accumulates status, headers and cookies for the current request.
// It is written to the wire once, by the dispatcher.
type Response struct {
	status  string
	headers map[string]Header // keyed by upper-case name
	cookies map[string]string
}

// NewResponse returns a response with status "200 OK" and the default content type.
func NewResponse() *Response {
	return &Response{
		status:  "200 OK",
		headers: map[string]Header{"CONTENT-TYPE": {Name: "Content-Type", Value: DefaultContentType}},
	}
}

// Status returns the status line, e.g. "200 OK".
func (r *Response) Status() string {
	return r.status
}

// StatusCode returns the numeric part of the status line.
func (r *Response) StatusCode() int {
	code, _ := strconv.Atoi(r.status[:3])
	return code
}

// SetStatus sets the status from an int (100-999) or a status line string such as "403 Denied".
// It returns ErrBadStatus for invalid values and ErrBadStatusType for other types.
// The current status is left unchanged on error.
func (r *Response) SetStatus(v any) error {
	st, err := parseStatus(v)
	if err != nil {
		return err
	}
	r.status = st
	return nil
}

// Header returns the value of the named header, or "" if unset.
func (r *Response) Header(name string) string {
	return r.headers[strings.ToUpper(name)].Value
}

// SetHeader sets the named header, replacing any previous value.
func (r *Response) SetHeader(name, value string) {
	r.headers[strings.ToUpper(name)] = Header{Name: canonicalHeader(name), Value: value}
}

// UnsetHeader removes the named header.
func (r *Response) UnsetHeader(name string) {
	delete(r.headers, strings.ToUpper(name))
}

// ContentType returns the Content-Type header.
func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

// SetContentType sets the Content-Type header, or removes it when value is empty.
func (r *Response) SetContentType(value string) {
	if value == "" {
		r.UnsetHeader("Content-Type")
		return
	}
	r.SetHeader("Content-Type", value)
}

// ContentLength returns the Content-Length header.
func (r *Response) ContentLength() string {
	return r.Header("Content-Length")
}

// SetContentLength sets the Content-Length header.
func (r *Response) SetContentLength(n int64) {
	r.SetHeader("Content-Length", strconv.FormatInt(n, 10))
}

// cookieOptions collects the attributes of a Set-Cookie entry.
type cookieOptions struct {
	maxAge   *int
	expires  *time.Time
	path     string
	domain   string
	secure   bool
	httpOnly bool
}

// CookieOption configures a cookie set with Response.SetCookie.
type CookieOption func(*cookieOptions)

// WithMaxAge sets Max-Age in seconds. It is ignored when WithExpires is also given.
func WithMaxAge(seconds int) CookieOption {
	return func(o *cookieOptions) {
		o.maxAge = &seconds
	}
}

// WithExpires sets an absolute expiry time.
func WithExpires(t time.Time) CookieOption {
	return func(o *cookieOptions) {
		o.expires = &t
	}
}

// WithPath sets the cookie path. The default is "/".
func WithPath(path string) CookieOption {
	return func(o *cookieOptions) {
		o.path = path
	}
}

// WithDomain sets the cookie domain.
func WithDomain(domain string) CookieOption {
	return func(o *cookieOptions) {
		o.domain = domain
	}
}

// WithSecure marks the cookie Secure.
func WithSecure() CookieOption {
	return func(o *cookieOptions) {
		o.secure = true
	}
}

// WithoutHTTPOnly drops the HttpOnly flag, which is set by default.
func WithoutHTTPOnly() CookieOption {
	return func(o *cookieOptions) {
		o.httpOnly = false
	}
}

// SetCookie records a cookie to be sent as a Set-Cookie header.
// The name and value are URL-encoded. Setting the same name again replaces the cookie.
func (r *Response) SetCookie(name, value string, opts ...CookieOption) {
	o := cookieOptions{path: "/", httpOnly: true}
	for _, opt := range opts {
		opt(&o)
	}

	parts := []string{url.PathEscape(name) + "=" + url.PathEscape(value)}
	if o.expires != nil {
		parts = append(parts, "Expires="+o.expires.UTC().Format("Mon, 02-Jan-2006 15:04:05 GMT"))
	} else if o.maxAge != nil {
		parts = append(parts, fmt.Sprintf("Max-Age=%d", *o.maxAge))
	}
	parts = append(parts, "Path="+o.path)
	if o.domain != "" {
		parts = append(parts, "Domain="+o.domain)
	}
	if o.secure {
		parts = append(parts, "Secure")
	}
	if o.httpOnly {
		parts = append(parts, "HttpOnly")
	}

	if r.cookies == nil {
		r.cookies = make(map[string]string)
	}
	r.cookies[name] = strings.Join(parts, "; ")
}

// DeleteCookie tells the client to drop the cookie immediately.
func (r *Response) DeleteCookie(name string) {
	r.SetCookie(name, "__deleted__", WithExpires(time.Unix(0, 0)))
}

// UnsetCookie forgets a cookie set earlier in this response.
func (r *Response) UnsetCookie(name string) {
	delete(r.cookies, name)
}

// Cookie returns the encoded Set-Cookie value recorded for name.
func (r *Response) Cookie(name string) (string, bool) {
	v, ok := r.cookies[name]
	return v, ok
}

// HeaderList returns the headers to write. Regular headers come first, sorted by name,
// followed by one Set-Cookie per cookie and finally X-Powered-By.
func (r *Response) HeaderList() []Header {
	list := make([]Header, 0, len(r.headers)+len(r.cookies)+1)
	for key, h := range r.headers {
		if key == "X-POWERED-BY" {
			continue
		}
		list = append(list, h)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })

	names := make([]string, 0, len(r.cookies))
	for name := range r.cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		list = append(list, Header{Name: "Set-Cookie", Value: r.cookies[name]})
	}

	return append(list, Header{Name: "X-Powered-By", Value: PoweredBy})
}
