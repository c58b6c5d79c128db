package router

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Suhaibinator/digwebs/pkg/common"
)

var (
	// ErrMalformedPattern is returned for path templates with invalid placeholders.
	ErrMalformedPattern = errors.New("malformed route pattern")
	// ErrUnsupportedMethod is returned for methods other than GET, POST, PUT and DELETE.
	ErrUnsupportedMethod = errors.New("unsupported route method")
)

// Methods lists the HTTP methods routes can be registered for.
var Methods = []string{"GET", "POST", "PUT", "DELETE"}

// placeholderRe matches a named placeholder such as ":id".
var placeholderRe = regexp.MustCompile(`:[A-Za-z_][A-Za-z0-9_]*`)

// Handler is the function a route invokes. args holds the captured placeholder values
// in the order the placeholders appear in the path template.
type Handler func(c *common.Context, args ...string) (common.Result, error)

// matcher recognizes concrete paths for a dynamic route.
type matcher interface {
	match(path string) ([]string, bool)
	pattern() string
}

// Route binds an HTTP method and a path template to a handler.
// A Route is immutable once constructed.
type Route struct {
	method  string
	path    string
	static  bool
	params  []string
	matcher matcher
	handler Handler
}

// NewRoute compiles path and binds it to handler.
// Templates without placeholders are static and resolved by exact lookup.
func NewRoute(method, path string, handler Handler) (*Route, error) {
	if !isSupportedMethod(method) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}
	if handler == nil {
		return nil, fmt.Errorf("router: nil handler for %s %s", method, path)
	}

	expr, params, err := buildPattern(path)
	if err != nil {
		return nil, err
	}

	r := &Route{
		method:  method,
		path:    path,
		static:  len(params) == 0,
		params:  params,
		handler: handler,
	}
	if !r.static {
		r.matcher = &regexpMatcher{re: regexp.MustCompile(expr)}
	}
	return r, nil
}

// Method returns the HTTP method of the route.
func (r *Route) Method() string { return r.method }

// Path returns the path template the route was created with.
func (r *Route) Path() string { return r.path }

// IsStatic reports whether the route has no placeholders.
func (r *Route) IsStatic() bool { return r.static }

// Params returns the placeholder names in template order.
func (r *Route) Params() []string {
	return append([]string(nil), r.params...)
}

// Pattern returns the canonical compiled form of a dynamic route, or "" for static routes.
// Two templates are equivalent iff their patterns are equal.
func (r *Route) Pattern() string {
	if r.matcher == nil {
		return ""
	}
	return r.matcher.pattern()
}

// Match reports whether path matches the route and returns the captured values.
// Static routes match only their exact path and capture nothing.
func (r *Route) Match(path string) ([]string, bool) {
	if r.matcher == nil {
		return nil, path == r.path
	}
	return r.matcher.match(path)
}

// Handler returns the function the route invokes.
func (r *Route) Handler() Handler { return r.handler }

// String returns a description used in logs.
func (r *Route) String() string {
	if r.static {
		return fmt.Sprintf("Route(static,%s,path=%s)", r.method, r.path)
	}
	return fmt.Sprintf("Route(dynamic,%s,path=%s)", r.method, r.path)
}

func isSupportedMethod(method string) bool {
	for _, m := range Methods {
		if m == method {
			return true
		}
	}
	return false
}

// buildPattern converts a path template into an anchored regular expression.
// Literal ASCII punctuation is escaped, and each placeholder becomes a named group
// matching one or more non-slash characters.
func buildPattern(path string) (string, []string, error) {
	var (
		b      strings.Builder
		params []string
		seen   = make(map[string]bool)
		last   int
	)

	b.WriteByte('^')
	for _, loc := range placeholderRe.FindAllStringIndex(path, -1) {
		if err := writeLiteral(&b, path[last:loc[0]]); err != nil {
			return "", nil, fmt.Errorf("%w: %q: %v", ErrMalformedPattern, path, err)
		}
		name := path[loc[0]+1 : loc[1]]
		if seen[name] {
			return "", nil, fmt.Errorf("%w: %q: duplicate placeholder %q", ErrMalformedPattern, path, name)
		}
		seen[name] = true
		params = append(params, name)
		fmt.Fprintf(&b, `(?P<%s>[^\/]+)`, name)
		last = loc[1]
	}
	if err := writeLiteral(&b, path[last:]); err != nil {
		return "", nil, fmt.Errorf("%w: %q: %v", ErrMalformedPattern, path, err)
	}
	b.WriteByte('$')

	return b.String(), params, nil
}

// writeLiteral appends an escaped literal span. A ':' left in a literal span is a
// placeholder whose name is not an identifier.
func writeLiteral(b *strings.Builder, literal string) error {
	for i := 0; i < len(literal); i++ {
		ch := literal[i]
		switch {
		case ch == ':':
			return errors.New("placeholder name must be an identifier")
		case isAlnum(ch) || ch >= 0x80:
			b.WriteByte(ch)
		case ch > ' ' && ch < 0x7f:
			b.WriteByte('\\')
			b.WriteByte(ch)
		default:
			b.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}
	return nil
}

func isAlnum(ch byte) bool {
	return ch >= '0' && ch <= '9' || ch >= 'A' && ch <= 'Z' || ch >= 'a' && ch <= 'z'
}

// regexpMatcher matches a compiled path template.
type regexpMatcher struct {
	re *regexp.Regexp
}

func (m *regexpMatcher) match(path string) ([]string, bool) {
	groups := m.re.FindStringSubmatch(path)
	if groups == nil {
		return nil, false
	}
	return groups[1:], true
}

func (m *regexpMatcher) pattern() string {
	return m.re.String()
}

// prefixMatcher matches every path under a prefix and captures the path without its
// leading slash.
type prefixMatcher struct {
	prefix string
}

func (m *prefixMatcher) match(path string) ([]string, bool) {
	if !strings.HasPrefix(path, m.prefix) {
		return nil, false
	}
	return []string{path[1:]}, true
}

func (m *prefixMatcher) pattern() string {
	return "^" + regexp.QuoteMeta(m.prefix) + ".*$"
}

// exactMatcher matches a single path and captures it without its leading slash.
type exactMatcher struct {
	path string
}

func (m *exactMatcher) match(path string) ([]string, bool) {
	if path != m.path {
		return nil, false
	}
	return []string{path[1:]}, true
}

func (m *exactMatcher) pattern() string {
	return "^" + regexp.QuoteMeta(m.path) + "$"
}
