package router

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/Suhaibinator/digwebs/pkg/common"
	"go.uber.org/zap"
)

// ErrRouterSealed is returned when a route is registered after the router was sealed.
var ErrRouterSealed = errors.New("router is sealed")

// Router resolves (method, path) pairs to routes.
// Static routes live in an exact-match table per method; dynamic routes live in an
// ordered list per method where the first registered match wins.
type Router struct {
	logger  *zap.Logger
	static  map[string]map[string]*Route
	dynamic map[string][]*Route
	sealed  atomic.Bool
}

// New creates a Router. In develop mode the built-in static file and favicon routes are
// registered first, so they take precedence over user-declared dynamic GET routes.
func New(config Config) *Router {
	// Set up the logger
	logger := config.Logger
	if logger == nil {
		var err error
		logger, err = zap.NewProduction()
		if err != nil {
			// Fallback to a no-op logger if we can't create a production logger
			logger = zap.NewNop()
		}
	}

	r := &Router{
		logger:  logger,
		static:  make(map[string]map[string]*Route, len(Methods)),
		dynamic: make(map[string][]*Route, len(Methods)),
	}
	for _, m := range Methods {
		r.static[m] = make(map[string]*Route)
	}

	if config.DevelopMode {
		r.add(StaticFileRoute())
		r.add(FaviconRoute())
	}

	return r
}

// Register adds a route. Static routes replace an earlier route with the same method and
// path; dynamic routes are appended after the existing ones for their method.
func (r *Router) Register(route *Route) error {
	if route == nil {
		return errors.New("router: nil route")
	}
	if r.sealed.Load() {
		return fmt.Errorf("%w: cannot add %s", ErrRouterSealed, route)
	}
	r.add(route)
	return nil
}

// Handle compiles a route from method, path and handler and registers it.
func (r *Router) Handle(method, path string, handler Handler) error {
	route, err := NewRoute(method, path, handler)
	if err != nil {
		return err
	}
	return r.Register(route)
}

func (r *Router) add(route *Route) {
	if route.IsStatic() {
		r.static[route.Method()][route.Path()] = route
	} else {
		r.dynamic[route.Method()] = append(r.dynamic[route.Method()], route)
	}
	r.logger.Info("Add route", zap.String("route", route.String()))
}

// Seal rejects further registrations. Resolution never locks, so the tables must not
// change once requests are being served.
func (r *Router) Seal() {
	r.sealed.Store(true)
}

// Sealed reports whether Seal has been called.
func (r *Router) Sealed() bool {
	return r.sealed.Load()
}

// Resolve finds the route for method and path. An exact static match is returned with
// no arguments; otherwise the dynamic routes are scanned in registration order.
// If nothing matches, Resolve returns a 404 *common.HTTPError.
func (r *Router) Resolve(method, path string) (*Route, []string, error) {
	if route, ok := r.static[method][path]; ok {
		return route, nil, nil
	}
	for _, route := range r.dynamic[method] {
		if args, ok := route.Match(path); ok {
			return route, args, nil
		}
	}
	return nil, nil, common.NotFound()
}

// Routes returns the registered routes: static routes first (per method, unordered),
// then dynamic routes in precedence order.
func (r *Router) Routes() []*Route {
	var routes []*Route
	for _, m := range Methods {
		for _, route := range r.static[m] {
			routes = append(routes, route)
		}
	}
	for _, m := range Methods {
		routes = append(routes, r.dynamic[m]...)
	}
	return routes
}

// Middleware returns the router's chain entry. It resolves the current request, records
// the captured parameters on the context and returns the handler's result. It never
// calls its continuation.
func (r *Router) Middleware() common.Middleware {
	return common.Middleware{
		Name:     "router",
		Priority: RoutePriority,
		Handler: func(c *common.Context, _ common.Next) (common.Result, error) {
			route, args, err := r.Resolve(c.Request.Method(), c.Request.Path())
			if err != nil {
				r.logger.Debug("No route",
					zap.String("method", c.Request.Method()),
					zap.String("path", c.Request.Path()),
				)
				return common.Empty(), err
			}
			c.SetParams(route.params, args)
			return route.handler(c, args...)
		},
	}
}
