package router

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Annotated records the intended method and path template of a handler.
// It is the explicit counterpart of decorating a function with its route.
type Annotated struct {
	Method  string
	Path    string
	Handler Handler
}

// Get annotates h as a GET route.
func Get(path string, h Handler) Annotated { return Annotated{Method: "GET", Path: path, Handler: h} }

// Post annotates h as a POST route.
func Post(path string, h Handler) Annotated { return Annotated{Method: "POST", Path: path, Handler: h} }

// Put annotates h as a PUT route.
func Put(path string, h Handler) Annotated { return Annotated{Method: "PUT", Path: path, Handler: h} }

// Delete annotates h as a DELETE route.
func Delete(path string, h Handler) Annotated {
	return Annotated{Method: "DELETE", Path: path, Handler: h}
}

// Controller is a named group of annotated handlers.
// Only controllers whose name ends in "controller" are discovered.
type Controller struct {
	Name   string
	Routes []Annotated
}

// Registry collects controllers until the application discovers them at startup.
type Registry struct {
	mu          sync.Mutex
	controllers map[string]Controller
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{controllers: make(map[string]Controller)}
}

// DefaultRegistry is the process-wide registry controller packages add themselves to
// from their init functions.
var DefaultRegistry = NewRegistry()

// RegisterController adds c to the default registry.
func RegisterController(c Controller) {
	DefaultRegistry.Add(c)
}

// Add stores c, replacing a controller with the same name.
func (reg *Registry) Add(c Controller) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.controllers[c.Name] = c
}

// Controllers returns the discoverable controllers sorted by name.
func (reg *Registry) Controllers() []Controller {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var list []Controller
	for name, c := range reg.controllers {
		if strings.HasSuffix(strings.ToLower(name), "controller") {
			list = append(list, c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Discover registers every discoverable controller's routes with r: controllers in name
// order, routes in declaration order. Registration order is precedence order for dynamic
// routes, so the result is deterministic. Every route is compiled before any is
// registered, so a failing controller leaves r unchanged.
func (reg *Registry) Discover(r *Router) error {
	controllers := reg.Controllers()
	compiled := make([][]*Route, len(controllers))
	for i, c := range controllers {
		for _, a := range c.Routes {
			route, err := NewRoute(a.Method, a.Path, a.Handler)
			if err != nil {
				return fmt.Errorf("controller %s: %w", c.Name, err)
			}
			compiled[i] = append(compiled[i], route)
		}
	}

	for i, c := range controllers {
		r.logger.Info("Add controller", zap.String("controller", c.Name))
		for _, route := range compiled[i] {
			if err := r.Register(route); err != nil {
				return fmt.Errorf("controller %s: %w", c.Name, err)
			}
		}
	}
	return nil
}
