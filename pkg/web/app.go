package web

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/Suhaibinator/digwebs/pkg/codec"
	"github.com/Suhaibinator/digwebs/pkg/common"
	"github.com/Suhaibinator/digwebs/pkg/middleware"
	"github.com/Suhaibinator/digwebs/pkg/router"
	"github.com/Suhaibinator/digwebs/pkg/template"
	"go.uber.org/zap"
)

var (
	// ErrAppSealed is returned when the app is modified after it started serving.
	ErrAppSealed = errors.New("app is sealed")
	// ErrNoTemplateEngine is the failure of a template result without a configured engine.
	ErrNoTemplateEngine = errors.New("no template engine configured")
)

// TemplateCallback contributes values to the model of every rendered template.
type TemplateCallback func(c *common.Context) map[string]any

type namedCallback struct {
	name string
	fn   TemplateCallback
}

// globalStore is implemented by engines with template-wide values.
type globalStore interface {
	SetGlobal(key string, value any)
	Global(key string) (any, bool)
}

// App is a digwebs application. Routes, middlewares and template callbacks are
// registered before the first request; the first request (or an explicit Seal) freezes
// them and builds the middleware chain.
type App struct {
	config      Config
	logger      *zap.Logger
	application *common.Application
	router      *router.Router
	engine      template.Engine
	registry    *router.Registry

	mu          sync.Mutex
	middlewares common.MiddlewareChain
	callbacks   []namedCallback
	sealed      atomic.Bool
	chain       common.MiddlewareChain

	wg         sync.WaitGroup
	shutdown   bool
	shutdownMu sync.RWMutex
}

// NewApp creates an App from config. The built-in middlewares enabled in config are
// installed ahead of config.Middlewares.
func NewApp(config Config) (*App, error) {
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

	root := config.RootPath
	if root == "" {
		root = filepath.Dir(os.Args[0])
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	parsers := config.Parsers
	if parsers == nil {
		parsers = codec.NewParsers()
	}

	registry := config.Controllers
	if registry == nil {
		registry = router.DefaultRegistry
	}

	a := &App{
		config:      config,
		logger:      logger,
		application: &common.Application{DocumentRoot: root, Parsers: parsers},
		router:      router.New(router.Config{Logger: logger, DevelopMode: config.DevelopMode}),
		engine:      config.TemplateEngine,
		registry:    registry,
	}

	if a.engine == nil && config.TemplateFolder != "" {
		dir := filepath.Join(root, config.TemplateFolder)
		if _, err := os.Stat(dir); err != nil {
			logger.Warn("Template folder not found, templates disabled", zap.String("dir", dir))
		} else {
			engine, err := template.NewHTMLEngine(template.Config{Dir: dir, Reload: config.DevelopMode})
			if err != nil {
				return nil, fmt.Errorf("template engine: %w", err)
			}
			a.engine = engine
		}
	}

	a.middlewares = a.builtinMiddlewares()
	a.middlewares = a.middlewares.Append(config.Middlewares...)

	return a, nil
}

// builtinMiddlewares returns the middlewares switched on by the configuration.
func (a *App) builtinMiddlewares() common.MiddlewareChain {
	var chain common.MiddlewareChain
	if a.config.IPConfig != nil {
		chain = chain.Append(middleware.ClientIPMiddleware(a.config.IPConfig))
	}
	if a.config.EnableTraceID {
		chain = chain.Append(middleware.TraceMiddleware())
	}
	if a.config.EnableLogging {
		chain = chain.Append(middleware.Logging(a.logger))
	}
	if a.config.Metrics != nil {
		chain = chain.Append(a.config.Metrics.Middleware())
	}
	if a.config.MaxBodySize > 0 {
		chain = chain.Append(middleware.MaxBodySize(a.config.MaxBodySize))
	}
	if a.config.RateLimit != nil {
		limiter := a.config.RateLimiter
		if limiter == nil {
			limiter = middleware.NewUberRateLimiter()
		}
		chain = chain.Append(middleware.RateLimit(a.config.RateLimit, limiter, a.logger))
	}
	return chain
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Router returns the application router.
func (a *App) Router() *router.Router { return a.router }

// Engine returns the template engine, or nil if templates are disabled.
func (a *App) Engine() template.Engine { return a.engine }

// DocumentRoot returns the absolute root path static files are served from.
func (a *App) DocumentRoot() string { return a.application.DocumentRoot }

// Config returns the configuration the app was created with.
func (a *App) Config() Config { return a.config }

// Use adds middlewares to the chain. They run in ascending priority order; the router
// runs at router.RoutePriority.
func (a *App) Use(middlewares ...common.Middleware) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sealed.Load() {
		return ErrAppSealed
	}
	a.middlewares = a.middlewares.Append(middlewares...)
	return nil
}

// Handle registers handler for method and path.
func (a *App) Handle(method, path string, handler router.Handler) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sealed.Load() {
		return ErrAppSealed
	}
	return a.router.Handle(method, path, handler)
}

// Get registers a GET route.
func (a *App) Get(path string, handler router.Handler) error {
	return a.Handle("GET", path, handler)
}

// Post registers a POST route.
func (a *App) Post(path string, handler router.Handler) error {
	return a.Handle("POST", path, handler)
}

// Put registers a PUT route.
func (a *App) Put(path string, handler router.Handler) error {
	return a.Handle("PUT", path, handler)
}

// Delete registers a DELETE route.
func (a *App) Delete(path string, handler router.Handler) error {
	return a.Handle("DELETE", path, handler)
}

// RegisterTemplateCallback adds a callback whose values are merged into every template
// model, in registration order. A callback with the same name is replaced in place.
func (a *App) RegisterTemplateCallback(name string, fn TemplateCallback) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sealed.Load() {
		return ErrAppSealed
	}
	for i, cb := range a.callbacks {
		if cb.name == name {
			a.callbacks[i].fn = fn
			return nil
		}
	}
	a.callbacks = append(a.callbacks, namedCallback{name: name, fn: fn})
	return nil
}

// UnregisterTemplateCallback removes the named callback.
func (a *App) UnregisterTemplateCallback(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sealed.Load() {
		return ErrAppSealed
	}
	for i, cb := range a.callbacks {
		if cb.name == name {
			a.callbacks = append(a.callbacks[:i], a.callbacks[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("template callback %q not registered", name)
}

// SetStaticResourceURL sets the static_file_prefix template global.
func (a *App) SetStaticResourceURL(prefix string) error {
	store, ok := a.engine.(globalStore)
	if !ok {
		return ErrNoTemplateEngine
	}
	store.SetGlobal("static_file_prefix", prefix)
	return nil
}

// StaticResourceURL returns the static_file_prefix template global.
func (a *App) StaticResourceURL() string {
	store, ok := a.engine.(globalStore)
	if !ok {
		return ""
	}
	v, _ := store.Global("static_file_prefix")
	s, _ := v.(string)
	return s
}

// Seal discovers the registered controllers, freezes the router and builds the sorted
// middleware chain with the router as its final entry. Once it succeeds later calls are
// no-ops. A failed Seal leaves the app unsealed and unchanged, so it can be retried.
func (a *App) Seal() error {
	if a.sealed.Load() {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sealed.Load() {
		return nil
	}

	if err := a.registry.Discover(a.router); err != nil {
		return err
	}
	a.router.Seal()

	a.chain = a.middlewares.Append(a.router.Middleware()).Sorted()
	a.sealed.Store(true)

	for _, mw := range a.chain {
		a.logger.Info("Add middleware", zap.String("name", mw.Name), zap.Int("priority", mw.Priority))
	}
	return nil
}

// Shutdown stops accepting new requests and waits for in-flight requests to complete.
// If ctx is canceled first, it returns the context's error.
func (a *App) Shutdown(ctx context.Context) error {
	// Mark the app as shutting down
	a.shutdownMu.Lock()
	a.shutdown = true
	a.shutdownMu.Unlock()

	// Create a channel to signal when all requests are done
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	// Wait for all requests to finish or for the context to be canceled
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
