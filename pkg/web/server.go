package web

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = "127.0.0.1:9999"

// DefaultMetricsPath is where metrics are exposed when the app collects them.
const DefaultMetricsPath = "/metrics"

// ServerConfig configures a Server.
type ServerConfig struct {
	Addr        string // Listen address, DefaultAddr when empty
	MetricsPath string // Metrics endpoint, DefaultMetricsPath when empty
}

// Server hosts an App. Operational endpoints are mounted on an httprouter gateway;
// every other request falls through to the app.
type Server struct {
	app     *App
	config  ServerConfig
	gateway *httprouter.Router
	http    *http.Server
}

// NewServer creates a Server for app.
func NewServer(app *App, config ServerConfig) *Server {
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}
	if config.MetricsPath == "" {
		config.MetricsPath = DefaultMetricsPath
	}

	gateway := httprouter.New()
	gateway.RedirectTrailingSlash = false
	gateway.RedirectFixedPath = false
	gateway.HandleMethodNotAllowed = false
	gateway.HandleOPTIONS = false
	if collector := app.Config().Metrics; collector != nil {
		gateway.Handler(http.MethodGet, config.MetricsPath, collector.Handler())
	}
	gateway.NotFound = app

	s := &Server{
		app:     app,
		config:  config,
		gateway: gateway,
	}
	s.http = &http.Server{
		Addr:     config.Addr,
		Handler:  gateway,
		ErrorLog: zap.NewStdLog(app.Logger()),
	}
	return s
}

// Handler returns the gateway handler.
func (s *Server) Handler() http.Handler {
	return s.gateway
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.config.Addr
}

// ListenAndServe seals the app and serves on the configured address until Shutdown.
func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Serve seals the app and serves on l until Shutdown.
func (s *Server) Serve(l net.Listener) error {
	if err := s.app.Seal(); err != nil {
		l.Close()
		return err
	}

	s.app.Logger().Info("Application started",
		zap.String("root", s.app.DocumentRoot()),
		zap.String("addr", l.Addr().String()),
	)

	if err := s.http.Serve(l); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the app from taking new requests, waits for in-flight ones and closes
// the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return multierr.Combine(
		s.app.Shutdown(ctx),
		s.http.Shutdown(ctx),
	)
}

// Run serves app on addr until the server fails. It is the quickest way to start a
// development server.
func (a *App) Run(addr string) error {
	return NewServer(a, ServerConfig{Addr: addr}).ListenAndServe()
}
