// Package router provides the routing engine of the digwebs framework.
// It compiles path templates, keeps static routes in exact-match tables and dynamic
// routes in ordered per-method lists, and installs itself as the final middleware of
// the application chain.
package router

import (
	"go.uber.org/zap"
)

// RoutePriority is the chain priority of the router middleware.
// Application middlewares with lower priorities wrap routing.
const RoutePriority = 10000

// Config defines the configuration for the router.
type Config struct {
	Logger      *zap.Logger // Logger for route registration and resolution
	DevelopMode bool        // Serve /static/* and /favicon.ico from the document root
}
