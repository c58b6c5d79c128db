// Package web assembles the digwebs application: configuration, route and middleware
// registration, the request dispatcher and the HTTP server that hosts it.
package web

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Suhaibinator/digwebs/pkg/codec"
	"github.com/Suhaibinator/digwebs/pkg/common"
	"github.com/Suhaibinator/digwebs/pkg/metrics"
	"github.com/Suhaibinator/digwebs/pkg/middleware"
	"github.com/Suhaibinator/digwebs/pkg/router"
	"github.com/Suhaibinator/digwebs/pkg/template"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config defines the configuration of an App.
// It is read once by NewApp; changing it afterwards has no effect.
type Config struct {
	Logger         *zap.Logger                 // Logger for all application operations
	RootPath       string                      // Document root; defaults to the executable's directory
	TemplateFolder string                      // Template directory relative to RootPath; "" disables templates
	TemplateEngine template.Engine             // Engine to use instead of loading TemplateFolder
	DevelopMode    bool                        // Serve /static/* and /favicon.ico, reload templates
	Parsers        *codec.Parsers              // Body parsers; JSON and form parsers when nil
	Controllers    *router.Registry            // Controllers discovered at startup; router.DefaultRegistry when nil
	IPConfig       *middleware.IPConfig        // Install client IP extraction when set
	EnableTraceID  bool                        // Install the trace ID middleware
	EnableLogging  bool                        // Install the access logging middleware
	MaxBodySize    int64                       // Limit request bodies when positive
	RateLimit      *middleware.RateLimitConfig // Install rate limiting when set
	RateLimiter    middleware.RateLimiter      // Limiter for RateLimit; an UberRateLimiter when nil
	Metrics        *metrics.Collector          // Install request metrics and expose them on the server
	Middlewares    []common.Middleware         // Application middlewares, ordered by priority
}

// DefaultConfig returns the configuration used by generated projects: templates in
// "views", develop mode on and access logging enabled.
func DefaultConfig() Config {
	return Config{
		TemplateFolder: "views",
		DevelopMode:    true,
		EnableLogging:  true,
	}
}

// FileConfig is the on-disk YAML form of the configuration.
type FileConfig struct {
	Addr           string               `yaml:"addr"`
	RootPath       string               `yaml:"root_path"`
	TemplateFolder string               `yaml:"template_folder"`
	DevelopMode    bool                 `yaml:"develop_mode"`
	LogLevel       string               `yaml:"log_level"`
	MetricsPath    string               `yaml:"metrics_path"`
	EnableTraceID  bool                 `yaml:"enable_trace_id"`
	EnableLogging  bool                 `yaml:"enable_logging"`
	MaxBodySize    int64                `yaml:"max_body_size"`
	RateLimit      *RateLimitFileConfig `yaml:"rate_limit"`
}

// RateLimitFileConfig is the YAML form of a rate limit.
type RateLimitFileConfig struct {
	Limit    int           `yaml:"limit"`
	Window   time.Duration `yaml:"window"`
	Strategy string        `yaml:"strategy"`
}

// LoadConfig reads a YAML configuration file. Relative root paths are resolved against
// the directory of the file.
func LoadConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	if fc.RootPath != "" && !filepath.IsAbs(fc.RootPath) {
		fc.RootPath = filepath.Join(filepath.Dir(path), fc.RootPath)
	}
	return &fc, nil
}

// Apply copies the file settings onto config. A log level builds a new production
// logger (development logger in develop mode) at that level.
func (fc *FileConfig) Apply(config *Config) error {
	if fc.RootPath != "" {
		config.RootPath = fc.RootPath
	}
	if fc.TemplateFolder != "" {
		config.TemplateFolder = fc.TemplateFolder
	}
	config.DevelopMode = fc.DevelopMode
	config.EnableTraceID = fc.EnableTraceID
	config.EnableLogging = fc.EnableLogging
	config.MaxBodySize = fc.MaxBodySize

	if fc.RateLimit != nil {
		config.RateLimit = &middleware.RateLimitConfig{
			BucketName: "global",
			Limit:      fc.RateLimit.Limit,
			Window:     fc.RateLimit.Window,
			Strategy:   fc.RateLimit.Strategy,
		}
	}

	if fc.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(fc.LogLevel)
		if err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
		zc := zap.NewProductionConfig()
		if fc.DevelopMode {
			zc = zap.NewDevelopmentConfig()
		}
		zc.Level = level
		logger, err := zc.Build()
		if err != nil {
			return err
		}
		config.Logger = logger
	}

	return nil
}

// ServerConfig returns the server settings of the file.
func (fc *FileConfig) ServerConfig() ServerConfig {
	return ServerConfig{
		Addr:        fc.Addr,
		MetricsPath: fc.MetricsPath,
	}
}
