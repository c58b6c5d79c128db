package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Suhaibinator/digwebs/pkg/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records request metrics into its own Prometheus registry.
type Collector struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inFlight prometheus.Gauge
	filter   MetricsFilter
	sampler  MetricsSampler
}

// NewCollector creates a Collector and registers its metrics, together with the Go
// runtime and process collectors, in a fresh registry.
func NewCollector(config Config) (*Collector, error) {
	buckets := config.LatencyBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}
	rate := config.SamplingRate
	if rate == 0 {
		rate = 1.0
	}

	labels := []string{"method", "status"}
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "requests_total",
			Help:      "Total number of handled requests",
		}, labels),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "request_errors_total",
			Help:      "Total number of requests answered with a 4xx or 5xx status",
		}, labels),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "request_duration_seconds",
			Help:      "Request latency in seconds",
			Buckets:   buckets,
		}, labels),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "requests_in_flight",
			Help:      "Number of requests currently being handled",
		}),
		filter:  config.Filter,
		sampler: NewRandomSampler(rate),
	}

	for _, collector := range []prometheus.Collector{
		c.requests,
		c.errors,
		c.latency,
		c.inFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := c.registry.Register(collector); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Registry returns the registry the collector's metrics live in.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler exposing the collected metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Middleware returns the chain entry that records every request passing through it.
// The status of a failed request is the one the dispatcher will answer with.
func (c *Collector) Middleware() common.Middleware {
	return common.Middleware{
		Name:     "metrics",
		Priority: PriorityMetrics,
		Handler: func(ctx *common.Context, next common.Next) (common.Result, error) {
			// Check if we should collect metrics for this request
			if c.filter != nil && !c.filter.Filter(ctx) {
				return next()
			}

			// Check if we should sample this request
			if !c.sampler.Sample() {
				return next()
			}

			method := ctx.Request.Method()
			c.inFlight.Inc()
			defer c.inFlight.Dec()

			start := time.Now()
			res, err := next()
			duration := time.Since(start)

			code := ctx.Response.StatusCode()
			if err != nil {
				code = common.StatusFromError(err)
			}
			status := strconv.Itoa(code)

			c.requests.WithLabelValues(method, status).Inc()
			c.latency.WithLabelValues(method, status).Observe(duration.Seconds())
			if code >= 400 {
				c.errors.WithLabelValues(method, status).Inc()
			}

			return res, err
		},
	}
}
