// Package metrics collects Prometheus metrics for digwebs applications.
// A Collector contributes a chain middleware that records every request and an
// http.Handler that exposes the collected metrics.
package metrics

import (
	"math/rand"

	"github.com/Suhaibinator/digwebs/pkg/common"
)

// PriorityMetrics is the default chain priority of the metrics middleware.
// It runs after tracing and logging so their work is included in the latency.
const PriorityMetrics = 400

// MetricsFilter determines whether to collect metrics for a request
type MetricsFilter interface {
	// Filter returns true if metrics should be collected for the request
	Filter(c *common.Context) bool
}

// FilterFunc adapts a function to MetricsFilter
type FilterFunc func(c *common.Context) bool

// Filter calls f(c).
func (f FilterFunc) Filter(c *common.Context) bool {
	return f(c)
}

// MetricsSampler samples metrics at a given rate
type MetricsSampler interface {
	// Sample returns true if the request should be recorded
	Sample() bool
}

// randomSampler is a simple implementation of MetricsSampler
type randomSampler struct {
	rate float64
}

// NewRandomSampler creates a new random sampler with the given rate, clamped to [0, 1]
func NewRandomSampler(rate float64) MetricsSampler {
	if rate < 0.0 {
		rate = 0.0
	}
	if rate > 1.0 {
		rate = 1.0
	}
	return &randomSampler{
		rate: rate,
	}
}

// Sample returns true if the metric should be sampled
func (s *randomSampler) Sample() bool {
	// Always sample if rate is 1.0
	if s.rate >= 1.0 {
		return true
	}
	// Never sample if rate is 0.0
	if s.rate <= 0.0 {
		return false
	}
	return rand.Float64() < s.rate
}

// Config configures a Collector
type Config struct {
	// Namespace and Subsystem prefix every metric name
	Namespace string
	Subsystem string

	// LatencyBuckets defines the buckets for the latency histogram.
	// prometheus.DefBuckets is used when empty.
	LatencyBuckets []float64

	// SamplingRate defines the sampling rate for metrics (0.0-1.0). Zero means 1.0.
	SamplingRate float64

	// Filter excludes requests from collection when it returns false
	Filter MetricsFilter
}
