// Package metrics provides Prometheus instrumentation for Callisto.
//
// All metrics live in a dedicated registry owned by the Collector, exposed
// through the /metrics endpoint. Components record through the Collector
// rather than registering metrics themselves, which keeps metric naming and
// cardinality in one place.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/callisto/pkg/config"
)

// Collector is the orchestrator for all Prometheus metrics in Callisto.
// It manages metric registration and provides a unified interface for
// recording metrics across components.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Request metrics
	requestMetrics *RequestMetrics

	// Resilience component metrics (limiter, breaker, cache)
	resilienceMetrics *ResilienceMetrics

	// Ingestion metrics
	ingestMetrics *IngestMetrics
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a fresh
// registry is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// Set defaults if not specified
	if cfg.Namespace == "" {
		cfg.Namespace = "callisto"
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		// Optimized for a local data-plane service (1ms - 10s)
		cfg.RequestDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0}
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}

	c.requestMetrics = NewRequestMetrics(cfg, registry)
	c.resilienceMetrics = NewResilienceMetrics(cfg, registry)
	c.ingestMetrics = NewIngestMetrics(cfg, registry)

	return c
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordRequest records metrics for a completed HTTP request.
func (c *Collector) RecordRequest(route, method string, status int, durationSeconds float64) {
	c.requestMetrics.Record(route, method, status, durationSeconds)
}

// RecordRateLimitDecision records the outcome of a rate-limit admission
// check. The outcome is one of "allowed", "rejected", or "error".
func (c *Collector) RecordRateLimitDecision(outcome string) {
	c.resilienceMetrics.RecordRateLimitDecision(outcome)
}

// SetBreakerState records the current circuit breaker state as a gauge
// (0=closed, 1=open, 2=half-open).
func (c *Collector) SetBreakerState(state float64) {
	c.resilienceMetrics.SetBreakerState(state)
}

// RecordBreakerTransition records a circuit breaker state transition.
func (c *Collector) RecordBreakerTransition(from, to string) {
	c.resilienceMetrics.RecordBreakerTransition(from, to)
}

// RecordCacheHit records a summary cache hit.
func (c *Collector) RecordCacheHit() {
	c.resilienceMetrics.RecordCacheResult("hit")
}

// RecordCacheMiss records a summary cache miss.
func (c *Collector) RecordCacheMiss() {
	c.resilienceMetrics.RecordCacheResult("miss")
}

// RecordCacheError records a summary cache store failure.
func (c *Collector) RecordCacheError() {
	c.resilienceMetrics.RecordCacheResult("error")
}

// RecordIngestedMetric records a stored metric sample by type label.
func (c *Collector) RecordIngestedMetric(metricType string) {
	c.ingestMetrics.RecordIngested(metricType)
}

// SetStoredRecords records the current number of metric records held in
// memory.
func (c *Collector) SetStoredRecords(n float64) {
	c.ingestMetrics.SetStoredRecords(n)
}
