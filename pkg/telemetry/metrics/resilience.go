package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/callisto/pkg/config"
)

// ResilienceMetrics tracks the behavior of the rate limiter, circuit breaker,
// and summary cache.
//
// Metrics:
//   - callisto_rate_limit_decisions_total: Admission outcomes (allowed/rejected/error)
//   - callisto_breaker_state: Current breaker state (0=closed, 1=open, 2=half-open)
//   - callisto_breaker_transitions_total: State transitions by from/to
//   - callisto_cache_results_total: Summary cache outcomes (hit/miss/error)
type ResilienceMetrics struct {
	rateLimitDecisions *prometheus.CounterVec
	breakerState       prometheus.Gauge
	breakerTransitions *prometheus.CounterVec
	cacheResults       *prometheus.CounterVec
}

// NewResilienceMetrics creates and registers resilience metrics with the
// provided registry.
func NewResilienceMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ResilienceMetrics {
	rm := &ResilienceMetrics{
		rateLimitDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "rate_limit_decisions_total",
				Help:      "Total rate limit admission decisions by outcome",
			},
			[]string{"outcome"},
		),

		breakerState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "breaker_state",
				Help:      "Current circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
		),

		breakerTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "breaker_transitions_total",
				Help:      "Total circuit breaker state transitions",
			},
			[]string{"from", "to"},
		),

		cacheResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "cache_results_total",
				Help:      "Total summary cache lookups by result",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		rm.rateLimitDecisions,
		rm.breakerState,
		rm.breakerTransitions,
		rm.cacheResults,
	)

	return rm
}

// RecordRateLimitDecision records an admission outcome.
func (rm *ResilienceMetrics) RecordRateLimitDecision(outcome string) {
	rm.rateLimitDecisions.WithLabelValues(outcome).Inc()
}

// SetBreakerState records the current breaker state.
func (rm *ResilienceMetrics) SetBreakerState(state float64) {
	rm.breakerState.Set(state)
}

// RecordBreakerTransition records a breaker state transition.
func (rm *ResilienceMetrics) RecordBreakerTransition(from, to string) {
	rm.breakerTransitions.WithLabelValues(from, to).Inc()
}

// RecordCacheResult records a cache lookup outcome.
func (rm *ResilienceMetrics) RecordCacheResult(result string) {
	rm.cacheResults.WithLabelValues(result).Inc()
}
