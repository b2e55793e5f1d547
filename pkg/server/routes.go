package server

import (
	"net/http"

	"mercator-hq/callisto/pkg/server/handlers"
	"mercator-hq/callisto/pkg/server/middleware"
)

// setupRoutes configures HTTP routes and the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	// Recorder interfaces stay nil when metrics are disabled; the handlers
	// and middleware skip recording in that case.
	var (
		ingestRecorder    handlers.IngestRecorder
		cacheRecorder     handlers.CacheRecorder
		rateLimitRecorder middleware.RateLimitRecorder
	)
	if s.deps.Collector != nil {
		ingestRecorder = s.deps.Collector
		cacheRecorder = s.deps.Collector
		rateLimitRecorder = s.deps.Collector
	}

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler()
	readyHandler := handlers.NewReadyHandler(s.deps.KVStore)
	ingestHandler := handlers.NewIngestHandler(s.deps.Metrics, ingestRecorder, nil)
	summaryHandler := handlers.NewSummaryHandler(s.deps.Metrics, s.deps.Computer, cacheRecorder, nil)
	externalHandler := handlers.NewExternalDataHandler(s.deps.Breaker, s.deps.External, nil)

	mux.Handle("/health", s.instrument("/health", healthHandler))
	mux.Handle("/ready", s.instrument("/ready", readyHandler))
	mux.Handle("/api/metrics", s.instrument("/api/metrics",
		middleware.RateLimit(s.deps.Limiter, rateLimitRecorder, nil)(ingestHandler)))
	mux.Handle("/api/metrics/summary", s.instrument("/api/metrics/summary", summaryHandler))
	mux.Handle("/api/external-data", s.instrument("/api/external-data", externalHandler))

	if s.deps.Collector != nil {
		mux.Handle("/metrics", s.deps.Collector.Handler())
	}

	// Apply the global middleware chain, innermost first.
	var handler http.Handler = mux

	if s.deps.Tracer != nil {
		handler = s.deps.Tracer.Middleware(handler)
	}
	handler = middleware.Logging(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(handler)

	return handler
}

// instrument wraps handler with per-route request metrics when a collector
// is configured.
func (s *Server) instrument(route string, handler http.Handler) http.Handler {
	if s.deps.Collector == nil {
		return handler
	}
	return middleware.Metrics(s.deps.Collector, route)(handler)
}
