// Package server provides the HTTP server for the metric ingestion and
// summary API.
//
// This package ties together the handlers, middleware, and resilience
// components (rate limiter, circuit breaker, summary cache) and provides
// server lifecycle management including start, shutdown, and health checks.
//
// # Architecture
//
// The server package is the top-level orchestrator that:
//   - Sets up HTTP routes and handlers
//   - Chains middleware for cross-cutting concerns
//   - Applies the rate limiter to the ingestion route
//   - Manages graceful shutdown when its context is canceled (the run
//     command binds that context to SIGINT/SIGTERM)
//
// # Middleware Chain
//
// Requests pass through, outermost first: Recovery, RequestID, Logging,
// and tracing; the ingestion route additionally passes through the rate
// limiter, and every API route records request metrics.
package server
