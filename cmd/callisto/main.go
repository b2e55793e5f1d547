// Callisto is a resilient metric ingestion and summary service.
//
// It accepts scalar metric observations over HTTP and serves aggregate
// summaries per metric type, protecting itself with three guards:
//   - A per-client fixed-window rate limiter on the ingestion route
//   - A circuit breaker around the external data dependency
//   - A cache-aside layer for computed summaries
//
// Usage:
//
//	# Start server with default configuration
//	callisto run
//
//	# Start with custom configuration file
//	callisto run --config /path/to/config.yaml
//
//	# Validate configuration without starting the server
//	callisto run --dry-run
//
//	# Show version information
//	callisto version
package main

func main() {
	Execute()
}
