package config

import "time"

// Config is the root configuration structure for Callisto.
// It contains all configuration sections for the HTTP server, the shared
// key-value store, the resilience components (rate limiter, circuit breaker,
// summary cache), the external data dependency, metric retention, and
// telemetry settings.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts, and graceful shutdown behavior.
	Server ServerConfig `yaml:"server"`

	// Redis contains connection settings for the shared key-value store that
	// backs rate-limit counters and summary cache entries.
	Redis RedisConfig `yaml:"redis"`

	// RateLimit contains configuration for the per-client fixed-window
	// ingestion rate limiter.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Breaker contains configuration for the circuit breaker guarding calls
	// to the external data service.
	Breaker BreakerConfig `yaml:"breaker"`

	// Cache contains configuration for the cache-aside summary layer.
	Cache CacheConfig `yaml:"cache"`

	// External contains configuration for the external data dependency.
	External ExternalConfig `yaml:"external"`

	// Retention contains configuration for scheduled pruning of stored
	// metric records.
	Retention RetentionConfig `yaml:"retention"`

	// Telemetry contains configuration for observability including logging,
	// metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8000", "0.0.0.0:8000").
	// Default: "127.0.0.1:8000"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown
	// before in-flight requests are abandoned.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// RedisConfig contains connection settings for the shared key-value store.
//
// When Addr is empty, Callisto falls back to an in-process store. The
// in-process store is suitable for development and tests only: rate-limit
// counters and cache entries are then invisible to other instances.
type RedisConfig struct {
	// Addr is the Redis server address in "host:port" form.
	// Empty disables Redis and selects the in-process store.
	Addr string `yaml:"addr"`

	// Password is the Redis AUTH password. Empty means no authentication.
	Password string `yaml:"password"`

	// DB is the Redis logical database number.
	// Default: 0
	DB int `yaml:"db"`

	// OpTimeout bounds every individual store operation. Operations that
	// exceed it are reported as store failures to the caller.
	// Default: 500ms
	OpTimeout time.Duration `yaml:"op_timeout"`
}

// RateLimitConfig contains configuration for the fixed-window rate limiter.
//
// The window is anchored at the first request of each window: the counter's
// TTL is set exactly once, when the count transitions from 0 to 1, and is
// never refreshed by later requests in the same window.
type RateLimitConfig struct {
	// RequestsPerWindow is the maximum number of ingestion requests a single
	// client may make within one window.
	// Default: 10
	RequestsPerWindow int64 `yaml:"requests_per_window"`

	// Window is the fixed window length.
	// Default: 60s
	Window time.Duration `yaml:"window"`
}

// BreakerConfig contains configuration for the circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures after which the
	// breaker opens.
	// Default: 3
	FailureThreshold int `yaml:"failure_threshold"`

	// ResetTimeout is how long the breaker stays open before permitting a
	// half-open trial call.
	// Default: 30s
	ResetTimeout time.Duration `yaml:"reset_timeout"`

	// CallTimeout bounds each wrapped call to the external service. A call
	// that exceeds it counts as a failure.
	// Default: 10s
	CallTimeout time.Duration `yaml:"call_timeout"`
}

// CacheConfig contains configuration for the cache-aside summary layer.
type CacheConfig struct {
	// TTL is how long computed summaries stay valid in the shared store.
	// Default: 60s
	TTL time.Duration `yaml:"ttl"`
}

// ExternalConfig contains configuration for the external data dependency.
type ExternalConfig struct {
	// UpstreamURL is the URL fetched by GET /api/external-data. When empty,
	// a simulated source with the configured FailureRate is used instead.
	UpstreamURL string `yaml:"upstream_url"`

	// FailureRate is the failure probability of the simulated source,
	// in [0.0, 1.0]. Ignored when UpstreamURL is set.
	// Default: 0.3
	FailureRate float64 `yaml:"failure_rate"`
}

// RetentionConfig contains configuration for scheduled metric pruning.
type RetentionConfig struct {
	// MaxRecords caps the number of metric records kept in memory. The
	// oldest records are pruned first. Zero means unlimited.
	// Default: 0
	MaxRecords int `yaml:"max_records"`

	// PruneSchedule is a cron expression controlling when pruning runs
	// (e.g., "0 * * * *" for hourly). Empty disables scheduled pruning.
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format ("json" or "text").
	// Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether the /metrics endpoint is served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the Prometheus metric namespace.
	// Default: "callisto"
	Namespace string `yaml:"namespace"`

	// RequestDurationBuckets overrides the request duration histogram
	// buckets, in seconds.
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector endpoint (host:port).
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName identifies this service in exported traces.
	// Default: "callisto"
	ServiceName string `yaml:"service_name"`

	// SampleRatio is the fraction of requests to sample, in [0.0, 1.0].
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`
}
