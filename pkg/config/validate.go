package config

import (
	"fmt"
	"net"
	"strings"
)

// Validate checks the configuration for invalid or inconsistent values.
// It returns the first error encountered, or nil if the configuration
// is valid.
func Validate(cfg *Config) error {
	if err := validateServer(&cfg.Server); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := validateRedis(&cfg.Redis); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if err := validateRateLimit(&cfg.RateLimit); err != nil {
		return fmt.Errorf("rate_limit: %w", err)
	}
	if err := validateBreaker(&cfg.Breaker); err != nil {
		return fmt.Errorf("breaker: %w", err)
	}
	if err := validateCache(&cfg.Cache); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := validateExternal(&cfg.External); err != nil {
		return fmt.Errorf("external: %w", err)
	}
	if err := validateRetention(&cfg.Retention); err != nil {
		return fmt.Errorf("retention: %w", err)
	}
	if err := validateTelemetry(&cfg.Telemetry); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	return nil
}

func validateServer(cfg *ServerConfig) error {
	if cfg.ListenAddress == "" {
		return fmt.Errorf("listen_address must not be empty")
	}
	if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		return fmt.Errorf("listen_address %q is not a valid host:port: %w", cfg.ListenAddress, err)
	}
	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}
	if cfg.MaxHeaderBytes < 0 {
		return fmt.Errorf("max_header_bytes must not be negative")
	}
	return nil
}

func validateRedis(cfg *RedisConfig) error {
	if cfg.Addr != "" && !strings.Contains(cfg.Addr, ":") {
		return fmt.Errorf("addr %q must be in host:port form", cfg.Addr)
	}
	if cfg.DB < 0 {
		return fmt.Errorf("db must not be negative")
	}
	if cfg.OpTimeout <= 0 {
		return fmt.Errorf("op_timeout must be positive")
	}
	return nil
}

func validateRateLimit(cfg *RateLimitConfig) error {
	if cfg.RequestsPerWindow <= 0 {
		return fmt.Errorf("requests_per_window must be positive")
	}
	if cfg.Window <= 0 {
		return fmt.Errorf("window must be positive")
	}
	return nil
}

func validateBreaker(cfg *BreakerConfig) error {
	if cfg.FailureThreshold <= 0 {
		return fmt.Errorf("failure_threshold must be positive")
	}
	if cfg.ResetTimeout <= 0 {
		return fmt.Errorf("reset_timeout must be positive")
	}
	if cfg.CallTimeout <= 0 {
		return fmt.Errorf("call_timeout must be positive")
	}
	return nil
}

func validateCache(cfg *CacheConfig) error {
	if cfg.TTL <= 0 {
		return fmt.Errorf("ttl must be positive")
	}
	return nil
}

func validateExternal(cfg *ExternalConfig) error {
	if cfg.FailureRate < 0 || cfg.FailureRate > 1 {
		return fmt.Errorf("failure_rate must be within [0.0, 1.0], got %v", cfg.FailureRate)
	}
	return nil
}

func validateRetention(cfg *RetentionConfig) error {
	if cfg.MaxRecords < 0 {
		return fmt.Errorf("max_records must not be negative")
	}
	return nil
}

func validateTelemetry(cfg *TelemetryConfig) error {
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format %q is not one of json, text", cfg.Logging.Format)
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be within [0.0, 1.0], got %v", cfg.Tracing.SampleRatio)
	}
	return nil
}
