package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeConfigFile writes a temporary config file and returns its path.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfigFile(t, "")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("ListenAddress = %q, want %q", cfg.Server.ListenAddress, DefaultListenAddress)
	}
	if cfg.RateLimit.RequestsPerWindow != DefaultRequestsPerWindow {
		t.Errorf("RequestsPerWindow = %d, want %d", cfg.RateLimit.RequestsPerWindow, DefaultRequestsPerWindow)
	}
	if cfg.RateLimit.Window != DefaultRateLimitWindow {
		t.Errorf("Window = %v, want %v", cfg.RateLimit.Window, DefaultRateLimitWindow)
	}
	if cfg.Breaker.FailureThreshold != DefaultFailureThreshold {
		t.Errorf("FailureThreshold = %d, want %d", cfg.Breaker.FailureThreshold, DefaultFailureThreshold)
	}
	if cfg.Breaker.ResetTimeout != DefaultResetTimeout {
		t.Errorf("ResetTimeout = %v, want %v", cfg.Breaker.ResetTimeout, DefaultResetTimeout)
	}
	if cfg.Cache.TTL != DefaultCacheTTL {
		t.Errorf("Cache.TTL = %v, want %v", cfg.Cache.TTL, DefaultCacheTTL)
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("Metrics.Enabled should default to true")
	}
	if cfg.Telemetry.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Telemetry.Logging.Level, "info")
	}
}

func TestLoadConfig_ExplicitValues(t *testing.T) {
	path := writeConfigFile(t, `
server:
  listen_address: "0.0.0.0:9000"
  read_timeout: 10s
rate_limit:
  requests_per_window: 5
  window: 30s
breaker:
  failure_threshold: 2
  reset_timeout: 15s
cache:
  ttl: 120s
redis:
  addr: "localhost:6379"
  op_timeout: 250ms
telemetry:
  logging:
    level: debug
    format: text
  metrics:
    enabled: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9000" {
		t.Errorf("ListenAddress = %q, want 0.0.0.0:9000", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("ReadTimeout = %v, want 10s", cfg.Server.ReadTimeout)
	}
	if cfg.RateLimit.RequestsPerWindow != 5 {
		t.Errorf("RequestsPerWindow = %d, want 5", cfg.RateLimit.RequestsPerWindow)
	}
	if cfg.RateLimit.Window != 30*time.Second {
		t.Errorf("Window = %v, want 30s", cfg.RateLimit.Window)
	}
	if cfg.Breaker.FailureThreshold != 2 {
		t.Errorf("FailureThreshold = %d, want 2", cfg.Breaker.FailureThreshold)
	}
	if cfg.Cache.TTL != 120*time.Second {
		t.Errorf("Cache.TTL = %v, want 120s", cfg.Cache.TTL)
	}
	if cfg.Redis.OpTimeout != 250*time.Millisecond {
		t.Errorf("Redis.OpTimeout = %v, want 250ms", cfg.Redis.OpTimeout)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("Metrics.Enabled = true, want false (explicit false must win over default)")
	}
	if cfg.Telemetry.Logging.Format != "text" {
		t.Errorf("Logging.Format = %q, want text", cfg.Telemetry.Logging.Format)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [not a mapping")

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML, got nil")
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
server:
  listen_address: "127.0.0.1:8000"
rate_limit:
  requests_per_window: 10
`)

	t.Setenv("CALLISTO_SERVER_LISTEN_ADDRESS", "0.0.0.0:8080")
	t.Setenv("CALLISTO_RATE_LIMIT_REQUESTS_PER_WINDOW", "3")
	t.Setenv("CALLISTO_RATE_LIMIT_WINDOW", "90s")
	t.Setenv("CALLISTO_LOG_LEVEL", "warn")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides failed: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:8080" {
		t.Errorf("ListenAddress = %q, want env override 0.0.0.0:8080", cfg.Server.ListenAddress)
	}
	if cfg.RateLimit.RequestsPerWindow != 3 {
		t.Errorf("RequestsPerWindow = %d, want env override 3", cfg.RateLimit.RequestsPerWindow)
	}
	if cfg.RateLimit.Window != 90*time.Second {
		t.Errorf("Window = %v, want env override 90s", cfg.RateLimit.Window)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want env override warn", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidOverride(t *testing.T) {
	path := writeConfigFile(t, "")

	// An override that fails validation must be rejected.
	t.Setenv("CALLISTO_RATE_LIMIT_REQUESTS_PER_WINDOW", "-5")

	_, err := LoadConfigWithEnvOverrides(path)
	if err == nil {
		t.Fatal("expected validation error for negative requests_per_window, got nil")
	}
}
