package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/breaker"
	"mercator-hq/callisto/pkg/cache"
	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/external"
	"mercator-hq/callisto/pkg/kvstore"
	"mercator-hq/callisto/pkg/limits/ratelimit"
	"mercator-hq/callisto/pkg/metricstore"
	"mercator-hq/callisto/pkg/server"
	"mercator-hq/callisto/pkg/telemetry/logging"
	"mercator-hq/callisto/pkg/telemetry/metrics"
	"mercator-hq/callisto/pkg/telemetry/tracing"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
	watchConfig   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Callisto API server",
	Long: `Start the Callisto API server with the specified configuration.

The server listens on the configured address and serves metric ingestion,
summary, and external-data routes, guarded by the rate limiter and circuit
breaker.

Examples:
  # Start with default config
  callisto run

  # Start with custom config
  callisto run --config /etc/callisto/config.yaml

  # Override listen address
  callisto run --listen 0.0.0.0:8080

  # Reload limiter and cache settings when the config file changes
  callisto run --watch-config

  # Validate config without starting server
  callisto run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
	runCmd.Flags().BoolVar(&runFlags.watchConfig, "watch-config", false, "reload settings when the config file changes")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	// Initialize logging based on config
	if _, err := logging.Setup(&cfg.Telemetry.Logging); err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	printBanner(cfg)

	// One SIGINT or SIGTERM stops the server, scheduler, and watcher
	// through this context.
	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	// Shared key-value store: Redis when configured, in-process otherwise.
	var kv kvstore.Store
	if cfg.Redis.Addr != "" {
		redisStore, err := kvstore.NewRedisStore(&cfg.Redis)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		kv = redisStore
		fmt.Printf("✓ Connected to Redis at %s\n", cfg.Redis.Addr)
	} else {
		kv = kvstore.NewMemoryStore()
		slog.Warn("no redis address configured, using in-process store; limits are per instance")
	}
	defer kv.Close()

	// Metrics collector
	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	}

	// Tracing
	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to initialize tracing: %w", err))
	}
	defer tracer.Shutdown(context.Background())

	// Rate limiter
	limiter := ratelimit.NewFixedWindowLimiter(kv, ratelimit.Settings{
		RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
		Window:            cfg.RateLimit.Window,
	}, slog.Default())

	// Circuit breaker, reporting transitions to the collector
	breakerOpts := []breaker.Option{}
	if collector != nil {
		breakerOpts = append(breakerOpts, breaker.WithStateChangeHook(func(from, to breaker.State) {
			collector.RecordBreakerTransition(from.String(), to.String())
			collector.SetBreakerState(breakerStateValue(to))
		}))
	}
	circuitBreaker := breaker.New(breaker.Settings{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		ResetTimeout:     cfg.Breaker.ResetTimeout,
		CallTimeout:      cfg.Breaker.CallTimeout,
	}, slog.Default(), breakerOpts...)

	// Summary cache
	computer := cache.New(kv, cfg.Cache.TTL, slog.Default())

	// Metric record store and retention
	records := metricstore.NewMemoryStore()

	pruner := metricstore.NewPruner(records, &cfg.Retention, slog.Default())
	scheduler := metricstore.NewScheduler(pruner)
	if err := scheduler.Start(ctx); err != nil {
		return cli.NewConfigError("retention.prune_schedule", err.Error())
	}
	defer scheduler.Stop()

	// External dependency: real upstream when configured, simulated
	// otherwise.
	var externalSvc external.Service
	if cfg.External.UpstreamURL != "" {
		externalSvc = external.NewHTTPService(cfg.External.UpstreamURL)
	} else {
		externalSvc = external.NewSimulatedService(cfg.External.FailureRate)
	}

	// Optional config hot reload for runtime-tunable settings
	if runFlags.watchConfig {
		watcher, err := config.NewWatcher(cfgFile, slog.Default())
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to watch config: %w", err))
		}
		defer watcher.Stop()

		go func() {
			err := watcher.Watch(ctx, func(newCfg *config.Config) {
				limiter.UpdateSettings(ratelimit.Settings{
					RequestsPerWindow: newCfg.RateLimit.RequestsPerWindow,
					Window:            newCfg.RateLimit.Window,
				})
				computer.SetTTL(newCfg.Cache.TTL)
				if err := logging.SetLevel(&newCfg.Telemetry.Logging); err != nil {
					slog.Warn("could not apply reloaded log level", "error", err)
				}
				slog.Info("configuration reloaded",
					"requests_per_window", newCfg.RateLimit.RequestsPerWindow,
					"window", newCfg.RateLimit.Window.String(),
					"cache_ttl", newCfg.Cache.TTL.String(),
				)
			})
			if err != nil {
				slog.Error("config watcher stopped", "error", err)
			}
		}()
		fmt.Printf("✓ Watching %s for changes\n", cfgFile)
	}

	// Create HTTP server
	srv := server.NewServer(&cfg.Server, server.Dependencies{
		KVStore:   kv,
		Limiter:   limiter,
		Breaker:   circuitBreaker,
		Computer:  computer,
		Metrics:   records,
		External:  externalSvc,
		Collector: collector,
		Tracer:    tracer,
	})

	fmt.Println()
	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
	if collector != nil {
		fmt.Printf("✓ Metrics endpoint: http://%s/metrics\n", cfg.Server.ListenAddress)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Start blocks until a signal arrives or the listener fails.
	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Println("✓ Server stopped")
	return nil
}

// breakerStateValue maps breaker states onto the gauge encoding
// (0 closed, 1 open, 2 half-open).
func breakerStateValue(s breaker.State) float64 {
	switch s {
	case breaker.StateOpen:
		return 1
	case breaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}

func printBanner(cfg *config.Config) {
	fmt.Printf("Callisto v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	slog.Debug("rate limit configured",
		"requests_per_window", cfg.RateLimit.RequestsPerWindow,
		"window", cfg.RateLimit.Window.String(),
	)
	slog.Debug("circuit breaker configured",
		"failure_threshold", cfg.Breaker.FailureThreshold,
		"reset_timeout", cfg.Breaker.ResetTimeout.String(),
	)
	if cfg.External.UpstreamURL != "" {
		slog.Debug("external dependency", "upstream_url", cfg.External.UpstreamURL)
	} else {
		slog.Debug("external dependency simulated", "failure_rate", cfg.External.FailureRate)
	}
}
