package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "callisto",
	Short: "Callisto - resilient metric ingestion and summary service",
	Long: `Callisto is a metric ingestion and summary service built around three
resilience guards:

  - A per-client fixed-window rate limiter on the ingestion route
  - A circuit breaker around the external data dependency
  - A cache-aside layer for computed summaries

Counters and cached summaries live in a shared key-value store (Redis, or
an in-process store for single-instance deployments), so multiple replicas
enforce one combined limit per client.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
