package main

import (
	"testing"

	"mercator-hq/callisto/pkg/breaker"
)

func TestVersionCommandExists(t *testing.T) {
	// Test that the version command is properly initialized
	if versionCmd == nil {
		t.Fatal("versionCmd is nil")
	}

	if versionCmd.Use != "version" {
		t.Errorf("versionCmd.Use = %q, want %q", versionCmd.Use, "version")
	}

	if versionCmd.Short == "" {
		t.Error("versionCmd.Short should not be empty")
	}

	if versionCmd.Run == nil {
		t.Error("versionCmd.Run should not be nil")
	}
}

func TestRunCommandFlags(t *testing.T) {
	for _, name := range []string{"listen", "log-level", "dry-run", "watch-config"} {
		if runCmd.Flags().Lookup(name) == nil {
			t.Errorf("run command missing --%s flag", name)
		}
	}
}

func TestBreakerStateValue(t *testing.T) {
	cases := map[breaker.State]float64{
		breaker.StateClosed:   0,
		breaker.StateOpen:     1,
		breaker.StateHalfOpen: 2,
	}
	for state, want := range cases {
		if got := breakerStateValue(state); got != want {
			t.Errorf("breakerStateValue(%v) = %v, want %v", state, got, want)
		}
	}
}
