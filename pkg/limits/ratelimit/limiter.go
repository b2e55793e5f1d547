package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"mercator-hq/callisto/pkg/kvstore"
)

// Limiter decides whether a client's request may proceed.
type Limiter interface {
	// Check records one request for client and returns the resulting
	// decision. A non-nil error means the limiter could not reach its
	// backing store; callers must treat that as a refusal.
	Check(ctx context.Context, client string) (Decision, error)
}

// FixedWindowLimiter is a Limiter backed by a shared key-value store.
//
// Because the counters live in the shared store, all instances pointed at
// the same store enforce one combined limit per client.
type FixedWindowLimiter struct {
	store    kvstore.Store
	settings atomic.Pointer[Settings]
	logger   *slog.Logger
}

// NewFixedWindowLimiter creates a limiter over the given store.
func NewFixedWindowLimiter(store kvstore.Store, settings Settings, logger *slog.Logger) *FixedWindowLimiter {
	if logger == nil {
		logger = slog.Default()
	}

	l := &FixedWindowLimiter{
		store:  store,
		logger: logger,
	}
	l.settings.Store(&settings)
	return l
}

// UpdateSettings swaps the limiter's parameters. In-flight checks finish
// with the settings they started with; new windows opened by clients keep
// the length they were created with until they expire.
func (l *FixedWindowLimiter) UpdateSettings(settings Settings) {
	l.settings.Store(&settings)
}

// Check implements Limiter.
func (l *FixedWindowLimiter) Check(ctx context.Context, client string) (Decision, error) {
	s := l.settings.Load()
	key := KeyPrefix + client

	count, err := l.store.IncrWithWindow(ctx, key, s.Window)
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit check for %q: %w", client, err)
	}

	if count <= s.RequestsPerWindow {
		return Decision{
			Allowed:   true,
			Limit:     s.RequestsPerWindow,
			Remaining: s.RequestsPerWindow - count,
		}, nil
	}

	retryAfter, err := l.store.TTL(ctx, key)
	if err != nil {
		// The request is already rejected; a failed TTL read only costs
		// the client a precise retry hint.
		l.logger.Warn("rate limiter could not read window TTL",
			slog.String("client", client),
			slog.String("error", err.Error()))
		retryAfter = 0
	}
	if retryAfter < time.Second {
		retryAfter = time.Second
	}

	return Decision{
		Allowed:    false,
		Limit:      s.RequestsPerWindow,
		RetryAfter: retryAfter,
	}, nil
}
