// Package cache implements a cache-aside layer over the shared key-value
// store.
//
// # Read Path
//
//  1. Look the key up in the store. A hit returns the stored bytes
//     verbatim, with no recomputation or re-serialization.
//  2. On a miss, run the compute function, store its result under the key
//     with the configured TTL, and return it.
//
// Only successful computations are cached. A compute error of any kind,
// including "no data", propagates to the caller and leaves the cache
// untouched, so data arriving moments later is visible immediately.
//
// # Failure Policy
//
// The two store interactions fail differently:
//
//   - A failed read aborts the request. Falling through to compute on a
//     store outage would silently turn every request into a full
//     recomputation stampede.
//   - A failed write is logged and the freshly computed value is still
//     returned. The caller's request succeeded; only future requests lose
//     the shortcut.
//
// # Stampede Control
//
// Concurrent misses for the same key are collapsed: one caller computes,
// the rest wait for and share its result.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"mercator-hq/callisto/pkg/kvstore"
)

// ComputeFunc produces the value for a key on a cache miss.
type ComputeFunc func(ctx context.Context) ([]byte, error)

// call tracks one in-flight computation shared by concurrent misses.
type call struct {
	done chan struct{}
	val  []byte
	err  error
}

// Computer reads through the cache and computes on misses.
type Computer struct {
	store  kvstore.Store
	logger *slog.Logger

	// ttl is stored as nanoseconds so configuration reloads can swap it
	// without a lock.
	ttl atomic.Int64

	mu       sync.Mutex
	inflight map[string]*call
}

// New creates a Computer with the given TTL for cached values.
func New(store kvstore.Store, ttl time.Duration, logger *slog.Logger) *Computer {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Computer{
		store:    store,
		logger:   logger,
		inflight: make(map[string]*call),
	}
	c.ttl.Store(int64(ttl))
	return c
}

// SetTTL replaces the TTL applied to future writes. Existing entries keep
// the TTL they were written with.
func (c *Computer) SetTTL(ttl time.Duration) {
	c.ttl.Store(int64(ttl))
}

// GetOrCompute returns the value for key, from the cache when present and
// from compute otherwise. fromCache reports which path served the value.
func (c *Computer) GetOrCompute(ctx context.Context, key string, compute ComputeFunc) (value []byte, fromCache bool, err error) {
	cached, err := c.store.Get(ctx, key)
	if err == nil {
		return cached, true, nil
	}
	if !errors.Is(err, kvstore.ErrKeyNotFound) {
		return nil, false, fmt.Errorf("cache read for %q: %w", key, err)
	}

	val, err := c.computeShared(ctx, key, compute)
	return val, false, err
}

// computeShared runs compute for key, collapsing concurrent callers onto a
// single execution.
func (c *Computer) computeShared(ctx context.Context, key string, compute ComputeFunc) ([]byte, error) {
	c.mu.Lock()
	if existing, ok := c.inflight[key]; ok {
		c.mu.Unlock()

		select {
		case <-existing.done:
			return existing.val, existing.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	leader := &call{done: make(chan struct{})}
	c.inflight[key] = leader
	c.mu.Unlock()

	leader.val, leader.err = compute(ctx)

	if leader.err == nil {
		ttl := time.Duration(c.ttl.Load())
		if err := c.store.SetWithTTL(ctx, key, leader.val, ttl); err != nil {
			// The value was computed; only the shortcut for future
			// requests is lost.
			c.logger.Warn("cache write failed",
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
	}

	c.mu.Lock()
	delete(c.inflight, key)
	c.mu.Unlock()
	close(leader.done)

	return leader.val, leader.err
}
