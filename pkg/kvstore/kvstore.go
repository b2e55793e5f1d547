// Package kvstore abstracts the shared key-value store that backs rate-limit
// counters and summary cache entries.
//
// Two implementations are provided with the same API:
//
//   - RedisStore: a Redis-backed store, safe to share across many Callisto
//     instances. Counter creation and window expiry happen in a single Lua
//     script, so a counter can never be left without a TTL.
//
//   - MemoryStore: an in-process store for unit tests, local development,
//     and single-instance deployments. Because its state is local to the
//     process, limits and cache entries are not shared across replicas.
package kvstore

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned by Get when the key does not exist or its TTL
// has elapsed.
var ErrKeyNotFound = errors.New("kvstore: key not found")

// Store is the shared key-value store interface.
//
// All mutation goes through atomic primitives; callers never read-modify-write
// at the application level, so concurrent clients cannot lose updates.
type Store interface {
	// IncrWithWindow atomically increments the counter at key and returns
	// the new count. When the increment creates the counter (count
	// transitions from 0 to 1), the window TTL is set in the same atomic
	// step; later increments within the window never refresh it, so the
	// window stays anchored to its first request.
	IncrWithWindow(ctx context.Context, key string, window time.Duration) (int64, error)

	// TTL returns the remaining time-to-live for key. A zero or negative
	// result means the key is missing, already expired, or has no expiry.
	TTL(ctx context.Context, key string) (time.Duration, error)

	// Get returns the value stored at key, or ErrKeyNotFound if the key
	// does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// SetWithTTL stores value at key with the given TTL, replacing any
	// existing entry.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}
