// Package ratelimit enforces per-client request limits over fixed time
// windows.
//
// # Algorithm
//
// Each client owns a counter in the shared key-value store under the key
// "rate_limit:{client}". The first request of a window creates the counter
// and sets its TTL in one atomic step; every later request in the same
// window increments the counter without touching the TTL, so the window
// stays anchored to its first request:
//
//  1. Atomically increment the client's counter
//  2. If this created the counter, set the window TTL in the same step
//  3. If the count is within the limit: allow
//  4. Otherwise: reject, reporting the counter's remaining TTL as the
//     time until the client may retry
//
// # Failure Policy
//
// The limiter fails closed: when the store is unreachable, Check returns an
// error rather than a Decision, and callers must refuse the request. An
// unavailable limiter never grants free passes.
//
// # Thread Safety
//
// FixedWindowLimiter is safe for concurrent use. Limit settings are held
// behind an atomic pointer so they can be swapped on configuration reload
// without locking the request path.
package ratelimit
