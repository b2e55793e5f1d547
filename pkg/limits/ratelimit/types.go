package ratelimit

import "time"

// KeyPrefix namespaces rate-limit counters in the shared store.
const KeyPrefix = "rate_limit:"

// Settings are the tunable limiter parameters. They are replaced wholesale
// on configuration reload.
type Settings struct {
	// RequestsPerWindow is the maximum number of requests a client may make
	// in one window.
	RequestsPerWindow int64

	// Window is the fixed window length.
	Window time.Duration
}

// Decision is the outcome of a rate-limit check.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// Limit is the per-window request limit that was applied.
	Limit int64

	// Remaining is the number of requests the client has left in the
	// current window. Zero when the request was rejected.
	Remaining int64

	// RetryAfter is how long the client should wait before retrying.
	// Only meaningful when Allowed is false; always at least one second.
	RetryAfter time.Duration
}
