package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"mercator-hq/callisto/pkg/limits/ratelimit"
	"mercator-hq/callisto/pkg/server/types"
)

// APIKeyHeader identifies the client for rate limiting when present.
const APIKeyHeader = "X-API-Key"

// RateLimitRecorder receives rate-limit decisions for metrics. Outcomes are
// "allowed", "rejected", and "error".
type RateLimitRecorder interface {
	RecordRateLimitDecision(outcome string)
}

// RateLimit enforces the per-client request limit on the wrapped handler.
//
// The client identity is the X-API-Key header when present ("key:{value}"),
// and the remote IP otherwise ("ip:{addr}"), so keyed clients and anonymous
// clients never share counters.
//
// The limiter fails closed: when it cannot reach its store, the request is
// refused with 500 rather than admitted unchecked.
func RateLimit(limiter ratelimit.Limiter, recorder RateLimitRecorder, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := clientKey(r)

			decision, err := limiter.Check(r.Context(), client)
			if err != nil {
				logger.Error("rate limiter unavailable, refusing request",
					"client", client,
					"request_id", GetRequestID(r.Context()),
					"error", err.Error(),
				)
				if recorder != nil {
					recorder.RecordRateLimitDecision("error")
				}
				types.WriteError(w, http.StatusInternalServerError,
					types.ErrorTypeLimiterUnavailable, "rate limiter is unavailable; request refused")
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(decision.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))

			if !decision.Allowed {
				if recorder != nil {
					recorder.RecordRateLimitDecision("rejected")
				}
				w.Header().Set("Retry-After", strconv.FormatInt(retryAfterSeconds(decision.RetryAfter), 10))
				types.WriteError(w, http.StatusTooManyRequests,
					types.ErrorTypeRateLimitExceeded, "rate limit exceeded; retry later")
				return
			}

			if recorder != nil {
				recorder.RecordRateLimitDecision("allowed")
			}
			ctx := context.WithValue(r.Context(), ClientKey, client)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// clientKey derives the rate-limit identity for a request.
func clientKey(r *http.Request) string {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return "key:" + key
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// retryAfterSeconds converts a wait duration to whole seconds, rounding up
// so clients never retry early. Always at least 1.
func retryAfterSeconds(d time.Duration) int64 {
	secs := int64((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// GetClient extracts the rate-limit client identity from the context.
// Returns empty string if the request did not pass through RateLimit.
func GetClient(ctx context.Context) string {
	if client, ok := ctx.Value(ClientKey).(string); ok {
		return client
	}
	return ""
}
