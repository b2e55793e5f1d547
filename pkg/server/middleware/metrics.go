package middleware

import (
	"net/http"
	"time"
)

// RequestRecorder receives per-request observations for metrics.
type RequestRecorder interface {
	RecordRequest(route, method string, status int, durationSeconds float64)
}

// Metrics records a count and duration observation for every request,
// labeled by route pattern, method, and response status.
func Metrics(recorder RequestRecorder, route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			recorder.RecordRequest(route, r.Method, rw.statusCode, time.Since(start).Seconds())
		})
	}
}
