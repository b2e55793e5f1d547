package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"mercator-hq/callisto/pkg/server/types"
)

// Recovery recovers from panics in HTTP handlers and returns a 500 with
// the standard error envelope. The panic and stack trace are logged; no
// internal detail reaches the client.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				requestID := GetRequestID(r.Context())
				stack := debug.Stack()

				slog.ErrorContext(r.Context(), "panic in handler",
					"error", err,
					"request_id", requestID,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(stack),
				)

				types.WriteError(w, http.StatusInternalServerError,
					types.ErrorTypeServerError, "An internal error occurred. Please try again later.")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
