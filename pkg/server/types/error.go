// Package types holds the error envelope shared by the HTTP handlers and
// middleware.
package types

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the envelope returned for all error conditions.
type ErrorResponse struct {
	// Error contains the error details.
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information.
type ErrorDetail struct {
	// Message is a human-readable error message.
	Message string `json:"message"`

	// Type categorizes the error.
	Type string `json:"type"`
}

// Error type constants.
const (
	// ErrorTypeValidation indicates a malformed or invalid request (400).
	ErrorTypeValidation = "validation_error"

	// ErrorTypeNotFound indicates the requested resource has no data (404).
	ErrorTypeNotFound = "not_found"

	// ErrorTypeMethodNotAllowed indicates an unsupported HTTP method (405).
	ErrorTypeMethodNotAllowed = "method_not_allowed"

	// ErrorTypeRateLimitExceeded indicates too many requests (429).
	ErrorTypeRateLimitExceeded = "rate_limit_exceeded"

	// ErrorTypeServerError indicates an internal server error (500).
	ErrorTypeServerError = "server_error"

	// ErrorTypeStoreUnavailable indicates the shared store could not be
	// reached (500).
	ErrorTypeStoreUnavailable = "store_unavailable"

	// ErrorTypeLimiterUnavailable indicates the rate limiter could not
	// reach its store and the request was refused (500).
	ErrorTypeLimiterUnavailable = "limiter_unavailable"

	// ErrorTypeCircuitOpen indicates the circuit breaker rejected the call
	// without contacting the upstream (503).
	ErrorTypeCircuitOpen = "circuit_open"

	// ErrorTypeUpstreamFailure indicates the upstream call itself failed
	// (503).
	ErrorTypeUpstreamFailure = "upstream_failure"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the standard error envelope.
func WriteError(w http.ResponseWriter, status int, errType, message string) {
	WriteJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Type:    errType,
		},
	})
}

// MethodNotAllowed rejects unsupported methods, advertising the allowed one.
func MethodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	WriteError(w, http.StatusMethodNotAllowed, ErrorTypeMethodNotAllowed,
		"method not allowed; use "+allowed)
}
