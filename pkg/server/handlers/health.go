package handlers

import (
	"net/http"
	"time"

	"mercator-hq/callisto/pkg/kvstore"
	"mercator-hq/callisto/pkg/server/types"
)

// HealthHandler handles health check requests for liveness probes.
type HealthHandler struct{}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// ServeHTTP implements http.Handler for liveness checks.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		types.MethodNotAllowed(w, http.MethodGet)
		return
	}

	types.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"timestamp": time.Now().Unix(),
	})
}

// ReadyHandler handles readiness check requests. The service is ready when
// the shared key-value store is reachable; without it, ingestion is refused
// by the fail-closed rate limiter anyway.
type ReadyHandler struct {
	store kvstore.Store
}

// NewReadyHandler creates a new readiness check handler.
func NewReadyHandler(store kvstore.Store) *ReadyHandler {
	return &ReadyHandler{store: store}
}

// ServeHTTP implements http.Handler for readiness checks.
func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		types.MethodNotAllowed(w, http.MethodGet)
		return
	}

	if err := h.store.Ping(r.Context()); err != nil {
		types.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"store":  "unreachable",
		})
		return
	}

	types.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"store":  "ok",
	})
}
