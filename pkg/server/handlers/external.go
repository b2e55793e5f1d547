package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"mercator-hq/callisto/pkg/breaker"
	"mercator-hq/callisto/pkg/external"
	"mercator-hq/callisto/pkg/server/types"
)

// ExternalDataHandler fetches data from the external dependency through
// the circuit breaker. Every response, success or failure, reports the
// breaker's state so clients and dashboards can see the circuit's health.
type ExternalDataHandler struct {
	breaker *breaker.Breaker
	service external.Service
	logger  *slog.Logger
}

// NewExternalDataHandler creates an external-data handler.
func NewExternalDataHandler(b *breaker.Breaker, service external.Service, logger *slog.Logger) *ExternalDataHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExternalDataHandler{
		breaker: b,
		service: service,
		logger:  logger,
	}
}

// externalErrorResponse is the error envelope extended with the circuit
// state.
type externalErrorResponse struct {
	Error        types.ErrorDetail `json:"error"`
	CircuitState string      `json:"circuit_state"`
}

// ServeHTTP implements http.Handler.
func (h *ExternalDataHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		types.MethodNotAllowed(w, http.MethodGet)
		return
	}

	payload, err := h.breaker.Do(r.Context(), h.service.Invoke)
	state := h.breaker.State().String()

	if errors.Is(err, breaker.ErrCircuitOpen) {
		types.WriteJSON(w, http.StatusServiceUnavailable, externalErrorResponse{
			Error: types.ErrorDetail{
				Message: "external dependency circuit is open; retry later",
				Type:    types.ErrorTypeCircuitOpen,
			},
			CircuitState: state,
		})
		return
	}
	if err != nil {
		h.logger.Warn("external dependency call failed",
			"circuit_state", state,
			"error", err.Error(),
		)
		types.WriteJSON(w, http.StatusServiceUnavailable, externalErrorResponse{
			Error: types.ErrorDetail{
				Message: "external dependency call failed",
				Type:    types.ErrorTypeUpstreamFailure,
			},
			CircuitState: state,
		})
		return
	}

	// Upstreams that do not speak JSON are embedded as a string.
	var data any = json.RawMessage(payload)
	if !json.Valid(payload) {
		data = string(payload)
	}

	types.WriteJSON(w, http.StatusOK, map[string]any{
		"data":          data,
		"circuit_state": state,
	})
}
