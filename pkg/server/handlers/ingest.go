package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"mercator-hq/callisto/pkg/metricstore"
	"mercator-hq/callisto/pkg/server/types"
)

// maxIngestBody caps the ingestion request body size.
const maxIngestBody = 64 << 10

// IngestRecorder receives ingestion observations for metrics.
type IngestRecorder interface {
	RecordIngestedMetric(metricType string)
	SetStoredRecords(n float64)
}

// ingestRequest is the POST /api/metrics body.
type ingestRequest struct {
	Timestamp *string  `json:"timestamp"`
	Value     *float64 `json:"value"`
	Type      *string  `json:"type"`
}

// IngestHandler accepts metric observations and appends them to the store.
type IngestHandler struct {
	store    *metricstore.MemoryStore
	recorder IngestRecorder
	logger   *slog.Logger
}

// NewIngestHandler creates an ingestion handler.
func NewIngestHandler(store *metricstore.MemoryStore, recorder IngestRecorder, logger *slog.Logger) *IngestHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestHandler{
		store:    store,
		recorder: recorder,
		logger:   logger,
	}
}

// ServeHTTP implements http.Handler.
//
// The body must be a JSON object with a non-empty "timestamp" string, a
// "value" number, and a non-empty "type" string. Anything else is a 400;
// rate limiting happens in middleware before this handler runs.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		types.MethodNotAllowed(w, http.MethodPost)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxIngestBody))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			types.WriteError(w, http.StatusBadRequest, types.ErrorTypeValidation, "request body too large")
			return
		}
		types.WriteError(w, http.StatusBadRequest, types.ErrorTypeValidation, "could not read request body")
		return
	}

	var req ingestRequest
	if err := json.Unmarshal(body, &req); err != nil {
		types.WriteError(w, http.StatusBadRequest, types.ErrorTypeValidation, "request body is not valid JSON")
		return
	}

	if req.Timestamp == nil || *req.Timestamp == "" {
		types.WriteError(w, http.StatusBadRequest, types.ErrorTypeValidation, "timestamp is required and must be a non-empty string")
		return
	}
	if req.Value == nil {
		types.WriteError(w, http.StatusBadRequest, types.ErrorTypeValidation, "value is required and must be a number")
		return
	}
	if req.Type == nil || *req.Type == "" {
		types.WriteError(w, http.StatusBadRequest, types.ErrorTypeValidation, "type is required and must be a non-empty string")
		return
	}

	rec := metricstore.Record{
		Type:      *req.Type,
		Value:     *req.Value,
		Timestamp: *req.Timestamp,
	}
	h.store.Add(rec)

	if h.recorder != nil {
		h.recorder.RecordIngestedMetric(rec.Type)
		h.recorder.SetStoredRecords(float64(h.store.Len()))
	}

	h.logger.Debug("metric recorded",
		"type", rec.Type,
		"value", rec.Value,
	)

	types.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "Metric stored successfully",
	})
}
