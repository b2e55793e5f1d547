package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"mercator-hq/callisto/pkg/cache"
	"mercator-hq/callisto/pkg/metricstore"
	"mercator-hq/callisto/pkg/server/types"
)

// SummaryKeyPrefix namespaces cached summaries in the shared store.
const SummaryKeyPrefix = "summary:"

// CacheRecorder receives cache observations for metrics.
type CacheRecorder interface {
	RecordCacheHit()
	RecordCacheMiss()
	RecordCacheError()
}

// SummaryHandler serves aggregate summaries per metric type, reading
// through the cache-aside layer.
type SummaryHandler struct {
	store    *metricstore.MemoryStore
	computer *cache.Computer
	recorder CacheRecorder
	logger   *slog.Logger
}

// NewSummaryHandler creates a summary handler.
func NewSummaryHandler(store *metricstore.MemoryStore, computer *cache.Computer, recorder CacheRecorder, logger *slog.Logger) *SummaryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryHandler{
		store:    store,
		computer: computer,
		recorder: recorder,
		logger:   logger,
	}
}

// ServeHTTP implements http.Handler.
//
// Cached summaries are served byte-for-byte as stored; a hit never
// recomputes or re-serializes. A summary for a type with no records is a
// 404 and is never cached, so newly arriving data becomes visible on the
// next request.
func (h *SummaryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		types.MethodNotAllowed(w, http.MethodGet)
		return
	}

	metricType := r.URL.Query().Get("type")
	if metricType == "" {
		types.WriteError(w, http.StatusBadRequest, types.ErrorTypeValidation, "query parameter 'type' is required")
		return
	}

	key := SummaryKeyPrefix + metricType
	payload, fromCache, err := h.computer.GetOrCompute(r.Context(), key, func(context.Context) ([]byte, error) {
		summary, err := h.store.Summarize(metricType)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(summary)
		if err != nil {
			return nil, fmt.Errorf("encoding summary for %q: %w", metricType, err)
		}
		return data, nil
	})

	switch {
	case err == nil:
	case errors.Is(err, metricstore.ErrNoData):
		if h.recorder != nil {
			h.recorder.RecordCacheMiss()
		}
		types.WriteError(w, http.StatusNotFound, types.ErrorTypeNotFound,
			fmt.Sprintf("no data for metric type %q", metricType))
		return
	default:
		if h.recorder != nil {
			h.recorder.RecordCacheError()
		}
		h.logger.Error("summary computation failed",
			"metric_type", metricType,
			"error", err.Error(),
		)
		types.WriteError(w, http.StatusInternalServerError, types.ErrorTypeStoreUnavailable,
			"summary store is unavailable; retry later")
		return
	}

	if h.recorder != nil {
		if fromCache {
			h.recorder.RecordCacheHit()
		} else {
			h.recorder.RecordCacheMiss()
		}
	}

	cacheStatus := "MISS"
	if fromCache {
		cacheStatus = "HIT"
	}
	w.Header().Set("X-Cache", cacheStatus)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}
