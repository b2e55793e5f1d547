package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/callisto/pkg/config"
)

// IngestMetrics tracks metric ingestion and storage.
//
// Metrics:
//   - callisto_ingested_metrics_total: Stored metric samples by type
//   - callisto_stored_records: Current number of records held in memory
type IngestMetrics struct {
	ingestedTotal *prometheus.CounterVec
	storedRecords prometheus.Gauge
}

// NewIngestMetrics creates and registers ingestion metrics with the provided
// registry.
func NewIngestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *IngestMetrics {
	im := &IngestMetrics{
		ingestedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "ingested_metrics_total",
				Help:      "Total metric samples stored, by metric type",
			},
			[]string{"type"},
		),

		storedRecords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "stored_records",
				Help:      "Current number of metric records held in memory",
			},
		),
	}

	registry.MustRegister(
		im.ingestedTotal,
		im.storedRecords,
	)

	return im
}

// RecordIngested records one stored sample.
func (im *IngestMetrics) RecordIngested(metricType string) {
	im.ingestedTotal.WithLabelValues(metricType).Inc()
}

// SetStoredRecords records the current in-memory record count.
func (im *IngestMetrics) SetStoredRecords(n float64) {
	im.storedRecords.Set(n)
}
