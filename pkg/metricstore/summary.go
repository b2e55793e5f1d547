package metricstore

import "errors"

// ErrNoData is returned by Summarize when no records exist for the
// requested metric type.
var ErrNoData = errors.New("metricstore: no data for metric type")

// Summary is the aggregate view of one metric type.
type Summary struct {
	// Type is the metric type the summary covers.
	Type string `json:"type"`

	// Count is the number of records of that type.
	Count int `json:"count"`

	// AverageValue is the arithmetic mean of the recorded values.
	AverageValue float64 `json:"average_value"`
}

// Summarize computes the aggregate summary for metricType, or ErrNoData
// when no records of that type exist.
func (s *MemoryStore) Summarize(metricType string) (Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	var sum float64
	for _, rec := range s.records {
		if rec.Type == metricType {
			count++
			sum += rec.Value
		}
	}

	if count == 0 {
		return Summary{}, ErrNoData
	}

	return Summary{
		Type:         metricType,
		Count:        count,
		AverageValue: sum / float64(count),
	}, nil
}
