// Package metricstore holds ingested metric records in memory and computes
// aggregate summaries over them.
//
// Records live for the lifetime of the process. The store is append-only
// from the ingestion path; the only removal path is retention pruning,
// which drops the oldest records when a configured cap is exceeded.
package metricstore

import (
	"sync"
)

// Record is one ingested metric observation.
type Record struct {
	// Type groups observations for summarization, e.g. "cpu" or "memory".
	Type string `json:"type"`

	// Value is the observed scalar.
	Value float64 `json:"value"`

	// Timestamp is the client-supplied observation time, kept as an opaque
	// string. Ordering is insertion order, never timestamp order.
	Timestamp string `json:"timestamp"`
}

// MemoryStore is an in-memory metric record store, safe for concurrent use.
// Reads take a shared lock so summarization never blocks other readers.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Add appends a record.
func (s *MemoryStore) Add(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Snapshot returns a copy of all stored records, oldest first.
func (s *MemoryStore) Snapshot() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Types returns the distinct metric types present in the store.
func (s *MemoryStore) Types() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var types []string
	for _, rec := range s.records {
		if _, ok := seen[rec.Type]; !ok {
			seen[rec.Type] = struct{}{}
			types = append(types, rec.Type)
		}
	}
	return types
}

// PruneOldest removes records beyond max, oldest first, and returns how
// many were removed. A max of zero or less means unlimited and removes
// nothing.
func (s *MemoryStore) PruneOldest(max int) int {
	if max <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	excess := len(s.records) - max
	if excess <= 0 {
		return 0
	}

	remaining := make([]Record, max)
	copy(remaining, s.records[excess:])
	s.records = remaining
	return excess
}
