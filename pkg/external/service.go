// Package external models the unreliable upstream dependency behind the
// external-data endpoint.
//
// Two implementations are provided: HTTPService fetches a real upstream
// URL, and SimulatedService fails at a configurable rate for local
// development and demos. Both are meant to be called through a circuit
// breaker, never directly from a handler.
package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// ErrUpstreamFailure is the failure produced by SimulatedService, and
// wrapped by HTTPService for 5xx responses.
var ErrUpstreamFailure = errors.New("external: upstream failure")

// Service is a call to the external dependency. Implementations must honor
// ctx cancellation.
type Service interface {
	// Invoke fetches one payload from the dependency.
	Invoke(ctx context.Context) ([]byte, error)
}

// maxUpstreamBody caps how much of an upstream response is read. A
// misbehaving upstream must not balloon memory here.
const maxUpstreamBody = 1 << 20

// HTTPService fetches payloads from a real upstream URL over a pooled
// connection.
type HTTPService struct {
	url    string
	client *http.Client
}

// NewHTTPService creates a service that GETs url on each Invoke. Timeouts
// are left to the caller's context; the breaker's call timeout bounds every
// invocation.
func NewHTTPService(url string) *HTTPService {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &HTTPService{
		url:    url,
		client: &http.Client{Transport: transport},
	}
}

// Invoke implements Service.
func (s *HTTPService) Invoke(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building upstream request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return nil, fmt.Errorf("reading upstream response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: upstream returned %d", ErrUpstreamFailure, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream returned unexpected status %d", resp.StatusCode)
	}

	return body, nil
}

// SimulatedService stands in for a flaky upstream. Each Invoke fails with
// the configured probability and otherwise returns a small JSON payload.
type SimulatedService struct {
	failureRate float64
	now         func() time.Time

	mu   sync.Mutex
	rand *rand.Rand
}

// NewSimulatedService creates a simulated upstream failing at failureRate
// (in [0, 1]), seeded from the current time.
func NewSimulatedService(failureRate float64) *SimulatedService {
	return NewSimulatedServiceWithSource(failureRate, rand.NewSource(time.Now().UnixNano()))
}

// NewSimulatedServiceWithSource creates a simulated upstream with a caller
// supplied randomness source, so tests can make the outcome deterministic.
func NewSimulatedServiceWithSource(failureRate float64, src rand.Source) *SimulatedService {
	return &SimulatedService{
		failureRate: failureRate,
		now:         time.Now,
		rand:        rand.New(src),
	}
}

// Invoke implements Service.
func (s *SimulatedService) Invoke(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	failed := s.rand.Float64() < s.failureRate
	s.mu.Unlock()

	if failed {
		return nil, ErrUpstreamFailure
	}

	payload := map[string]any{
		"data":       "external payload",
		"fetched_at": s.now().UTC().Format(time.RFC3339),
	}
	return json.Marshal(payload)
}
