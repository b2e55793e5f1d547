package cache

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/kvstore"
)

var errNoData = errors.New("no data")

func newTestComputer(t *testing.T) (*Computer, *kvstore.MemoryStore) {
	t.Helper()

	store := kvstore.NewMemoryStore()
	t.Cleanup(func() { store.Close() })

	return New(store, time.Minute, slog.Default()), store
}

func TestComputer_MissThenHit(t *testing.T) {
	computer, _ := newTestComputer(t)
	ctx := context.Background()

	var calls atomic.Int32
	compute := func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte(`{"count":2,"average_value":15}`), nil
	}

	first, fromCache, err := computer.GetOrCompute(ctx, "summary:cpu", compute)
	if err != nil {
		t.Fatalf("first GetOrCompute failed: %v", err)
	}
	if fromCache {
		t.Error("first call reported a cache hit")
	}

	second, fromCache, err := computer.GetOrCompute(ctx, "summary:cpu", compute)
	if err != nil {
		t.Fatalf("second GetOrCompute failed: %v", err)
	}
	if !fromCache {
		t.Error("second call reported a cache miss")
	}

	// Hits serve the stored bytes verbatim.
	if !bytes.Equal(first, second) {
		t.Errorf("cached value %q differs from computed value %q", second, first)
	}
	if calls.Load() != 1 {
		t.Errorf("compute ran %d times, want 1", calls.Load())
	}
}

func TestComputer_ErrorsAreNotCached(t *testing.T) {
	computer, _ := newTestComputer(t)
	ctx := context.Background()

	var calls atomic.Int32
	failing := func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		return nil, errNoData
	}

	for i := 0; i < 2; i++ {
		if _, _, err := computer.GetOrCompute(ctx, "summary:cpu", failing); !errors.Is(err, errNoData) {
			t.Fatalf("call %d: err = %v, want errNoData", i+1, err)
		}
	}
	if calls.Load() != 2 {
		t.Errorf("compute ran %d times, want 2 (errors must not be cached)", calls.Load())
	}

	// Data appearing after a "no data" response is visible immediately.
	value, fromCache, err := computer.GetOrCompute(ctx, "summary:cpu", func(ctx context.Context) ([]byte, error) {
		return []byte(`{"count":1}`), nil
	})
	if err != nil {
		t.Fatalf("GetOrCompute after data arrived failed: %v", err)
	}
	if fromCache {
		t.Error("first successful compute reported a cache hit")
	}
	if string(value) != `{"count":1}` {
		t.Errorf("value = %q, want %q", value, `{"count":1}`)
	}
}

func TestComputer_EntryExpires(t *testing.T) {
	store := kvstore.NewMemoryStore()
	t.Cleanup(func() { store.Close() })

	var mu sync.Mutex
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	})

	computer := New(store, time.Minute, slog.Default())
	ctx := context.Background()

	var calls atomic.Int32
	compute := func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte("v"), nil
	}

	computer.GetOrCompute(ctx, "summary:cpu", compute)

	mu.Lock()
	now = now.Add(61 * time.Second)
	mu.Unlock()

	_, fromCache, err := computer.GetOrCompute(ctx, "summary:cpu", compute)
	if err != nil {
		t.Fatalf("GetOrCompute after expiry failed: %v", err)
	}
	if fromCache {
		t.Error("expired entry served as a hit")
	}
	if calls.Load() != 2 {
		t.Errorf("compute ran %d times, want 2", calls.Load())
	}
}

func TestComputer_ConcurrentMissesShareOneCompute(t *testing.T) {
	computer, _ := newTestComputer(t)
	ctx := context.Background()

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	compute := func(ctx context.Context) ([]byte, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return []byte("shared"), nil
	}

	const waiters = 10
	results := make([][]byte, waiters)
	errs := make([]error, waiters)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _, errs[0] = computer.GetOrCompute(ctx, "summary:cpu", compute)
	}()
	<-started

	for i := 1; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _, errs[i] = computer.GetOrCompute(ctx, "summary:cpu", compute)
		}(i)
	}

	// Give the waiters time to attach to the in-flight computation.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("compute ran %d times for concurrent misses, want 1", calls.Load())
	}
	for i := 0; i < waiters; i++ {
		if errs[i] != nil {
			t.Errorf("caller %d: err = %v", i, errs[i])
		}
		if string(results[i]) != "shared" {
			t.Errorf("caller %d: value = %q, want %q", i, results[i], "shared")
		}
	}
}

// flakyStore wraps a MemoryStore and fails selected operations.
type flakyStore struct {
	*kvstore.MemoryStore
	failGets bool
	failSets bool
}

var errFlaky = errors.New("store unavailable")

func (s *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.failGets {
		return nil, errFlaky
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s *flakyStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.failSets {
		return errFlaky
	}
	return s.MemoryStore.SetWithTTL(ctx, key, value, ttl)
}

func TestComputer_ReadFailureAborts(t *testing.T) {
	mem := kvstore.NewMemoryStore()
	t.Cleanup(func() { mem.Close() })

	computer := New(&flakyStore{MemoryStore: mem, failGets: true}, time.Minute, slog.Default())

	called := false
	_, _, err := computer.GetOrCompute(context.Background(), "summary:cpu", func(ctx context.Context) ([]byte, error) {
		called = true
		return []byte("v"), nil
	})
	if !errors.Is(err, errFlaky) {
		t.Fatalf("err = %v, want wrapped store error", err)
	}
	if called {
		t.Error("compute ran despite the cache read failing")
	}
}

func TestComputer_WriteFailureStillReturnsValue(t *testing.T) {
	mem := kvstore.NewMemoryStore()
	t.Cleanup(func() { mem.Close() })

	computer := New(&flakyStore{MemoryStore: mem, failSets: true}, time.Minute, slog.Default())

	value, fromCache, err := computer.GetOrCompute(context.Background(), "summary:cpu", func(ctx context.Context) ([]byte, error) {
		return []byte("fresh"), nil
	})
	if err != nil {
		t.Fatalf("GetOrCompute failed: %v", err)
	}
	if fromCache {
		t.Error("reported a cache hit with writes failing")
	}
	if string(value) != "fresh" {
		t.Errorf("value = %q, want %q", value, "fresh")
	}
}
