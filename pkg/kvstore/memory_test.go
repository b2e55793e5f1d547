package kvstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock for expiry tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) (*MemoryStore, *fakeClock) {
	t.Helper()

	store := NewMemoryStore()
	t.Cleanup(func() { store.Close() })

	clock := newFakeClock()
	store.SetClock(clock.Now)
	return store, clock
}

func TestMemoryStore_IncrWithWindow(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	t.Run("counts up within a window", func(t *testing.T) {
		for want := int64(1); want <= 3; want++ {
			got, err := store.IncrWithWindow(ctx, "rate_limit:client", time.Minute)
			if err != nil {
				t.Fatalf("IncrWithWindow failed: %v", err)
			}
			if got != want {
				t.Errorf("count = %d, want %d", got, want)
			}
		}
	})

	t.Run("ttl is anchored to the first increment", func(t *testing.T) {
		ttlAfterFirst, err := store.TTL(ctx, "rate_limit:client")
		if err != nil {
			t.Fatalf("TTL failed: %v", err)
		}

		clock.Advance(20 * time.Second)
		if _, err := store.IncrWithWindow(ctx, "rate_limit:client", time.Minute); err != nil {
			t.Fatalf("IncrWithWindow failed: %v", err)
		}

		ttlAfterLater, err := store.TTL(ctx, "rate_limit:client")
		if err != nil {
			t.Fatalf("TTL failed: %v", err)
		}

		if ttlAfterLater >= ttlAfterFirst {
			t.Errorf("TTL was refreshed by a later increment: %v -> %v", ttlAfterFirst, ttlAfterLater)
		}
	})

	t.Run("counter restarts after the window elapses", func(t *testing.T) {
		clock.Advance(2 * time.Minute)

		got, err := store.IncrWithWindow(ctx, "rate_limit:client", time.Minute)
		if err != nil {
			t.Fatalf("IncrWithWindow failed: %v", err)
		}
		if got != 1 {
			t.Errorf("count after window elapsed = %d, want 1", got)
		}
	})
}

func TestMemoryStore_GetSet(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := store.Get(ctx, "absent")
		if !errors.Is(err, ErrKeyNotFound) {
			t.Errorf("Get(absent) error = %v, want ErrKeyNotFound", err)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		if err := store.SetWithTTL(ctx, "summary:cpu", []byte(`{"count":2}`), time.Minute); err != nil {
			t.Fatalf("SetWithTTL failed: %v", err)
		}

		got, err := store.Get(ctx, "summary:cpu")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got) != `{"count":2}` {
			t.Errorf("Get = %q, want %q", got, `{"count":2}`)
		}
	})

	t.Run("value is a copy", func(t *testing.T) {
		val, err := store.Get(ctx, "summary:cpu")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		val[0] = 'X'

		again, err := store.Get(ctx, "summary:cpu")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(again) != `{"count":2}` {
			t.Errorf("stored value mutated through returned slice: %q", again)
		}
	})

	t.Run("expired entry is treated as absent", func(t *testing.T) {
		clock.Advance(2 * time.Minute)

		_, err := store.Get(ctx, "summary:cpu")
		if !errors.Is(err, ErrKeyNotFound) {
			t.Errorf("Get(expired) error = %v, want ErrKeyNotFound", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := store.SetWithTTL(ctx, "summary:mem", []byte("x"), time.Minute); err != nil {
			t.Fatalf("SetWithTTL failed: %v", err)
		}
		if err := store.Delete(ctx, "summary:mem"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := store.Get(ctx, "summary:mem"); !errors.Is(err, ErrKeyNotFound) {
			t.Errorf("Get(deleted) error = %v, want ErrKeyNotFound", err)
		}

		// Deleting a missing key is not an error.
		if err := store.Delete(ctx, "summary:mem"); err != nil {
			t.Errorf("Delete(missing) failed: %v", err)
		}
	})
}

func TestMemoryStore_Sweep(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	if err := store.SetWithTTL(ctx, "a", []byte("1"), time.Second); err != nil {
		t.Fatalf("SetWithTTL failed: %v", err)
	}
	if err := store.SetWithTTL(ctx, "b", []byte("2"), time.Hour); err != nil {
		t.Fatalf("SetWithTTL failed: %v", err)
	}

	clock.Advance(time.Minute)
	store.sweep()

	store.mu.Lock()
	_, aPresent := store.entries["a"]
	_, bPresent := store.entries["b"]
	store.mu.Unlock()

	if aPresent {
		t.Error("expired entry survived sweep")
	}
	if !bPresent {
		t.Error("live entry removed by sweep")
	}
}

func TestMemoryStore_ConcurrentIncrements(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	const goroutines = 20
	const perGoroutine = 50

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				if _, err := store.IncrWithWindow(ctx, "shared", time.Hour); err != nil {
					t.Errorf("IncrWithWindow failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	count, err := store.IncrWithWindow(ctx, "shared", time.Hour)
	if err != nil {
		t.Fatalf("IncrWithWindow failed: %v", err)
	}
	if count != goroutines*perGoroutine+1 {
		t.Errorf("final count = %d, want %d", count, goroutines*perGoroutine+1)
	}
}
