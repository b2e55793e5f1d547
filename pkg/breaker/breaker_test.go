package breaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"
)

var errUpstream = errors.New("upstream failed")

func failingOp(ctx context.Context) ([]byte, error) { return nil, errUpstream }

func succeedingOp(ctx context.Context) ([]byte, error) { return []byte("ok"), nil }

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBreaker(opts ...Option) (*Breaker, *manualClock) {
	clock := &manualClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	b := New(Settings{
		FailureThreshold: 3,
		ResetTimeout:     30 * time.Second,
	}, slog.Default(), opts...)
	return b, clock
}

func TestBreaker_OpensAtThreshold(t *testing.T) {
	b, _ := newTestBreaker()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if b.State() != StateClosed {
			t.Fatalf("state before failure %d = %v, want CLOSED", i+1, b.State())
		}
		if _, err := b.Do(ctx, failingOp); !errors.Is(err, errUpstream) {
			t.Fatalf("failure %d: err = %v, want upstream error", i+1, err)
		}
	}

	if b.State() != StateOpen {
		t.Fatalf("state after 3 failures = %v, want OPEN", b.State())
	}

	// Open breaker rejects without calling the operation.
	called := false
	_, err := b.Do(ctx, func(ctx context.Context) ([]byte, error) {
		called = true
		return nil, nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Do while open: err = %v, want ErrCircuitOpen", err)
	}
	if called {
		t.Error("operation was invoked while the breaker was open")
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		b.Do(ctx, failingOp)
	}
	if _, err := b.Do(ctx, succeedingOp); err != nil {
		t.Fatalf("success failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		b.Do(ctx, failingOp)
	}

	// 2 failures, success, 2 failures: never 3 consecutive.
	if b.State() != StateClosed {
		t.Errorf("state = %v, want CLOSED", b.State())
	}
	if snap := b.GetSnapshot(); snap.ConsecutiveFailures != 2 {
		t.Errorf("ConsecutiveFailures = %d, want 2", snap.ConsecutiveFailures)
	}
}

func TestBreaker_HalfOpenTrialCloses(t *testing.T) {
	b, clock := newTestBreaker()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		b.Do(ctx, failingOp)
	}
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want OPEN", b.State())
	}

	// Before the reset timeout, calls are still rejected.
	clock.Advance(29 * time.Second)
	if _, err := b.Do(ctx, succeedingOp); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Do before reset timeout: err = %v, want ErrCircuitOpen", err)
	}

	clock.Advance(2 * time.Second)
	result, err := b.Do(ctx, succeedingOp)
	if err != nil {
		t.Fatalf("trial call failed: %v", err)
	}
	if string(result) != "ok" {
		t.Errorf("trial result = %q, want %q", result, "ok")
	}
	if b.State() != StateClosed {
		t.Errorf("state after successful trial = %v, want CLOSED", b.State())
	}

	// Recovered breaker tolerates failures up to the threshold again.
	b.Do(ctx, failingOp)
	if b.State() != StateClosed {
		t.Errorf("state after one post-recovery failure = %v, want CLOSED", b.State())
	}
}

func TestBreaker_HalfOpenTrialFailureReopens(t *testing.T) {
	b, clock := newTestBreaker()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		b.Do(ctx, failingOp)
	}
	clock.Advance(31 * time.Second)

	if _, err := b.Do(ctx, failingOp); !errors.Is(err, errUpstream) {
		t.Fatalf("trial call: err = %v, want upstream error", err)
	}
	if b.State() != StateOpen {
		t.Fatalf("state after failed trial = %v, want OPEN", b.State())
	}

	// The reset timeout restarts from the failed trial.
	clock.Advance(29 * time.Second)
	if _, err := b.Do(ctx, succeedingOp); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Do before restarted timeout: err = %v, want ErrCircuitOpen", err)
	}

	clock.Advance(2 * time.Second)
	if _, err := b.Do(ctx, succeedingOp); err != nil {
		t.Errorf("trial after restarted timeout failed: %v", err)
	}
}

func TestBreaker_SingleTrialInHalfOpen(t *testing.T) {
	b, clock := newTestBreaker()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		b.Do(ctx, failingOp)
	}
	clock.Advance(31 * time.Second)

	trialStarted := make(chan struct{})
	releaseTrial := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.Do(ctx, func(ctx context.Context) ([]byte, error) {
			close(trialStarted)
			<-releaseTrial
			return []byte("ok"), nil
		})
	}()

	<-trialStarted

	// While the trial is in flight, every other call is rejected.
	for i := 0; i < 5; i++ {
		if _, err := b.Do(ctx, succeedingOp); !errors.Is(err, ErrCircuitOpen) {
			t.Errorf("concurrent call %d during trial: err = %v, want ErrCircuitOpen", i, err)
		}
	}

	close(releaseTrial)
	wg.Wait()

	if b.State() != StateClosed {
		t.Errorf("state after trial completed = %v, want CLOSED", b.State())
	}
}

func TestBreaker_CallTimeoutCountsAsFailure(t *testing.T) {
	clock := &manualClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	b := New(Settings{
		FailureThreshold: 1,
		ResetTimeout:     30 * time.Second,
		CallTimeout:      10 * time.Millisecond,
	}, slog.Default(), WithClock(clock.Now))

	_, err := b.Do(context.Background(), func(ctx context.Context) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
	if b.State() != StateOpen {
		t.Errorf("state after timed-out call = %v, want OPEN", b.State())
	}
}

func TestBreaker_StateChangeHook(t *testing.T) {
	var mu sync.Mutex
	var transitions []string

	hook := func(from, to State) {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, fmt.Sprintf("%s->%s", from, to))
	}

	b, clock := newTestBreaker(WithStateChangeHook(hook))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		b.Do(ctx, failingOp)
	}
	clock.Advance(31 * time.Second)
	b.Do(ctx, succeedingOp)

	mu.Lock()
	defer mu.Unlock()
	want := []string{"CLOSED->OPEN", "OPEN->HALF_OPEN", "HALF_OPEN->CLOSED"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %q, want %q", i, transitions[i], want[i])
		}
	}
}

func TestState_String(t *testing.T) {
	cases := map[State]string{
		StateClosed:   "CLOSED",
		StateOpen:     "OPEN",
		StateHalfOpen: "HALF_OPEN",
		State(99):     "UNKNOWN",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
