// Package breaker guards calls to an unreliable dependency with a circuit
// breaker.
//
// # States
//
// The breaker moves between three states:
//
//   - Closed: calls pass through. Consecutive failures are counted; any
//     success resets the count. When the count reaches the failure
//     threshold, the breaker opens.
//   - Open: calls are rejected immediately with ErrCircuitOpen. After the
//     reset timeout elapses, the next call is admitted as a trial and the
//     breaker moves to half-open.
//   - HalfOpen: exactly one trial call is in flight; concurrent calls are
//     rejected with ErrCircuitOpen. A successful trial closes the breaker;
//     a failed trial reopens it and restarts the reset timeout.
//
// Timing uses the runtime's monotonic clock, so wall-clock adjustments
// never shorten or extend the open interval.
package breaker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// State is the breaker's position in its lifecycle.
type State int

const (
	// StateClosed passes calls through while counting consecutive failures.
	StateClosed State = iota

	// StateOpen rejects calls without invoking the operation.
	StateOpen

	// StateHalfOpen admits a single trial call.
	StateHalfOpen
)

// String returns the conventional uppercase state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// ErrCircuitOpen is returned by Do when the breaker rejects a call without
// invoking the operation.
var ErrCircuitOpen = errors.New("breaker: circuit open")

// Operation is a guarded call. It must honor ctx cancellation.
type Operation func(ctx context.Context) ([]byte, error)

// Settings are the breaker's tunable parameters.
type Settings struct {
	// FailureThreshold is the number of consecutive failures that opens
	// the breaker.
	FailureThreshold int

	// ResetTimeout is how long the breaker stays open before admitting a
	// trial call.
	ResetTimeout time.Duration

	// CallTimeout bounds each operation. Zero means no per-call bound
	// beyond the caller's context. A timed-out call counts as a failure.
	CallTimeout time.Duration
}

// Snapshot is a point-in-time view of the breaker for health reporting.
type Snapshot struct {
	State               State
	ConsecutiveFailures int
}

// Breaker is a circuit breaker. It is safe for concurrent use.
type Breaker struct {
	settings Settings
	logger   *slog.Logger

	// onStateChange, when set, is invoked after every transition, outside
	// the breaker's lock.
	onStateChange func(from, to State)

	mu                  sync.Mutex
	state               State
	consecutiveFailures int
	openedAt            time.Time
	trialInFlight       bool
	now                 func() time.Time
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithStateChangeHook registers fn to be called on every state transition.
func WithStateChangeHook(fn func(from, to State)) Option {
	return func(b *Breaker) { b.onStateChange = fn }
}

// WithClock replaces the breaker's clock. For tests.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) { b.now = now }
}

// New creates a closed breaker with the given settings.
func New(settings Settings, logger *slog.Logger, opts ...Option) *Breaker {
	if logger == nil {
		logger = slog.Default()
	}

	b := &Breaker{
		settings: settings,
		logger:   logger,
		state:    StateClosed,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// State returns the breaker's current state. An open breaker whose reset
// timeout has elapsed still reports OPEN until a call arrives and is
// admitted as the half-open trial.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// GetSnapshot returns the breaker's state and failure count.
func (b *Breaker) GetSnapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		State:               b.state,
		ConsecutiveFailures: b.consecutiveFailures,
	}
}

// Do runs op under the breaker's protection.
//
// When the breaker rejects the call, Do returns ErrCircuitOpen without
// invoking op. Otherwise op's result is returned as-is, and its outcome is
// recorded against the breaker's failure count.
func (b *Breaker) Do(ctx context.Context, op Operation) ([]byte, error) {
	if err := b.admit(); err != nil {
		return nil, err
	}

	if b.settings.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.settings.CallTimeout)
		defer cancel()
	}

	result, err := op(ctx)
	if err != nil {
		b.recordFailure(err)
		return nil, err
	}

	b.recordSuccess()
	return result, nil
}

// admit decides whether a call may proceed, performing the open-to-half-open
// transition when the reset timeout has elapsed.
func (b *Breaker) admit() error {
	b.mu.Lock()

	switch b.state {
	case StateClosed:
		b.mu.Unlock()
		return nil

	case StateOpen:
		if b.now().Sub(b.openedAt) < b.settings.ResetTimeout {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
		transition := b.setState(StateHalfOpen)
		b.trialInFlight = true
		b.mu.Unlock()
		b.notify(transition)
		return nil

	case StateHalfOpen:
		if b.trialInFlight {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
		b.trialInFlight = true
		b.mu.Unlock()
		return nil
	}

	b.mu.Unlock()
	return ErrCircuitOpen
}

// recordSuccess resets the failure count and closes the breaker after a
// successful half-open trial.
func (b *Breaker) recordSuccess() {
	b.mu.Lock()

	b.consecutiveFailures = 0

	var transition *stateChange
	if b.state == StateHalfOpen {
		b.trialInFlight = false
		transition = b.setState(StateClosed)
	}
	b.mu.Unlock()
	b.notify(transition)
}

// recordFailure counts a failure, opening the breaker at the threshold or
// reopening it after a failed trial.
func (b *Breaker) recordFailure(cause error) {
	b.mu.Lock()

	b.consecutiveFailures++

	var transition *stateChange
	switch b.state {
	case StateClosed:
		if b.consecutiveFailures >= b.settings.FailureThreshold {
			b.openedAt = b.now()
			transition = b.setState(StateOpen)
		}
	case StateHalfOpen:
		b.trialInFlight = false
		b.openedAt = b.now()
		transition = b.setState(StateOpen)
	}

	failures := b.consecutiveFailures
	b.mu.Unlock()

	if transition != nil {
		b.logger.Warn("circuit breaker opened",
			slog.Int("consecutive_failures", failures),
			slog.String("error", cause.Error()))
	}
	b.notify(transition)
}

type stateChange struct {
	from, to State
}

// setState records a transition. Callers must hold b.mu.
func (b *Breaker) setState(to State) *stateChange {
	from := b.state
	if from == to {
		return nil
	}
	b.state = to

	b.logger.Info("circuit breaker state change",
		slog.String("from", from.String()),
		slog.String("to", to.String()))
	return &stateChange{from: from, to: to}
}

// notify fires the state-change hook outside the lock.
func (b *Breaker) notify(t *stateChange) {
	if t != nil && b.onStateChange != nil {
		b.onStateChange(t.from, t.to)
	}
}
