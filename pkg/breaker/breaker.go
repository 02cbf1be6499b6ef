// Package breaker implements a count-based sliding window circuit breaker.
//
// One Breaker instance guards one class of external operation (for example
// "billing-lookup" or "product-change"). While the circuit is open the
// wrapped operation is never invoked and callers receive ErrOpen, so they can
// take their fallback path instead of queueing up on a failing remote system.
package breaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned when the circuit is open and the call is rejected
// without invoking the wrapped operation. Callers must treat it as an
// expected outcome, not an unexpected error.
var ErrOpen = errors.New("breaker: circuit open")

// State is the circuit state.
type State int

// Circuit states.
const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// String implements fmt.Stringer.
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

// Config holds breaker tuning parameters. Zero values fall back to defaults
// that match the KOS adapter settings (window 10, minimum 5, threshold 50%,
// open wait 30s, 3 half-open trials).
type Config struct {
	// SlidingWindowSize is the number of recent call outcomes retained.
	SlidingWindowSize int
	// MinimumCalls is the number of recorded outcomes required before the
	// failure rate is evaluated at all.
	MinimumCalls int
	// FailureRateThreshold is the failure percentage (0-100) at or above
	// which the circuit opens.
	FailureRateThreshold float64
	// WaitDurationOpen is how long the circuit stays open before admitting
	// half-open trial calls.
	WaitDurationOpen time.Duration
	// PermittedHalfOpenCalls is the number of trial calls admitted in the
	// half-open state. All of them must succeed to close the circuit.
	PermittedHalfOpenCalls int
	// IsFailure classifies an operation error as a breaker failure. When nil,
	// every non-nil error counts. The KOS adapter uses this to keep decode
	// errors out of the failure window.
	IsFailure func(error) bool
	// OnStateChange is invoked after each state transition, outside the
	// caller-visible return value. Used for metrics and logging.
	OnStateChange func(name string, from, to State)
	// Clock returns the current time. Injectable for tests.
	Clock func() time.Time
}

func (c *Config) withDefaults() {
	if c.SlidingWindowSize <= 0 {
		c.SlidingWindowSize = 10
	}
	if c.MinimumCalls <= 0 {
		c.MinimumCalls = 5
	}
	if c.FailureRateThreshold <= 0 {
		c.FailureRateThreshold = 50
	}
	if c.WaitDurationOpen <= 0 {
		c.WaitDurationOpen = 30 * time.Second
	}
	if c.PermittedHalfOpenCalls <= 0 {
		c.PermittedHalfOpenCalls = 3
	}
	if c.IsFailure == nil {
		c.IsFailure = func(err error) bool { return err != nil }
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
}

// Breaker is a circuit breaker for one operation class. All state mutations
// happen under a single mutex so concurrent callers cannot lose failure
// counts.
type Breaker struct {
	name string
	cfg  Config

	mu    sync.Mutex
	state State
	// window is a ring buffer of recent outcomes, true = failure.
	window   []bool
	head     int
	count    int
	failures int
	openedAt time.Time
	// half-open trial accounting
	trialInFlight int
	trialSuccess  int
}

// New creates a Breaker for the named operation class.
func New(name string, cfg Config) *Breaker {
	cfg.withDefaults()
	return &Breaker{
		name:   name,
		cfg:    cfg,
		state:  StateClosed,
		window: make([]bool, cfg.SlidingWindowSize),
	}
}

// Name returns the operation class name.
func (b *Breaker) Name() string { return b.name }

// State returns the current circuit state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Do runs op through the breaker. When the circuit is open the call returns
// ErrOpen without invoking op. The operation's own error is always returned
// as-is; only its classification feeds the failure window.
func (b *Breaker) Do(ctx context.Context, op func(context.Context) error) error {
	trial, err := b.acquire()
	if err != nil {
		return err
	}

	opErr := op(ctx)
	b.record(trial, b.cfg.IsFailure(opErr))
	return opErr
}

// acquire decides whether a call is admitted. It reports whether the admitted
// call is a half-open trial.
func (b *Breaker) acquire() (trial bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return false, nil

	case StateOpen:
		if b.cfg.Clock().Sub(b.openedAt) < b.cfg.WaitDurationOpen {
			return false, ErrOpen
		}
		b.transition(StateHalfOpen)
		b.trialInFlight = 1
		return true, nil

	case StateHalfOpen:
		if b.trialInFlight >= b.cfg.PermittedHalfOpenCalls {
			return false, ErrOpen
		}
		b.trialInFlight++
		return true, nil
	}

	return false, ErrOpen
}

// record feeds a completed call outcome back into the breaker.
func (b *Breaker) record(trial, failure bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if trial {
		// A trial outcome only matters while we are still half-open; a
		// concurrent trial may already have resolved the state.
		if b.state != StateHalfOpen {
			return
		}
		if failure {
			b.openedAt = b.cfg.Clock()
			b.transition(StateOpen)
			return
		}
		b.trialSuccess++
		if b.trialSuccess >= b.cfg.PermittedHalfOpenCalls {
			b.resetWindow()
			b.transition(StateClosed)
		}
		return
	}

	if b.state != StateClosed {
		return
	}

	b.push(failure)
	if b.count >= b.cfg.MinimumCalls && b.failureRate() >= b.cfg.FailureRateThreshold {
		b.openedAt = b.cfg.Clock()
		b.transition(StateOpen)
	}
}

// push appends an outcome to the ring buffer, evicting the oldest entry once
// the window is full.
func (b *Breaker) push(failure bool) {
	if b.count == len(b.window) {
		if b.window[b.head] {
			b.failures--
		}
	} else {
		b.count++
	}
	b.window[b.head] = failure
	if failure {
		b.failures++
	}
	b.head = (b.head + 1) % len(b.window)
}

func (b *Breaker) failureRate() float64 {
	if b.count == 0 {
		return 0
	}
	return float64(b.failures) / float64(b.count) * 100
}

func (b *Breaker) resetWindow() {
	for i := range b.window {
		b.window[i] = false
	}
	b.head = 0
	b.count = 0
	b.failures = 0
}

// transition switches state and fires the observer hook. Callers hold b.mu.
func (b *Breaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if to == StateHalfOpen {
		b.trialInFlight = 0
		b.trialSuccess = 0
	}
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.name, from, to)
	}
}
