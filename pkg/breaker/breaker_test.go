package breaker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRemote = errors.New("remote failure")

// fakeClock is a manually advanced clock for deterministic transition tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
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

func newTestBreaker(clock *fakeClock) *Breaker {
	return New("billing-lookup", Config{
		SlidingWindowSize:      10,
		MinimumCalls:           5,
		FailureRateThreshold:   50,
		WaitDurationOpen:       30 * time.Second,
		PermittedHalfOpenCalls: 3,
		Clock:                  clock.Now,
	})
}

func fail(context.Context) error    { return errRemote }
func succeed(context.Context) error { return nil }

func TestBreaker_StaysClosedBelowMinimumCalls(t *testing.T) {
	clock := newFakeClock()
	b := newTestBreaker(clock)
	ctx := context.Background()

	// Four straight failures: 100% failure rate but below minimumCalls.
	for i := 0; i < 4; i++ {
		assert.ErrorIs(t, b.Do(ctx, fail), errRemote)
	}
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_OpensAtThreshold(t *testing.T) {
	clock := newFakeClock()
	b := newTestBreaker(clock)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, b.Do(ctx, succeed))
	}
	// 3 failures out of 5 = 60% >= 50%.
	for i := 0; i < 3; i++ {
		require.ErrorIs(t, b.Do(ctx, fail), errRemote)
	}
	assert.Equal(t, StateOpen, b.State())

	// Open circuit rejects without invoking the operation.
	invoked := false
	err := b.Do(ctx, func(context.Context) error {
		invoked = true
		return nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, invoked)
}

func TestBreaker_HalfOpenAfterWaitDuration(t *testing.T) {
	clock := newFakeClock()
	b := newTestBreaker(clock)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = b.Do(ctx, fail)
	}
	require.Equal(t, StateOpen, b.State())

	// Still open before the wait elapses.
	clock.Advance(29 * time.Second)
	assert.ErrorIs(t, b.Do(ctx, succeed), ErrOpen)

	// After the wait the next call is attempted as a trial.
	clock.Advance(2 * time.Second)
	invoked := false
	err := b.Do(ctx, func(context.Context) error {
		invoked = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, invoked)
	assert.Equal(t, StateHalfOpen, b.State())
}

func TestBreaker_ClosesAfterAllTrialsSucceed(t *testing.T) {
	clock := newFakeClock()
	b := newTestBreaker(clock)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = b.Do(ctx, fail)
	}
	clock.Advance(31 * time.Second)

	for i := 0; i < 3; i++ {
		require.NoError(t, b.Do(ctx, succeed))
	}
	assert.Equal(t, StateClosed, b.State())

	// Window was reset: old failures do not linger.
	for i := 0; i < 4; i++ {
		require.NoError(t, b.Do(ctx, succeed))
	}
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_ReopensOnTrialFailure(t *testing.T) {
	clock := newFakeClock()
	b := newTestBreaker(clock)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = b.Do(ctx, fail)
	}
	clock.Advance(31 * time.Second)

	require.NoError(t, b.Do(ctx, succeed))
	require.ErrorIs(t, b.Do(ctx, fail), errRemote)
	assert.Equal(t, StateOpen, b.State())

	// openedAt was refreshed: still rejecting right away.
	assert.ErrorIs(t, b.Do(ctx, succeed), ErrOpen)
}

func TestBreaker_HalfOpenLimitsTrialSlots(t *testing.T) {
	clock := newFakeClock()
	b := newTestBreaker(clock)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = b.Do(ctx, fail)
	}
	clock.Advance(31 * time.Second)

	// Hold all three trial slots open concurrently.
	started := make(chan struct{}, 3)
	release := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Do(ctx, func(context.Context) error {
				started <- struct{}{}
				<-release
				return nil
			})
		}()
	}
	for i := 0; i < 3; i++ {
		<-started
	}

	// A fourth call has no trial slot and is rejected.
	assert.ErrorIs(t, b.Do(ctx, succeed), ErrOpen)

	close(release)
	wg.Wait()
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_IsFailureClassifier(t *testing.T) {
	clock := newFakeClock()
	decodeErr := errors.New("decode failure")
	b := New("billing-lookup", Config{
		SlidingWindowSize:      10,
		MinimumCalls:           5,
		FailureRateThreshold:   50,
		WaitDurationOpen:       30 * time.Second,
		PermittedHalfOpenCalls: 3,
		Clock:                  clock.Now,
		IsFailure: func(err error) bool {
			return err != nil && !errors.Is(err, decodeErr)
		},
	})
	ctx := context.Background()

	// Decode failures surface to the caller but never trip the circuit.
	for i := 0; i < 20; i++ {
		assert.ErrorIs(t, b.Do(ctx, func(context.Context) error { return decodeErr }), decodeErr)
	}
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_SlidingWindowEvictsOldOutcomes(t *testing.T) {
	clock := newFakeClock()
	b := newTestBreaker(clock)
	ctx := context.Background()

	// Two early failures, then eight successes fill the window: 20% < 50%.
	for i := 0; i < 2; i++ {
		_ = b.Do(ctx, fail)
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, b.Do(ctx, succeed))
	}
	require.Equal(t, StateClosed, b.State())

	// Two more successes evict the old failures. Four fresh failures are
	// then only 40% of the window, so the circuit stays closed.
	for i := 0; i < 2; i++ {
		require.NoError(t, b.Do(ctx, succeed))
	}
	for i := 0; i < 4; i++ {
		_ = b.Do(ctx, fail)
	}
	require.Equal(t, StateClosed, b.State())

	// A fifth failure reaches the 50% threshold and opens the circuit.
	_ = b.Do(ctx, fail)
	assert.Equal(t, StateOpen, b.State())
}

func TestBreaker_OnStateChangeObserved(t *testing.T) {
	clock := newFakeClock()
	type change struct{ from, to State }
	var changes []change

	b := New("product-change", Config{
		SlidingWindowSize:      5,
		MinimumCalls:           5,
		FailureRateThreshold:   50,
		WaitDurationOpen:       30 * time.Second,
		PermittedHalfOpenCalls: 1,
		Clock:                  clock.Now,
		OnStateChange: func(name string, from, to State) {
			changes = append(changes, change{from, to})
		},
	})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = b.Do(ctx, fail)
	}
	clock.Advance(31 * time.Second)
	require.NoError(t, b.Do(ctx, succeed))

	assert.Equal(t, []change{
		{StateClosed, StateOpen},
		{StateOpen, StateHalfOpen},
		{StateHalfOpen, StateClosed},
	}, changes)
}

func TestBreaker_ConcurrentFailuresAreNotLost(t *testing.T) {
	clock := newFakeClock()
	b := New("billing-lookup", Config{
		SlidingWindowSize:      100,
		MinimumCalls:           100,
		FailureRateThreshold:   50,
		WaitDurationOpen:       30 * time.Second,
		PermittedHalfOpenCalls: 3,
		Clock:                  clock.Now,
	})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Do(ctx, fail)
		}()
	}
	wg.Wait()

	// 100 failures recorded means the circuit must have opened.
	assert.Equal(t, StateOpen, b.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "CLOSED", StateClosed.String())
	assert.Equal(t, "OPEN", StateOpen.String())
	assert.Equal(t, "HALF_OPEN", StateHalfOpen.String())
}
