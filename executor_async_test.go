package failsafe_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/AdamRoberts/failsafe"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGetAsyncContextualCompletion(t *testing.T) {
	clock := failsafe.NewFakeClock()
	scheduler := failsafe.NewDefaultScheduler(clock, 4)
	policy, err := failsafe.NewPolicy[string]().WithMaxRetries(5).WithClock(clock).Build()
	require.NoError(t, err)

	var successes int
	future := failsafe.GetAsyncCtx(context.Background(), func(ctx context.Context, inv failsafe.AsyncInvocation[string]) (string, error) {
		// simulates a callback-based API completing on another goroutine
		go inv.Complete("v", nil)
		return "", nil
	}, policy, scheduler,
		failsafe.WhenSuccess[string](func(_ failsafe.InvocationStats, _ string) { successes++ }),
	)

	val, err := future.Get()
	require.NoError(t, err)
	require.Equal(t, "v", val)
	require.Equal(t, 1, successes)
}

func TestGetAsyncCancelDuringWait(t *testing.T) {
	clock := failsafe.NewFakeClock()
	scheduler := failsafe.NewDefaultScheduler(clock, 4)
	policy, err := failsafe.NewPolicy[int]().
		WithDelay(time.Second).
		WithMaxRetries(10).
		WithClock(clock).
		Build()
	require.NoError(t, err)

	attempts := 0
	var completeFailure error
	var completeCalled bool

	future := failsafe.GetAsync(context.Background(), func(ctx context.Context) (int, error) {
		attempts++
		return 0, errConnect
	}, policy, scheduler,
		failsafe.WhenComplete[int](func(_ failsafe.InvocationStats, _ int, err error) {
			completeCalled = true
			completeFailure = err
		}),
	)

	// Wait for the first trial to fail and its retry to be scheduled
	// (a timer blocked on the fake clock) before cancelling.
	require.NoError(t, clock.BlockUntilContext(context.Background(), 1))

	future.Cancel(false)

	require.True(t, future.IsDone())
	require.True(t, future.IsCancelled())
	require.Equal(t, 1, attempts)
	require.True(t, completeCalled)
	require.ErrorIs(t, completeFailure, failsafe.ErrCancelled)

	clock.Advance(2 * time.Second)
	time.Sleep(10 * time.Millisecond)
	require.Equal(t, 1, attempts)
}

func TestGetAsyncMaxDurationClamp(t *testing.T) {
	clock := failsafe.NewFakeClock()
	scheduler := failsafe.NewDefaultScheduler(clock, 4)
	policy, err := failsafe.NewPolicy[int]().
		WithDelay(200 * time.Millisecond).
		WithMaxDuration(500 * time.Millisecond).
		WithClock(clock).
		Build()
	require.NoError(t, err)

	attempts := 0
	future := failsafe.GetAsync(context.Background(), func(ctx context.Context) (int, error) {
		attempts++
		clock.Advance(50 * time.Millisecond)
		return 0, errConnect
	}, policy, scheduler)

	for i := 0; i < 3; i++ {
		waitCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		blockErr := clock.BlockUntilContext(waitCtx, 1)
		cancel()
		if blockErr != nil {
			// No further retry was scheduled: the trial exhausted its
			// budget and completed the future on its own.
			break
		}
		clock.Advance(200 * time.Millisecond)
	}

	_, err = future.Get()
	require.True(t, failsafe.Exhausted(err))
	require.LessOrEqual(t, attempts, 3)
}

func TestGetAsyncSuccessAfterRetries(t *testing.T) {
	clock := failsafe.NewFakeClock()
	scheduler := failsafe.NewDefaultScheduler(clock, 4)
	policy, err := failsafe.NewPolicy[int]().
		WithDelay(10 * time.Millisecond).
		WithMaxRetries(5).
		WithClock(clock).
		Build()
	require.NoError(t, err)

	attempts := 0
	future := failsafe.GetAsync(context.Background(), func(ctx context.Context) (int, error) {
		attempts++
		if attempts < 3 {
			return 0, errConnect
		}
		return 42, nil
	}, policy, scheduler)

	for i := 0; i < 5; i++ {
		waitCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		blockErr := clock.BlockUntilContext(waitCtx, 1)
		cancel()
		if blockErr != nil {
			break
		}
		clock.Advance(10 * time.Millisecond)
	}

	val, err := future.Get()
	require.NoError(t, err)
	require.Equal(t, 42, val)
	require.Equal(t, 3, attempts)
}
