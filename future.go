package failsafe

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Future is the handle returned by asynchronous calls.
// It is cancellable, awaitable, and completes exactly once: every
// write to its terminal state happens under mu.
type Future[R any] struct {
	ID uuid.UUID

	mu        sync.Mutex
	doneCh    chan struct{}
	done      bool
	cancelled bool
	success   bool
	result    R
	failure   error
	delegate  Handle

	scheduler Scheduler
	listeners listeners[R]
}

func newFuture[R any](scheduler Scheduler) *Future[R] {
	return &Future[R]{
		ID:        uuid.New(),
		doneCh:    make(chan struct{}),
		scheduler: scheduler,
	}
}

// setDelegate replaces the Scheduler handle for the currently pending
// trial. The previous handle is simply dropped: by the time a
// reschedule happens the prior trial has already resolved, so there is
// nothing left to cancel on it.
func (f *Future[R]) setDelegate(h Handle) {
	f.mu.Lock()
	f.delegate = h
	f.mu.Unlock()
}

// trySetDelegate installs h as the pending handle unless the future has
// already reached a terminal state, in which case h is cancelled
// immediately instead — closing the race between a reschedule and a
// concurrent Cancel. Returns false when h was discarded this way.
func (f *Future[R]) trySetDelegate(h Handle) bool {
	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		h.Cancel()
		return false
	}
	f.delegate = h
	f.mu.Unlock()
	return true
}

// finish is the single terminal-transition point. It returns false if
// the future was already done: the future completes exactly once,
// whoever first acquires mu and observes !done wins, whether that
// caller is Cancel or the executor completing normally. A winning
// cancellation also fires the failure and complete listeners with the
// cancellation failure — a cancelled future still completes, it just
// completes unsuccessfully.
func (f *Future[R]) finish(success bool, result R, failure error, cancelled bool) bool {
	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		return false
	}
	f.done = true
	f.cancelled = cancelled
	f.success = success
	f.result = result
	f.failure = failure
	delegate := f.delegate
	f.mu.Unlock()
	if cancelled {
		if delegate != nil {
			delegate.Cancel()
		}
		fireTerminal(&f.listeners, InvocationStats{ID: f.ID}, result, failure, false, f.scheduler)
	}
	close(f.doneCh)
	return true
}

// Cancel cancels the currently pending Scheduler handle, if any, and
// transitions the future to cancelled+done, firing its failure and
// complete listeners with ErrCancelled. It does not interrupt a trial
// already running in user code. Returns false if the future was
// already done.
func (f *Future[R]) Cancel(mayInterrupt bool) bool {
	var zero R
	return f.finish(false, zero, ErrCancelled, true)
}

// IsDone reports whether the future has reached a terminal state.
func (f *Future[R]) IsDone() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}

// IsCancelled reports whether the future was cancelled.
func (f *Future[R]) IsCancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

// Get blocks until the future is done and returns its outcome.
func (f *Future[R]) Get() (R, error) {
	<-f.doneCh
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result, f.failure
}

// GetContext blocks until the future is done or ctx is done, whichever
// comes first. A context timeout signals the timeout without affecting
// the future.
func (f *Future[R]) GetContext(ctx context.Context) (R, error) {
	select {
	case <-f.doneCh:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.result, f.failure
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// snapshot returns the stored outcome, for listeners registered after
// terminal completion.
func (f *Future[R]) snapshot() (done, success bool, result R, failure error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done, f.success, f.result, f.failure
}

func (f *Future[R]) onEvent(kind listenerKind, call func(InvocationStats, R, error), opts []ListenerOption) *Future[R] {
	entry := f.listeners.register(kind, call, opts)
	done, success, result, failure := f.snapshot()
	if !done {
		return f
	}
	stats := InvocationStats{ID: f.ID}
	switch kind {
	case kindSuccess:
		if success {
			dispatchEntry(entry, stats, result, nil, f.scheduler)
		}
	case kindFailure:
		if failure != nil {
			dispatchEntry(entry, stats, result, failure, f.scheduler)
		}
	case kindComplete:
		dispatchEntry(entry, stats, result, failure, f.scheduler)
	}
	return f
}

func withStatsOnly[R any](fn func(R, error)) func(InvocationStats, R, error) {
	return func(_ InvocationStats, r R, err error) { fn(r, err) }
}

// OnFailedAttempt registers a listener that fires on every trial whose
// outcome is retry-eligible per the policy, before rescheduling — also
// on a final trial that failed but exhausted retries.
func (f *Future[R]) OnFailedAttempt(fn func(InvocationStats, R, error), opts ...ListenerOption) *Future[R] {
	return f.onEvent(kindFailedAttempt, fn, opts)
}

// OnFailedAttemptPlain is OnFailedAttempt without the stats argument.
func (f *Future[R]) OnFailedAttemptPlain(fn func(R, error), opts ...ListenerOption) *Future[R] {
	return f.onEvent(kindFailedAttempt, withStatsOnly(fn), opts)
}

// OnRetry registers a listener that fires on every trial that will be
// retried, after wait-time adjustment.
func (f *Future[R]) OnRetry(fn func(InvocationStats, R, error), opts ...ListenerOption) *Future[R] {
	return f.onEvent(kindRetry, fn, opts)
}

// OnRetryPlain is OnRetry without the stats argument.
func (f *Future[R]) OnRetryPlain(fn func(R, error), opts ...ListenerOption) *Future[R] {
	return f.onEvent(kindRetry, withStatsOnly(fn), opts)
}

// WhenSuccess registers a listener that fires once at terminal
// completion when the final outcome is acceptable.
func (f *Future[R]) WhenSuccess(fn func(R), opts ...ListenerOption) *Future[R] {
	return f.onEvent(kindSuccess, func(_ InvocationStats, r R, _ error) { fn(r) }, opts)
}

// WhenSuccessStats is WhenSuccess with the InvocationStats argument.
func (f *Future[R]) WhenSuccessStats(fn func(InvocationStats, R), opts ...ListenerOption) *Future[R] {
	return f.onEvent(kindSuccess, func(s InvocationStats, r R, _ error) { fn(s, r) }, opts)
}

// WhenFailure registers a listener that fires once at terminal
// completion when the final outcome carries a non-nil failure. An
// execution that exhausts its budget on a result with no error does
// not fire it.
func (f *Future[R]) WhenFailure(fn func(error), opts ...ListenerOption) *Future[R] {
	return f.onEvent(kindFailure, func(_ InvocationStats, _ R, err error) { fn(err) }, opts)
}

// WhenFailureStats is WhenFailure with the InvocationStats argument.
func (f *Future[R]) WhenFailureStats(fn func(InvocationStats, error), opts ...ListenerOption) *Future[R] {
	return f.onEvent(kindFailure, func(s InvocationStats, _ R, err error) { fn(s, err) }, opts)
}

// WhenComplete registers a listener that fires once at terminal
// completion unconditionally, after success/failure.
func (f *Future[R]) WhenComplete(fn func(R, error), opts ...ListenerOption) *Future[R] {
	return f.onEvent(kindComplete, withStatsOnly(fn), opts)
}

// WhenCompleteStats is WhenComplete with the InvocationStats argument.
func (f *Future[R]) WhenCompleteStats(fn func(InvocationStats, R, error), opts ...ListenerOption) *Future[R] {
	return f.onEvent(kindComplete, fn, opts)
}
