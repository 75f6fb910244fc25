package failsafe

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Invocation is the per-execution mutable state threaded through
// trials. It is exclusively owned by whichever Executor
// is driving it, except for the user-signal flags (retryRequested,
// completionRequested), which contextual callbacks may set from any
// goroutine — those are guarded by mu.
type Invocation[R any] struct {
	ID      uuid.UUID
	policy  *Policy[R]
	clock   Clock
	backoff Backoff

	startInstant time.Time

	attemptCount int
	waitTime     time.Duration

	// epoch identifies the current trial. A contextual callback that
	// fires after the trial boundary has moved past its epoch is
	// discarded.
	epoch uint64

	mu                  sync.Mutex
	retryRequested      bool
	completionRequested bool
	committed           bool
	userResult          R
	userFailure         error
}

// InvocationStats is the read-only view of an Invocation exposed to
// listeners.
type InvocationStats struct {
	ID           uuid.UUID
	AttemptCount int
	Elapsed      time.Duration
	WaitTime     time.Duration
}

func newInvocation[R any](policy *Policy[R]) *Invocation[R] {
	return &Invocation[R]{
		ID:           uuid.New(),
		policy:       policy,
		clock:        policy.clock,
		backoff:      backoffForPolicy(policy),
		startInstant: policy.clock.Now(),
		waitTime:     policy.delay,
	}
}

// Stats snapshots the current execution state for listener dispatch.
func (inv *Invocation[R]) Stats() InvocationStats {
	return InvocationStats{
		ID:           inv.ID,
		AttemptCount: inv.attemptCount,
		Elapsed:      inv.clock.Now().Sub(inv.startInstant),
		WaitTime:     inv.waitTime,
	}
}

// currentEpoch returns the epoch of the trial currently in flight.
func (inv *Invocation[R]) currentEpoch() uint64 {
	return inv.epoch
}

// beginTrial advances the trial epoch and clears the previous trial's
// user-signal flags. It returns the epoch assigned to
// the trial about to run.
func (inv *Invocation[R]) beginTrial() uint64 {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.epoch++
	inv.retryRequested = false
	inv.completionRequested = false
	inv.committed = false
	var zero R
	inv.userResult = zero
	inv.userFailure = nil
	return inv.epoch
}

// recordAttempt counts one completed trial, whatever its outcome. The
// exceeded check below reads this value immediately afterward, so it
// always reflects every trial run so far including the one that just
// returned.
func (inv *Invocation[R]) recordAttempt() {
	inv.attemptCount++
}

// adjustWaitTime advances the backoff for the upcoming retry, then
// clamps it to whatever remains of the maxDuration budget. Called only
// when the executor has decided to retry.
func (inv *Invocation[R]) adjustWaitTime() {
	inv.waitTime = inv.backoff.Delay(inv.attemptCount)
	if inv.policy.maxDurationSet {
		elapsed := inv.clock.Now().Sub(inv.startInstant)
		remaining := inv.policy.maxDuration - elapsed
		if remaining < 0 {
			remaining = 0
		}
		if inv.waitTime > remaining {
			inv.waitTime = remaining
		}
	}
}

// exceeded reports whether this invocation has run out of budget,
// either on attempt count or wall-clock duration.
func (inv *Invocation[R]) exceeded() bool {
	elapsed := inv.clock.Now().Sub(inv.startInstant)
	return inv.policy.exceeded(inv.attemptCount, elapsed)
}

// Retry signals, from contextual mode, that the operation should be
// retried after the given failure.
// It is safe to call from any goroutine. A later call to Complete in
// the same trial wins.
func (inv *Invocation[R]) Retry(failure error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.retryRequested = true
	inv.completionRequested = false
	inv.userFailure = failure
}

// Complete signals, from contextual mode, that the operation has
// finished with the given (result, failure) pair. It is safe to call from
// any goroutine.
func (inv *Invocation[R]) Complete(result R, failure error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.completionRequested = true
	inv.retryRequested = false
	inv.userResult = result
	inv.userFailure = failure
}

// tryCommit claims the decision for the trial identified by epoch. Only
// the first caller for a given epoch gets ok=true: a trial's own return
// and a contextual callback's Retry/Complete call may race, and this is
// the single point that picks a winner. A stale epoch (the trial
// boundary has already moved on) is also reported as !ok.
func (inv *Invocation[R]) tryCommit(epoch uint64) (retry, complete bool, result R, failure error, ok bool) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.epoch != epoch || inv.committed {
		var zero R
		return false, false, zero, nil, false
	}
	inv.committed = true
	return inv.retryRequested, inv.completionRequested, inv.userResult, inv.userFailure, true
}
