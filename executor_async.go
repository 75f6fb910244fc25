package failsafe

import "context"

// AsyncInvocation is the contextual handle passed to a trial function
// registered via RunAsyncCtx/GetAsyncCtx, letting the trial itself
// decide the outcome of its own attempt instead of leaving it purely
// to the policy's (result, failure) inspection.
type AsyncInvocation[R any] interface {
	// Retry signals that this attempt should be retried with failure
	// as the recorded cause, overriding the policy for this trial.
	Retry(failure error)
	// Complete signals that the execution is finished with (result,
	// failure), overriding the policy for this trial.
	Complete(result R, failure error)
	// Stats returns the current InvocationStats snapshot.
	Stats() InvocationStats
}

// ctxInvocation is the contextual handle passed to a trial function
// registered via a *Ctx entry point, letting the trial itself decide
// the outcome instead of leaving it purely to the policy.
type ctxInvocation[R any] struct {
	inv *Invocation[R]
}

// Retry signals that the trial should be retried with failure as the
// recorded cause, overriding whatever the policy would otherwise
// decide for this trial.
func (c *ctxInvocation[R]) Retry(failure error) { c.inv.Retry(failure) }

// Complete signals that the execution is finished with (result,
// failure), overriding the policy for this trial.
func (c *ctxInvocation[R]) Complete(result R, failure error) { c.inv.Complete(result, failure) }

// Stats returns the current InvocationStats snapshot.
func (c *ctxInvocation[R]) Stats() InvocationStats { return c.inv.Stats() }

// asyncDriver owns one async execution end to end: the trial
// function, the policy it consults, the scheduler it reschedules
// through, and the future it reports into.
type asyncDriver[R any] struct {
	ctx       context.Context
	policy    *Policy[R]
	scheduler Scheduler
	future    *Future[R]
	inv       *Invocation[R]
	trial     func(context.Context, *Invocation[R]) (R, error)
}

func runAsync[R any](ctx context.Context, op func(context.Context) (R, error), policy *Policy[R], scheduler Scheduler, defaults *listeners[R]) *Future[R] {
	trial := func(ctx context.Context, _ *Invocation[R]) (R, error) { return op(ctx) }
	return startAsync(ctx, policy, scheduler, defaults, trial)
}

func runAsyncContextual[R any](ctx context.Context, op func(context.Context, AsyncInvocation[R]) (R, error), policy *Policy[R], scheduler Scheduler, defaults *listeners[R]) *Future[R] {
	trial := func(ctx context.Context, inv *Invocation[R]) (R, error) {
		return op(ctx, &ctxInvocation[R]{inv: inv})
	}
	return startAsync(ctx, policy, scheduler, defaults, trial)
}

func startAsync[R any](ctx context.Context, policy *Policy[R], scheduler Scheduler, defaults *listeners[R], trial func(context.Context, *Invocation[R]) (R, error)) *Future[R] {
	future := newFuture[R](scheduler)
	future.listeners.copyFrom(defaults)
	d := &asyncDriver[R]{
		ctx:       ctx,
		policy:    policy,
		scheduler: scheduler,
		future:    future,
		inv:       newInvocation(policy),
		trial:     trial,
	}
	d.runTrial()
	return future
}

// runTrial launches one trial on its own goroutine and routes its
// outcome back through recordResult under the epoch it was started
// with, so a trial that returns after the invocation has already moved
// on (a race with a contextual Complete/Retry call) is discarded.
func (d *asyncDriver[R]) runTrial() {
	epoch := d.inv.beginTrial()
	go func() {
		result, failure := d.trial(d.ctx, d.inv)
		d.recordResult(epoch, result, failure)
	}()
}

// recordResult is the single re-entry point for a trial's outcome,
// whether it arrives from the trial's own return or from a contextual
// Retry/Complete call racing against it. Only the first caller for
// epoch is honored. A future already done — cancelled while this
// trial was running, or resolved by a racing completion — discards the
// result outright instead of deciding, rescheduling, or firing any
// further listeners.
func (d *asyncDriver[R]) recordResult(epoch uint64, autoResult R, autoFailure error) {
	if d.future.IsDone() {
		return
	}
	retryReq, completeReq, userResult, userFailure, ok := d.inv.tryCommit(epoch)
	if !ok {
		return
	}
	d.inv.recordAttempt()

	switch {
	case completeReq:
		// An explicit Complete always wins outright: no exhaustion
		// wrapping, acceptability follows the caller's failure value
		// verbatim.
		d.finishWith(userResult, userFailure, userFailure == nil)
	case retryReq:
		d.reschedule(autoResult, userFailure)
	default:
		d.decide(autoResult, autoFailure)
	}
}

// decide applies the policy's automatic verdict for a trial that
// received no explicit Retry/Complete signal.
func (d *asyncDriver[R]) decide(result R, failure error) {
	retryable := d.policy.allowsRetriesFor(result, failure)
	exceeded := d.inv.exceeded()

	if retryable || failure != nil {
		d.future.listeners.fire(kindFailedAttempt, d.inv.Stats(), result, failure, d.scheduler)
	}

	if !retryable || exceeded {
		// acceptable excludes the case where the policy would still
		// retry but the budget ran out with no error: that trial
		// neither succeeded nor failed by the policy's own lights, it
		// just ran out of room.
		acceptable := !retryable && failure == nil
		if failure != nil {
			failure = newExhausted(d.inv.attemptCount, failure)
		}
		d.finishWith(result, failure, acceptable)
		return
	}

	d.reschedule(result, failure)
}

// reschedule adjusts backoff, fires the retry listener, and schedules
// the next trial. Reached either automatically (policy says retry) or
// because a contextual callback called Retry explicitly — the latter
// bypasses the policy entirely, per the rule that an explicit signal
// always wins.
func (d *asyncDriver[R]) reschedule(result R, failure error) {
	d.inv.adjustWaitTime()
	d.future.listeners.fire(kindRetry, d.inv.Stats(), result, failure, d.scheduler)

	h, err := d.scheduler.Schedule(func() { d.runTrial() }, d.inv.waitTime)
	if err != nil {
		d.finishWith(result, err, false)
		return
	}
	d.future.trySetDelegate(h)
}

// finishWith transitions the future first and fires the terminal
// listener trio only if this call won that transition — if the future
// was already resolved by a racing Cancel, the trio has already fired
// (with the cancellation failure) and must not fire again here.
func (d *asyncDriver[R]) finishWith(result R, failure error, acceptable bool) {
	stats := d.inv.Stats()
	if !d.future.finish(acceptable, result, failure, false) {
		return
	}
	fireTerminal(&d.future.listeners, stats, result, failure, acceptable, d.scheduler)
}
