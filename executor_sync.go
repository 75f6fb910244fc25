package failsafe

import "context"

// fireTerminal dispatches the terminal listener trio for one call's
// final outcome: success only when acceptable, failure whenever
// non-nil (the two never both fire, but neither is the other's
// complement — a trial that exhausted its budget with neither an error
// nor an acceptable result fires neither), complete always last.
func fireTerminal[R any](reg *listeners[R], stats InvocationStats, result R, failure error, acceptable bool, sched Scheduler) {
	if acceptable {
		reg.fire(kindSuccess, stats, result, nil, sched)
	}
	if failure != nil {
		reg.fire(kindFailure, stats, result, failure, sched)
	}
	reg.fire(kindComplete, stats, result, failure, sched)
}

// runSync drives the blocking call-sleep-call loop: it invokes op on the
// caller's goroutine, offers the (result, failure) pair to policy, and
// either returns, raises RetryExhaustedError, or sleeps and tries again.
func runSync[R any](ctx context.Context, op func(context.Context) (R, error), policy *Policy[R], reg *listeners[R]) (R, error) {
	inv := newInvocation(policy)

	for {
		inv.beginTrial()
		result, failure := op(ctx)
		inv.recordAttempt()

		retryable := policy.allowsRetriesFor(result, failure)
		exceeded := inv.exceeded()

		if retryable || failure != nil {
			reg.fire(kindFailedAttempt, inv.Stats(), result, failure, nil)
		}

		if !retryable || exceeded {
			acceptable := !retryable && failure == nil
			fireTerminal(reg, inv.Stats(), result, failure, acceptable, nil)
			if failure != nil {
				return result, newExhausted(inv.attemptCount, failure)
			}
			return result, nil
		}

		inv.adjustWaitTime()
		reg.fire(kindRetry, inv.Stats(), result, failure, nil)

		if err := sleep(ctx, inv.clock, inv.waitTime); err != nil {
			fireTerminal(reg, inv.Stats(), result, err, false, nil)
			return result, err
		}
	}
}

// runSyncContextual is runSync's counterpart for operations that take
// the Invocation directly and may call Retry/Complete to decide their
// own outcome instead of leaving it to the policy. An explicit signal
// wins outright: the automatic retryable/exceeded check is skipped
// entirely for that trial.
func runSyncContextual[R any](ctx context.Context, op func(context.Context, AsyncInvocation[R]) (R, error), policy *Policy[R], reg *listeners[R]) (R, error) {
	inv := newInvocation(policy)

	for {
		epoch := inv.beginTrial()
		autoResult, autoFailure := op(ctx, &ctxInvocation[R]{inv: inv})
		retryReq, completeReq, userResult, userFailure, _ := inv.tryCommit(epoch)
		inv.recordAttempt()

		if completeReq {
			acceptable := userFailure == nil
			fireTerminal(reg, inv.Stats(), userResult, userFailure, acceptable, nil)
			return userResult, userFailure
		}

		if retryReq {
			reg.fire(kindFailedAttempt, inv.Stats(), autoResult, userFailure, nil)
			inv.adjustWaitTime()
			reg.fire(kindRetry, inv.Stats(), autoResult, userFailure, nil)
			if err := sleep(ctx, inv.clock, inv.waitTime); err != nil {
				fireTerminal(reg, inv.Stats(), autoResult, err, false, nil)
				return autoResult, err
			}
			continue
		}

		retryable := policy.allowsRetriesFor(autoResult, autoFailure)
		exceeded := inv.exceeded()

		if retryable || autoFailure != nil {
			reg.fire(kindFailedAttempt, inv.Stats(), autoResult, autoFailure, nil)
		}

		if !retryable || exceeded {
			acceptable := !retryable && autoFailure == nil
			fireTerminal(reg, inv.Stats(), autoResult, autoFailure, acceptable, nil)
			if autoFailure != nil {
				return autoResult, newExhausted(inv.attemptCount, autoFailure)
			}
			return autoResult, nil
		}

		inv.adjustWaitTime()
		reg.fire(kindRetry, inv.Stats(), autoResult, autoFailure, nil)

		if err := sleep(ctx, inv.clock, inv.waitTime); err != nil {
			fireTerminal(reg, inv.Stats(), autoResult, err, false, nil)
			return autoResult, err
		}
	}
}
