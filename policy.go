package failsafe

import (
	"reflect"
	"time"
)

// Policy is an immutable-after-construction retry configuration plus
// the predicate allowsRetriesFor(result, failure) that decides whether
// another attempt is warranted. Build a Policy with
// NewPolicy[R]().
//
// Policy is safe for concurrent use by many independent executions; it
// holds no per-execution state (that lives on Invocation).
type Policy[R any] struct {
	delay           time.Duration
	maxDelay        time.Duration
	backoffEnabled  bool
	delayMultiplier float64

	maxDuration    time.Duration
	maxDurationSet bool

	maxRetries int

	retryOnFailures []FailureCategory

	failurePredicate    func(error) bool
	hasFailurePredicate bool

	resultPredicate    func(R) bool
	hasResultPredicate bool

	retryOnResult    R
	retryOnResultSet bool

	completionPredicate    func(R, error) bool
	hasCompletionPredicate bool

	clock Clock
}

// allowsRetriesFor decides, given a trial's (result, failure) pair,
// whether another attempt is warranted. The first matching clause
// below decides, and the function is pure — identical inputs always
// yield identical outputs, irrespective of any Invocation state.
func (p *Policy[R]) allowsRetriesFor(result R, failure error) bool {
	if p.maxRetries == 0 || (p.maxDurationSet && p.maxDuration == 0) {
		return false
	}
	if p.hasCompletionPredicate {
		return p.completionPredicate(result, failure)
	}
	if failure != nil {
		if p.hasFailurePredicate {
			return p.failurePredicate(failure)
		}
		if isNonRetryable(failure) {
			return false
		}
		if len(p.retryOnFailures) > 0 {
			return matchesAny(failure, p.retryOnFailures)
		}
		return true
	}
	if p.hasResultPredicate {
		return p.resultPredicate(result)
	}
	if p.retryOnResultSet {
		return reflect.DeepEqual(result, p.retryOnResult)
	}
	return false
}

// exceeded reports whether a trial is policy-exceeded: either the
// retry count cap or the wall-clock budget has been reached.
func (p *Policy[R]) exceeded(attemptCount int, elapsed time.Duration) bool {
	if p.maxRetries >= 0 && attemptCount > p.maxRetries {
		return true
	}
	if p.maxDurationSet && elapsed >= p.maxDuration {
		return true
	}
	return false
}
