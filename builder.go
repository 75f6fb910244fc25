package failsafe

import (
	"errors"
	"fmt"
	"time"
)

// DefaultMultiplier is used by WithBackoff when the caller omits an
// explicit multiplier.
const DefaultMultiplier = 2.0

// PolicyBuilder builds an immutable Policy. Every With*/RetryOn* method
// validates its input immediately and returns the builder so calls
// chain; violations are collected (not just the first) and surfaced
// together from Build, via multierr, so a caller fixes every problem
// in one pass instead of one compile-run at a time.
type PolicyBuilder[R any] struct {
	delay           time.Duration
	delaySet        bool
	maxDelay        time.Duration
	backoffSet      bool
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

	violations []error
}

// NewPolicy starts a PolicyBuilder with its defaults: no
// delay, backoff disabled, no duration cap, unlimited retries
// (maxRetries = -1), no retry conditions configured.
func NewPolicy[R any]() *PolicyBuilder[R] {
	return &PolicyBuilder[R]{maxRetries: -1}
}

// WithDelay sets a fixed wait between attempts. Rejected if combined
// with WithBackoff.
func (b *PolicyBuilder[R]) WithDelay(d time.Duration) *PolicyBuilder[R] {
	b.delay = d
	b.delaySet = true
	if b.backoffSet {
		b.violations = append(b.violations, errors.New("cannot combine WithDelay with WithBackoff on the same policy"))
	}
	if d <= 0 {
		b.violations = append(b.violations, fmt.Errorf("delay must be > 0, got %v", d))
	}
	return b
}

// WithBackoff enables exponential backoff: wait starts at delay,
// multiplies by multiplier after every retried attempt, capped at
// maxDelay. multiplier defaults to DefaultMultiplier
// when 0 is passed. Rejected if combined with WithDelay, if
// delay >= maxDelay, or if multiplier <= 1.
func (b *PolicyBuilder[R]) WithBackoff(delay, maxDelay time.Duration, multiplier float64) *PolicyBuilder[R] {
	if multiplier == 0 {
		multiplier = DefaultMultiplier
	}
	b.delay = delay
	b.maxDelay = maxDelay
	b.delayMultiplier = multiplier
	b.backoffSet = true
	if b.delaySet {
		b.violations = append(b.violations, errors.New("cannot combine WithBackoff with WithDelay on the same policy"))
	}
	if delay <= 0 {
		b.violations = append(b.violations, fmt.Errorf("delay must be > 0, got %v", delay))
	}
	if delay >= maxDelay {
		b.violations = append(b.violations, fmt.Errorf("delay (%v) must be less than maxDelay (%v)", delay, maxDelay))
	}
	if multiplier <= 1 {
		b.violations = append(b.violations, fmt.Errorf("backoff multiplier must be > 1, got %v", multiplier))
	}
	return b
}

// WithMaxRetries caps the number of additional trials after the first.
// -1 (the default) means unbounded; 0 means a single trial with no
// retries at all.
func (b *PolicyBuilder[R]) WithMaxRetries(n int) *PolicyBuilder[R] {
	b.maxRetries = n
	if n < -1 {
		b.violations = append(b.violations, fmt.Errorf("maxRetries must be >= -1, got %d", n))
	}
	return b
}

// WithMaxDuration caps the wall-clock budget from the first attempt.
// Rejected if delay has already been configured and is not strictly
// less than d.
func (b *PolicyBuilder[R]) WithMaxDuration(d time.Duration) *PolicyBuilder[R] {
	b.maxDuration = d
	b.maxDurationSet = true
	if (b.delaySet || b.backoffSet) && b.delay >= d {
		b.violations = append(b.violations, fmt.Errorf("delay (%v) must be less than maxDuration (%v)", b.delay, d))
	}
	return b
}

// RetryOn retries failures assignable to any of the given categories.
// Build FailureCategory values with CategoryAs or CategoryIs.
func (b *PolicyBuilder[R]) RetryOn(categories ...FailureCategory) *PolicyBuilder[R] {
	b.retryOnFailures = append(b.retryOnFailures, categories...)
	return b
}

// RetryOnFailureFunc installs a custom predicate over the failure,
// superseding RetryOn's category list.
func (b *PolicyBuilder[R]) RetryOnFailureFunc(pred func(error) bool) *PolicyBuilder[R] {
	b.failurePredicate = pred
	b.hasFailurePredicate = true
	return b
}

// RetryOnResult retries whenever the result equals v, using null-safe
// equality. The distinction from "unset" is carried by a side-channel
// bool flag rather than a sentinel value, so it stays unambiguous even
// when R's zero value (a nil pointer or interface, or a literal zero)
// is itself a value the caller wants to retry on.
func (b *PolicyBuilder[R]) RetryOnResult(v R) *PolicyBuilder[R] {
	b.retryOnResult = v
	b.retryOnResultSet = true
	return b
}

// RetryOnResultFunc installs a custom predicate over the result,
// superseding RetryOnResult.
func (b *PolicyBuilder[R]) RetryOnResultFunc(pred func(R) bool) *PolicyBuilder[R] {
	b.resultPredicate = pred
	b.hasResultPredicate = true
	return b
}

// RetryOnCompletion installs a joint predicate over (result, failure)
// that supersedes every other retry condition.
func (b *PolicyBuilder[R]) RetryOnCompletion(pred func(R, error) bool) *PolicyBuilder[R] {
	b.completionPredicate = pred
	b.hasCompletionPredicate = true
	return b
}

// WithClock overrides the Duration & Time Source used by executions of
// this policy, for deterministic tests.
func (b *PolicyBuilder[R]) WithClock(c Clock) *PolicyBuilder[R] {
	b.clock = c
	return b
}

// Build validates the accumulated configuration and returns an
// immutable Policy, or a ConfigError combining every violation
// encountered.
func (b *PolicyBuilder[R]) Build() (*Policy[R], error) {
	if err := newConfigError(b.violations); err != nil {
		return nil, err
	}
	clock := b.clock
	if clock == nil {
		clock = NewRealClock()
	}
	return &Policy[R]{
		delay:                  b.delay,
		maxDelay:               b.maxDelay,
		backoffEnabled:         b.backoffSet,
		delayMultiplier:        b.delayMultiplier,
		maxDuration:            b.maxDuration,
		maxDurationSet:         b.maxDurationSet,
		maxRetries:             b.maxRetries,
		retryOnFailures:        b.retryOnFailures,
		failurePredicate:       b.failurePredicate,
		hasFailurePredicate:    b.hasFailurePredicate,
		resultPredicate:        b.resultPredicate,
		hasResultPredicate:     b.hasResultPredicate,
		retryOnResult:          b.retryOnResult,
		retryOnResultSet:       b.retryOnResultSet,
		completionPredicate:    b.completionPredicate,
		hasCompletionPredicate: b.hasCompletionPredicate,
		clock:                  clock,
	}, nil
}

// Never returns a policy that performs exactly one trial and never
// retries.
func Never[R any]() *Policy[R] {
	p, err := NewPolicy[R]().WithMaxRetries(0).Build()
	if err != nil {
		panic(err) // unreachable: maxRetries=0 is always valid
	}
	return p
}
