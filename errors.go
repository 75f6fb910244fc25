package failsafe

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// ConfigError is raised from PolicyBuilder.Build when one or more of a
// policy's invariants are violated. Multiple simultaneous violations
// are combined via multierr so a caller sees every problem at once
// instead of fixing them one compile-run at a time.
type ConfigError struct {
	err error
}

func (e *ConfigError) Error() string {
	return "invalid retry policy configuration: " + e.err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.err
}

func newConfigError(violations []error) error {
	if len(violations) == 0 {
		return nil
	}
	return &ConfigError{err: multierr.Combine(violations...)}
}

// IsInvalidConfiguration reports whether err is (or wraps) a ConfigError.
func IsInvalidConfiguration(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// RetryExhaustedError is the terminal wrapper raised by the sync
// executor when the policy no longer permits retries and the last
// trial ended in failure. It preserves
// the original failure unchanged as its cause.
type RetryExhaustedError struct {
	cause    error
	attempts int
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("retry exhausted after %d attempt(s): %v", e.attempts, e.cause)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.cause
}

func newExhausted(attempts int, cause error) error {
	return &RetryExhaustedError{attempts: attempts, cause: cause}
}

// Exhausted reports whether err is (or wraps) a RetryExhaustedError.
func Exhausted(err error) bool {
	var re *RetryExhaustedError
	return errors.As(err, &re)
}

// InterruptedError wraps the context cancellation observed while the
// sync executor was sleeping between attempts.
type InterruptedError struct {
	cause error
}

func (e *InterruptedError) Error() string {
	return "retry wait interrupted: " + e.cause.Error()
}

func (e *InterruptedError) Unwrap() error {
	return e.cause
}

func newInterrupted(cause error) error {
	return &InterruptedError{cause: cause}
}

// Interrupted reports whether err is (or wraps) an InterruptedError.
func Interrupted(err error) bool {
	var ie *InterruptedError
	return errors.As(err, &ie)
}

// ErrCancelled is the terminal failure category observed by listeners
// and future readers when a Future is cancelled before it completes.
var ErrCancelled = errors.New("retry future cancelled")

// nonRetryableError marks a failure as terminal regardless of the
// policy's default "any failure retries" clause. Call sites that want
// to short-circuit a single attempt without building a
// failurePredicate can wrap the error with NonRetryable instead.
type nonRetryableError struct {
	err error
}

func (e *nonRetryableError) Error() string {
	return e.err.Error()
}

func (e *nonRetryableError) Unwrap() error {
	return e.err
}

// NonRetryable wraps err so that Policy.allowsRetriesFor's default
// "any failure retries" clause treats it as terminal. Custom
// failurePredicate/completionPredicate configuration always takes
// precedence over this marker.
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &nonRetryableError{err: err}
}

func isNonRetryable(err error) bool {
	var nr *nonRetryableError
	return errors.As(err, &nr)
}
