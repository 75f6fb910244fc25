// Package failsafe provides a general-purpose retry engine: a policy
// evaluator, a delay scheduler, and synchronous and asynchronous
// execution loops that retry a user-supplied operation until it
// produces an acceptable outcome or the policy's budget is exhausted.
//
// failsafe is a retry package that provides:
//
//   - Declarative policies: delay, exponential backoff, max retries,
//     max duration, and predicate-based retry conditions composed
//     with explicit precedence (see Policy.allowsRetriesFor).
//   - Synchronous and asynchronous execution: Get/Run block the
//     caller; GetAsync/RunAsync return a cancellable Future and drive
//     trials through an injectable Scheduler.
//   - Contextual async mode: the operation receives the Invocation and
//     may call Retry or Complete from a callback on another goroutine,
//     for wrapping callback-based APIs that don't fit a simple
//     func() (R, error) shape.
//   - Lifecycle listeners: failed-attempt, retry, success, failure, and
//     complete events, each with plain and stats-aware variants, each
//     fireable synchronously or offloaded to an executor.
//   - Injectable clock: github.com/jonboulle/clockwork stands in for
//     time.Now/time.Sleep so tests can drive a FakeClock instead of
//     waiting on a wall clock.
//
// # Quick Start
//
//	val, err := failsafe.Get(ctx, func(ctx context.Context) (string, error) {
//	    return client.Call(ctx)
//	}, policy)
//
// Building a reusable policy:
//
//	policy, err := failsafe.NewPolicy[string]().
//	    WithBackoff(100*time.Millisecond, 10*time.Second, 2).
//	    WithMaxRetries(5).
//	    RetryOn(failsafe.CategoryAs[*net.OpError]("network")).
//	    Build()
//
// Asynchronous execution returns a Future:
//
//	future := failsafe.GetAsync(ctx, op, policy, scheduler)
//	future.WhenSuccess(func(val string) { ... })
//	result, err := future.Get()
//
// # Design Philosophy
//
// RetryPolicy is immutable once built: every With*/RetryOn* call on the
// builder is validated immediately, and Build collects every violation
// (not just the first) into one InvalidConfiguration error. Execution
// state (Invocation) is never shared across trials of different
// executions, so a Policy can be built once and reused concurrently
// across many independent Get/Run calls.
//
// # Terminal Errors
//
// A failure is non-retryable if the policy's predicates say so (see
// Policy.allowsRetriesFor), or if it was wrapped with NonRetryable:
//
//	func fetchUser(ctx context.Context, id string) (*User, error) {
//	    user, err := db.Get(ctx, id)
//	    if errors.Is(err, sql.ErrNoRows) {
//	        return nil, failsafe.NonRetryable(ErrNotFound)
//	    }
//	    return user, err
//	}
//
// # Backoff
//
// WithBackoff(delay, maxDelay, multiplier) drives the composable
// Backoff strategies (Constant, Exponential, WithCap) that back
// Invocation's wait-time mechanics; no jitter is applied. Those
// strategies, together with Linear, WithMin and WithJitter, remain
// exported for callers who need a pacing curve the delay/maxDelay/
// multiplier fields alone cannot express.
//
// # Testing
//
// Inject a clockwork.FakeClock through PolicyBuilder.WithClock and a
// scheduler built on the same clock to make timing deterministic:
//
//	clock := clockwork.NewFakeClock()
//	sched := failsafe.NewDefaultScheduler(clock, 4)
//	policy, _ := failsafe.NewPolicy[int]().WithClock(clock).Build()
//	future := failsafe.GetAsync(ctx, op, policy, sched)
//	clock.Advance(delay)
package failsafe
