package failsafe

import "context"

// callConfig accumulates facade-level PolicyOptions applied to one
// call. Its listeners are seeded into the executor before the first
// trial runs, so they fire for every event the call produces — the
// "configure once, apply everywhere" counterpart to a Future's
// per-instance On*/When* registrations.
type callConfig[R any] struct {
	listeners listeners[R]
}

// PolicyOption customizes a single Run/Get/RunAsync/GetAsync call with
// default listeners, without requiring a global registry.
type PolicyOption[R any] func(*callConfig[R])

func buildCallConfig[R any](opts []PolicyOption[R]) *callConfig[R] {
	cfg := &callConfig[R]{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// OnFailedAttempt installs a default listener firing on every
// retry-eligible trial of the call it's passed to.
func OnFailedAttempt[R any](fn func(InvocationStats, R, error), opts ...ListenerOption) PolicyOption[R] {
	return func(cfg *callConfig[R]) { cfg.listeners.register(kindFailedAttempt, fn, opts) }
}

// OnRetry installs a default listener firing whenever the call is
// about to retry, after wait-time adjustment.
func OnRetry[R any](fn func(InvocationStats, R, error), opts ...ListenerOption) PolicyOption[R] {
	return func(cfg *callConfig[R]) { cfg.listeners.register(kindRetry, fn, opts) }
}

// WhenSuccess installs a default listener firing once, at terminal
// completion, when the outcome is acceptable.
func WhenSuccess[R any](fn func(InvocationStats, R), opts ...ListenerOption) PolicyOption[R] {
	return func(cfg *callConfig[R]) {
		cfg.listeners.register(kindSuccess, func(s InvocationStats, r R, _ error) { fn(s, r) }, opts)
	}
}

// WhenFailure installs a default listener firing once, at terminal
// completion, when the call ends with a non-nil failure. A call that
// exhausts its budget on a result with no error does not fire it.
func WhenFailure[R any](fn func(InvocationStats, error), opts ...ListenerOption) PolicyOption[R] {
	return func(cfg *callConfig[R]) {
		cfg.listeners.register(kindFailure, func(s InvocationStats, _ R, err error) { fn(s, err) }, opts)
	}
}

// WhenComplete installs a default listener firing once, at terminal
// completion, unconditionally.
func WhenComplete[R any](fn func(InvocationStats, R, error), opts ...ListenerOption) PolicyOption[R] {
	return func(cfg *callConfig[R]) { cfg.listeners.register(kindComplete, fn, opts) }
}

// Get runs op under policy on the calling goroutine, retrying per the
// policy until it succeeds, is exhausted (returned wrapped in
// RetryExhaustedError), or ctx is cancelled during an inter-attempt
// sleep (returned wrapped in InterruptedError).
func Get[R any](ctx context.Context, op func(context.Context) (R, error), policy *Policy[R], opts ...PolicyOption[R]) (R, error) {
	cfg := buildCallConfig(opts)
	return runSync(ctx, op, policy, &cfg.listeners)
}

// GetCtx is Get for an operation that receives the Invocation directly
// and may call Retry/Complete to decide its own outcome, bypassing the
// policy for that trial.
func GetCtx[R any](ctx context.Context, op func(context.Context, AsyncInvocation[R]) (R, error), policy *Policy[R], opts ...PolicyOption[R]) (R, error) {
	cfg := buildCallConfig(opts)
	return runSyncContextual(ctx, op, policy, &cfg.listeners)
}

// Run is Get for an operation with no result to report.
func Run(ctx context.Context, op func(context.Context) error, policy *Policy[struct{}], opts ...PolicyOption[struct{}]) error {
	wrapped := func(ctx context.Context) (struct{}, error) { return struct{}{}, op(ctx) }
	_, err := Get(ctx, wrapped, policy, opts...)
	return err
}

// RunCtx is GetCtx for an operation with no result to report.
func RunCtx(ctx context.Context, op func(context.Context, AsyncInvocation[struct{}]) error, policy *Policy[struct{}], opts ...PolicyOption[struct{}]) error {
	wrapped := func(ctx context.Context, inv AsyncInvocation[struct{}]) (struct{}, error) {
		return struct{}{}, op(ctx, inv)
	}
	_, err := GetCtx(ctx, wrapped, policy, opts...)
	return err
}

// GetAsync starts op on scheduler-driven goroutines and returns
// immediately with a Future; trials and retries run in the
// background.
func GetAsync[R any](ctx context.Context, op func(context.Context) (R, error), policy *Policy[R], scheduler Scheduler, opts ...PolicyOption[R]) *Future[R] {
	cfg := buildCallConfig(opts)
	return runAsync(ctx, op, policy, scheduler, &cfg.listeners)
}

// GetAsyncCtx is GetAsync for an operation that receives the
// Invocation directly.
func GetAsyncCtx[R any](ctx context.Context, op func(context.Context, AsyncInvocation[R]) (R, error), policy *Policy[R], scheduler Scheduler, opts ...PolicyOption[R]) *Future[R] {
	cfg := buildCallConfig(opts)
	return runAsyncContextual(ctx, op, policy, scheduler, &cfg.listeners)
}

// RunAsync is GetAsync for an operation with no result to report.
func RunAsync(ctx context.Context, op func(context.Context) error, policy *Policy[struct{}], scheduler Scheduler, opts ...PolicyOption[struct{}]) *Future[struct{}] {
	wrapped := func(ctx context.Context) (struct{}, error) { return struct{}{}, op(ctx) }
	return GetAsync(ctx, wrapped, policy, scheduler, opts...)
}

// RunAsyncCtx is GetAsyncCtx for an operation with no result to
// report.
func RunAsyncCtx(ctx context.Context, op func(context.Context, AsyncInvocation[struct{}]) error, policy *Policy[struct{}], scheduler Scheduler, opts ...PolicyOption[struct{}]) *Future[struct{}] {
	wrapped := func(ctx context.Context, inv AsyncInvocation[struct{}]) (struct{}, error) {
		return struct{}{}, op(ctx, inv)
	}
	return GetAsyncCtx(ctx, wrapped, policy, scheduler, opts...)
}
