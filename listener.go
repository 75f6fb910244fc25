package failsafe

import "sync"

// Executor dispatches a callback for execution — the seam asynchronous
// listener dispatch hands off to a caller-supplied executor. A nil
// Executor passed to Async falls back to the Future's Scheduler.
type Executor interface {
	Execute(func())
}

// ExecutorFunc is an adapter allowing an ordinary function to be used
// as an Executor.
type ExecutorFunc func(func())

// Execute implements Executor.
func (f ExecutorFunc) Execute(task func()) { f(task) }

// GoExecutor runs each task on its own goroutine.
var GoExecutor Executor = ExecutorFunc(func(task func()) { go task() })

type listenerKind int

const (
	kindFailedAttempt listenerKind = iota
	kindRetry
	kindSuccess
	kindFailure
	kindComplete
)

// listenerConfig accumulates ListenerOptions applied to one
// registration call.
type listenerConfig struct {
	async bool
	exec  Executor
}

// ListenerOption customizes how a registered listener is dispatched.
type ListenerOption func(*listenerConfig)

// Async marks a listener for asynchronous dispatch. Pass nil to fall back to the Future's
// Scheduler.
func Async(exec Executor) ListenerOption {
	return func(c *listenerConfig) {
		c.async = true
		c.exec = exec
	}
}

type listenerEntry[R any] struct {
	call  func(InvocationStats, R, error)
	async bool
	exec  Executor
}

// listeners holds the future-local, typed slots for each lifecycle
// event kind. Storage is future-local rather than a global registry,
// so listeners for one future never leak into another's dispatch.
type listeners[R any] struct {
	mu      sync.Mutex
	entries [5][]listenerEntry[R]
}

// copyFrom appends every entry of other into l, preserving kind. Used
// to seed a future's listener slots with the policy-level default
// listeners installed at the facade call site.
func (l *listeners[R]) copyFrom(other *listeners[R]) {
	if other == nil {
		return
	}
	other.mu.Lock()
	defer other.mu.Unlock()
	for k := range other.entries {
		l.entries[k] = append(l.entries[k], other.entries[k]...)
	}
}

func (l *listeners[R]) register(kind listenerKind, call func(InvocationStats, R, error), opts []ListenerOption) listenerEntry[R] {
	cfg := listenerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	entry := listenerEntry[R]{call: call, async: cfg.async, exec: cfg.exec}
	l.mu.Lock()
	l.entries[kind] = append(l.entries[kind], entry)
	l.mu.Unlock()
	return entry
}

// fire dispatches every subscriber registered for kind. Synchronous
// subscribers run on the calling goroutine (the thread that resolved
// the event); asynchronous subscribers are handed to
// their executor, or to sched with a zero delay when none was supplied.
func (l *listeners[R]) fire(kind listenerKind, stats InvocationStats, result R, failure error, sched Scheduler) {
	l.mu.Lock()
	entries := append([]listenerEntry[R](nil), l.entries[kind]...)
	l.mu.Unlock()
	for _, e := range entries {
		dispatchEntry(e, stats, result, failure, sched)
	}
}

// dispatchEntry runs a single listener entry according to its
// sync/async configuration.
func dispatchEntry[R any](e listenerEntry[R], stats InvocationStats, result R, failure error, sched Scheduler) {
	if !e.async {
		e.call(stats, result, failure)
		return
	}
	task := func() { e.call(stats, result, failure) }
	switch {
	case e.exec != nil:
		e.exec.Execute(task)
	case sched != nil:
		_, _ = sched.Schedule(task, 0)
	default:
		go task()
	}
}
