package failsafe

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/semaphore"
)

// Handle is the cancellable handle returned by Scheduler.Schedule.
type Handle interface {
	// Cancel attempts to prevent the scheduled thunk from running. It
	// returns false if the thunk has already completed.
	Cancel() bool
	IsDone() bool
	IsCancelled() bool
}

// Scheduler runs a thunk after a delay and returns a cancellable
// handle. The contract: the thunk runs exactly once, no
// earlier than delay, on a thread the Scheduler provides.
// Implementations must be safe under concurrent Schedule/Cancel.
type Scheduler interface {
	Schedule(thunk func(), delay time.Duration) (Handle, error)
}

type handle struct {
	mu        sync.Mutex
	timer     clockwork.Timer
	done      bool
	cancelled bool
}

func (h *handle) Cancel() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		return false
	}
	if !h.cancelled {
		h.cancelled = true
		h.timer.Stop()
	}
	return true
}

func (h *handle) IsDone() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.done
}

func (h *handle) IsCancelled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancelled
}

func (h *handle) markDone() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.cancelled {
		h.done = true
	}
}

func (h *handle) isCancelled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancelled
}

// DefaultScheduler is the default Scheduler: a clockwork.Clock-driven
// timer feeding a fixed-size pool of worker goroutines. The pool bound
// is enforced with a weighted semaphore to cap concurrently running
// thunks while leaving pending timers unbounded.
type DefaultScheduler struct {
	clock Clock
	sem   *semaphore.Weighted
}

// NewDefaultScheduler returns a DefaultScheduler backed by clock
// (NewRealClock() if nil) that runs at most capacity thunks
// concurrently.
func NewDefaultScheduler(clock Clock, capacity int64) *DefaultScheduler {
	if clock == nil {
		clock = NewRealClock()
	}
	if capacity <= 0 {
		capacity = 1
	}
	return &DefaultScheduler{clock: clock, sem: semaphore.NewWeighted(capacity)}
}

// Schedule implements Scheduler.
func (s *DefaultScheduler) Schedule(thunk func(), delay time.Duration) (Handle, error) {
	h := &handle{}
	h.timer = s.clock.AfterFunc(delay, func() {
		if h.isCancelled() {
			return
		}
		ctx := context.Background()
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return
		}
		defer s.sem.Release(1)
		if h.isCancelled() {
			return
		}
		thunk()
		h.markDone()
	})
	return h, nil
}
