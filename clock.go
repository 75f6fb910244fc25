package failsafe

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock abstracts time operations so the sync executor and scheduler
// can be driven deterministically in tests. It is an alias for
// clockwork.Clock rather than a hand-rolled interface so callers can
// plug in a clockwork.FakeClock directly.
type Clock = clockwork.Clock

// NewRealClock returns a Clock backed by the standard time package. It
// is the default used by NewPolicy and NewDefaultScheduler when no
// clock is supplied.
func NewRealClock() Clock {
	return clockwork.NewRealClock()
}

// NewFakeClock returns a Clock that only advances when told to,
// for deterministic timing tests.
func NewFakeClock() *clockwork.FakeClock {
	return clockwork.NewFakeClock()
}

// sleep waits for d on clock, or returns the wrapped interruption error
// if ctx is cancelled first. It is the sync executor's suspension point
// between attempts.
func sleep(ctx context.Context, clock Clock, d time.Duration) error {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return newInterrupted(ctx.Err())
		default:
			return nil
		}
	}
	timer := clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.Chan():
		return nil
	case <-ctx.Done():
		return newInterrupted(ctx.Err())
	}
}
