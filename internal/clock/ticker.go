package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultFrame is one rendered frame at ~60 Hz.
const DefaultFrame = 16 * time.Millisecond

// Clock is the interface we use for wall time.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	NewTicker(d time.Duration) clockwork.Ticker
}

// Ticker produces frame deltas measured on the wall clock.
type Ticker struct {
	clock  Clock
	ticker clockwork.Ticker
	last   time.Time
}

func NewTicker(c Clock, frame time.Duration) *Ticker {
	if nil == c {
		c = clockwork.NewRealClock()
	}
	if frame <= 0 {
		frame = DefaultFrame
	}
	return &Ticker{
		clock:  c,
		ticker: c.NewTicker(frame),
		last:   c.Now(),
	}
}

func (t *Ticker) Chan() <-chan time.Time {
	return t.ticker.Chan()
}

// Delta returns the wall time since the previous call and marks now as the
// latest frame.
func (t *Ticker) Delta(now time.Time) time.Duration {
	dt := now.Sub(t.last)
	t.last = now
	if dt < 0 {
		return 0
	}
	return dt
}

// SinceFrame is the wall time elapsed since the latest frame.
func (t *Ticker) SinceFrame() time.Duration {
	return t.clock.Since(t.last)
}

func (t *Ticker) Stop() {
	t.ticker.Stop()
}
