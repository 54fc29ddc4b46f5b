package clock

import "time"

// GameClock is the monotonic elapsed time of one session. It only moves when
// the tick loop advances it, so a replayed sequence of ticks always yields
// the same times.
type GameClock struct {
	elapsed time.Duration
	running bool
}

func (c *GameClock) Start() {
	c.elapsed = 0
	c.running = true
}

func (c *GameClock) Stop() {
	c.running = false
}

// Advance moves the clock forward by dt while running. Negative steps are dropped.
func (c *GameClock) Advance(dt time.Duration) time.Duration {
	if c.running && dt > 0 {
		c.elapsed += dt
	}
	return c.elapsed
}

func (c *GameClock) Elapsed() time.Duration {
	return c.elapsed
}

func (c *GameClock) Running() bool {
	return c.running
}
