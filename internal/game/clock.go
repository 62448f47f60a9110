package game

// RoundClock is the countdown for one round. It is not internally locked:
// the engine's mutex serializes every access along with the rest of the
// round state.
type RoundClock struct {
	remaining int
	active    bool
}

// Start resets the countdown to durationSec and marks the clock active.
func (c *RoundClock) Start(durationSec int) {
	c.remaining = durationSec
	c.active = true
}

// Tick decrements the countdown by one second while active. It returns
// true exactly once, on the tick that reaches zero; ticks after that are
// no-ops.
func (c *RoundClock) Tick() (finished bool) {
	if !c.active {
		return false
	}
	c.remaining--
	if c.remaining <= 0 {
		c.remaining = 0
		c.active = false
		return true
	}
	return false
}

// Active reports whether a countdown is running.
func (c *RoundClock) Active() bool {
	return c.active
}

// Remaining returns the seconds left in the current round.
func (c *RoundClock) Remaining() int {
	return c.remaining
}
