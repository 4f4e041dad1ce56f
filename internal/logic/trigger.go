package logic

import "time"

// Monitor detects rising edges on the trigger input.
// It has no notion of time: cooldown gating is layered on top by the caller.
type Monitor struct {
	prev bool
}

// Poll records cur and reports EdgeRising on a false→true transition.
// The previous state is always updated, so an edge seen while the caller
// ignores it is consumed and will not be reported again.
func (m *Monitor) Poll(cur bool) Edge {
	rising := !m.prev && cur
	m.prev = cur
	if rising {
		return EdgeRising
	}
	return EdgeNone
}

// Previous returns the last polled state.
func (m *Monitor) Previous() bool {
	return m.prev
}

// Cooldown is an elapsed-time gate.
type Cooldown struct {
	period time.Duration
	last   time.Time
}

// NewCooldown creates a gate that starts closed at start.
func NewCooldown(period time.Duration, start time.Time) *Cooldown {
	return &Cooldown{period: period, last: start}
}

// Elapsed reports whether at least period has passed since the last reset.
func (c *Cooldown) Elapsed(now time.Time) bool {
	return now.Sub(c.last) >= c.period
}

// Reset restarts the cooldown window at now.
func (c *Cooldown) Reset(now time.Time) {
	c.last = now
}

// Remaining returns how long until the gate opens, or 0 if it is open.
func (c *Cooldown) Remaining(now time.Time) time.Duration {
	d := c.period - now.Sub(c.last)
	if d < 0 {
		return 0
	}
	return d
}
