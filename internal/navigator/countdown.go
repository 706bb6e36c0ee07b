package navigator

import "time"

// Countdown is the session timer. It is advanced by an external tick
// source (the TUI's one-second tick command) so it stays deterministic
// under test. Once expired it never un-expires.
type Countdown struct {
	remaining time.Duration
	expired   bool
}

// NewCountdown creates a countdown with the test's full duration.
func NewCountdown(total time.Duration) *Countdown {
	return &Countdown{remaining: total, expired: total <= 0}
}

// Tick advances the countdown by one interval and reports whether this
// tick crossed zero. The crossing is reported exactly once, so the
// caller triggers finalization a single time.
func (c *Countdown) Tick(interval time.Duration) (justExpired bool) {
	if c.expired {
		return false
	}
	c.remaining -= interval
	if c.remaining <= 0 {
		c.remaining = 0
		c.expired = true
		return true
	}
	return false
}

// Sync overwrites the remaining time with the server's value. The clock
// stream is authoritative; local ticks only fill the gaps between pushes.
func (c *Countdown) Sync(remaining time.Duration) {
	if c.expired {
		return
	}
	if remaining <= 0 {
		c.remaining = 0
		c.expired = true
		return
	}
	c.remaining = remaining
}

// Remaining returns the time left.
func (c *Countdown) Remaining() time.Duration {
	return c.remaining
}

// Expired reports whether the countdown has reached zero.
func (c *Countdown) Expired() bool {
	return c.expired
}
