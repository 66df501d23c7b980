package session

import "fmt"

// Tier is the presentation tier of the countdown, a pure function of the
// remaining seconds with no hysteresis.
type Tier string

const (
	TierNormal   Tier = "NORMAL"
	TierWarning  Tier = "WARNING"
	TierCritical Tier = "CRITICAL"
)

// Tier thresholds in seconds.
const (
	criticalBelow = 600
	warningBelow  = 1800
)

// TierFor returns the presentation tier for a remaining-seconds value.
func TierFor(remaining int) Tier {
	switch {
	case remaining < criticalBelow:
		return TierCritical
	case remaining < warningBelow:
		return TierWarning
	default:
		return TierNormal
	}
}

// CountdownTimer counts a fixed duration down to zero, one tick per second.
// Reaching zero is terminal: the expiry signal fires exactly once and the
// timer never restarts or goes negative. The timer is not safe for concurrent
// use on its own — the owning Session serializes ticks through its lock.
type CountdownTimer struct {
	remaining int
	running   bool
	expired   bool
}

// NewCountdownTimer creates a stopped timer with no duration.
func NewCountdownTimer() *CountdownTimer {
	return &CountdownTimer{}
}

// Start initializes the countdown. It may be called at most once.
func (t *CountdownTimer) Start(durationSeconds int) error {
	if t.running || t.expired || t.remaining > 0 {
		return ErrAlreadyStarted
	}
	t.remaining = durationSeconds
	t.running = true
	if durationSeconds <= 0 {
		// Zero-duration exams expire on the first tick rather than at start,
		// so the caller always observes the expiry through Tick.
		t.remaining = 0
	}
	return nil
}

// Tick advances the countdown by one second. It returns true exactly once,
// on the tick that reaches zero. Ticks on a stopped or expired timer are
// no-ops.
func (t *CountdownTimer) Tick() bool {
	if !t.running {
		return false
	}
	if t.remaining > 0 {
		t.remaining--
	}
	if t.remaining <= 0 {
		t.running = false
		t.expired = true
		return true
	}
	return false
}

// Stop halts the countdown without emitting the expiry signal. Stopping an
// already stopped timer is a no-op.
func (t *CountdownTimer) Stop() {
	t.running = false
}

// Remaining returns the seconds left on the countdown.
func (t *CountdownTimer) Remaining() int {
	return t.remaining
}

// Running reports whether the timer is still ticking.
func (t *CountdownTimer) Running() bool {
	return t.running
}

// Expired reports whether the countdown has reached zero.
func (t *CountdownTimer) Expired() bool {
	return t.expired
}

// Tier returns the presentation tier for the current remaining time.
func (t *CountdownTimer) Tier() Tier {
	return TierFor(t.remaining)
}

// FormatClock renders seconds as hh:mm:ss for display.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
