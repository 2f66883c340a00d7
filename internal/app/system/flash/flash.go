// Package flash holds the two transient UI message slots (error and
// success).
//
// Both slots share one clearing deadline. Setting either slot restarts the
// window, and once the window has elapsed both slots read empty. Messages
// never stack: a new error replaces the old one.
package flash

import "time"

// DefaultTTL is the window after which messages disappear.
const DefaultTTL = 3 * time.Second

// Messages is a value type; the owner guards it with its own lock.
type Messages struct {
	err      string
	success  string
	deadline time.Time
}

// SetError replaces the error slot and restarts the window at now.
// Slots whose window already elapsed are dropped first so stale text is
// not revived by the new window.
func (m *Messages) SetError(msg string, now time.Time, ttl time.Duration) {
	m.Expire(now)
	m.err = msg
	m.restart(now, ttl)
}

// SetSuccess replaces the success slot and restarts the window at now.
func (m *Messages) SetSuccess(msg string, now time.Time, ttl time.Duration) {
	m.Expire(now)
	m.success = msg
	m.restart(now, ttl)
}

func (m *Messages) restart(now time.Time, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m.deadline = now.Add(ttl)
}

// Clear empties both slots.
func (m *Messages) Clear() {
	*m = Messages{}
}

func (m Messages) live(now time.Time) bool {
	return now.Before(m.deadline)
}

// Error returns the error message still visible at now.
func (m Messages) Error(now time.Time) string {
	if !m.live(now) {
		return ""
	}
	return m.err
}

// Success returns the success message still visible at now.
func (m Messages) Success(now time.Time) string {
	if !m.live(now) {
		return ""
	}
	return m.success
}

// Remaining is how long the current messages stay visible after now.
// Views use it to schedule the client-side fade.
func (m Messages) Remaining(now time.Time) time.Duration {
	if !m.live(now) {
		return 0
	}
	return m.deadline.Sub(now)
}

// Expire drops the slots if their window has passed.
func (m *Messages) Expire(now time.Time) {
	if !m.deadline.IsZero() && !m.live(now) {
		m.Clear()
	}
}
