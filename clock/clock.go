// Package clock provides a time source abstraction for deterministic testing.
//
// Components that make time-based decisions (sliding windows, TTL expiry)
// accept a Clock instead of calling time.Now directly, so tests can advance
// time explicitly instead of sleeping.
package clock

import (
	"sync"
	"time"
)

// Clock is a source of the current time.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Monotonicity: successive calls must never observe time going backward.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// System is a Clock backed by the system clock.
type System struct{}

// NewSystem creates a new system clock. The returned clock is stateless
// and may be shared across goroutines.
func NewSystem() *System {
	return &System{}
}

// Now returns the current system time.
func (c *System) Now() time.Time {
	return time.Now()
}

// Manual is a Clock under explicit test control. Time only moves when
// Advance or Set is called.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual creates a manual clock starting at the given instant.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the clock's current instant.
func (c *Manual) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d. Negative durations are ignored.
func (c *Manual) Advance(d time.Duration) {
	if d < 0 {
		return
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Set moves the clock to t if t is not earlier than the current instant.
func (c *Manual) Set(t time.Time) {
	c.mu.Lock()
	if t.After(c.now) {
		c.now = t
	}
	c.mu.Unlock()
}

// Ensure both implementations satisfy Clock
var (
	_ Clock = (*System)(nil)
	_ Clock = (*Manual)(nil)
)
