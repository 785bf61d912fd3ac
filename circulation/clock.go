package circulation

import (
	"sync"
	"time"
)

// Clock supplies "now" to the Registry. Every Registry operation reads it exactly once.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in the local time zone.
type SystemClock struct{}

// Now returns the current local time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// ManualClock is a Clock that only moves when told to.
// It is used for simulations and tests that need to fast-forward through loan periods.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a ManualClock starting at the given instant.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the clock's current instant.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

// AdvanceDays moves the clock forward by the given number of calendar days.
func (c *ManualClock) AdvanceDays(days int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.AddDate(0, 0, days)
}

// Set moves the clock to the given instant.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = t
}

// dayOf truncates t to midnight of its calendar day, keeping its location.
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween returns the number of calendar days from a to b (negative if b is before a).
// The difference is computed on civil dates, so DST transitions do not skew the count.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)

	return int(to.Sub(from).Hours() / 24)
}
