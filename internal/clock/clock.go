package clock

import "time"

// Clock abstracts time.Now so due-date and cadence logic stays deterministic
// under test.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Fixed is a test clock pinned to a settable instant.
type Fixed struct {
	Instant time.Time
}

// Now returns the pinned instant.
func (f *Fixed) Now() time.Time { return f.Instant }

// Advance moves the pinned instant forward.
func (f *Fixed) Advance(d time.Duration) { f.Instant = f.Instant.Add(d) }
