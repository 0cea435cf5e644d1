// Package clock abstracts time for services whose behavior depends on it
// (session expiry, the approval time window), so tests can drive the clock.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// System reads the real wall clock.
type System struct{}

// New returns a system clock.
func New() System { return System{} }

// Now returns the current wall-clock time.
func (System) Now() time.Time { return time.Now() }

// Fake is a settable clock for tests.
type Fake struct {
	current time.Time
}

// NewFake returns a fake clock frozen at t.
func NewFake(t time.Time) *Fake { return &Fake{current: t} }

// Now returns the fake's current time.
func (f *Fake) Now() time.Time { return f.current }

// Advance moves the fake clock forward by d.
func (f *Fake) Advance(d time.Duration) { f.current = f.current.Add(d) }

// Set pins the fake clock to t.
func (f *Fake) Set(t time.Time) { f.current = t }
