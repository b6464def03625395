package vault

import "time"

// Clock supplies the ledger time used by the charge engine. Abstracting it
// keeps charges deterministic and testable; the engine never reads ambient
// time directly.
//
// Timestamps are unsigned seconds. Monotonic non-decreasing is assumed but
// not required to be strictly increasing: the interval check handles equal
// consecutive readings by rejecting a second charge at the same instant.
type Clock interface {
	Now() uint64
}

// ClockFunc is an adapter to use a plain function as a Clock.
type ClockFunc func() uint64

// Now implements Clock.
func (f ClockFunc) Now() uint64 { return f() }

// SystemClock reads the wall clock in whole seconds.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() uint64 { return uint64(time.Now().Unix()) }
