// Package clock defines the time source used by time-stamping code, so
// tests can substitute a fixed source for the wall clock.
package clock

import "time"

// Clock supplies timestamps.
type Clock interface {
	Now() time.Time
}
