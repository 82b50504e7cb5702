package binary

import "time"

// Clock provides time operations. Downloads use it for speed estimates so
// tests can pin elapsed time.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the actual system time.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}
