package clock

import "time"

// Clock is the source of wall time for credential expiry and service timestamps
type Clock interface {
	Now() time.Time
}

// System reads the host clock
type System struct{}

// New returns the host clock
func New() System {
	return System{}
}

func (System) Now() time.Time {
	return time.Now()
}

// After returns the instant d from now on c
func After(c Clock, d time.Duration) time.Time {
	return c.Now().Add(d)
}

// Remaining returns the time left until deadline on c, never negative
func Remaining(c Clock, deadline time.Time) time.Duration {
	left := deadline.Sub(c.Now())
	if left < 0 {
		return 0
	}
	return left
}
