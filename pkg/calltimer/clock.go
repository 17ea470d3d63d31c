package calltimer

import "time"

// Clock abstracts time so tests can replace the system clock
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// Now returns the current time, including its monotonic reading
func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock returns the clock backed by time.Now
func SystemClock() Clock {
	return systemClock{}
}
