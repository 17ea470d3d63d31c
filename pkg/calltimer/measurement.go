package calltimer

import "time"

// Measurement is the timing of one invocation. It is handed to reporters
// and never retained by the wrapper.
type Measurement struct {
	// ID identifies the invocation for log and span correlation
	ID string
	// Name is the wrapped callable's name
	Name  string
	Start time.Time
	End   time.Time
	// Err is the error returned by the wrapped callable, if any
	Err error
}

// Duration returns the elapsed time between Start and End.
// A clock that stepped backwards yields zero, never a negative value.
func (m Measurement) Duration() time.Duration {
	d := m.End.Sub(m.Start)
	if d < 0 {
		return 0
	}
	return d
}

// Failed reports whether the wrapped callable returned an error
func (m Measurement) Failed() bool {
	return m.Err != nil
}
