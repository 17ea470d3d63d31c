package calltimer

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// DefaultPrecision is the number of decimals in a "Run time:" line
const DefaultPrecision = 8

// Reporter receives one Measurement per completed invocation.
// Implementations must be safe for concurrent use and must not fail the call.
type Reporter interface {
	Report(ctx context.Context, m Measurement)
}

// ReporterFunc adapts a plain function to Reporter
type ReporterFunc func(ctx context.Context, m Measurement)

// Report calls f(ctx, m)
func (f ReporterFunc) Report(ctx context.Context, m Measurement) {
	f(ctx, m)
}

// MultiReporter fans a measurement out to every reporter in order
type MultiReporter []Reporter

// Report forwards m to each reporter
func (mr MultiReporter) Report(ctx context.Context, m Measurement) {
	for _, r := range mr {
		r.Report(ctx, m)
	}
}

// LineReporter prints "Run time: <seconds>" for every successful call
type LineReporter struct {
	mu        sync.Mutex
	w         io.Writer
	precision int
}

// NewLineReporter creates a LineReporter writing to w with the given number
// of decimals. Precision outside 0..9 falls back to DefaultPrecision.
func NewLineReporter(w io.Writer, precision int) *LineReporter {
	if precision < 0 || precision > 9 {
		precision = DefaultPrecision
	}
	return &LineReporter{w: w, precision: precision}
}

// Report writes one line unless the call failed. Write errors are dropped.
func (r *LineReporter) Report(_ context.Context, m Measurement) {
	if m.Failed() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "Run time: %s\n", FormatSeconds(m.Duration().Seconds(), r.precision))
}

// FormatSeconds renders seconds as fixed-point with the given decimals
func FormatSeconds(seconds float64, precision int) string {
	return fmt.Sprintf("%.*f", precision, seconds)
}
