package calltimer

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
)

// Timer is the timing decorator. It holds no per-call state, so one Timer
// may wrap any number of callables and be used from many goroutines.
type Timer struct {
	clock     Clock
	reporters MultiReporter
}

// Option configures a Timer
type Option func(*Timer)

// WithClock replaces the system clock
func WithClock(c Clock) Option {
	return func(t *Timer) {
		if c != nil {
			t.clock = c
		}
	}
}

// WithReporters replaces the default stdout line reporter
func WithReporters(rs ...Reporter) Option {
	return func(t *Timer) {
		t.reporters = append(MultiReporter(nil), rs...)
	}
}

// AddReporter appends a reporter to the current set
func AddReporter(r Reporter) Option {
	return func(t *Timer) {
		t.reporters = append(t.reporters, r)
	}
}

// New creates a Timer. Without options it prints "Run time:" lines with
// eight decimals to stdout.
func New(opts ...Option) *Timer {
	t := &Timer{
		clock:     SystemClock(),
		reporters: MultiReporter{NewLineReporter(os.Stdout, DefaultPrecision)},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Wrap returns a Callable that forwards every call to target unchanged and
// reports how long target took. The result answers Metadata with target's
// identity, so wrapping an already wrapped callable keeps the innermost one.
func (t *Timer) Wrap(target Callable) Callable {
	return &timed{target: target, timer: t}
}

// record takes the end timestamp and hands the measurement to reporters
func (t *Timer) record(ctx context.Context, name string, start time.Time, err error) {
	end := t.clock.Now()
	if len(t.reporters) == 0 {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	t.reporters.Report(ctx, Measurement{
		ID:    uuid.NewString(),
		Name:  name,
		Start: start,
		End:   end,
		Err:   err,
	})
}

type timed struct {
	target Callable
	timer  *Timer
}

func (w *timed) Metadata() Metadata {
	return w.target.Metadata()
}

// Call does not recover panics; they reach the caller untouched and no
// measurement is reported for them.
func (w *timed) Call(ctx context.Context, args Args) (any, error) {
	start := w.timer.clock.Now()
	result, err := w.target.Call(ctx, args)
	w.timer.record(ctx, w.target.Metadata().Name, start, err)
	return result, err
}

// Unwrap returns the callable that was wrapped
func (w *timed) Unwrap() Callable {
	return w.target
}
