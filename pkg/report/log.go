package report

import (
	"context"

	"github.com/psantana5/calltimer/pkg/calltimer"
	"github.com/psantana5/calltimer/pkg/logging"
)

// LogReporter writes one structured log entry per call: DEBUG for
// successes, ERROR for failures.
type LogReporter struct {
	logger *logging.Logger
}

// NewLogReporter creates a LogReporter on logger
func NewLogReporter(logger *logging.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Report implements calltimer.Reporter
func (r *LogReporter) Report(_ context.Context, m calltimer.Measurement) {
	fields := logging.Fields{
		"call_id":          m.ID,
		"function":         m.Name,
		"duration_seconds": m.Duration().Seconds(),
	}
	if m.Failed() {
		fields["error"] = m.Err.Error()
		r.logger.Error("call failed", fields)
		return
	}
	r.logger.Debug("call completed", fields)
}
