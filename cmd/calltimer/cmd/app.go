package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/psantana5/calltimer/internal/tutorial"
	"github.com/psantana5/calltimer/pkg/calltimer"
	"github.com/psantana5/calltimer/pkg/config"
	"github.com/psantana5/calltimer/pkg/logging"
	"github.com/psantana5/calltimer/pkg/metrics"
	"github.com/psantana5/calltimer/pkg/report"
	"github.com/psantana5/calltimer/pkg/tracing"
)

// recentFailures is how many failed calls the failure log keeps
const recentFailures = 20

// app wires the timer and every reporter for one command invocation
type app struct {
	cfg       config.Config
	logger    *logging.Logger
	stats     *report.Stats
	failures  *report.FailureLog
	collector *metrics.Collector
	registry  *prometheus.Registry
	tracer    *tracing.Provider
	timer     *calltimer.Timer
	catalog   *tutorial.Catalog
}

// newApp builds the reporters from cfg. Run time lines go to lines, or
// nowhere when lines is nil. Log entries go to logs.
func newApp(ctx context.Context, cfg config.Config, lines, logs io.Writer) (*app, error) {
	logger, err := newLogger(cfg.Log, logs)
	if err != nil {
		return nil, err
	}

	tracer, err := tracing.Open(ctx, cfg.Tracing, tracing.WithVersion(Version))
	if err != nil {
		return nil, err
	}

	collector := metrics.NewCollector()
	registry, err := metrics.NewRegistry(collector)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		logger:    logger,
		stats:     report.NewStats(),
		failures:  report.NewFailureLog(recentFailures),
		collector: collector,
		registry:  registry,
		tracer:    tracer,
	}

	reporters := []calltimer.Reporter{
		a.stats,
		a.failures,
		a.collector,
		report.NewLogReporter(logger),
	}
	if tracer.Recording() {
		reporters = append(reporters, tracing.NewReporter(tracer))
	}
	if lines != nil {
		reporters = append([]calltimer.Reporter{calltimer.NewLineReporter(lines, cfg.Precision)}, reporters...)
	}
	a.timer = calltimer.New(calltimer.WithReporters(reporters...))

	a.catalog, err = tutorial.NewCatalog(a.timer)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}

	logger.Debug("Timer ready", logging.Fields{
		"precision": cfg.Precision,
		"tracing":   cfg.Tracing.Enabled,
	})
	return a, nil
}

func newLogger(lc config.LogConfig, logs io.Writer) (*logging.Logger, error) {
	level, err := logging.ParseLevel(lc.Level)
	if err != nil {
		return nil, err
	}
	if lc.File != "" {
		return logging.NewFileLogger(lc.File, logs, level, lc.JSON)
	}
	logger := logging.NewLogger(level, lc.JSON)
	if logs != nil {
		logger.SetOutput(logs)
	}
	return logger, nil
}

// Close flushes spans and closes the log file
func (a *app) Close(ctx context.Context) error {
	if err := a.tracer.Shutdown(ctx); err != nil {
		a.logger.Warn("Tracer shutdown failed", logging.Fields{"error": err.Error()})
	}
	return a.logger.Close()
}
