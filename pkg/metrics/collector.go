package metrics

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"

	"github.com/psantana5/calltimer/pkg/calltimer"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Collector turns measurements into Prometheus series
type Collector struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewCollector creates the call counter and duration histogram
func NewCollector() *Collector {
	return &Collector{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "calltimer",
			Name:      "calls_total",
			Help:      "Total timed calls by function and outcome",
		}, []string{"function", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "calltimer",
			Name:      "call_duration_seconds",
			Help:      "Wall-clock duration of timed calls",
			Buckets:   prometheus.ExponentialBuckets(1e-7, 10, 9),
		}, []string{"function", "outcome"}),
	}
}

// Report implements calltimer.Reporter
func (c *Collector) Report(_ context.Context, m calltimer.Measurement) {
	outcome := OutcomeOK
	if m.Failed() {
		outcome = OutcomeError
	}
	c.calls.WithLabelValues(m.Name, outcome).Inc()
	c.duration.WithLabelValues(m.Name, outcome).Observe(m.Duration().Seconds())
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.calls.Describe(ch)
	c.duration.Describe(ch)
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.calls.Collect(ch)
	c.duration.Collect(ch)
}

// NewRegistry registers c alongside the Go runtime and process collectors
func NewRegistry(c *Collector) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	for _, col := range []prometheus.Collector{
		c,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return reg, nil
}

// Handler serves the registry in the Prometheus exposition format
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// WriteText renders every gathered family as text exposition
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("failed to encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
