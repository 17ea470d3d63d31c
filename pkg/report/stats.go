package report

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/psantana5/calltimer/pkg/calltimer"
)

// FunctionStats aggregates the measurements of one function.
// Every value can be explained by the measurements it was built from.
type FunctionStats struct {
	Name     string        `json:"name"`
	Calls    uint64        `json:"calls"`
	Failures uint64        `json:"failures"`
	Total    time.Duration `json:"total_ns"`
	Min      time.Duration `json:"min_ns"`
	Max      time.Duration `json:"max_ns"`
}

// Mean returns the average duration over successful calls
func (s FunctionStats) Mean() time.Duration {
	ok := s.Calls - s.Failures
	if ok == 0 {
		return 0
	}
	return s.Total / time.Duration(ok)
}

// Stats keeps per-function aggregates. Durations cover successful calls
// only; failures are counted but not timed.
type Stats struct {
	mu    sync.Mutex
	funcs map[string]*FunctionStats
}

// NewStats creates an empty Stats
func NewStats() *Stats {
	return &Stats{funcs: make(map[string]*FunctionStats)}
}

// Report implements calltimer.Reporter
func (s *Stats) Report(_ context.Context, m calltimer.Measurement) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fs, ok := s.funcs[m.Name]
	if !ok {
		fs = &FunctionStats{Name: m.Name}
		s.funcs[m.Name] = fs
	}

	fs.Calls++
	if m.Failed() {
		fs.Failures++
		return
	}

	d := m.Duration()
	fs.Total += d
	if fs.Calls-fs.Failures == 1 || d < fs.Min {
		fs.Min = d
	}
	if d > fs.Max {
		fs.Max = d
	}
}

// Get returns the aggregate for one function
func (s *Stats) Get(name string) (FunctionStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fs, ok := s.funcs[name]
	if !ok {
		return FunctionStats{}, false
	}
	return *fs, true
}

// Snapshot returns a copy of every aggregate sorted by name
func (s *Stats) Snapshot() []FunctionStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]FunctionStats, 0, len(s.funcs))
	for _, fs := range s.funcs {
		out = append(out, *fs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
