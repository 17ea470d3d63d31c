package report

import (
	"context"
	"sync"
	"time"

	"github.com/psantana5/calltimer/pkg/calltimer"
)

// Failure is a recent failed call, kept for instant root cause
type Failure struct {
	CallID   string    `json:"call_id"`
	Function string    `json:"function"`
	Error    string    `json:"error"`
	At       time.Time `json:"at"`
	Duration float64   `json:"duration_seconds"`
}

// FailureLog maintains a ring buffer of recent failures (last N)
type FailureLog struct {
	samples []Failure
	maxSize int
	total   uint64
	mu      sync.RWMutex
}

// NewFailureLog creates a failure log with fixed size
func NewFailureLog(maxSize int) *FailureLog {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &FailureLog{
		samples: make([]Failure, 0, maxSize),
		maxSize: maxSize,
	}
}

// Report implements calltimer.Reporter; successful calls are ignored
func (f *FailureLog) Report(_ context.Context, m calltimer.Measurement) {
	if !m.Failed() {
		return
	}

	sample := Failure{
		CallID:   m.ID,
		Function: m.Name,
		Error:    m.Err.Error(),
		At:       m.End,
		Duration: m.Duration().Seconds(),
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.total++
	// Ring buffer: if full, drop oldest
	if len(f.samples) >= f.maxSize {
		f.samples = f.samples[1:]
	}
	f.samples = append(f.samples, sample)
}

// Recent returns up to n failures, newest first. n <= 0 returns all kept.
func (f *FailureLog) Recent(n int) []Failure {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if n <= 0 || n > len(f.samples) {
		n = len(f.samples)
	}

	result := make([]Failure, n)
	for i := 0; i < n; i++ {
		result[i] = f.samples[len(f.samples)-1-i]
	}
	return result
}

// Total returns every failure ever recorded, including evicted ones
func (f *FailureLog) Total() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.total
}
