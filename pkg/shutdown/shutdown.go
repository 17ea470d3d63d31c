package shutdown

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/psantana5/calltimer/pkg/logging"
)

// Stage is one named step of a graceful stop
type Stage struct {
	Name string
	Stop func(context.Context) error
}

// Manager stops registered stages in reverse registration order once,
// sharing one deadline across all of them.
type Manager struct {
	mu      sync.Mutex
	stages  []Stage
	timeout time.Duration
	logger  *logging.Logger
	done    bool
}

// New creates a manager whose stages share timeout
func New(timeout time.Duration, logger *logging.Logger) *Manager {
	return &Manager{timeout: timeout, logger: logger}
}

// Register appends a stage. Later stages stop first.
func (m *Manager) Register(name string, stop func(context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages = append(m.stages, Stage{Name: name, Stop: stop})
}

// Wait blocks until SIGINT, SIGTERM or the end of ctx and then stops every
// stage. ctx's error is returned only when no stage failed.
func (m *Manager) Wait(ctx context.Context) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigs)

	select {
	case sig := <-sigs:
		m.logger.Info("Received signal, shutting down", logging.Fields{"signal": sig.String()})
		return m.Stop()
	case <-ctx.Done():
		if err := m.Stop(); err != nil {
			return err
		}
		return ctx.Err()
	}
}

// Stop runs every stage even when one fails and returns the first failure.
// Calls after the first are no-ops.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done {
		return nil
	}
	m.done = true

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	var first error
	for i := len(m.stages) - 1; i >= 0; i-- {
		st := m.stages[i]
		start := time.Now()
		if err := st.Stop(ctx); err != nil {
			m.logger.Error("Shutdown stage failed", logging.Fields{"stage": st.Name, "error": err.Error()})
			if first == nil {
				first = fmt.Errorf("%s: %w", st.Name, err)
			}
			continue
		}
		m.logger.Debug("Shutdown stage done", logging.Fields{
			"stage":            st.Name,
			"duration_seconds": time.Since(start).Seconds(),
		})
	}

	m.logger.Info("Graceful shutdown complete", logging.Fields{"stages": len(m.stages)})
	return first
}

// HTTPServer adapts anything with an http.Server style Shutdown
func HTTPServer(server interface{ Shutdown(context.Context) error }) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}
