package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/psantana5/calltimer/pkg/logging"
	"github.com/psantana5/calltimer/pkg/metrics"
	"github.com/psantana5/calltimer/pkg/shutdown"
)

var (
	serveAddr     string
	serveInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve [function] [args...]",
	Short: "Expose call timings as Prometheus metrics",
	Long: `Run a bench of the given example function (add 1 3 by default) on a fixed
interval and serve the resulting call counters and duration histograms on
/metrics, with a liveness probe on /healthz. Stops on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config metrics.addr)")
	serveCmd.Flags().DurationVar(&serveInterval, "interval", 10*time.Second, "time between bench runs")
}

// newRouter mounts the metrics and health endpoints
func newRouter(a *app) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", metrics.Handler(a.registry)).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	}).Methods(http.MethodGet)
	return r
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if len(args) == 0 {
		args = []string{"add", "1", "3"}
	}
	if serveInterval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", serveInterval)
	}

	a, err := newApp(ctx, cfg, nil, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	entry, err := a.catalog.Get(args[0])
	if err != nil {
		a.Close(context.Background())
		return err
	}
	callArgs := parseArgs(args[1:])

	addr := serveAddr
	if addr == "" {
		addr = cfg.Metrics.Addr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		a.Close(context.Background())
		return fmt.Errorf("metrics server: %w", err)
	}
	server := &http.Server{
		Handler:           newRouter(a),
		ReadHeaderTimeout: 5 * time.Second,
	}

	runCtx, stopRuns := context.WithCancel(ctx)
	serveErr := make(chan error, 1)
	done := make(chan struct{})

	mgr := shutdown.New(10*time.Second, a.logger)
	mgr.Register("app", a.Close)
	mgr.Register("metrics server", shutdown.HTTPServer(server))
	mgr.Register("bench runs", func(context.Context) error {
		stopRuns()
		<-done
		return nil
	})

	a.logger.Info("Serving metrics", logging.Fields{"addr": ln.Addr().String()})
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Metrics server failed", logging.Fields{"error": err.Error()})
			serveErr <- err
			stopRuns()
		}
	}()

	go func() {
		defer close(done)
		ticker := time.NewTicker(serveInterval)
		defer ticker.Stop()
		for {
			if _, err := benchmark(runCtx, a, entry, callArgs, cfg.Bench); err != nil && runCtx.Err() == nil {
				a.logger.Warn("Bench run failed", logging.Fields{"error": err.Error()})
			}
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	err = mgr.Wait(runCtx)
	select {
	case failed := <-serveErr:
		return fmt.Errorf("metrics server: %w", failed)
	default:
	}
	// ending the parent context is a clean stop
	if err != nil && (ctx.Err() == nil || !errors.Is(err, ctx.Err())) {
		return err
	}
	return nil
}
