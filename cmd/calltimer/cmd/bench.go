package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/psantana5/calltimer/internal/tutorial"
	"github.com/psantana5/calltimer/pkg/calltimer"
	"github.com/psantana5/calltimer/pkg/config"
	"github.com/psantana5/calltimer/pkg/logging"
	"github.com/psantana5/calltimer/pkg/metrics"
	"github.com/psantana5/calltimer/pkg/report"
)

var (
	benchIterations  int
	benchConcurrency int
	benchRate        float64
	benchMetrics     bool
	benchLines       bool
)

var benchCmd = &cobra.Command{
	Use:   "bench <function> [args...]",
	Short: "Call a function many times and summarise the timings",
	Long: `Call an example function through the timer from several goroutines and
print per-function statistics gathered by the timer's reporters. Failed calls
are counted and the most recent ones listed.`,
	Example: `  calltimer bench add 1 3 --iterations 10000 --concurrency 8
  calltimer bench divide 1 0 --iterations 50
  calltimer bench fib 10 --rate 100 --metrics`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)

	benchCmd.Flags().IntVarP(&benchIterations, "iterations", "n", 0, "number of calls (default from config)")
	benchCmd.Flags().IntVarP(&benchConcurrency, "concurrency", "c", 0, "number of calling goroutines (default from config)")
	benchCmd.Flags().Float64Var(&benchRate, "rate", -1, "maximum calls per second, 0 for unlimited (default from config)")
	benchCmd.Flags().BoolVar(&benchMetrics, "metrics", false, "print Prometheus metrics after the run")
	benchCmd.Flags().BoolVar(&benchLines, "lines", false, "print a Run time line for every call")
}

// benchSummary is what a bench run reports
type benchSummary struct {
	Function    string                 `json:"function"`
	Iterations  int                    `json:"iterations"`
	Concurrency int                    `json:"concurrency"`
	Wall        time.Duration          `json:"wall_ns"`
	CPUPercent  float64                `json:"cpu_percent"`
	Stats       []report.FunctionStats `json:"stats"`
	Failures    []report.Failure       `json:"recent_failures,omitempty"`
}

func runBench(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	bc := benchConfig(cfg.Bench)
	if err := (config.Config{Precision: cfg.Precision, Bench: bc}).Validate(); err != nil {
		return err
	}

	var lines io.Writer
	if benchLines {
		lines = cmd.ErrOrStderr()
	}
	a, err := newApp(ctx, cfg, lines, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	entry, err := a.catalog.Get(args[0])
	if err != nil {
		return err
	}

	summary, err := benchmark(ctx, a, entry, parseArgs(args[1:]), bc)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if IsJSONOutput() {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		printBench(out, summary, cfg.Precision)
	}

	if benchMetrics {
		fmt.Fprintln(out)
		return metrics.WriteText(out, a.registry)
	}
	return nil
}

// benchConfig overlays command-line flags on the configured defaults
func benchConfig(bc config.BenchConfig) config.BenchConfig {
	if benchIterations > 0 {
		bc.Iterations = benchIterations
	}
	if benchConcurrency > 0 {
		bc.Concurrency = benchConcurrency
	}
	if benchRate >= 0 {
		bc.Rate = benchRate
	}
	return bc
}

// benchmark issues bc.Iterations calls of entry.Timed over bc.Concurrency
// workers. Call failures are part of the result, not an error; only
// cancellation stops the run early.
func benchmark(ctx context.Context, a *app, entry tutorial.Entry, args calltimer.Args, bc config.BenchConfig) (benchSummary, error) {
	var limiter *rate.Limiter
	if bc.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(bc.Rate), 1)
	}

	// Prime the CPU sampler so the second reading covers the run only
	cpu.Percent(0, false)

	jobs := make(chan struct{})
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < bc.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				entry.Timed.Call(ctx, args)
			}
		}()
	}

	var runErr error
	dispatched := 0
dispatch:
	for dispatched < bc.Iterations {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				runErr = fmt.Errorf("bench interrupted after %d calls: %w", dispatched, err)
				break
			}
		}
		select {
		case jobs <- struct{}{}:
			dispatched++
		case <-ctx.Done():
			runErr = fmt.Errorf("bench interrupted after %d calls: %w", dispatched, ctx.Err())
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	summary := benchSummary{
		Function:    entry.Key,
		Iterations:  dispatched,
		Concurrency: bc.Concurrency,
		Wall:        time.Since(start),
		Stats:       a.stats.Snapshot(),
		Failures:    a.failures.Recent(5),
	}
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		summary.CPUPercent = pct[0]
	} else if err != nil {
		a.logger.Warn("CPU sampling failed", logging.Fields{"error": err.Error()})
	}

	a.logger.Info("Bench complete", logging.Fields{
		"function":    entry.Key,
		"iterations":  dispatched,
		"concurrency": bc.Concurrency,
		"wall":        summary.Wall.String(),
	})
	return summary, runErr
}

func printBench(w io.Writer, s benchSummary, precision int) {
	seconds := func(d time.Duration) string {
		return calltimer.FormatSeconds(d.Seconds(), precision)
	}

	table := tablewriter.NewWriter(w)
	table.Header("Function", "Calls", "Failures", "Min (s)", "Mean (s)", "Max (s)", "Total (s)")
	for _, st := range s.Stats {
		table.Append(
			st.Name,
			fmt.Sprintf("%d", st.Calls),
			fmt.Sprintf("%d", st.Failures),
			seconds(st.Min),
			seconds(st.Mean()),
			seconds(st.Max),
			seconds(st.Total),
		)
	}
	table.Render()

	throughput := 0.0
	if s.Wall > 0 {
		throughput = float64(s.Iterations) / s.Wall.Seconds()
	}
	fmt.Fprintf(w, "\n%d calls of %s over %d goroutines in %s (%.0f calls/s, host CPU %.1f%%)\n",
		s.Iterations, s.Function, s.Concurrency, s.Wall.Round(time.Microsecond), throughput, s.CPUPercent)

	if len(s.Failures) == 0 {
		return
	}

	fmt.Fprintln(w, "\nRecent failures:")
	failures := tablewriter.NewWriter(w)
	failures.Header("Call ID", "Function", "Error")
	for _, f := range s.Failures {
		failures.Append(f.CallID, f.Function, f.Error)
	}
	failures.Render()
}
