package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psantana5/calltimer/internal/tutorial"
	"github.com/psantana5/calltimer/pkg/calltimer"
	"github.com/psantana5/calltimer/pkg/config"
)

var runTimeLine = regexp.MustCompile(`(?m)^Run time: \d+\.\d{8}$`)

// execute runs the root command with flag state reset between calls
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return executeContext(t, context.Background(), args...)
}

func executeContext(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	outputFormat = "text"
	configFormat = "yaml"
	benchIterations, benchConcurrency, benchRate = 0, 0, -1
	benchMetrics, benchLines = false, false
	serveAddr, serveInterval = "", 10*time.Second
	for _, name := range []string{"precision", "log-level"} {
		f := rootCmd.PersistentFlags().Lookup(name)
		require.NoError(t, f.Value.Set(f.DefValue))
		f.Changed = false
	}

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func defaultConfig(t *testing.T) config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	c, err := config.Load(v)
	require.NoError(t, err)
	return c
}

func TestParseArgs(t *testing.T) {
	args := parseArgs([]string{"1", "2.5", "x", "b=3", "=7"})

	assert.Equal(t, []any{1, 2.5, "x", "=7"}, args.Positional)
	v, ok := args.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestRunAdd(t *testing.T) {
	stdout, _, err := execute(t, "run", "add", "1", "3")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.Regexp(t, runTimeLine, lines[0])
	assert.Equal(t, "4", lines[1])
}

func TestRunAddMore(t *testing.T) {
	stdout, _, err := execute(t, "run", "add_more", "1", "3", "4", "6")
	require.NoError(t, err)

	assert.Len(t, runTimeLine.FindAllString(stdout, -1), 1)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(stdout), "14"))
}

func TestRunJSON(t *testing.T) {
	stdout, stderr, err := execute(t, "run", "divide", "a=9", "b=3", "--output", "json")
	require.NoError(t, err)

	var res runResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.Equal(t, "divide", res.Function)
	assert.Equal(t, 3.0, res.Result)
	assert.GreaterOrEqual(t, res.Seconds, 0.0)
	assert.Regexp(t, runTimeLine, stderr)
}

func TestRunFailure(t *testing.T) {
	stdout, _, err := execute(t, "run", "divide", "1", "0")
	assert.ErrorIs(t, err, tutorial.ErrDivideByZero)
	assert.Empty(t, stdout)
}

func TestRunUnknownFunction(t *testing.T) {
	_, _, err := execute(t, "run", "multiply", "2", "3")
	assert.ErrorIs(t, err, tutorial.ErrUnknownFunction)
}

func TestRunPrecisionFlag(t *testing.T) {
	stdout, _, err := execute(t, "run", "add", "1", "1", "--precision", "3")
	require.NoError(t, err)
	assert.Regexp(t, `(?m)^Run time: \d+\.\d{3}$`, stdout)

	stdout, _, err = execute(t, "run", "add", "1", "1")
	require.NoError(t, err)
	assert.Regexp(t, runTimeLine, stdout)
}

func TestRunLogsToCommandStderr(t *testing.T) {
	stdout, stderr, err := execute(t, "run", "add", "1", "3", "--log-level", "debug")
	require.NoError(t, err)

	assert.Contains(t, stderr, "DEBUG: call completed")
	assert.Contains(t, stderr, "function=add")
	assert.NotContains(t, stdout, "call completed")

	_, stderr, err = execute(t, "run", "add", "1", "3")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "call completed")
}

func TestDescribe(t *testing.T) {
	stdout, _, err := execute(t, "describe", "add", "--output", "json")
	require.NoError(t, err)

	var rows []identity
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows))
	require.Len(t, rows, 3)

	byForm := make(map[string]calltimer.Metadata)
	for _, r := range rows {
		byForm[r.Form] = r.Metadata
	}
	assert.Equal(t, byForm["raw"], byForm["timed"])
	assert.Equal(t, "add", byForm["timed"].Name)
	assert.NotEqual(t, "add", byForm["naive"].Name)
}

func TestDescribeTable(t *testing.T) {
	stdout, _, err := execute(t, "describe")
	require.NoError(t, err)

	for _, key := range []string{"add_more", "divide", "fib", "sum"} {
		assert.Contains(t, stdout, key)
	}
}

func TestLessonSingle(t *testing.T) {
	stdout, _, err := execute(t, "lesson", "3")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Preserving identity")
	assert.Contains(t, stdout, "add(1, 3) = 4")
	assert.Len(t, runTimeLine.FindAllString(stdout, -1), 1)

	_, _, err = execute(t, "lesson", "99")
	assert.Error(t, err)
}

func TestBench(t *testing.T) {
	stdout, _, err := execute(t, "bench", "add", "1", "3", "-n", "40", "-c", "3", "--output", "json")
	require.NoError(t, err)

	var s benchSummary
	require.NoError(t, json.Unmarshal([]byte(stdout), &s))
	assert.Equal(t, 40, s.Iterations)
	assert.Equal(t, 3, s.Concurrency)
	require.Len(t, s.Stats, 1)
	assert.Equal(t, "add", s.Stats[0].Name)
	assert.Equal(t, uint64(40), s.Stats[0].Calls)
	assert.Zero(t, s.Stats[0].Failures)
}

func TestBenchFailuresAndMetrics(t *testing.T) {
	stdout, _, err := execute(t, "bench", "divide", "1", "0", "-n", "10", "-c", "2", "--metrics")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Recent failures:")
	assert.Contains(t, stdout, "division by zero")
	assert.Contains(t, stdout, `calltimer_calls_total{function="divide",outcome="error"} 10`)
}

func TestBenchZeroFlagsKeepConfig(t *testing.T) {
	stdout, _, err := execute(t, "bench", "add", "1", "3", "--rate", "0", "-c", "0", "-n", "5", "--output", "json")
	require.NoError(t, err)

	var s benchSummary
	require.NoError(t, json.Unmarshal([]byte(stdout), &s))
	assert.Equal(t, 4, s.Concurrency)
	assert.Equal(t, 5, s.Iterations)
}

func TestBenchCountsOnlyDispatchedCalls(t *testing.T) {
	a, err := newApp(context.Background(), defaultConfig(t), nil, io.Discard)
	require.NoError(t, err)
	defer a.Close(context.Background())
	entry, err := a.catalog.Get("add")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	bc := config.BenchConfig{Iterations: 1000, Concurrency: 2, Rate: 50}
	s, err := benchmark(ctx, a, entry, calltimer.Positional(1, 3), bc)
	require.Error(t, err)
	assert.ErrorContains(t, err, "bench interrupted after")
	assert.Less(t, s.Iterations, 1000)
	assert.Equal(t, 1000, bc.Iterations)
	if s.Iterations > 0 {
		require.Len(t, s.Stats, 1)
		assert.Equal(t, uint64(s.Iterations), s.Stats[0].Calls)
	}
}

func TestBenchCancelledBeforeStart(t *testing.T) {
	a, err := newApp(context.Background(), defaultConfig(t), nil, io.Discard)
	require.NoError(t, err)
	defer a.Close(context.Background())
	entry, err := a.catalog.Get("add")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := benchmark(ctx, a, entry, calltimer.Positional(1, 3), config.BenchConfig{Iterations: 100, Concurrency: 2, Rate: 1})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, s.Iterations)
	assert.Empty(t, s.Stats)
}

func TestServeBusyAddress(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	_, _, err = execute(t, "serve", "--addr", ln.Addr().String(), "--interval", "1h")
	require.Error(t, err)
	assert.ErrorContains(t, err, "metrics server")
	var opErr *net.OpError
	assert.ErrorAs(t, err, &opErr)
}

func TestServeStopsCleanlyOnCancel(t *testing.T) {
	t.Setenv("CALLTIMER_BENCH_ITERATIONS", "10")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stopTimer := time.AfterFunc(300*time.Millisecond, cancel)
	defer stopTimer.Stop()

	_, stderr, err := executeContext(t, ctx, "serve", "--addr", "127.0.0.1:0", "--interval", "1h", "--log-level", "debug")
	require.NoError(t, err)

	assert.Contains(t, stderr, "Serving metrics")
	runs := strings.Index(stderr, "stage=bench runs")
	server := strings.Index(stderr, "stage=metrics server")
	app := strings.Index(stderr, "stage=app")
	require.NotEqual(t, -1, runs)
	require.NotEqual(t, -1, server)
	require.NotEqual(t, -1, app)
	assert.Less(t, runs, server)
	assert.Less(t, server, app)
	assert.Contains(t, stderr, "Graceful shutdown complete stages=3")
	assert.NotContains(t, stderr, "Shutdown stage failed")
}

func TestConfigShow(t *testing.T) {
	stdout, _, err := execute(t, "config", "show", "--format", "json")
	require.NoError(t, err)

	var got config.Config
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, 8, got.Precision)
	assert.Equal(t, ":9109", got.Metrics.Addr)

	_, _, err = execute(t, "config", "show", "--format", "toml")
	assert.Error(t, err)
}

func TestRouter(t *testing.T) {
	a, err := newApp(context.Background(), defaultConfig(t), nil, io.Discard)
	require.NoError(t, err)
	defer a.Close(context.Background())

	e, err := a.catalog.Get("add")
	require.NoError(t, err)
	_, err = e.Timed.Call(context.Background(), calltimer.Positional(1, 3))
	require.NoError(t, err)

	router := newRouter(a)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `calltimer_calls_total{function="add",outcome="ok"} 1`)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/metrics", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
