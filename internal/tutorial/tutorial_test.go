package tutorial

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psantana5/calltimer/pkg/calltimer"
)

var runTimeLine = regexp.MustCompile(`^Run time: \d+\.\d{8}$`)

func newCatalog(t *testing.T) (*Catalog, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	timer := calltimer.New(calltimer.WithReporters(calltimer.NewLineReporter(&buf, calltimer.DefaultPrecision)))
	c, err := NewCatalog(timer)
	require.NoError(t, err)
	return c, &buf
}

func runTimeLines(out string) int {
	n := 0
	for _, line := range strings.Split(out, "\n") {
		if runTimeLine.MatchString(line) {
			n++
		}
	}
	return n
}

func TestTimedAdd(t *testing.T) {
	c, buf := newCatalog(t)
	e, err := c.Get("add")
	require.NoError(t, err)

	got, err := e.Timed.Call(context.Background(), calltimer.Positional(1, 3))
	require.NoError(t, err)
	assert.Equal(t, 4, got)

	assert.Regexp(t, runTimeLine, strings.TrimSpace(buf.String()))
	assert.Equal(t, "add", e.Timed.Metadata().Name)
	assert.True(t, strings.HasPrefix(e.Timed.Metadata().Doc, "add takes two parameters"))
	assert.Equal(t, e.Raw.Metadata(), e.Timed.Metadata())
}

func TestTimedAddMore(t *testing.T) {
	c, buf := newCatalog(t)
	e, err := c.Get("add_more")
	require.NoError(t, err)

	got, err := e.Timed.Call(context.Background(), calltimer.Positional(1, 3, 4, 6))
	require.NoError(t, err)
	assert.Equal(t, 14, got)
	assert.Regexp(t, runTimeLine, strings.TrimSpace(buf.String()))
	assert.Equal(t, "addMore", e.Timed.Metadata().Name)
	assert.Equal(t, "func(int, int, int, int) int", e.Timed.Metadata().Signature)
}

func TestNamedArguments(t *testing.T) {
	c, _ := newCatalog(t)
	e, err := c.Get("divide")
	require.NoError(t, err)

	got, err := e.Timed.Call(context.Background(), calltimer.Positional(9).With("b", 3))
	require.NoError(t, err)
	assert.Equal(t, 3, got)
}

func TestDivideFailurePropagates(t *testing.T) {
	c, buf := newCatalog(t)
	e, err := c.Get("divide")
	require.NoError(t, err)

	_, err = e.Timed.Call(context.Background(), calltimer.Positional(1, 0))
	assert.ErrorIs(t, err, ErrDivideByZero)
	assert.Empty(t, buf.String())
}

func TestArgumentErrors(t *testing.T) {
	c, _ := newCatalog(t)
	ctx := context.Background()

	tests := []struct {
		name string
		key  string
		args calltimer.Args
		want error
	}{
		{"too many", "add", calltimer.Positional(1, 2, 3), ErrArity},
		{"missing", "add", calltimer.Positional(1), ErrArity},
		{"unknown named", "add", calltimer.Positional(1, 2).With("c", 3), ErrArity},
		{"duplicate", "add", calltimer.Positional(1, 2).With("a", 3), ErrArity},
		{"not int", "add", calltimer.Positional(1, "2"), ErrArgType},
		{"variadic named", "sum", calltimer.Positional(1).With("x", 1), ErrArity},
		{"variadic type", "sum", calltimer.Positional(1, 2.5), ErrArgType},
		{"negative fib", "fib", calltimer.Positional(-1), ErrArgType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := c.Get(tt.key)
			require.NoError(t, err)
			_, err = e.Timed.Call(ctx, tt.args)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTimedFibReportsEveryLevel(t *testing.T) {
	c, buf := newCatalog(t)
	e, err := c.Get("fib")
	require.NoError(t, err)

	got, err := e.Timed.Call(context.Background(), calltimer.Positional(4))
	require.NoError(t, err)
	assert.Equal(t, 3, got)
	assert.Equal(t, 9, runTimeLines(buf.String()))

	buf.Reset()
	got, err = e.Raw.Call(context.Background(), calltimer.Positional(10))
	require.NoError(t, err)
	assert.Equal(t, 55, got)
	assert.Empty(t, buf.String())
}

func TestFibStopsOnCancelledRecursion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reported int
	timer := calltimer.New(calltimer.WithReporters(calltimer.ReporterFunc(func(context.Context, calltimer.Measurement) {
		reported++
		cancel()
	})))
	c, err := NewCatalog(timer)
	require.NoError(t, err)
	e, err := c.Get("fib")
	require.NoError(t, err)

	got, err := e.Timed.Call(ctx, calltimer.Positional(6))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
	assert.Less(t, reported, 25)
}

func TestFibCancelledBeforeCall(t *testing.T) {
	c, buf := newCatalog(t)
	e, err := c.Get("fib")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = e.Raw.Call(ctx, calltimer.Positional(3))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, buf.String())
}

func TestSumVariadic(t *testing.T) {
	c, _ := newCatalog(t)
	e, err := c.Get("sum")
	require.NoError(t, err)

	got, err := e.Timed.Call(context.Background(), calltimer.Positional())
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	got, err = e.Timed.Call(context.Background(), calltimer.Positional(1, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, 6, got)
}

func TestNaiveWrapLosesIdentity(t *testing.T) {
	c, buf := newCatalog(t)
	e, err := c.Get("add")
	require.NoError(t, err)

	got, err := e.Naive.Call(context.Background(), calltimer.Positional(1, 3))
	require.NoError(t, err)
	assert.Equal(t, 4, got)
	assert.Equal(t, 1, runTimeLines(buf.String()))

	meta := e.Naive.Metadata()
	assert.NotEqual(t, "add", meta.Name)
	assert.Contains(t, meta.Name, "func")
	assert.Empty(t, meta.Doc)
}

func TestGetUnknown(t *testing.T) {
	c, _ := newCatalog(t)
	_, err := c.Get("multiply")
	assert.ErrorIs(t, err, ErrUnknownFunction)
	assert.Equal(t, []string{"add", "add_more", "divide", "fib", "sum"}, c.Keys())
}

func TestParseDocs(t *testing.T) {
	docs, err := ParseDocs()
	require.NoError(t, err)
	assert.Equal(t, []string{"add", "addMore", "divide", "fib", "sum"}, docs.Names())
}

func TestLessonsRun(t *testing.T) {
	c, buf := newCatalog(t)

	for _, l := range Lessons() {
		require.NoError(t, l.Run(context.Background(), buf, c), l.Title)
	}

	out := buf.String()
	assert.Contains(t, out, "add(1, 3) = 4")
	assert.Contains(t, out, "add_more(1, 3, 4, 6) = 14")
	assert.Contains(t, out, "sum(1, 2, 3, 4) = 10")
	assert.Contains(t, out, "divide(1, 0) failed: division by zero")
	assert.Contains(t, out, "fib(4) = 3")
	assert.Contains(t, out, "name:      add\n")
	assert.Greater(t, runTimeLines(out), 10)
}
