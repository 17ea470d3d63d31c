package tutorial

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"github.com/psantana5/calltimer/pkg/calltimer"
	"github.com/psantana5/calltimer/pkg/godoc"
)

//go:embed functions.go
var functionsSource []byte

// ErrUnknownFunction is returned by Get for a name not in the catalog
var ErrUnknownFunction = errors.New("unknown function")

// Entry is one example function in three forms
type Entry struct {
	// Key is the name used on the command line, e.g. "add_more"
	Key string
	// Raw calls the function without timing
	Raw calltimer.Callable
	// Timed is Raw wrapped by the catalog's Timer
	Timed calltimer.Callable
	// Naive is Raw wrapped by NaiveWrap
	Naive calltimer.Callable
}

// Catalog holds the example functions keyed by their command-line names
type Catalog struct {
	timer   *calltimer.Timer
	docs    *godoc.Index
	entries map[string]Entry
}

// ParseDocs indexes the doc comments of the example functions
func ParseDocs() (*godoc.Index, error) {
	return godoc.Parse("functions.go", functionsSource)
}

// NewCatalog builds every example function around t
func NewCatalog(t *calltimer.Timer) (*Catalog, error) {
	docs, err := ParseDocs()
	if err != nil {
		return nil, err
	}

	c := &Catalog{timer: t, docs: docs, entries: make(map[string]Entry)}

	c.register("add", docs.Describe(add), func(_ context.Context, args calltimer.Args) (any, error) {
		v, err := bind(args, "a", "b")
		if err != nil {
			return nil, err
		}
		return add(v[0], v[1]), nil
	})
	c.register("add_more", docs.Describe(addMore), func(_ context.Context, args calltimer.Args) (any, error) {
		v, err := bind(args, "a", "b", "c", "d")
		if err != nil {
			return nil, err
		}
		return addMore(v[0], v[1], v[2], v[3]), nil
	})
	c.register("divide", docs.Describe(divide), func(_ context.Context, args calltimer.Args) (any, error) {
		v, err := bind(args, "a", "b")
		if err != nil {
			return nil, err
		}
		return divide(v[0], v[1])
	})
	c.register("sum", docs.Describe(sum), func(_ context.Context, args calltimer.Args) (any, error) {
		v, err := bindVariadic(args)
		if err != nil {
			return nil, err
		}
		return sum(v...), nil
	})
	c.addFib(calltimer.Metadata{Name: "fib", Doc: docs.Doc("fib"), Signature: "func(int) int"})

	return c, nil
}

func (c *Catalog) register(key string, meta calltimer.Metadata, fn calltimer.Target) {
	raw := calltimer.NewFunc(meta, fn)
	c.entries[key] = Entry{
		Key:   key,
		Raw:   raw,
		Timed: c.timer.Wrap(raw),
		Naive: NaiveWrap(c.timer, raw),
	}
}

// addFib registers fib. Each form recurses through itself, so the timed
// form reports every recursive call.
func (c *Catalog) addFib(meta calltimer.Metadata) {
	var raw, timed calltimer.Callable
	raw = calltimer.NewFunc(meta, fibTarget(&raw))
	timed = c.timer.Wrap(calltimer.NewFunc(meta, fibTarget(&timed)))

	c.entries["fib"] = Entry{
		Key:   "fib",
		Raw:   raw,
		Timed: timed,
		Naive: NaiveWrap(c.timer, raw),
	}
}

func fibTarget(self *calltimer.Callable) calltimer.Target {
	return func(ctx context.Context, args calltimer.Args) (any, error) {
		v, err := bind(args, "n")
		if err != nil {
			return nil, err
		}
		if v[0] < 0 {
			return nil, fmt.Errorf("%w: n must not be negative, got %d", ErrArgType, v[0])
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		recurse := func(k int) (int, error) {
			res, err := (*self).Call(ctx, calltimer.Positional(k))
			if err != nil {
				return 0, err
			}
			n, ok := res.(int)
			if !ok {
				return 0, fmt.Errorf("fib(%d) returned %T, want int", k, res)
			}
			return n, nil
		}
		n, err := fib(v[0], recurse)
		if err != nil {
			return nil, err
		}
		return n, nil
	}
}

// Get returns the entry for key
func (c *Catalog) Get(key string) (Entry, error) {
	e, ok := c.entries[key]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q (available: %v)", ErrUnknownFunction, key, c.Keys())
	}
	return e, nil
}

// Keys lists the catalog's names in sorted order
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Timer returns the Timer the catalog wraps with
func (c *Catalog) Timer() *calltimer.Timer {
	return c.timer
}

// Docs returns the doc index of the example functions
func (c *Catalog) Docs() *godoc.Index {
	return c.docs
}
