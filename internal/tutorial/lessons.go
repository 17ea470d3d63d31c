package tutorial

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/psantana5/calltimer/pkg/calltimer"
)

// Lesson is one narrated step of the decorator walkthrough
type Lesson struct {
	Title string
	Intro string
	run   func(ctx context.Context, w io.Writer, c *Catalog) error
}

// Run prints the lesson's title and intro, then its demonstration. Timing
// lines go wherever the catalog's Timer reports.
func (l Lesson) Run(ctx context.Context, w io.Writer, c *Catalog) error {
	fmt.Fprintf(w, "== %s ==\n%s\n\n", l.Title, l.Intro)
	if err := l.run(ctx, w, c); err != nil {
		return fmt.Errorf("lesson %q: %w", l.Title, err)
	}
	fmt.Fprintln(w)
	return nil
}

// Lessons returns the walkthrough in order
func Lessons() []Lesson {
	return []Lesson{
		{
			Title: "Functions are values",
			Intro: "A function can be passed around and called like any other value. Its name and doc comment identify it.",
			run: func(ctx context.Context, w io.Writer, c *Catalog) error {
				return show(ctx, w, c, "add", Entry.raw, 1, 3)
			},
		},
		{
			Title: "A wrapper that forgets who it wraps",
			Intro: "Wrapping add in a closure adds timing, but the result now answers to the closure's name and has no documentation.",
			run: func(ctx context.Context, w io.Writer, c *Catalog) error {
				return show(ctx, w, c, "add", Entry.naive, 1, 3)
			},
		},
		{
			Title: "Preserving identity",
			Intro: "Timer.Wrap copies the wrapped function's metadata onto the wrapper, so introspection still reports add.",
			run: func(ctx context.Context, w io.Writer, c *Catalog) error {
				return show(ctx, w, c, "add", Entry.timed, 1, 3)
			},
		},
		{
			Title: "Any number of arguments",
			Intro: "Arguments are forwarded unchanged whatever their count. Decorate does the same for a plain Go func and keeps its exact type.",
			run: func(ctx context.Context, w io.Writer, c *Catalog) error {
				if err := show(ctx, w, c, "add_more", Entry.timed, 1, 3, 4, 6); err != nil {
					return err
				}
				d, err := calltimer.Decorate(c.Timer(), sum, c.Docs().Doc("sum"))
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "sum(1, 2, 3, 4) = %d\n", d.Fn(1, 2, 3, 4))
				describe(w, d.Metadata())
				return nil
			},
		},
		{
			Title: "Failures pass straight through",
			Intro: "When the wrapped function fails, the wrapper returns the very same error and prints no timing line.",
			run: func(ctx context.Context, w io.Writer, c *Catalog) error {
				e, err := c.Get("divide")
				if err != nil {
					return err
				}
				_, err = e.Timed.Call(ctx, calltimer.Positional(1, 0))
				if !errors.Is(err, ErrDivideByZero) {
					return fmt.Errorf("expected %v, got %v", ErrDivideByZero, err)
				}
				fmt.Fprintf(w, "divide(1, 0) failed: %v\n", err)
				return nil
			},
		},
		{
			Title: "Stacking wrappers",
			Intro: "Wrapping a wrapped function times both layers, and the outer layer still reports the innermost identity.",
			run: func(ctx context.Context, w io.Writer, c *Catalog) error {
				e, err := c.Get("add")
				if err != nil {
					return err
				}
				twice := c.Timer().Wrap(e.Timed)
				res, err := twice.Call(ctx, calltimer.Positional(2, 5))
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "add(2, 5) = %v\n", res)
				describe(w, twice.Metadata())
				return nil
			},
		},
		{
			Title: "Recursion",
			Intro: "The wrapper keeps no state between calls, so a function may call itself through its own wrapper. Every level is timed.",
			run: func(ctx context.Context, w io.Writer, c *Catalog) error {
				return show(ctx, w, c, "fib", Entry.timed, 4)
			},
		},
	}
}

// Selectors for the variant of an entry a lesson calls
func (e Entry) raw() calltimer.Callable   { return e.Raw }
func (e Entry) naive() calltimer.Callable { return e.Naive }
func (e Entry) timed() calltimer.Callable { return e.Timed }

// show calls one form of key with ints and prints the result and identity
func show(ctx context.Context, w io.Writer, c *Catalog, key string, pick func(Entry) calltimer.Callable, args ...any) error {
	e, err := c.Get(key)
	if err != nil {
		return err
	}
	fn := pick(e)
	res, err := fn.Call(ctx, calltimer.Positional(args...))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s%s = %v\n", key, formatArgs(args), res)
	describe(w, fn.Metadata())
	return nil
}

func formatArgs(args []any) string {
	s := "("
	for i, a := range args {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprint(a)
	}
	return s + ")"
}

func describe(w io.Writer, meta calltimer.Metadata) {
	doc := meta.Doc
	if doc == "" {
		doc = "<none>"
	}
	fmt.Fprintf(w, "  name:      %s\n  signature: %s\n  doc:       %s\n", meta.Name, meta.Signature, doc)
}
