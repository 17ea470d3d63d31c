package tutorial

import (
	"context"

	"github.com/psantana5/calltimer/pkg/calltimer"
)

// NaiveWrap times target the same way Timer.Wrap does but exposes the
// identity of its own inner closure, so introspection no longer finds
// target's name or documentation.
func NaiveWrap(t *calltimer.Timer, target calltimer.Callable) calltimer.Callable {
	timed := t.Wrap(target)
	innerFunc := func(ctx context.Context, args calltimer.Args) (any, error) {
		return timed.Call(ctx, args)
	}
	return calltimer.NewFunc(calltimer.MetadataOf(innerFunc), innerFunc)
}
