package calltimer

import "context"

// Callable is a unit of behavior that can be invoked through a wrapper
type Callable interface {
	// Metadata reports the callable's identity
	Metadata() Metadata
	// Call invokes the callable with the given arguments
	Call(ctx context.Context, args Args) (any, error)
}

// Target is the function shape adapted by Func
type Target func(ctx context.Context, args Args) (any, error)

// Func adapts a Target and its metadata to Callable
type Func struct {
	meta Metadata
	fn   Target
}

// NewFunc creates a Callable from fn
func NewFunc(meta Metadata, fn Target) *Func {
	return &Func{meta: meta, fn: fn}
}

// Metadata returns the identity supplied at construction
func (f *Func) Metadata() Metadata {
	return f.meta
}

// Call invokes the underlying Target
func (f *Func) Call(ctx context.Context, args Args) (any, error) {
	return f.fn(ctx, args)
}
