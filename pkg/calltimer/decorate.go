package calltimer

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// ErrNotFunc is returned when Decorate is given something other than a
// non-nil func.
var ErrNotFunc = errors.New("calltimer: value is not a func")

var (
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
)

// Decorated is a timed func of type F together with the identity of the
// func it wraps. Fn is called exactly like the original.
type Decorated[F any] struct {
	Fn   F
	meta Metadata
}

// Decorate wraps fn with t. Name and Signature come from fn itself, doc is
// the documentation to expose since Go keeps none at runtime.
func Decorate[F any](t *Timer, fn F, doc string) (*Decorated[F], error) {
	return DecorateMeta(t, fn, MetadataOf(fn).WithDoc(doc))
}

// DecorateMeta wraps fn with t and exposes meta as its identity
func DecorateMeta[F any](t *Timer, fn F, meta Metadata) (*Decorated[F], error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return nil, fmt.Errorf("%w: %T", ErrNotFunc, fn)
	}
	return &Decorated[F]{
		Fn:   t.wrapValue(v, meta.Name).Interface().(F),
		meta: meta,
	}, nil
}

// Rewrap times d.Fn again with t, keeping d's identity
func (d *Decorated[F]) Rewrap(t *Timer) *Decorated[F] {
	return &Decorated[F]{
		Fn:   t.wrapValue(reflect.ValueOf(d.Fn), d.meta.Name).Interface().(F),
		meta: d.meta,
	}
}

// Metadata returns the wrapped func's identity
func (d *Decorated[F]) Metadata() Metadata {
	return d.meta
}

// Name returns the wrapped func's name
func (d *Decorated[F]) Name() string {
	return d.meta.Name
}

// Doc returns the wrapped func's documentation
func (d *Decorated[F]) Doc() string {
	return d.meta.Doc
}

// wrapValue builds a func of fv's exact type around fv. A trailing error
// result is reported as the call's failure, and a leading context argument
// is passed on to reporters.
func (t *Timer) wrapValue(fv reflect.Value, name string) reflect.Value {
	ft := fv.Type()

	errIndex := -1
	if n := ft.NumOut(); n > 0 && ft.Out(n-1).Implements(errorType) {
		errIndex = n - 1
	}
	hasContext := ft.NumIn() > 0 && ft.In(0).Implements(contextType)

	return reflect.MakeFunc(ft, func(in []reflect.Value) []reflect.Value {
		ctx := context.Background()
		if hasContext {
			if c, ok := in[0].Interface().(context.Context); ok && c != nil {
				ctx = c
			}
		}

		start := t.clock.Now()
		var out []reflect.Value
		if ft.IsVariadic() {
			out = fv.CallSlice(in)
		} else {
			out = fv.Call(in)
		}

		var err error
		if errIndex >= 0 {
			err = resultError(out[errIndex])
		}
		t.record(ctx, name, start, err)
		return out
	})
}

// resultError extracts a non-nil error from a result value. Typed nil
// pointers count as no error.
func resultError(v reflect.Value) error {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if v.IsNil() {
			return nil
		}
	}
	err, _ := v.Interface().(error)
	return err
}
