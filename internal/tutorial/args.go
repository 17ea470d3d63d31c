package tutorial

import (
	"errors"
	"fmt"

	"github.com/psantana5/calltimer/pkg/calltimer"
)

var (
	// ErrArity is returned when arguments do not match the parameter list
	ErrArity = errors.New("wrong arguments")
	// ErrArgType is returned when an argument is not an int
	ErrArgType = errors.New("wrong argument type")
)

// bind maps positional and named arguments onto params, the way a call
// with keyword arguments fills parameters.
func bind(args calltimer.Args, params ...string) ([]int, error) {
	if args.Len() > len(params) {
		return nil, fmt.Errorf("%w: takes %d arguments but %d were given", ErrArity, len(params), args.Len())
	}

	values := make([]any, len(params))
	set := make([]bool, len(params))
	for i, v := range args.Positional {
		values[i] = v
		set[i] = true
	}

	for name, v := range args.Named {
		idx := indexOf(params, name)
		if idx < 0 {
			return nil, fmt.Errorf("%w: unexpected argument %q", ErrArity, name)
		}
		if set[idx] {
			return nil, fmt.Errorf("%w: multiple values for argument %q", ErrArity, name)
		}
		values[idx] = v
		set[idx] = true
	}

	out := make([]int, len(params))
	for i, p := range params {
		if !set[i] {
			return nil, fmt.Errorf("%w: missing argument %q", ErrArity, p)
		}
		n, ok := values[i].(int)
		if !ok {
			return nil, fmt.Errorf("%w: argument %q is %T, want int", ErrArgType, p, values[i])
		}
		out[i] = n
	}
	return out, nil
}

// bindVariadic accepts positional ints only
func bindVariadic(args calltimer.Args) ([]int, error) {
	if len(args.Named) > 0 {
		return nil, fmt.Errorf("%w: takes no named arguments", ErrArity)
	}
	out := make([]int, args.Len())
	for i, v := range args.Positional {
		n, ok := v.(int)
		if !ok {
			return nil, fmt.Errorf("%w: argument %d is %T, want int", ErrArgType, i, v)
		}
		out[i] = n
	}
	return out, nil
}

func indexOf(params []string, name string) int {
	for i, p := range params {
		if p == name {
			return i
		}
	}
	return -1
}
