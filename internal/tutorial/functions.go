package tutorial

import "errors"

// ErrDivideByZero is returned by divide for a zero divisor
var ErrDivideByZero = errors.New("division by zero")

// add takes two parameters and returns their sum.
func add(a, b int) int {
	return a + b
}

// addMore takes four parameters and returns their sum.
func addMore(a, b, c, d int) int {
	return a + b + c + d
}

// divide takes two parameters and returns the integer quotient of the
// first by the second. It fails when the second is zero.
func divide(a, b int) (int, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return a / b, nil
}

// sum takes any number of parameters and returns their total.
func sum(xs ...int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}

// fib returns the n-th Fibonacci number. Smaller terms are computed by
// recurse, so a timed recurse reports every level of the recursion. The
// first error from recurse stops the computation.
func fib(n int, recurse func(int) (int, error)) (int, error) {
	if n < 2 {
		return n, nil
	}
	a, err := recurse(n - 1)
	if err != nil {
		return 0, err
	}
	b, err := recurse(n - 2)
	if err != nil {
		return 0, err
	}
	return a + b, nil
}
