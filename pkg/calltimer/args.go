package calltimer

// Args is the argument record forwarded verbatim to a Callable.
// Positional order and named keys are preserved as given.
type Args struct {
	Positional []any
	Named      map[string]any
}

// Positional builds Args from positional values only
func Positional(values ...any) Args {
	return Args{Positional: values}
}

// With returns a copy of a with the named argument set.
// The receiver's map is never mutated.
func (a Args) With(name string, value any) Args {
	named := make(map[string]any, len(a.Named)+1)
	for k, v := range a.Named {
		named[k] = v
	}
	named[name] = value
	a.Named = named
	return a
}

// Len returns the number of positional arguments
func (a Args) Len() int {
	return len(a.Positional)
}

// At returns the i-th positional argument, or nil when out of range
func (a Args) At(i int) any {
	if i < 0 || i >= len(a.Positional) {
		return nil
	}
	return a.Positional[i]
}

// Get returns a named argument and whether it was supplied
func (a Args) Get(name string) (any, bool) {
	v, ok := a.Named[name]
	return v, ok
}
