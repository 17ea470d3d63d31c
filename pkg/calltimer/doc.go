// Package calltimer wraps callables so every invocation reports its
// wall-clock run time while the wrapped value keeps the identity (name,
// documentation, signature) of the function it wraps.
//
// Two forms are provided. Timer.Wrap works on the Callable interface, whose
// arguments travel as an explicit Args record. Decorate works on plain Go
// funcs of any signature and hands back a func of the same type.
package calltimer
