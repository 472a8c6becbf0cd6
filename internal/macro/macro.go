// Package macro calls WebIOPi style macros on the irrigation controller.
package macro

import (
	"context"
	"fmt"
)

// Caller invokes a named macro with positional arguments and returns its raw reply.
type Caller interface {
	Call(ctx context.Context, name string, args ...any) (string, error)
}

// CallerFunc adapts a function to the Caller interface.
type CallerFunc func(ctx context.Context, name string, args ...any) (string, error)

func (f CallerFunc) Call(ctx context.Context, name string, args ...any) (string, error) {
	return f(ctx, name, args...)
}

// TransportError reports a call that did not produce a usable reply:
// network failure, timeout or a non-2xx status.
type TransportError struct {
	Macro  string
	Status int // 0 when no response was received
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("macro %s: unexpected status %d", e.Macro, e.Status)
	}
	return fmt.Sprintf("macro %s: %v", e.Macro, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Result is the outcome of an asynchronous call.
type Result struct {
	Value string
	Err   error
}

// Go runs the call on its own goroutine. The returned channel receives exactly
// one Result and is then closed.
func Go(ctx context.Context, c Caller, name string, args ...any) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		v, err := c.Call(ctx, name, args...)
		ch <- Result{Value: v, Err: err}
	}()
	return ch
}
