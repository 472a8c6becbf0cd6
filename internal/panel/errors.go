package panel

import "fmt"

// ParseError reports a controller reply the panel could not interpret.
type ParseError struct {
	Macro string
	Reply string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: cannot parse reply %q: %v", e.Macro, e.Reply, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
