package component

import "fmt"

// Validator is implemented by args structs that check their own values.
// The resolver calls Validate after binding and before any component is
// built.
type Validator interface {
	Validate() error
}

// ArgError reports an argument value that is well-typed but out of range.
type ArgError struct {
	Arg    string
	Reason string
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("argument %q: %s", e.Arg, e.Reason)
}

// InvalidArg returns an *ArgError for arg.
func InvalidArg(arg, format string, a ...any) error {
	return &ArgError{Arg: arg, Reason: fmt.Sprintf(format, a...)}
}
