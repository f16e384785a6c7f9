package lazy

import "fmt"

// TypeError is returned by Typed when a result has an unexpected type.
type TypeError struct {
	Got any
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("unexpected result type %T", e.Got)
}
