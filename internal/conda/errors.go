package conda

import "fmt"

// NotFoundError reports a conda installation or environment that could
// not be located.
type NotFoundError struct {
	What string
	Name string
	Hint string
}

func (e *NotFoundError) Error() string {
	msg := e.What + " not found"
	if e.Name != "" {
		msg = fmt.Sprintf("%s %q not found", e.What, e.Name)
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}
