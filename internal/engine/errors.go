package engine

import "fmt"

// NotFoundError reports a view or context entity that could not be
// located. Terminal: callers surface it, never retry.
type NotFoundError struct {
	Kind string // "view" or "entity"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}
