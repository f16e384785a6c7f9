package graph

import (
	"errors"
	"strings"

	"github.com/specialistvlad/lazygrid/internal/nodeid"
)

// ErrCycle is the sentinel matched by every CycleError.
var ErrCycle = errors.New("cycle detected in dependency graph")

// CycleError reports a dependency cycle. Path starts and ends with the same
// node, e.g. a -> b -> a.
type CycleError struct {
	Path []nodeid.ID
}

func (e *CycleError) Error() string {
	if e == nil {
		return ""
	}
	if len(e.Path) == 0 {
		return ErrCycle.Error()
	}
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = id.Short()
	}
	return ErrCycle.Error() + ": " + strings.Join(parts, " -> ")
}

func (e *CycleError) Unwrap() error { return ErrCycle }
