package executor

import (
	"github.com/specialistvlad/lazygrid/internal/node"
	"github.com/specialistvlad/lazygrid/internal/nodeid"
)

// Report is the diagnostic outcome of one Run.
type Report struct {
	// Values holds one result per requested root, in request order; entries
	// for roots that did not complete are nil.
	Values []any
	// States holds the final state of every collected node.
	States map[nodeid.ID]node.State
	// Errors holds the error of every node that did not complete.
	Errors map[nodeid.ID]error
	// Failures lists every operation failure in the order it was observed.
	Failures []*NodeExecutionFailure
	// Executed counts operations actually submitted for execution.
	Executed int
	// CacheHits counts nodes served from the configured Store.
	CacheHits int
}

// Count returns how many nodes ended in state s.
func (r *Report) Count(s node.State) int {
	n := 0
	for _, st := range r.States {
		if st == s {
			n++
		}
	}
	return n
}
