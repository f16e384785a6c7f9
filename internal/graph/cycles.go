package graph

import (
	"sort"

	"github.com/specialistvlad/lazygrid/internal/nodeid"
)

// DetectCycles checks a keyed dependency relation (key -> keys it depends
// on) for cycles and returns a *CycleError naming the first one found.
// Keys are visited in sorted order so the reported cycle is deterministic.
// References to keys absent from deps are treated as leaves.
func DetectCycles(deps map[nodeid.ID][]nodeid.ID) error {
	// permanent: keys fully visited and known not to be on a cycle.
	// temporary: keys on the current recursion stack.
	permanent := make(map[nodeid.ID]bool)
	temporary := make(map[nodeid.ID]bool)
	var stack []nodeid.ID

	var visit func(id nodeid.ID) error
	visit = func(id nodeid.ID) error {
		if permanent[id] {
			return nil
		}
		if temporary[id] {
			// We've hit a key that's already on the stack, so we have a cycle.
			return &CycleError{Path: closeCycle(stack, id)}
		}

		temporary[id] = true
		stack = append(stack, id)
		for _, dep := range deps[id] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		delete(temporary, id)
		permanent[id] = true
		return nil
	}

	keys := make([]nodeid.ID, 0, len(deps))
	for id := range deps {
		keys = append(keys, id)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, id := range keys {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}

// closeCycle extracts the cycle from the DFS stack, closing it on id.
func closeCycle(stack []nodeid.ID, id nodeid.ID) []nodeid.ID {
	for i := range stack {
		if stack[i] == id {
			path := append([]nodeid.ID(nil), stack[i:]...)
			return append(path, id)
		}
	}
	return []nodeid.ID{id, id}
}
