package graph

import (
	"github.com/specialistvlad/lazygrid/internal/node"
	"github.com/specialistvlad/lazygrid/internal/nodeid"
)

// Levels groups nodes using Kahn's algorithm. Nodes in the same level have
// no dependencies on each other and can run in parallel; each level
// contains only nodes whose dependencies are all in previous levels.
// Within a level nodes keep collection order, so the result is stable.
func (g *Graph) Levels() [][]*node.Node {
	inDegree := make(map[nodeid.ID]int, len(g.nodes))
	for id, n := range g.nodes {
		inDegree[id] = len(n.Deps())
	}

	var current []*node.Node
	for _, id := range g.order {
		if inDegree[id] == 0 {
			current = append(current, g.nodes[id])
		}
	}

	var levels [][]*node.Node
	for len(current) > 0 {
		levels = append(levels, current)

		unlocked := make(map[nodeid.ID]bool)
		for _, n := range current {
			for _, dependent := range g.dependents[n.ID()] {
				inDegree[dependent.ID()]--
				if inDegree[dependent.ID()] == 0 {
					unlocked[dependent.ID()] = true
				}
			}
		}

		var next []*node.Node
		for _, id := range g.order {
			if unlocked[id] {
				next = append(next, g.nodes[id])
			}
		}
		current = next
	}
	return levels
}
