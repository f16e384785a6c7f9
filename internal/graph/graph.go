package graph

import (
	"fmt"

	"github.com/specialistvlad/lazygrid/internal/node"
	"github.com/specialistvlad/lazygrid/internal/nodeid"
)

// Graph is the set of nodes reachable by dependency edges from the roots.
type Graph struct {
	roots []*node.Node
	nodes map[nodeid.ID]*node.Node
	// order lists every node with dependencies before dependents.
	order []nodeid.ID
	// dependents is the reverse adjacency list (who depends on me).
	dependents map[nodeid.ID][]*node.Node
}

// Collect walks backward from the roots and returns the graph of their
// ancestors. Duplicate roots are collapsed.
//
// Nodes are immutable and can only reference nodes that already exist, so
// the walk cannot meet a cycle; cycles among keyed definitions are rejected
// earlier by DetectCycles.
func Collect(roots ...*node.Node) (*Graph, error) {
	g := &Graph{
		nodes:      make(map[nodeid.ID]*node.Node),
		dependents: make(map[nodeid.ID][]*node.Node),
	}

	var visit func(n *node.Node) error
	visit = func(n *node.Node) error {
		id := n.ID()
		if other, ok := g.nodes[id]; ok {
			if other != n {
				return fmt.Errorf("duplicate node id %s", id)
			}
			return nil
		}
		g.nodes[id] = n

		for _, dep := range n.Deps() {
			if err := visit(dep); err != nil {
				return err
			}
			g.dependents[dep.ID()] = append(g.dependents[dep.ID()], n)
		}
		g.order = append(g.order, id)
		return nil
	}

	seenRoot := make(map[nodeid.ID]bool)
	for _, r := range roots {
		if r == nil {
			return nil, fmt.Errorf("nil root")
		}
		if err := visit(r); err != nil {
			return nil, err
		}
		if !seenRoot[r.ID()] {
			seenRoot[r.ID()] = true
			g.roots = append(g.roots, r)
		}
	}
	return g, nil
}

// Len returns the number of collected nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Roots returns the requested roots in request order.
func (g *Graph) Roots() []*node.Node {
	return append([]*node.Node(nil), g.roots...)
}

// Node returns the node with the given id.
func (g *Graph) Node(id nodeid.ID) (*node.Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns every collected node, dependencies before dependents.
func (g *Graph) Nodes() []*node.Node {
	out := make([]*node.Node, len(g.order))
	for i, id := range g.order {
		out[i] = g.nodes[id]
	}
	return out
}

// Dependents returns the nodes within this graph that directly depend on id.
func (g *Graph) Dependents(id nodeid.ID) ([]*node.Node, error) {
	if _, ok := g.nodes[id]; !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return append([]*node.Node(nil), g.dependents[id]...), nil
}
