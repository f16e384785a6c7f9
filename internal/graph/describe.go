package graph

import (
	"encoding/json"
	"io"
)

// Description is a read-only structural view of a graph for diagnostics or
// an external renderer.
type Description struct {
	Roots []string   `json:"roots"`
	Nodes []NodeInfo `json:"nodes"`
	Edges []Edge     `json:"edges"`
}

// NodeInfo describes one node. Name is the readable part of ID: the key of
// a keyed definition, otherwise the operation name.
type NodeInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Op    string `json:"op"`
	Args  int    `json:"args"`
	Level int    `json:"level"`
}

// Edge is a dependency edge: To depends on From.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Describe builds the structural view of the graph. Nodes are listed level
// by level; edges follow node order.
func (g *Graph) Describe() Description {
	d := Description{
		Roots: make([]string, 0, len(g.roots)),
		Nodes: make([]NodeInfo, 0, len(g.nodes)),
		Edges: []Edge{},
	}
	for _, r := range g.roots {
		d.Roots = append(d.Roots, r.ID().String())
	}
	for level, nodes := range g.Levels() {
		for _, n := range nodes {
			d.Nodes = append(d.Nodes, NodeInfo{
				ID:    n.ID().String(),
				Name:  n.ID().Name(),
				Op:    n.Name(),
				Args:  len(n.Args()),
				Level: level,
			})
			for _, dep := range n.Deps() {
				d.Edges = append(d.Edges, Edge{From: dep.ID().String(), To: n.ID().String()})
			}
		}
	}
	return d
}

// WriteJSON encodes the description as indented JSON.
func (d Description) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}
