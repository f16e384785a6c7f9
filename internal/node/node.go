// Package node models a deferred unit of computation: an operation plus the
// argument structure it will be invoked with.
package node

import (
	"context"
	"fmt"

	"github.com/specialistvlad/lazygrid/internal/nodeid"
)

// Op is the operation a node performs once all of its arguments are known.
type Op interface {
	// Name is a short, human-readable name used in ids, logs and descriptions.
	Name() string
	// Call runs the operation with fully resolved arguments.
	Call(ctx context.Context, args []any) (any, error)
}

// Func is the signature adapted by NewOp.
type Func func(ctx context.Context, args []any) (any, error)

type funcOp struct {
	name string
	fn   Func
}

// NewOp adapts a plain function into an Op.
func NewOp(name string, fn Func) Op {
	return &funcOp{name: name, fn: fn}
}

func (o *funcOp) Name() string { return o.name }

func (o *funcOp) Call(ctx context.Context, args []any) (any, error) {
	return o.fn(ctx, args)
}

// Node is a single vertex in the task graph. It is immutable once created:
// the scheduler only reads it, and computed results live in the execution's
// result table rather than on the node.
type Node struct {
	// id is the unique identity the scheduler and cache key on.
	id nodeid.ID
	// op is the deferred operation.
	op Op
	// args holds the ordered argument slots.
	args []Arg
	// deps holds the distinct direct dependencies, in first-seen order.
	deps []*Node
}

// New records a node. Dependencies are derived from the Ref slots found at
// any depth of args.
func New(id nodeid.ID, op Op, args ...Arg) *Node {
	if op == nil {
		panic("node: nil op for " + id.String())
	}
	n := &Node{
		id:   id,
		op:   op,
		args: append([]Arg(nil), args...),
	}

	seen := make(map[nodeid.ID]struct{})
	for _, a := range n.args {
		for _, dep := range Refs(a) {
			if _, ok := seen[dep.id]; ok {
				continue
			}
			seen[dep.id] = struct{}{}
			n.deps = append(n.deps, dep)
		}
	}
	return n
}

// ID returns the node's identity.
func (n *Node) ID() nodeid.ID {
	return n.id
}

// Name returns the name of the node's operation.
func (n *Node) Name() string {
	return n.op.Name()
}

// Op returns the node's operation.
func (n *Node) Op() Op {
	return n.op
}

// Args returns a copy of the node's argument slots.
func (n *Node) Args() []Arg {
	return append([]Arg(nil), n.args...)
}

// Deps returns a copy of the node's direct dependencies.
func (n *Node) Deps() []*Node {
	return append([]*Node(nil), n.deps...)
}

// String implements fmt.Stringer.
func (n *Node) String() string {
	return fmt.Sprintf("%s(%d args)", n.id.Short(), len(n.args))
}

// State represents the execution state of a node within one execution.
type State int32

const (
	// Pending indicates the node is waiting for its dependencies to complete.
	Pending State = iota
	// Running indicates the node is currently being executed by a worker.
	Running
	// Done indicates the node has completed execution successfully.
	Done
	// Failed indicates the node's own operation returned an error.
	Failed
	// Skipped indicates an upstream failure prevented the node from running.
	Skipped
	// Aborted indicates the execution was cancelled before the node ran.
	Aborted
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Done:
		return "done"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Terminal reports whether no further transition can happen from s.
func (s State) Terminal() bool {
	return s >= Done
}
