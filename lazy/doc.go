// Package lazy builds task graphs by wrapping ordinary functions and runs
// them on a bounded pool of workers.
//
//	inc := lazy.Defer(func(n int) int { return n + 1 })
//	add := lazy.Defer(func(a, b int) int { return a + b })
//
//	x := inc.Call(1)
//	y := inc.Call(2)
//	z := add.Call(x, y) // nothing has run yet
//
//	v, err := lazy.Execute(ctx, z) // v == 5
//
// Execute computes only the ancestors of the requested value, each at most
// once per execution, running independent nodes in parallel. A failing node
// stops its descendants; the error is a *NodeExecutionFailure naming the
// node. Cancelling ctx stops new nodes from starting and returns a
// *SchedulerAbortedError.
//
// # Control flow
//
// A graph has no conditional nodes. A deferred value cannot be inspected
// while the graph is being built, so code such as
//
//	if x > 0 { ... }
//
// has no deferred equivalent. Either decide eagerly, by executing the values
// the condition depends on first and building the rest of the graph from the
// concrete result, or move the branch into the body of a deferred function
// where the concrete value is available.
//
// # Operators
//
// Go has no operator overloading. Element access and arithmetic on deferred
// values are spelled with combinators that record further nodes:
// v.Index(0), v.Attr("Name"), v.Add(w), lazy.Sum(a, b, c).
package lazy
