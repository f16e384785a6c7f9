// Package hclgraph loads task graphs from HCL files.
//
// Each task block names an operation from the registry and its arguments:
//
//	task "x" {
//	  op   = "inc"
//	  args = [1]
//	}
//
//	task "z" {
//	  op   = "add"
//	  args = [task.x, task.y[0] * 2]
//	}
//
// Arguments are HCL literals, lists and objects, references to other tasks
// (task.x, task.x[0], task.x.field, task.x[task.i]) and the arithmetic
// operators + - * / and unary minus applied to any of these. Tasks may be
// declared in any order and across several files. Unknown references and
// reference cycles are reported by Load, before anything runs.
package hclgraph
