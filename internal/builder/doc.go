// Package builder records task graphs without running anything.
//
// Defer wraps an ordinary Go function. Calling the result records a node and
// returns a *Value standing for the function's eventual result:
//
//	inc := builder.Defer("inc", func(n int) int { return n + 1 })
//	add := builder.Defer("add", func(a, b int) int { return a + b })
//	z := add.Call(inc.Call(1), inc.Call(2))
//
// A *Value can be passed to further calls, alone or nested inside slices,
// arrays and string-keyed maps. Element access and arithmetic on deferred
// values are expressed with explicit combinators (Index, Attr, Add, ...),
// each of which records another node.
//
// Keyed graphs let definitions refer to each other by name before the
// referenced definition exists; cycles among them are reported when a node is
// materialized, before anything runs.
package builder
