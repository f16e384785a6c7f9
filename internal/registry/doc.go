// Package registry maps the operation names used in graph files (for example
// "inc" or "add") to compiled Go operations.
//
// Modules register their operations at startup. Registration of a duplicate
// name is a programming error and panics. Lookups return operations wrapped
// with an arity check, so a graph file that calls "add" with three
// arguments fails with a clear error instead of an index panic.
package registry
