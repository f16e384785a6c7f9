// Package graph collects the part of a task graph that a request needs and
// answers structural questions about it.
//
// A Graph is always built backward from one or more requested roots: only
// nodes that are ancestors of a root are collected, which is what makes
// execution lazy. Collection validates that the dependency relation is
// acyclic and builds the reverse index the scheduler uses to unlock
// dependents.
//
// The Graph is read-only after Collect returns and is safe for concurrent
// use. Mutable execution state lives in the executor, not here.
package graph
