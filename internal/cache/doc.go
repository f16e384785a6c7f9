// Package cache holds computed node results.
//
// Results is the per-execution table: every node's slot is written at most
// once and the table is discarded when the execution ends, so shared
// subgraphs are computed once per execution and nothing leaks between
// executions by default.
//
// Store is the optional extension point for reusing results across
// executions. Entries are keyed by node identity, never by value equality.
package cache
