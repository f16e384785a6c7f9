// Package executor runs the part of a task graph that a request needs on a
// bounded pool of workers.
package executor

import (
	"context"
	"runtime"

	"github.com/specialistvlad/lazygrid/internal/cache"
	"github.com/specialistvlad/lazygrid/internal/cluster"
	"github.com/specialistvlad/lazygrid/internal/graph"
	"github.com/specialistvlad/lazygrid/internal/node"
)

// Executor computes requested nodes. It holds configuration only; every call
// to Run gets its own ready queue, counters and result table, so one
// Executor may serve concurrent executions.
type Executor struct {
	parallelism       int
	cluster           cluster.Cluster
	store             cache.Store
	continueOnFailure bool
}

// Option configures an Executor.
type Option func(*Executor)

// WithParallelism sets the number of workers. Values below one select the
// default, runtime.GOMAXPROCS(0).
func WithParallelism(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// WithCluster routes node bodies to c instead of local goroutines.
func WithCluster(c cluster.Cluster) Option {
	return func(e *Executor) {
		if c != nil {
			e.cluster = c
		}
	}
}

// WithStore enables cross-execution reuse of results through s.
func WithStore(s cache.Store) Option {
	return func(e *Executor) {
		e.store = s
	}
}

// WithContinueOnFailure keeps independent branches running after a node
// fails, so that every failure in the graph ends up in the Report. By
// default the first failure aborts all work that has not started yet.
func WithContinueOnFailure(on bool) Option {
	return func(e *Executor) {
		e.continueOnFailure = on
	}
}

// New creates an executor.
func New(opts ...Option) *Executor {
	e := &Executor{
		parallelism: runtime.GOMAXPROCS(0),
		cluster:     cluster.NewLocal(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Parallelism returns the configured number of workers.
func (e *Executor) Parallelism() int {
	return e.parallelism
}

// Execute computes a single node and returns its value.
func (e *Executor) Execute(ctx context.Context, root *node.Node) (any, error) {
	values, err := e.ExecuteMany(ctx, root)
	if err != nil {
		return nil, err
	}
	return values[0], nil
}

// ExecuteMany computes several nodes over one shared graph: a node that
// several roots depend on runs once. Values are returned in root order, one
// per requested root.
func (e *Executor) ExecuteMany(ctx context.Context, roots ...*node.Node) ([]any, error) {
	report, err := e.Run(ctx, roots...)
	if err != nil {
		return nil, err
	}
	return report.Values, nil
}

// Run collects the ancestors of roots, executes them and reports on every
// node. The returned error is nil only when every root completed. On
// failure it is the first *NodeExecutionFailure observed; on cancellation
// it is a *SchedulerAbortedError. The report is returned in all cases
// except when the graph cannot be collected.
func (e *Executor) Run(ctx context.Context, roots ...*node.Node) (*Report, error) {
	g, err := graph.Collect(roots...)
	if err != nil {
		return nil, err
	}
	r := newRun(e, g, roots)
	return r.report(ctx, r.execute(ctx))
}
