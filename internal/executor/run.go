package executor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/lazygrid/internal/cache"
	"github.com/specialistvlad/lazygrid/internal/ctxlog"
	"github.com/specialistvlad/lazygrid/internal/graph"
	"github.com/specialistvlad/lazygrid/internal/node"
	"github.com/specialistvlad/lazygrid/internal/nodeid"
	"golang.org/x/sync/errgroup"
)

// task is the per-execution state of one node.
type task struct {
	node *node.Node
	// pending is an atomic counter for unmet dependencies. Exactly one
	// decrement observes zero, which is what dispatches the task.
	pending atomic.Int32
	// state is the task's current execution state, managed atomically.
	state atomic.Int32
	// settleOnce ensures the task reaches a terminal state exactly once.
	settleOnce sync.Once
	// err is written inside settleOnce and read after the run finishes.
	err error
}

// settle moves the task to a terminal state and releases its WaitGroup
// slot. It returns true if this call was the one that settled the task.
func (t *task) settle(wg *sync.WaitGroup, s node.State, err error) bool {
	var settled bool
	t.settleOnce.Do(func() {
		t.err = err
		t.state.Store(int32(s))
		wg.Done()
		settled = true
	})
	return settled
}

func (t *task) getState() node.State {
	return node.State(t.state.Load())
}

// run holds the mutable state of one execution.
type run struct {
	exec    *Executor
	graph   *graph.Graph
	roots   []*node.Node
	tasks   map[nodeid.ID]*task
	results *cache.Results
	ready   chan *task
	// finished is closed once every task is settled. ready is never closed,
	// so a late push from a worker cannot panic.
	finished chan struct{}
	wg       sync.WaitGroup
	cancel   context.CancelFunc
	// parent is the caller's context. Awaiting a submitted op uses it, so a
	// fail-fast cancel still lets in-flight ops report their own outcome.
	parent context.Context

	mu       sync.Mutex
	failures []*NodeExecutionFailure

	executed  atomic.Int32
	cacheHits atomic.Int32
}

func newRun(e *Executor, g *graph.Graph, roots []*node.Node) *run {
	r := &run{
		exec:    e,
		graph:   g,
		roots:   roots,
		tasks:   make(map[nodeid.ID]*task, g.Len()),
		results: cache.NewResults(),
		ready:    make(chan *task, g.Len()),
		finished: make(chan struct{}),
		cancel:   func() {},
	}
	for _, n := range g.Nodes() {
		t := &task{node: n}
		t.pending.Store(int32(len(n.Deps())))
		r.tasks[n.ID()] = t
	}
	return r
}

// execute seeds the ready queue with every task that has no dependencies,
// starts the worker pool and blocks until every task is settled. A non-nil
// error means a worker stopped the run on an internal inconsistency.
func (r *run) execute(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	if len(r.tasks) == 0 {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	r.cancel = cancel
	r.parent = ctx

	rootNodeCount := 0
	for _, n := range r.graph.Nodes() {
		t := r.tasks[n.ID()]
		if t.pending.Load() == 0 {
			r.ready <- t
			rootNodeCount++
		}
	}
	logger.Debug("Found all leaf nodes.", "count", rootNodeCount, "nodes", len(r.tasks))

	r.wg.Add(len(r.tasks))

	workers := r.exec.parallelism
	if workers > len(r.tasks) {
		workers = len(r.tasks)
	}
	logger.Debug("Starting worker pool.", "workers", workers)

	var pool errgroup.Group
	for i := 0; i < workers; i++ {
		workerID := i
		pool.Go(func() error {
			return r.worker(runCtx, workerID)
		})
	}

	r.wg.Wait()
	close(r.finished)
	if err := pool.Wait(); err != nil {
		logger.Error("Execution stopped.", "error", err)
		return err
	}
	logger.Debug("All nodes settled.", "executed", r.executed.Load())
	return nil
}

// abort cancels the run and settles every unsettled task as aborted with
// cause.
func (r *run) abort(cause error) {
	r.cancel()
	for _, t := range r.tasks {
		t.settle(&r.wg, node.Aborted, cause)
	}
}

// propagate settles every transitive dependent of t that has not settled
// yet. Dependents of a failed node are skipped; dependents of an aborted
// node are aborted with the same cause.
func (r *run) propagate(ctx context.Context, t *task, s node.State, cause error) error {
	logger := ctxlog.FromContext(ctx)
	dependents, err := r.graph.Dependents(t.node.ID())
	if err != nil {
		return fmt.Errorf("dependents of %s: %w", t.node.ID(), err)
	}
	for _, dn := range dependents {
		dependent := r.tasks[dn.ID()]
		depErr := cause
		if s == node.Skipped {
			depErr = &SkippedError{NodeID: dn.ID(), Upstream: t.node.ID()}
		}
		if dependent.settle(&r.wg, s, depErr) {
			if s == node.Skipped {
				logger.Warn("Skipping dependent node due to upstream failure.", "nodeID", dn.ID(), "dependency", t.node.ID())
			}
			if err := r.propagate(ctx, dependent, s, cause); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *run) recordFailure(f *NodeExecutionFailure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, f)
}

// report assembles the outcome once every task is settled. stopped is the
// error execute returned.
func (r *run) report(ctx context.Context, stopped error) (*Report, error) {
	rep := &Report{
		States:    make(map[nodeid.ID]node.State, len(r.tasks)),
		Errors:    make(map[nodeid.ID]error),
		Failures:  append([]*NodeExecutionFailure(nil), r.failures...),
		Executed:  int(r.executed.Load()),
		CacheHits: int(r.cacheHits.Load()),
	}

	unfinished := 0
	for id, t := range r.tasks {
		st := t.getState()
		rep.States[id] = st
		if st != node.Done {
			unfinished++
			if t.err != nil {
				rep.Errors[id] = t.err
			}
		}
	}

	allRootsDone := true
	for _, root := range r.graph.Roots() {
		if r.tasks[root.ID()].getState() != node.Done {
			allRootsDone = false
		}
	}
	for _, root := range r.roots {
		v, _ := r.results.Load(root.ID())
		rep.Values = append(rep.Values, v)
	}
	if allRootsDone {
		return rep, nil
	}

	if stopped != nil {
		return rep, &SchedulerAbortedError{Cause: stopped, Unfinished: unfinished}
	}
	if len(rep.Failures) > 0 {
		return rep, rep.Failures[0]
	}
	cause := ctx.Err()
	if cause == nil {
		cause = context.Canceled
	}
	return rep, &SchedulerAbortedError{Cause: cause, Unfinished: unfinished}
}
