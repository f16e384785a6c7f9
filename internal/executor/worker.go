package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/specialistvlad/lazygrid/internal/cluster"
	"github.com/specialistvlad/lazygrid/internal/ctxlog"
	"github.com/specialistvlad/lazygrid/internal/node"
)

// worker is the core processing loop for a single concurrent worker. It
// returns an error only when the run had to be aborted.
func (r *run) worker(ctx context.Context, workerID int) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for {
		var t *task
		select {
		case t = <-r.ready:
		case <-r.finished:
			logger.Debug("Worker finished.", "workerID", workerID)
			return nil
		}
		if err := r.process(ctx, logger.With("workerID", workerID, "nodeID", t.node.ID().Short()), t); err != nil {
			r.abort(err)
			return err
		}
	}
}

// process runs one ready task and settles it.
func (r *run) process(ctx context.Context, logger *slog.Logger, t *task) error {
	ctx = ctxlog.WithLogger(ctx, logger)

	if err := ctx.Err(); err != nil {
		if t.settle(&r.wg, node.Aborted, err) {
			logger.Debug("Context canceled, skipping node execution.")
			return r.propagate(ctx, t, node.Aborted, err)
		}
		return nil
	}

	logger.Debug("Worker picked up node for execution.")
	t.state.Store(int32(node.Running))

	value, err := r.runNode(ctx, t)
	if err == nil {
		err = r.results.Store(t.node.ID(), value)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && isContextError(err) {
			logger.Debug("Node abandoned after cancellation.", "error", err)
			t.settle(&r.wg, node.Aborted, ctxErr)
			return r.propagate(ctx, t, node.Aborted, ctxErr)
		}
		failure := &NodeExecutionFailure{NodeID: t.node.ID(), Op: t.node.Name(), Err: err}
		logger.Error("Node execution failed.", "error", err)
		r.recordFailure(failure)
		t.settle(&r.wg, node.Failed, failure)
		if !r.exec.continueOnFailure {
			r.cancel()
		}
		return r.propagate(ctx, t, node.Skipped, failure)
	}

	logger.Debug("Node execution succeeded.")
	dependents, err := r.graph.Dependents(t.node.ID())
	if err != nil {
		return fmt.Errorf("dependents of %s: %w", t.node.ID(), err)
	}
	// Dependents are queued before t settles so the run cannot finish with
	// a push still pending.
	for _, dn := range dependents {
		dependent := r.tasks[dn.ID()]
		if dependent.pending.Add(-1) == 0 {
			logger.Debug("Unlocking dependent node.", "dependentID", dn.ID().Short())
			r.ready <- dependent
		}
	}
	t.settle(&r.wg, node.Done, nil)
	return nil
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// runNode resolves the node's arguments from the result table and runs it on
// the cluster, consulting the optional store first.
func (r *run) runNode(ctx context.Context, t *task) (any, error) {
	logger := ctxlog.FromContext(ctx)
	id := t.node.ID()

	if store := r.exec.store; store != nil {
		v, ok, err := store.Get(ctx, id)
		if err != nil {
			logger.Warn("Result store lookup failed, computing node.", "nodeID", id, "error", err)
		} else if ok {
			r.cacheHits.Add(1)
			return v, nil
		}
	}

	args, err := node.ResolveAll(t.node.Args(), r.results.Load)
	if err != nil {
		return nil, err
	}

	r.executed.Add(1)
	h, err := r.exec.cluster.Submit(ctx, cluster.Task{NodeID: id, Op: t.node.Op(), Args: args})
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	value, err := r.exec.cluster.Await(r.parent, h)
	if err != nil {
		return nil, err
	}

	if store := r.exec.store; store != nil {
		if err := store.Set(ctx, id, value); err != nil {
			logger.Warn("Failed to store node result.", "nodeID", id, "error", err)
		}
	}
	return value, nil
}
