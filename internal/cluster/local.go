package cluster

import (
	"context"
	"fmt"
	"runtime/debug"
)

// Local runs every task on its own goroutine in this process.
type Local struct{}

// NewLocal creates a local cluster.
func NewLocal() *Local {
	return &Local{}
}

type localHandle struct {
	id    string
	done  chan struct{}
	value any
	err   error
}

func (h *localHandle) TaskID() string { return h.id }

// Submit starts the task. A panic in the operation is converted into the
// task's error.
func (l *Local) Submit(ctx context.Context, t Task) (Handle, error) {
	if t.Op == nil {
		return nil, fmt.Errorf("task %s has no operation", t.NodeID)
	}
	h := &localHandle{id: t.NodeID.String(), done: make(chan struct{})}

	go func() {
		defer close(h.done)
		defer func() {
			if r := recover(); r != nil {
				h.err = fmt.Errorf("panic in %s: %v\n%s", t.Op.Name(), r, debug.Stack())
			}
		}()
		h.value, h.err = t.Op.Call(ctx, t.Args)
	}()

	return h, nil
}

// Await waits for the task. If ctx ends first the task keeps running in the
// background and its result is dropped.
func (l *Local) Await(ctx context.Context, h Handle) (any, error) {
	lh, ok := h.(*localHandle)
	if !ok {
		return nil, ErrForeignHandle
	}
	select {
	case <-lh.done:
		return lh.value, lh.err
	case <-ctx.Done():
		// A task that has already finished reports its own outcome.
		select {
		case <-lh.done:
			return lh.value, lh.err
		default:
			return nil, ctx.Err()
		}
	}
}
