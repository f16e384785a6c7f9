// Package cluster defines where node bodies run. The scheduler talks to a
// Cluster through two calls, Submit and Await, so the same scheduling core
// works against local goroutines or a remote worker fleet.
package cluster

import (
	"context"
	"errors"

	"github.com/specialistvlad/lazygrid/internal/node"
	"github.com/specialistvlad/lazygrid/internal/nodeid"
)

// ErrForeignHandle is returned when a handle is awaited on a cluster that did
// not issue it.
var ErrForeignHandle = errors.New("handle was not issued by this cluster")

// Task is a node that is fully prepared for execution: every argument has
// been resolved to a concrete value.
type Task struct {
	// NodeID identifies the node the task was built from.
	NodeID nodeid.ID
	// Op is the operation to run.
	Op node.Op
	// Args contains the resolved argument values, in slot order.
	Args []any
}

// Handle refers to a submitted task.
type Handle interface {
	TaskID() string
}

// Cluster is the capability the executor needs from a worker pool.
//
// Retry and worker-loss policy belong to the implementation; the executor
// treats any error from Submit or Await as the node's failure.
type Cluster interface {
	// Submit hands a task over for execution and returns without waiting.
	Submit(ctx context.Context, t Task) (Handle, error)
	// Await blocks until the task finishes or ctx is done.
	Await(ctx context.Context, h Handle) (any, error)
}
