package executor

import (
	"fmt"

	"github.com/specialistvlad/lazygrid/internal/nodeid"
)

// NodeExecutionFailure wraps the error returned by a node's operation and
// identifies the node.
type NodeExecutionFailure struct {
	NodeID nodeid.ID
	Op     string
	Err    error
}

func (e *NodeExecutionFailure) Error() string {
	return fmt.Sprintf("node %s (%s) failed: %v", e.NodeID, e.Op, e.Err)
}

func (e *NodeExecutionFailure) Unwrap() error { return e.Err }

// SchedulerAbortedError reports an execution that was cancelled, or stopped
// on an internal error, before its roots resolved. It unwraps to the cause.
type SchedulerAbortedError struct {
	Cause      error
	Unfinished int
}

func (e *SchedulerAbortedError) Error() string {
	return fmt.Sprintf("execution aborted with %d unfinished nodes: %v", e.Unfinished, e.Cause)
}

func (e *SchedulerAbortedError) Unwrap() error { return e.Cause }

// SkippedError is recorded for a node that never ran because a dependency
// failed.
type SkippedError struct {
	NodeID   nodeid.ID
	Upstream nodeid.ID
}

func (e *SkippedError) Error() string {
	return fmt.Sprintf("skipped due to upstream failure of '%s'", e.Upstream)
}
