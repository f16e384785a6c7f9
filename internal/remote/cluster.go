package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/specialistvlad/lazygrid/internal/cluster"
)

var (
	// ErrDisconnected fails tasks that were pending when the connection
	// was lost, and submissions on a closed cluster.
	ErrDisconnected = errors.New("remote cluster disconnected")
	// ErrRemoteFailure wraps an error reported by the fleet.
	ErrRemoteFailure = errors.New("remote task failed")
)

// transport is the part of the socket.io client the cluster uses.
type transport interface {
	emit(event string, payload any)
	close()
}

type handle struct {
	id    string
	node  string
	done  chan struct{}
	once  sync.Once
	value any
	err   error
}

func (h *handle) TaskID() string { return h.id }

func (h *handle) finish(value any, err error) {
	h.once.Do(func() {
		h.value, h.err = value, err
		close(h.done)
	})
}

// Cluster sends tasks to a socket.io worker fleet.
type Cluster struct {
	cfg    Config
	logger *slog.Logger
	tr     transport

	mu      sync.Mutex
	pending map[string]*handle
	closed  bool
}

var _ cluster.Cluster = (*Cluster)(nil)

func newCluster(cfg Config, tr transport, logger *slog.Logger) *Cluster {
	return &Cluster{
		cfg:     cfg.withDefaults(),
		logger:  logger,
		tr:      tr,
		pending: make(map[string]*handle),
	}
}

// Submit emits the task and registers it as pending.
func (c *Cluster) Submit(ctx context.Context, t cluster.Task) (cluster.Handle, error) {
	if t.Op == nil {
		return nil, fmt.Errorf("task %s has no operation", t.NodeID)
	}
	h := &handle{id: uuid.NewString(), node: t.NodeID.String(), done: make(chan struct{})}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrDisconnected
	}
	c.pending[h.id] = h
	c.mu.Unlock()

	c.logger.Debug("Submitting task to remote cluster.", "taskID", h.id, "nodeID", h.node, "op", t.Op.Name())
	c.tr.emit(c.cfg.SubmitEvent, &submitMessage{
		TaskID: h.id,
		Node:   h.node,
		Op:     t.Op.Name(),
		Args:   t.Args,
	})
	return h, nil
}

// Await waits for the task's result event. If ctx ends first the fleet is
// asked to cancel the task.
func (c *Cluster) Await(ctx context.Context, ch cluster.Handle) (any, error) {
	h, ok := ch.(*handle)
	if !ok {
		return nil, cluster.ErrForeignHandle
	}

	select {
	case <-h.done:
		return h.value, h.err
	case <-ctx.Done():
		if c.forget(h.id) {
			c.logger.Debug("Cancelling remote task.", "taskID", h.id, "nodeID", h.node)
			c.tr.emit(c.cfg.CancelEvent, &cancelMessage{TaskID: h.id})
		}
		return nil, ctx.Err()
	}
}

// Pending returns the number of tasks awaiting a result.
func (c *Cluster) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Close disconnects and fails every pending task.
func (c *Cluster) Close() error {
	c.failAll(ErrDisconnected)
	c.tr.close()
	return nil
}

func (c *Cluster) forget(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[id]
	delete(c.pending, id)
	return ok
}

// onResult handles a result event.
func (c *Cluster) onResult(data ...any) {
	if len(data) == 0 {
		c.logger.Warn("Ignoring result event without payload.")
		return
	}
	msg, err := decodeResult(data[0])
	if err != nil {
		c.logger.Warn("Ignoring malformed result event.", "error", err)
		return
	}

	c.mu.Lock()
	h, ok := c.pending[msg.TaskID]
	delete(c.pending, msg.TaskID)
	c.mu.Unlock()
	if !ok {
		c.logger.Debug("Ignoring result for unknown or abandoned task.", "taskID", msg.TaskID)
		return
	}

	if msg.Error != "" {
		h.finish(nil, fmt.Errorf("%w: %s", ErrRemoteFailure, msg.Error))
		return
	}
	h.finish(msg.Value, nil)
}

// onDisconnect handles loss of the connection.
func (c *Cluster) onDisconnect(reason ...any) {
	c.logger.Warn("Remote cluster disconnected.", "reason", fmt.Sprint(reason...))
	c.failAll(ErrDisconnected)
}

func (c *Cluster) failAll(err error) {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[string]*handle)
	c.closed = true
	c.mu.Unlock()

	for _, h := range pending {
		h.finish(nil, err)
	}
}
