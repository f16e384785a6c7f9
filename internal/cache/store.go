package cache

import (
	"context"
	"sync"

	"github.com/specialistvlad/lazygrid/internal/nodeid"
)

// Store keeps node results between executions. A hit means the node is not
// run again. Keys are node ids, so two distinct nodes never share an entry
// even when they have the same name.
type Store interface {
	// Get reports the stored result for id. A miss is (nil, false, nil).
	// The executor treats an error as a miss and computes the node.
	Get(ctx context.Context, id nodeid.ID) (any, bool, error)

	// Set records the result of a successfully computed node.
	Set(ctx context.Context, id nodeid.ID, value any) error
}

// MemoryStore is a Store held in process memory for its whole lifetime.
type MemoryStore struct {
	mu      sync.RWMutex
	results map[nodeid.ID]any
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{results: make(map[nodeid.ID]any)}
}

func (m *MemoryStore) Get(_ context.Context, id nodeid.ID) (any, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.results[id]
	return v, ok, nil
}

// Set overwrites any earlier result for id.
func (m *MemoryStore) Set(_ context.Context, id nodeid.ID, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[id] = value
	return nil
}
