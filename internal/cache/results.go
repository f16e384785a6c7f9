package cache

import (
	"errors"
	"fmt"
	"sync"

	"github.com/specialistvlad/lazygrid/internal/nodeid"
)

// ErrAlreadyStored is returned when a node's result slot is written twice.
var ErrAlreadyStored = errors.New("result already stored")

// Results is a thread-safe, write-once result table for one execution.
type Results struct {
	mu     sync.RWMutex
	values map[nodeid.ID]any
}

// NewResults creates an empty result table.
func NewResults() *Results {
	return &Results{values: make(map[nodeid.ID]any)}
}

// Store records the result of a node. A second write for the same node is
// rejected and leaves the first value in place.
func (r *Results) Store(id nodeid.ID, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.values[id]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyStored, id)
	}
	r.values[id] = value
	return nil
}

// Load retrieves the result of a node.
func (r *Results) Load(id nodeid.ID) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[id]
	return v, ok
}
