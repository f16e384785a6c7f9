package testutil

import (
	"sync"
	"time"
)

// ExecutionRecord holds the start and end time of one invocation.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// Counter records how often, and when, named operations were invoked.
// It is safe for concurrent use from node bodies.
type Counter struct {
	mu      sync.Mutex
	calls   map[string]int
	records map[string][]ExecutionRecord
	order   []string
}

// NewCounter creates an empty counter.
func NewCounter() *Counter {
	return &Counter{
		calls:   make(map[string]int),
		records: make(map[string][]ExecutionRecord),
	}
}

// Hit records one invocation of name.
func (c *Counter) Hit(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[name]++
	c.order = append(c.order, name)
}

// Track records an invocation of name that ran from start until now.
func (c *Counter) Track(name string, start time.Time) {
	end := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[name]++
	c.order = append(c.order, name)
	c.records[name] = append(c.records[name], ExecutionRecord{Start: start, End: end})
}

// Count returns the number of invocations of name.
func (c *Counter) Count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[name]
}

// Total returns the number of invocations across all names.
func (c *Counter) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Order returns the names in invocation order.
func (c *Counter) Order() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.order...)
}

// Records returns the timing records collected for name by Track.
func (c *Counter) Records(name string) []ExecutionRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ExecutionRecord(nil), c.records[name]...)
}

// Overlapped reports whether the two records ran concurrently.
func Overlapped(a, b ExecutionRecord) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}
