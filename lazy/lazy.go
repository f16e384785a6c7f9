package lazy

import (
	"context"

	"github.com/specialistvlad/lazygrid/internal/builder"
	"github.com/specialistvlad/lazygrid/internal/cache"
	"github.com/specialistvlad/lazygrid/internal/cluster"
	"github.com/specialistvlad/lazygrid/internal/executor"
	"github.com/specialistvlad/lazygrid/internal/graph"
)

type (
	// Deferred is a wrapped function; calling it records a node.
	Deferred = builder.Deferred
	// Value stands for the eventual result of a recorded node.
	Value = builder.Value
	// Graph is a keyed graph whose definitions may reference each other in
	// any order.
	Graph = builder.Keyed
	// KeyRef refers to a keyed definition.
	KeyRef = builder.KeyRef
	// Description is the serializable shape of a collected graph.
	Description = graph.Description
	// NodeInfo describes one node of a Description.
	NodeInfo = graph.NodeInfo
	// Edge is a dependency edge of a Description.
	Edge = graph.Edge
	// Report is the per-node outcome of Run.
	Report = executor.Report
	// Option configures an execution.
	Option = executor.Option
	// Cluster runs prepared tasks on behalf of the scheduler.
	Cluster = cluster.Cluster
	// Store reuses results across executions.
	Store = cache.Store

	// GraphCycleError reports a reference cycle among keyed definitions.
	GraphCycleError = graph.CycleError
	// NodeExecutionFailure wraps the error of a failed node.
	NodeExecutionFailure = executor.NodeExecutionFailure
	// SchedulerAbortedError reports a cancelled execution.
	SchedulerAbortedError = executor.SchedulerAbortedError
)

var (
	// ErrCycle is matched by every GraphCycleError.
	ErrCycle = graph.ErrCycle
	// ErrUnknownKey is returned for references to undefined keys.
	ErrUnknownKey = builder.ErrUnknownKey
	// ErrDuplicateKey is returned when a key is defined twice.
	ErrDuplicateKey = builder.ErrDuplicateKey
)

// Defer wraps fn, naming its nodes after the function.
func Defer(fn any) *Deferred {
	return builder.Defer("", fn)
}

// DeferNamed wraps fn under an explicit name.
func DeferNamed(name string, fn any) *Deferred {
	return builder.Defer(name, fn)
}

// Const returns a value that is already known.
func Const(x any) *Value { return builder.Const(x) }

// Add records a + b.
func Add(a, b any) *Value { return builder.Add(a, b) }

// Sub records a - b.
func Sub(a, b any) *Value { return builder.Sub(a, b) }

// Mul records a * b.
func Mul(a, b any) *Value { return builder.Mul(a, b) }

// Div records a / b.
func Div(a, b any) *Value { return builder.Div(a, b) }

// Sum records the sum of values.
func Sum(values ...any) *Value { return builder.Sum(values...) }

// NewGraph creates an empty keyed graph.
func NewGraph() *Graph { return builder.NewKeyed() }

// Key refers to the keyed definition k.
func Key(k string) KeyRef { return builder.Key(k) }

// WithParallelism sets the number of workers.
func WithParallelism(n int) Option { return executor.WithParallelism(n) }

// WithCluster runs node bodies on c instead of local goroutines.
func WithCluster(c Cluster) Option { return executor.WithCluster(c) }

// WithStore reuses results across executions through s.
func WithStore(s Store) Option { return executor.WithStore(s) }

// WithContinueOnFailure lets independent branches finish after a failure.
func WithContinueOnFailure(on bool) Option { return executor.WithContinueOnFailure(on) }

// NewMemoryStore creates an in-memory Store.
func NewMemoryStore() *cache.MemoryStore { return cache.NewMemoryStore() }

// Execute computes v.
func Execute(ctx context.Context, v *Value, opts ...Option) (any, error) {
	return executor.New(opts...).Execute(ctx, builder.Nodes(v)[0])
}

// ExecuteMany computes several values over one shared graph.
func ExecuteMany(ctx context.Context, values []*Value, opts ...Option) ([]any, error) {
	return executor.New(opts...).ExecuteMany(ctx, builder.Nodes(values...)...)
}

// Run computes values and reports the outcome of every node.
func Run(ctx context.Context, values []*Value, opts ...Option) (*Report, error) {
	return executor.New(opts...).Run(ctx, builder.Nodes(values...)...)
}

// Describe returns the graph needed to compute values, for rendering by an
// external tool.
func Describe(values ...*Value) (Description, error) {
	g, err := graph.Collect(builder.Nodes(values...)...)
	if err != nil {
		return Description{}, err
	}
	return g.Describe(), nil
}

// Typed converts the result of Execute to T.
func Typed[T any](v any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, &TypeError{Got: v}
	}
	return t, nil
}
