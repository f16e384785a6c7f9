package lazy_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/lazygrid/internal/testutil"
	"github.com/specialistvlad/lazygrid/lazy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_IncAddScenario(t *testing.T) {
	inc := lazy.Defer(func(n int) int { return n + 1 })
	add := lazy.Defer(func(a, b int) int { return a + b })

	x := inc.Call(1)
	y := inc.Call(2)
	z := add.Call(x, y)

	got, err := lazy.Execute(context.Background(), z)
	require.NoError(t, err)
	assert.Equal(t, 5, got)

	// add(inc(1), inc(1)) == 4
	four, err := lazy.Typed[int](lazy.Execute(context.Background(), add.Call(inc.Call(1), inc.Call(1))))
	require.NoError(t, err)
	assert.Equal(t, 4, four)
}

func TestDefer_BuildingHasNoSideEffects(t *testing.T) {
	var calls atomic.Int32
	inc := lazy.Defer(func(n int) int {
		calls.Add(1)
		return n + 1
	})

	v := inc.Call(1)
	_ = inc.Call(v)
	_, err := lazy.Describe(v)
	require.NoError(t, err)

	assert.Equal(t, int32(0), calls.Load())
}

func TestExecute_SharedAncestorRunsOnce(t *testing.T) {
	c := testutil.NewCounter()
	load := lazy.DeferNamed("load", func() []int {
		c.Hit("load")
		return []int{1, 2, 3}
	})
	data := load.Call()
	first := data.Index(0)
	last := data.Index(-1)
	total := lazy.Sum(first, last, data.Index(1))

	got, err := lazy.Execute(context.Background(), total, lazy.WithParallelism(3))
	require.NoError(t, err)
	assert.Equal(t, 6, got)
	assert.Equal(t, 1, c.Count("load"))
}

func TestExecute_FailingAncestorStopsDescendant(t *testing.T) {
	var bCalls atomic.Int32
	boom := errors.New("boom")
	a := lazy.DeferNamed("a", func() (int, error) { return 0, boom }).Call()
	b := lazy.DeferNamed("b", func(n int) int {
		bCalls.Add(1)
		return n
	}).Call(a)

	_, err := lazy.Execute(context.Background(), b)
	require.Error(t, err)

	var failure *lazy.NodeExecutionFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, a.ID(), failure.NodeID)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(0), bCalls.Load())
}

func TestExecute_CancellationStopsNewStarts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var started atomic.Int32
	step := lazy.DeferNamed("step", func(ctx context.Context, n int) (int, error) {
		started.Add(1)
		if n == 0 {
			cancel()
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(time.Second):
		}
		return n + 1, nil
	})

	v := step.Call(0)
	for i := 0; i < 5; i++ {
		v = step.Call(v)
	}

	_, err := lazy.Execute(ctx, v, lazy.WithParallelism(2))
	var aborted *lazy.SchedulerAbortedError
	require.ErrorAs(t, err, &aborted)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), started.Load(), "no node may start after cancellation")
}

func TestNewGraph_CycleIsConstructionError(t *testing.T) {
	g := lazy.NewGraph()
	id := lazy.DeferNamed("id", func(v any) any { return v })
	require.NoError(t, g.Define("a", id, lazy.Key("b")))
	require.NoError(t, g.Define("b", id, lazy.Key("a")))

	_, err := g.Value("a")
	var cycleErr *lazy.GraphCycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.ErrorIs(t, err, lazy.ErrCycle)
	assert.Equal(t, "cycle detected in dependency graph: a -> b -> a", err.Error())
}

func TestExecuteMany(t *testing.T) {
	c := testutil.NewCounter()
	base := lazy.DeferNamed("base", func() int {
		c.Hit("base")
		return 10
	}).Call()

	values, err := lazy.ExecuteMany(context.Background(), []*lazy.Value{base.Add(1), base.Mul(2), base})
	require.NoError(t, err)
	assert.Equal(t, []any{11, 20, 10}, values)
	assert.Equal(t, 1, c.Count("base"))
}

func TestRun_ReportsEveryFailure(t *testing.T) {
	fail := func(name string) *lazy.Value {
		return lazy.DeferNamed(name, func() (int, error) { return 0, errors.New(name) }).Call()
	}
	joined := lazy.Sum(fail("left"), fail("right"))

	rep, err := lazy.Run(context.Background(), []*lazy.Value{joined}, lazy.WithContinueOnFailure(true))
	require.Error(t, err)
	assert.Len(t, rep.Failures, 2)
}

func TestWithStore_ReusesAcrossExecutions(t *testing.T) {
	c := testutil.NewCounter()
	v := lazy.DeferNamed("expensive", func() int {
		c.Hit("expensive")
		return 7
	}).Call()
	store := lazy.NewMemoryStore()

	for i := 0; i < 3; i++ {
		got, err := lazy.Execute(context.Background(), v, lazy.WithStore(store))
		require.NoError(t, err)
		assert.Equal(t, 7, got)
	}
	assert.Equal(t, 1, c.Count("expensive"))
}

func TestDescribe(t *testing.T) {
	g := lazy.NewGraph()
	require.NoError(t, g.Define("x", lazy.DeferNamed("inc", func(n int) int { return n + 1 }), 1))
	require.NoError(t, g.Define("y", lazy.DeferNamed("inc", func(n int) int { return n + 1 }), 2))
	require.NoError(t, g.Define("z", lazy.DeferNamed("add", func(a, b int) int { return a + b }),
		lazy.Key("x"), lazy.Key("y")))
	z, err := g.Value("z")
	require.NoError(t, err)

	d, err := lazy.Describe(z)
	require.NoError(t, err)

	want := lazy.Description{
		Roots: []string{"z"},
		Nodes: []lazy.NodeInfo{
			{ID: "x", Name: "x", Op: "inc", Args: 1, Level: 0},
			{ID: "y", Name: "y", Op: "inc", Args: 1, Level: 0},
			{ID: "z", Name: "z", Op: "add", Args: 2, Level: 1},
		},
		Edges: []lazy.Edge{
			{From: "x", To: "z"},
			{From: "y", To: "z"},
		},
	}
	if diff := cmp.Diff(want, byName(d)); diff != "" {
		t.Errorf("description mismatch (-want +got):\n%s", diff)
	}
}

// byName replaces every node id in d with the node's readable name.
func byName(d lazy.Description) lazy.Description {
	names := make(map[string]string, len(d.Nodes))
	for i, n := range d.Nodes {
		names[n.ID] = n.Name
		d.Nodes[i].ID = n.Name
	}
	for i, r := range d.Roots {
		d.Roots[i] = names[r]
	}
	for i, e := range d.Edges {
		d.Edges[i] = lazy.Edge{From: names[e.From], To: names[e.To]}
	}
	return d
}

func TestNewGraph_SameKeyInTwoGraphs(t *testing.T) {
	identity := lazy.DeferNamed("identity", func(v int) int { return v })
	value := func(n int) *lazy.Value {
		g := lazy.NewGraph()
		require.NoError(t, g.Define("x", identity, n))
		v, err := g.Value("x")
		require.NoError(t, err)
		return v
	}
	first, second := value(1), value(2)
	require.NotEqual(t, first.ID(), second.ID())
	assert.Equal(t, first.ID().Name(), second.ID().Name())

	t.Run("one execution", func(t *testing.T) {
		values, err := lazy.ExecuteMany(context.Background(), []*lazy.Value{first, second})
		require.NoError(t, err)
		assert.Equal(t, []any{1, 2}, values)
	})

	t.Run("shared store", func(t *testing.T) {
		store := lazy.NewMemoryStore()
		got, err := lazy.Execute(context.Background(), first, lazy.WithStore(store))
		require.NoError(t, err)
		assert.Equal(t, 1, got)

		got, err = lazy.Execute(context.Background(), second, lazy.WithStore(store))
		require.NoError(t, err)
		assert.Equal(t, 2, got, "a store must not hand out another graph's result")
	})
}

func TestExecute_NilValue(t *testing.T) {
	_, err := lazy.Execute(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil root")
}

func TestTyped(t *testing.T) {
	n, err := lazy.Typed[int](3, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = lazy.Typed[string](3, nil)
	var typeErr *lazy.TypeError
	assert.ErrorAs(t, err, &typeErr)

	boom := errors.New("boom")
	_, err = lazy.Typed[int](nil, boom)
	assert.ErrorIs(t, err, boom)
}
