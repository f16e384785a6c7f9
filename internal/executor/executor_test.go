package executor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/specialistvlad/lazygrid/internal/cache"
	"github.com/specialistvlad/lazygrid/internal/graph"
	"github.com/specialistvlad/lazygrid/internal/node"
	"github.com/specialistvlad/lazygrid/internal/nodeid"
	"github.com/specialistvlad/lazygrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countedOp wraps fn so that every invocation is recorded under name.
func countedOp(c *testutil.Counter, name string, fn func(args []any) (any, error)) node.Op {
	return node.NewOp(name, func(_ context.Context, args []any) (any, error) {
		c.Hit(name)
		return fn(args)
	})
}

func incOp(c *testutil.Counter) node.Op {
	return countedOp(c, "inc", func(args []any) (any, error) {
		return args[0].(int) + 1, nil
	})
}

func addOp(c *testutil.Counter) node.Op {
	return countedOp(c, "add", func(args []any) (any, error) {
		return args[0].(int) + args[1].(int), nil
	})
}

func lit(v any) node.Arg { return node.Literal{Value: v} }

func ref(n *node.Node) node.Arg { return node.Ref{Node: n} }

func newNode(op node.Op, args ...node.Arg) *node.Node {
	return node.New(nodeid.New(op.Name()), op, args...)
}

func TestExecute_IncAdd(t *testing.T) {
	c := testutil.NewCounter()
	x := newNode(incOp(c), lit(1))
	y := newNode(incOp(c), lit(2))
	z := newNode(addOp(c), ref(x), ref(y))

	assert.Equal(t, 0, c.Total(), "building nodes must not invoke operations")

	got, err := New(WithParallelism(2)).Execute(context.Background(), z)
	require.NoError(t, err)
	assert.Equal(t, 5, got)
	assert.Equal(t, 2, c.Count("inc"))
	assert.Equal(t, 1, c.Count("add"))
}

func TestExecute_SharedNodeComputedOnce(t *testing.T) {
	c := testutil.NewCounter()
	shared := newNode(incOp(c), lit(1))
	left := newNode(incOp(c), ref(shared))
	right := newNode(incOp(c), ref(shared))
	sum := newNode(addOp(c), ref(left), ref(right))

	got, err := New(WithParallelism(4)).Execute(context.Background(), sum)
	require.NoError(t, err)
	assert.Equal(t, 6, got)
	assert.Equal(t, 3, c.Count("inc"), "the shared node must run exactly once")
}

func TestExecute_SameNodeTwiceAsArgument(t *testing.T) {
	c := testutil.NewCounter()
	x := newNode(incOp(c), lit(1))
	double := newNode(addOp(c), ref(x), ref(x))

	got, err := New().Execute(context.Background(), double)
	require.NoError(t, err)
	assert.Equal(t, 4, got)
	assert.Equal(t, 1, c.Count("inc"))
}

func TestExecute_OnlyAncestorsRun(t *testing.T) {
	c := testutil.NewCounter()
	x := newNode(incOp(c), lit(1))
	_ = newNode(addOp(c), ref(x), lit(10))

	got, err := New().Execute(context.Background(), x)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
	assert.Equal(t, 0, c.Count("add"), "nodes that are not ancestors of the root must not run")
}

func TestExecute_FailureStopsDescendants(t *testing.T) {
	c := testutil.NewCounter()
	boom := errors.New("boom")
	a := newNode(countedOp(c, "fail", func([]any) (any, error) { return nil, boom }))
	b := newNode(incOp(c), ref(a))

	rep, err := New().Run(context.Background(), b)
	require.Error(t, err)

	var failure *NodeExecutionFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, a.ID(), failure.NodeID)
	assert.Equal(t, "fail", failure.Op)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, 0, c.Count("inc"), "a descendant of a failed node must never be invoked")
	assert.Equal(t, node.Failed, rep.States[a.ID()])
	assert.Equal(t, node.Skipped, rep.States[b.ID()])

	var skipped *SkippedError
	require.ErrorAs(t, rep.Errors[b.ID()], &skipped)
	assert.Equal(t, a.ID(), skipped.Upstream)
	assert.Nil(t, rep.Values[0])
}

func TestExecute_PanicBecomesFailure(t *testing.T) {
	a := newNode(node.NewOp("panics", func(context.Context, []any) (any, error) {
		panic("kaboom")
	}))

	_, err := New().Execute(context.Background(), a)
	var failure *NodeExecutionFailure
	require.ErrorAs(t, err, &failure)
	assert.Contains(t, failure.Error(), "kaboom")
}

func TestExecute_ContinueOnFailureCollectsAllFailures(t *testing.T) {
	c := testutil.NewCounter()
	fail := func(name string) *node.Node {
		return newNode(countedOp(c, name, func([]any) (any, error) {
			return nil, errors.New(name + " failed")
		}))
	}
	a := fail("a")
	b := fail("b")
	ok := newNode(incOp(c), lit(1))
	join := newNode(countedOp(c, "join", func(args []any) (any, error) { return len(args), nil }),
		ref(a), ref(b), ref(ok))

	rep, err := New(WithContinueOnFailure(true), WithParallelism(1)).Run(context.Background(), join)
	require.Error(t, err)
	assert.Len(t, rep.Failures, 2)
	assert.Equal(t, 1, c.Count("inc"), "independent branches keep running")
	assert.Equal(t, 0, c.Count("join"))
	assert.Equal(t, 2, rep.Count(node.Failed))
	assert.Equal(t, 1, rep.Count(node.Skipped))
	assert.Equal(t, 1, rep.Count(node.Done))
}

func TestExecute_ConcurrentFailuresAllReported(t *testing.T) {
	for i := 0; i < 50; i++ {
		var barrier sync.WaitGroup
		barrier.Add(2)
		fail := func(name string) *node.Node {
			return newNode(node.NewOp(name, func(context.Context, []any) (any, error) {
				barrier.Done()
				barrier.Wait()
				return nil, errors.New(name + " failed")
			}))
		}
		a := fail("a")
		b := fail("b")
		join := newNode(node.NewOp("join", func(_ context.Context, args []any) (any, error) {
			return len(args), nil
		}), ref(a), ref(b))

		rep, err := New(WithParallelism(2)).Run(context.Background(), join)
		var failure *NodeExecutionFailure
		require.ErrorAs(t, err, &failure)
		require.Len(t, rep.Failures, 2, "iteration %d", i)
		assert.Equal(t, 2, rep.Count(node.Failed))
		assert.Equal(t, 1, rep.Count(node.Skipped))
		assert.Equal(t, 0, rep.Count(node.Aborted))
	}
}

func TestExecute_FailFastAbortsSiblingThatHonorsContext(t *testing.T) {
	boom := errors.New("boom")
	started := make(chan struct{})
	a := newNode(node.NewOp("fail", func(context.Context, []any) (any, error) {
		<-started
		return nil, boom
	}))
	b := newNode(node.NewOp("wait", func(ctx context.Context, _ []any) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}))
	join := newNode(node.NewOp("join", func(_ context.Context, args []any) (any, error) {
		return len(args), nil
	}), ref(a), ref(b))

	rep, err := New(WithParallelism(2)).Run(context.Background(), join)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, rep.Failures, 1)
	assert.Equal(t, node.Failed, rep.States[a.ID()])
	assert.Equal(t, node.Aborted, rep.States[b.ID()])
	assert.ErrorIs(t, rep.Errors[b.ID()], context.Canceled)
}

func TestRun_AbortOnInconsistentGraph(t *testing.T) {
	ctx := context.Background()
	c := testutil.NewCounter()
	x := newNode(incOp(c), lit(1))
	y := newNode(incOp(c), ref(x))
	g, err := graph.Collect(y)
	require.NoError(t, err)

	r := newRun(New(), g, []*node.Node{y})
	r.parent = ctx
	r.wg.Add(len(r.tasks))

	stray := &task{node: newNode(incOp(c), lit(5))}
	stopped := r.process(ctx, slog.Default(), stray)
	require.Error(t, stopped)
	assert.Contains(t, stopped.Error(), "node not found")

	r.abort(stopped)
	r.wg.Wait()

	rep, err := r.report(ctx, stopped)
	var aborted *SchedulerAbortedError
	require.ErrorAs(t, err, &aborted)
	assert.ErrorIs(t, err, stopped)
	assert.Equal(t, 2, aborted.Unfinished)
	assert.Equal(t, node.Aborted, rep.States[x.ID()])
	assert.Equal(t, node.Aborted, rep.States[y.ID()])
}

func TestExecute_CancellationStopsNewStarts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	release := make(chan struct{})
	var afterCancel atomic.Int32

	blocker := newNode(node.NewOp("block", func(ctx context.Context, _ []any) (any, error) {
		close(started)
		<-release
		return 1, nil
	}))
	follower := newNode(node.NewOp("follow", func(context.Context, []any) (any, error) {
		afterCancel.Add(1)
		return 2, nil
	}), ref(blocker))

	done := make(chan error, 1)
	go func() {
		_, err := New(WithParallelism(2)).Execute(ctx, follower)
		done <- err
	}()

	<-started
	cancel()

	var err error
	select {
	case err = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("execute did not return after cancellation")
	}
	close(release)

	var aborted *SchedulerAbortedError
	require.ErrorAs(t, err, &aborted)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, aborted.Unfinished)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), afterCancel.Load(), "no node may start after cancellation")
}

func TestExecute_CancelledBeforeStart(t *testing.T) {
	c := testutil.NewCounter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	x := newNode(incOp(c), lit(1))
	_, err := New().Execute(ctx, x)

	var aborted *SchedulerAbortedError
	require.ErrorAs(t, err, &aborted)
	assert.Equal(t, 0, c.Total())
}

func TestExecute_ParallelismBound(t *testing.T) {
	var running, peak atomic.Int32
	op := node.NewOp("sleep", func(context.Context, []any) (any, error) {
		now := running.Add(1)
		for {
			old := peak.Load()
			if now <= old || peak.CompareAndSwap(old, now) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		return 0, nil
	})

	var leaves []node.Arg
	for i := 0; i < 8; i++ {
		leaves = append(leaves, ref(newNode(op)))
	}
	root := newNode(node.NewOp("collect", func(_ context.Context, args []any) (any, error) {
		return len(args), nil
	}), leaves...)

	got, err := New(WithParallelism(2)).Execute(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 8, got)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestExecute_IndependentSiblingsRunConcurrently(t *testing.T) {
	c := testutil.NewCounter()
	sleeper := func(name string) *node.Node {
		return newNode(node.NewOp(name, func(context.Context, []any) (any, error) {
			start := time.Now()
			time.Sleep(50 * time.Millisecond)
			c.Track(name, start)
			return nil, nil
		}))
	}
	a := sleeper("a")
	b := sleeper("b")

	_, err := New(WithParallelism(2)).ExecuteMany(context.Background(), a, b)
	require.NoError(t, err)
	require.Len(t, c.Records("a"), 1)
	require.Len(t, c.Records("b"), 1)
	assert.True(t, testutil.Overlapped(c.Records("a")[0], c.Records("b")[0]))
}

func TestExecuteMany_SharesGraph(t *testing.T) {
	c := testutil.NewCounter()
	x := newNode(incOp(c), lit(1))
	y := newNode(incOp(c), ref(x))
	z := newNode(addOp(c), ref(x), lit(5))

	values, err := New().ExecuteMany(context.Background(), y, z, y)
	require.NoError(t, err)
	assert.Equal(t, []any{3, 7, 3}, values)
	assert.Equal(t, 2, c.Count("inc"))
}

func TestExecute_ContainerArguments(t *testing.T) {
	c := testutil.NewCounter()
	x := newNode(incOp(c), lit(1))
	y := newNode(incOp(c), lit(2))
	pack := newNode(node.NewOp("pack", func(_ context.Context, args []any) (any, error) {
		return args, nil
	}), node.List{ref(x), lit("k")}, node.Map{"y": ref(y)})

	got, err := New().Execute(context.Background(), pack)
	require.NoError(t, err)
	assert.Equal(t, []any{[]any{2, "k"}, map[string]any{"y": 3}}, got)
}

func TestExecute_StoreReusesResults(t *testing.T) {
	c := testutil.NewCounter()
	store := cache.NewMemoryStore()
	x := newNode(incOp(c), lit(1))
	y := newNode(incOp(c), ref(x))
	exec := New(WithStore(store))

	rep, err := exec.Run(context.Background(), y)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Executed)
	assert.Equal(t, 0, rep.CacheHits)

	rep, err = exec.Run(context.Background(), y)
	require.NoError(t, err)
	assert.Equal(t, []any{3}, rep.Values)
	assert.Equal(t, 0, rep.Executed)
	assert.Equal(t, 2, rep.CacheHits)
	assert.Equal(t, 2, c.Count("inc"))
}

func TestExecute_NodesReusableAcrossExecutions(t *testing.T) {
	c := testutil.NewCounter()
	x := newNode(incOp(c), lit(1))
	exec := New()

	for i := 0; i < 3; i++ {
		got, err := exec.Execute(context.Background(), x)
		require.NoError(t, err)
		assert.Equal(t, 2, got)
	}
	assert.Equal(t, 3, c.Count("inc"))
}

func TestRun_NilRoot(t *testing.T) {
	_, err := New().Run(context.Background(), nil)
	assert.Error(t, err)
}

func TestNew_Defaults(t *testing.T) {
	e := New(WithParallelism(0))
	assert.Greater(t, e.Parallelism(), 0)
	assert.Equal(t, 3, New(WithParallelism(3)).Parallelism())
}
