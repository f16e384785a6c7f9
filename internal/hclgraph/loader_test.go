package hclgraph

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/lazygrid/internal/builder"
	"github.com/specialistvlad/lazygrid/internal/executor"
	"github.com/specialistvlad/lazygrid/internal/graph"
	"github.com/specialistvlad/lazygrid/internal/ops"
	"github.com/specialistvlad/lazygrid/internal/registry"
	"github.com/specialistvlad/lazygrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, files map[string]string) (*Grid, error) {
	t.Helper()
	dir := testutil.WriteFiles(t, files)
	return NewLoader(registry.New(ops.Module{})).Load(context.Background(), dir)
}

func execute(t *testing.T, grid *Grid, names ...string) []any {
	t.Helper()
	_, values, err := grid.Targets(names...)
	require.NoError(t, err)
	got, err := executor.New().ExecuteMany(context.Background(), builder.Nodes(values...)...)
	require.NoError(t, err)
	return got
}

func TestLoad_IncAdd(t *testing.T) {
	grid, err := load(t, map[string]string{
		"main.hcl": `
			task "z" {
			  op          = "add"
			  args        = [task.x, task.y]
			  description = "the sum"
			}

			task "x" {
			  op   = "inc"
			  args = [1]
			}

			task "y" {
			  op   = "inc"
			  args = [2]
			}
		`,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"z"}, grid.Sinks())
	assert.Equal(t, []any{int64(5)}, execute(t, grid))

	task, ok := grid.Task("z")
	require.True(t, ok)
	assert.Equal(t, "add", task.Op)
	assert.Equal(t, "the sum", task.Description)
	assert.Equal(t, 2, task.Args)
	assert.Len(t, grid.Tasks(), 3)
}

func TestLoad_Expressions(t *testing.T) {
	testCases := []struct {
		name string
		hcl  string
		want any
	}{
		{
			name: "index and attribute access",
			hcl: `
				task "data" {
				  op   = "identity"
				  args = [{ items = [10, 20, 30], name = "d" }]
				}
				task "out" {
				  op   = "concat"
				  args = [task.data.name, task.data.items[1]]
				}
			`,
			want: "d20",
		},
		{
			name: "dynamic index",
			hcl: `
				task "list" {
				  op   = "identity"
				  args = [[5, 6, 7]]
				}
				task "i" {
				  op   = "len"
				  args = [[0, 0]]
				}
				task "out" {
				  op   = "identity"
				  args = [task.list[task.i]]
				}
			`,
			want: int64(7),
		},
		{
			name: "arithmetic on references",
			hcl: `
				task "x" {
				  op   = "inc"
				  args = [1]
				}
				task "out" {
				  op   = "identity"
				  args = [(task.x * 10 - 1) / 2 + -task.x]
				}
			`,
			want: int64(7),
		},
		{
			name: "references inside containers",
			hcl: `
				task "x" {
				  op   = "inc"
				  args = [1]
				}
				task "out" {
				  op   = "sum"
				  args = [[task.x, 3, 1 + 1]]
				}
			`,
			want: int64(7),
		},
		{
			name: "floats",
			hcl: `
				task "out" {
				  op   = "mul"
				  args = [1.5, 3]
				}
			`,
			want: 4.5,
		},
		{
			name: "no args",
			hcl: `
				task "out" {
				  op   = "sum"
				}
			`,
			want: 0,
		},
		{
			name: "literal index on a literal list",
			hcl: `
				task "x" {
				  op   = "inc"
				  args = [0]
				}
				task "out" {
				  op   = "identity"
				  args = [[task.x, 9][1]]
				}
			`,
			want: int64(9),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			grid, err := load(t, map[string]string{"grid.hcl": tc.hcl})
			require.NoError(t, err)
			assert.Equal(t, []any{tc.want}, execute(t, grid, "out"))
		})
	}
}

func TestLoad_MultipleFiles(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"a.hcl": `
			task "x" {
			  op   = "inc"
			  args = [1]
			}
		`,
		"nested/b.hcl": `
			task "y" {
			  op   = "add"
			  args = [task.x, 40]
			}
		`,
	})

	loader := NewLoader(registry.New(ops.Module{}))
	grid, err := loader.Load(context.Background(), filepath.Join(dir, "a.hcl"), dir)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(42)}, execute(t, grid))
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		hcl     string
		wantErr error
		contain string
	}{
		{
			name: "cycle",
			hcl: `
				task "a" {
				  op   = "identity"
				  args = [task.b]
				}
				task "b" {
				  op   = "identity"
				  args = [task.a]
				}
			`,
			wantErr: graph.ErrCycle,
			contain: "a -> b -> a",
		},
		{
			name: "unknown reference",
			hcl: `
				task "a" {
				  op   = "identity"
				  args = [task.nope]
				}
			`,
			wantErr: builder.ErrUnknownKey,
		},
		{
			name: "unknown op",
			hcl: `
				task "a" {
				  op = "explode"
				}
			`,
			wantErr: registry.ErrUnknownOp,
		},
		{
			name: "wrong arity",
			hcl: `
				task "a" {
				  op   = "add"
				  args = [1]
				}
			`,
			contain: "expects 2 arguments, got 1",
		},
		{
			name: "duplicate task",
			hcl: `
				task "a" {
				  op   = "identity"
				  args = [1]
				}
				task "a" {
				  op   = "identity"
				  args = [2]
				}
			`,
			wantErr: builder.ErrDuplicateKey,
		},
		{
			name: "unknown variable",
			hcl: `
				task "a" {
				  op   = "identity"
				  args = [var.x]
				}
			`,
			contain: "Unknown variable",
		},
		{
			name: "args not a list",
			hcl: `
				task "a" {
				  op   = "identity"
				  args = task.b
				}
			`,
			contain: "Invalid args",
		},
		{
			name: "unsupported operator",
			hcl: `
				task "b" {
				  op   = "identity"
				  args = [true]
				}
				task "a" {
				  op   = "identity"
				  args = [task.b && false]
				}
			`,
			contain: "Unsupported expression",
		},
		{
			name: "syntax error",
			hcl: `
				task "a" {
				  op = 
			`,
			contain: "failed to parse HCL file",
		},
		{
			name: "missing op",
			hcl: `
				task "a" {
				  args = [1]
				}
			`,
			contain: "failed to decode HCL file",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := load(t, map[string]string{"grid.hcl": tc.hcl})
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)
			}
			if tc.contain != "" {
				assert.Contains(t, err.Error(), tc.contain)
			}
		})
	}
}

func TestLoad_NoFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := NewLoader(registry.New(ops.Module{})).Load(context.Background(), dir)
	assert.ErrorContains(t, err, "no .hcl files found")
}

func TestTargets_UnknownName(t *testing.T) {
	grid, err := load(t, map[string]string{
		"grid.hcl": `
			task "x" {
			  op   = "inc"
			  args = [1]
			}
		`,
	})
	require.NoError(t, err)

	_, _, err = grid.Targets("nope")
	assert.ErrorIs(t, err, builder.ErrUnknownKey)

	names, values, err := grid.Targets()
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, names)
	assert.Len(t, values, 1)
}
