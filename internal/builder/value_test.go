package builder

import (
	"context"
	"testing"

	"github.com/specialistvlad/lazygrid/internal/executor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct {
	Name string
	Tags []string
}

func TestCombinators(t *testing.T) {
	pair := Defer("pair", func() []int { return []int{3, 4} })
	who := Defer("who", func() user { return user{Name: "ada", Tags: []string{"x", "y"}} })
	table := Defer("table", func() map[string]int { return map[string]int{"k": 9} })

	testCases := []struct {
		name string
		v    *Value
		want any
	}{
		{"index", pair.Call().Index(1), 4},
		{"index by value", pair.Call().Index(Const(0)), 3},
		{"attr", who.Call().Attr("Name"), "ada"},
		{"attr then index", who.Call().Attr("Tags").Index(-1), "y"},
		{"map index", table.Call().Index("k"), 9},
		{"add", Const(2).Add(3), 5},
		{"sub", Const(2).Sub(3), -1},
		{"mul", Const(2).Mul(2.5), 5.0},
		{"div", Const(9).Div(Const(3)), 3},
		{"neg", Const(4).Neg(), -4},
		{"package add", Add(1, Const(1)), 2},
		{"package sub", Sub(Const(10), 4), 6},
		{"package mul", Mul(3, 3), 9},
		{"package div", Div(1.0, 4), 0.25},
		{"sum", Sum(1, Const(2), pair.Call().Index(0)), 6},
		{"empty sum", Sum(), 0},
		{"then", Const(3).Then("square", func(n, m int) int { return n*m + 1 }, 3), 10},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, run(t, tc.v))
		})
	}
}

func TestCombinators_Errors(t *testing.T) {
	pair := Defer("pair", func() []int { return []int{3, 4} })

	for name, v := range map[string]*Value{
		"out of range":   pair.Call().Index(5),
		"missing attr":   pair.Call().Attr("Nope"),
		"divide by zero": Div(1, 0),
		"not numeric":    Add("a", 1),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := executor.New().Execute(context.Background(), v.Node())
			var failure *executor.NodeExecutionFailure
			require.ErrorAs(t, err, &failure)
		})
	}
}

func TestValue_Accessors(t *testing.T) {
	v := Const(1)
	assert.Equal(t, v.Node().ID(), v.ID())
	assert.Equal(t, "const", v.Node().Name())
	assert.Contains(t, v.String(), "const")

	nodes := Nodes(v, nil)
	require.Len(t, nodes, 2)
	assert.Same(t, v.Node(), nodes[0])
	assert.Nil(t, nodes[1])
}
