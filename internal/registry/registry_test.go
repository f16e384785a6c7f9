package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoModule struct{}

func (echoModule) Register(r *Registry) {
	r.RegisterOp("echo", &RegisteredOp{
		Fn: func(_ context.Context, args []any) (any, error) {
			return args[0], nil
		},
		MinArgs: 1,
		MaxArgs: 1,
		Doc:     "returns its argument",
	})
	r.RegisterOp("count", &RegisteredOp{
		Fn: func(_ context.Context, args []any) (any, error) {
			return len(args), nil
		},
		MaxArgs: Variadic,
	})
}

func TestRegistry_LookupAndCall(t *testing.T) {
	r := New(echoModule{})

	op, err := r.Lookup("echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", op.Name())

	got, err := op.Call(context.Background(), []any{"hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", got)

	count, err := r.Lookup("count")
	require.NoError(t, err)
	got, err = count.Call(context.Background(), []any{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 3, got)
}

func TestRegistry_ArityIsChecked(t *testing.T) {
	r := New(echoModule{})
	op, err := r.Lookup("echo")
	require.NoError(t, err)

	_, err = op.Call(context.Background(), []any{1, 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "echo: expects 1 arguments, got 2")

	assert.NoError(t, r.CheckArity("count", 0))
	assert.Error(t, r.CheckArity("echo", 0))
}

func TestRegistry_UnknownOp(t *testing.T) {
	r := New()
	_, err := r.Lookup("missing")
	assert.True(t, errors.Is(err, ErrUnknownOp))
	assert.ErrorIs(t, r.CheckArity("missing", 1), ErrUnknownOp)
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := New(echoModule{})
	assert.Panics(t, func() { echoModule{}.Register(r) })
	assert.Panics(t, func() { r.RegisterOp("", &RegisteredOp{}) })
}

func TestRegistry_NamesAndDoc(t *testing.T) {
	r := New(echoModule{})
	assert.Equal(t, []string{"count", "echo"}, r.Names())
	assert.Equal(t, "returns its argument", r.Doc("echo"))
	assert.Empty(t, r.Doc("nope"))
}
