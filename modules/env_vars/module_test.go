package env_vars

import (
	"context"
	"testing"

	"github.com/specialistvlad/lazygrid/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func call(t *testing.T, name string, args ...any) (any, error) {
	t.Helper()
	op, err := registry.New(&Module{}).Lookup(name)
	require.NoError(t, err)
	return op.Call(context.Background(), args)
}

func TestEnv(t *testing.T) {
	t.Setenv("LAZYGRID_TEST_VAR", "hello")

	got, err := call(t, "env", "LAZYGRID_TEST_VAR")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	got, err = call(t, "env", "LAZYGRID_TEST_MISSING", int64(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), got)

	_, err = call(t, "env", "LAZYGRID_TEST_MISSING")
	require.ErrorIs(t, err, ErrUnset)

	_, err = call(t, "env", 1)
	require.Error(t, err)
}

func TestEnvAll(t *testing.T) {
	t.Setenv("LAZYGRID_TEST_VAR", "a=b")

	got, err := call(t, "env_all")
	require.NoError(t, err)
	all, ok := got.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "a=b", all["LAZYGRID_TEST_VAR"])
}
