// Package env_vars provides operations that read the process environment.
package env_vars

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/specialistvlad/lazygrid/internal/ctxlog"
	"github.com/specialistvlad/lazygrid/internal/registry"
)

// ErrUnset is returned by env when the variable is missing and no default
// was given.
var ErrUnset = errors.New("environment variable not set")

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the env and env_all operations.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterOp("env", &registry.RegisteredOp{
		Fn:      onRunEnv,
		MinArgs: 1,
		MaxArgs: 2,
		Doc:     "value of an environment variable, with an optional default",
	})
	r.RegisterOp("env_all", &registry.RegisteredOp{
		Fn:      onRunEnvAll,
		MinArgs: 0,
		MaxArgs: 0,
		Doc:     "every environment variable as a map",
	})
}

func onRunEnv(ctx context.Context, args []any) (any, error) {
	name, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("variable name must be a string, got %T", args[0])
	}
	if v, ok := os.LookupEnv(name); ok {
		return v, nil
	}
	if len(args) == 2 {
		ctxlog.FromContext(ctx).Debug("Environment variable not set, using default.", "name", name)
		return args[1], nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnset, name)
}

func onRunEnvAll(_ context.Context, _ []any) (any, error) {
	all := make(map[string]any)
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 {
			all[pair[0]] = pair[1]
		}
	}
	return all, nil
}
