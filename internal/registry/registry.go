package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/specialistvlad/lazygrid/internal/node"
)

// ErrUnknownOp is returned by Lookup for a name nobody registered.
var ErrUnknownOp = errors.New("unknown operation")

// Variadic is the MaxArgs value of an operation without an upper bound.
const Variadic = -1

// Module is the interface that all operation providers implement.
type Module interface {
	Register(r *Registry)
}

// RegisteredOp holds a compiled operation and its accepted argument count.
type RegisteredOp struct {
	Fn      node.Func
	MinArgs int
	MaxArgs int
	Doc     string
}

// Registry holds the registered operations of one application instance.
type Registry struct {
	ops map[string]*RegisteredOp
}

// New creates a registry and registers every given module into it.
func New(modules ...Module) *Registry {
	r := &Registry{ops: make(map[string]*RegisteredOp)}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// RegisterOp registers a Go function under name.
func (r *Registry) RegisterOp(name string, op *RegisteredOp) {
	if name == "" || op == nil || op.Fn == nil {
		panic(fmt.Sprintf("invalid registration for operation '%s'", name))
	}
	if op.MaxArgs != Variadic && op.MaxArgs < op.MinArgs {
		panic(fmt.Sprintf("operation '%s' has MaxArgs %d below MinArgs %d", name, op.MaxArgs, op.MinArgs))
	}
	if _, exists := r.ops[name]; exists {
		panic(fmt.Sprintf("operation with name '%s' already registered", name))
	}
	slog.Debug("Registering operation.", "name", name)
	r.ops[name] = op
}

// Lookup returns the operation registered under name.
func (r *Registry) Lookup(name string) (node.Op, error) {
	reg, ok := r.ops[name]
	if !ok {
		return nil, fmt.Errorf("%w '%s'", ErrUnknownOp, name)
	}
	return node.NewOp(name, func(ctx context.Context, args []any) (any, error) {
		if err := reg.checkArity(len(args)); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return reg.Fn(ctx, args)
	}), nil
}

// CheckArity validates an argument count for name without running anything.
func (r *Registry) CheckArity(name string, n int) error {
	reg, ok := r.ops[name]
	if !ok {
		return fmt.Errorf("%w '%s'", ErrUnknownOp, name)
	}
	if err := reg.checkArity(n); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (op *RegisteredOp) checkArity(n int) error {
	switch {
	case op.MaxArgs == op.MinArgs && n != op.MinArgs:
		return fmt.Errorf("expects %d arguments, got %d", op.MinArgs, n)
	case n < op.MinArgs:
		return fmt.Errorf("expects at least %d arguments, got %d", op.MinArgs, n)
	case op.MaxArgs != Variadic && n > op.MaxArgs:
		return fmt.Errorf("expects at most %d arguments, got %d", op.MaxArgs, n)
	}
	return nil
}

// Names returns every registered operation name in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Doc returns the one-line description of name.
func (r *Registry) Doc(name string) string {
	if reg, ok := r.ops[name]; ok {
		return reg.Doc
	}
	return ""
}
