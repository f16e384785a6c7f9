package builder

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/specialistvlad/lazygrid/internal/node"
	"github.com/specialistvlad/lazygrid/internal/nodeid"
)

// Deferred is a wrapped function. Calling it records a node instead of
// running the function.
type Deferred struct {
	name    string
	op      node.Op
	minArgs int
	maxArgs int // -1 when unbounded
}

// Defer wraps fn under name. fn may take a leading context.Context and
// return R, (R, error) or error. An fn of any other shape is a programming
// error and panics.
func Defer(name string, fn any) *Deferred {
	if name == "" {
		name = funcName(fn)
	}
	sig, err := inspect(name, fn)
	if err != nil {
		panic(err.Error())
	}
	minArgs, maxArgs := sig.arity()
	return &Deferred{
		name:    name,
		op:      node.NewOp(name, sig.call),
		minArgs: minArgs,
		maxArgs: maxArgs,
	}
}

// FromOp wraps an operation that already works on resolved argument lists.
// maxArgs may be -1 for no upper bound.
func FromOp(op node.Op, minArgs, maxArgs int) *Deferred {
	if op == nil {
		panic("builder: nil op")
	}
	return &Deferred{name: op.Name(), op: op, minArgs: minArgs, maxArgs: maxArgs}
}

// funcName derives a readable name from the function's symbol, e.g. "inc"
// for pkg.inc and "TestX.func1" for a closure.
func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return "func"
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return "func"
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// Name returns the operation name used in node ids.
func (d *Deferred) Name() string {
	return d.name
}

// Op returns the underlying operation.
func (d *Deferred) Op() node.Op {
	return d.op
}

func (d *Deferred) checkArity(n int) error {
	switch {
	case d.maxArgs == d.minArgs && n != d.minArgs:
		return fmt.Errorf("%s expects %d arguments, got %d", d.name, d.minArgs, n)
	case n < d.minArgs:
		return fmt.Errorf("%s expects at least %d arguments, got %d", d.name, d.minArgs, n)
	case d.maxArgs >= 0 && n > d.maxArgs:
		return fmt.Errorf("%s expects at most %d arguments, got %d", d.name, d.maxArgs, n)
	}
	return nil
}

// Call records a node that applies the function to args. Arguments may be
// plain values, *Value results of other calls, or containers holding *Value
// at any depth. Nothing runs until the value is executed. A wrong number of
// arguments panics.
func (d *Deferred) Call(args ...any) *Value {
	if err := d.checkArity(len(args)); err != nil {
		panic("builder: " + err.Error())
	}
	return d.record(nodeid.New(d.name), args)
}

func (d *Deferred) record(id nodeid.ID, args []any) *Value {
	slots := make([]node.Arg, len(args))
	for i, a := range args {
		slots[i] = toArg(a)
	}
	return &Value{node: node.New(id, d.op, slots...)}
}

// Bind records a node with a fixed function, for one-off operations that do
// not need a reusable Deferred.
func Bind(name string, fn func(ctx context.Context, args []any) (any, error), args ...any) *Value {
	return FromOp(node.NewOp(name, fn), 0, -1).Call(args...)
}
