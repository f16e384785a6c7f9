package builder

import (
	"context"
	"reflect"

	"github.com/specialistvlad/lazygrid/internal/node"
	"github.com/specialistvlad/lazygrid/internal/nodeid"
	"github.com/specialistvlad/lazygrid/internal/ops"
)

// Value stands for the eventual result of a recorded node.
type Value struct {
	node *node.Node
}

// Node returns the recorded node.
func (v *Value) Node() *node.Node {
	return v.node
}

// ID returns the identity of the recorded node.
func (v *Value) ID() nodeid.ID {
	return v.node.ID()
}

// String implements fmt.Stringer.
func (v *Value) String() string {
	return "Value(" + v.node.String() + ")"
}

// Nodes returns the nodes behind values, in order.
func Nodes(values ...*Value) []*node.Node {
	out := make([]*node.Node, len(values))
	for i, v := range values {
		if v != nil {
			out[i] = v.node
		}
	}
	return out
}

var (
	valueType = reflect.TypeOf((*Value)(nil))

	indexOp = FromOp(node.NewOp("index", func(_ context.Context, args []any) (any, error) {
		return ops.Index(args[0], args[1])
	}), 2, 2)
	attrOp = FromOp(node.NewOp("attr", func(_ context.Context, args []any) (any, error) {
		return ops.Attr(args[0], args[1].(string))
	}), 2, 2)
	addOp = binaryOp("add", ops.Add)
	subOp = binaryOp("sub", ops.Sub)
	mulOp = binaryOp("mul", ops.Mul)
	divOp = binaryOp("div", ops.Div)
	negOp = FromOp(node.NewOp("neg", func(_ context.Context, args []any) (any, error) {
		return ops.Neg(args[0])
	}), 1, 1)
	sumOp = FromOp(node.NewOp("sum", func(_ context.Context, args []any) (any, error) {
		return ops.Sum(args...)
	}), 0, -1)
	constOp = FromOp(node.NewOp("const", func(_ context.Context, args []any) (any, error) {
		return args[0], nil
	}), 1, 1)
)

func binaryOp(name string, fn func(a, b any) (any, error)) *Deferred {
	return FromOp(node.NewOp(name, func(_ context.Context, args []any) (any, error) {
		return fn(args[0], args[1])
	}), 2, 2)
}

// Index records v[key]. key may itself be a *Value.
func (v *Value) Index(key any) *Value {
	return indexOp.Call(v, key)
}

// Attr records the field or string map entry called name of v.
func (v *Value) Attr(name string) *Value {
	return attrOp.Call(v, name)
}

// Add records v + other.
func (v *Value) Add(other any) *Value { return addOp.Call(v, other) }

// Sub records v - other.
func (v *Value) Sub(other any) *Value { return subOp.Call(v, other) }

// Mul records v * other.
func (v *Value) Mul(other any) *Value { return mulOp.Call(v, other) }

// Div records v / other.
func (v *Value) Div(other any) *Value { return divOp.Call(v, other) }

// Neg records -v.
func (v *Value) Neg() *Value { return negOp.Call(v) }

// Then records fn applied to v followed by extra.
func (v *Value) Then(name string, fn any, extra ...any) *Value {
	return Defer(name, fn).Call(append([]any{v}, extra...)...)
}

// Const records a node whose result is x. It is useful as a root when the
// value is already known.
func Const(x any) *Value { return constOp.Call(x) }

// Add records a + b for plain or deferred operands.
func Add(a, b any) *Value { return addOp.Call(a, b) }

// Sub records a - b.
func Sub(a, b any) *Value { return subOp.Call(a, b) }

// Mul records a * b.
func Mul(a, b any) *Value { return mulOp.Call(a, b) }

// Div records a / b.
func Div(a, b any) *Value { return divOp.Call(a, b) }

// Sum records the sum of values.
func Sum(values ...any) *Value { return sumOp.Call(values...) }

// toArg converts a call argument into a node argument slot. Containers are
// only taken apart when they hold a *Value somewhere; otherwise they are
// passed through as a single literal with their Go type intact.
func toArg(a any) node.Arg {
	if v, ok := a.(*Value); ok && v != nil {
		return node.Ref{Node: v.node}
	}
	rv := reflect.ValueOf(a)
	if !holdsValue(rv) {
		return node.Literal{Value: a}
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		list := make(node.List, rv.Len())
		for i := range list {
			list[i] = toArg(rv.Index(i).Interface())
		}
		return list
	case reflect.Map:
		m := make(node.Map, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = toArg(iter.Value().Interface())
		}
		return m
	default:
		return node.Literal{Value: a}
	}
}

// holdsValue reports whether rv is, or contains, a non-nil *Value.
func holdsValue(rv reflect.Value) bool {
	if !rv.IsValid() {
		return false
	}
	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	if rv.Type() == valueType {
		return !rv.IsNil()
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if !canHold(rv.Type().Elem()) {
			return false
		}
		for i := 0; i < rv.Len(); i++ {
			if holdsValue(rv.Index(i)) {
				return true
			}
		}
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String || !canHold(rv.Type().Elem()) {
			return false
		}
		iter := rv.MapRange()
		for iter.Next() {
			if holdsValue(iter.Value()) {
				return true
			}
		}
	}
	return false
}

// canHold reports whether a container element of type t could be a *Value.
func canHold(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface:
		return valueType.Implements(t)
	case reflect.Slice, reflect.Array, reflect.Map:
		return canHold(t.Elem())
	default:
		return t == valueType
	}
}
