package node

import (
	"errors"
	"fmt"
	"sort"

	"github.com/specialistvlad/lazygrid/internal/nodeid"
)

// ErrUnresolved is returned when an argument references a node whose result
// is not available.
var ErrUnresolved = errors.New("unresolved reference")

// Arg is one argument slot of a node. It is either a Literal, a Ref to
// another node's result, or a container (List, Map) of further slots.
type Arg interface {
	isArg()
}

// Literal is a concrete value passed through unchanged.
type Literal struct {
	Value any
}

// Ref stands for the result of another node.
type Ref struct {
	Node *Node
}

// List is an ordered container of slots; it resolves to []any.
type List []Arg

// Map is a string-keyed container of slots; it resolves to map[string]any.
type Map map[string]Arg

func (Literal) isArg() {}
func (Ref) isArg()     {}
func (List) isArg()    {}
func (Map) isArg()     {}

// Lookup returns the computed result of the node with the given id.
type Lookup func(id nodeid.ID) (any, bool)

// Refs returns every node referenced by the slot, depth first. Map keys are
// visited in sorted order so the result is deterministic.
func Refs(a Arg) []*Node {
	var out []*Node
	var walk func(Arg)
	walk = func(a Arg) {
		switch v := a.(type) {
		case Ref:
			out = append(out, v.Node)
		case List:
			for _, item := range v {
				walk(item)
			}
		case Map:
			for _, k := range sortedKeys(v) {
				walk(v[k])
			}
		}
	}
	walk(a)
	return out
}

// Resolve rebuilds the concrete value of a slot, replacing every Ref with
// the referenced node's result.
func Resolve(a Arg, lookup Lookup) (any, error) {
	switch v := a.(type) {
	case nil:
		return nil, nil
	case Literal:
		return v.Value, nil
	case Ref:
		if v.Node == nil {
			return nil, fmt.Errorf("%w: nil node", ErrUnresolved)
		}
		val, ok := lookup(v.Node.id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnresolved, v.Node.id)
		}
		return val, nil
	case List:
		out := make([]any, len(v))
		for i, item := range v {
			val, err := Resolve(item, lookup)
			if err != nil {
				return nil, err
			}
			out[i] = val
		}
		return out, nil
	case Map:
		out := make(map[string]any, len(v))
		for k, item := range v {
			val, err := Resolve(item, lookup)
			if err != nil {
				return nil, err
			}
			out[k] = val
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported argument slot %T", a)
	}
}

// ResolveAll resolves every slot of a node in order.
func ResolveAll(args []Arg, lookup Lookup) ([]any, error) {
	out := make([]any, len(args))
	for i, a := range args {
		val, err := Resolve(a, lookup)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		out[i] = val
	}
	return out, nil
}

func sortedKeys(m Map) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
