package hclgraph

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/lazygrid/internal/builder"
	"github.com/specialistvlad/lazygrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// taskRoot is the root name of references to other tasks.
const taskRoot = "task"

// compiler turns the argument expressions of one task into builder
// arguments. Expressions that need computation on task results, such as
// task.x * 2, become helper definitions named "<task>#<n>".
type compiler struct {
	task     string
	graph    *builder.Keyed
	registry *registry.Registry
	helpers  int
}

// arg converts a single argument expression.
func (c *compiler) arg(expr hcl.Expression) (any, hcl.Diagnostics) {
	if len(expr.Variables()) == 0 {
		return c.static(expr)
	}

	switch e := expr.(type) {
	case *hclsyntax.ScopeTraversalExpr:
		return c.traversal(e.Traversal, e.Range())

	case *hclsyntax.TupleConsExpr:
		out := make([]any, 0, len(e.Exprs))
		var diags hcl.Diagnostics
		for _, item := range e.Exprs {
			v, itemDiags := c.arg(item)
			diags = append(diags, itemDiags...)
			out = append(out, v)
		}
		return out, diags

	case *hclsyntax.ObjectConsExpr:
		out := make(map[string]any, len(e.Items))
		var diags hcl.Diagnostics
		for _, item := range e.Items {
			key, keyDiags := item.KeyExpr.Value(nil)
			diags = append(diags, keyDiags...)
			if keyDiags.HasErrors() {
				continue
			}
			if key.Type() != cty.String || key.IsNull() {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Invalid object key",
					Detail:   "Object keys in task arguments must be strings.",
					Subject:  item.KeyExpr.Range().Ptr(),
				})
				continue
			}
			v, valDiags := c.arg(item.ValueExpr)
			diags = append(diags, valDiags...)
			out[key.AsString()] = v
		}
		return out, diags

	case *hclsyntax.ParenthesesExpr:
		return c.arg(e.Expression)

	case *hclsyntax.IndexExpr:
		coll, diags := c.arg(e.Collection)
		key, keyDiags := c.arg(e.Key)
		diags = append(diags, keyDiags...)
		if diags.HasErrors() {
			return nil, diags
		}
		return c.index(coll, key, e.Range())

	case *hclsyntax.RelativeTraversalExpr:
		base, diags := c.arg(e.Source)
		if diags.HasErrors() {
			return nil, diags
		}
		return c.apply(base, e.Traversal, e.Range())

	case *hclsyntax.BinaryOpExpr:
		name, ok := binaryOps[e.Op]
		if !ok {
			return nil, unsupported(expr)
		}
		lhs, diags := c.arg(e.LHS)
		rhs, rhsDiags := c.arg(e.RHS)
		diags = append(diags, rhsDiags...)
		if diags.HasErrors() {
			return nil, diags
		}
		return c.helper(name, e.Range(), lhs, rhs)

	case *hclsyntax.UnaryOpExpr:
		if e.Op != hclsyntax.OpNegate {
			return nil, unsupported(expr)
		}
		v, diags := c.arg(e.Val)
		if diags.HasErrors() {
			return nil, diags
		}
		return c.helper("neg", e.Range(), v)

	default:
		return nil, unsupported(expr)
	}
}

var binaryOps = map[*hclsyntax.Operation]string{
	hclsyntax.OpAdd:      "add",
	hclsyntax.OpSubtract: "sub",
	hclsyntax.OpMultiply: "mul",
	hclsyntax.OpDivide:   "div",
}

func unsupported(expr hcl.Expression) hcl.Diagnostics {
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Unsupported expression",
		Detail:   "Task references may be used as whole arguments, inside lists and objects, with index and attribute access, and with the operators + - * / and unary minus.",
		Subject:  expr.Range().Ptr(),
	}}
}

// static evaluates an expression that references nothing.
func (c *compiler) static(expr hcl.Expression) (any, hcl.Diagnostics) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	v, err := ctyToGo(val)
	if err != nil {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid argument value",
			Detail:   err.Error(),
			Subject:  expr.Range().Ptr(),
		}}
	}
	return v, nil
}

// traversal parses task.<name> followed by any attribute and index steps.
func (c *compiler) traversal(t hcl.Traversal, rng hcl.Range) (any, hcl.Diagnostics) {
	if t.RootName() != taskRoot {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unknown variable",
			Detail:   fmt.Sprintf("There is no variable named %q; tasks are referenced as task.<name>.", t.RootName()),
			Subject:  rng.Ptr(),
		}}
	}
	if len(t) < 2 {
		return nil, invalidReference(rng)
	}
	name, ok := t[1].(hcl.TraverseAttr)
	if !ok {
		return nil, invalidReference(rng)
	}
	return c.apply(builder.Key(name.Name), t[2:], rng)
}

func invalidReference(rng hcl.Range) hcl.Diagnostics {
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Invalid task reference",
		Detail:   "A task reference must have the form task.<name>.",
		Subject:  rng.Ptr(),
	}}
}

// apply follows attribute and index steps from base.
func (c *compiler) apply(base any, steps hcl.Traversal, rng hcl.Range) (any, hcl.Diagnostics) {
	cur := base
	for _, step := range steps {
		var diags hcl.Diagnostics
		switch s := step.(type) {
		case hcl.TraverseAttr:
			cur, diags = c.attr(cur, s.Name, rng)
		case hcl.TraverseIndex:
			key, err := ctyToGo(s.Key)
			if err != nil {
				return nil, hcl.Diagnostics{{
					Severity: hcl.DiagError,
					Summary:  "Invalid index",
					Detail:   err.Error(),
					Subject:  s.SrcRange.Ptr(),
				}}
			}
			cur, diags = c.index(cur, key, rng)
		case hcl.TraverseSplat:
			return nil, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Unsupported splat",
				Detail:   "Splat expressions are not supported in task arguments.",
				Subject:  s.SrcRange.Ptr(),
			}}
		default:
			return nil, invalidReference(rng)
		}
		if diags.HasErrors() {
			return nil, diags
		}
	}
	return cur, nil
}

func (c *compiler) index(coll, key any, rng hcl.Range) (any, hcl.Diagnostics) {
	if ref, ok := coll.(builder.KeyRef); ok {
		return ref.Index(key), nil
	}
	return c.helper("index", rng, coll, key)
}

func (c *compiler) attr(v any, name string, rng hcl.Range) (any, hcl.Diagnostics) {
	if ref, ok := v.(builder.KeyRef); ok {
		return ref.Attr(name), nil
	}
	return c.helper("attr", rng, v, name)
}

// helper defines an anonymous task applying the registered op to args and
// returns a reference to it.
func (c *compiler) helper(op string, rng hcl.Range, args ...any) (any, hcl.Diagnostics) {
	d, err := lookup(c.registry, op, len(args))
	if err != nil {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Operation unavailable",
			Detail:   err.Error(),
			Subject:  rng.Ptr(),
		}}
	}

	c.helpers++
	key := fmt.Sprintf("%s#%d", c.task, c.helpers)
	if err := c.graph.Define(key, d, args...); err != nil {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid expression",
			Detail:   err.Error(),
			Subject:  rng.Ptr(),
		}}
	}
	return builder.Key(key), nil
}

// lookup resolves a registered op and checks the argument count.
func lookup(r *registry.Registry, op string, n int) (*builder.Deferred, error) {
	if err := r.CheckArity(op, n); err != nil {
		return nil, err
	}
	o, err := r.Lookup(op)
	if err != nil {
		return nil, err
	}
	return builder.FromOp(o, n, n), nil
}
