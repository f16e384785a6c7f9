package ops

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/specialistvlad/lazygrid/internal/registry"
)

// DefaultSlowDelay is how long slow_inc sleeps when no delay is given.
const DefaultSlowDelay = 100 * time.Millisecond

// Module registers the builtin operations.
type Module struct{}

// Register implements registry.Module.
func (Module) Register(r *registry.Registry) {
	binary := func(name, doc string, fn func(a, b any) (any, error)) {
		r.RegisterOp(name, &registry.RegisteredOp{
			Fn: func(_ context.Context, args []any) (any, error) {
				return fn(args[0], args[1])
			},
			MinArgs: 2,
			MaxArgs: 2,
			Doc:     doc,
		})
	}

	r.RegisterOp("inc", &registry.RegisteredOp{
		Fn: func(_ context.Context, args []any) (any, error) {
			return Add(args[0], 1)
		},
		MinArgs: 1,
		MaxArgs: 1,
		Doc:     "n + 1",
	})
	r.RegisterOp("slow_inc", &registry.RegisteredOp{
		Fn:      slowInc,
		MinArgs: 1,
		MaxArgs: 2,
		Doc:     "n + 1 after a delay (milliseconds or a duration string, default 100ms)",
	})
	binary("add", "a + b", Add)
	binary("sub", "a - b", Sub)
	binary("mul", "a * b", Mul)
	binary("div", "a / b", Div)
	binary("index", "element of a list or map", Index)
	r.RegisterOp("attr", &registry.RegisteredOp{
		Fn: func(_ context.Context, args []any) (any, error) {
			name, ok := args[1].(string)
			if !ok {
				return nil, fmt.Errorf("attribute name must be a string, got %T", args[1])
			}
			return Attr(args[0], name)
		},
		MinArgs: 2,
		MaxArgs: 2,
		Doc:     "field of an object",
	})
	r.RegisterOp("neg", &registry.RegisteredOp{
		Fn: func(_ context.Context, args []any) (any, error) {
			return Neg(args[0])
		},
		MinArgs: 1,
		MaxArgs: 1,
		Doc:     "-n",
	})
	r.RegisterOp("sum", &registry.RegisteredOp{
		Fn: func(_ context.Context, args []any) (any, error) {
			return Sum(spread(args)...)
		},
		MaxArgs: registry.Variadic,
		Doc:     "sum of the arguments, or of a single list argument",
	})
	r.RegisterOp("max", &registry.RegisteredOp{
		Fn: func(_ context.Context, args []any) (any, error) {
			return extreme("max", 1, spread(args))
		},
		MinArgs: 1,
		MaxArgs: registry.Variadic,
		Doc:     "largest argument",
	})
	r.RegisterOp("min", &registry.RegisteredOp{
		Fn: func(_ context.Context, args []any) (any, error) {
			return extreme("min", -1, spread(args))
		},
		MinArgs: 1,
		MaxArgs: registry.Variadic,
		Doc:     "smallest argument",
	})
	r.RegisterOp("len", &registry.RegisteredOp{
		Fn: func(_ context.Context, args []any) (any, error) {
			return Len(args[0])
		},
		MinArgs: 1,
		MaxArgs: 1,
		Doc:     "length of a list, map or string",
	})
	r.RegisterOp("identity", &registry.RegisteredOp{
		Fn: func(_ context.Context, args []any) (any, error) {
			return args[0], nil
		},
		MinArgs: 1,
		MaxArgs: 1,
		Doc:     "its argument, unchanged",
	})
	r.RegisterOp("concat", &registry.RegisteredOp{
		Fn: func(_ context.Context, args []any) (any, error) {
			return Concat(args...), nil
		},
		MaxArgs: registry.Variadic,
		Doc:     "joined lists, or the arguments joined as text",
	})
}

func slowInc(ctx context.Context, args []any) (any, error) {
	delay := DefaultSlowDelay
	if len(args) == 2 {
		d, err := parseDelay(args[1])
		if err != nil {
			return nil, err
		}
		delay = d
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}
	return Add(args[0], 1)
}

func parseDelay(v any) (time.Duration, error) {
	if s, ok := v.(string); ok {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid delay %q: %w", s, err)
		}
		return d, nil
	}
	ms, err := ToFloat(v)
	if err != nil {
		return 0, fmt.Errorf("invalid delay: %w", err)
	}
	return time.Duration(ms * float64(time.Millisecond)), nil
}

// spread turns a single list argument into the argument list.
func spread(args []any) []any {
	if len(args) == 1 {
		rv := reflect.ValueOf(args[0])
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			out := make([]any, rv.Len())
			for i := range out {
				out[i] = rv.Index(i).Interface()
			}
			return out
		}
	}
	return args
}

// Sum adds values left to right. The sum of nothing is 0.
func Sum(values ...any) (any, error) {
	if len(values) == 0 {
		return 0, nil
	}
	acc := values[0]
	if !IsNumeric(acc) {
		return nil, fmt.Errorf("sum: %w: %T", ErrNotNumeric, acc)
	}
	for _, v := range values[1:] {
		var err error
		if acc, err = Add(acc, v); err != nil {
			return nil, fmt.Errorf("sum: %w", err)
		}
	}
	return acc, nil
}

func extreme(name string, want int, values []any) (any, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%s of no values", name)
	}
	best := values[0]
	for _, v := range values[1:] {
		c, err := Compare(v, best)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if c == want {
			best = v
		}
	}
	return best, nil
}

// Concat joins lists into one list when every argument is a list, and
// otherwise joins the text form of every argument.
func Concat(values ...any) any {
	allLists := len(values) > 0
	for _, v := range values {
		if k := reflect.ValueOf(v).Kind(); k != reflect.Slice && k != reflect.Array {
			allLists = false
			break
		}
	}
	if allLists {
		var out []any
		for _, v := range values {
			out = append(out, spread([]any{v})...)
		}
		return out
	}

	var b strings.Builder
	for _, v := range values {
		fmt.Fprint(&b, v)
	}
	return b.String()
}
