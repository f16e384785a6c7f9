package builder

import (
	"context"
	"fmt"
	"reflect"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// signature describes a wrapped function.
type signature struct {
	fn       reflect.Value
	withCtx  bool
	params   []reflect.Type // excluding the context
	variadic bool
	hasValue bool
	hasError bool
}

// inspect validates fn and returns its signature. Accepted shapes are
// func([ctx,] args...) R, func([ctx,] args...) (R, error) and
// func([ctx,] args...) error, plus functions with no result.
func inspect(name string, fn any) (*signature, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return nil, fmt.Errorf("builder: %s: expected a function, got %T", name, fn)
	}
	t := v.Type()
	sig := &signature{fn: v, variadic: t.IsVariadic()}

	start := 0
	if t.NumIn() > 0 && t.In(0) == contextType {
		sig.withCtx = true
		start = 1
	}
	for i := start; i < t.NumIn(); i++ {
		sig.params = append(sig.params, t.In(i))
	}
	if sig.variadic && len(sig.params) == 0 {
		return nil, fmt.Errorf("builder: %s: the context cannot be the variadic parameter", name)
	}

	switch t.NumOut() {
	case 0:
	case 1:
		if t.Out(0) == errorType {
			sig.hasError = true
		} else {
			sig.hasValue = true
		}
	case 2:
		if t.Out(1) != errorType {
			return nil, fmt.Errorf("builder: %s: second result must be error, got %s", name, t.Out(1))
		}
		sig.hasValue, sig.hasError = true, true
	default:
		return nil, fmt.Errorf("builder: %s: too many results (%d)", name, t.NumOut())
	}
	return sig, nil
}

// arity returns the minimum and maximum argument counts; max is -1 for
// variadic functions.
func (s *signature) arity() (int, int) {
	if s.variadic {
		return len(s.params) - 1, -1
	}
	return len(s.params), len(s.params)
}

// paramType returns the type expected for argument i.
func (s *signature) paramType(i int) reflect.Type {
	if s.variadic && i >= len(s.params)-1 {
		return s.params[len(s.params)-1].Elem()
	}
	return s.params[i]
}

// call invokes the function with resolved arguments.
func (s *signature) call(ctx context.Context, args []any) (any, error) {
	in := make([]reflect.Value, 0, len(args)+1)
	if s.withCtx {
		in = append(in, reflect.ValueOf(ctx))
	}
	for i, a := range args {
		v, err := convert(a, s.paramType(i))
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		in = append(in, v)
	}

	results := s.fn.Call(in)
	var value any
	var err error
	switch {
	case s.hasValue && s.hasError:
		value = results[0].Interface()
		if e := results[1].Interface(); e != nil {
			err = e.(error)
		}
	case s.hasValue:
		value = results[0].Interface()
	case s.hasError:
		if e := results[0].Interface(); e != nil {
			err = e.(error)
		}
	}
	return value, err
}

// convert turns a resolved argument into a value of type t. Resolved
// containers arrive as []any and map[string]any and are converted element by
// element; numbers convert between numeric kinds.
func convert(a any, t reflect.Type) (reflect.Value, error) {
	if a == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(a)
	if v.Type().AssignableTo(t) {
		out := reflect.New(t).Elem()
		out.Set(v)
		return out, nil
	}

	switch t.Kind() {
	case reflect.Slice:
		if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
			out := reflect.MakeSlice(t, v.Len(), v.Len())
			for i := 0; i < v.Len(); i++ {
				ev, err := convert(v.Index(i).Interface(), t.Elem())
				if err != nil {
					return reflect.Value{}, fmt.Errorf("[%d]: %w", i, err)
				}
				out.Index(i).Set(ev)
			}
			return out, nil
		}
	case reflect.Array:
		if (v.Kind() == reflect.Slice || v.Kind() == reflect.Array) && v.Len() == t.Len() {
			out := reflect.New(t).Elem()
			for i := 0; i < v.Len(); i++ {
				ev, err := convert(v.Index(i).Interface(), t.Elem())
				if err != nil {
					return reflect.Value{}, fmt.Errorf("[%d]: %w", i, err)
				}
				out.Index(i).Set(ev)
			}
			return out, nil
		}
	case reflect.Map:
		if v.Kind() == reflect.Map {
			out := reflect.MakeMapWithSize(t, v.Len())
			iter := v.MapRange()
			for iter.Next() {
				kv, err := convert(iter.Key().Interface(), t.Key())
				if err != nil {
					return reflect.Value{}, fmt.Errorf("key %v: %w", iter.Key(), err)
				}
				ev, err := convert(iter.Value().Interface(), t.Elem())
				if err != nil {
					return reflect.Value{}, fmt.Errorf("[%v]: %w", iter.Key(), err)
				}
				out.SetMapIndex(kv, ev)
			}
			return out, nil
		}
	}

	if isNumberKind(v.Kind()) && isNumberKind(t.Kind()) {
		return v.Convert(t), nil
	}
	if v.Kind() == reflect.String && t.Kind() == reflect.String {
		return v.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", a, t)
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
