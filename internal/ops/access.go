package ops

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrNotFound is returned when an index, key or attribute does not exist.
var ErrNotFound = errors.New("not found")

// Index returns v[key] for slices, arrays, strings and maps. Negative
// indices count from the end.
func Index(v any, key any) (any, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, fmt.Errorf("index %v: nil value", key)
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.String:
		i, err := ToInt(key)
		if err != nil {
			return nil, fmt.Errorf("index %v: %w", key, err)
		}
		if i < 0 {
			i += rv.Len()
		}
		if i < 0 || i >= rv.Len() {
			return nil, fmt.Errorf("index %v out of range [0:%d]: %w", key, rv.Len(), ErrNotFound)
		}
		if rv.Kind() == reflect.String {
			return string(rv.String()[i]), nil
		}
		return rv.Index(i).Interface(), nil
	case reflect.Map:
		kv := reflect.ValueOf(key)
		if !kv.IsValid() {
			return nil, fmt.Errorf("index: nil key")
		}
		if !kv.Type().AssignableTo(rv.Type().Key()) {
			if !kv.Type().ConvertibleTo(rv.Type().Key()) || !sameFamily(kv, rv.Type().Key()) {
				return nil, fmt.Errorf("index: key of type %T does not fit map key type %s", key, rv.Type().Key())
			}
			kv = kv.Convert(rv.Type().Key())
		}
		ev := rv.MapIndex(kv)
		if !ev.IsValid() {
			return nil, fmt.Errorf("key %v: %w", key, ErrNotFound)
		}
		return ev.Interface(), nil
	default:
		return nil, fmt.Errorf("index %v: value of type %T is not indexable", key, v)
	}
}

// sameFamily keeps Index from converting numbers into strings.
func sameFamily(v reflect.Value, t reflect.Type) bool {
	return (v.Kind() == reflect.String) == (t.Kind() == reflect.String)
}

// Attr returns the exported struct field, or string map entry, called name.
func Attr(v any, name string) (any, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, fmt.Errorf("attribute %q: nil value", name)
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		f, ok := rv.Type().FieldByName(name)
		if !ok || !f.IsExported() {
			return nil, fmt.Errorf("attribute %q of %s: %w", name, rv.Type(), ErrNotFound)
		}
		return rv.FieldByIndex(f.Index).Interface(), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("attribute %q: map key type %s is not a string", name, rv.Type().Key())
		}
		ev := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !ev.IsValid() {
			return nil, fmt.Errorf("attribute %q: %w", name, ErrNotFound)
		}
		return ev.Interface(), nil
	default:
		return nil, fmt.Errorf("attribute %q: value of type %T has no attributes", name, v)
	}
}

// Len returns the length of a slice, array, map or string.
func Len(v any) (int, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String, reflect.Chan:
		return rv.Len(), nil
	default:
		return 0, fmt.Errorf("len: value of type %T has no length", v)
	}
}
