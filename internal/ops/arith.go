package ops

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrNotNumeric is returned when an arithmetic operand is not a number.
	ErrNotNumeric = errors.New("operand is not numeric")
	// ErrDivideByZero is returned for integer division by zero.
	ErrDivideByZero = errors.New("integer division by zero")
)

type numClass int

const (
	classNone numClass = iota
	classInt
	classUint
	classFloat
)

func classify(v reflect.Value) numClass {
	if !v.IsValid() {
		return classNone
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return classInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return classUint
	case reflect.Float32, reflect.Float64:
		return classFloat
	default:
		return classNone
	}
}

// IsNumeric reports whether v is a Go integer or floating point value.
func IsNumeric(v any) bool {
	return classify(reflect.ValueOf(v)) != classNone
}

// ToFloat converts a numeric value to float64.
func ToFloat(v any) (float64, error) {
	rv := reflect.ValueOf(v)
	switch classify(rv) {
	case classInt:
		return float64(rv.Int()), nil
	case classUint:
		return float64(rv.Uint()), nil
	case classFloat:
		return rv.Float(), nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrNotNumeric, v)
	}
}

// ToInt converts a numeric value with no fractional part to int.
func ToInt(v any) (int, error) {
	rv := reflect.ValueOf(v)
	switch classify(rv) {
	case classInt:
		return int(rv.Int()), nil
	case classUint:
		return int(rv.Uint()), nil
	case classFloat:
		f := rv.Float()
		if f != float64(int(f)) {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		return int(f), nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrNotNumeric, v)
	}
}

// Add returns a+b. Two strings are concatenated.
func Add(a, b any) (any, error) {
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return sa + sb, nil
		}
	}
	return arith('+', a, b)
}

// Sub returns a-b.
func Sub(a, b any) (any, error) { return arith('-', a, b) }

// Mul returns a*b.
func Mul(a, b any) (any, error) { return arith('*', a, b) }

// Div returns a/b.
func Div(a, b any) (any, error) { return arith('/', a, b) }

// Neg returns -a.
func Neg(a any) (any, error) {
	rv := reflect.ValueOf(a)
	switch classify(rv) {
	case classInt:
		return reflect.ValueOf(-rv.Int()).Convert(rv.Type()).Interface(), nil
	case classUint:
		return -int64(rv.Uint()), nil
	case classFloat:
		return reflect.ValueOf(-rv.Float()).Convert(rv.Type()).Interface(), nil
	default:
		return nil, fmt.Errorf("neg: %w: %T", ErrNotNumeric, a)
	}
}

func arith(op byte, a, b any) (any, error) {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	ca, cb := classify(va), classify(vb)
	if ca == classNone {
		return nil, fmt.Errorf("%c: left %w: %T", op, ErrNotNumeric, a)
	}
	if cb == classNone {
		return nil, fmt.Errorf("%c: right %w: %T", op, ErrNotNumeric, b)
	}

	if va.Type() == vb.Type() {
		var r any
		var err error
		switch ca {
		case classInt:
			r, err = intArith(op, va.Int(), vb.Int())
		case classUint:
			r, err = uintArith(op, va.Uint(), vb.Uint())
		default:
			r = floatArith(op, va.Float(), vb.Float())
		}
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(r).Convert(va.Type()).Interface(), nil
	}

	if ca == classFloat || cb == classFloat {
		fa, _ := ToFloat(a)
		fb, _ := ToFloat(b)
		return floatArith(op, fa, fb), nil
	}
	return intArith(op, toInt64(va), toInt64(vb))
}

func toInt64(v reflect.Value) int64 {
	if classify(v) == classUint {
		return int64(v.Uint())
	}
	return v.Int()
}

func intArith(op byte, a, b int64) (int64, error) {
	switch op {
	case '+':
		return a + b, nil
	case '-':
		return a - b, nil
	case '*':
		return a * b, nil
	default:
		if b == 0 {
			return 0, ErrDivideByZero
		}
		return a / b, nil
	}
}

func uintArith(op byte, a, b uint64) (uint64, error) {
	switch op {
	case '+':
		return a + b, nil
	case '-':
		return a - b, nil
	case '*':
		return a * b, nil
	default:
		if b == 0 {
			return 0, ErrDivideByZero
		}
		return a / b, nil
	}
}

func floatArith(op byte, a, b float64) float64 {
	switch op {
	case '+':
		return a + b
	case '-':
		return a - b
	case '*':
		return a * b
	default:
		return a / b
	}
}

// Compare returns -1, 0 or 1 for numeric a and b, or lexical order for two
// strings.
func Compare(a, b any) (int, error) {
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			switch {
			case sa < sb:
				return -1, nil
			case sa > sb:
				return 1, nil
			}
			return 0, nil
		}
	}
	fa, err := ToFloat(a)
	if err != nil {
		return 0, err
	}
	fb, err := ToFloat(b)
	if err != nil {
		return 0, err
	}
	switch {
	case fa < fb:
		return -1, nil
	case fa > fb:
		return 1, nil
	}
	return 0, nil
}
