package hclgraph

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ctyToGo converts a cty.Value to a plain Go value. Whole numbers become
// int64 and other numbers float64; collections become []any and
// map[string]any.
func ctyToGo(val cty.Value) (any, error) {
	if !val.IsKnown() {
		return nil, fmt.Errorf("value is not known at load time")
	}
	if val.IsNull() {
		return nil, nil
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString(), nil
	case ty == cty.Bool:
		return val.True(), nil
	case ty == cty.Number:
		var i int64
		if err := gocty.FromCtyValue(val, &i); err == nil {
			return i, nil
		}
		var f float64
		if err := gocty.FromCtyValue(val, &f); err != nil {
			return nil, err
		}
		return f, nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			item, err := ctyToGo(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = item
		}
		return out, nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			item, err := ctyToGo(v)
			if err != nil {
				return nil, err
			}
			out = append(out, item)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported cty.Type for conversion: %s", ty.FriendlyName())
	}
}
