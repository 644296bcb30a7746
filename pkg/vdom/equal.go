package vdom

import "reflect"

// Equal reports whether a and b describe the same tree: same kind, tag,
// key, text, props and children, recursively. HIDs and the Static flag are
// ignored. Function props are equal when they have the same code pointer.
func Equal(a, b *VNode) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Kind != b.Kind || a.Tag != b.Tag || a.Key != b.Key || a.Text != b.Text {
		return false
	}
	if !PropsEqual(a.Props, b.Props) {
		return false
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// PropsEqual compares two prop maps value by value. A nil map equals an
// empty one.
func PropsEqual(a, b Props) bool {
	if len(a) != len(b) {
		return false
	}
	for key, av := range a {
		bv, ok := b[key]
		if !ok || !propEqual(av, bv) {
			return false
		}
	}
	return true
}

// propEqual compares two prop values for equality.
func propEqual(a, b any) bool {
	// Fast path for common types
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	}

	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Kind() == reflect.Func || rb.Kind() == reflect.Func {
		// Closures cannot be compared; the same code is the best available
		// notion of "same handler".
		return ra.Kind() == rb.Kind() && ra.Type() == rb.Type() && ra.Pointer() == rb.Pointer()
	}
	return reflect.DeepEqual(a, b)
}

func isFunc(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}
