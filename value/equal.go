package value

// Equal implements the spec's structural equality: maps/lists compared
// elementwise, None != 0 != false, numeric cross-type comparison
// coerces toward float.
func Equal(a, b Expression) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case None:
		_, ok := b.(None)
		return ok
	case Boolean:
		bv, ok := b.(Boolean)
		return ok && av == bv
	case Integer:
		switch bv := b.(type) {
		case Integer:
			return av == bv
		case Float:
			return float64(av) == float64(bv)
		}
		return false
	case Float:
		switch bv := b.(type) {
		case Integer:
			return float64(av) == float64(bv)
		case Float:
			return av == bv
		}
		return false
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Symbol:
		bv, ok := b.(Symbol)
		return ok && av == bv
	case Bytes:
		bv, ok := b.(Bytes)
		return ok && string(av) == string(bv)
	case List:
		bv, ok := b.(List)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for i, item := range av.Items() {
			if !Equal(item, bv.Items()[i]) {
				return false
			}
		}
		return true
	case Map:
		bv, ok := b.(Map)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for _, k := range av.Keys() {
			bval, ok := bv.Get(k)
			if !ok {
				return false
			}
			aval, _ := av.Get(k)
			if !Equal(aval, bval) {
				return false
			}
		}
		return true
	case HMap:
		bv, ok := b.(HMap)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		equal := true
		av.Each(func(k string, v Expression) bool {
			bval, ok := bv.Get(k)
			if !ok || !Equal(v, bval) {
				equal = false
				return false
			}
			return true
		})
		return equal
	case Range:
		bv, ok := b.(Range)
		return ok && av == bv
	case FileSize:
		bv, ok := b.(FileSize)
		return ok && av.RawBytes == bv.RawBytes
	default:
		return a == b
	}
}

// Truthy implements the spec's truthiness rule: None, false, 0, 0.0,
// and empty String/List/Map are falsy; everything else is truthy.
func Truthy(e Expression) bool {
	switch v := e.(type) {
	case nil:
		return false
	case None:
		return false
	case Boolean:
		return bool(v)
	case Integer:
		return v != 0
	case Float:
		return v != 0
	case String:
		return len(v) > 0
	case Bytes:
		return len(v) > 0
	case List:
		return v.Len() > 0
	case Map:
		return v.Len() > 0
	case HMap:
		return v.Len() > 0
	default:
		return true
	}
}
