package value

import (
	"errors"
	"strings"
)

// ErrNotOrdered is returned by Compare when the two values have no
// defined ordering (the spec says comparison across incompatible types
// is an error, not false).
var ErrNotOrdered = errors.New("value: values are not ordered")

// Compare returns -1, 0, or 1 according to whether a is less than,
// equal to, or greater than b. Numeric types compare numerically
// (promoting to float on a mix of Integer/Float); strings compare
// lexicographically; lists compare lexicographically element by
// element.
func Compare(a, b Expression) (int, error) {
	switch av := a.(type) {
	case Integer:
		switch bv := b.(type) {
		case Integer:
			return cmpInt64(int64(av), int64(bv)), nil
		case Float:
			return cmpFloat64(float64(av), float64(bv)), nil
		}
	case Float:
		switch bv := b.(type) {
		case Integer:
			return cmpFloat64(float64(av), float64(bv)), nil
		case Float:
			return cmpFloat64(float64(av), float64(bv)), nil
		}
	case String:
		if bv, ok := b.(String); ok {
			return strings.Compare(string(av), string(bv)), nil
		}
	case List:
		if bv, ok := b.(List); ok {
			return compareLists(av, bv)
		}
	}
	return 0, ErrNotOrdered
}

func compareLists(a, b List) (int, error) {
	ai, bi := a.Items(), b.Items()
	for i := 0; i < len(ai) && i < len(bi); i++ {
		c, err := Compare(ai[i], bi[i])
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return c, nil
		}
	}
	return cmpInt64(int64(len(ai)), int64(len(bi))), nil
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
