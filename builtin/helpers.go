package builtin

import (
	"lumesh.sh/lumesh/errs"
	"lumesh.sh/lumesh/value"
)

// arity checks that args has exactly n raw argument expressions before
// any evaluation happens, matching the spec's "arity/type checks are
// inside each builtin" contract.
func arity(name string, args []value.Expression, n int) error {
	if len(args) != n {
		return errs.New(errs.KindArgumentMismatch, "%s expects %d argument(s), got %d", name, n, len(args))
	}
	return nil
}

func arityAtLeast(name string, args []value.Expression, n int) error {
	if len(args) < n {
		return errs.New(errs.KindArgumentMismatch, "%s expects at least %d argument(s), got %d", name, n, len(args))
	}
	return nil
}

func evalAll(env Env, args []value.Expression) ([]value.Expression, error) {
	return env.EvalArgs(args)
}

func asString(name string, v value.Expression) (string, error) {
	s, ok := v.(value.String)
	if !ok {
		return "", errs.New(errs.KindTypeError, "%s expects a string, found %s", name, v.Kind())
	}
	return string(s), nil
}

func asInt(name string, v value.Expression) (int64, error) {
	switch n := v.(type) {
	case value.Integer:
		return int64(n), nil
	case value.Float:
		return int64(n), nil
	default:
		return 0, errs.New(errs.KindTypeError, "%s expects an integer, found %s", name, v.Kind())
	}
}

func asFloat(name string, v value.Expression) (float64, error) {
	switch n := v.(type) {
	case value.Integer:
		return float64(n), nil
	case value.Float:
		return float64(n), nil
	default:
		return 0, errs.New(errs.KindTypeError, "%s expects a number, found %s", name, v.Kind())
	}
}

func asList(name string, v value.Expression) (value.List, error) {
	l, ok := v.(value.List)
	if !ok {
		return value.List{}, errs.New(errs.KindTypeError, "%s expects a list, found %s", name, v.Kind())
	}
	return l, nil
}

func asMap(name string, v value.Expression) (value.Map, error) {
	m, ok := v.(value.Map)
	if !ok {
		return value.Map{}, errs.New(errs.KindTypeError, "%s expects a map, found %s", name, v.Kind())
	}
	return m, nil
}

func asCallable(name string, v value.Expression) (value.Expression, error) {
	switch v.(type) {
	case value.Lambda, value.Builtin:
		return v, nil
	default:
		return nil, errs.New(errs.KindTypeError, "%s expects a function, found %s", name, v.Kind())
	}
}
