package builtin

import (
	"encoding/json"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"lumesh.sh/lumesh/errs"
	"lumesh.sh/lumesh/value"
)

// buildInto registers the Into library: value.Expression -> text
// encoders, the inverse of Parse's decoders, satisfying the spec's
// round-trip laws (parse.json(into.json(x)) ≡ x, and so on) plus a
// handful of scalar conversions (into.str, into.int, into.float).
func buildInto() map[string]value.Builtin {
	return builder("Into",
		fn("json", "Into.json(x) - encode x as a JSON document", intoWith(func(v any) ([]byte, error) {
			return json.Marshal(v)
		})),
		fn("toml", "Into.toml(x) - encode a Map as a TOML document", intoTOML),
		fn("yaml", "Into.yaml(x) - encode x as a YAML document", intoWith(func(v any) ([]byte, error) {
			return yaml.Marshal(v)
		})),
		fn("str", "Into.str(x) - x's Display string form", biIntoStr),
		fn("int", "Into.int(x) - x truncated/parsed to an Integer", biIntoInt),
		fn("float", "Into.float(x) - x converted/parsed to a Float", biIntoFloat),
		fn("bool", "Into.bool(x) - x's truthiness as a Boolean", biIntoBool),
	)
}

func intoWith(encode func(any) ([]byte, error)) Func {
	return func(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
		if err := arity("Into function", args, 1); err != nil {
			return nil, err
		}
		v, err := env.EvalArg(args[0])
		if err != nil {
			return nil, err
		}
		gv, err := toGo(v)
		if err != nil {
			return nil, err
		}
		out, err := encode(gv)
		if err != nil {
			return nil, errs.New(errs.KindInvalidArgument, "encode failed: %s", err)
		}
		return value.String(out), nil
	}
}

// intoTOML requires a Map at the top level: TOML has no bare-scalar or
// bare-list document form, unlike JSON/YAML.
func intoTOML(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Into.toml", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	m, err := asMap("Into.toml", v)
	if err != nil {
		return nil, err
	}
	gv, err := toGo(m)
	if err != nil {
		return nil, err
	}
	out, err := toml.Marshal(gv)
	if err != nil {
		return nil, errs.New(errs.KindInvalidArgument, "encode failed: %s", err)
	}
	return value.String(out), nil
}

func biIntoStr(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Into.str", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	return value.String(value.Display(v)), nil
}

func biIntoInt(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Into.int", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case value.Integer:
		return x, nil
	case value.Float:
		return value.Integer(int64(x)), nil
	case value.String:
		return biParseInt([]value.Expression{value.Quote{Body: x}}, env, ctx)
	case value.Boolean:
		if x {
			return value.Integer(1), nil
		}
		return value.Integer(0), nil
	default:
		return nil, errs.New(errs.KindTypeError, "Into.int is undefined for %s", v.Kind())
	}
}

func biIntoFloat(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Into.float", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case value.Float:
		return x, nil
	case value.Integer:
		return value.Float(float64(x)), nil
	case value.String:
		return biParseFloat([]value.Expression{value.Quote{Body: x}}, env, ctx)
	default:
		return nil, errs.New(errs.KindTypeError, "Into.float is undefined for %s", v.Kind())
	}
}

func biIntoBool(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Into.bool", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	return value.Boolean(value.Truthy(v)), nil
}
