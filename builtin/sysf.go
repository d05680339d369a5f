package builtin

import (
	"lumesh.sh/lumesh/errs"
	"lumesh.sh/lumesh/syntax"
	"lumesh.sh/lumesh/value"
)

// buildSys registers the Sys library: the interpreter-introspection
// builtins explicitly called out by the spec's §2 data-flow note ("the
// evaluator never calls the parser back for script text except when
// sys.parse / parse.script builtins are explicitly invoked") and the
// quoting/printing primitives a shell-like language needs exposed.
func buildSys() map[string]value.Builtin {
	return builder("Sys",
		fn("parse", "Sys.parse(text) - parse a String as a program, returning a Quote'd Expression", biSysParse),
		fn("quote", "Sys.quote(expr) - the raw unevaluated argument", biSysQuote),
		fn("set", "Sys.set(name, value) - define in the root environment", biSysSet),
		fn("get", "Sys.get(name) - look up a binding, or None", biSysGet),
		fn("is_defined", "Sys.is_defined(name)", biSysIsDefined),
	)
}

func biSysParse(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Sys.parse", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	text, err := asString("Sys.parse", v)
	if err != nil {
		return nil, err
	}
	parsed, perr := syntax.Parse([]byte(text), "<sys.parse>")
	if perr != nil {
		return nil, errs.New(errs.KindSyntaxError, "%s", perr)
	}
	return value.Quote{Body: parsed}, nil
}

// biSysQuote returns its argument expression unevaluated, the way the
// spec's §4.6 note "sys.quote must not evaluate" requires — unlike
// every other builtin here, it never calls env.EvalArg.
func biSysQuote(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Sys.quote", args, 1); err != nil {
		return nil, err
	}
	return value.Quote{Body: args[0]}, nil
}

func biSysSet(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Sys.set", args, 2); err != nil {
		return nil, err
	}
	name, ok := args[0].(value.Symbol)
	if !ok {
		if s, err := env.EvalArg(args[0]); err == nil {
			if str, ok2 := s.(value.String); ok2 {
				name = value.Symbol(str)
			}
		}
	}
	if name == "" {
		return nil, errs.New(errs.KindInvalidArgument, "Sys.set expects a name")
	}
	v, err := env.EvalArg(args[1])
	if err != nil {
		return nil, err
	}
	env.Env().DefineInRoot(string(name), v)
	return v, nil
}

func biSysGet(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Sys.get", args, 1); err != nil {
		return nil, err
	}
	name, err := symbolOrString("Sys.get", args[0], env)
	if err != nil {
		return nil, err
	}
	if v, ok := env.Env().Lookup(name); ok {
		return v, nil
	}
	return value.None{}, nil
}

func biSysIsDefined(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Sys.is_defined", args, 1); err != nil {
		return nil, err
	}
	name, err := symbolOrString("Sys.is_defined", args[0], env)
	if err != nil {
		return nil, err
	}
	return value.Boolean(env.Env().IsDefined(name)), nil
}

func symbolOrString(name string, arg value.Expression, env Env) (string, error) {
	if sym, ok := arg.(value.Symbol); ok {
		return string(sym), nil
	}
	v, err := env.EvalArg(arg)
	if err != nil {
		return "", err
	}
	return asString(name, v)
}
