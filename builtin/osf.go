package builtin

import (
	"os"
	"runtime"

	"lumesh.sh/lumesh/value"
)

// buildOs registers the Os library: environment variable access and
// host introspection, kept separate from Sys (runtime/interpreter
// introspection) the way the spec's §4.6 library list separates them.
func buildOs() map[string]value.Builtin {
	return builder("Os",
		fn("getenv", "Os.getenv(name, [default])", biOsGetenv),
		fn("setenv", "Os.setenv(name, value)", biOsSetenv),
		fn("name", "Os.name() - the GOOS name", func(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
			return value.String(runtime.GOOS), nil
		}),
		fn("arch", "Os.arch() - the GOARCH name", func(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
			return value.String(runtime.GOARCH), nil
		}),
		fn("hostname", "Os.hostname()", biOsHostname),
		fn("args", "Os.args() - process argv", biOsArgs),
	)
}

func biOsGetenv(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arityAtLeast("Os.getenv", args, 1); err != nil {
		return nil, err
	}
	vals, err := env.EvalArgs(args)
	if err != nil {
		return nil, err
	}
	name, err := asString("Os.getenv", vals[0])
	if err != nil {
		return nil, err
	}
	if v, ok := os.LookupEnv(name); ok {
		return value.String(v), nil
	}
	if len(vals) > 1 {
		return vals[1], nil
	}
	return value.None{}, nil
}

func biOsSetenv(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Os.setenv", args, 2); err != nil {
		return nil, err
	}
	vals, err := env.EvalArgs(args)
	if err != nil {
		return nil, err
	}
	name, err := asString("Os.setenv", vals[0])
	if err != nil {
		return nil, err
	}
	os.Setenv(name, value.Display(vals[1]))
	return value.None{}, nil
}

func biOsHostname(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	h, err := os.Hostname()
	if err != nil {
		return value.String(""), nil
	}
	return value.String(h), nil
}

func biOsArgs(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if v, ok := env.Env().Lookup("argv"); ok {
		return v, nil
	}
	return value.NewList(nil), nil
}
