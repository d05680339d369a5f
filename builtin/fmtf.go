package builtin

import (
	"fmt"

	"lumesh.sh/lumesh/value"
)

// buildFmt registers the Fmt library: Display-style string building
// for scripts that need more control than template interpolation.
func buildFmt() map[string]value.Builtin {
	return builder("Fmt",
		fn("str", "Fmt.str(...) - concatenate Display'd arguments", biFmtStr),
		fn("debug", "Fmt.debug(x) - the Go-style %#v-ish debug form", biFmtDebug),
	)
}

func biFmtStr(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	vals, err := env.EvalArgs(args)
	if err != nil {
		return nil, err
	}
	out := ""
	for _, v := range vals {
		out += value.Display(v)
	}
	return value.String(out), nil
}

func biFmtDebug(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Fmt.debug", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	return value.String(fmt.Sprintf("%s(%s)", v.Kind(), v.String())), nil
}
