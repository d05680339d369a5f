package builtin

import (
	"lumesh.sh/lumesh/errs"
	"lumesh.sh/lumesh/value"
)

// buildErr registers the Err library: script-visible recovery from
// *errs.RuntimeError, matching spec §7's "Recovery" contract. Grounded
// on the same per-library lazy-table shape as every other builtin.go
// file; err.try is the one builtin in this file that must not evaluate
// its first argument through the normal eager path, since the whole
// point is to observe whether that evaluation fails.
func buildErr() map[string]value.Builtin {
	return builder("Err",
		fn("try", "Err.try(expr, handler) - evaluate expr; on error, call handler with {message, code, kind, expression}", biErrTry),
		fn("raise", "Err.raise(message) - raise a CustomError with message", biErrRaise),
		fn("code", "Err.code(kind_name) - the stable integer code for a Kind name, or None", biErrCode),
	)
}

// biErrTry evaluates args[0]; on success the result is returned
// unchanged. On failure, a control-flow sentinel (Break/Continue/
// Return) is never caught here — per spec §7, those propagate straight
// through — only a genuine *errs.RuntimeError triggers the handler,
// which receives the map RuntimeError.AsMap builds.
func biErrTry(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Err.try", args, 2); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err == nil {
		return v, nil
	}
	re, ok := err.(*errs.RuntimeError)
	if !ok || re.Kind.IsSentinel() {
		return nil, err
	}
	handler, herr := env.EvalArg(args[1])
	if herr != nil {
		return nil, herr
	}
	return env.Call(handler, []value.Expression{re.AsMap()})
}

func biErrRaise(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Err.raise", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	return nil, errs.Custom(value.Display(v))
}

var errKindsByName = buildErrKindIndex()

func buildErrKindIndex() map[string]errs.Kind {
	out := make(map[string]errs.Kind)
	for k := errs.KindNone; k <= errs.KindInterrupted; k++ {
		out[k.String()] = k
	}
	return out
}

func biErrCode(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Err.code", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	name, err := asString("Err.code", v)
	if err != nil {
		return nil, err
	}
	if k, ok := errKindsByName[name]; ok {
		return value.Integer(k.Code()), nil
	}
	return value.None{}, nil
}
