package interp

import (
	"context"
	"io"

	"lumesh.sh/lumesh/errs"
	"lumesh.sh/lumesh/lmenv"
	"lumesh.sh/lumesh/value"
)

// evalApply evaluates the callee, then dispatches on whether it is a
// Lambda (user-defined) or a Builtin (native), matching the spec's
// "Func resolves to exactly one of these two callable shapes"
// contract.
func (r *Runner) evalApply(ctx context.Context, a value.Apply, st State) (value.Expression, error) {
	callee, err := r.Eval(ctx, a.Func, st)
	if err != nil {
		return nil, err
	}
	switch fn := callee.(type) {
	case value.Lambda:
		return r.callLambda(ctx, fn, a.Args, st)
	case value.Builtin:
		return r.callBuiltin(ctx, fn, a.Args, st)
	default:
		return nil, errs.New(errs.KindNotCallable, "%s is not callable", callee.Kind())
	}
}

// callLambda evaluates each argument eagerly, binds them into a fresh
// scope forked from the lambda's captured environment (not the caller's
// environment — lexical, not dynamic, scoping), and evaluates the body.
// A Return sentinel unwinds to exactly this call; a Break/Continue
// sentinel escaping the lambda body is returned unchanged to the
// caller.
func (r *Runner) callLambda(ctx context.Context, fn value.Lambda, argExprs []value.Expression, st State) (value.Expression, error) {
	args := make([]value.Expression, len(argExprs))
	for i, ae := range argExprs {
		v, err := r.Eval(ctx, ae, st)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	captured, _ := fn.Captured.(*lmenv.Environ)
	if captured == nil {
		captured = r.Env.Root()
	}
	callEnv := captured.Fork()

	if fn.Rest == "" && len(args) != len(fn.Params) {
		return nil, errs.New(errs.KindArgumentMismatch, "expected %d arguments, got %d", len(fn.Params), len(args))
	}
	if fn.Rest != "" && len(args) < len(fn.Params) {
		return nil, errs.New(errs.KindArgumentMismatch, "expected at least %d arguments, got %d", len(fn.Params), len(args))
	}
	for i, p := range fn.Params {
		callEnv.DefineLocal(p, args[i])
	}
	if fn.Rest != "" {
		callEnv.DefineLocal(fn.Rest, value.NewList(args[len(fn.Params):]))
	}

	child := r.fork()
	child.Env = callEnv
	v, err := child.Eval(ctx, fn.Body, 0)
	if err != nil {
		if re, ok := err.(*errs.RuntimeError); ok && re.Kind == errs.KindReturn {
			if re.Value == nil {
				return value.None{}, nil
			}
			return re.Value, nil
		}
		return nil, err
	}
	return v, nil
}

// callBuiltin hands argument expressions to the native function
// unevaluated, since some builtins (err.try, quote) need control over
// evaluation order or need
// the raw expression for diagnostics; most builtins evaluate args[i]
// themselves via the env they receive.
func (r *Runner) callBuiltin(ctx context.Context, fn value.Builtin, argExprs []value.Expression, st State) (value.Expression, error) {
	if fn.Fn == nil {
		return nil, errs.New(errs.KindNotCallable, "%s.%s has no implementation", fn.Library, fn.Name)
	}
	bridge := &BuiltinEnv{Runner: r, Ctx: ctx, State: st}
	return fn.Fn(argExprs, bridge, nil)
}

// BuiltinEnv is the concrete type value.BuiltinFunc's `env any` argument
// carries; it lets package builtin evaluate argument expressions,
// access the environment, and reach Stdout/Stderr without importing
// package interp's Runner (avoiding an import cycle) by instead calling
// back through this exported shim.
type BuiltinEnv struct {
	Runner *Runner
	Ctx    context.Context
	State  State
}

// EvalArg evaluates one of the builtin's raw argument expressions.
func (b *BuiltinEnv) EvalArg(expr value.Expression) (value.Expression, error) {
	return b.Runner.Eval(b.Ctx, expr, b.State)
}

// EvalArgs evaluates every argument expression in order.
func (b *BuiltinEnv) EvalArgs(exprs []value.Expression) ([]value.Expression, error) {
	out := make([]value.Expression, len(exprs))
	for i, e := range exprs {
		v, err := b.EvalArg(e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Call invokes fn (a Lambda or Builtin value, already evaluated) with
// already-evaluated argument values, for builtins like List.map that
// need to call back into a user-supplied callback.
func (b *BuiltinEnv) Call(fn value.Expression, args []value.Expression) (value.Expression, error) {
	switch f := fn.(type) {
	case value.Lambda:
		wrapped := make([]value.Expression, len(args))
		for i, v := range args {
			wrapped[i] = value.Quote{Body: v}
		}
		return b.Runner.callLambda(b.Ctx, f, wrapped, b.State)
	case value.Builtin:
		wrapped := make([]value.Expression, len(args))
		for i, v := range args {
			wrapped[i] = value.Quote{Body: v}
		}
		return b.Runner.callBuiltin(b.Ctx, f, wrapped, b.State)
	default:
		return nil, errs.New(errs.KindNotCallable, "%s is not callable", fn.Kind())
	}
}

// Env exposes the caller's lexical environment to builtins that need to
// read or define variables (e.g. `unset`, `export`).
func (b *BuiltinEnv) Env() *lmenv.Environ { return b.Runner.Env }

// Stdout and Stderr expose the Runner's output streams.
func (b *BuiltinEnv) Stdout() io.Writer { return b.Runner.Stdout }
func (b *BuiltinEnv) Stderr() io.Writer { return b.Runner.Stderr }

// Context returns the cancellation context in effect for this call.
func (b *BuiltinEnv) Context() context.Context { return b.Ctx }
