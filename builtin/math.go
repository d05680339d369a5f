package builtin

import (
	"math"

	"lumesh.sh/lumesh/errs"
	"lumesh.sh/lumesh/value"
)

// buildMath registers the Math library, grounded on
// _examples/original_source/src/libs (the math-function shape) and the
// spec's §4.6 library list.
func buildMath() map[string]value.Builtin {
	return builder("Math",
		fn("abs", "Math.abs(x) - absolute value", mathUnary(math.Abs, func(i int64) int64 {
			if i < 0 {
				return -i
			}
			return i
		})),
		fn("sqrt", "Math.sqrt(x) - square root", mathFloatUnary(math.Sqrt)),
		fn("floor", "Math.floor(x) - round toward negative infinity", mathFloatUnary(math.Floor)),
		fn("ceil", "Math.ceil(x) - round toward positive infinity", mathFloatUnary(math.Ceil)),
		fn("round", "Math.round(x) - round to nearest integer", mathFloatUnary(math.Round)),
		fn("sin", "Math.sin(x)", mathFloatUnary(math.Sin)),
		fn("cos", "Math.cos(x)", mathFloatUnary(math.Cos)),
		fn("tan", "Math.tan(x)", mathFloatUnary(math.Tan)),
		fn("log", "Math.log(x) - natural logarithm", mathFloatUnary(math.Log)),
		fn("log2", "Math.log2(x)", mathFloatUnary(math.Log2)),
		fn("log10", "Math.log10(x)", mathFloatUnary(math.Log10)),
		fn("min", "Math.min(a, b, ...) - the smallest argument", mathMinMax(true)),
		fn("max", "Math.max(a, b, ...) - the largest argument", mathMinMax(false)),
		fn("pow", "Math.pow(base, exp)", biMathPow),
		fn("pi", "Math.pi() - the constant pi", func(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
			return value.Float(math.Pi), nil
		}),
	)
}

func mathFloatUnary(f func(float64) float64) Func {
	return func(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
		if err := arity("Math function", args, 1); err != nil {
			return nil, err
		}
		v, err := env.EvalArg(args[0])
		if err != nil {
			return nil, err
		}
		x, err := asFloat("Math function", v)
		if err != nil {
			return nil, err
		}
		return value.Float(f(x)), nil
	}
}

func mathUnary(ff func(float64) float64, fi func(int64) int64) Func {
	return func(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
		if err := arity("Math.abs", args, 1); err != nil {
			return nil, err
		}
		v, err := env.EvalArg(args[0])
		if err != nil {
			return nil, err
		}
		if i, ok := v.(value.Integer); ok {
			return value.Integer(fi(int64(i))), nil
		}
		x, err := asFloat("Math.abs", v)
		if err != nil {
			return nil, err
		}
		return value.Float(ff(x)), nil
	}
}

func mathMinMax(wantMin bool) Func {
	return func(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
		if err := arityAtLeast("Math.min/max", args, 1); err != nil {
			return nil, err
		}
		vals, err := env.EvalArgs(args)
		if err != nil {
			return nil, err
		}
		best := vals[0]
		for _, v := range vals[1:] {
			c, cerr := value.Compare(v, best)
			if cerr != nil {
				return nil, errs.New(errs.KindTypeError, "Math.min/max requires ordered arguments")
			}
			if (wantMin && c < 0) || (!wantMin && c > 0) {
				best = v
			}
		}
		return best, nil
	}
}

func biMathPow(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Math.pow", args, 2); err != nil {
		return nil, err
	}
	vals, err := env.EvalArgs(args)
	if err != nil {
		return nil, err
	}
	base, err := asFloat("Math.pow", vals[0])
	if err != nil {
		return nil, err
	}
	exp, err := asFloat("Math.pow", vals[1])
	if err != nil {
		return nil, err
	}
	return value.Float(math.Pow(base, exp)), nil
}
