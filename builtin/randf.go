package builtin

import (
	"math/rand"

	"lumesh.sh/lumesh/errs"
	"lumesh.sh/lumesh/value"
)

// buildRand registers the Rand library around math/rand, matching
// _examples/original_source/src/libs/bin/rand_lib.rs's surface
// (integer range, float, and choice-from-list).
func buildRand() map[string]value.Builtin {
	return builder("Rand",
		fn("int", "Rand.int(lo, hi) - random integer in [lo, hi)", biRandInt),
		fn("float", "Rand.float() - random Float in [0, 1)", func(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
			return value.Float(rand.Float64()), nil
		}),
		fn("choice", "Rand.choice(list) - a uniformly random element", biRandChoice),
		fn("shuffle", "Rand.shuffle(list) - a new list in random order", biRandShuffle),
	)
}

func biRandInt(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Rand.int", args, 2); err != nil {
		return nil, err
	}
	vals, err := env.EvalArgs(args)
	if err != nil {
		return nil, err
	}
	lo, err := asInt("Rand.int", vals[0])
	if err != nil {
		return nil, err
	}
	hi, err := asInt("Rand.int", vals[1])
	if err != nil {
		return nil, err
	}
	if hi <= lo {
		return nil, errs.New(errs.KindInvalidArgument, "Rand.int requires hi > lo")
	}
	return value.Integer(lo + rand.Int63n(hi-lo)), nil
}

func biRandChoice(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Rand.choice", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	l, err := asList("Rand.choice", v)
	if err != nil {
		return nil, err
	}
	if l.Len() == 0 {
		return nil, errs.New(errs.KindInvalidArgument, "Rand.choice requires a non-empty list")
	}
	item, _ := l.Get(rand.Intn(l.Len()))
	return item, nil
}

func biRandShuffle(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Rand.shuffle", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	l, err := asList("Rand.shuffle", v)
	if err != nil {
		return nil, err
	}
	items := append([]value.Expression{}, l.Items()...)
	rand.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	return value.NewList(items), nil
}
