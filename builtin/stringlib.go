package builtin

import (
	"strings"

	"lumesh.sh/lumesh/errs"
	"lumesh.sh/lumesh/value"
)

// buildString registers the String library (method-form callable as
// `s.trim()` etc., per spec §4.6's "method-call form resolves against
// the library associated with value's variant"), grounded on
// _examples/original_source/src/libs/string_lib.rs / bin/string.rs.
func buildString() map[string]value.Builtin {
	return builder("String",
		fn("len", "String.len(s) - length in runes", strUnary(func(s string) value.Expression {
			return value.Integer(len([]rune(s)))
		})),
		fn("trim", "String.trim(s) - remove leading/trailing whitespace", strUnary(func(s string) value.Expression {
			return value.String(strings.TrimSpace(s))
		})),
		fn("upper", "String.upper(s)", strUnary(func(s string) value.Expression { return value.String(strings.ToUpper(s)) })),
		fn("lower", "String.lower(s)", strUnary(func(s string) value.Expression { return value.String(strings.ToLower(s)) })),
		fn("split", "String.split(s, sep) - split into a List of Strings", biStringSplit),
		fn("join", "String.join(list, sep) - join a List of Strings", biStringJoin),
		fn("replace", "String.replace(s, old, new)", biStringReplace),
		fn("contains", "String.contains(s, sub)", biStringContains),
		fn("starts_with", "String.starts_with(s, prefix)", biStringStartsWith),
		fn("ends_with", "String.ends_with(s, suffix)", biStringEndsWith),
		fn("chars", "String.chars(s) - List of single-character Strings", strUnary(func(s string) value.Expression {
			runes := []rune(s)
			items := make([]value.Expression, len(runes))
			for i, r := range runes {
				items[i] = value.String(string(r))
			}
			return value.NewList(items)
		})),
		fn("repeat", "String.repeat(s, n)", biStringRepeat),
		fn("index_of", "String.index_of(s, sub) - rune index, or -1", biStringIndexOf),
		fn("pad_left", "String.pad_left(s, width, [pad])", biStringPadLeft),
		fn("pad_right", "String.pad_right(s, width, [pad])", biStringPadRight),
	)
}

func strUnary(f func(string) value.Expression) Func {
	return func(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
		if err := arity("String function", args, 1); err != nil {
			return nil, err
		}
		v, err := env.EvalArg(args[0])
		if err != nil {
			return nil, err
		}
		s, err := asString("String function", v)
		if err != nil {
			return nil, err
		}
		return f(s), nil
	}
}

func biStringSplit(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("String.split", args, 2); err != nil {
		return nil, err
	}
	vals, err := env.EvalArgs(args)
	if err != nil {
		return nil, err
	}
	s, err := asString("String.split", vals[0])
	if err != nil {
		return nil, err
	}
	sep, err := asString("String.split", vals[1])
	if err != nil {
		return nil, err
	}
	var parts []string
	if sep == "" {
		for _, r := range s {
			parts = append(parts, string(r))
		}
	} else {
		parts = strings.Split(s, sep)
	}
	items := make([]value.Expression, len(parts))
	for i, p := range parts {
		items[i] = value.String(p)
	}
	return value.NewList(items), nil
}

func biStringJoin(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("String.join", args, 2); err != nil {
		return nil, err
	}
	vals, err := env.EvalArgs(args)
	if err != nil {
		return nil, err
	}
	l, err := asList("String.join", vals[0])
	if err != nil {
		return nil, err
	}
	sep, err := asString("String.join", vals[1])
	if err != nil {
		return nil, err
	}
	parts := make([]string, l.Len())
	for i, it := range l.Items() {
		parts[i] = value.Display(it)
	}
	return value.String(strings.Join(parts, sep)), nil
}

func biStringReplace(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("String.replace", args, 3); err != nil {
		return nil, err
	}
	vals, err := env.EvalArgs(args)
	if err != nil {
		return nil, err
	}
	s, err := asString("String.replace", vals[0])
	if err != nil {
		return nil, err
	}
	old, err := asString("String.replace", vals[1])
	if err != nil {
		return nil, err
	}
	nw, err := asString("String.replace", vals[2])
	if err != nil {
		return nil, err
	}
	return value.String(strings.ReplaceAll(s, old, nw)), nil
}

func biStringContains(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	s, sub, err := twoStrings("String.contains", args, env)
	if err != nil {
		return nil, err
	}
	return value.Boolean(strings.Contains(s, sub)), nil
}

func biStringStartsWith(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	s, sub, err := twoStrings("String.starts_with", args, env)
	if err != nil {
		return nil, err
	}
	return value.Boolean(strings.HasPrefix(s, sub)), nil
}

func biStringEndsWith(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	s, sub, err := twoStrings("String.ends_with", args, env)
	if err != nil {
		return nil, err
	}
	return value.Boolean(strings.HasSuffix(s, sub)), nil
}

func biStringIndexOf(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	s, sub, err := twoStrings("String.index_of", args, env)
	if err != nil {
		return nil, err
	}
	byteIdx := strings.Index(s, sub)
	if byteIdx < 0 {
		return value.Integer(-1), nil
	}
	return value.Integer(len([]rune(s[:byteIdx]))), nil
}

func biStringRepeat(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("String.repeat", args, 2); err != nil {
		return nil, err
	}
	vals, err := env.EvalArgs(args)
	if err != nil {
		return nil, err
	}
	s, err := asString("String.repeat", vals[0])
	if err != nil {
		return nil, err
	}
	n, err := asInt("String.repeat", vals[1])
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, errs.New(errs.KindInvalidArgument, "String.repeat count must not be negative")
	}
	return value.String(strings.Repeat(s, int(n))), nil
}

func biStringPadLeft(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	return pad(args, env, true)
}

func biStringPadRight(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	return pad(args, env, false)
}

func pad(args []value.Expression, env Env, left bool) (value.Expression, error) {
	if err := arityAtLeast("String.pad_left/pad_right", args, 2); err != nil {
		return nil, err
	}
	vals, err := env.EvalArgs(args)
	if err != nil {
		return nil, err
	}
	s, err := asString("String.pad", vals[0])
	if err != nil {
		return nil, err
	}
	width, err := asInt("String.pad", vals[1])
	if err != nil {
		return nil, err
	}
	padChar := " "
	if len(vals) > 2 {
		padChar, err = asString("String.pad", vals[2])
		if err != nil {
			return nil, err
		}
		if padChar == "" {
			padChar = " "
		}
	}
	runes := []rune(s)
	need := int(width) - len(runes)
	if need <= 0 {
		return value.String(s), nil
	}
	filler := strings.Repeat(padChar, need)
	filler = string([]rune(filler)[:need])
	if left {
		return value.String(filler + s), nil
	}
	return value.String(s + filler), nil
}

func twoStrings(name string, args []value.Expression, env Env) (string, string, error) {
	if err := arity(name, args, 2); err != nil {
		return "", "", err
	}
	vals, err := env.EvalArgs(args)
	if err != nil {
		return "", "", err
	}
	a, err := asString(name, vals[0])
	if err != nil {
		return "", "", err
	}
	b, err := asString(name, vals[1])
	if err != nil {
		return "", "", err
	}
	return a, b, nil
}
