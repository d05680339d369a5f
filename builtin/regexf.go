package builtin

import (
	"regexp"

	"lumesh.sh/lumesh/errs"
	"lumesh.sh/lumesh/value"
)

// buildRegex registers the Regex library around Go's regexp package,
// the way the spec's first-class Regex variant (§3.1) needs a
// compile/match/capture surface exposed to scripts.
func buildRegex() map[string]value.Builtin {
	return builder("Regex",
		fn("new", "Regex.new(pattern) - compile a Regex value", biRegexNew),
		fn("match", "Regex.match(re, s)", biRegexMatch),
		fn("find", "Regex.find(re, s) - first match, or None", biRegexFind),
		fn("find_all", "Regex.find_all(re, s) - List of all matches", biRegexFindAll),
		fn("replace", "Regex.replace(re, s, replacement)", biRegexReplace),
		fn("split", "Regex.split(re, s)", biRegexSplit),
	)
}

func compileRegexArg(name string, v value.Expression) (*regexp.Regexp, error) {
	switch re := v.(type) {
	case value.Regex:
		return re.Compiled, nil
	case value.String:
		compiled, err := regexp.Compile(string(re))
		if err != nil {
			return nil, errs.New(errs.KindInvalidArgument, "%s: invalid pattern: %s", name, err)
		}
		return compiled, nil
	default:
		return nil, errs.New(errs.KindTypeError, "%s expects a Regex or String pattern, found %s", name, v.Kind())
	}
}

func biRegexNew(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Regex.new", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	s, err := asString("Regex.new", v)
	if err != nil {
		return nil, err
	}
	compiled, cerr := regexp.Compile(s)
	if cerr != nil {
		return nil, errs.New(errs.KindInvalidArgument, "Regex.new: invalid pattern: %s", cerr)
	}
	return value.Regex{Source: s, Compiled: compiled}, nil
}

func biRegexMatch(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	re, s, err := regexAndString("Regex.match", args, env)
	if err != nil {
		return nil, err
	}
	return value.Boolean(re.MatchString(s)), nil
}

func biRegexFind(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	re, s, err := regexAndString("Regex.find", args, env)
	if err != nil {
		return nil, err
	}
	m := re.FindString(s)
	if m == "" && !re.MatchString(s) {
		return value.None{}, nil
	}
	return value.String(m), nil
}

func biRegexFindAll(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	re, s, err := regexAndString("Regex.find_all", args, env)
	if err != nil {
		return nil, err
	}
	matches := re.FindAllString(s, -1)
	out := make([]value.Expression, len(matches))
	for i, m := range matches {
		out[i] = value.String(m)
	}
	return value.NewList(out), nil
}

func biRegexReplace(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Regex.replace", args, 3); err != nil {
		return nil, err
	}
	vals, err := env.EvalArgs(args)
	if err != nil {
		return nil, err
	}
	re, err := compileRegexArg("Regex.replace", vals[0])
	if err != nil {
		return nil, err
	}
	s, err := asString("Regex.replace", vals[1])
	if err != nil {
		return nil, err
	}
	repl, err := asString("Regex.replace", vals[2])
	if err != nil {
		return nil, err
	}
	return value.String(re.ReplaceAllString(s, repl)), nil
}

func biRegexSplit(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	re, s, err := regexAndString("Regex.split", args, env)
	if err != nil {
		return nil, err
	}
	parts := re.Split(s, -1)
	out := make([]value.Expression, len(parts))
	for i, p := range parts {
		out[i] = value.String(p)
	}
	return value.NewList(out), nil
}

func regexAndString(name string, args []value.Expression, env Env) (*regexp.Regexp, string, error) {
	if err := arity(name, args, 2); err != nil {
		return nil, "", err
	}
	vals, err := env.EvalArgs(args)
	if err != nil {
		return nil, "", err
	}
	re, err := compileRegexArg(name, vals[0])
	if err != nil {
		return nil, "", err
	}
	s, err := asString(name, vals[1])
	if err != nil {
		return nil, "", err
	}
	return re, s, nil
}
