package builtin

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"lumesh.sh/lumesh/errs"
	"lumesh.sh/lumesh/value"
)

// buildTop registers the unprefixed builtins every script can call
// bare: cd, pwd, print, len, exit, and a handful of others the spec's
// §4.6 library list names as top-level. Grounded on
// _examples/original_source/src/libs/top_lib.rs's cd/pwd and
// _examples/mvdan-sh/interp/builtin.go's per-name switch style (one Go
// function per builtin, each owning its own arity/type checks).
func buildTop() map[string]value.Builtin {
	return builder("",
		fn("cd", "cd [path] - change the logical working directory", biCd),
		fn("pwd", "pwd - print the logical working directory", biPwd),
		fn("print", "print(...) - write Display'd arguments separated by spaces, newline-terminated", biPrint),
		fn("echo", "echo(...) - alias for print", biPrint),
		fn("len", "len(x) - length of a string, list, map, or range", biLen),
		fn("exit", "exit([code]) - terminate the process with code (default 0)", biExit),
		fn("type", "type(x) - the Kind name of x as a string", biType),
		fn("range", "range(end) | range(start, end) | range(start, end, step) - build a Range", biRange),
		fn("sort", "sort(list, [key_fn]) - sort a list, optionally by a key function", biSort),
		fn("unset", "unset(name) - remove a binding from the environment", biUnset),
		fn("export", "export(name, value) - define a binding in the root environment", biExport),
		fn("input", "input([prompt]) - read one line from stdin", biInput),
		fn("quote", "quote(expr) - the unevaluated argument expression, Quote'd", biQuote),
		fn("eval", "eval(x) - evaluate a Quote'd or string expression", biEval),
		fn("assert", "assert(cond, [message]) - raise CustomError if cond is falsy", biAssert),
	)
}

func biCd(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	path := "~"
	if len(args) > 0 {
		v, err := env.EvalArg(args[0])
		if err != nil {
			return nil, err
		}
		path = value.Display(v)
	}
	e := env.Env()
	if path == "-" {
		lwd, _ := e.Lookup("LWD")
		if s, ok := lwd.(value.String); ok {
			path = string(s)
		} else {
			path = "~"
		}
	}
	if cwd, err := os.Getwd(); err == nil {
		e.DefineInRoot("LWD", value.String(cwd))
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			if path == "~" {
				path = home
			} else {
				path = filepath.Join(home, path[2:])
			}
		}
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.Cwd(), path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, errs.New(errs.KindIO, "cd: %s", err)
	}
	if !info.IsDir() {
		return nil, errs.New(errs.KindInvalidArgument, "cd: %s is not a directory", path)
	}
	e.SetCwd(path)
	e.DefineInRoot("PWD", value.String(path))
	return value.None{}, nil
}

func biPwd(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	return value.String(env.Env().Cwd()), nil
}

func biPrint(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	vals, err := env.EvalArgs(args)
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = value.Display(v)
	}
	fmt.Fprintln(env.Stdout(), strings.Join(parts, " "))
	return value.None{}, nil
}

func biLen(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("len", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case value.String:
		return value.Integer(len([]rune(string(x)))), nil
	case value.Bytes:
		return value.Integer(len(x)), nil
	case value.List:
		return value.Integer(x.Len()), nil
	case value.Map:
		return value.Integer(x.Len()), nil
	case value.HMap:
		return value.Integer(x.Len()), nil
	case value.Range:
		return value.Integer(x.Len()), nil
	default:
		return nil, errs.New(errs.KindTypeError, "len is undefined for %s", v.Kind())
	}
}

func biExit(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	code := 0
	if len(args) > 0 {
		v, err := env.EvalArg(args[0])
		if err != nil {
			return nil, err
		}
		i, err := asInt("exit", v)
		if err != nil {
			return nil, err
		}
		code = int(int32(i))
	}
	os.Exit(code)
	return value.None{}, nil
}

func biType(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("type", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	return value.String(v.Kind().String()), nil
}

func biRange(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	vals, err := env.EvalArgs(args)
	if err != nil {
		return nil, err
	}
	var start, end, step int64 = 0, 0, 1
	switch len(vals) {
	case 1:
		end, err = asInt("range", vals[0])
	case 2:
		start, err = asInt("range", vals[0])
		if err == nil {
			end, err = asInt("range", vals[1])
		}
	case 3:
		start, err = asInt("range", vals[0])
		if err == nil {
			end, err = asInt("range", vals[1])
		}
		if err == nil {
			step, err = asInt("range", vals[2])
		}
	default:
		return nil, errs.New(errs.KindArgumentMismatch, "range expects 1 to 3 arguments, got %d", len(vals))
	}
	if err != nil {
		return nil, err
	}
	if step == 0 {
		return nil, errs.New(errs.KindInvalidArgument, "range step must be nonzero")
	}
	return value.Range{Start: start, End: end, Step: step}, nil
}

func biSort(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arityAtLeast("sort", args, 1); err != nil {
		return nil, err
	}
	listVal, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	l, err := asList("sort", listVal)
	if err != nil {
		return nil, err
	}
	items := append([]value.Expression{}, l.Items()...)
	if len(args) == 1 {
		sort.SliceStable(items, func(i, j int) bool {
			c, cerr := value.Compare(items[i], items[j])
			if cerr != nil {
				err = cerr
			}
			return c < 0
		})
	} else {
		keyFnVal, kerr := env.EvalArg(args[1])
		if kerr != nil {
			return nil, kerr
		}
		keyFn, kerr := asCallable("sort", keyFnVal)
		if kerr != nil {
			return nil, kerr
		}
		keys := make([]value.Expression, len(items))
		for i, it := range items {
			keys[i], err = env.Call(keyFn, []value.Expression{it})
			if err != nil {
				return nil, err
			}
		}
		idx := make([]int, len(items))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(i, j int) bool {
			c, cerr := value.Compare(keys[idx[i]], keys[idx[j]])
			if cerr != nil {
				err = cerr
			}
			return c < 0
		})
		sorted := make([]value.Expression, len(items))
		for i, ix := range idx {
			sorted[i] = items[ix]
		}
		items = sorted
	}
	if err != nil {
		return nil, err
	}
	return value.NewList(items), nil
}

func biUnset(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("unset", args, 1); err != nil {
		return nil, err
	}
	name, ok := args[0].(value.Symbol)
	if !ok {
		return nil, errs.New(errs.KindInvalidArgument, "unset expects a bare name")
	}
	env.Env().Undefine(string(name))
	return value.None{}, nil
}

func biExport(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("export", args, 2); err != nil {
		return nil, err
	}
	name, ok := args[0].(value.Symbol)
	if !ok {
		return nil, errs.New(errs.KindInvalidArgument, "export expects a bare name as its first argument")
	}
	v, err := env.EvalArg(args[1])
	if err != nil {
		return nil, err
	}
	env.Env().DefineInRoot(string(name), v)
	return v, nil
}

func biInput(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if len(args) > 0 {
		v, err := env.EvalArg(args[0])
		if err != nil {
			return nil, err
		}
		fmt.Fprint(env.Stdout(), value.Display(v))
	}
	var line string
	_, err := fmt.Fscanln(os.Stdin, &line)
	if err != nil {
		return value.String(""), nil
	}
	return value.String(line), nil
}

func biQuote(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("quote", args, 1); err != nil {
		return nil, err
	}
	return value.Quote{Body: args[0]}, nil
}

func biEval(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("eval", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case value.Quote:
		return env.EvalArg(x.Body)
	default:
		return v, nil
	}
}

func biAssert(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arityAtLeast("assert", args, 1); err != nil {
		return nil, err
	}
	cond, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	if value.Truthy(cond) {
		return value.None{}, nil
	}
	msg := "assertion failed"
	if len(args) > 1 {
		v, err := env.EvalArg(args[1])
		if err != nil {
			return nil, err
		}
		msg = value.Display(v)
	}
	return nil, errs.Custom(msg)
}
