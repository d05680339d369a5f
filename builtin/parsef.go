package builtin

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"lumesh.sh/lumesh/errs"
	"lumesh.sh/lumesh/syntax"
	"lumesh.sh/lumesh/value"
)

// buildParse registers the Parse library: text -> value.Expression
// decoders for the structured-data formats the spec's round-trip laws
// name (json, toml) plus yaml, grounded on _examples/titpetric-atkins's
// gopkg.in/yaml.v3 use. JSON itself goes through stdlib encoding/json,
// which the teacher (mvdan-sh) already depends on in several of its own
// files (syntax/typedjson/json.go, cmd/shfmt/json.go), so no third-party
// JSON library is substituted in.
func buildParse() map[string]value.Builtin {
	return builder("Parse",
		fn("json", "Parse.json(text) - decode a JSON document into a value", parseWith(func(b []byte) (any, error) {
			var v any
			err := json.Unmarshal(b, &v)
			return v, err
		})),
		fn("toml", "Parse.toml(text) - decode a TOML document into a Map", parseWith(func(b []byte) (any, error) {
			var v map[string]any
			err := toml.Unmarshal(b, &v)
			return v, err
		})),
		fn("yaml", "Parse.yaml(text) - decode a YAML document into a value", parseWith(func(b []byte) (any, error) {
			var v any
			err := yaml.Unmarshal(b, &v)
			return v, err
		})),
		fn("int", "Parse.int(text) - parse a string as an Integer", biParseInt),
		fn("float", "Parse.float(text) - parse a string as a Float", biParseFloat),
		fn("script", "Parse.script(text) - parse source text into a Quote'd Expression, without evaluating it", biParseScript),
	)
}

func parseWith(decode func([]byte) (any, error)) Func {
	return func(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
		if err := arity("Parse function", args, 1); err != nil {
			return nil, err
		}
		v, err := env.EvalArg(args[0])
		if err != nil {
			return nil, err
		}
		text, err := asString("Parse function", v)
		if err != nil {
			return nil, err
		}
		decoded, err := decode([]byte(text))
		if err != nil {
			return nil, errs.New(errs.KindInvalidArgument, "parse failed: %s", err)
		}
		return fromGo(decoded), nil
	}
}

func biParseInt(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Parse.int", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	s, err := asString("Parse.int", v)
	if err != nil {
		return nil, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, errs.New(errs.KindInvalidArgument, "Parse.int: %s is not an integer", s)
	}
	return value.Integer(n), nil
}

func biParseFloat(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Parse.float", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	s, err := asString("Parse.float", v)
	if err != nil {
		return nil, err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, errs.New(errs.KindInvalidArgument, "Parse.float: %s is not a number", s)
	}
	return value.Float(f), nil
}

func biParseScript(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Parse.script", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	text, err := asString("Parse.script", v)
	if err != nil {
		return nil, err
	}
	expr, perr := syntax.Parse([]byte(text), "<parse.script>")
	if perr != nil {
		return nil, errs.New(errs.KindSyntaxError, "%s", perr)
	}
	return value.Quote{Body: expr}, nil
}
