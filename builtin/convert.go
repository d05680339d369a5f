package builtin

import (
	"sort"

	"lumesh.sh/lumesh/errs"
	"lumesh.sh/lumesh/value"
)

// toGo converts an Expression into a plain Go value tree (map[string]any,
// []any, string, float64/int64, bool, nil) suitable for encoding/json,
// BurntSushi/toml, or yaml.v3 — each of which round-trips on that shape
// via its own Marshal, satisfying spec §8.2's round-trip laws for
// JSON-/TOML-representable values.
func toGo(v value.Expression) (any, error) {
	switch e := v.(type) {
	case value.None:
		return nil, nil
	case value.Boolean:
		return bool(e), nil
	case value.Integer:
		return int64(e), nil
	case value.Float:
		return float64(e), nil
	case value.String:
		return string(e), nil
	case value.List:
		items := e.Items()
		out := make([]any, len(items))
		for i, it := range items {
			gv, err := toGo(it)
			if err != nil {
				return nil, err
			}
			out[i] = gv
		}
		return out, nil
	case value.Map:
		out := map[string]any{}
		for _, k := range e.Keys() {
			mv, _ := e.Get(k)
			gv, err := toGo(mv)
			if err != nil {
				return nil, err
			}
			out[k] = gv
		}
		return out, nil
	case value.HMap:
		out := map[string]any{}
		var outerErr error
		e.Each(func(k string, mv value.Expression) bool {
			gv, err := toGo(mv)
			if err != nil {
				outerErr = err
				return false
			}
			out[k] = gv
			return true
		})
		if outerErr != nil {
			return nil, outerErr
		}
		return out, nil
	default:
		return nil, errs.New(errs.KindTypeError, "%s is not representable in a structured data format", v.Kind())
	}
}

// fromGo is toGo's inverse, used after unmarshaling into an any via
// json.Unmarshal/toml.Decode/yaml.Unmarshal. JSON/YAML decoders hand
// back map[string]any (not map[any]any), and number types vary by
// decoder (float64 for JSON, int64/float64 for TOML and YAML) — all are
// handled here.
func fromGo(v any) value.Expression {
	switch x := v.(type) {
	case nil:
		return value.None{}
	case bool:
		return value.Boolean(x)
	case int:
		return value.Integer(int64(x))
	case int64:
		return value.Integer(x)
	case float64:
		if x == float64(int64(x)) {
			return value.Float(x)
		}
		return value.Float(x)
	case string:
		return value.String(x)
	case []any:
		items := make([]value.Expression, len(x))
		for i, it := range x {
			items[i] = fromGo(it)
		}
		return value.NewList(items)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := map[string]value.Expression{}
		for _, k := range keys {
			out[k] = fromGo(x[k])
		}
		return value.NewMap(out)
	case map[any]any:
		out := map[string]value.Expression{}
		for k, val := range x {
			out[value.Display(fromGo(k))] = fromGo(val)
		}
		return value.NewMap(out)
	default:
		return value.String(value.Display(value.String("")))
	}
}
