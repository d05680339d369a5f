package builtin

import "lumesh.sh/lumesh/value"

// buildMap registers the Map library, including the S3 scenario's
// Map.map(key_fn, value_fn, map) and the §8.5 property-checklist's
// Map.merge (right-biased on overlapping keys).
func buildMap() map[string]value.Builtin {
	return builder("Map",
		fn("keys", "Map.keys(m) - sorted List of keys", biMapKeys),
		fn("values", "Map.values(m) - List of values in key-sorted order", biMapValues),
		fn("map", "Map.map(key_fn, value_fn, m) - transform every entry", biMapMap),
		fn("filter", "Map.filter(fn, m) - keep entries where fn(key, value) is truthy", biMapFilter),
		fn("merge", "Map.merge(a, b) - union, b wins on overlapping keys", biMapMerge),
		fn("has", "Map.has(m, key)", biMapHas),
		fn("remove", "Map.remove(m, key)", biMapRemove),
		fn("insert", "Map.insert(m, key, value)", biMapInsert),
		fn("items", "Map.items(m) - List of [key, value] 2-element Lists", biMapItems),
	)
}

func biMapKeys(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Map.keys", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	m, err := asMap("Map.keys", v)
	if err != nil {
		return nil, err
	}
	keys := m.Keys()
	out := make([]value.Expression, len(keys))
	for i, k := range keys {
		out[i] = value.String(k)
	}
	return value.NewList(out), nil
}

func biMapValues(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Map.values", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	m, err := asMap("Map.values", v)
	if err != nil {
		return nil, err
	}
	keys := m.Keys()
	out := make([]value.Expression, len(keys))
	for i, k := range keys {
		out[i], _ = m.Get(k)
	}
	return value.NewList(out), nil
}

func biMapMap(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Map.map", args, 3); err != nil {
		return nil, err
	}
	keyFnVal, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	keyFn, err := asCallable("Map.map", keyFnVal)
	if err != nil {
		return nil, err
	}
	valFnVal, err := env.EvalArg(args[1])
	if err != nil {
		return nil, err
	}
	valFn, err := asCallable("Map.map", valFnVal)
	if err != nil {
		return nil, err
	}
	mapVal, err := env.EvalArg(args[2])
	if err != nil {
		return nil, err
	}
	m, err := asMap("Map.map", mapVal)
	if err != nil {
		return nil, err
	}
	out := map[string]value.Expression{}
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		newKeyExpr, err := env.Call(keyFn, []value.Expression{value.String(k)})
		if err != nil {
			return nil, err
		}
		newVal, err := env.Call(valFn, []value.Expression{v})
		if err != nil {
			return nil, err
		}
		out[value.Display(newKeyExpr)] = newVal
	}
	return value.NewMap(out), nil
}

func biMapFilter(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Map.filter", args, 2); err != nil {
		return nil, err
	}
	fnVal, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	callee, err := asCallable("Map.filter", fnVal)
	if err != nil {
		return nil, err
	}
	mapVal, err := env.EvalArg(args[1])
	if err != nil {
		return nil, err
	}
	m, err := asMap("Map.filter", mapVal)
	if err != nil {
		return nil, err
	}
	out := map[string]value.Expression{}
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		keep, err := env.Call(callee, []value.Expression{value.String(k), v})
		if err != nil {
			return nil, err
		}
		if value.Truthy(keep) {
			out[k] = v
		}
	}
	return value.NewMap(out), nil
}

func biMapMerge(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Map.merge", args, 2); err != nil {
		return nil, err
	}
	vals, err := env.EvalArgs(args)
	if err != nil {
		return nil, err
	}
	a, err := asMap("Map.merge", vals[0])
	if err != nil {
		return nil, err
	}
	b, err := asMap("Map.merge", vals[1])
	if err != nil {
		return nil, err
	}
	return a.Merge(b), nil
}

func biMapHas(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Map.has", args, 2); err != nil {
		return nil, err
	}
	vals, err := env.EvalArgs(args)
	if err != nil {
		return nil, err
	}
	m, err := asMap("Map.has", vals[0])
	if err != nil {
		return nil, err
	}
	key, err := asString("Map.has", vals[1])
	if err != nil {
		return nil, err
	}
	_, ok := m.Get(key)
	return value.Boolean(ok), nil
}

func biMapRemove(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Map.remove", args, 2); err != nil {
		return nil, err
	}
	vals, err := env.EvalArgs(args)
	if err != nil {
		return nil, err
	}
	m, err := asMap("Map.remove", vals[0])
	if err != nil {
		return nil, err
	}
	key, err := asString("Map.remove", vals[1])
	if err != nil {
		return nil, err
	}
	return m.Without(key), nil
}

func biMapInsert(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Map.insert", args, 3); err != nil {
		return nil, err
	}
	vals, err := env.EvalArgs(args)
	if err != nil {
		return nil, err
	}
	m, err := asMap("Map.insert", vals[0])
	if err != nil {
		return nil, err
	}
	key, err := asString("Map.insert", vals[1])
	if err != nil {
		return nil, err
	}
	return m.With(key, vals[2]), nil
}

func biMapItems(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Map.items", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	m, err := asMap("Map.items", v)
	if err != nil {
		return nil, err
	}
	keys := m.Keys()
	out := make([]value.Expression, len(keys))
	for i, k := range keys {
		val, _ := m.Get(k)
		out[i] = value.NewList([]value.Expression{value.String(k), val})
	}
	return value.NewList(out), nil
}
