package builtin

import (
	"lumesh.sh/lumesh/errs"
	"lumesh.sh/lumesh/value"
)

// buildList registers the List library: higher-order operations
// (map/filter/reduce) plus the COW structural edits the spec's §3.1
// invariant requires (insert/remove/push never mutate their argument).
func buildList() map[string]value.Builtin {
	return builder("List",
		fn("push", "List.push(list, x) - append x, returning a new list", biListPush),
		fn("insert", "List.insert(list, i, x) - insert x at index i, returning a new list", biListInsert),
		fn("remove", "List.remove(list, i) - remove the element at index i, returning a new list", biListRemove),
		fn("map", "List.map(fn, list) - apply fn to every element", biListMap),
		fn("filter", "List.filter(fn, list) - keep elements where fn is truthy", biListFilter),
		fn("reduce", "List.reduce(fn, init, list) - left fold", biListReduce),
		fn("reverse", "List.reverse(list)", biListReverse),
		fn("flatten", "List.flatten(list) - one level of nested lists", biListFlatten),
		fn("unique", "List.unique(list) - first occurrence of each structurally-equal element", biListUnique),
		fn("contains", "List.contains(list, x)", biListContains),
		fn("first", "List.first(list)", biListFirst),
		fn("last", "List.last(list)", biListLast),
		fn("zip", "List.zip(a, b) - list of 2-element lists", biListZip),
	)
}

func biListPush(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("List.push", args, 2); err != nil {
		return nil, err
	}
	vals, err := env.EvalArgs(args)
	if err != nil {
		return nil, err
	}
	l, err := asList("List.push", vals[0])
	if err != nil {
		return nil, err
	}
	return l.Append(vals[1]), nil
}

func biListInsert(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("List.insert", args, 3); err != nil {
		return nil, err
	}
	vals, err := env.EvalArgs(args)
	if err != nil {
		return nil, err
	}
	l, err := asList("List.insert", vals[0])
	if err != nil {
		return nil, err
	}
	i, err := asInt("List.insert", vals[1])
	if err != nil {
		return nil, err
	}
	n := int(i)
	if n < 0 {
		n += l.Len()
	}
	if n < 0 || n > l.Len() {
		return nil, errs.New(errs.KindIndexOutOfBounds, "List.insert index %d out of bounds", i)
	}
	items := l.Items()
	next := make([]value.Expression, 0, len(items)+1)
	next = append(next, items[:n]...)
	next = append(next, vals[2])
	next = append(next, items[n:]...)
	return value.NewList(next), nil
}

func biListRemove(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("List.remove", args, 2); err != nil {
		return nil, err
	}
	vals, err := env.EvalArgs(args)
	if err != nil {
		return nil, err
	}
	l, err := asList("List.remove", vals[0])
	if err != nil {
		return nil, err
	}
	i, err := asInt("List.remove", vals[1])
	if err != nil {
		return nil, err
	}
	n := int(i)
	if n < 0 {
		n += l.Len()
	}
	if n < 0 || n >= l.Len() {
		return nil, errs.New(errs.KindIndexOutOfBounds, "List.remove index %d out of bounds", i)
	}
	return l.RemoveAt(n), nil
}

func biListMap(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("List.map", args, 2); err != nil {
		return nil, err
	}
	fnVal, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	callee, err := asCallable("List.map", fnVal)
	if err != nil {
		return nil, err
	}
	listVal, err := env.EvalArg(args[1])
	if err != nil {
		return nil, err
	}
	l, err := asList("List.map", listVal)
	if err != nil {
		return nil, err
	}
	items := l.Items()
	out := make([]value.Expression, len(items))
	for i, it := range items {
		out[i], err = env.Call(callee, []value.Expression{it})
		if err != nil {
			return nil, err
		}
	}
	return value.NewList(out), nil
}

func biListFilter(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("List.filter", args, 2); err != nil {
		return nil, err
	}
	fnVal, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	callee, err := asCallable("List.filter", fnVal)
	if err != nil {
		return nil, err
	}
	listVal, err := env.EvalArg(args[1])
	if err != nil {
		return nil, err
	}
	l, err := asList("List.filter", listVal)
	if err != nil {
		return nil, err
	}
	var out []value.Expression
	for _, it := range l.Items() {
		keep, err := env.Call(callee, []value.Expression{it})
		if err != nil {
			return nil, err
		}
		if value.Truthy(keep) {
			out = append(out, it)
		}
	}
	return value.NewList(out), nil
}

func biListReduce(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("List.reduce", args, 3); err != nil {
		return nil, err
	}
	fnVal, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	callee, err := asCallable("List.reduce", fnVal)
	if err != nil {
		return nil, err
	}
	acc, err := env.EvalArg(args[1])
	if err != nil {
		return nil, err
	}
	listVal, err := env.EvalArg(args[2])
	if err != nil {
		return nil, err
	}
	l, err := asList("List.reduce", listVal)
	if err != nil {
		return nil, err
	}
	for _, it := range l.Items() {
		acc, err = env.Call(callee, []value.Expression{acc, it})
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func biListReverse(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("List.reverse", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	l, err := asList("List.reverse", v)
	if err != nil {
		return nil, err
	}
	items := l.Items()
	out := make([]value.Expression, len(items))
	for i, it := range items {
		out[len(items)-1-i] = it
	}
	return value.NewList(out), nil
}

func biListFlatten(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("List.flatten", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	l, err := asList("List.flatten", v)
	if err != nil {
		return nil, err
	}
	var out []value.Expression
	for _, it := range l.Items() {
		if nested, ok := it.(value.List); ok {
			out = append(out, nested.Items()...)
		} else {
			out = append(out, it)
		}
	}
	return value.NewList(out), nil
}

func biListUnique(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("List.unique", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	l, err := asList("List.unique", v)
	if err != nil {
		return nil, err
	}
	var out []value.Expression
	for _, it := range l.Items() {
		dup := false
		for _, seen := range out {
			if value.Equal(it, seen) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, it)
		}
	}
	return value.NewList(out), nil
}

func biListContains(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("List.contains", args, 2); err != nil {
		return nil, err
	}
	vals, err := env.EvalArgs(args)
	if err != nil {
		return nil, err
	}
	l, err := asList("List.contains", vals[0])
	if err != nil {
		return nil, err
	}
	for _, it := range l.Items() {
		if value.Equal(it, vals[1]) {
			return value.Boolean(true), nil
		}
	}
	return value.Boolean(false), nil
}

func biListFirst(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("List.first", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	l, err := asList("List.first", v)
	if err != nil {
		return nil, err
	}
	item, ok := l.Get(0)
	if !ok {
		return value.None{}, nil
	}
	return item, nil
}

func biListLast(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("List.last", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	l, err := asList("List.last", v)
	if err != nil {
		return nil, err
	}
	item, ok := l.Get(-1)
	if !ok {
		return value.None{}, nil
	}
	return item, nil
}

func biListZip(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("List.zip", args, 2); err != nil {
		return nil, err
	}
	vals, err := env.EvalArgs(args)
	if err != nil {
		return nil, err
	}
	a, err := asList("List.zip", vals[0])
	if err != nil {
		return nil, err
	}
	b, err := asList("List.zip", vals[1])
	if err != nil {
		return nil, err
	}
	n := a.Len()
	if b.Len() < n {
		n = b.Len()
	}
	out := make([]value.Expression, n)
	for i := 0; i < n; i++ {
		av, _ := a.Get(i)
		bv, _ := b.Get(i)
		out[i] = value.NewList([]value.Expression{av, bv})
	}
	return value.NewList(out), nil
}
