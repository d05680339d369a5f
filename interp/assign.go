package interp

import (
	"context"

	"lumesh.sh/lumesh/errs"
	"lumesh.sh/lumesh/value"
)

// evalAssign implements Assign's three target shapes: a Symbol defines
// or updates a binding; an Index writes through into a container and
// rebinds its Symbol/Index owner (COW, so the owner must be rebound);
// a List destructures the assigned value element-wise.
func (r *Runner) evalAssign(ctx context.Context, a value.Assign, st State) (value.Expression, error) {
	if a.Compound != "" {
		if sym, ok := a.Target.(value.Symbol); ok && !r.Env.IsDefined(string(sym)) {
			r.Env.DefineLocal(string(sym), value.Integer(0))
		}
	}
	val, err := r.Eval(ctx, a.Value, st|StateInAssign)
	if err != nil {
		return nil, err
	}

	switch target := a.Target.(type) {
	case value.Symbol:
		r.Env.Define(string(target), val)
		return val, nil
	case value.List:
		return val, r.destructure(target, val)
	case value.Index:
		return val, r.assignIndex(ctx, target, val, st)
	default:
		return nil, errs.New(errs.KindInvalidArgument, "invalid assignment target %s", a.Target.Kind())
	}
}

func (r *Runner) destructure(targets value.List, val value.Expression) error {
	items, ok := val.(value.List)
	if !ok {
		return errs.New(errs.KindTypeError, "cannot destructure %s into a list pattern", val.Kind())
	}
	targetItems := targets.Items()
	valItems := items.Items()
	if len(targetItems) != len(valItems) {
		return errs.New(errs.KindArgumentMismatch, "destructuring pattern expects %d values, got %d", len(targetItems), len(valItems))
	}
	for i, t := range targetItems {
		sym, ok := t.(value.Symbol)
		if !ok {
			return errs.New(errs.KindInvalidArgument, "destructuring target must be a name, found %s", t.Kind())
		}
		r.Env.Define(string(sym), valItems[i])
	}
	return nil
}

// assignIndex writes val into container[key] and rebinds whatever
// Symbol ultimately owns the container, since List/Map/HMap are
// copy-on-write handles: mutating a copy never affects the original
// binding unless that binding is itself replaced.
func (r *Runner) assignIndex(ctx context.Context, idx value.Index, val value.Expression, st State) error {
	container, err := r.Eval(ctx, idx.Container, st)
	if err != nil {
		return err
	}
	key, err := r.Eval(ctx, idx.Key, st)
	if err != nil {
		return err
	}
	updated, err := withIndex(container, key, val)
	if err != nil {
		return err
	}
	return r.rebind(ctx, idx.Container, updated, st)
}

// rebind writes a new container value back through whatever expression
// produced it: a Symbol rebinds directly, and a nested Index recurses
// so `a@0@1 = x` rewrites both levels of the COW chain.
func (r *Runner) rebind(ctx context.Context, target value.Expression, val value.Expression, st State) error {
	switch t := target.(type) {
	case value.Symbol:
		r.Env.Define(string(t), val)
		return nil
	case value.Index:
		return r.assignIndex(ctx, t, val, st)
	default:
		return errs.New(errs.KindInvalidArgument, "cannot assign through %s", target.Kind())
	}
}

func withIndex(container, key, val value.Expression) (value.Expression, error) {
	switch c := container.(type) {
	case value.List:
		i, ok := key.(value.Integer)
		if !ok {
			return nil, errs.New(errs.KindTypeError, "list index must be an integer")
		}
		n := int(i)
		if n < 0 {
			n += c.Len()
		}
		if n < 0 || n >= c.Len() {
			return nil, errs.New(errs.KindIndexOutOfBounds, "index %d out of bounds for list of length %d", i, c.Len())
		}
		return c.With(n, val), nil
	case value.Map:
		k, ok := key.(value.String)
		if !ok {
			return nil, errs.New(errs.KindTypeError, "map key must be a string")
		}
		return c.With(string(k), val), nil
	case value.HMap:
		k, ok := key.(value.String)
		if !ok {
			return nil, errs.New(errs.KindTypeError, "map key must be a string")
		}
		return c.With(string(k), val), nil
	default:
		return nil, errs.New(errs.KindTypeError, "%s does not support indexed assignment", container.Kind())
	}
}
