package value

import "strings"

// listBody is the shared, immutable backing store for a List. Handles
// (List values) share a *listBody cheaply; any structural edit
// allocates a new body and returns a new List, so existing handles
// never observe a mutation (copy-on-write, per the spec's container
// invariant).
type listBody struct {
	items []Expression
}

// List is a shared, ordered sequence of Expression. The zero value is
// an empty list.
type List struct {
	body *listBody
}

func NewList(items []Expression) List {
	return List{body: &listBody{items: items}}
}

func (List) Kind() Kind { return KindList }

func (l List) Len() int {
	if l.body == nil {
		return 0
	}
	return len(l.body.items)
}

// Items returns the underlying slice. Callers must not mutate it;
// treat it as read-only, matching the COW contract.
func (l List) Items() []Expression {
	if l.body == nil {
		return nil
	}
	return l.body.items
}

func (l List) Get(i int) (Expression, bool) {
	items := l.Items()
	if i < 0 {
		i += len(items)
	}
	if i < 0 || i >= len(items) {
		return nil, false
	}
	return items[i], true
}

// With returns a new List with item i replaced by v. i must already be
// in range.
func (l List) With(i int, v Expression) List {
	items := l.Items()
	next := make([]Expression, len(items))
	copy(next, items)
	if i < 0 {
		i += len(next)
	}
	next[i] = v
	return NewList(next)
}

// Append returns a new List with vs appended.
func (l List) Append(vs ...Expression) List {
	items := l.Items()
	next := make([]Expression, 0, len(items)+len(vs))
	next = append(next, items...)
	next = append(next, vs...)
	return NewList(next)
}

// RemoveAt returns a new List with the element at i removed.
func (l List) RemoveAt(i int) List {
	items := l.Items()
	if i < 0 {
		i += len(items)
	}
	next := make([]Expression, 0, len(items)-1)
	next = append(next, items[:i]...)
	next = append(next, items[i+1:]...)
	return NewList(next)
}

// Slice returns a new List containing the elements at the given
// indices, in order; used by the evaluator's Slice operator.
func (l List) Slice(indices []int) List {
	items := l.Items()
	next := make([]Expression, 0, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(items) {
			next = append(next, items[i])
		}
	}
	return NewList(next)
}

func (l List) String() string {
	items := l.Items()
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = Display(it)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
