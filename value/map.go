package value

import (
	"sort"
	"strings"
)

// mapBody is the shared, immutable backing store for a Map. Iteration
// order is always sorted by key, per the spec: "key order is
// insertion-independent; iteration is sorted".
type mapBody struct {
	entries map[string]Expression
}

// Map is a shared, ordered mapping from string keys to Expression
// values, iterated in sorted-key order.
type Map struct {
	body *mapBody
}

func NewMap(entries map[string]Expression) Map {
	if entries == nil {
		entries = map[string]Expression{}
	}
	return Map{body: &mapBody{entries: entries}}
}

func (Map) Kind() Kind { return KindMap }

func (m Map) Len() int {
	if m.body == nil {
		return 0
	}
	return len(m.body.entries)
}

func (m Map) Get(key string) (Expression, bool) {
	if m.body == nil {
		return nil, false
	}
	v, ok := m.body.entries[key]
	return v, ok
}

// Keys returns the map's keys in sorted order.
func (m Map) Keys() []string {
	if m.body == nil {
		return nil
	}
	keys := make([]string, 0, len(m.body.entries))
	for k := range m.body.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// With returns a new Map with key set to v.
func (m Map) With(key string, v Expression) Map {
	next := make(map[string]Expression, m.Len()+1)
	if m.body != nil {
		for k, val := range m.body.entries {
			next[k] = val
		}
	}
	next[key] = v
	return NewMap(next)
}

// Without returns a new Map with key removed.
func (m Map) Without(key string) Map {
	next := make(map[string]Expression, m.Len())
	if m.body != nil {
		for k, val := range m.body.entries {
			if k != key {
				next[k] = val
			}
		}
	}
	return NewMap(next)
}

// Merge returns a new Map agreeing with other on overlapping keys and
// with m elsewhere, i.e. other wins on conflicts.
func (m Map) Merge(other Map) Map {
	next := make(map[string]Expression, m.Len()+other.Len())
	if m.body != nil {
		for k, v := range m.body.entries {
			next[k] = v
		}
	}
	if other.body != nil {
		for k, v := range other.body.entries {
			next[k] = v
		}
	}
	return NewMap(next)
}

func (m Map) String() string {
	keys := m.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		v, _ := m.Get(k)
		parts[i] = k + ": " + Display(v)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// HMap is an unordered mapping variant, chosen when lookup speed
// matters more than a stable iteration order. Its Each iterates in Go's
// randomized map order, by design: callers needing determinism should
// use Map instead.
type HMap struct {
	body *mapBody
}

func NewHMap(entries map[string]Expression) HMap {
	if entries == nil {
		entries = map[string]Expression{}
	}
	return HMap{body: &mapBody{entries: entries}}
}

func (HMap) Kind() Kind { return KindHMap }

func (h HMap) Len() int {
	if h.body == nil {
		return 0
	}
	return len(h.body.entries)
}

func (h HMap) Get(key string) (Expression, bool) {
	if h.body == nil {
		return nil, false
	}
	v, ok := h.body.entries[key]
	return v, ok
}

func (h HMap) With(key string, v Expression) HMap {
	next := make(map[string]Expression, h.Len()+1)
	if h.body != nil {
		for k, val := range h.body.entries {
			next[k] = val
		}
	}
	next[key] = v
	return NewHMap(next)
}

func (h HMap) Without(key string) HMap {
	next := make(map[string]Expression, h.Len())
	if h.body != nil {
		for k, val := range h.body.entries {
			if k != key {
				next[k] = val
			}
		}
	}
	return NewHMap(next)
}

// Each calls fn for every entry in unspecified order, stopping early if
// fn returns false.
func (h HMap) Each(fn func(key string, v Expression) bool) {
	if h.body == nil {
		return
	}
	for k, v := range h.body.entries {
		if !fn(k, v) {
			return
		}
	}
}

func (h HMap) String() string {
	parts := make([]string, 0, h.Len())
	h.Each(func(k string, v Expression) bool {
		parts = append(parts, k+": "+Display(v))
		return true
	})
	return "{" + strings.Join(parts, ", ") + "}"
}
