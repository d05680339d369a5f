// Package builtin implements Lumesh's native-function registry: a
// process-wide table mapping (library, name) pairs to value.Builtin,
// constructed lazily per library on first lookup, the way
// _examples/original_source/src/libs/lazy_module.rs's LazyModule
// caches a module's function table behind a RefCell<HashMap<...>> on
// first access and _examples/mvdan-sh/interp/builtin.go centralizes
// "one Go function per shell builtin" behind a single dispatch point
// (execBuiltin).
package builtin

import (
	"context"
	"io"
	"sync"

	"lumesh.sh/lumesh/lmenv"
	"lumesh.sh/lumesh/value"
)

// Env is the interface a builtin uses to evaluate its raw argument
// expressions, reach the caller's environment, and write to the
// caller's stdio. It is satisfied structurally by *interp.BuiltinEnv
// (package interp is never imported here, avoiding an import cycle:
// interp depends on builtin's registered functions only through the
// value.BuiltinFunc signature, not through this package directly).
type Env interface {
	EvalArg(expr value.Expression) (value.Expression, error)
	EvalArgs(exprs []value.Expression) ([]value.Expression, error)
	Call(fn value.Expression, args []value.Expression) (value.Expression, error)
	Env() *lmenv.Environ
	Stdout() io.Writer
	Stderr() io.Writer
	Context() context.Context
}

// Func is a builtin's native implementation, working against the
// typed Env above instead of value.BuiltinFunc's `env any` so every
// function in this package gets static checking; Wrap adapts one to
// the untyped signature the value.Builtin struct actually stores.
type Func func(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error)

// Wrap adapts a Func to value.BuiltinFunc, type-asserting the `env any`
// parameter back to Env. A builtin invoked with an env that doesn't
// implement Env (which never happens through the normal interp.Runner
// call path) panics loudly rather than silently misbehaving.
func Wrap(fn Func) value.BuiltinFunc {
	return func(args []value.Expression, env any, ctx value.Expression) (value.Expression, error) {
		return fn(args, env.(Env), ctx)
	}
}

// library is one lazily constructed function table, guarded by a
// sync.Once the way a LazyModule's RefCell cache is guarded by
// single-threaded interior mutability in the Rust original — Go's
// sync.Once is the idiomatic replacement for "build once, cache
// forever" under real concurrency.
type library struct {
	once  sync.Once
	build func() map[string]value.Builtin
	funcs map[string]value.Builtin
}

func (l *library) table() map[string]value.Builtin {
	l.once.Do(func() { l.funcs = l.build() })
	return l.funcs
}

// Registry is the process-wide (library, name) -> value.Builtin table.
// Once a Registry is built by New, it is read-only for the life of the
// process except for the one-time lazy population of each library's
// table, matching spec §5's "builtin registry, once populated, is
// read-only" shared-resource policy.
type Registry struct {
	libraries map[string]*library
}

// New builds a Registry with every standard library's lazy builder
// registered (but not yet constructed). Each factory function lives in
// this package's per-library file (math.go, stringlib.go, ...).
func New() *Registry {
	r := &Registry{libraries: make(map[string]*library)}
	r.register("", buildTop)
	r.register("Math", buildMath)
	r.register("String", buildString)
	r.register("List", buildList)
	r.register("Map", buildMap)
	r.register("Fs", buildFs)
	r.register("Os", buildOs)
	r.register("Sys", buildSys)
	r.register("Regex", buildRegex)
	r.register("Time", buildTime)
	r.register("Rand", buildRand)
	r.register("Log", buildLog)
	r.register("Fmt", buildFmt)
	r.register("Parse", buildParse)
	r.register("Into", buildInto)
	r.register("From", buildFrom)
	r.register("Ui", buildUi)
	r.register("Console", buildConsole)
	r.register("Err", buildErr)
	return r
}

func (r *Registry) register(name string, build func() map[string]value.Builtin) {
	r.libraries[name] = &library{build: build}
}

// Lookup resolves a (library, name) pair, constructing that library's
// table on first use. library == "" is the top-level, unprefixed
// table (cd, pwd, print, len, exit, ...). A library name written in
// lower case (err.try) resolves to the capitalized library (Err).
func (r *Registry) Lookup(lib, name string) (value.Builtin, bool) {
	l, ok := r.libraries[lib]
	if !ok && lib != "" && lib[0] >= 'a' && lib[0] <= 'z' {
		l, ok = r.libraries[string(lib[0]-'a'+'A')+lib[1:]]
	}
	if !ok {
		return value.Builtin{}, false
	}
	bi, ok := l.table()[name]
	return bi, ok
}

// builder is a small helper so each per-library file can write a flat
// literal list of (name, Func, doc) triples instead of hand-building a
// map with Wrap calls at every entry.
func builder(lib string, entries ...entry) map[string]value.Builtin {
	out := make(map[string]value.Builtin, len(entries))
	for _, e := range entries {
		out[e.name] = value.Builtin{Name: e.name, Library: lib, Doc: e.doc, Fn: Wrap(e.fn)}
	}
	return out
}

type entry struct {
	name string
	doc  string
	fn   Func
}

func fn(name, doc string, f Func) entry { return entry{name: name, doc: doc, fn: f} }
