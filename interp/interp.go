// Package interp implements Lumesh's tree-walking evaluator: it walks
// an Expression tree built by package syntax and reduces it either to
// a value-shaped Expression or a side effect (running a Command).
//
// The shape follows mvdan-sh's own Runner
// (_examples/mvdan-sh/interp/api.go, runner.go): a single struct
// carrying mutable evaluation state, constructed through functional
// options, with one big recursive "eval a node" method at its core and
// dedicated files for operators, assignment, and external-command
// execution.
package interp

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"lumesh.sh/lumesh/errs"
	"lumesh.sh/lumesh/lmenv"
	"lumesh.sh/lumesh/template"
	"lumesh.sh/lumesh/value"
)

// State is a bitset of evaluation-context flags threaded through
// recursive Eval calls, mirroring how Runner.opts-style fields gate
// behavior in the teacher without needing a wider call signature.
type State uint8

const (
	// StateInPipe marks that the current Command is one stage of a
	// pipeline; its stdout is wired to the next stage instead of the
	// Runner's own Stdout.
	StateInPipe State = 1 << iota
	// StateSkipBuiltinSeek disables the "is this symbol a builtin"
	// lookup for the head of a Command. evalCommand honours it; no
	// evaluation path in this package sets it.
	StateSkipBuiltinSeek
	// StateInAssign marks evaluation of the right-hand side of an
	// Assign, where string literals are not template-rendered (the spec
	// only renders templates for Command arguments and bare top-level
	// string statements).
	StateInAssign
)

func (s State) has(bit State) bool { return s&bit != 0 }

// maxDepth bounds recursive Eval calls, protecting the host Go stack
// from unbounded Lumesh recursion (there is no tail-call elimination).
const maxDepth = 2000

// Runner evaluates Expression trees against a lexical environment and
// an I/O context. It is not safe for concurrent use; fork a new Runner
// sharing Stdout/Stderr per concurrent pipeline stage instead.
type Runner struct {
	Env *lmenv.Environ

	Stdin  *os.File
	Stdout io.Writer
	Stderr io.Writer

	// Builtins resolves a "Library.Name" or bare top-level name to a
	// native function. It is nil-safe: a nil Builtins means no builtins
	// are registered (every Command is an external program).
	Builtins BuiltinLookup

	depth int

	// lastStatus is the exit code of the most recently run external
	// Command, reported by LastStatus. It is not bound to any script
	// variable.
	lastStatus int

	// jobTable tracks background commands started with a trailing '&'
	// modifier. It is a pointer so every Runner produced by fork shares
	// one table and one id counter, instead of each fork diverging with
	// its own copy.
	jobTable *jobTable

	// execMiddlewares and execChain implement spawn's ExecHandlerFunc
	// chain (exec.go), mirroring mvdan-sh's ExecHandlers/execMiddlewares
	// fields (interp/api.go). execChain memoizes the built chain so it
	// is only assembled once per Runner.
	execMiddlewares []ExecMiddleware
	execChain       ExecHandlerFunc
}

type jobTable struct {
	mu     sync.Mutex
	jobs   map[int]*Job
	nextID int
}

// BuiltinLookup resolves a library/name pair to a builtin value.
type BuiltinLookup func(library, name string) (value.Builtin, bool)

// RunnerOption configures a Runner at construction time, following the
// functional-options idiom New(opts ...RunnerOption) uses in the
// teacher's interp.New.
type RunnerOption func(*Runner) error

// New builds a Runner ready to evaluate programs. With no options, it
// gets a fresh root environment and the process's real stdio.
func New(opts ...RunnerOption) (*Runner, error) {
	r := &Runner{
		Env:      lmenv.NewRoot(),
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		jobTable: &jobTable{jobs: make(map[int]*Job)},
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if r.Env.Cwd() == "" {
		if wd, err := os.Getwd(); err == nil {
			r.Env.SetCwd(wd)
		}
	}
	return r, nil
}

// WithEnviron sets the root environment a Runner starts from.
func WithEnviron(env *lmenv.Environ) RunnerOption {
	return func(r *Runner) error {
		r.Env = env
		return nil
	}
}

// WithStdio sets the Runner's standard streams.
func WithStdio(in *os.File, out, err io.Writer) RunnerOption {
	return func(r *Runner) error {
		r.Stdin, r.Stdout, r.Stderr = in, out, err
		return nil
	}
}

// WithBuiltins installs the builtin-resolution function a Runner uses
// to dispatch "Library.name(...)" calls and bare builtin names.
func WithBuiltins(lookup BuiltinLookup) RunnerOption {
	return func(r *Runner) error {
		r.Builtins = lookup
		return nil
	}
}

// WithDir sets the Runner's initial logical working directory.
func WithDir(path string) RunnerOption {
	return func(r *Runner) error {
		r.Env.SetCwd(path)
		return nil
	}
}

// WithExecHandlers appends ExecMiddleware to the Runner's command
// dispatch chain, the same chaining contract as mvdan-sh's
// interp.ExecHandlers: each middleware may run logic before or after
// calling next, or skip next to special-case a command itself. The
// first-registered middleware is the outermost call.
func WithExecHandlers(middlewares ...ExecMiddleware) RunnerOption {
	return func(r *Runner) error {
		r.execMiddlewares = append(r.execMiddlewares, middlewares...)
		return nil
	}
}

// WithTraceExec installs the ExecMiddleware behind a shell `set -x`
// style trace: whenever the root-visible IS_TRACE binding is truthy
// (toggled from script with `Sys.set("IS_TRACE", true)`), every
// foreground external command is echoed to w as "+ argv..." before it
// runs.
func WithTraceExec(w io.Writer) RunnerOption {
	return func(r *Runner) error {
		r.execMiddlewares = append(r.execMiddlewares, traceExecMiddleware(r, w))
		return nil
	}
}

// Run evaluates expr to completion, rendering an uncaught control-flow
// sentinel (a bare top-level break/continue/return) as a syntax-level
// misuse error rather than letting it escape as an opaque RuntimeError.
func (r *Runner) Run(ctx context.Context, expr value.Expression) (value.Expression, error) {
	v, err := r.Eval(ctx, expr, 0)
	if err != nil {
		if re, ok := err.(*errs.RuntimeError); ok && re.Kind.IsSentinel() {
			return nil, errs.New(errs.KindInvalidOperator, "%s used outside of a loop or function", re.Kind)
		}
		return nil, err
	}
	return v, nil
}

// LastStatus returns the most recent external command's exit code.
func (r *Runner) LastStatus() int { return r.lastStatus }

// Eval recursively reduces expr to a value Expression, or returns a
// *errs.RuntimeError. st carries the context flags described by State.
func (r *Runner) Eval(ctx context.Context, expr value.Expression, st State) (value.Expression, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.New(errs.KindInterrupted, "%s", err)
	}
	r.depth++
	defer func() { r.depth-- }()
	if r.depth > maxDepth {
		return nil, errs.New(errs.KindStackOverflow, "exceeded maximum evaluation depth (%d)", maxDepth)
	}

	v, err := r.evalDispatch(ctx, expr, st)
	if err != nil {
		if re, ok := err.(*errs.RuntimeError); ok {
			return nil, re.WithContext(expr)
		}
		return nil, err
	}
	return v, nil
}

// evalDispatch is Eval's variant switch, split out so Eval can attach
// expr as the originating node to any *errs.RuntimeError the first time
// it bubbles through this call (spec §3.3's "context expression",
// surfaced by the CLI diagnostic and err.try's handler map).
func (r *Runner) evalDispatch(ctx context.Context, expr value.Expression, st State) (value.Expression, error) {
	switch e := expr.(type) {
	case value.None, value.Boolean, value.Integer, value.Float, value.Bytes,
		value.List, value.Map, value.HMap, value.Range, value.Regex,
		value.Lambda, value.Builtin, value.FileSize:
		return expr, nil

	case value.String:
		if st.has(StateInAssign) {
			return e, nil
		}
		return r.renderTemplate(ctx, e)

	case value.Symbol:
		// In a pipeline or redirect stage, a name with no binding runs as
		// a command (a top-level builtin or an external program).
		if st.has(StateInPipe) && !r.Env.IsDefined(string(e)) {
			return r.evalCommand(ctx, value.Command{Head: e}, st)
		}
		return r.evalSymbol(e)

	case value.Quote:
		return value.Expression(e.Body), nil

	case value.Do:
		return r.evalDo(ctx, e, st)

	case value.Assign:
		return r.evalAssign(ctx, e, st)

	case value.BinaryOp:
		return r.evalBinaryOp(ctx, e, st)

	case value.UnaryOp:
		return r.evalUnaryOp(ctx, e, st)

	case value.If:
		return r.evalIf(ctx, e, st)

	case value.While:
		return r.evalWhile(ctx, e, st)

	case value.For:
		return r.evalFor(ctx, e, st)

	case value.Loop:
		return r.evalLoop(ctx, e, st)

	case value.Match:
		return r.evalMatch(ctx, e, st)

	case value.Index:
		return r.evalIndex(ctx, e, st)

	case value.Slice:
		return r.evalSlice(ctx, e, st)

	case value.Apply:
		return r.evalApply(ctx, e, st)

	case value.Command:
		return r.evalCommand(ctx, e, st)

	case value.Break:
		val, err := r.evalOptional(ctx, e.Value, st)
		if err != nil {
			return nil, err
		}
		return nil, &errs.RuntimeError{Kind: errs.KindBreak, Value: val}

	case value.Continue:
		val, err := r.evalOptional(ctx, e.Value, st)
		if err != nil {
			return nil, err
		}
		return nil, &errs.RuntimeError{Kind: errs.KindContinue, Value: val}

	case value.Return:
		val, err := r.evalOptional(ctx, e.Value, st)
		if err != nil {
			return nil, err
		}
		return nil, &errs.RuntimeError{Kind: errs.KindReturn, Value: val}

	default:
		return nil, errs.New(errs.KindTypeError, "cannot evaluate expression of kind %s", expr.Kind())
	}
}

func (r *Runner) evalOptional(ctx context.Context, e value.Expression, st State) (value.Expression, error) {
	if e == nil {
		return value.None{}, nil
	}
	return r.Eval(ctx, e, st)
}

// evalSymbol looks up sym as a variable first, then as a bare
// top-level builtin (the "" library), so `len(xs)` call-syntax
// resolves the same name `len xs` command-syntax resolves through
// evalCommand's own Builtins("", ...) lookup.
func (r *Runner) evalSymbol(sym value.Symbol) (value.Expression, error) {
	if v, ok := r.Env.Lookup(string(sym)); ok {
		return v, nil
	}
	if r.Builtins != nil {
		if bi, ok := r.Builtins("", string(sym)); ok {
			return bi, nil
		}
	}
	return nil, errs.New(errs.KindUndefinedSymbol, "%s is not defined", string(sym))
}

func (r *Runner) evalDo(ctx context.Context, d value.Do, st State) (value.Expression, error) {
	child := r.fork()
	var last value.Expression = value.None{}
	for _, stmt := range d.Stmts {
		v, err := child.Eval(ctx, stmt, st)
		if err != nil {
			return nil, err
		}
		last = v
	}
	return last, nil
}

// fork returns a Runner sharing everything but its environment, which
// becomes a child scope — used for block bodies so their `let`
// bindings don't leak to the enclosing scope, matching Environ.Fork's
// contract.
func (r *Runner) fork() *Runner {
	cp := *r
	cp.Env = r.Env.Fork()
	return &cp
}

func (r *Runner) evalIf(ctx context.Context, f value.If, st State) (value.Expression, error) {
	cond, err := r.Eval(ctx, f.Cond, st)
	if err != nil {
		return nil, err
	}
	if value.Truthy(cond) {
		return r.fork().Eval(ctx, f.Then, st)
	}
	if f.Else != nil {
		return r.fork().Eval(ctx, f.Else, st)
	}
	return value.None{}, nil
}

func (r *Runner) evalWhile(ctx context.Context, w value.While, st State) (value.Expression, error) {
	var result value.Expression = value.None{}
	for {
		cond, err := r.Eval(ctx, w.Cond, st)
		if err != nil {
			return nil, err
		}
		if !value.Truthy(cond) {
			return result, nil
		}
		v, err := r.fork().Eval(ctx, w.Body, st)
		if err != nil {
			if stop, rv, handled := handleLoopControl(err); handled {
				if stop {
					return rv, nil
				}
				continue
			}
			return nil, err
		}
		result = v
	}
}

func (r *Runner) evalLoop(ctx context.Context, l value.Loop, st State) (value.Expression, error) {
	var result value.Expression = value.None{}
	for {
		select {
		case <-ctx.Done():
			return nil, errs.New(errs.KindInterrupted, "%s", ctx.Err())
		default:
		}
		v, err := r.fork().Eval(ctx, l.Body, st)
		if err != nil {
			if stop, rv, handled := handleLoopControl(err); handled {
				if stop {
					return rv, nil
				}
				continue
			}
			return nil, err
		}
		result = v
	}
}

func (r *Runner) evalFor(ctx context.Context, f value.For, st State) (value.Expression, error) {
	iterable, err := r.Eval(ctx, f.Iterable, st)
	if err != nil {
		return nil, err
	}
	items, err := iterate(iterable)
	if err != nil {
		return nil, err
	}
	var result value.Expression = value.None{}
	for _, item := range items {
		child := r.fork()
		child.Env.DefineLocal(f.Var, item)
		v, err := child.Eval(ctx, f.Body, st)
		if err != nil {
			if stop, rv, handled := handleLoopControl(err); handled {
				if stop {
					return rv, nil
				}
				continue
			}
			return nil, err
		}
		result = v
	}
	return result, nil
}

// handleLoopControl inspects an error from a loop body: Break resolves
// the loop with its payload (stop=true), Continue resolves this
// iteration only (handled=true, stop=false), and anything else
// (including Return, which must keep bubbling to the enclosing call)
// is reported unhandled.
func handleLoopControl(err error) (stop bool, val value.Expression, handled bool) {
	re, ok := err.(*errs.RuntimeError)
	if !ok {
		return false, nil, false
	}
	switch re.Kind {
	case errs.KindBreak:
		v := re.Value
		if v == nil {
			v = value.None{}
		}
		return true, v, true
	case errs.KindContinue:
		return false, nil, true
	default:
		return false, nil, false
	}
}

func iterate(v value.Expression) ([]value.Expression, error) {
	switch it := v.(type) {
	case value.List:
		return it.Items(), nil
	case value.Range:
		return it.Items(), nil
	case value.Map:
		items := make([]value.Expression, 0, it.Len())
		for _, k := range it.Keys() {
			val, _ := it.Get(k)
			items = append(items, value.NewList([]value.Expression{value.String(k), val}))
		}
		return items, nil
	case value.String:
		runes := []rune(string(it))
		items := make([]value.Expression, len(runes))
		for i, ch := range runes {
			items[i] = value.String(string(ch))
		}
		return items, nil
	default:
		return nil, errs.New(errs.KindTypeError, "%s is not iterable", v.Kind())
	}
}

func (r *Runner) evalMatch(ctx context.Context, m value.Match, st State) (value.Expression, error) {
	subject, err := r.Eval(ctx, m.Subject, st)
	if err != nil {
		return nil, err
	}
	for _, arm := range m.Arms {
		if matchesPattern(subject, arm.Pattern, r) {
			return r.fork().Eval(ctx, arm.Body, st)
		}
	}
	return nil, errs.New(errs.KindInvalidArgument, "no match arm for %s", value.Display(subject))
}

// matchesPattern implements structural pattern matching: a bare Symbol
// "_" matches anything; any other Symbol binds the subject into a
// fresh local in r.Env for the duration of the arm; every other pattern
// kind is evaluated and compared with value.Equal.
func matchesPattern(subject value.Expression, pattern value.Expression, r *Runner) bool {
	switch p := pattern.(type) {
	case value.Symbol:
		if string(p) == "_" {
			return true
		}
		r.Env.DefineLocal(string(p), subject)
		return true
	default:
		pv, err := r.Eval(context.Background(), pattern, 0)
		if err != nil {
			return false
		}
		return value.Equal(subject, pv)
	}
}

func (r *Runner) evalIndex(ctx context.Context, idx value.Index, st State) (value.Expression, error) {
	container, err := r.Eval(ctx, idx.Container, st)
	if err != nil {
		return nil, err
	}
	key, err := r.Eval(ctx, idx.Key, st)
	if err != nil {
		return nil, err
	}
	return indexInto(container, key)
}

func indexInto(container, key value.Expression) (value.Expression, error) {
	switch c := container.(type) {
	case value.List:
		i, ok := key.(value.Integer)
		if !ok {
			return nil, errs.New(errs.KindTypeError, "list index must be an integer, found %s", key.Kind())
		}
		v, ok := c.Get(int(i))
		if !ok {
			return nil, errs.New(errs.KindIndexOutOfBounds, "index %d out of bounds for list of length %d", i, c.Len())
		}
		return v, nil
	case value.Map:
		k, ok := key.(value.String)
		if !ok {
			return nil, errs.New(errs.KindTypeError, "map key must be a string, found %s", key.Kind())
		}
		v, ok := c.Get(string(k))
		if !ok {
			return nil, errs.New(errs.KindKeyNotFound, "key %q not found", string(k))
		}
		return v, nil
	case value.HMap:
		k, ok := key.(value.String)
		if !ok {
			return nil, errs.New(errs.KindTypeError, "map key must be a string, found %s", key.Kind())
		}
		v, ok := c.Get(string(k))
		if !ok {
			return nil, errs.New(errs.KindKeyNotFound, "key %q not found", string(k))
		}
		return v, nil
	case value.String:
		i, ok := key.(value.Integer)
		if !ok {
			return nil, errs.New(errs.KindTypeError, "string index must be an integer, found %s", key.Kind())
		}
		runes := []rune(string(c))
		n := int(i)
		if n < 0 {
			n += len(runes)
		}
		if n < 0 || n >= len(runes) {
			return nil, errs.New(errs.KindIndexOutOfBounds, "index %d out of bounds for string of length %d", i, len(runes))
		}
		return value.String(string(runes[n])), nil
	default:
		return nil, errs.New(errs.KindTypeError, "%s does not support indexing", container.Kind())
	}
}

func (r *Runner) evalSlice(ctx context.Context, s value.Slice, st State) (value.Expression, error) {
	container, err := r.Eval(ctx, s.Container, st)
	if err != nil {
		return nil, err
	}
	n, err := sliceableLen(container)
	if err != nil {
		return nil, err
	}
	start, end, step, err := resolveSliceBounds(ctx, r, s, n, st)
	if err != nil {
		return nil, err
	}
	indices := stepRange(start, end, step, n)
	switch c := container.(type) {
	case value.List:
		return c.Slice(indices), nil
	case value.String:
		runes := []rune(string(c))
		out := make([]rune, 0, len(indices))
		for _, i := range indices {
			if i >= 0 && i < len(runes) {
				out = append(out, runes[i])
			}
		}
		return value.String(string(out)), nil
	default:
		return nil, errs.New(errs.KindTypeError, "%s does not support slicing", container.Kind())
	}
}

func sliceableLen(v value.Expression) (int, error) {
	switch c := v.(type) {
	case value.List:
		return c.Len(), nil
	case value.String:
		return len([]rune(string(c))), nil
	default:
		return 0, errs.New(errs.KindTypeError, "%s does not support slicing", v.Kind())
	}
}

func resolveSliceBounds(ctx context.Context, r *Runner, s value.Slice, n int, st State) (start, end, step int, err error) {
	step = 1
	if s.Step != nil {
		v, err := r.Eval(ctx, s.Step, st)
		if err != nil {
			return 0, 0, 0, err
		}
		i, ok := v.(value.Integer)
		if !ok || i == 0 {
			return 0, 0, 0, errs.New(errs.KindInvalidArgument, "slice step must be a nonzero integer")
		}
		step = int(i)
	}
	start = 0
	if step < 0 {
		start = n - 1
	}
	if s.Start != nil {
		v, err := r.Eval(ctx, s.Start, st)
		if err != nil {
			return 0, 0, 0, err
		}
		i, ok := v.(value.Integer)
		if !ok {
			return 0, 0, 0, errs.New(errs.KindTypeError, "slice bound must be an integer")
		}
		start = normalizeIndex(int(i), n)
	}
	end = n
	if step < 0 {
		end = -1
	}
	if s.End != nil {
		v, err := r.Eval(ctx, s.End, st)
		if err != nil {
			return 0, 0, 0, err
		}
		i, ok := v.(value.Integer)
		if !ok {
			return 0, 0, 0, errs.New(errs.KindTypeError, "slice bound must be an integer")
		}
		end = normalizeIndex(int(i), n)
	}
	return start, end, step, nil
}

func normalizeIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

func stepRange(start, end, step, n int) []int {
	var out []int
	if step > 0 {
		for i := start; i < end && i < n; i += step {
			if i >= 0 {
				out = append(out, i)
			}
		}
	} else {
		for i := start; i > end && i >= 0; i += step {
			if i < n {
				out = append(out, i)
			}
		}
	}
	return out
}

func (r *Runner) renderTemplate(ctx context.Context, s value.String) (value.Expression, error) {
	rendered, err := template.Render(string(s), func(expr string) (string, error) {
		parsed, perr := parseTemplateExpr(expr)
		if perr != nil {
			return "", perr
		}
		v, eerr := r.Eval(ctx, parsed, 0)
		if eerr != nil {
			return "", eerr
		}
		return value.Display(v), nil
	})
	if err != nil {
		// Per spec, a bad interpolation is non-fatal: the offending
		// span is substituted with empty string (already reflected in
		// rendered by template.Render) rather than aborting the whole
		// line, so the result still gets used, not discarded.
		fmt.Fprintf(r.Stderr, "lumesh: template error: %s\n", err)
	}
	return value.String(rendered), nil
}
