package interp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"lumesh.sh/lumesh/errs"
	"lumesh.sh/lumesh/ptyexec"
	"lumesh.sh/lumesh/value"
)

// killTimeout mirrors DefaultExecHandler's 2-second grace period
// between an interrupt and a hard kill for external commands.
const killTimeout = 2 * time.Second

// ExecHandlerFunc runs an already-configured external command (stdio,
// Dir, and Env already set on cmd) and blocks until it exits, the way
// mvdan-sh's interp.ExecHandlerFunc (interp/handler.go) runs a resolved
// argv. Lumesh's spawn already builds the full *exec.Cmd before
// dispatch, so the handler operates on that instead of on a bare argv
// slice.
type ExecHandlerFunc func(ctx context.Context, cmd *exec.Cmd) error

// ExecMiddleware wraps an ExecHandlerFunc with another, mirroring
// mvdan-sh's ExecHandlers chaining (interp/api.go's execMiddlewares):
// a middleware may run logic before or after calling next, change cmd
// before calling next, or skip next entirely to special-case a command.
type ExecMiddleware func(next ExecHandlerFunc) ExecHandlerFunc

// DefaultExecHandler is the base of the chain: start the command, arm
// an interrupt-then-kill escalation keyed off ctx cancellation, and
// wait. This is the exact sequence spawn ran inline before the
// middleware chain existed.
func DefaultExecHandler(kill time.Duration) ExecHandlerFunc {
	return func(ctx context.Context, cmd *exec.Cmd) error {
		if err := cmd.Start(); err != nil {
			return err
		}
		stop := context.AfterFunc(ctx, func() {
			if runtime.GOOS == "windows" {
				_ = cmd.Process.Kill()
				return
			}
			_ = cmd.Process.Signal(os.Interrupt)
			time.AfterFunc(kill, func() {
				_ = cmd.Process.Kill()
			})
		})
		defer stop()
		return cmd.Wait()
	}
}

// traceExecMiddleware implements `set -x`-style tracing as an
// ExecMiddleware: it checks the IS_TRACE binding through r rather than
// a captured bool, so toggling `Sys.set("IS_TRACE", true)` at runtime
// takes effect on the very next command without rebuilding the chain.
func traceExecMiddleware(r *Runner, w io.Writer) ExecMiddleware {
	return func(next ExecHandlerFunc) ExecHandlerFunc {
		return func(ctx context.Context, cmd *exec.Cmd) error {
			if v, ok := r.Env.Lookup("IS_TRACE"); ok && value.Truthy(v) {
				fmt.Fprintf(w, "+ %s\n", strings.Join(cmd.Args, " "))
			}
			return next(ctx, cmd)
		}
	}
}

// chainExecHandler builds the effective ExecHandlerFunc from r's
// registered middlewares wrapped around DefaultExecHandler, caching the
// result the first time a foreground command is spawned. Middlewares
// are chained from first to last (the first-registered middleware is
// the outermost call), matching mvdan-sh's "construct the chain
// backwards" comment in api.go's resetFields.
func (r *Runner) chainExecHandler() ExecHandlerFunc {
	if r.execChain != nil {
		return r.execChain
	}
	h := DefaultExecHandler(killTimeout)
	for i := len(r.execMiddlewares) - 1; i >= 0; i-- {
		h = r.execMiddlewares[i](h)
	}
	r.execChain = h
	return h
}

// modeFlag is a trailing command token that changes how the command
// runs rather than naming a program argument. It is a bitmask matching
// spec §4.4.2's table exactly, rather than a plain enum, since `&`'s
// bits (8+1+2=11) are themselves a composition of the suppress-stdout
// and suppress-stderr bits that `&-`/`&?` set individually.
type modeFlag int

const (
	modeNone           modeFlag = 0
	bitSuppressStdout  modeFlag = 1 // '&-' and a component of '&'
	bitSuppressStderr  modeFlag = 2 // '&?' and a component of '&'
	bitMergeErr        modeFlag = 4 // '&>'
	bitBackground      modeFlag = 8 // '&'
	modeBackground     modeFlag = bitBackground | bitSuppressStdout | bitSuppressStderr // '&'  = 11
	modeSuppressStdout modeFlag = bitSuppressStdout                                     // '&-' = 1
	modeSuppressStderr modeFlag = bitSuppressStderr                                     // '&?' = 2
	modeSuppressBoth   modeFlag = bitSuppressStdout | bitSuppressStderr                 // '&+' = 3
	modeMergeErr       modeFlag = bitMergeErr                                           // '&>' = 4
)

func parseModeFlag(s string) modeFlag {
	switch s {
	case "&":
		return modeBackground
	case "&-":
		return modeSuppressStdout
	case "&?":
		return modeSuppressStderr
	case "&+":
		return modeSuppressBoth
	case "&>":
		return modeMergeErr
	default:
		return modeNone
	}
}

// evalCommand flattens a Command's Head/Args into program name and
// string arguments, expanding '~' and globs the way the spec's §4.4
// argument-flattening pass does, then either dispatches to a registered
// builtin (when the head names one and no builtin-seek state bit
// suppresses it) or spawns an external process.
func (r *Runner) evalCommand(ctx context.Context, c value.Command, st State) (value.Expression, error) {
	headStr, err := r.flattenHead(ctx, c.Head, st)
	if err != nil {
		return nil, err
	}

	rawArgs := make([]string, 0, len(c.Args))
	mode := modeNone
	for _, argExpr := range c.Args {
		flat, err := r.flattenArg(ctx, argExpr, st)
		if err != nil {
			return nil, err
		}
		for _, word := range flat {
			if m := parseModeFlag(word); m != modeNone {
				mode = m
				continue
			}
			rawArgs = append(rawArgs, word)
		}
	}

	expanded, err := expandGlobs(r.Env.Cwd(), rawArgs)
	if err != nil {
		return nil, err
	}

	// Globbing happens before the builtin-seek check (§4.4.1's
	// normalization is unconditional on every Command), so a builtin
	// like `echo` expands `*.txt` the same as an external program would
	// (spec scenario S7).
	if !st.has(StateSkipBuiltinSeek) && r.Builtins != nil {
		if bi, ok := r.Builtins("", headStr); ok {
			return r.callBuiltinCommand(bi, expanded)
		}
	}

	if r.wantsPTY(headStr, mode, st) {
		return r.spawnPTY(ctx, headStr, expanded)
	}
	return r.spawn(ctx, headStr, expanded, mode, st.has(StateInPipe))
}

// wantsPTY decides whether a command should run through the PTY
// executor instead of plain stdio plumbing: it must be a recognized
// interactive program (spec §4.4.6), not be any side of a pipeline, and
// the Runner's stdio must itself be a real terminal — matching the
// spec's "neither side of a pipeline" + "isatty" heuristic.
func (r *Runner) wantsPTY(name string, mode modeFlag, st State) bool {
	if st.has(StateInPipe) || mode != modeNone {
		return false
	}
	if !ptyexec.IsInteractive(name) {
		return false
	}
	f, ok := r.Stdin.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// spawnPTY resolves name on $PATH and runs it through ptyexec.Run,
// synchronizing the Runner's logical cwd the same way spawn does.
func (r *Runner) spawnPTY(ctx context.Context, name string, args []string) (value.Expression, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, errs.New(errs.KindProgramNotFound, "%s: command not found", name)
	}
	out, _ := r.Stdout.(*os.File)
	if out == nil {
		out = os.Stdout
	}
	status, err := ptyexec.Run(ctx, ptyexec.Command{
		Path:   path,
		Args:   args,
		Dir:    r.Env.Cwd(),
		Env:    r.Env.StringBindings(),
		Stdin:  r.Stdin,
		Stdout: out,
	})
	if err != nil {
		return nil, errs.New(errs.KindCommandFailed, "%s: %s", name, err)
	}
	r.lastStatus = status
	if status != 0 {
		return nil, errs.New(errs.KindCommandFailed, "%s exited with status %d", name, status)
	}
	return value.Integer(status), nil
}

func (r *Runner) flattenHead(ctx context.Context, head value.Expression, st State) (string, error) {
	if sym, ok := head.(value.Symbol); ok {
		return string(sym), nil
	}
	v, err := r.Eval(ctx, head, st)
	if err != nil {
		return "", err
	}
	return value.Display(v), nil
}

// flattenArg evaluates one Command argument and splits it into
// whitespace-separated words if the evaluated value is a plain string
// containing spaces produced by interpolation (e.g. `$files` expanding
// to "a.txt b.txt"), matching how shells re-split unquoted expansions.
// A List argument flattens to its Display'd items.
func (r *Runner) flattenArg(ctx context.Context, argExpr value.Expression, st State) ([]string, error) {
	v, err := r.Eval(ctx, argExpr, st)
	if err != nil {
		return nil, err
	}
	switch val := v.(type) {
	case value.List:
		out := make([]string, 0, val.Len())
		for _, item := range val.Items() {
			out = append(out, value.Display(item))
		}
		return out, nil
	case value.String:
		text := expandHome(string(val))
		if _, wasSymbol := argExpr.(value.Symbol); wasSymbol {
			return []string{text}, nil
		}
		if lit, wasString := argExpr.(value.String); wasString && strings.ContainsRune(string(lit), '$') && strings.ContainsAny(text, " \t") {
			return strings.Fields(text), nil
		}
		return []string{text}, nil
	default:
		return []string{value.Display(val)}, nil
	}
}

func expandHome(s string) string {
	if s != "~" && !strings.HasPrefix(s, "~/") {
		return s
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return s
	}
	if s == "~" {
		return home
	}
	return filepath.Join(home, s[2:])
}

// expandGlobs replaces any argument containing a glob metacharacter
// with its sorted match list, raising WildcardNotMatched when a pattern
// matches nothing — the spec's documented edge case for an empty glob.
func expandGlobs(cwd string, args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if !strings.ContainsAny(a, "*?[") {
			out = append(out, a)
			continue
		}
		pattern := a
		if !filepath.IsAbs(pattern) && cwd != "" {
			pattern = filepath.Join(cwd, pattern)
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errs.New(errs.KindInvalidArgument, "invalid glob pattern %q: %s", a, err)
		}
		if len(matches) == 0 {
			return nil, errs.New(errs.KindWildcardNotMatched, "no files matched %q", a)
		}
		for _, m := range matches {
			if cwd != "" && filepath.IsAbs(m) {
				if rel, err := filepath.Rel(cwd, m); err == nil && !strings.HasPrefix(rel, "..") {
					m = rel
				}
			}
			out = append(out, m)
		}
	}
	return out, nil
}

// callBuiltinCommand adapts a registered top-level builtin (one with no
// library prefix, e.g. `cd`, `exit`) to the plain-string Command calling
// convention: every argument has already been flattened to text, so
// each is wrapped as a String literal before being handed to the
// builtin's normal Expression-based signature.
func (r *Runner) callBuiltinCommand(bi value.Builtin, args []string) (value.Expression, error) {
	wrapped := make([]value.Expression, len(args))
	for i, a := range args {
		wrapped[i] = value.String(a)
	}
	bridge := &BuiltinEnv{Runner: r, Ctx: context.Background(), State: 0}
	return bi.Fn(wrapped, bridge, nil)
}

// spawn runs an external program: it builds the *exec.Cmd (path lookup,
// cwd, envp, stdio per mode), then dispatches the start/wait sequence
// through r.chainExecHandler() so any registered ExecMiddleware sees
// every foreground command.
func (r *Runner) spawn(ctx context.Context, name string, args []string, mode modeFlag, inPipe bool) (value.Expression, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, errs.New(errs.KindProgramNotFound, "%s: command not found", name)
	}

	cmd := exec.Command(path, args...)
	cmd.Dir = r.Env.Cwd()
	cmd.Env = r.Env.StringBindings()
	if len(cmd.Env) == 0 {
		cmd.Env = os.Environ()
	}
	cmd.Stdin = r.Stdin

	switch {
	case mode&bitMergeErr != 0:
		cmd.Stdout = r.Stdout
		cmd.Stderr = cmd.Stdout
	default:
		if mode&bitSuppressStdout != 0 {
			cmd.Stdout = io.Discard
		} else {
			cmd.Stdout = r.Stdout
		}
		if mode&bitSuppressStderr != 0 {
			cmd.Stderr = io.Discard
		} else {
			cmd.Stderr = r.Stderr
		}
	}

	if mode&bitBackground != 0 {
		if err := cmd.Start(); err != nil {
			return nil, errs.New(errs.KindCommandFailed, "%s: %s", name, err)
		}
		job := r.addJob(cmd, name)
		go func() {
			job.Err = cmd.Wait()
			if cmd.ProcessState != nil {
				job.ExitCode = cmd.ProcessState.ExitCode()
			}
			close(job.Done)
		}()
		return value.Integer(job.ID), nil
	}

	waitErr := r.chainExecHandler()(ctx, cmd)
	if waitErr != nil && cmd.Process == nil {
		return nil, errs.New(errs.KindCommandFailed, "%s: %s", name, waitErr)
	}
	status := 0
	if cmd.ProcessState != nil {
		status = cmd.ProcessState.ExitCode()
	}
	r.lastStatus = status

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			// Spec §4.4.3: a nonzero exit bubbles up as CommandFailed
			// unless the stage had &? (suppress stderr) set.
			if mode&bitSuppressStderr == 0 && ctx.Err() == nil {
				return nil, errs.New(errs.KindCommandFailed, "%s exited with status %d", name, status)
			}
		} else {
			return nil, errs.New(errs.KindCommandFailed, "%s: %s", name, waitErr)
		}
	}

	return value.Integer(status), nil
}

// evalPipeline implements the pipe and redirection operators. Both
// sides are themselves Expression trees (usually Command nodes, but a
// parenthesized sub-expression is also legal), so it recurses through
// Eval with StateInPipe set on whichever side needs its stdout/stdin
// rewired.
func (r *Runner) evalPipeline(ctx context.Context, b value.BinaryOp, st State) (value.Expression, error) {
	switch b.Op {
	case "|":
		return r.evalPipe(ctx, b.Left, b.Right, st)
	case ">>", ">>!":
		// Bare ">" never reaches here: the parser has no redirection
		// grammar for it, only the comparison one in parseRelational
		// (see evalBinaryOp's case comment), so it is routed to
		// compareOp, not evalPipeline.
		return r.evalRedirectOut(ctx, b.Left, b.Right, st, b.Op)
	case "<<":
		return r.evalRedirectIn(ctx, b.Left, b.Right, st)
	default:
		return nil, errs.New(errs.KindInvalidOperator, "unknown pipeline operator %q", b.Op)
	}
}

// evalAppendPipe implements the data-pipeline operator `|>`: the right
// side must evaluate to something callable (Lambda, Builtin, or
// Command), and the already-computed left value is appended as its
// final argument. Unlike `|`, no process stdio is wired at all — this
// is pure script-level function application, e.g.
// `[1,2,3] |> List.filter((x) -> x > 1)`.
func (r *Runner) evalAppendPipe(ctx context.Context, left, right value.Expression, st State) (value.Expression, error) {
	leftVal, err := r.Eval(ctx, left, st)
	if err != nil {
		return nil, err
	}
	arg := value.Quote{Body: leftVal}

	// The right side is usually a partial call like `List.filter((x) ->
	// x > 1)` or `String.upper()` — an Apply/Command AST node missing
	// its last argument. Evaluating that node outright (via Eval) would
	// invoke it eagerly through evalApply/evalCommand with whatever
	// args it already has, one short and never receiving leftVal at
	// all. So the Func/Head is resolved on its own and leftVal is
	// appended to the existing Args before the call is made, instead of
	// evaluating the whole node and dispatching on its result.
	switch rhs := right.(type) {
	case value.Apply:
		callee, err := r.Eval(ctx, rhs.Func, st)
		if err != nil {
			return nil, err
		}
		args := append(append([]value.Expression{}, rhs.Args...), arg)
		return r.callCallable(ctx, callee, args, st)
	case value.Command:
		args := append(append([]value.Expression{}, rhs.Args...), arg)
		return r.evalCommand(ctx, value.Command{Head: rhs.Head, Args: args}, st)
	default:
		callee, err := r.Eval(ctx, right, st)
		if err != nil {
			return nil, err
		}
		return r.callCallable(ctx, callee, []value.Expression{arg}, st)
	}
}

// callCallable dispatches an already-evaluated callee (Lambda or
// Builtin) against already-built argument expressions.
func (r *Runner) callCallable(ctx context.Context, callee value.Expression, args []value.Expression, st State) (value.Expression, error) {
	switch fn := callee.(type) {
	case value.Lambda:
		return r.callLambda(ctx, fn, args, st)
	case value.Builtin:
		return r.callBuiltin(ctx, fn, args, st)
	default:
		return nil, errs.New(errs.KindNotCallable, "right side of |> must be callable, found %s", callee.Kind())
	}
}

// evalPipe connects left's stdout to right's stdin via an os.Pipe,
// running both sides concurrently; either side may be an external
// command or an in-process builtin such as echo that writes to its
// Runner's Stdout.
func (r *Runner) evalPipe(ctx context.Context, left, right value.Expression, st State) (value.Expression, error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, errs.New(errs.KindIO, "pipe: %s", err)
	}

	leftRunner := r.fork()
	leftRunner.Stdout = pw

	rightRunner := r.fork()
	rightRunner.Stdin = pr

	// The terminal stage's stdout is always tee'd into a capture
	// buffer, since a `|` chain's own value (spec §4.4.3, scenario S4)
	// is whatever the last stage wrote, trimmed. When this pipeline is
	// itself a non-terminal stage of an outer `|` (StateInPipe already
	// set coming in), r.Stdout is already the outer stage's write end of
	// its own os.Pipe, so the tee doesn't change what the outer stage
	// sees — it just also remembers the bytes for this inner result.
	var captured bytes.Buffer
	rightRunner.Stdout = io.MultiWriter(r.Stdout, &captured)

	errCh := make(chan error, 1)
	go func() {
		_, lerr := leftRunner.Eval(ctx, left, st|StateInPipe)
		pw.Close()
		errCh <- lerr
	}()

	_, rerr := rightRunner.Eval(ctx, right, st|StateInPipe)
	pr.Close()
	lerr := <-errCh

	if lerr != nil {
		return nil, lerr
	}
	if rerr != nil {
		return nil, rerr
	}
	return value.String(strings.TrimRight(captured.String(), "\n")), nil
}

// evalRedirectOut implements the two parseable output-redirect forms,
// ">>" (append) and ">>!" (truncate). A single ">" is never routed
// here: the grammar has no separate token for a redirecting ">"
// distinct from the ordinary greater-than comparison TokGt already
// consumed by parseRelational, so only the two-and-three-character
// operators are recognized as redirection syntax. Per spec §4.4.5's
// table, ">>!" groups with the (unparseable) bare "a > path" form as
// the truncating case. Both variants pass os.O_CREATE: the Open
// Question decision (DESIGN.md) is that ">>" creates the file if
// absent, unlike the original's `append(true)` (existing-file-only),
// since every other redirect operator here creates-or-truncates and a
// silent failure on a missing file is the more surprising default.
// Every open failure reports errs.KindIO; neither variant has a
// documented reason to swallow it.
func (r *Runner) evalRedirectOut(ctx context.Context, left, right value.Expression, st State, op string) (value.Expression, error) {
	path, err := r.pathOperand(ctx, right, st)
	if err != nil {
		return nil, err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if op == ">>" {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, errs.New(errs.KindIO, "cannot open %s: %s", path, err)
	}
	defer f.Close()

	child := r.fork()
	child.Stdout = f
	v, err := child.Eval(ctx, left, st|StateInPipe)
	if err != nil {
		return nil, err
	}
	// A command, `|` or `<<` already wrote through child.Stdout; any other non-None value is written in its string form.
	sym, isSym := left.(value.Symbol)
	bin, _ := left.(value.BinaryOp)
	_, isCmd := left.(value.Command)
	_, isNone := v.(value.None)
	if isCmd || isNone || (isSym && !r.Env.IsDefined(string(sym))) || bin.Op == "|" || bin.Op == "<<" {
		return v, nil
	}
	if _, err := f.WriteString(value.Display(v)); err != nil {
		return nil, errs.New(errs.KindIO, "cannot write %s: %s", path, err)
	}
	return v, nil
}

func (r *Runner) evalRedirectIn(ctx context.Context, left, right value.Expression, st State) (value.Expression, error) {
	path, err := r.pathOperand(ctx, right, st)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.New(errs.KindIO, "cannot open %s: %s", path, err)
	}
	defer f.Close()

	child := r.fork()
	child.Stdin = f
	return child.Eval(ctx, left, st|StateInPipe)
}

func (r *Runner) pathOperand(ctx context.Context, expr value.Expression, st State) (string, error) {
	v, err := r.Eval(ctx, expr, st)
	if err != nil {
		return "", err
	}
	return expandHome(value.Display(v)), nil
}
