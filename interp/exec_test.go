package interp_test

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"lumesh.sh/lumesh/builtin"
	"lumesh.sh/lumesh/interp"
	"lumesh.sh/lumesh/syntax"
	"lumesh.sh/lumesh/value"
)

// requirePath skips the test unless every named program is on $PATH,
// so these tests degrade gracefully on a platform missing one of the
// POSIX utilities they shell out to rather than failing outright.
func requirePath(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			t.Skipf("%s not found on $PATH: %s", name, err)
		}
	}
}

// newRunner mirrors the `run` helper in interp_test.go but returns the
// Runner and its captured stdout/stderr buffers, for cases (pipelines,
// redirection, globbing) that need a known cwd and non-os.Stdout
// streams rather than just a final value.
func newRunner(t *testing.T) (*interp.Runner, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	registry := builtin.New()
	r, err := interp.New(
		interp.WithBuiltins(registry.Lookup),
		interp.WithStdio(nil, &stdout, &stderr),
		interp.WithDir(t.TempDir()),
	)
	qt.Assert(t, err, qt.IsNil)
	return r, &stdout, &stderr
}

func evalSrc(t *testing.T, r *interp.Runner, src string) (value.Expression, error) {
	t.Helper()
	expr, err := syntax.Parse([]byte(src), "<test>")
	qt.Assert(t, err, qt.IsNil)
	return r.Run(context.Background(), expr)
}

// TestPipelineScenarios covers spec.md §8.4's S4 (pipeline value
// capture) and S7 (glob expansion), plus a regression check that a
// ">" inside a pipeline stage's argument list is still the ordinary
// comparison operator, not a misrouted redirection.
func TestPipelineScenarios(t *testing.T) {
	// "echo" is a registered builtin (builtin/top.go), evaluated in
	// process; only "tr" and "cat" are spawned external programs.
	requirePath(t, "tr", "cat")
	cases := []struct {
		name string
		src  string
		want value.Expression
	}{
		{
			name: "S4_PipelineValueCapture",
			src:  `let v = echo "hello" | tr a-z A-Z; v`,
			want: value.String("HELLO"),
		},
		{
			name: "ComparisonInsidePipelineStage",
			src:  `let v = echo (1 > 2) | cat; v`,
			want: value.String("False"),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, _, _ := newRunner(t)
			got, err := evalSrc(t, r, tc.src)
			qt.Assert(t, err, qt.IsNil)
			qt.Assert(t, got, qt.Equals, tc.want)
		})
	}
}

func TestGlobExpansionSortsAndErrorsOnNoMatch(t *testing.T) {
	requirePath(t, "cat")
	c := qt.New(t)
	r, _, _ := newRunner(t)
	dir := r.Env.Cwd()
	for _, name := range []string{"b.txt", "a.txt"} {
		c.Assert(os.WriteFile(filepath.Join(dir, name), nil, 0644), qt.IsNil)
	}

	got, err := evalSrc(t, r, `let v = echo *.txt | cat; v`)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, value.Expression(value.String("a.txt b.txt")))

	_, err = evalSrc(t, r, `echo *.xyz`)
	c.Assert(err, qt.Not(qt.IsNil))
}

// TestAppendPipeFiltersListPastComparison is spec.md §8.4's S5,
// guarding specifically against the bug where a ">" BinaryOp inside a
// |> callee's lambda body was misrouted into the redirection executor
// instead of compareOp, silently turning `x > 2` into `x`.
func TestAppendPipeFiltersListPastComparison(t *testing.T) {
	c := qt.New(t)
	r, _, _ := newRunner(t)
	got, err := evalSrc(t, r, `[1,2,3,4] |> List.filter((x) -> x > 2)`)
	c.Assert(err, qt.IsNil)
	list, ok := got.(value.List)
	c.Assert(ok, qt.IsTrue)
	c.Assert(list.Items(), qt.DeepEquals, []value.Expression{value.Integer(3), value.Integer(4)})
}

func TestAppendPipeOnBuiltin(t *testing.T) {
	c := qt.New(t)
	r, _, _ := newRunner(t)
	got, err := evalSrc(t, r, `"abc" |> String.upper()`)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, value.Expression(value.String("ABC")))
}

// TestRedirectBangTruncatesExistingAndCreatesNew covers ">>!", the only
// parseable form of spec §4.4.5's truncating redirect (a bare ">" is
// never a redirect token in this grammar — it is always the ordinary
// comparison TokGt — so ">>!" is how "a > path" semantics are reached).
func TestRedirectBangTruncatesExistingAndCreatesNew(t *testing.T) {
	c := qt.New(t)
	r, _, _ := newRunner(t)
	dir := r.Env.Cwd()
	truncPath := filepath.Join(dir, "trunc.txt")
	newPath := filepath.Join(dir, "new.txt")

	c.Assert(os.WriteFile(truncPath, []byte("stale contents that must be gone"), 0644), qt.IsNil)

	_, err := evalSrc(t, r, `"first" >>! "`+truncPath+`"`)
	c.Assert(err, qt.IsNil)
	gotTrunc, err := os.ReadFile(truncPath)
	c.Assert(err, qt.IsNil)
	c.Assert(string(gotTrunc), qt.Equals, "first")

	// A fresh file must be created, not an I/O error silently
	// swallowed into None.
	_, err = evalSrc(t, r, `"second" >>! "`+newPath+`"`)
	c.Assert(err, qt.IsNil)
	gotNew, err := os.ReadFile(newPath)
	c.Assert(err, qt.IsNil)
	c.Assert(string(gotNew), qt.Equals, "second")
}

func TestRedirectAppendCreatesMissingFile(t *testing.T) {
	c := qt.New(t)
	r, _, _ := newRunner(t)
	dir := r.Env.Cwd()
	path := filepath.Join(dir, "log.txt")
	c.Assert(os.WriteFile(path, []byte("one\n"), 0644), qt.IsNil)

	_, err := evalSrc(t, r, `"two" >> "`+path+`"`)
	c.Assert(err, qt.IsNil)
	got, err := os.ReadFile(path)
	c.Assert(err, qt.IsNil)
	c.Assert(string(got), qt.Equals, "one\ntwo")

	// Open Question decision (DESIGN.md): ">>" creates the file if
	// absent rather than erroring, for parity with ">"/">>!".
	missing := filepath.Join(dir, "missing.txt")
	_, err = evalSrc(t, r, `"x" >> "`+missing+`"`)
	c.Assert(err, qt.IsNil)
	gotMissing, err := os.ReadFile(missing)
	c.Assert(err, qt.IsNil)
	c.Assert(string(gotMissing), qt.Equals, "x")
}

func TestRedirectInReadsFileIntoStdin(t *testing.T) {
	requirePath(t, "cat")
	c := qt.New(t)
	r, stdout, _ := newRunner(t)
	dir := r.Env.Cwd()
	path := filepath.Join(dir, "in.txt")
	c.Assert(os.WriteFile(path, []byte("piped in"), 0644), qt.IsNil)

	// A bare command's value is its exit status; what cat read from the
	// file shows up on the Runner's stdout.
	_, err := evalSrc(t, r, `let v = cat << "`+path+`"; v`)
	c.Assert(err, qt.IsNil)
	c.Assert(stdout.String(), qt.Equals, "piped in")
}

// TestExecMiddlewareChainOrderAndShortCircuit covers interp.ExecMiddleware
// the way mvdan-sh documents ExecHandlers: middlewares run outermost
// (first-registered) to innermost, each may run logic around calling
// next, and one that never calls next prevents everything after it —
// including the real program — from running at all.
func TestExecMiddlewareChainOrderAndShortCircuit(t *testing.T) {
	requirePath(t, "true")
	c := qt.New(t)

	var order []string
	wrap := func(name string) interp.ExecMiddleware {
		return func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
			return func(ctx context.Context, cmd *exec.Cmd) error {
				order = append(order, name+":before")
				err := next(ctx, cmd)
				order = append(order, name+":after")
				return err
			}
		}
	}

	registry := builtin.New()
	r, err := interp.New(
		interp.WithBuiltins(registry.Lookup),
		interp.WithDir(t.TempDir()),
		interp.WithExecHandlers(wrap("outer"), wrap("inner")),
	)
	c.Assert(err, qt.IsNil)

	_, err = evalSrc(t, r, "true ignored")
	c.Assert(err, qt.IsNil)
	c.Assert(order, qt.DeepEquals, []string{"outer:before", "inner:before", "inner:after", "outer:after"})

	order = nil
	shortCircuit := func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
		return func(ctx context.Context, cmd *exec.Cmd) error {
			order = append(order, "short-circuit")
			return nil
		}
	}
	r2, err := interp.New(
		interp.WithBuiltins(registry.Lookup),
		interp.WithDir(t.TempDir()),
		interp.WithExecHandlers(shortCircuit, wrap("never-reached")),
	)
	c.Assert(err, qt.IsNil)
	_, err = evalSrc(t, r2, "true ignored")
	c.Assert(err, qt.IsNil)
	c.Assert(order, qt.DeepEquals, []string{"short-circuit"})
}

// TestTraceExecMiddlewareEchoesCommandLine covers the `set -x`-style
// trace installed by interp.WithTraceExec: silent until script code
// sets IS_TRACE, then one "+ argv..." line per foreground command.
func TestTraceExecMiddlewareEchoesCommandLine(t *testing.T) {
	requirePath(t, "true")
	c := qt.New(t)

	var trace bytes.Buffer
	registry := builtin.New()
	r, err := interp.New(
		interp.WithBuiltins(registry.Lookup),
		interp.WithDir(t.TempDir()),
		interp.WithTraceExec(&trace),
	)
	c.Assert(err, qt.IsNil)

	_, err = evalSrc(t, r, "true ignored")
	c.Assert(err, qt.IsNil)
	c.Assert(trace.String(), qt.Equals, "")

	_, err = evalSrc(t, r, `Sys.set("IS_TRACE", True); true ignored`)
	c.Assert(err, qt.IsNil)
	c.Assert(strings.Contains(trace.String(), "true"), qt.IsTrue)
}
