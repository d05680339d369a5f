package interp_test

import (
	"bytes"
	"context"
	"testing"

	qt "github.com/frankban/quicktest"

	"lumesh.sh/lumesh/builtin"
	"lumesh.sh/lumesh/errs"
	"lumesh.sh/lumesh/interp"
	"lumesh.sh/lumesh/syntax"
	"lumesh.sh/lumesh/value"
)

// run parses and evaluates src against a fresh Runner wired to the full
// builtin registry, mirroring how cmd/lumesh wires interp.New.
func run(t *testing.T, src string) (value.Expression, error) {
	t.Helper()
	expr, err := syntax.Parse([]byte(src), "<test>")
	qt.Assert(t, err, qt.IsNil)

	registry := builtin.New()
	r, err := interp.New(interp.WithBuiltins(registry.Lookup), interp.WithDir(t.TempDir()))
	qt.Assert(t, err, qt.IsNil)
	return r.Run(context.Background(), expr)
}

func TestArithmeticAndPrecedence(t *testing.T) {
	c := qt.New(t)
	got, err := run(t, "1 + 2 * 3")
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, value.Expression(value.Integer(7)))
}

func TestPowerOverflowIsError(t *testing.T) {
	c := qt.New(t)
	_, err := run(t, "2 ** 63")
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestPowerFloatBaseDoesNotOverflow(t *testing.T) {
	c := qt.New(t)
	got, err := run(t, "2.0 ** 63")
	c.Assert(err, qt.IsNil)
	_, isFloat := got.(value.Float)
	c.Assert(isFloat, qt.IsTrue)
}

func TestCompoundAssignDefaultsUndefinedToZero(t *testing.T) {
	c := qt.New(t)
	got, err := run(t, "counter += 1; counter")
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, value.Expression(value.Integer(1)))
}

func TestCompoundAssignOnExistingBinding(t *testing.T) {
	c := qt.New(t)
	got, err := run(t, "x = 10; x -= 3; x")
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, value.Expression(value.Integer(7)))
}

func TestLambdaCallAndClosureCapture(t *testing.T) {
	c := qt.New(t)
	got, err := run(t, "y = 5; adder = (x) -> x + y; adder(10)")
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, value.Expression(value.Integer(15)))
}

func TestLambdaRestParam(t *testing.T) {
	c := qt.New(t)
	got, err := run(t, "f = (*xs) -> len(xs); f(1, 2, 3)")
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, value.Expression(value.Integer(3)))
}

func TestTopLevelBuiltinCallSyntax(t *testing.T) {
	c := qt.New(t)
	got, err := run(t, `len("hello")`)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, value.Expression(value.Integer(5)))
}

func TestDotMethodFormResolvesAgainstVariantLibrary(t *testing.T) {
	c := qt.New(t)
	got, err := run(t, `"  hi  ".trim()`)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, value.Expression(value.String("hi")))
}

func TestLoopWithBreakValue(t *testing.T) {
	c := qt.New(t)
	got, err := run(t, `
		i = 0
		loop {
			i += 1
			if i == 3 {
				break i * 10
			}
		}
	`)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, value.Expression(value.Integer(30)))
}

func TestForLoopOverRange(t *testing.T) {
	c := qt.New(t)
	got, err := run(t, `
		total = 0
		for i in 0..5 {
			total += i
		}
		total
	`)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, value.Expression(value.Integer(10)))
}

func TestMatchDispatchesFirstMatchingArm(t *testing.T) {
	c := qt.New(t)
	got, err := run(t, `
		match 2 {
			1 -> "one",
			2 -> "two",
			_ -> "other"
		}
	`)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, value.Expression(value.String("two")))
}

func TestIndexAssignmentRebindsThroughCOW(t *testing.T) {
	c := qt.New(t)
	got, err := run(t, `xs = [1, 2, 3]; xs@1 = 99; xs`)
	c.Assert(err, qt.IsNil)
	list, ok := got.(value.List)
	c.Assert(ok, qt.IsTrue)
	v, _ := list.Get(1)
	c.Assert(v, qt.Equals, value.Expression(value.Integer(99)))
}

func TestUndefinedSymbolIsRuntimeError(t *testing.T) {
	c := qt.New(t)
	_, err := run(t, "undefined_name_xyz")
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestDivideByZeroIsRuntimeError(t *testing.T) {
	c := qt.New(t)
	_, err := run(t, "1 / 0")
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestRuntimeErrorCarriesOriginatingExpression(t *testing.T) {
	c := qt.New(t)
	_, err := run(t, "1 / 0")
	re, ok := err.(*errs.RuntimeError)
	c.Assert(ok, qt.IsTrue)
	c.Assert(re.Context, qt.Not(qt.IsNil))
}

func TestErrTryHandlerSeesNonEmptyExpression(t *testing.T) {
	c := qt.New(t)
	got, err := run(t, `err.try(1 / 0, (e) -> e.expression)`)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Not(qt.Equals), value.Expression(value.String("")))
}

func TestContinueSkipsRestOfIterationNotWholeLoop(t *testing.T) {
	c := qt.New(t)
	got, err := run(t, `
		total = 0
		for i in 0..5 {
			if i == 2 {
				continue
			}
			total += i
		}
		total
	`)
	c.Assert(err, qt.IsNil)
	// 0 + 1 + 3 + 4, skipping i == 2
	c.Assert(got, qt.Equals, value.Expression(value.Integer(8)))
}

func TestBreakOutsideLoopIsReportedAsMisuse(t *testing.T) {
	c := qt.New(t)
	_, err := run(t, "break 1")
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestErrTryCatchesRuntimeErrorKind(t *testing.T) {
	c := qt.New(t)
	got, err := run(t, `err.try(1 / 0, (e) -> e.kind)`)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, value.Expression(value.String("DivideByZero")))
}

func TestErrTryPassesThroughOnSuccess(t *testing.T) {
	c := qt.New(t)
	got, err := run(t, `err.try(1 + 1, (e) -> -1)`)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, value.Expression(value.Integer(2)))
}

func TestLessThanBindsTighterThanAndAnd(t *testing.T) {
	c := qt.New(t)
	// Would parse as (1 && 2) < 3 -> false if '<' were still handled at
	// the pipeline level instead of alongside '<=' '>=' '>'.
	got, err := run(t, "1 < 2 && 2 < 3")
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, value.Expression(value.Boolean(true)))
}

func TestUserDefinedOperator(t *testing.T) {
	c := qt.New(t)
	got, err := run(t, "let _plus2 = (a, b) -> a + b + 2; 3 _plus2 4")
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, value.Expression(value.Integer(9)))
}

func TestUserDefinedOperatorUndefinedNameErrors(t *testing.T) {
	c := qt.New(t)
	_, err := run(t, "1 _nope 2")
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestTemplateInterpolationInBareString(t *testing.T) {
	c := qt.New(t)
	registry := builtin.New()
	var stdout bytes.Buffer
	r, err := interp.New(
		interp.WithBuiltins(registry.Lookup),
		interp.WithStdio(nil, &stdout, &stdout),
		interp.WithDir(t.TempDir()),
	)
	c.Assert(err, qt.IsNil)

	expr, err := syntax.Parse([]byte(`name = "lumesh"; "hello $name"`), "<test>")
	c.Assert(err, qt.IsNil)
	got, err := r.Run(context.Background(), expr)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, value.Expression(value.String("hello lumesh")))
}
