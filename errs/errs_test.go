package errs_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"lumesh.sh/lumesh/errs"
	"lumesh.sh/lumesh/value"
)

func TestCodeIsStableAcrossKinds(t *testing.T) {
	c := qt.New(t)

	c.Assert(errs.KindDivideByZero.Code(), qt.Equals, int(errs.KindDivideByZero))
	c.Assert(errs.KindOverflow.Code(), qt.Not(qt.Equals), errs.KindDivideByZero.Code())
}

func TestIsSentinelOnlyForControlFlow(t *testing.T) {
	c := qt.New(t)

	c.Assert(errs.KindBreak.IsSentinel(), qt.IsTrue)
	c.Assert(errs.KindContinue.IsSentinel(), qt.IsTrue)
	c.Assert(errs.KindReturn.IsSentinel(), qt.IsTrue)
	c.Assert(errs.KindTypeError.IsSentinel(), qt.IsFalse)
}

func TestWithContextSetsOnlyOnce(t *testing.T) {
	c := qt.New(t)

	e := errs.New(errs.KindTypeError, "bad value")
	first := value.String("first")
	second := value.String("second")

	withFirst := e.WithContext(first)
	withSecond := withFirst.WithContext(second)

	c.Assert(withSecond.Context, qt.Equals, value.Expression(first))
}

func TestErrorMessageFormatting(t *testing.T) {
	c := qt.New(t)

	e := errs.New(errs.KindDivideByZero, "division by zero")
	c.Assert(e.Error(), qt.Equals, "DivideByZero: division by zero")
}

func TestAsMapCarriesCodeAndMessage(t *testing.T) {
	c := qt.New(t)

	e := errs.New(errs.KindIndexOutOfBounds, "index %d out of bounds", 5)
	m := e.AsMap()

	msg, _ := m.Get("message")
	code, _ := m.Get("code")
	c.Assert(msg, qt.Equals, value.Expression(value.String("index 5 out of bounds")))
	c.Assert(code, qt.Equals, value.Expression(value.Integer(errs.KindIndexOutOfBounds.Code())))
}

func TestCustomErrorUsesCustomErrorKind(t *testing.T) {
	c := qt.New(t)

	e := errs.Custom("boom")
	c.Assert(e.Kind, qt.Equals, errs.KindCustomError)
	c.Assert(e.Code(), qt.Equals, errs.KindCustomError.Code())
}
