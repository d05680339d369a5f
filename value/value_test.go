package value_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"lumesh.sh/lumesh/value"
)

func TestListCopyOnWrite(t *testing.T) {
	c := qt.New(t)

	original := value.NewList([]value.Expression{value.Integer(1), value.Integer(2)})
	edited := original.With(0, value.Integer(99))

	c.Assert(original.Items()[0], qt.Equals, value.Expression(value.Integer(1)))
	c.Assert(edited.Items()[0], qt.Equals, value.Expression(value.Integer(99)))
	c.Assert(original.Len(), qt.Equals, 2)
}

func TestListAppendDoesNotMutateOriginal(t *testing.T) {
	c := qt.New(t)

	base := value.NewList([]value.Expression{value.Integer(1)})
	appended := base.Append(value.Integer(2), value.Integer(3))

	c.Assert(base.Len(), qt.Equals, 1)
	c.Assert(appended.Len(), qt.Equals, 3)
}

func TestMapWithIsCopyOnWrite(t *testing.T) {
	c := qt.New(t)

	base := value.NewMap(map[string]value.Expression{"a": value.Integer(1)})
	next := base.With("b", value.Integer(2))

	_, hasB := base.Get("b")
	c.Assert(hasB, qt.IsFalse)
	v, ok := next.Get("b")
	c.Assert(ok, qt.IsTrue)
	c.Assert(v, qt.Equals, value.Expression(value.Integer(2)))
}

func TestMapMergeRightBiased(t *testing.T) {
	c := qt.New(t)

	a := value.NewMap(map[string]value.Expression{"x": value.Integer(1), "y": value.Integer(2)})
	b := value.NewMap(map[string]value.Expression{"x": value.Integer(9)})
	merged := a.Merge(b)

	xv, _ := merged.Get("x")
	yv, _ := merged.Get("y")
	c.Assert(xv, qt.Equals, value.Expression(value.Integer(9)))
	c.Assert(yv, qt.Equals, value.Expression(value.Integer(2)))
}

func TestEqualCrossNumericType(t *testing.T) {
	c := qt.New(t)

	c.Assert(value.Equal(value.Integer(2), value.Float(2.0)), qt.IsTrue)
	c.Assert(value.Equal(value.Integer(0), value.Boolean(false)), qt.IsFalse)
	c.Assert(value.Equal(value.None{}, value.Integer(0)), qt.IsFalse)
}

func TestEqualListsElementwise(t *testing.T) {
	c := qt.New(t)

	a := value.NewList([]value.Expression{value.Integer(1), value.String("x")})
	b := value.NewList([]value.Expression{value.Integer(1), value.String("x")})
	d := value.NewList([]value.Expression{value.Integer(1), value.String("y")})

	c.Assert(value.Equal(a, b), qt.IsTrue)
	c.Assert(value.Equal(a, d), qt.IsFalse)
}

func TestCompareNotOrdered(t *testing.T) {
	c := qt.New(t)

	_, err := value.Compare(value.Boolean(true), value.Integer(1))
	c.Assert(err, qt.Equals, value.ErrNotOrdered)
}

func TestCompareNumericPromotesToFloat(t *testing.T) {
	c := qt.New(t)

	got, err := value.Compare(value.Integer(1), value.Float(1.5))
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, -1)
}

func TestHumanFileSizeRoundTrip(t *testing.T) {
	c := qt.New(t)

	fs := value.HumanFileSize(1536)
	c.Assert(fs.Unit, qt.Equals, "KB")
	c.Assert(fs.String(), qt.Equals, "1.50KB")
}

func TestFloatStringKeepsDecimalPoint(t *testing.T) {
	c := qt.New(t)

	c.Assert(value.Float(3).String(), qt.Equals, "3.0")
	c.Assert(value.Float(3.5).String(), qt.Equals, "3.5")
}

func TestTruthy(t *testing.T) {
	c := qt.New(t)

	c.Assert(value.Truthy(value.Boolean(true)), qt.IsTrue)
	c.Assert(value.Truthy(value.Integer(0)), qt.IsFalse)
	c.Assert(value.Truthy(value.String("")), qt.IsFalse)
	c.Assert(value.Truthy(value.None{}), qt.IsFalse)
	c.Assert(value.Truthy(value.NewList(nil)), qt.IsFalse)
}
