package syntax_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	qt "github.com/frankban/quicktest"

	"lumesh.sh/lumesh/syntax"
	"lumesh.sh/lumesh/value"
)

func parseExpr(t *testing.T, src string) value.Expression {
	t.Helper()
	expr, err := syntax.ParseExpr([]byte(src), "<test>")
	qt.Assert(t, err, qt.IsNil)
	return expr
}

func TestParseExprArithmeticPrecedence(t *testing.T) {
	c := qt.New(t)

	got := parseExpr(t, "1 + 2 * 3")
	want := value.BinaryOp{
		Op:   "+",
		Left: value.Integer(1),
		Right: value.BinaryOp{
			Op:    "*",
			Left:  value.Integer(2),
			Right: value.Integer(3),
		},
	}
	c.Assert(cmp.Diff(want, got), qt.Equals, "")
}

func TestParsePowerIsRightAssociative(t *testing.T) {
	c := qt.New(t)

	got := parseExpr(t, "2 ** 3 ** 2")
	want := value.BinaryOp{
		Op:   "**",
		Left: value.Integer(2),
		Right: value.BinaryOp{
			Op:    "**",
			Left:  value.Integer(3),
			Right: value.Integer(2),
		},
	}
	c.Assert(cmp.Diff(want, got), qt.Equals, "")
}

func TestParseCompoundAssignSetsCompoundField(t *testing.T) {
	c := qt.New(t)

	expr, err := syntax.Parse([]byte("x += 1"), "<test>")
	c.Assert(err, qt.IsNil)
	assign, ok := expr.(value.Assign)
	c.Assert(ok, qt.IsTrue)
	c.Assert(assign.Compound, qt.Equals, "+")
	c.Assert(assign.Target, qt.Equals, value.Expression(value.Symbol("x")))
}

func TestParsePlainAssignLeavesCompoundEmpty(t *testing.T) {
	c := qt.New(t)

	expr, err := syntax.Parse([]byte("x = 1"), "<test>")
	c.Assert(err, qt.IsNil)
	assign, ok := expr.(value.Assign)
	c.Assert(ok, qt.IsTrue)
	c.Assert(assign.Compound, qt.Equals, "")
}

func TestParseLambdaWithRestParam(t *testing.T) {
	c := qt.New(t)

	got := parseExpr(t, "(a, b, *rest) -> a + b")
	want := value.Lambda{
		Params: []string{"a", "b"},
		Rest:   "rest",
		Body:   value.BinaryOp{Op: "+", Left: value.Symbol("a"), Right: value.Symbol("b")},
	}
	c.Assert(cmp.Diff(want, got), qt.Equals, "")
}

func TestParseListLiteral(t *testing.T) {
	c := qt.New(t)

	got := parseExpr(t, "[1, 2, 3]")
	list, ok := got.(value.List)
	c.Assert(ok, qt.IsTrue)
	c.Assert(list.Len(), qt.Equals, 3)
}

func TestParseIndexVsSliceDisambiguation(t *testing.T) {
	c := qt.New(t)

	idx := parseExpr(t, "xs[0]")
	_, isIndex := idx.(value.Index)
	c.Assert(isIndex, qt.IsTrue)

	sl := parseExpr(t, "xs[0:2]")
	_, isSlice := sl.(value.Slice)
	c.Assert(isSlice, qt.IsTrue)
}

func TestParseIfElseChain(t *testing.T) {
	c := qt.New(t)

	expr, err := syntax.Parse([]byte("if x { 1 } else if y { 2 } else { 3 }"), "<test>")
	c.Assert(err, qt.IsNil)
	top, ok := expr.(value.If)
	c.Assert(ok, qt.IsTrue)
	_, elseIsIf := top.Else.(value.If)
	c.Assert(elseIsIf, qt.IsTrue)
}

func TestParseCommandSyntax(t *testing.T) {
	c := qt.New(t)

	expr, err := syntax.Parse([]byte("echo -la foo"), "<test>")
	c.Assert(err, qt.IsNil)
	cmd, ok := expr.(value.Command)
	c.Assert(ok, qt.IsTrue)
	c.Assert(cmd.Head, qt.Equals, value.Expression(value.Symbol("echo")))
	c.Assert(len(cmd.Args), qt.Equals, 2)
}

func TestParseDotMethodCall(t *testing.T) {
	c := qt.New(t)

	got := parseExpr(t, "s.trim()")
	apply, ok := got.(value.Apply)
	c.Assert(ok, qt.IsTrue)
	dot, ok := apply.Func.(value.BinaryOp)
	c.Assert(ok, qt.IsTrue)
	c.Assert(dot.Op, qt.Equals, ".")
}

func TestParseExprRejectsTrailingInput(t *testing.T) {
	c := qt.New(t)

	_, err := syntax.ParseExpr([]byte("1 + 2 )"), "<test>")
	c.Assert(err, qt.Not(qt.IsNil))
}
