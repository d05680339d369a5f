package template_test

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"

	"lumesh.sh/lumesh/template"
)

func lookupEval(vars map[string]string) template.Eval {
	return func(expr string) (string, error) {
		if v, ok := vars[expr]; ok {
			return v, nil
		}
		return "", errors.New("undefined: " + expr)
	}
}

func TestRenderBareName(t *testing.T) {
	c := qt.New(t)

	out, err := template.Render("hello $name!", lookupEval(map[string]string{"name": "world"}))
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "hello world!")
}

func TestRenderBracedExpr(t *testing.T) {
	c := qt.New(t)

	out, err := template.Render("sum: ${1 + 2}", lookupEval(map[string]string{"1 + 2": "3"}))
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "sum: 3")
}

func TestRenderNestedBraces(t *testing.T) {
	c := qt.New(t)

	out, err := template.Render("${f({a: 1})}", lookupEval(map[string]string{"f({a: 1})": "ok"}))
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "ok")
}

func TestRenderEscapedDollar(t *testing.T) {
	c := qt.New(t)

	out, err := template.Render("cost: $$5", lookupEval(nil))
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "cost: $5")
}

func TestRenderErrorSubstitutesEmptyButKeepsRest(t *testing.T) {
	c := qt.New(t)

	out, err := template.Render("[$missing][$found]", lookupEval(map[string]string{"found": "yes"}))
	c.Assert(err, qt.ErrorMatches, "undefined: missing")
	c.Assert(out, qt.Equals, "[][yes]")
}

func TestRenderUnterminatedBraceIsLiteral(t *testing.T) {
	c := qt.New(t)

	out, err := template.Render("${oops", lookupEval(nil))
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "${oops")
}
