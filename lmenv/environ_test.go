package lmenv_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"lumesh.sh/lumesh/lmenv"
	"lumesh.sh/lumesh/value"
)

func TestDefineUpdatesInnermostExistingScope(t *testing.T) {
	c := qt.New(t)

	root := lmenv.NewRoot()
	root.DefineLocal("x", value.Integer(1))
	child := root.Fork()

	child.Define("x", value.Integer(2))

	v, ok := root.Lookup("x")
	c.Assert(ok, qt.IsTrue)
	c.Assert(v, qt.Equals, value.Expression(value.Integer(2)))
	c.Assert(child.Has("x"), qt.IsFalse)
}

func TestDefineCreatesLocalWhenUnbound(t *testing.T) {
	c := qt.New(t)

	root := lmenv.NewRoot()
	child := root.Fork()
	child.Define("y", value.Integer(5))

	c.Assert(child.Has("y"), qt.IsTrue)
	_, onRoot := root.Lookup("y")
	c.Assert(onRoot, qt.IsFalse)
}

func TestForkChildShadowsParentWithoutMutatingIt(t *testing.T) {
	c := qt.New(t)

	root := lmenv.NewRoot()
	root.DefineLocal("z", value.Integer(1))
	child := root.Fork()
	child.DefineLocal("z", value.Integer(99))

	rv, _ := root.Lookup("z")
	cv, _ := child.Lookup("z")
	c.Assert(rv, qt.Equals, value.Expression(value.Integer(1)))
	c.Assert(cv, qt.Equals, value.Expression(value.Integer(99)))
}

func TestUndefineWalksToDefiningScope(t *testing.T) {
	c := qt.New(t)

	root := lmenv.NewRoot()
	root.DefineLocal("a", value.Integer(1))
	child := root.Fork()

	child.Undefine("a")

	c.Assert(root.IsDefined("a"), qt.IsFalse)
}

func TestStringBindingsOmitsUnconvertibleValues(t *testing.T) {
	c := qt.New(t)

	root := lmenv.NewRoot()
	root.DefineLocal("NAME", value.String("lumesh"))
	root.DefineLocal("handler", value.Lambda{})

	bindings := root.StringBindings()
	c.Assert(bindings, qt.Contains, "NAME=lumesh")
	for _, b := range bindings {
		c.Assert(b, qt.Not(qt.Matches), "^handler=.*")
	}
}

func TestCwdInheritedByFork(t *testing.T) {
	c := qt.New(t)

	root := lmenv.NewRoot()
	root.SetCwd("/tmp/project")
	child := root.Fork()

	c.Assert(child.Cwd(), qt.Equals, "/tmp/project")
}
