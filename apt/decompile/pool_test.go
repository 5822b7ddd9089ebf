package decompile

import (
	"errors"
	"strings"
	"testing"

	"github.com/zboralski/apt-dumper/apt/ast"
	"github.com/zboralski/apt-dumper/apt/value"
)

func mustPanicStack(t *testing.T, fn func()) *StackError {
	t.Helper()
	var se *StackError
	func() {
		defer func() {
			r := recover()
			e, ok := r.(*StackError)
			if !ok {
				t.Fatalf("recovered %v, want *StackError", r)
			}
			se = e
		}()
		fn()
	}()
	return se
}

func TestPopEmpty(t *testing.T) {
	p := NewPool()
	mustPanicStack(t, func() { p.PopExpression(true) })
}

func TestPopArrayCount(t *testing.T) {
	p := NewPool()
	p.PushNode(ast.Name("n"))
	mustPanicStack(t, func() { p.PopArray(false) })

	p.PushNode(ast.Lit(value.Integer(-1)))
	mustPanicStack(t, func() { p.PopArray(false) })

	p.PushNode(ast.Lit(value.Integer(1)))
	p.PushNode(ast.Lit(value.Integer(2)))
	mustPanicStack(t, func() { p.PopArray(false) })
}

func TestPopArrayCountExceedsDepth(t *testing.T) {
	for _, pair := range []bool{false, true} {
		p := NewPool()
		p.PushNode(ast.Name("a"))
		p.PushNode(ast.Lit(value.Integer(2147483647)))
		e := mustPanicStack(t, func() { p.PopArray(pair) })
		if !strings.Contains(e.Msg, "exceeds stack depth") {
			t.Errorf("pair=%v: msg = %q", pair, e.Msg)
		}
	}

	// One name/value pair needs two entries.
	p := NewPool()
	p.PushNode(ast.Name("v"))
	p.PushNode(ast.Lit(value.Integer(1)))
	mustPanicStack(t, func() { p.PopArray(true) })
}

func TestRegisters(t *testing.T) {
	p := NewPool()
	if got := ast.Print(p.Register(7)); got != "register7" {
		t.Errorf("unbound register = %q", got)
	}
	n := ast.Name("v")
	p.SetRegister(7, n)
	if p.Register(7) != n {
		t.Error("register should hold the stored node")
	}
	mustPanicStack(t, func() { p.Register(NumRegisters) })
}

func TestConstants(t *testing.T) {
	p := NewPool()
	se := mustPanicStack(t, func() { p.PushNodeConstant(0, nil) })
	if !errors.Is(se, ErrNoConstantPool) {
		t.Errorf("err = %v", se)
	}
	p.SetConstants([]*ast.Node{ast.Lit(value.String("name"))})
	p.PushNodeConstant(0, Ref)
	if n, _ := p.Peek(); n.Kind != ast.Nominator || n.Text != "name" {
		t.Errorf("transformed constant = %+v", n)
	}
	mustPanicStack(t, func() { p.PushNodeConstant(1, nil) })
	if p.Depth() != 1 {
		t.Errorf("depth = %d", p.Depth())
	}
}

func TestNotFolding(t *testing.T) {
	if got := ast.Print(Not(ast.Lit(value.Integer(0)))); got != "true" {
		t.Errorf("!0 = %q", got)
	}
	x := ast.Name("x")
	if Not(Not(x)) != x {
		t.Error("double negation should cancel")
	}
}
