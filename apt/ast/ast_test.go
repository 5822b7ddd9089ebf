package ast

import (
	"testing"

	"github.com/zboralski/apt-dumper/apt/value"
)

func TestBinaryRendersPopOrder(t *testing.T) {
	n := &Node{Kind: Binary, Op: OpAdd}
	if got := n.Render([]string{"1", "2"}); got != "2 + 1" {
		t.Errorf("Render = %q, want %q", got, "2 + 1")
	}
	b := NewBinary(OpSubtract, Name("a"), Name("b"))
	if got := Print(b); got != "a - b" {
		t.Errorf("Print = %q", got)
	}
}

func TestParenthesization(t *testing.T) {
	a, b, c := Name("a"), Name("b"), Name("c")
	tests := []struct {
		name string
		n    *Node
		want string
	}{
		{"left assoc same level", NewBinary(OpSubtract, NewBinary(OpSubtract, a, b), c), "a - b - c"},
		{"right operand same level", NewBinary(OpSubtract, a, NewBinary(OpSubtract, b, c)), "a - (b - c)"},
		{"lower precedence child", NewBinary(OpMultiply, NewBinary(OpAdd, a, b), c), "(a + b) * c"},
		{"higher precedence child", NewBinary(OpAdd, a, NewBinary(OpMultiply, b, c)), "a + b * c"},
		{"not of comparison", NewUnary(OpNot, NewBinary(OpLess, a, b)), "!(a < b)"},
		{"member of sum", Member(NewBinary(OpAdd, a, b), Lit(value.String("x"))), "(a + b).x"},
		{"call of member", NewBinary(OpCall, Member(a, Lit(value.String("f"))), List(ShapeArgs, b, c)), "a.f(b, c)"},
		{"assignment value", Assign(a, NewBinary(OpLogicalOr, b, c), false), "a = b || c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Print(tt.n); got != tt.want {
				t.Errorf("Print = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMemberRendering(t *testing.T) {
	obj := Name("o")
	if got := Print(Member(obj, Lit(value.String("name")))); got != "o.name" {
		t.Errorf("identifier member = %q", got)
	}
	if got := Print(Member(obj, Lit(value.String("two words")))); got != `o["two words"]` {
		t.Errorf("non-identifier member = %q", got)
	}
	if got := Print(Member(obj, Lit(value.String("new")))); got != `o["new"]` {
		t.Errorf("reserved member = %q", got)
	}
	if got := Print(Member(obj, Lit(value.Integer(3)))); got != "o[3]" {
		t.Errorf("index member = %q", got)
	}
}

func TestArrayShapes(t *testing.T) {
	one, two := Lit(value.Integer(1)), Lit(value.String("b"))
	if got := Print(List(ShapeList, one, two)); got != `[1, "b"]` {
		t.Errorf("list = %q", got)
	}
	if got := Print(List(ShapeArgs, one, two)); got != `1, "b"` {
		t.Errorf("args = %q", got)
	}
	obj := List(ShapeObject, Lit(value.String("k")), one, Lit(value.String("a b")), two)
	if got := Print(obj); got != `{k: 1, "a b": "b"}` {
		t.Errorf("object = %q", got)
	}
}

func TestNullLiteralIsNotAbsent(t *testing.T) {
	n := Lit(value.Null())
	if n == nil || n.Kind != Literal {
		t.Fatalf("null literal = %+v", n)
	}
	if got := Print(n); got != "null" {
		t.Errorf("null renders %q", got)
	}
	if got := Print(Lit(value.Undefined())); got != "undefined" {
		t.Errorf("undefined renders %q", got)
	}
	if Print(nil) != "" {
		t.Error("absent node should render empty")
	}
}

func TestStatements(t *testing.T) {
	stmts := []*Node{
		Assign(Name("x"), Lit(value.Integer(1)), true),
		Stmt(NewUnary(OpReturn, Name("x"))),
		Code("loc_00010:"),
		NewUnary(OpReturn, nil),
	}
	want := "var x = 1;\nreturn x;\nloc_00010:\nreturn;\n"
	if got := Program(stmts); got != want {
		t.Errorf("Program =\n%s\nwant\n%s", got, want)
	}
}

func TestCheckTarget(t *testing.T) {
	if got := Print(Target(Lit(value.String("clip")))); got != "clip" {
		t.Errorf("plain target = %q", got)
	}
	if got := Print(Target(Lit(value.String("/root:x")))); got != `eval("/root:x")` {
		t.Errorf("path target = %q", got)
	}
}

func TestIfGoto(t *testing.T) {
	n := NewUnary(OpIfGoto, NewUnary(OpNot, Name("done")))
	n.Text = "loc_0001F"
	if got := Print(n); got != "if (!done) goto loc_0001F" {
		t.Errorf("if-goto = %q", got)
	}
}

func TestIsIdentifier(t *testing.T) {
	for s, want := range map[string]bool{
		"a": true, "_x1": true, "$y": true, "1a": false, "": false, "a-b": false, "this": false,
	} {
		if got := IsIdentifier(s); got != want {
			t.Errorf("IsIdentifier(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestSideEffects(t *testing.T) {
	if NewBinary(OpAdd, Name("a"), Name("b")).HasSideEffects() {
		t.Error("sum has no side effects")
	}
	call := NewBinary(OpCall, Name("f"), List(ShapeArgs))
	if !NewBinary(OpAdd, call, Name("b")).HasSideEffects() {
		t.Error("sum containing a call has side effects")
	}
}
