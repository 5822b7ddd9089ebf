// Package ast holds the syntax tree produced by the decompiler. Every node
// renders itself from its already-rendered children, so printing is a
// single bottom-up walk.
package ast

import (
	"strings"

	"github.com/zboralski/apt-dumper/apt/value"
)

// Kind tags a Node variant.
type Kind uint8

const (
	Literal          Kind = iota // Value
	LiteralUndefined             // the undefined literal
	Nominator                    // Text is an identifier
	MemberAccess                 // Children: object, member
	Binary                       // Op; Children: right, left
	Unary                        // Op; Children: operand (keyword statements too)
	Array                        // Shape; Children: elements, or key/value pairs
	ValAssign                    // Decl; Children: target[, value]
	ToStatement                  // Children: expression
	MarkNomination               // Children: constructed value
	CheckTarget                  // Children: name pending target-path resolution
	Enumerate                    // Children: enumerated object
	PlainCode                    // Text is pre-rendered
)

var kindNames = [...]string{
	Literal:          "Literal",
	LiteralUndefined: "LiteralUndefined",
	Nominator:        "Nominator",
	MemberAccess:     "MemberAccess",
	Binary:           "Binary",
	Unary:            "Unary",
	Array:            "Array",
	ValAssign:        "ValAssign",
	ToStatement:      "ToStatement",
	MarkNomination:   "MarkNomination",
	CheckTarget:      "CheckTarget",
	Enumerate:        "Enumerate",
	PlainCode:        "PlainCode",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind?"
}

// Shape selects how an Array node renders.
type Shape uint8

const (
	ShapeList   Shape = iota // [a, b]
	ShapeArgs                // a, b
	ShapeObject              // {k: v}
)

// Node is one syntax tree node. Each node exclusively owns its children.
type Node struct {
	Kind     Kind
	Value    value.Value // Literal
	Text     string      // Nominator name, PlainCode text, {text} in formats
	Op       *Operator   // Binary, Unary
	Shape    Shape       // Array
	Decl     bool        // ValAssign: declaration with var
	Children []*Node
}

// Lit returns a literal node. Undefined values become LiteralUndefined.
func Lit(v value.Value) *Node {
	if v.IsUndefined() {
		return Undef()
	}
	return &Node{Kind: Literal, Value: v}
}

// Undef returns the undefined literal.
func Undef() *Node { return &Node{Kind: LiteralUndefined} }

// Name returns a bare identifier.
func Name(s string) *Node { return &Node{Kind: Nominator, Text: s} }

// Code returns verbatim source text.
func Code(text string) *Node { return &Node{Kind: PlainCode, Text: text} }

// Stmt turns an expression into a statement.
func Stmt(n *Node) *Node { return &Node{Kind: ToStatement, Children: []*Node{n}} }

// Mark wraps an object-creating expression.
func Mark(n *Node) *Node { return &Node{Kind: MarkNomination, Children: []*Node{n}} }

// Target wraps a name resolved at run time, rendered eval("...").
func Target(n *Node) *Node { return &Node{Kind: CheckTarget, Children: []*Node{n}} }

// Enumeration returns enumerate(n).
func Enumeration(n *Node) *Node { return &Node{Kind: Enumerate, Children: []*Node{n}} }

// Member returns obj[member], rendered with a dot when member is an
// identifier string literal.
func Member(obj, member *Node) *Node {
	return &Node{Kind: MemberAccess, Children: []*Node{obj, member}}
}

// NewBinary returns left op right. Children are stored right operand first.
func NewBinary(op *Operator, left, right *Node) *Node {
	return &Node{Kind: Binary, Op: op, Children: []*Node{right, left}}
}

// NewUnary returns op applied to x. x may be nil for bare keywords.
func NewUnary(op *Operator, x *Node) *Node {
	n := &Node{Kind: Unary, Op: op}
	if x != nil {
		n.Children = []*Node{x}
	}
	return n
}

// List returns an Array node in source order.
func List(shape Shape, elems ...*Node) *Node {
	return &Node{Kind: Array, Shape: shape, Children: elems}
}

// Assign returns target = val; decl renders a var declaration and val may
// then be nil.
func Assign(target, val *Node, decl bool) *Node {
	n := &Node{Kind: ValAssign, Decl: decl, Children: []*Node{target}}
	if val != nil {
		n.Children = append(n.Children, val)
	}
	return n
}

// Left returns the left operand of a binary node.
func (n *Node) Left() *Node {
	if n.Kind != Binary || len(n.Children) < 2 {
		return nil
	}
	return n.Children[1]
}

// Right returns the right operand of a binary node.
func (n *Node) Right() *Node {
	if n.Kind != Binary || len(n.Children) < 1 {
		return nil
	}
	return n.Children[0]
}

// LiteralValue reports the value of a Literal or LiteralUndefined node,
// looking through MarkNomination.
func (n *Node) LiteralValue() (value.Value, bool) {
	switch n.Kind {
	case Literal:
		return n.Value, true
	case LiteralUndefined:
		return value.Undefined(), true
	case MarkNomination:
		return n.Children[0].LiteralValue()
	}
	return value.Value{}, false
}

// IsOp reports whether n is a Binary or Unary node with the given operator.
func (n *Node) IsOp(op *Operator) bool {
	return (n.Kind == Binary || n.Kind == Unary) && n.Op == op
}

// HasSideEffects reports whether discarding n would lose behavior: calls,
// constructions, assignments and deletes.
func (n *Node) HasSideEffects() bool {
	switch n.Kind {
	case ValAssign, PlainCode:
		return true
	case Binary, Unary:
		switch n.Op {
		case OpCall, OpNew, OpDelete:
			return true
		}
	}
	for _, c := range n.Children {
		if c.HasSideEffects() {
			return true
		}
	}
	return false
}

// Precedence returns the node's own precedence.
func (n *Node) Precedence() int {
	switch n.Kind {
	case Literal:
		if n.Value.IsNumber() && n.Value.ToFloat() < 0 {
			return PrecUnary
		}
		return PrecPrimary
	case MemberAccess:
		return PrecMember
	case Binary, Unary:
		return n.Op.Precedence
	case ValAssign:
		return PrecAssign
	case ToStatement:
		return PrecStatement
	case MarkNomination:
		return n.Children[0].Precedence()
	case Enumerate:
		return PrecCall
	default:
		return PrecPrimary
	}
}

// LowestPrecedence returns the lowest child precedence accepted in slot i
// without parentheses.
func (n *Node) LowestPrecedence(i int) int {
	switch n.Kind {
	case Binary, Unary:
		return n.Op.lowest(i)
	case MemberAccess:
		if i == 0 {
			return PrecMember
		}
		return PrecStatement
	case Array:
		return PrecAssign
	case ValAssign:
		if i == 0 {
			return PrecMember
		}
		return PrecAssign
	default:
		return PrecStatement
	}
}

// Render produces the node's text from its already-rendered children.
func (n *Node) Render(children []string) string {
	switch n.Kind {
	case Literal:
		return n.Value.Source()
	case LiteralUndefined:
		return "undefined"
	case Nominator, PlainCode:
		return n.Text
	case MemberAccess:
		if name, ok := identLiteral(n.Children[1]); ok {
			return children[0] + "." + name
		}
		return children[0] + "[" + children[1] + "]"
	case Binary, Unary:
		if n.Kind == Unary && len(children) == 0 {
			return strings.TrimSpace(strings.SplitN(n.Op.Format, "{", 2)[0])
		}
		return expand(n.Op.Format, children, n.Text)
	case Array:
		switch n.Shape {
		case ShapeArgs:
			return strings.Join(children, ", ")
		case ShapeObject:
			var b strings.Builder
			b.WriteByte('{')
			for i := 0; i+1 < len(children); i += 2 {
				if i > 0 {
					b.WriteString(", ")
				}
				if name, ok := identLiteral(n.Children[i]); ok {
					b.WriteString(name)
				} else {
					b.WriteString(children[i])
				}
				b.WriteString(": ")
				b.WriteString(children[i+1])
			}
			b.WriteByte('}')
			return b.String()
		default:
			return "[" + strings.Join(children, ", ") + "]"
		}
	case ValAssign:
		s := children[0]
		if n.Decl {
			s = "var " + s
		}
		if len(children) > 1 {
			s += " = " + children[1]
		}
		return s
	case ToStatement, MarkNomination:
		return children[0]
	case CheckTarget:
		if name, ok := identLiteral(n.Children[0]); ok {
			return name
		}
		return "eval(" + children[0] + ")"
	case Enumerate:
		return "enumerate(" + children[0] + ")"
	default:
		return ""
	}
}

// identLiteral reports the string of an identifier-shaped string literal.
func identLiteral(n *Node) (string, bool) {
	v, ok := n.LiteralValue()
	if !ok || !v.IsString() || !IsIdentifier(v.Str) {
		return "", false
	}
	return v.Str, true
}

// expand substitutes {N} with children[N] and {text} with text.
func expand(format string, children []string, text string) string {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '{' {
			b.WriteByte(c)
			continue
		}
		end := strings.IndexByte(format[i:], '}')
		if end < 0 {
			b.WriteString(format[i:])
			break
		}
		key := format[i+1 : i+end]
		switch {
		case key == "text":
			b.WriteString(text)
		case len(key) == 1 && key[0] >= '0' && key[0] <= '9' && int(key[0]-'0') < len(children):
			b.WriteString(children[key[0]-'0'])
		default:
			b.WriteString(format[i : i+end+1])
		}
		i += end
	}
	return b.String()
}
