package decompile

import (
	"math"

	"github.com/zboralski/apt-dumper/apt/ast"
	"github.com/zboralski/apt-dumper/apt/value"
)

// Operator utilities build expression nodes from popped operands. In every
// binary builder a is the first popped operand (the right-hand side) and b
// the second. When both are literals the result is folded.

func literals(a, b *ast.Node) (value.Value, value.Value, bool) {
	av, ok := a.LiteralValue()
	if !ok {
		return av, av, false
	}
	bv, ok := b.LiteralValue()
	return av, bv, ok
}

// arith applies f to (b, a); integer operands stay integral when the
// result fits.
func arith(a, b value.Value, f func(x, y float64) float64) value.Value {
	r := f(b.ToFloat(), a.ToFloat())
	if a.Kind == value.KindInteger && b.Kind == value.KindInteger {
		return value.Number(r)
	}
	return value.Float(r)
}

// Add2 is the typed addition: numeric when both operands are numbers,
// concatenation of b then a otherwise.
func Add2(a, b *ast.Node) *ast.Node {
	if av, bv, ok := literals(a, b); ok {
		if av.IsNumber() && bv.IsNumber() {
			return ast.Lit(arith(av, bv, func(x, y float64) float64 { return x + y }))
		}
		return ast.Lit(value.String(bv.ToString() + av.ToString()))
	}
	return ast.NewBinary(ast.OpAdd, b, a)
}

// Add is the untyped Flash 4 addition, always numeric.
func Add(a, b *ast.Node) *ast.Node {
	if av, bv, ok := literals(a, b); ok {
		return ast.Lit(arith(av, bv, func(x, y float64) float64 { return x + y }))
	}
	return ast.NewBinary(ast.OpAdd, b, a)
}

// Subtract builds b - a.
func Subtract(a, b *ast.Node) *ast.Node {
	if av, bv, ok := literals(a, b); ok {
		return ast.Lit(arith(av, bv, func(x, y float64) float64 { return x - y }))
	}
	return ast.NewBinary(ast.OpSubtract, b, a)
}

// Multiply builds b * a.
func Multiply(a, b *ast.Node) *ast.Node {
	if av, bv, ok := literals(a, b); ok {
		return ast.Lit(arith(av, bv, func(x, y float64) float64 { return x * y }))
	}
	return ast.NewBinary(ast.OpMultiply, b, a)
}

// Divide folds a zero divisor to NaN.
func Divide(a, b *ast.Node) *ast.Node {
	if av, bv, ok := literals(a, b); ok {
		d := av.ToFloat()
		if d == 0 {
			return ast.Lit(value.NaN())
		}
		return ast.Lit(value.Number(bv.ToFloat() / d))
	}
	return ast.NewBinary(ast.OpDivide, b, a)
}

// Modulo builds b % a with the sign of the dividend.
func Modulo(a, b *ast.Node) *ast.Node {
	if av, bv, ok := literals(a, b); ok {
		return ast.Lit(arith(av, bv, math.Mod))
	}
	return ast.NewBinary(ast.OpModulo, b, a)
}

func bitwise(op *ast.Operator, a, b *ast.Node, f func(x, y int32) int32) *ast.Node {
	if av, bv, ok := literals(a, b); ok {
		return ast.Lit(value.Integer(f(bv.ToInteger(), av.ToInteger())))
	}
	return ast.NewBinary(op, b, a)
}

// BitwiseAnd builds b & a on int32 operands.
func BitwiseAnd(a, b *ast.Node) *ast.Node {
	return bitwise(ast.OpBitAnd, a, b, func(x, y int32) int32 { return x & y })
}

// BitwiseOr builds b | a.
func BitwiseOr(a, b *ast.Node) *ast.Node {
	return bitwise(ast.OpBitOr, a, b, func(x, y int32) int32 { return x | y })
}

// BitwiseXor builds b ^ a.
func BitwiseXor(a, b *ast.Node) *ast.Node {
	return bitwise(ast.OpBitXor, a, b, func(x, y int32) int32 { return x ^ y })
}

// ShiftLeft builds b << a. Shift counts are taken modulo 32.
func ShiftLeft(a, b *ast.Node) *ast.Node {
	return bitwise(ast.OpShiftLeft, a, b, func(x, y int32) int32 { return x << (uint32(y) & 0b11111) })
}

// ShiftRight builds the signed shift b >> a.
func ShiftRight(a, b *ast.Node) *ast.Node {
	return bitwise(ast.OpShiftRight, a, b, func(x, y int32) int32 { return x >> (uint32(y) & 0b11111) })
}

// ShiftRight2 is the unsigned shift: b is reinterpreted as uint32.
func ShiftRight2(a, b *ast.Node) *ast.Node {
	return bitwise(ast.OpShiftRight2, a, b, func(x, y int32) int32 {
		return int32(uint32(x) >> (uint32(y) & 0b11111))
	})
}

// Compare builds a comparison; comparisons are never folded.
func Compare(op *ast.Operator, a, b *ast.Node) *ast.Node {
	return ast.NewBinary(op, b, a)
}

// Not negates x, folding literals and removing double negation.
func Not(x *ast.Node) *ast.Node {
	if v, ok := x.LiteralValue(); ok {
		return ast.Lit(value.Boolean(!v.ToBoolean()))
	}
	if x.IsOp(ast.OpNot) {
		return x.Children[0]
	}
	return ast.NewUnary(ast.OpNot, x)
}

// Call builds callee(args).
func Call(callee, args *ast.Node) *ast.Node {
	return ast.NewBinary(ast.OpCall, callee, args)
}

// CallNamed calls a global function by name.
func CallNamed(name string, args ...*ast.Node) *ast.Node {
	return Call(ast.Name(name), ast.List(ast.ShapeArgs, args...))
}

// MethodCall builds obj.method(args). An undefined or empty method name
// calls obj itself.
func MethodCall(obj, method, args *ast.Node) *ast.Node {
	if v, ok := method.LiteralValue(); ok && (v.IsUndefined() || (v.IsString() && v.Str == "")) {
		return Call(obj, args)
	}
	return Call(ast.Member(obj, method), args)
}

// Construct builds new ctor(args).
func Construct(ctor, args *ast.Node) *ast.Node {
	return ast.NewBinary(ast.OpNew, ctor, args)
}

// valueKeywords are reserved words that still read as variables.
var valueKeywords = map[string]struct{}{"this": {}, "super": {}}

// Ref turns a name expression into a variable reference: identifier string
// literals and this/super become bare names, anything else is resolved at
// run time.
func Ref(name *ast.Node) *ast.Node {
	if v, ok := name.LiteralValue(); ok && v.IsString() {
		if _, kw := valueKeywords[v.Str]; kw || ast.IsIdentifier(v.Str) {
			return ast.Name(v.Str)
		}
	}
	return ast.Target(name)
}

// Convert wraps x in a coercion call such as Number(x).
func Convert(fn string, x *ast.Node) *ast.Node {
	return CallNamed(fn, x)
}
