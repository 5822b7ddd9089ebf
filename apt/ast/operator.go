package ast

// Precedence levels, lowest binding first. A child whose precedence is
// below the slot's lowest accepted precedence is parenthesized.
const (
	PrecStatement = iota
	PrecComma
	PrecAssign
	PrecConditional
	PrecLogicalOr
	PrecLogicalAnd
	PrecBitOr
	PrecBitXor
	PrecBitAnd
	PrecEquality
	PrecRelational
	PrecShift
	PrecAdditive
	PrecMultiplicative
	PrecUnary
	PrecPostfix
	PrecCall
	PrecMember
	PrecPrimary
)

// Operator describes how a Binary or Unary node renders.
//
// Format addresses children by index: binary nodes keep children in
// stack-pop order, so {0} is the right operand and {1} the left. {text}
// expands to the node's Text.
type Operator struct {
	Name       string
	Precedence int
	// LeftAssoc means the left operand may share this precedence without
	// parentheses; the right operand may not.
	LeftAssoc bool
	Format    string
	Arity     int
}

func binary(name string, prec int, format string) *Operator {
	return &Operator{Name: name, Precedence: prec, LeftAssoc: true, Format: format, Arity: 2}
}

func unary(name string, prec int, format string) *Operator {
	return &Operator{Name: name, Precedence: prec, Format: format, Arity: 1}
}

var (
	OpAdd      = binary("+", PrecAdditive, "{1} + {0}")
	OpSubtract = binary("-", PrecAdditive, "{1} - {0}")
	OpMultiply = binary("*", PrecMultiplicative, "{1} * {0}")
	OpDivide   = binary("/", PrecMultiplicative, "{1} / {0}")
	OpModulo   = binary("%", PrecMultiplicative, "{1} % {0}")

	OpEquals       = binary("==", PrecEquality, "{1} == {0}")
	OpStrictEquals = binary("===", PrecEquality, "{1} === {0}")
	OpLess         = binary("<", PrecRelational, "{1} < {0}")
	OpGreater      = binary(">", PrecRelational, "{1} > {0}")
	OpInstanceOf   = binary("instanceof", PrecRelational, "{1} instanceof {0}")

	// Flash 4 string operators.
	OpStringEquals  = binary("eq", PrecEquality, "{1} eq {0}")
	OpStringLess    = binary("lt", PrecRelational, "{1} lt {0}")
	OpStringGreater = binary("gt", PrecRelational, "{1} gt {0}")
	OpStringAdd     = binary("add", PrecAdditive, "{1} add {0}")

	OpLogicalAnd  = binary("&&", PrecLogicalAnd, "{1} && {0}")
	OpLogicalOr   = binary("||", PrecLogicalOr, "{1} || {0}")
	OpBitAnd      = binary("&", PrecBitAnd, "{1} & {0}")
	OpBitOr       = binary("|", PrecBitOr, "{1} | {0}")
	OpBitXor      = binary("^", PrecBitXor, "{1} ^ {0}")
	OpShiftLeft   = binary("<<", PrecShift, "{1} << {0}")
	OpShiftRight  = binary(">>", PrecShift, "{1} >> {0}")
	OpShiftRight2 = binary(">>>", PrecShift, "{1} >>> {0}")

	// Calls keep the argument list in {0} and the callee in {1}.
	OpCall = binary("call", PrecCall, "{1}({0})")
	OpNew  = binary("new", PrecCall, "new {1}({0})")

	OpExtends = &Operator{Name: "extends", Precedence: PrecStatement, Format: "{1} extends {0}", Arity: 2}

	OpNot    = unary("!", PrecUnary, "!{0}")
	OpTypeOf = unary("typeof", PrecUnary, "typeof {0}")
	OpDelete = unary("delete", PrecUnary, "delete {0}")

	OpReturn = unary("return", PrecStatement, "return {0}")
	OpThrow  = unary("throw", PrecStatement, "throw {0}")
	OpIf     = unary("if", PrecStatement, "if ({0})")
	OpIfGoto = unary("if-goto", PrecStatement, "if ({0}) goto {text}")
)

// lowest returns the lowest precedence accepted in operand slot i.
func (o *Operator) lowest(i int) int {
	switch o {
	case OpCall, OpNew:
		if i == 1 {
			return PrecMember
		}
		return PrecStatement
	}
	if o.Precedence == PrecStatement {
		return PrecStatement
	}
	if o.Arity == 1 {
		return o.Precedence
	}
	// Binary children are stored right operand first.
	left := i == 1
	if left == o.LeftAssoc {
		return o.Precedence
	}
	return o.Precedence + 1
}
