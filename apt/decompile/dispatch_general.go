package decompile

import (
	"strconv"

	"github.com/zboralski/apt-dumper/apt/ast"
	"github.com/zboralski/apt-dumper/apt/bytecode"
	"github.com/zboralski/apt-dumper/apt/value"
)

// A handler reports whether it accepted the instruction. Handlers decide on
// the opcode before touching the pool.
type handler func(f *frame, ins bytecode.Instruction) bool

func dispatch(f *frame, ins bytecode.Instruction) bool {
	for _, h := range [...]handler{arithmetic, stack, control, object, playback, url} {
		if h(f, ins) {
			return true
		}
	}
	return false
}

var binaryOps = map[bytecode.InstructionType]func(a, b *ast.Node) *ast.Node{
	bytecode.Add:           Add,
	bytecode.Add2:          Add2,
	bytecode.Subtract:      Subtract,
	bytecode.Multiply:      Multiply,
	bytecode.Divide:        Divide,
	bytecode.Modulo:        Modulo,
	bytecode.BitwiseAnd:    BitwiseAnd,
	bytecode.BitwiseOr:     BitwiseOr,
	bytecode.BitwiseXor:    BitwiseXor,
	bytecode.ShiftLeft:     ShiftLeft,
	bytecode.ShiftRight:    ShiftRight,
	bytecode.ShiftRight2:   ShiftRight2,
	bytecode.StringAdd:     compare(ast.OpStringAdd),
	bytecode.Equals:        compare(ast.OpEquals),
	bytecode.Equals2:       compare(ast.OpEquals),
	bytecode.StrictEquals:  compare(ast.OpStrictEquals),
	bytecode.LessThan:      compare(ast.OpLess),
	bytecode.LessThan2:     compare(ast.OpLess),
	bytecode.Greater:       compare(ast.OpGreater),
	bytecode.StringEquals:  compare(ast.OpStringEquals),
	bytecode.StringLess:    compare(ast.OpStringLess),
	bytecode.StringGreater: compare(ast.OpStringGreater),
	bytecode.LogicalAnd:    compare(ast.OpLogicalAnd),
	bytecode.LogicalOr:     compare(ast.OpLogicalOr),
}

func compare(op *ast.Operator) func(a, b *ast.Node) *ast.Node {
	return func(a, b *ast.Node) *ast.Node { return Compare(op, a, b) }
}

var one = value.Integer(1)

var unaryOps = map[bytecode.InstructionType]func(x *ast.Node) *ast.Node{
	bytecode.LogicalNot: Not,
	bytecode.Increment:  func(x *ast.Node) *ast.Node { return Add(ast.Lit(one), x) },
	bytecode.Decrement:  func(x *ast.Node) *ast.Node { return Subtract(ast.Lit(one), x) },
	bytecode.ToInteger:  func(x *ast.Node) *ast.Node { return Convert("parseInt", x) },
	bytecode.ToNumber:   func(x *ast.Node) *ast.Node { return Convert("Number", x) },
	bytecode.ToString:   func(x *ast.Node) *ast.Node { return Convert("String", x) },
	bytecode.Random:     func(x *ast.Node) *ast.Node { return Convert("random", x) },
}

// arithmetic handles the pop-two-push-one and pop-one-push-one operators.
func arithmetic(f *frame, ins bytecode.Instruction) bool {
	if op, ok := binaryOps[ins.Type]; ok {
		a := f.PopExpression(true)
		b := f.PopExpression(true)
		f.PushNode(op(a, b))
		return true
	}
	if op, ok := unaryOps[ins.Type]; ok {
		f.PushNode(op(f.PopExpression(true)))
		return true
	}
	return false
}

// stack handles literal pushes, registers, stack shuffles and the
// string-variable EA shortcuts.
func stack(f *frame, ins bytecode.Instruction) bool {
	switch ins.Type {
	case bytecode.EA_PushUndefined:
		f.PushNode(ast.Undef())
	case bytecode.EA_PushNull:
		f.PushNode(ast.Lit(value.Null()))
	case bytecode.EA_PushTrue:
		f.PushNode(ast.Lit(value.Boolean(true)))
	case bytecode.EA_PushFalse:
		f.PushNode(ast.Lit(value.Boolean(false)))
	case bytecode.EA_PushZero:
		f.PushNode(ast.Lit(value.Integer(0)))
	case bytecode.EA_PushOne:
		f.PushNode(ast.Lit(one))
	case bytecode.EA_PushThis, bytecode.EA_PushThisVar:
		f.PushNode(ast.Name("this"))
	case bytecode.EA_PushGlobal, bytecode.EA_PushGlobalVar:
		f.PushNode(ast.Name("_global"))
	case bytecode.EA_PushByte, bytecode.EA_PushShort, bytecode.EA_PushLong:
		f.PushNode(ast.Lit(value.Integer(int32(f.intParam(ins, 0)))))
	case bytecode.EA_PushFloat:
		v, ok := bytecode.Float(ins, 0)
		if !ok {
			fail(ins.Type.String(), "missing float parameter")
		}
		f.PushNode(ast.Lit(value.Number(v)))
	case bytecode.EA_PushString:
		f.PushNode(ast.Lit(value.String(f.stringParam(ins, 0))))
	case bytecode.EA_PushConstantByte, bytecode.EA_PushConstantWord:
		f.PushNodeConstant(f.intParam(ins, 0), nil)
	case bytecode.PushData:
		// Parameter 0 is the entry count; the rest index the constant table.
		for i := 1; i < len(ins.Params); i++ {
			f.PushNodeConstant(f.intParam(ins, i), nil)
		}
	case bytecode.ConstantPool:
		nodes, err := BuildConstants(ins.Params, f.d.Global)
		if err != nil {
			panic(&StackError{Op: ins.Type.String(), Err: err})
		}
		f.SetConstants(nodes)
	case bytecode.EA_PushRegister:
		f.PushNode(f.Register(f.intParam(ins, 0)))
	case bytecode.StoreRegister:
		r := f.intParam(ins, 0)
		n := f.PopExpression(false)
		if n.HasSideEffects() {
			// Bind the register to a name so the call runs exactly once.
			name := ast.Name("register" + strconv.Itoa(r))
			f.Emit(ast.Assign(name, n, true))
			n = name
		}
		f.SetRegister(r, n)
		f.PushNode(n)
	case bytecode.Pop:
		n := f.PopExpression(true)
		if !f.Release(n) && n.HasSideEffects() {
			f.Emit(ast.Stmt(n))
		}
	case bytecode.PushDuplicate:
		n := f.PopExpression(false)
		f.PushNode(n)
		f.PushNode(n)
	case bytecode.StackSwap:
		a := f.PopExpression(true)
		b := f.PopExpression(true)
		f.PushNode(a)
		f.PushNode(b)
	case bytecode.EA_PushValueOfVar:
		f.PushNodeConstant(f.intParam(ins, 0), Ref)
	case bytecode.EA_GetStringVar:
		f.PushNode(Ref(ast.Lit(value.String(f.stringParam(ins, 0)))))
	case bytecode.EA_SetStringVar:
		name := Ref(ast.Lit(value.String(f.stringParam(ins, 0))))
		f.Emit(ast.Assign(name, f.PopExpression(true), false))
	case bytecode.EA_GetStringMember:
		member := ast.Lit(value.String(f.stringParam(ins, 0)))
		f.PushNode(ast.Member(f.PopExpression(true), member))
	case bytecode.EA_SetStringMember:
		member := ast.Lit(value.String(f.stringParam(ins, 0)))
		val := f.PopExpression(true)
		obj := f.PopExpression(true)
		f.Emit(ast.Assign(ast.Member(obj, member), val, false))
	case bytecode.EA_ZeroVar:
		name := Ref(f.PopExpression(true))
		f.Emit(ast.Assign(name, ast.Lit(value.Integer(0)), false))
	default:
		return false
	}
	return true
}
