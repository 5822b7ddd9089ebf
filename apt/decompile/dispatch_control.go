package decompile

import (
	"fmt"
	"strings"

	"github.com/zboralski/apt-dumper/apt"
	"github.com/zboralski/apt-dumper/apt/ast"
	"github.com/zboralski/apt-dumper/apt/bytecode"
)

// control handles branches, returns and nested function definitions.
// Try and With are left to the driver as unhandled.
func control(f *frame, ins bytecode.Instruction) bool {
	switch ins.Type {
	case bytecode.End, bytecode.BranchAlways:
		// Jumps are already linearized; the driver writes goto lines.
	case bytecode.BranchIfTrue:
		f.PushNode(ast.NewUnary(ast.OpIf, f.PopExpression(true)))
	case bytecode.EA_BranchIfFalse:
		f.PushNode(ast.NewUnary(ast.OpIf, Not(f.PopExpression(true))))
	case bytecode.Return:
		f.Emit(ast.NewUnary(ast.OpReturn, f.PopExpression(true)))
	case bytecode.Throw:
		f.Emit(ast.NewUnary(ast.OpThrow, f.PopExpression(true)))
	case bytecode.DefineFunction, bytecode.DefineFunction2:
		h, ok := bytecode.DecodeFunctionHeader(ins)
		if !ok {
			fail(ins.Type.String(), "malformed function header")
		}
		code := ast.Code(f.defineFunction(h, ins.Body))
		if h.Name == "" {
			f.PushNode(code)
		} else {
			f.Emit(code)
		}
	default:
		return false
	}
	return true
}

// defineFunction decompiles a nested body with a fresh pool that inherits
// the enclosing constant table, and renders it as function source.
func (f *frame) defineFunction(h bytecode.FunctionHeader, body []bytecode.Instruction) string {
	name := h.Name
	if name == "" {
		name = f.name + "/<anonymous>"
	}
	inner := f.d.newFrame(name, f.depth+1)
	if f.hasConsts {
		inner.SetConstants(f.Constants())
	}
	err := f.d.run(inner, body)
	f.diags = append(f.diags, inner.diags...)
	if err != nil {
		if f.d.Options.Mode == apt.Strict {
			panic(&StackError{Op: "define function " + name, Err: err})
		}
		f.diag(apt.DiagInvalid, "function %s: %v", name, err)
		inner.Emit(ast.Code(fmt.Sprintf("// decompile failed: %v", err)))
	}

	var b strings.Builder
	b.WriteString("function ")
	b.WriteString(h.Name)
	b.WriteByte('(')
	b.WriteString(strings.Join(h.Args, ", "))
	b.WriteString(") {\n")
	if stmts := inner.Statements(); len(stmts) > 0 {
		b.WriteString(ast.Indent(ast.Program(stmts), f.d.Options.EffectiveIndent()))
		b.WriteByte('\n')
	}
	b.WriteByte('}')
	return b.String()
}
