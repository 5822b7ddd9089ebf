package decompile

import (
	"github.com/zboralski/apt-dumper/apt/ast"
	"github.com/zboralski/apt-dumper/apt/bytecode"
)

// object handles variables, members, calls and construction.
func object(f *frame, ins bytecode.Instruction) bool {
	switch ins.Type {
	case bytecode.GetVariable:
		f.PushNode(Ref(f.PopExpression(true)))
	case bytecode.SetVariable:
		val := f.PopExpression(true)
		name := f.PopExpression(true)
		f.Emit(ast.Assign(Ref(name), val, false))
	case bytecode.DefineLocal:
		val := f.PopExpression(true)
		name := f.PopExpression(true)
		f.Emit(ast.Assign(Ref(name), val, true))
	case bytecode.DefineLocal2:
		f.Emit(ast.Assign(Ref(f.PopExpression(true)), nil, true))
	case bytecode.GetMember:
		member := f.PopExpression(true)
		obj := f.PopExpression(true)
		f.PushNode(ast.Member(obj, member))
	case bytecode.SetMember:
		val := f.PopExpression(true)
		member := f.PopExpression(true)
		obj := f.PopExpression(true)
		f.Emit(ast.Assign(ast.Member(obj, member), val, false))
	case bytecode.EA_GetNamedMember:
		f.getNamedMember(ins)
	case bytecode.Delete:
		member := f.PopExpression(true)
		obj := f.PopExpression(true)
		f.PushNode(ast.NewUnary(ast.OpDelete, ast.Member(obj, member)))
	case bytecode.Delete2:
		f.PushNode(ast.NewUnary(ast.OpDelete, Ref(f.PopExpression(true))))
	case bytecode.CallFunction:
		name := f.PopExpression(true)
		f.PushNode(Call(Ref(name), f.PopArray(false)))
	case bytecode.CallMethod:
		method := f.PopExpression(true)
		obj := f.PopExpression(true)
		f.PushNode(MethodCall(obj, method, f.PopArray(false)))
	case bytecode.EA_CallNamedFunc, bytecode.EA_CallNamedFuncPop:
		name := f.constantParam(ins, 0, Ref)
		call := Call(name, f.PopArray(false))
		if ins.Type == bytecode.EA_CallNamedFuncPop {
			f.Emit(ast.Stmt(call))
		} else {
			f.PushNode(call)
		}
	case bytecode.EA_CallNamedMethodPop:
		method := f.constantParam(ins, 0, nil)
		obj := f.PopExpression(true)
		f.Emit(ast.Stmt(MethodCall(obj, method, f.PopArray(false))))
	case bytecode.EA_CallNamedMethod:
		// Decoded as a named member read; the driver flags it as suspect.
		f.getNamedMember(ins)
	case bytecode.NewObject:
		name := f.PopExpression(true)
		f.PushNode(ast.Mark(Construct(Ref(name), f.PopArray(false))))
	case bytecode.NewMethod:
		method := f.PopExpression(true)
		obj := f.PopExpression(true)
		ctor := obj
		if v, ok := method.LiteralValue(); !ok || !(v.IsUndefined() || (v.IsString() && v.Str == "")) {
			ctor = ast.Member(obj, method)
		}
		f.PushNode(ast.Mark(Construct(ctor, f.PopArray(false))))
	case bytecode.InitArray:
		elems := f.PopArray(false)
		f.PushNode(ast.Mark(ast.List(ast.ShapeList, elems.Children...)))
	case bytecode.InitObject:
		f.PushNode(ast.Mark(f.PopArray(true)))
	case bytecode.TypeOf:
		f.PushNode(ast.NewUnary(ast.OpTypeOf, f.PopExpression(true)))
	case bytecode.InstanceOf:
		ctor := f.PopExpression(true)
		obj := f.PopExpression(true)
		f.PushNode(ast.NewBinary(ast.OpInstanceOf, obj, ctor))
	case bytecode.CastOp:
		obj := f.PopExpression(true)
		ctor := f.PopExpression(true)
		f.PushNode(Call(ctor, ast.List(ast.ShapeArgs, obj)))
	case bytecode.Extends:
		super := f.PopExpression(true)
		sub := f.PopExpression(true)
		f.Emit(ast.NewBinary(ast.OpExtends, sub, super))
	case bytecode.Enumerate:
		f.PushNode(ast.Enumeration(Ref(f.PopExpression(true))))
	case bytecode.Enumerate2:
		f.PushNode(ast.Enumeration(f.PopExpression(true)))
	case bytecode.TargetPath:
		f.PushNode(CallNamed("targetPath", f.PopExpression(true)))
	default:
		return false
	}
	return true
}

// getNamedMember pops an object and pushes its member named by constant
// parameter 0.
func (f *frame) getNamedMember(ins bytecode.Instruction) {
	member := f.constantParam(ins, 0, nil)
	f.PushNode(ast.Member(f.PopExpression(true), member))
}
