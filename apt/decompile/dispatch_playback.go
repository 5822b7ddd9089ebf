package decompile

import (
	"github.com/zboralski/apt-dumper/apt/ast"
	"github.com/zboralski/apt-dumper/apt/bytecode"
	"github.com/zboralski/apt-dumper/apt/value"
)

// propertyNames maps GetProperty/SetProperty indices to movie clip
// property names.
var propertyNames = [...]string{
	"_x", "_y", "_xscale", "_yscale", "_currentframe", "_totalframes",
	"_alpha", "_visible", "_width", "_height", "_rotation", "_target",
	"_framesloaded", "_name", "_droptarget", "_url", "_highquality",
	"_focusrect", "_soundbuftime", "_quality", "_xmouse", "_ymouse",
}

func property(n *ast.Node) *ast.Node {
	if v, ok := n.LiteralValue(); ok && v.IsNumber() {
		if i := int(v.ToInteger()); i >= 0 && i < len(propertyNames) {
			return ast.Name(propertyNames[i])
		}
	}
	return n
}

var simpleCalls = map[bytecode.InstructionType]string{
	bytecode.Play:          "play",
	bytecode.Stop:          "stop",
	bytecode.NextFrame:     "nextFrame",
	bytecode.PrevFrame:     "prevFrame",
	bytecode.StopSounds:    "stopAllSounds",
	bytecode.ToggleQuality: "toggleHighQuality",
	bytecode.EndDrag:       "stopDrag",
}

// getURL2 method codes.
var urlMethods = [...]string{"", "GET", "POST"}

// playback handles timeline and sprite side effects. Most of them only
// produce statements. StartDrag and the WaitForFrame pair are not
// handled.
func playback(f *frame, ins bytecode.Instruction) bool {
	if name, ok := simpleCalls[ins.Type]; ok {
		f.Emit(ast.Stmt(CallNamed(name)))
		return true
	}
	switch ins.Type {
	case bytecode.GotoFrame:
		n := f.intParam(ins, 0)
		f.Emit(ast.Stmt(CallNamed("gotoAndStop", ast.Lit(value.Integer(int32(n+1))))))
	case bytecode.GotoFrame2:
		play, _ := bytecode.Bool(ins, 0)
		fn := "gotoAndStop"
		if play {
			fn = "gotoAndPlay"
		}
		f.Emit(ast.Stmt(CallNamed(fn, f.PopExpression(true))))
	case bytecode.GotoLabel:
		label := ast.Lit(value.String(f.stringParam(ins, 0)))
		f.Emit(ast.Stmt(CallNamed("gotoAndStop", label)))
	case bytecode.SetTarget:
		target := ast.Lit(value.String(f.stringParam(ins, 0)))
		f.Emit(ast.Stmt(CallNamed("tellTarget", target)))
	case bytecode.SetTarget2:
		f.Emit(ast.Stmt(CallNamed("tellTarget", f.PopExpression(true))))
	case bytecode.Trace:
		f.Emit(ast.Stmt(CallNamed("trace", f.PopExpression(true))))
	case bytecode.TraceStart:
		// Debugger marker with no stack effect.
	case bytecode.CallFrame:
		f.Emit(ast.Stmt(CallNamed("call", f.PopExpression(true))))
	case bytecode.RemoveSprite:
		f.Emit(ast.Stmt(CallNamed("removeMovieClip", f.PopExpression(true))))
	case bytecode.CloneSprite:
		depth := f.PopExpression(true)
		target := f.PopExpression(true)
		source := f.PopExpression(true)
		f.Emit(ast.Stmt(CallNamed("duplicateMovieClip", source, target, depth)))
	case bytecode.GetProperty:
		index := f.PopExpression(true)
		target := f.PopExpression(true)
		f.PushNode(CallNamed("getProperty", target, property(index)))
	case bytecode.SetProperty:
		val := f.PopExpression(true)
		index := f.PopExpression(true)
		target := f.PopExpression(true)
		f.Emit(ast.Stmt(CallNamed("setProperty", target, property(index), val)))
	case bytecode.GetTime:
		f.PushNode(CallNamed("getTimer"))
	default:
		return false
	}
	return true
}

// url handles the browser navigation actions.
func url(f *frame, ins bytecode.Instruction) bool {
	switch ins.Type {
	case bytecode.GetURL:
		u := ast.Lit(value.String(f.stringParam(ins, 0)))
		target := ast.Lit(value.String(f.stringParam(ins, 1)))
		f.Emit(ast.Stmt(CallNamed("getURL", u, target)))
	case bytecode.GetURL2:
		target := f.PopExpression(true)
		u := f.PopExpression(true)
		args := []*ast.Node{u, target}
		if m, ok := bytecode.Int(ins, 0); ok && m > 0 && m < len(urlMethods) {
			args = append(args, ast.Lit(value.String(urlMethods[m])))
		}
		f.Emit(ast.Stmt(CallNamed("getURL", args...)))
	default:
		return false
	}
	return true
}
