// Package decompile turns linear action bytecode into syntax trees by
// simulating the operand stack symbolically.
package decompile

import (
	"context"
	"fmt"
	"strings"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/zboralski/apt-dumper/apt"
	"github.com/zboralski/apt-dumper/apt/ast"
	"github.com/zboralski/apt-dumper/apt/bytecode"
)

var log = commonlog.GetLogger("aptdis.decompile")

// UnhandledError reports an instruction no dispatch table accepted.
type UnhandledError struct {
	Func  string
	Index int
	Type  bytecode.InstructionType
}

func (e *UnhandledError) Error() string {
	return fmt.Sprintf("%s: unhandled instruction %s at %d", e.Func, e.Type, e.Index)
}

// Decompiler holds what is shared by every function of a script: the
// global constant pool and the options. It is safe for concurrent use;
// each call works on its own Pool.
type Decompiler struct {
	Global  *apt.GlobalPool
	Options apt.Options
}

// New returns a decompiler over global.
func New(global *apt.GlobalPool, opts apt.Options) *Decompiler {
	return &Decompiler{Global: global, Options: opts}
}

// frame is the per-function state seen by the dispatch tables.
type frame struct {
	*Pool
	d     *Decompiler
	name  string
	depth int
	index int
	diags []apt.Diagnostic
}

func (d *Decompiler) newFrame(name string, depth int) *frame {
	return &frame{Pool: NewPool(), d: d, name: name, depth: depth}
}

func (f *frame) diag(kind, format string, args ...any) {
	f.diags = append(f.diags, apt.Diagnostic{
		Index: f.index,
		Kind:  kind,
		Msg:   fmt.Sprintf(format, args...),
		Func:  f.name,
	})
}

func (f *frame) intParam(ins bytecode.Instruction, i int) int {
	v, ok := bytecode.Int(ins, i)
	if !ok {
		fail(ins.Type.String(), "parameter %d is not an integer", i)
	}
	return v
}

func (f *frame) stringParam(ins bytecode.Instruction, i int) string {
	v, ok := bytecode.String(ins, i)
	if !ok {
		fail(ins.Type.String(), "parameter %d is not a string", i)
	}
	return v
}

// constantParam returns the constant indexed by parameter i.
func (f *frame) constantParam(ins bytecode.Instruction, i int, transform func(*ast.Node) *ast.Node) *ast.Node {
	n := f.Constant(f.intParam(ins, i))
	if transform != nil {
		n = transform(n)
	}
	return n
}

// Function decompiles one instruction sequence into statements. Stack
// violations abort this function only and are returned as errors.
func (d *Decompiler) Function(name string, code []bytecode.Instruction) (apt.Result[[]*ast.Node], error) {
	f := d.newFrame(name, 0)
	err := d.run(f, code)
	return apt.Result[[]*ast.Node]{Value: f.Statements(), Diags: f.diags}, err
}

func hasOffsets(code []bytecode.Instruction) bool {
	for _, ins := range code {
		if ins.Offset != 0 {
			return true
		}
	}
	return false
}

func (d *Decompiler) run(f *frame, code []bytecode.Instruction) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		se, ok := r.(*StackError)
		if !ok {
			panic(r)
		}
		op := "?"
		if f.index < len(code) {
			op = code[f.index].Type.String()
		}
		err = fmt.Errorf("%s: instruction %d (%s): %w", f.name, f.index, op, se)
	}()

	var labels map[int]struct{}
	offsets := hasOffsets(code)
	if offsets {
		labels = bytecode.CollectLabels(code)
	}
	maxSteps := d.Options.EffectiveMaxSteps()
	log.Debugf("%s: %d instructions", f.name, len(code))

	for i, ins := range code {
		f.index = i
		if i >= maxSteps {
			if d.Options.Mode == apt.Strict {
				return fmt.Errorf("%s: step limit %d reached", f.name, maxSteps)
			}
			f.diag(apt.DiagOverflow, "step limit %d reached, %d instructions skipped", maxSteps, len(code)-i)
			break
		}
		if _, ok := labels[ins.Offset]; ok {
			f.Emit(ast.Code(bytecode.Label(ins.Offset) + ":"))
		}
		if !dispatch(f, ins) {
			if d.Options.Mode == apt.Strict {
				return &UnhandledError{Func: f.name, Index: i, Type: ins.Type}
			}
			log.Warningf("%s: unhandled %s at %d", f.name, ins.Type, i)
			f.diag(apt.DiagUnhandled, "unhandled instruction %s", ins.Type)
			f.Emit(ast.Code("// unhandled: " + ins.Type.String()))
			continue
		}
		switch ins.Type {
		case bytecode.EA_CallNamedMethod:
			f.diag(apt.DiagSuspect, "EA_CallNamedMethod decoded as a named member read")
		case bytecode.BranchAlways, bytecode.BranchIfTrue, bytecode.EA_BranchIfFalse:
			if offsets {
				f.branch(ins)
			}
		}
	}

	if rest := f.Drain(); len(rest) > 0 {
		f.diag(apt.DiagUnbalanced, "%d expressions left on the stack", len(rest))
		for _, n := range rest {
			f.Emit(ast.Stmt(n))
		}
	}
	return nil
}

// branch writes the jump of a branch instruction once its target is known.
// A conditional branch turns the pending if node into an if-goto.
func (f *frame) branch(ins bytecode.Instruction) {
	target, ok := bytecode.BranchTarget(ins, bytecode.BranchSize)
	if !ok {
		return
	}
	if ins.Type == bytecode.BranchAlways {
		f.Emit(ast.Code("goto " + bytecode.Label(target) + ";"))
		return
	}
	top, ok := f.Peek()
	if !ok || !top.IsOp(ast.OpIf) {
		return
	}
	f.PopExpression(true)
	n := ast.NewUnary(ast.OpIfGoto, top.Children[0])
	n.Text = bytecode.Label(target)
	f.Emit(n)
}

// Action is the decompiled form of one action block.
type Action struct {
	Name       string
	Statements []*ast.Node
	Err        error // set in BestEffort mode when the action failed
}

// Script decompiles every action of s concurrently, at most
// Options.Workers at a time. Results keep action order. In Strict mode the
// first failure cancels the rest.
func (d *Decompiler) Script(ctx context.Context, s *apt.Script) (apt.Result[[]Action], error) {
	out := make([]Action, len(s.Actions))
	diags := make([][]apt.Diagnostic, len(s.Actions))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.Options.EffectiveWorkers())
	for i, a := range s.Actions {
		i, a := i, a
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := d.Function(a.Name, a.Code)
			out[i] = Action{Name: a.Name, Statements: res.Value}
			diags[i] = res.Diags
			if err != nil {
				if d.Options.Mode == apt.Strict {
					return err
				}
				log.Errorf("%s: %v", a.Name, err)
				out[i].Err = err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return apt.Result[[]Action]{}, err
	}

	var res apt.Result[[]Action]
	res.Value = out
	for i, ds := range diags {
		apt.TagFunc(ds, s.Actions[i].Name)
		res.Diags = append(res.Diags, ds...)
	}
	log.Infof("%s: decompiled %d actions, %d diagnostics", s.Filename, len(out), len(res.Diags))
	return res, nil
}

// Source renders decompiled actions as pseudo-source, one block per action.
func Source(actions []Action) string {
	var b strings.Builder
	for i, a := range actions {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "// action %s\n", a.Name)
		if a.Err != nil {
			fmt.Fprintf(&b, "// decompile failed: %v\n", a.Err)
		}
		b.WriteString(ast.Program(a.Statements))
	}
	return b.String()
}
