// Package callgraph extracts caller/callee relations from action bytecode
// without decompiling it. A light stack model tracks literal operands so
// call sites can be labelled with the constants they receive.
package callgraph

import (
	"fmt"
	"unicode/utf8"

	"github.com/zboralski/apt-dumper/apt"
	"github.com/zboralski/apt-dumper/apt/bytecode"
	"github.com/zboralski/apt-dumper/apt/value"
)

const (
	maxArgs    = 6
	maxLiteral = 24
)

// Edge represents a call from one function to another.
type Edge struct {
	Caller string
	Callee string
	Args   []string // literal arguments observed at call site
}

// Graph holds the callgraph for a decoded script. Roots are the action
// blocks; every other node is a defined function.
type Graph struct {
	Roots []string
	Nodes []string
	Edges []Edge
}

// IsRoot reports whether name is an action block.
func (g *Graph) IsRoot(name string) bool {
	for _, r := range g.Roots {
		if r == name {
			return true
		}
	}
	return false
}

// Build constructs a callgraph from a decoded Script.
func Build(s *apt.Script) *Graph {
	b := &builder{g: &Graph{}, global: s.Global}
	for _, a := range s.Actions {
		b.g.Roots = append(b.g.Roots, a.Name)
		b.walk(a.Name, a.Code, nil, 0)
	}
	b.g.dedup()
	return b.g
}

type builder struct {
	g      *Graph
	global *apt.GlobalPool
	anon   int
}

// slot is one simulated stack entry. lit is set for literal values and ref
// for values read from a named variable.
type slot struct {
	lit   value.Value
	known bool
	ref   string
}

func literal(v value.Value) slot { return slot{lit: v, known: true} }

// name returns the identifier a slot designates when used as a callee.
func (s slot) name() string {
	if s.ref != "" {
		return s.ref
	}
	if s.known && s.lit.IsString() {
		return s.lit.Str
	}
	return ""
}

// scanner models the operand stack of one function body. Calls found are
// appended to calls; nested function definitions are reported to onFunc.
type scanner struct {
	stack  []slot
	consts []string
	global *apt.GlobalPool
	anon   *int
	calls  []CallSite
	seen   map[string]bool // nil keeps every call site
	onFunc func(inner string, body []bytecode.Instruction, consts []string)
}

// CallSite records a call found during bytecode scanning.
type CallSite struct {
	Index  int
	Callee string
	Args   []string
}

func (sc *scanner) push(s slot) { sc.stack = append(sc.stack, s) }

func (sc *scanner) pop() slot {
	if len(sc.stack) == 0 {
		return slot{}
	}
	s := sc.stack[len(sc.stack)-1]
	sc.stack = sc.stack[:len(sc.stack)-1]
	return s
}

func (sc *scanner) constant(ins bytecode.Instruction, i int) (string, bool) {
	idx, ok := bytecode.Int(ins, i)
	if !ok || idx < 0 || idx >= len(sc.consts) {
		return "", false
	}
	return sc.consts[idx], true
}

// args pops the argument count and the arguments it announces. Unknown
// counts leave the model unusable, so the stack is reset.
func (sc *scanner) args() []string {
	n := sc.pop()
	if !n.known || !n.lit.IsNumber() {
		sc.stack = sc.stack[:0]
		return nil
	}
	count := int(n.lit.ToInteger())
	if count < 0 || count > len(sc.stack) {
		sc.stack = sc.stack[:0]
		return nil
	}
	var lits []string
	for i := 0; i < count; i++ {
		if a := sc.pop(); a.known {
			lits = appendLit(lits, formatLit(a.lit))
		}
	}
	return lits
}

func (sc *scanner) call(index int, callee string, args []string) {
	if callee == "" || sc.seen[callee] {
		return
	}
	if sc.seen != nil {
		sc.seen[callee] = true
	}
	sc.calls = append(sc.calls, CallSite{Index: index, Callee: callee, Args: cloneLits(args)})
}

// pushConst pushes constant i of ins, or an unknown slot.
func (sc *scanner) pushConst(ins bytecode.Instruction, i int) {
	if s, ok := sc.constant(ins, i); ok {
		sc.push(literal(value.String(s)))
	} else {
		sc.push(slot{})
	}
}

// step applies the stack effect of instruction index of the body.
func (sc *scanner) step(index int, ins bytecode.Instruction) {
	switch ins.Type {
	case bytecode.ConstantPool:
		sc.consts = resolveConstants(ins, sc.global)

	// Literal pushes
	case bytecode.EA_PushString:
		if s, ok := bytecode.String(ins, 0); ok {
			sc.push(literal(value.String(s)))
		} else {
			sc.push(slot{})
		}
	case bytecode.EA_PushByte, bytecode.EA_PushShort, bytecode.EA_PushLong:
		if n, ok := bytecode.Int(ins, 0); ok {
			sc.push(literal(value.Integer(int32(n))))
		} else {
			sc.push(slot{})
		}
	case bytecode.EA_PushFloat:
		if f, ok := bytecode.Float(ins, 0); ok {
			sc.push(literal(value.Float(f)))
		} else {
			sc.push(slot{})
		}
	case bytecode.EA_PushZero:
		sc.push(literal(value.Integer(0)))
	case bytecode.EA_PushOne:
		sc.push(literal(value.Integer(1)))
	case bytecode.EA_PushTrue:
		sc.push(literal(value.Boolean(true)))
	case bytecode.EA_PushFalse:
		sc.push(literal(value.Boolean(false)))
	case bytecode.EA_PushNull:
		sc.push(literal(value.Null()))
	case bytecode.EA_PushUndefined:
		sc.push(literal(value.Undefined()))
	case bytecode.EA_PushConstantByte, bytecode.EA_PushConstantWord:
		sc.pushConst(ins, 0)
	case bytecode.PushData:
		for i := 1; i < len(ins.Params); i++ {
			sc.pushConst(ins, i)
		}

	// Variable reads keep the name so method receivers can be named.
	case bytecode.GetVariable:
		sc.push(slot{ref: sc.pop().name()})
	case bytecode.EA_PushValueOfVar:
		s, _ := sc.constant(ins, 0)
		sc.push(slot{ref: s})

	case bytecode.PushDuplicate:
		top := sc.pop()
		sc.push(top)
		sc.push(top)
	case bytecode.StackSwap:
		x, y := sc.pop(), sc.pop()
		sc.push(x)
		sc.push(y)

	// Calls
	case bytecode.CallFunction, bytecode.NewObject:
		callee := sc.pop().name()
		sc.call(index, callee, sc.args())
		sc.push(slot{})
	case bytecode.CallMethod, bytecode.NewMethod:
		method, obj := sc.pop(), sc.pop()
		callee := method.name()
		if callee == "" {
			callee = obj.name()
		}
		sc.call(index, callee, sc.args())
		sc.push(slot{})
	case bytecode.EA_CallNamedFunc, bytecode.EA_CallNamedFuncPop:
		callee, _ := sc.constant(ins, 0)
		sc.call(index, callee, sc.args())
		if ins.Type == bytecode.EA_CallNamedFunc {
			sc.push(slot{})
		}
	case bytecode.EA_CallNamedMethodPop:
		callee, _ := sc.constant(ins, 0)
		sc.pop()
		sc.call(index, callee, sc.args())

	case bytecode.DefineFunction, bytecode.DefineFunction2:
		h, ok := bytecode.DecodeFunctionHeader(ins)
		inner := h.Name
		if !ok || inner == "" {
			inner = fmt.Sprintf("anon#%d", *sc.anon)
			*sc.anon++
			sc.push(slot{ref: inner})
		}
		if sc.onFunc != nil {
			sc.onFunc(inner, ins.Body, sc.consts)
		}

	default:
		info := ins.Type.Info()
		if info.Pops == bytecode.Variable || info.Pushes == bytecode.Variable {
			sc.stack = sc.stack[:0]
			return
		}
		for i := int8(0); i < info.Pops; i++ {
			sc.pop()
		}
		for i := int8(0); i < info.Pushes; i++ {
			sc.push(slot{})
		}
	}
}

// walk extracts calls from a single function body and recurses into inner
// functions. Inner functions inherit the constant table of their parent.
func (b *builder) walk(name string, code []bytecode.Instruction, consts []string, depth int) {
	b.g.Nodes = append(b.g.Nodes, name)
	sc := &scanner{consts: consts, global: b.global, anon: &b.anon, seen: map[string]bool{}}
	sc.onFunc = func(inner string, body []bytecode.Instruction, consts []string) {
		// The defining function contains this one.
		b.g.Edges = append(b.g.Edges, Edge{Caller: name, Callee: inner})
		if depth < apt.MaxDecodeDepth {
			b.walk(inner, body, consts, depth+1)
		} else {
			b.g.Nodes = append(b.g.Nodes, inner)
		}
	}
	for i, ins := range code {
		sc.step(i, ins)
	}
	for _, c := range sc.calls {
		b.g.Edges = append(b.g.Edges, Edge{Caller: name, Callee: c.Callee, Args: c.Args})
	}
}

// resolveConstants resolves a ConstantPool instruction. Unresolvable
// entries become empty names rather than failing the scan.
func resolveConstants(ins bytecode.Instruction, global *apt.GlobalPool) []string {
	out := make([]string, len(ins.Params))
	for i, p := range ins.Params {
		switch p.Kind {
		case value.KindInteger:
			out[i], _ = global.Lookup(int(p.Int))
		case value.KindString:
			out[i] = p.Str
		}
	}
	return out
}

// formatLit renders a literal as a short label.
func formatLit(v value.Value) string {
	if !v.IsString() {
		return v.Source()
	}
	s := v.Str
	if utf8.RuneCountInString(s) > maxLiteral {
		s = string([]rune(s)[:maxLiteral]) + "…"
	}
	return "\"" + s + "\""
}

// appendLit adds a literal to the buffer, capped at maxArgs.
func appendLit(buf []string, lit string) []string {
	if len(buf) >= maxArgs {
		return buf
	}
	return append(buf, lit)
}

// cloneLits returns a copy of the literal buffer, or nil if empty.
func cloneLits(buf []string) []string {
	if len(buf) == 0 {
		return nil
	}
	cp := make([]string, len(buf))
	copy(cp, buf)
	return cp
}

// dedup removes duplicate nodes.
func (g *Graph) dedup() {
	seen := map[string]bool{}
	var nodes []string
	for _, n := range g.Nodes {
		if !seen[n] {
			seen[n] = true
			nodes = append(nodes, n)
		}
	}
	g.Nodes = nodes
}
