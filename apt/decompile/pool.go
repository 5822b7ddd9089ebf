package decompile

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/zboralski/apt-dumper/apt/ast"
)

// ErrNoConstantPool is raised when a constant is pushed before any
// ConstantPool instruction set the table.
var ErrNoConstantPool = errors.New("constant pushed before constant pool")

// NumRegisters is the size of the register file.
const NumRegisters = 256

// StackError is a fatal stack-model violation. Pool methods raise it with
// panic; Function recovers it into an error for the current function.
type StackError struct {
	Op  string
	Msg string
	Err error
}

func (e *StackError) Error() string {
	if e.Err != nil {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Msg
}

func (e *StackError) Unwrap() error { return e.Err }

func fail(op, format string, args ...any) {
	panic(&StackError{Op: op, Msg: fmt.Sprintf(format, args...)})
}

// Pool is the symbolic operand stack of one function: in-flight expression
// roots, the register file, the local constant table and the statements
// emitted so far. A Pool is not safe for concurrent use.
type Pool struct {
	stack     []*ast.Node
	shared    map[*ast.Node]int // extra references held by the caller
	registers [NumRegisters]*ast.Node
	constants []*ast.Node
	hasConsts bool
	stmts     []*ast.Node
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{shared: make(map[*ast.Node]int)}
}

// PushNode pushes n.
func (p *Pool) PushNode(n *ast.Node) {
	p.stack = append(p.stack, n)
}

// PopExpression pops the top node. deleteIfPossible=false means the caller
// keeps a reference (it will re-push or store it), so the node is marked
// shared and a later discarding Pop does not emit it again.
func (p *Pool) PopExpression(deleteIfPossible bool) *ast.Node {
	if len(p.stack) == 0 {
		fail("pop", "stack underflow")
	}
	n := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	if !deleteIfPossible {
		p.shared[n]++
	}
	return n
}

// Peek returns the top node without popping it.
func (p *Pool) Peek() (*ast.Node, bool) {
	if len(p.stack) == 0 {
		return nil, false
	}
	return p.stack[len(p.stack)-1], true
}

// Release drops one extra reference to n and reports whether one was held,
// that is whether another copy of n is still in flight.
func (p *Pool) Release(n *ast.Node) bool {
	if p.shared[n] == 0 {
		return false
	}
	p.shared[n]--
	return true
}

// PopArray pops an element count followed by that many expressions and
// returns them as an argument-list Array in source order. With readPair,
// each element is a value then a name and the result is an object literal.
func (p *Pool) PopArray(readPair bool) *ast.Node {
	countNode := p.PopExpression(true)
	v, ok := countNode.LiteralValue()
	if !ok || !v.IsNumber() {
		fail("pop array", "element count is not a literal: %s", ast.Print(countNode))
	}
	count := int(v.ToInteger())
	if count < 0 {
		fail("pop array", "negative element count %d", count)
	}
	need := count
	if readPair {
		need = 2 * count
	}
	if need > len(p.stack) {
		fail("pop array", "element count %d exceeds stack depth %d", count, len(p.stack))
	}
	if readPair {
		elems := make([]*ast.Node, 2*count)
		for i := 0; i < count; i++ {
			val := p.PopExpression(true)
			key := p.PopExpression(true)
			elems[2*i], elems[2*i+1] = key, val
		}
		return ast.List(ast.ShapeObject, elems...)
	}
	elems := make([]*ast.Node, count)
	for i := range elems {
		elems[i] = p.PopExpression(true)
	}
	return ast.List(ast.ShapeArgs, elems...)
}

// SetRegister binds register i to n.
func (p *Pool) SetRegister(i int, n *ast.Node) {
	if i < 0 || i >= NumRegisters {
		fail("store register", "register %d out of range", i)
	}
	p.registers[i] = n
}

// Register returns the node bound to register i, or a registerN name when
// the register was never stored in this function.
func (p *Pool) Register(i int) *ast.Node {
	if i < 0 || i >= NumRegisters {
		fail("push register", "register %d out of range", i)
	}
	if n := p.registers[i]; n != nil {
		return n
	}
	return ast.Name("register" + strconv.Itoa(i))
}

// SetConstants replaces the local constant table.
func (p *Pool) SetConstants(nodes []*ast.Node) {
	p.constants = nodes
	p.hasConsts = true
}

// Constants returns the local constant table.
func (p *Pool) Constants() []*ast.Node {
	return p.constants
}

// Constant returns entry i of the local constant table.
func (p *Pool) Constant(i int) *ast.Node {
	if !p.hasConsts {
		panic(&StackError{Op: "push constant", Err: ErrNoConstantPool})
	}
	if i < 0 || i >= len(p.constants) {
		fail("push constant", "index %d out of range [0,%d)", i, len(p.constants))
	}
	return p.constants[i]
}

// PushNodeConstant pushes constant i, passed through transform when it is
// non-nil.
func (p *Pool) PushNodeConstant(i int, transform func(*ast.Node) *ast.Node) {
	n := p.Constant(i)
	if transform != nil {
		n = transform(n)
	}
	p.PushNode(n)
}

// Emit appends a statement.
func (p *Pool) Emit(n *ast.Node) {
	p.stmts = append(p.stmts, n)
}

// Statements returns the emitted statements in program order.
func (p *Pool) Statements() []*ast.Node {
	return p.stmts
}

// Depth returns the number of in-flight expressions.
func (p *Pool) Depth() int {
	return len(p.stack)
}

// Drain removes every in-flight node and returns them bottom first.
func (p *Pool) Drain() []*ast.Node {
	out := p.stack
	p.stack = nil
	return out
}
