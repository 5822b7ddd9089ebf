package callgraph

import (
	"sort"

	"github.com/zboralski/apt-dumper/apt"
	"github.com/zboralski/apt-dumper/apt/bytecode"
)

// Successor describes a control flow edge to another basic block.
type Successor struct {
	BlockID int
	Cond    string // "" (unconditional), "T" (true), "F" (false)
}

// BasicBlock is a straight-line run of instructions. Start and End are
// instruction indices, End exclusive; Offset is the byte offset of the
// first instruction when the listing carries offsets.
type BasicBlock struct {
	ID     int
	Start  int
	End    int
	Offset int
	Calls  []CallSite
	Succs  []Successor
	Term   bool // ends with return, throw or end
}

// FuncCFG is a per-function control flow graph.
type FuncCFG struct {
	Name     string
	Root     bool // an action block rather than a defined function
	Blocks   []*BasicBlock
	Children []int // indices of child functions in CFGGraph.Funcs
}

// CFGGraph holds the control flow of every function of a script.
type CFGGraph struct {
	Funcs []*FuncCFG
}

// BuildCFG constructs a control flow graph from a decoded Script. Branch
// targets are only resolved for listings that carry byte offsets; other
// listings produce straight-line blocks.
func BuildCFG(s *apt.Script) *CFGGraph {
	c := &cfgBuilder{g: &CFGGraph{}, global: s.Global}
	for _, a := range s.Actions {
		fi := c.walk(a.Name, a.Code, nil, 0)
		c.g.Funcs[fi].Root = true
	}
	return c.g
}

type cfgBuilder struct {
	g      *CFGGraph
	global *apt.GlobalPool
	anon   int
}

func (c *cfgBuilder) walk(name string, code []bytecode.Instruction, consts []string, depth int) int {
	fi := len(c.g.Funcs)
	f := &FuncCFG{Name: name}
	c.g.Funcs = append(c.g.Funcs, f)

	sc := &scanner{consts: consts, global: c.global, anon: &c.anon}
	sc.onFunc = func(inner string, body []bytecode.Instruction, consts []string) {
		if depth >= apt.MaxDecodeDepth {
			body = nil
		}
		f.Children = append(f.Children, c.walk(inner, body, consts, depth+1))
	}
	for i, ins := range code {
		sc.step(i, ins)
	}
	f.Blocks = splitBlocks(code)
	for _, call := range sc.calls {
		b := blockAt(f.Blocks, call.Index)
		b.Calls = append(b.Calls, call)
	}
	return fi
}

func terminates(t bytecode.InstructionType) bool {
	switch t {
	case bytecode.Return, bytecode.Throw, bytecode.End:
		return true
	}
	return false
}

func isBranch(t bytecode.InstructionType) bool {
	switch t {
	case bytecode.BranchAlways, bytecode.BranchIfTrue, bytecode.EA_BranchIfFalse:
		return true
	}
	return false
}

// splitBlocks partitions code into basic blocks and links successors.
func splitBlocks(code []bytecode.Instruction) []*BasicBlock {
	if len(code) == 0 {
		return []*BasicBlock{{ID: 0}}
	}

	offsets := false
	atOffset := map[int]int{} // byte offset → instruction index
	for i, ins := range code {
		if ins.Offset != 0 {
			offsets = true
		}
		atOffset[ins.Offset] = i
	}

	// 1. Collect block boundaries
	starts := map[int]bool{0: true}
	if offsets {
		for label := range bytecode.CollectLabels(code) {
			if i, ok := atOffset[label]; ok {
				starts[i] = true
			}
		}
	}
	for i, ins := range code {
		if (isBranch(ins.Type) || terminates(ins.Type)) && i+1 < len(code) {
			starts[i+1] = true
		}
	}

	// 2. Sort starts, build blocks
	order := make([]int, 0, len(starts))
	for i := range starts {
		order = append(order, i)
	}
	sort.Ints(order)

	blockOf := map[int]int{} // instruction index → block id
	blocks := make([]*BasicBlock, len(order))
	for id, start := range order {
		end := len(code)
		if id+1 < len(order) {
			end = order[id+1]
		}
		blocks[id] = &BasicBlock{ID: id, Start: start, End: end, Offset: code[start].Offset}
		blockOf[start] = id
	}

	// 3. Successors from the last instruction of each block
	for _, b := range blocks {
		last := code[b.End-1]
		fall, hasFall := blockOf[b.End]
		target, hasTarget := -1, false
		if offsets {
			if off, ok := bytecode.BranchTarget(last, bytecode.BranchSize); ok {
				if i, ok := atOffset[off]; ok {
					target, hasTarget = blockOf[i], true
				}
			}
		}

		switch {
		case terminates(last.Type):
			b.Term = true
		case last.Type == bytecode.BranchAlways && hasTarget:
			b.Succs = append(b.Succs, Successor{BlockID: target})
			b.Term = true
		case last.Type == bytecode.BranchIfTrue && hasTarget:
			b.Succs = append(b.Succs, Successor{BlockID: target, Cond: "T"})
			if hasFall {
				b.Succs = append(b.Succs, Successor{BlockID: fall, Cond: "F"})
			}
		case last.Type == bytecode.EA_BranchIfFalse && hasTarget:
			if hasFall {
				b.Succs = append(b.Succs, Successor{BlockID: fall, Cond: "T"})
			}
			b.Succs = append(b.Succs, Successor{BlockID: target, Cond: "F"})
		default:
			if hasFall {
				b.Succs = append(b.Succs, Successor{BlockID: fall})
			}
		}
	}
	return blocks
}

// blockAt returns the block holding instruction index i.
func blockAt(blocks []*BasicBlock, i int) *BasicBlock {
	n := sort.Search(len(blocks), func(k int) bool { return blocks[k].End > i })
	if n == len(blocks) {
		return blocks[len(blocks)-1]
	}
	return blocks[n]
}
