package callgraph

import (
	"reflect"
	"testing"

	"github.com/zboralski/apt-dumper/apt"
	"github.com/zboralski/apt-dumper/apt/bytecode"
	"github.com/zboralski/apt-dumper/apt/value"
)

func at(off int, t bytecode.InstructionType, params ...value.Value) bytecode.Instruction {
	i := bytecode.New(t, params...)
	i.Offset = off
	return i
}

// if (!done) { stop(); } play();
func branchy() []bytecode.Instruction {
	return []bytecode.Instruction{
		at(1, bytecode.EA_PushString, value.String("done")),
		at(4, bytecode.EA_BranchIfFalse, value.Integer(6)),
		at(9, bytecode.EA_PushZero),
		at(10, bytecode.EA_PushString, value.String("stop")),
		at(13, bytecode.CallFunction),
		at(14, bytecode.Pop),
		at(15, bytecode.Play),
		at(16, bytecode.End),
	}
}

func TestSplitBlocks(t *testing.T) {
	blocks := splitBlocks(branchy())
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(blocks))
	}
	var bounds [][2]int
	for _, b := range blocks {
		bounds = append(bounds, [2]int{b.Start, b.End})
	}
	if want := [][2]int{{0, 2}, {2, 6}, {6, 8}}; !reflect.DeepEqual(bounds, want) {
		t.Errorf("bounds = %v, want %v", bounds, want)
	}
	if want := []Successor{{BlockID: 1, Cond: "T"}, {BlockID: 2, Cond: "F"}}; !reflect.DeepEqual(blocks[0].Succs, want) {
		t.Errorf("entry succs = %+v, want %+v", blocks[0].Succs, want)
	}
	if want := []Successor{{BlockID: 2}}; !reflect.DeepEqual(blocks[1].Succs, want) {
		t.Errorf("fallthrough succs = %+v", blocks[1].Succs)
	}
	if !blocks[2].Term || len(blocks[2].Succs) != 0 {
		t.Errorf("last block should terminate: %+v", blocks[2])
	}
	if blocks[2].Offset != 15 {
		t.Errorf("offset = %d, want 15", blocks[2].Offset)
	}
}

func TestSplitWithoutOffsets(t *testing.T) {
	code := []bytecode.Instruction{
		ins(bytecode.EA_PushTrue),
		ins(bytecode.BranchIfTrue, value.Integer(3)),
		ins(bytecode.Stop),
	}
	blocks := splitBlocks(code)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	if want := []Successor{{BlockID: 1}}; !reflect.DeepEqual(blocks[0].Succs, want) {
		t.Errorf("unresolved branch should fall through, got %+v", blocks[0].Succs)
	}
}

func TestBuildCFG(t *testing.T) {
	inner := ins(bytecode.DefineFunction, value.String("onLoad"), value.Integer(0))
	inner.Body = []bytecode.Instruction{ins(bytecode.Stop)}
	code := append(branchy(), inner)
	g := BuildCFG(script(apt.Action{Name: "frame_1", Code: code}))

	if len(g.Funcs) != 2 {
		t.Fatalf("got %d funcs, want 2", len(g.Funcs))
	}
	root, child := g.Funcs[0], g.Funcs[1]
	if !root.Root || child.Root {
		t.Error("only the action should be a root")
	}
	if !reflect.DeepEqual(root.Children, []int{1}) {
		t.Errorf("children = %v", root.Children)
	}
	calls := root.Blocks[1].Calls
	if len(calls) != 1 || calls[0].Callee != "stop" || calls[0].Index != 4 {
		t.Errorf("block 1 calls = %+v", calls)
	}
}

func TestEmptyFunction(t *testing.T) {
	blocks := splitBlocks(nil)
	if len(blocks) != 1 || blocks[0].ID != 0 {
		t.Errorf("got %+v", blocks)
	}
}
