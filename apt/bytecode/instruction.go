package bytecode

import (
	"fmt"

	"github.com/zboralski/apt-dumper/apt/value"
)

// Instruction is one decoded action: its type plus typed parameters.
// Body holds the nested code of DefineFunction and DefineFunction2.
type Instruction struct {
	Type   InstructionType `cbor:"1,keyasint"`
	Offset int             `cbor:"2,keyasint,omitempty"` // byte offset, when the reader knows it
	Params []value.Value   `cbor:"3,keyasint,omitempty"`
	Body   []Instruction   `cbor:"4,keyasint,omitempty"`
}

// New returns an instruction with the given parameters.
func New(t InstructionType, params ...value.Value) Instruction {
	return Instruction{Type: t, Params: params}
}

// Parameter readers. All return (value, ok) where ok=false means the
// parameter is missing or has the wrong kind.

// Param returns parameter i of any kind.
func Param(ins Instruction, i int) (value.Value, bool) {
	if i < 0 || i >= len(ins.Params) {
		return value.Value{}, false
	}
	return ins.Params[i], true
}

// Int reads an integer parameter. Integral floats are accepted.
func Int(ins Instruction, i int) (int, bool) {
	v, ok := Param(ins, i)
	if !ok {
		return 0, false
	}
	switch v.Kind {
	case value.KindInteger:
		return int(v.Int), true
	case value.KindFloat:
		if v.Float == float64(int32(v.Float)) {
			return int(v.Float), true
		}
	}
	return 0, false
}

// Float reads a numeric parameter as a float64.
func Float(ins Instruction, i int) (float64, bool) {
	v, ok := Param(ins, i)
	if !ok || !v.IsNumber() {
		return 0, false
	}
	return v.ToFloat(), true
}

// String reads a string parameter.
func String(ins Instruction, i int) (string, bool) {
	v, ok := Param(ins, i)
	if !ok || v.Kind != value.KindString {
		return "", false
	}
	return v.Str, true
}

// Bool reads a boolean parameter; integers are accepted as flags.
func Bool(ins Instruction, i int) (bool, bool) {
	v, ok := Param(ins, i)
	if !ok {
		return false, false
	}
	switch v.Kind {
	case value.KindBoolean:
		return v.Bool, true
	case value.KindInteger:
		return v.Int != 0, true
	}
	return false, false
}

// FunctionHeader is the decoded parameter list of DefineFunction and
// DefineFunction2: name, argument count, then argument names.
type FunctionHeader struct {
	Name string
	Args []string
}

// DecodeFunctionHeader reads the header of a function definition. The name
// may be empty for anonymous functions. ok is false when the argument count
// does not match the parameters that follow.
func DecodeFunctionHeader(ins Instruction) (FunctionHeader, bool) {
	var h FunctionHeader
	name, ok := String(ins, 0)
	if !ok {
		return h, false
	}
	h.Name = name
	n, ok := Int(ins, 1)
	if !ok || n < 0 || 2+n > len(ins.Params) {
		return h, false
	}
	for i := 0; i < n; i++ {
		arg, ok := String(ins, 2+i)
		if !ok {
			return h, false
		}
		h.Args = append(h.Args, arg)
	}
	return h, true
}

// BranchTarget returns the absolute target of a branch instruction whose
// first parameter is a byte offset relative to the end of the instruction.
// size is the encoded length of the branch itself.
func BranchTarget(ins Instruction, size int) (int, bool) {
	switch ins.Type {
	case BranchAlways, BranchIfTrue, EA_BranchIfFalse:
	default:
		return 0, false
	}
	rel, ok := Int(ins, 0)
	if !ok {
		return 0, false
	}
	return ins.Offset + size + rel, true
}

// CollectLabels identifies the offsets that branch instructions jump to.
// Instructions without offsets contribute nothing.
func CollectLabels(code []Instruction) map[int]struct{} {
	labels := make(map[int]struct{})
	for i, ins := range code {
		if ins.Offset == 0 && i > 0 {
			continue
		}
		size := BranchSize
		if tgt, ok := BranchTarget(ins, size); ok && tgt >= 0 {
			labels[tgt] = struct{}{}
		}
	}
	return labels
}

// BranchSize is the encoded length of a branch: opcode, u16 length, s16 offset.
const BranchSize = 5

// Label returns the name of the label at a byte offset.
func Label(offset int) string {
	return fmt.Sprintf("loc_%05X", offset)
}
