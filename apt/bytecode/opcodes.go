package bytecode

// InstructionType identifies an action. Values match the action codes of
// the bytecode; EA extended actions live in otherwise unused ranges.
type InstructionType uint8

const (
	End           InstructionType = 0x00
	NextFrame     InstructionType = 0x04
	PrevFrame     InstructionType = 0x05
	Play          InstructionType = 0x06
	Stop          InstructionType = 0x07
	ToggleQuality InstructionType = 0x08
	StopSounds    InstructionType = 0x09
	Add           InstructionType = 0x0A
	Subtract      InstructionType = 0x0B
	Multiply      InstructionType = 0x0C
	Divide        InstructionType = 0x0D
	Equals        InstructionType = 0x0E
	LessThan      InstructionType = 0x0F
	LogicalAnd    InstructionType = 0x10
	LogicalOr     InstructionType = 0x11
	LogicalNot    InstructionType = 0x12
	StringEquals  InstructionType = 0x13
	StringLength  InstructionType = 0x14
	SubString     InstructionType = 0x15
	Pop           InstructionType = 0x17
	ToInteger     InstructionType = 0x18
	GetVariable   InstructionType = 0x1C
	SetVariable   InstructionType = 0x1D
	SetTarget2    InstructionType = 0x20
	StringAdd     InstructionType = 0x21
	GetProperty   InstructionType = 0x22
	SetProperty   InstructionType = 0x23
	CloneSprite   InstructionType = 0x24
	RemoveSprite  InstructionType = 0x25
	Trace         InstructionType = 0x26
	StartDrag     InstructionType = 0x27
	EndDrag       InstructionType = 0x28
	StringLess    InstructionType = 0x29
	Throw         InstructionType = 0x2A
	CastOp        InstructionType = 0x2B
	ImplementsOp  InstructionType = 0x2C
	Random        InstructionType = 0x30
	MBLength      InstructionType = 0x31
	Ord           InstructionType = 0x32
	Chr           InstructionType = 0x33
	GetTime       InstructionType = 0x34
	MBSubString   InstructionType = 0x35
	MBOrd         InstructionType = 0x36
	MBChr         InstructionType = 0x37
	Delete        InstructionType = 0x3A
	Delete2       InstructionType = 0x3B
	DefineLocal   InstructionType = 0x3C
	CallFunction  InstructionType = 0x3D
	Return        InstructionType = 0x3E
	Modulo        InstructionType = 0x3F
	NewObject     InstructionType = 0x40
	DefineLocal2  InstructionType = 0x41
	InitArray     InstructionType = 0x42
	InitObject    InstructionType = 0x43
	TypeOf        InstructionType = 0x44
	TargetPath    InstructionType = 0x45
	Enumerate     InstructionType = 0x46
	Add2          InstructionType = 0x47
	LessThan2     InstructionType = 0x48
	Equals2       InstructionType = 0x49
	ToNumber      InstructionType = 0x4A
	ToString      InstructionType = 0x4B
	PushDuplicate InstructionType = 0x4C
	StackSwap     InstructionType = 0x4D
	GetMember     InstructionType = 0x4E
	SetMember     InstructionType = 0x4F
	Increment     InstructionType = 0x50
	Decrement     InstructionType = 0x51
	CallMethod    InstructionType = 0x52
	NewMethod     InstructionType = 0x53
	InstanceOf    InstructionType = 0x54
	Enumerate2    InstructionType = 0x55

	EA_PushThis      InstructionType = 0x56
	EA_PushGlobal    InstructionType = 0x57
	EA_ZeroVar       InstructionType = 0x58
	EA_PushTrue      InstructionType = 0x59
	EA_PushFalse     InstructionType = 0x5A
	EA_PushNull      InstructionType = 0x5B
	EA_PushUndefined InstructionType = 0x5C
	TraceStart       InstructionType = 0x5D

	BitwiseAnd    InstructionType = 0x60
	BitwiseOr     InstructionType = 0x61
	BitwiseXor    InstructionType = 0x62
	ShiftLeft     InstructionType = 0x63
	ShiftRight    InstructionType = 0x64
	ShiftRight2   InstructionType = 0x65
	StrictEquals  InstructionType = 0x66
	Greater       InstructionType = 0x67
	StringGreater InstructionType = 0x68
	Extends       InstructionType = 0x69

	EA_PushZero      InstructionType = 0x70
	EA_PushOne       InstructionType = 0x71
	EA_CallFunc      InstructionType = 0x72
	EA_CallFuncPop   InstructionType = 0x73
	EA_CallMethod    InstructionType = 0x74
	EA_CallMethodPop InstructionType = 0x75
	EA_PushThisVar   InstructionType = 0x76
	EA_PushGlobalVar InstructionType = 0x77

	GotoFrame       InstructionType = 0x81
	GetURL          InstructionType = 0x83
	StoreRegister   InstructionType = 0x87
	ConstantPool    InstructionType = 0x88
	WaitForFrame    InstructionType = 0x8A
	SetTarget       InstructionType = 0x8B
	GotoLabel       InstructionType = 0x8C
	WaitForFrame2   InstructionType = 0x8D
	DefineFunction2 InstructionType = 0x8E
	Try             InstructionType = 0x8F
	With            InstructionType = 0x94
	PushData        InstructionType = 0x96
	BranchAlways    InstructionType = 0x99
	GetURL2         InstructionType = 0x9A
	DefineFunction  InstructionType = 0x9B
	BranchIfTrue    InstructionType = 0x9D
	CallFrame       InstructionType = 0x9E
	GotoFrame2      InstructionType = 0x9F

	EA_PushString         InstructionType = 0xA1
	EA_PushConstantByte   InstructionType = 0xA2
	EA_PushConstantWord   InstructionType = 0xA3
	EA_GetStringVar       InstructionType = 0xA4
	EA_GetStringMember    InstructionType = 0xA5
	EA_SetStringVar       InstructionType = 0xA6
	EA_SetStringMember    InstructionType = 0xA7
	EA_PushValueOfVar     InstructionType = 0xAE
	EA_GetNamedMember     InstructionType = 0xAF
	EA_CallNamedFuncPop   InstructionType = 0xB0
	EA_CallNamedFunc      InstructionType = 0xB1
	EA_CallNamedMethodPop InstructionType = 0xB2
	EA_CallNamedMethod    InstructionType = 0xB3
	EA_PushFloat          InstructionType = 0xB4
	EA_PushByte           InstructionType = 0xB5
	EA_PushShort          InstructionType = 0xB6
	EA_PushLong           InstructionType = 0xB7
	EA_BranchIfFalse      InstructionType = 0xB8
	EA_PushRegister       InstructionType = 0xB9
)

// Family groups instructions by the dispatch table that owns them.
type Family uint8

const (
	FamilyUnknown Family = iota
	FamilyArithmetic
	FamilyStack
	FamilyControl
	FamilyObject
	FamilyPlayback
	FamilyURL
)

func (f Family) String() string {
	switch f {
	case FamilyArithmetic:
		return "arithmetic"
	case FamilyStack:
		return "stack"
	case FamilyControl:
		return "control"
	case FamilyObject:
		return "object"
	case FamilyPlayback:
		return "playback"
	case FamilyURL:
		return "url"
	default:
		return "unknown"
	}
}

// Variable marks a stack effect that depends on operands or parameters.
const Variable = -1

// OpInfo holds metadata about an instruction type.
type OpInfo struct {
	Name   string
	Family Family
	Pops   int8 // expressions popped, or Variable
	Pushes int8 // expressions pushed, or Variable
}

// Known reports whether the table has an entry for the type.
func (o OpInfo) Known() bool {
	return o.Name != ""
}

// Opcodes is indexed by InstructionType. Unused codes have an empty Name.
var Opcodes = [256]OpInfo{
	End:           {"End", FamilyControl, 0, 0},
	NextFrame:     {"NextFrame", FamilyPlayback, 0, 0},
	PrevFrame:     {"PrevFrame", FamilyPlayback, 0, 0},
	Play:          {"Play", FamilyPlayback, 0, 0},
	Stop:          {"Stop", FamilyPlayback, 0, 0},
	ToggleQuality: {"ToggleQuality", FamilyPlayback, 0, 0},
	StopSounds:    {"StopSounds", FamilyPlayback, 0, 0},
	Add:           {"Add", FamilyArithmetic, 2, 1},
	Subtract:      {"Subtract", FamilyArithmetic, 2, 1},
	Multiply:      {"Multiply", FamilyArithmetic, 2, 1},
	Divide:        {"Divide", FamilyArithmetic, 2, 1},
	Equals:        {"Equals", FamilyArithmetic, 2, 1},
	LessThan:      {"LessThan", FamilyArithmetic, 2, 1},
	LogicalAnd:    {"LogicalAnd", FamilyArithmetic, 2, 1},
	LogicalOr:     {"LogicalOr", FamilyArithmetic, 2, 1},
	LogicalNot:    {"LogicalNot", FamilyArithmetic, 1, 1},
	StringEquals:  {"StringEquals", FamilyArithmetic, 2, 1},
	StringLength:  {"StringLength", FamilyArithmetic, 1, 1},
	SubString:     {"SubString", FamilyArithmetic, 3, 1},
	Pop:           {"Pop", FamilyStack, 1, 0},
	ToInteger:     {"ToInteger", FamilyArithmetic, 1, 1},
	GetVariable:   {"GetVariable", FamilyObject, 1, 1},
	SetVariable:   {"SetVariable", FamilyObject, 2, 0},
	SetTarget2:    {"SetTarget2", FamilyPlayback, 1, 0},
	StringAdd:     {"StringAdd", FamilyArithmetic, 2, 1},
	GetProperty:   {"GetProperty", FamilyPlayback, 2, 1},
	SetProperty:   {"SetProperty", FamilyPlayback, 3, 0},
	CloneSprite:   {"CloneSprite", FamilyPlayback, 3, 0},
	RemoveSprite:  {"RemoveSprite", FamilyPlayback, 1, 0},
	Trace:         {"Trace", FamilyPlayback, 1, 0},
	StartDrag:     {"StartDrag", FamilyPlayback, Variable, 0},
	EndDrag:       {"EndDrag", FamilyPlayback, 0, 0},
	StringLess:    {"StringLess", FamilyArithmetic, 2, 1},
	Throw:         {"Throw", FamilyControl, 1, 0},
	CastOp:        {"CastOp", FamilyObject, 2, 1},
	ImplementsOp:  {"ImplementsOp", FamilyObject, Variable, 0},
	Random:        {"Random", FamilyArithmetic, 1, 1},
	MBLength:      {"MBLength", FamilyArithmetic, 1, 1},
	Ord:           {"Ord", FamilyArithmetic, 1, 1},
	Chr:           {"Chr", FamilyArithmetic, 1, 1},
	GetTime:       {"GetTime", FamilyPlayback, 0, 1},
	MBSubString:   {"MBSubString", FamilyArithmetic, 3, 1},
	MBOrd:         {"MBOrd", FamilyArithmetic, 1, 1},
	MBChr:         {"MBChr", FamilyArithmetic, 1, 1},
	Delete:        {"Delete", FamilyObject, 2, 1},
	Delete2:       {"Delete2", FamilyObject, 1, 1},
	DefineLocal:   {"DefineLocal", FamilyObject, 2, 0},
	CallFunction:  {"CallFunction", FamilyObject, Variable, 1},
	Return:        {"Return", FamilyControl, 1, 0},
	Modulo:        {"Modulo", FamilyArithmetic, 2, 1},
	NewObject:     {"NewObject", FamilyObject, Variable, 1},
	DefineLocal2:  {"DefineLocal2", FamilyObject, 1, 0},
	InitArray:     {"InitArray", FamilyObject, Variable, 1},
	InitObject:    {"InitObject", FamilyObject, Variable, 1},
	TypeOf:        {"TypeOf", FamilyObject, 1, 1},
	TargetPath:    {"TargetPath", FamilyObject, 1, 1},
	Enumerate:     {"Enumerate", FamilyObject, 1, 1},
	Add2:          {"Add2", FamilyArithmetic, 2, 1},
	LessThan2:     {"LessThan2", FamilyArithmetic, 2, 1},
	Equals2:       {"Equals2", FamilyArithmetic, 2, 1},
	ToNumber:      {"ToNumber", FamilyArithmetic, 1, 1},
	ToString:      {"ToString", FamilyArithmetic, 1, 1},
	PushDuplicate: {"PushDuplicate", FamilyStack, 1, 2},
	StackSwap:     {"StackSwap", FamilyStack, 2, 2},
	GetMember:     {"GetMember", FamilyObject, 2, 1},
	SetMember:     {"SetMember", FamilyObject, 3, 0},
	Increment:     {"Increment", FamilyArithmetic, 1, 1},
	Decrement:     {"Decrement", FamilyArithmetic, 1, 1},
	CallMethod:    {"CallMethod", FamilyObject, Variable, 1},
	NewMethod:     {"NewMethod", FamilyObject, Variable, 1},
	InstanceOf:    {"InstanceOf", FamilyObject, 2, 1},
	Enumerate2:    {"Enumerate2", FamilyObject, 1, 1},

	EA_PushThis:      {"EA_PushThis", FamilyStack, 0, 1},
	EA_PushGlobal:    {"EA_PushGlobal", FamilyStack, 0, 1},
	EA_ZeroVar:       {"EA_ZeroVar", FamilyStack, 1, 0},
	EA_PushTrue:      {"EA_PushTrue", FamilyStack, 0, 1},
	EA_PushFalse:     {"EA_PushFalse", FamilyStack, 0, 1},
	EA_PushNull:      {"EA_PushNull", FamilyStack, 0, 1},
	EA_PushUndefined: {"EA_PushUndefined", FamilyStack, 0, 1},
	TraceStart:       {"TraceStart", FamilyPlayback, 0, 0},

	BitwiseAnd:    {"BitwiseAnd", FamilyArithmetic, 2, 1},
	BitwiseOr:     {"BitwiseOr", FamilyArithmetic, 2, 1},
	BitwiseXor:    {"BitwiseXor", FamilyArithmetic, 2, 1},
	ShiftLeft:     {"ShiftLeft", FamilyArithmetic, 2, 1},
	ShiftRight:    {"ShiftRight", FamilyArithmetic, 2, 1},
	ShiftRight2:   {"ShiftRight2", FamilyArithmetic, 2, 1},
	StrictEquals:  {"StrictEquals", FamilyArithmetic, 2, 1},
	Greater:       {"Greater", FamilyArithmetic, 2, 1},
	StringGreater: {"StringGreater", FamilyArithmetic, 2, 1},
	Extends:       {"Extends", FamilyObject, 2, 0},

	EA_PushZero:      {"EA_PushZero", FamilyStack, 0, 1},
	EA_PushOne:       {"EA_PushOne", FamilyStack, 0, 1},
	EA_CallFunc:      {"EA_CallFunc", FamilyObject, Variable, 1},
	EA_CallFuncPop:   {"EA_CallFuncPop", FamilyObject, Variable, 0},
	EA_CallMethod:    {"EA_CallMethod", FamilyObject, Variable, 1},
	EA_CallMethodPop: {"EA_CallMethodPop", FamilyObject, Variable, 0},
	EA_PushThisVar:   {"EA_PushThisVar", FamilyStack, 0, 1},
	EA_PushGlobalVar: {"EA_PushGlobalVar", FamilyStack, 0, 1},

	GotoFrame:       {"GotoFrame", FamilyPlayback, 0, 0},
	GetURL:          {"GetURL", FamilyURL, 0, 0},
	StoreRegister:   {"StoreRegister", FamilyStack, 1, 1},
	ConstantPool:    {"ConstantPool", FamilyStack, 0, 0},
	WaitForFrame:    {"WaitForFrame", FamilyPlayback, 0, 0},
	SetTarget:       {"SetTarget", FamilyPlayback, 0, 0},
	GotoLabel:       {"GotoLabel", FamilyPlayback, 0, 0},
	WaitForFrame2:   {"WaitForFrame2", FamilyPlayback, 1, 0},
	DefineFunction2: {"DefineFunction2", FamilyControl, 0, Variable},
	Try:             {"Try", FamilyControl, 0, 0},
	With:            {"With", FamilyControl, 1, 0},
	PushData:        {"PushData", FamilyStack, 0, Variable},
	BranchAlways:    {"BranchAlways", FamilyControl, 0, 0},
	GetURL2:         {"GetURL2", FamilyURL, 2, 0},
	DefineFunction:  {"DefineFunction", FamilyControl, 0, Variable},
	BranchIfTrue:    {"BranchIfTrue", FamilyControl, 1, 1},
	CallFrame:       {"CallFrame", FamilyPlayback, 1, 0},
	GotoFrame2:      {"GotoFrame2", FamilyPlayback, 1, 0},

	EA_PushString:         {"EA_PushString", FamilyStack, 0, 1},
	EA_PushConstantByte:   {"EA_PushConstantByte", FamilyStack, 0, 1},
	EA_PushConstantWord:   {"EA_PushConstantWord", FamilyStack, 0, 1},
	EA_GetStringVar:       {"EA_GetStringVar", FamilyStack, 0, 1},
	EA_GetStringMember:    {"EA_GetStringMember", FamilyStack, 1, 1},
	EA_SetStringVar:       {"EA_SetStringVar", FamilyStack, 1, 0},
	EA_SetStringMember:    {"EA_SetStringMember", FamilyStack, 2, 0},
	EA_PushValueOfVar:     {"EA_PushValueOfVar", FamilyStack, 0, 1},
	EA_GetNamedMember:     {"EA_GetNamedMember", FamilyObject, 1, 1},
	EA_CallNamedFuncPop:   {"EA_CallNamedFuncPop", FamilyObject, Variable, 0},
	EA_CallNamedFunc:      {"EA_CallNamedFunc", FamilyObject, Variable, 1},
	EA_CallNamedMethodPop: {"EA_CallNamedMethodPop", FamilyObject, Variable, 0},
	EA_CallNamedMethod:    {"EA_CallNamedMethod", FamilyObject, Variable, 1},
	EA_PushFloat:          {"EA_PushFloat", FamilyStack, 0, 1},
	EA_PushByte:           {"EA_PushByte", FamilyStack, 0, 1},
	EA_PushShort:          {"EA_PushShort", FamilyStack, 0, 1},
	EA_PushLong:           {"EA_PushLong", FamilyStack, 0, 1},
	EA_BranchIfFalse:      {"EA_BranchIfFalse", FamilyControl, 1, 1},
	EA_PushRegister:       {"EA_PushRegister", FamilyStack, 0, 1},
}

var byName map[string]InstructionType

func init() {
	byName = make(map[string]InstructionType, len(Opcodes))
	for i, info := range Opcodes {
		if info.Known() {
			byName[info.Name] = InstructionType(i)
		}
	}
}

// Info returns the metadata for t.
func (t InstructionType) Info() OpInfo {
	return Opcodes[t]
}

// String returns the mnemonic, or OP_0xNN for unassigned codes.
func (t InstructionType) String() string {
	if info := Opcodes[t]; info.Known() {
		return info.Name
	}
	return opHex(uint8(t))
}

// Lookup parses a mnemonic. Matching is exact.
func Lookup(name string) (InstructionType, bool) {
	t, ok := byName[name]
	return t, ok
}

func opHex(b uint8) string {
	const digits = "0123456789ABCDEF"
	return "OP_0x" + string([]byte{digits[b>>4], digits[b&0xF]})
}
