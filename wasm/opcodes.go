package wasm

// Opcode is a single-byte instruction opcode.
type Opcode byte

// Immediate describes the kind of one immediate operand of an opcode.
type Immediate int

// Enumeration of immediate kinds.
const (
	// ImmIndex is an unsigned LEB128 integer: local, global, function and
	// label indices, memory alignment and offset.  Go type: uint32.
	ImmIndex Immediate = iota

	// ImmI32 is a signed LEB128 32-bit constant.  Go type: int32.
	ImmI32

	// ImmI64 is a signed LEB128 64-bit constant.  Go type: int64.
	ImmI64

	// ImmF32 is a little-endian IEEE single.  Go type: float32.
	ImmF32

	// ImmF64 is a little-endian IEEE double.  Go type: float64.
	ImmF64

	// ImmBlock is a block type byte.  Go type: BlockType or ValType.
	ImmBlock

	// ImmLabels is the label vector of br_table.  Go type: []uint32.
	ImmLabels

	// ImmReserved is a reserved zero byte.  It takes no argument.
	ImmReserved
)

func (imm Immediate) String() string {
	switch imm {
	case ImmIndex:
		return "index"
	case ImmI32:
		return "i32"
	case ImmI64:
		return "i64"
	case ImmF32:
		return "f32"
	case ImmF64:
		return "f64"
	case ImmBlock:
		return "blocktype"
	case ImmLabels:
		return "labels"
	default:
		return "reserved"
	}
}

// Opcodes used directly by the compiler.  Every other opcode in the table can
// be reached through LookupOpcode.
const (
	OpUnreachable  Opcode = 0x00
	OpNop          Opcode = 0x01
	OpBlock        Opcode = 0x02
	OpLoop         Opcode = 0x03
	OpIf           Opcode = 0x04
	OpElse         Opcode = 0x05
	OpEnd          Opcode = 0x0b
	OpBr           Opcode = 0x0c
	OpBrIf         Opcode = 0x0d
	OpBrTable      Opcode = 0x0e
	OpReturn       Opcode = 0x0f
	OpCall         Opcode = 0x10
	OpCallIndirect Opcode = 0x11
	OpDrop         Opcode = 0x1a
	OpSelect       Opcode = 0x1b

	OpLocalGet  Opcode = 0x20
	OpLocalSet  Opcode = 0x21
	OpLocalTee  Opcode = 0x22
	OpGlobalGet Opcode = 0x23
	OpGlobalSet Opcode = 0x24

	OpI32Load    Opcode = 0x28
	OpI64Load    Opcode = 0x29
	OpF64Load    Opcode = 0x2b
	OpI32Load8U  Opcode = 0x2d
	OpI32Store   Opcode = 0x36
	OpI64Store   Opcode = 0x37
	OpF64Store   Opcode = 0x39
	OpI32Store8  Opcode = 0x3a
	OpMemorySize Opcode = 0x3f
	OpMemoryGrow Opcode = 0x40

	OpI32Const Opcode = 0x41
	OpI64Const Opcode = 0x42
	OpF32Const Opcode = 0x43
	OpF64Const Opcode = 0x44

	OpI32Eqz Opcode = 0x45
	OpI32Eq  Opcode = 0x46
	OpI32Ne  Opcode = 0x47
	OpI64Eqz Opcode = 0x50

	OpF64Eq Opcode = 0x61
	OpF64Ne Opcode = 0x62
	OpF64Lt Opcode = 0x63
	OpF64Gt Opcode = 0x64
	OpF64Le Opcode = 0x65
	OpF64Ge Opcode = 0x66

	OpI32Add Opcode = 0x6a
	OpI32Sub Opcode = 0x6b
	OpI64Add Opcode = 0x7c

	OpF64Abs      Opcode = 0x99
	OpF64Neg      Opcode = 0x9a
	OpF64Ceil     Opcode = 0x9b
	OpF64Floor    Opcode = 0x9c
	OpF64Trunc    Opcode = 0x9d
	OpF64Nearest  Opcode = 0x9e
	OpF64Sqrt     Opcode = 0x9f
	OpF64Add      Opcode = 0xa0
	OpF64Sub      Opcode = 0xa1
	OpF64Mul      Opcode = 0xa2
	OpF64Div      Opcode = 0xa3
	OpF64Min      Opcode = 0xa4
	OpF64Max      Opcode = 0xa5
	OpF64Copysign Opcode = 0xa6

	OpI64TruncF64S   Opcode = 0xb0
	OpF64ConvertI32S Opcode = 0xb7
	OpF64ConvertI64S Opcode = 0xb9
)

// opInfo is one row of the opcode table.
type opInfo struct {
	code Opcode
	name string
	imms []Immediate
}

var (
	noImms  = []Immediate{}
	oneIdx  = []Immediate{ImmIndex}
	memArg  = []Immediate{ImmIndex, ImmIndex}
	oneBlk  = []Immediate{ImmBlock}
	oneResv = []Immediate{ImmReserved}
)

// opTable lists every MVP opcode with its published mnemonic and immediate
// signature.
var opTable = []opInfo{
	{0x00, "unreachable", noImms},
	{0x01, "nop", noImms},
	{0x02, "block", oneBlk},
	{0x03, "loop", oneBlk},
	{0x04, "if", oneBlk},
	{0x05, "else", noImms},
	{0x0b, "end", noImms},
	{0x0c, "br", oneIdx},
	{0x0d, "br_if", oneIdx},
	{0x0e, "br_table", []Immediate{ImmLabels, ImmIndex}},
	{0x0f, "return", noImms},
	{0x10, "call", oneIdx},
	{0x11, "call_indirect", []Immediate{ImmIndex, ImmReserved}},
	{0x1a, "drop", noImms},
	{0x1b, "select", noImms},

	{0x20, "local.get", oneIdx},
	{0x21, "local.set", oneIdx},
	{0x22, "local.tee", oneIdx},
	{0x23, "global.get", oneIdx},
	{0x24, "global.set", oneIdx},

	{0x28, "i32.load", memArg},
	{0x29, "i64.load", memArg},
	{0x2a, "f32.load", memArg},
	{0x2b, "f64.load", memArg},
	{0x2c, "i32.load8_s", memArg},
	{0x2d, "i32.load8_u", memArg},
	{0x2e, "i32.load16_s", memArg},
	{0x2f, "i32.load16_u", memArg},
	{0x30, "i64.load8_s", memArg},
	{0x31, "i64.load8_u", memArg},
	{0x32, "i64.load16_s", memArg},
	{0x33, "i64.load16_u", memArg},
	{0x34, "i64.load32_s", memArg},
	{0x35, "i64.load32_u", memArg},
	{0x36, "i32.store", memArg},
	{0x37, "i64.store", memArg},
	{0x38, "f32.store", memArg},
	{0x39, "f64.store", memArg},
	{0x3a, "i32.store8", memArg},
	{0x3b, "i32.store16", memArg},
	{0x3c, "i64.store8", memArg},
	{0x3d, "i64.store16", memArg},
	{0x3e, "i64.store32", memArg},
	{0x3f, "memory.size", oneResv},
	{0x40, "memory.grow", oneResv},

	{0x41, "i32.const", []Immediate{ImmI32}},
	{0x42, "i64.const", []Immediate{ImmI64}},
	{0x43, "f32.const", []Immediate{ImmF32}},
	{0x44, "f64.const", []Immediate{ImmF64}},

	{0x45, "i32.eqz", noImms},
	{0x46, "i32.eq", noImms},
	{0x47, "i32.ne", noImms},
	{0x48, "i32.lt_s", noImms},
	{0x49, "i32.lt_u", noImms},
	{0x4a, "i32.gt_s", noImms},
	{0x4b, "i32.gt_u", noImms},
	{0x4c, "i32.le_s", noImms},
	{0x4d, "i32.le_u", noImms},
	{0x4e, "i32.ge_s", noImms},
	{0x4f, "i32.ge_u", noImms},

	{0x50, "i64.eqz", noImms},
	{0x51, "i64.eq", noImms},
	{0x52, "i64.ne", noImms},
	{0x53, "i64.lt_s", noImms},
	{0x54, "i64.lt_u", noImms},
	{0x55, "i64.gt_s", noImms},
	{0x56, "i64.gt_u", noImms},
	{0x57, "i64.le_s", noImms},
	{0x58, "i64.le_u", noImms},
	{0x59, "i64.ge_s", noImms},
	{0x5a, "i64.ge_u", noImms},

	{0x5b, "f32.eq", noImms},
	{0x5c, "f32.ne", noImms},
	{0x5d, "f32.lt", noImms},
	{0x5e, "f32.gt", noImms},
	{0x5f, "f32.le", noImms},
	{0x60, "f32.ge", noImms},

	{0x61, "f64.eq", noImms},
	{0x62, "f64.ne", noImms},
	{0x63, "f64.lt", noImms},
	{0x64, "f64.gt", noImms},
	{0x65, "f64.le", noImms},
	{0x66, "f64.ge", noImms},

	{0x67, "i32.clz", noImms},
	{0x68, "i32.ctz", noImms},
	{0x69, "i32.popcnt", noImms},
	{0x6a, "i32.add", noImms},
	{0x6b, "i32.sub", noImms},
	{0x6c, "i32.mul", noImms},
	{0x6d, "i32.div_s", noImms},
	{0x6e, "i32.div_u", noImms},
	{0x6f, "i32.rem_s", noImms},
	{0x70, "i32.rem_u", noImms},
	{0x71, "i32.and", noImms},
	{0x72, "i32.or", noImms},
	{0x73, "i32.xor", noImms},
	{0x74, "i32.shl", noImms},
	{0x75, "i32.shr_s", noImms},
	{0x76, "i32.shr_u", noImms},
	{0x77, "i32.rotl", noImms},
	{0x78, "i32.rotr", noImms},

	{0x79, "i64.clz", noImms},
	{0x7a, "i64.ctz", noImms},
	{0x7b, "i64.popcnt", noImms},
	{0x7c, "i64.add", noImms},
	{0x7d, "i64.sub", noImms},
	{0x7e, "i64.mul", noImms},
	{0x7f, "i64.div_s", noImms},
	{0x80, "i64.div_u", noImms},
	{0x81, "i64.rem_s", noImms},
	{0x82, "i64.rem_u", noImms},
	{0x83, "i64.and", noImms},
	{0x84, "i64.or", noImms},
	{0x85, "i64.xor", noImms},
	{0x86, "i64.shl", noImms},
	{0x87, "i64.shr_s", noImms},
	{0x88, "i64.shr_u", noImms},
	{0x89, "i64.rotl", noImms},
	{0x8a, "i64.rotr", noImms},

	{0x8b, "f32.abs", noImms},
	{0x8c, "f32.neg", noImms},
	{0x8d, "f32.ceil", noImms},
	{0x8e, "f32.floor", noImms},
	{0x8f, "f32.trunc", noImms},
	{0x90, "f32.nearest", noImms},
	{0x91, "f32.sqrt", noImms},
	{0x92, "f32.add", noImms},
	{0x93, "f32.sub", noImms},
	{0x94, "f32.mul", noImms},
	{0x95, "f32.div", noImms},
	{0x96, "f32.min", noImms},
	{0x97, "f32.max", noImms},
	{0x98, "f32.copysign", noImms},

	{0x99, "f64.abs", noImms},
	{0x9a, "f64.neg", noImms},
	{0x9b, "f64.ceil", noImms},
	{0x9c, "f64.floor", noImms},
	{0x9d, "f64.trunc", noImms},
	{0x9e, "f64.nearest", noImms},
	{0x9f, "f64.sqrt", noImms},
	{0xa0, "f64.add", noImms},
	{0xa1, "f64.sub", noImms},
	{0xa2, "f64.mul", noImms},
	{0xa3, "f64.div", noImms},
	{0xa4, "f64.min", noImms},
	{0xa5, "f64.max", noImms},
	{0xa6, "f64.copysign", noImms},

	{0xa7, "i32.wrap_i64", noImms},
	{0xa8, "i32.trunc_f32_s", noImms},
	{0xa9, "i32.trunc_f32_u", noImms},
	{0xaa, "i32.trunc_f64_s", noImms},
	{0xab, "i32.trunc_f64_u", noImms},
	{0xac, "i64.extend_i32_s", noImms},
	{0xad, "i64.extend_i32_u", noImms},
	{0xae, "i64.trunc_f32_s", noImms},
	{0xaf, "i64.trunc_f32_u", noImms},
	{0xb0, "i64.trunc_f64_s", noImms},
	{0xb1, "i64.trunc_f64_u", noImms},
	{0xb2, "f32.convert_i32_s", noImms},
	{0xb3, "f32.convert_i32_u", noImms},
	{0xb4, "f32.convert_i64_s", noImms},
	{0xb5, "f32.convert_i64_u", noImms},
	{0xb6, "f32.demote_f64", noImms},
	{0xb7, "f64.convert_i32_s", noImms},
	{0xb8, "f64.convert_i32_u", noImms},
	{0xb9, "f64.convert_i64_s", noImms},
	{0xba, "f64.convert_i64_u", noImms},
	{0xbb, "f64.promote_f32", noImms},
	{0xbc, "i32.reinterpret_f32", noImms},
	{0xbd, "i64.reinterpret_f64", noImms},
	{0xbe, "f32.reinterpret_i32", noImms},
	{0xbf, "f64.reinterpret_i64", noImms},
}

var (
	opsByCode = make(map[Opcode]*opInfo, len(opTable))
	opsByName = make(map[string]Opcode, len(opTable))
)

func init() {
	for i := range opTable {
		info := &opTable[i]
		opsByCode[info.code] = info
		opsByName[info.name] = info.code
	}
}

// LookupOpcode returns the opcode for a mnemonic.
func LookupOpcode(name string) (Opcode, bool) {
	op, ok := opsByName[name]
	return op, ok
}

// Known reports whether op is in the opcode table.
func (op Opcode) Known() bool {
	_, ok := opsByCode[op]
	return ok
}

// Immediates returns the immediate signature of op.
func (op Opcode) Immediates() []Immediate {
	if info, ok := opsByCode[op]; ok {
		return info.imms
	}

	return nil
}

func (op Opcode) String() string {
	if info, ok := opsByCode[op]; ok {
		return info.name
	}

	return "<unknown>"
}
