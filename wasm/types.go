package wasm

import "strings"

// ValType is a value type byte.
type ValType byte

// Enumeration of value types.
const (
	I32 ValType = 0x7f
	I64 ValType = 0x7e
	F32 ValType = 0x7d
	F64 ValType = 0x7c
)

func (vt ValType) String() string {
	switch vt {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	default:
		return "<invalid>"
	}
}

// BlockType is the type immediate of a structured instruction.  It is either
// BlockEmpty or the byte of a single result ValType.
type BlockType byte

// BlockEmpty marks a block that yields no value.
const BlockEmpty BlockType = 0x40

func (bt BlockType) String() string {
	if bt == BlockEmpty {
		return ""
	}

	return "(result " + ValType(bt).String() + ")"
}

// funcTypeForm prefixes every function signature.
const funcTypeForm = 0x60

// FuncType is a function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// Equal reports whether two signatures are identical.
func (ft FuncType) Equal(other FuncType) bool {
	return ft.String() == other.String()
}

func (ft FuncType) String() string {
	sb := strings.Builder{}
	sb.WriteString("(")
	for i, p := range ft.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
	}
	sb.WriteString(") -> (")
	for i, r := range ft.Results {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(r.String())
	}
	sb.WriteString(")")
	return sb.String()
}

// -----------------------------------------------------------------------------

// ExternKind is the kind of an imported or exported entity.
type ExternKind byte

// Enumeration of extern kinds.
const (
	ExternFunc   ExternKind = 0x00
	ExternTable  ExternKind = 0x01
	ExternMemory ExternKind = 0x02
	ExternGlobal ExternKind = 0x03
)

func (ek ExternKind) String() string {
	switch ek {
	case ExternFunc:
		return "func"
	case ExternTable:
		return "table"
	case ExternMemory:
		return "memory"
	default:
		return "global"
	}
}

// Limits bounds the size of a memory (in 64KiB pages) or a table.
type Limits struct {
	Min    uint32
	Max    uint32
	HasMax bool
}

// funcRefType is the only table element type in the MVP.
const funcRefType = 0x70
