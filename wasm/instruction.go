package wasm

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"fern/report"
)

// Instruction is a single stack machine instruction: an opcode and its
// immediates.  Operands are never nested: sub-expressions are always earlier
// instructions in the same stream.
type Instruction struct {
	Op   Opcode
	Args []interface{}
}

// Instr creates a new instruction.
func Instr(op Opcode, args ...interface{}) Instruction {
	return Instruction{Op: op, Args: args}
}

// Named creates a new instruction from its mnemonic.  An unknown mnemonic is
// an internal error.
func Named(name string, args ...interface{}) Instruction {
	op, ok := LookupOpcode(name)
	if !ok {
		report.ICE("unknown opcode mnemonic `%s`", name)
	}

	return Instruction{Op: op, Args: args}
}

func (in Instruction) String() string {
	sb := strings.Builder{}
	sb.WriteString(in.Op.String())

	for _, arg := range in.Args {
		var s string
		switch v := arg.(type) {
		case BlockType:
			s = v.String()
		case ValType:
			s = BlockType(v).String()
		case float64:
			s = strconv.FormatFloat(v, 'g', -1, 64)
		case float32:
			s = strconv.FormatFloat(float64(v), 'g', -1, 32)
		default:
			s = fmt.Sprint(v)
		}

		if s != "" {
			sb.WriteRune(' ')
			sb.WriteString(s)
		}
	}

	return sb.String()
}

// -----------------------------------------------------------------------------

// AppendTo appends the binary encoding of the instruction to b.  The opcode
// byte is written first, then every immediate in the encoding selected by the
// opcode's immediate signature.  An unknown opcode, a wrong number of
// immediates or an immediate of the wrong Go type is an internal error.
func (in Instruction) AppendTo(b []byte) []byte {
	info, ok := opsByCode[in.Op]
	if !ok {
		report.ICE("unknown opcode 0x%02x", byte(in.Op))
	}

	b = append(b, byte(in.Op))

	argN := 0
	for _, imm := range info.imms {
		if imm == ImmReserved {
			b = append(b, 0x00)
			continue
		}

		if argN >= len(in.Args) {
			report.ICE("`%s` is missing its %s immediate", info.name, imm)
		}

		b = appendImmediate(b, info.name, imm, in.Args[argN])
		argN++
	}

	if argN != len(in.Args) {
		report.ICE("`%s` takes %d immediates but was given %d", info.name, argN, len(in.Args))
	}

	return b
}

// appendImmediate encodes one immediate.
func appendImmediate(b []byte, name string, imm Immediate, arg interface{}) []byte {
	mismatch := func() {
		report.ICE("`%s` expects a %s immediate but was given %T", name, imm, arg)
	}

	switch imm {
	case ImmIndex:
		switch v := arg.(type) {
		case uint32:
			return AppendUleb(b, uint64(v))
		case int:
			if v < 0 || uint64(v) > math.MaxUint32 {
				report.ICE("`%s` index out of range: %d", name, v)
			}
			return AppendUleb(b, uint64(v))
		}
	case ImmI32:
		switch v := arg.(type) {
		case int32:
			return AppendSleb(b, int64(v))
		case int:
			if int64(v) < math.MinInt32 || int64(v) > math.MaxInt32 {
				report.ICE("`%s` constant out of range: %d", name, v)
			}
			return AppendSleb(b, int64(v))
		}
	case ImmI64:
		switch v := arg.(type) {
		case int64:
			return AppendSleb(b, v)
		case int:
			return AppendSleb(b, int64(v))
		}
	case ImmF32:
		if v, ok := arg.(float32); ok {
			return binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
		}
	case ImmF64:
		if v, ok := arg.(float64); ok {
			return binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
		}
	case ImmBlock:
		switch v := arg.(type) {
		case BlockType:
			return append(b, byte(v))
		case ValType:
			return append(b, byte(v))
		}
	case ImmLabels:
		if v, ok := arg.([]uint32); ok {
			b = AppendUleb(b, uint64(len(v)))
			for _, label := range v {
				b = AppendUleb(b, uint64(label))
			}
			return b
		}
	}

	mismatch()
	return b
}

// EncodeInstructions encodes an instruction stream.  Internal errors are
// returned rather than raised and no bytes are returned with them.
func EncodeInstructions(code []Instruction) (b []byte, err error) {
	defer func() {
		if err != nil {
			b = nil
		}
	}()
	defer report.CatchErrors(&err)

	for _, in := range code {
		b = in.AppendTo(b)
	}

	return b, nil
}
