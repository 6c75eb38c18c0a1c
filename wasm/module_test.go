package wasm

import (
	"bytes"
	"testing"

	"fern/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinimalModuleBytes(t *testing.T) {
	p := &Program{
		Functions: []Function{{
			Name:   "one",
			Type:   FuncType{Results: []ValType{I32}},
			Code:   []Instruction{Instr(OpI32Const, int32(42))},
			Export: true,
		}},
	}

	b, err := p.Encode()
	require.NoError(t, err)

	want := []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		0x01, 0x05, 0x01, 0x60, 0x00, 0x01, 0x7f,
		0x03, 0x02, 0x01, 0x00,
		0x07, 0x07, 0x01, 0x03, 'o', 'n', 'e', 0x00, 0x00,
		0x0a, 0x06, 0x01, 0x04, 0x00, 0x41, 0x2a, 0x0b,
	}
	assert.Equal(t, want, b)
}

func TestSectionsAreWrittenInCanonicalOrder(t *testing.T) {
	m := NewModule(
		&StartSection{Index: 0},
		&TypeSection{Types: []FuncType{{}}},
		&CodeSection{Bodies: []FuncBody{{}}},
		&FunctionSection{TypeIndices: []uint32{0}},
	)

	b, err := m.Encode()
	require.NoError(t, err)

	dec, err := Decode(b)
	require.NoError(t, err)

	var ids []SectionID
	for _, s := range dec.Sections {
		ids = append(ids, s.ID())
	}
	assert.Equal(t, []SectionID{SectionType, SectionFunction, SectionStart, SectionCode}, ids)
}

func TestTypeSignaturesAreShared(t *testing.T) {
	binary := FuncType{Params: []ValType{F64, F64}, Results: []ValType{F64}}
	p := &Program{
		Imports: []ImportedFunc{{Module: "js", Name: "print_ln", Type: FuncType{Params: []ValType{F64}}}},
		Functions: []Function{
			{Name: "a", Type: binary, Code: []Instruction{Instr(OpLocalGet, uint32(0))}},
			{Name: "b", Type: binary, Code: []Instruction{Instr(OpLocalGet, uint32(1))}},
		},
	}

	m := p.Module()
	types := m.Section(SectionType).(*TypeSection)
	assert.Len(t, types.Types, 2)

	funcs := m.Section(SectionFunction).(*FunctionSection)
	assert.Equal(t, []uint32{1, 1}, funcs.TypeIndices)

	idx, ok := p.FuncIndex("b")
	require.True(t, ok)
	assert.Equal(t, uint32(2), idx)
}

func TestLocalRuns(t *testing.T) {
	fb := FuncBody{Locals: []ValType{F64, F64, I32, F64}}
	b := fb.appendBody(nil)

	// size, 3 runs: (2 f64) (1 i32) (1 f64), end
	want := []byte{0x08, 0x03, 0x02, 0x7c, 0x01, 0x7f, 0x01, 0x7c, 0x0b}
	assert.Equal(t, want, b)
}

func TestFloatImmediateLayout(t *testing.T) {
	b, err := EncodeInstructions([]Instruction{Instr(OpF64Const, 1.0)})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x44, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xf0, 0x3f}, b)

	b, err = EncodeInstructions([]Instruction{Instr(OpI64Const, int64(-2))})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x42, 0x7e}, b)
}

func TestAssemblerRejectsBadInstructions(t *testing.T) {
	cases := map[string]Instruction{
		"unknown opcode":  {Op: Opcode(0xff)},
		"wrong type":      Instr(OpF64Const, 1),
		"missing index":   Instr(OpLocalGet),
		"extra immediate": Instr(OpDrop, uint32(0)),
		"negative index":  Instr(OpCall, -1),
	}

	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			b, err := EncodeInstructions([]Instruction{Instr(OpNop), in})
			require.Error(t, err)
			assert.Nil(t, b)

			cerr, ok := report.AsError(err)
			require.True(t, ok)
			assert.Equal(t, report.KindAssembler, cerr.Kind)
		})
	}
}

func TestModuleEncodeIsAllOrNothing(t *testing.T) {
	p := &Program{
		Functions: []Function{{
			Name: "bad",
			Code: []Instruction{Instr(OpF64Const, "not a float")},
		}},
	}

	b, err := p.Encode()
	assert.Error(t, err)
	assert.Nil(t, b)
}

func TestNamedInstruction(t *testing.T) {
	in := Named("i64.load32_u", uint32(2), uint32(8))
	assert.Equal(t, Opcode(0x35), in.Op)
	assert.Equal(t, "i64.load32_u 2 8", in.String())

	op, ok := LookupOpcode("f64.convert_i32_s")
	require.True(t, ok)
	assert.Equal(t, OpF64ConvertI32S, op)

	_, ok = LookupOpcode("f64.frobnicate")
	assert.False(t, ok)
}

// memoryProgram builds a module by hand that stores two values to linear
// memory, loads them back and adds them.
func memoryProgram() *Program {
	return &Program{
		Functions: []Function{{
			Name: "sum",
			Type: FuncType{Results: []ValType{F64}},
			Code: []Instruction{
				Instr(OpI32Const, int32(0)),
				Instr(OpF64Const, 1.25),
				Instr(OpF64Store, uint32(3), uint32(0)),
				Instr(OpI32Const, int32(8)),
				Instr(OpI64Const, int64(40)),
				Instr(OpI64Store, uint32(3), uint32(0)),
				Instr(OpI32Const, int32(0)),
				Instr(OpF64Load, uint32(3), uint32(0)),
				Instr(OpI32Const, int32(0)),
				Instr(OpI64Load, uint32(3), uint32(8)),
				Instr(OpF64ConvertI64S),
				Instr(OpF64Add),
			},
			Export: true,
		}},
		Memory:       &Limits{Min: 1, Max: 1, HasMax: true},
		MemoryExport: "memory",
		Data: []DataSegment{{
			Offset: []Instruction{Instr(OpI32Const, int32(16))},
			Data:   []byte("fern"),
		}},
	}
}

func TestMemoryModuleRoundTrip(t *testing.T) {
	b, err := memoryProgram().Encode()
	require.NoError(t, err)

	m, err := Decode(b)
	require.NoError(t, err)

	mem := m.Section(SectionMemory).(*MemorySection)
	assert.Equal(t, []Limits{{Min: 1, Max: 1, HasMax: true}}, mem.Memories)

	data := m.Section(SectionData).(*DataSection)
	require.Len(t, data.Segments, 1)
	assert.Equal(t, []byte("fern"), data.Segments[0].Data)

	code := m.Section(SectionCode).(*CodeSection)
	require.Len(t, code.Bodies, 1)
	assert.Equal(t, Instr(OpI64Load, uint32(3), uint32(8)), code.Bodies[0].Code[9])
	assert.Equal(t, Instr(OpF64Const, 1.25), code.Bodies[0].Code[1])

	// Re-encoding the decoded module reproduces the same bytes.
	again, err := m.Encode()
	require.NoError(t, err)
	assert.True(t, bytes.Equal(b, again))
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte("\x00asx\x01\x00\x00\x00"))
	assert.ErrorContains(t, err, "bad magic")

	_, err = Decode([]byte("\x00asm\x02\x00\x00\x00"))
	assert.ErrorContains(t, err, "unsupported version")

	_, err = Decode([]byte("\x00asm\x01\x00\x00\x00\x01\x09\x01"))
	assert.ErrorContains(t, err, "overruns")

	// Function section before the type section.
	_, err = Decode([]byte("\x00asm\x01\x00\x00\x00\x03\x01\x00\x01\x01\x00"))
	assert.ErrorContains(t, err, "out of order")
}

func TestDisassemble(t *testing.T) {
	p := &Program{
		Imports: []ImportedFunc{{Module: "js", Name: "print_ln", Type: FuncType{Params: []ValType{F64}}}},
		Functions: []Function{{
			Name:   "main",
			Locals: []ValType{F64},
			Code: []Instruction{
				Instr(OpBlock, BlockEmpty),
				Instr(OpLoop, BlockEmpty),
				Instr(OpBr, uint32(1)),
				Instr(OpEnd),
				Instr(OpEnd),
				Instr(OpF64Const, 3.0),
				Instr(OpCall, uint32(0)),
			},
			Export: true,
		}},
		Start:    1,
		HasStart: true,
	}

	b, err := p.Encode()
	require.NoError(t, err)
	m, err := Decode(b)
	require.NoError(t, err)

	text := Disassemble(m)
	assert.Contains(t, text, "import func[0] js.print_ln (f64) -> ()")
	assert.Contains(t, text, "start func[1]")
	assert.Contains(t, text, "func[1] main () -> ()")
	assert.Contains(t, text, "  locals: f64")
	assert.Contains(t, text, "\n  block\n    loop\n      br 1\n    end\n  end\n  f64.const 3\n  call 0\n")
}
