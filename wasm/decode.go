package wasm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// DecodeError is an error reading a binary module.
type DecodeError struct {
	Offset  int
	Message string
}

func (de *DecodeError) Error() string {
	return fmt.Sprintf("decode error at offset 0x%x: %s", de.Offset, de.Message)
}

// decoder reads a module from a byte slice.  Malformed input panics with a
// *DecodeError which Decode recovers.
type decoder struct {
	b   []byte
	pos int
}

func (d *decoder) fail(msg string, args ...interface{}) {
	panic(&DecodeError{Offset: d.pos, Message: fmt.Sprintf(msg, args...)})
}

func (d *decoder) readByte() byte {
	if d.pos >= len(d.b) {
		d.fail("unexpected end of input")
	}

	c := d.b[d.pos]
	d.pos++
	return c
}

func (d *decoder) readBytes(n int) []byte {
	if n < 0 || d.pos+n > len(d.b) {
		d.fail("unexpected end of input")
	}

	out := d.b[d.pos : d.pos+n]
	d.pos += n
	return out
}

func (d *decoder) uleb() uint64 {
	v, n, err := ReadUleb(d.b[d.pos:])
	if err != nil {
		d.fail("%s", err)
	}

	d.pos += n
	return v
}

func (d *decoder) u32() uint32 {
	v := d.uleb()
	if v > math.MaxUint32 {
		d.fail("index out of range: %d", v)
	}

	return uint32(v)
}

func (d *decoder) sleb() int64 {
	v, n, err := ReadSleb(d.b[d.pos:])
	if err != nil {
		d.fail("%s", err)
	}

	d.pos += n
	return v
}

func (d *decoder) name() string {
	return string(d.readBytes(int(d.u32())))
}

func (d *decoder) valType() ValType {
	switch vt := ValType(d.readByte()); vt {
	case I32, I64, F32, F64:
		return vt
	default:
		d.pos--
		d.fail("invalid value type 0x%02x", byte(vt))
		return 0
	}
}

func (d *decoder) limits() Limits {
	switch d.readByte() {
	case 0x00:
		return Limits{Min: d.u32()}
	case 0x01:
		return Limits{Min: d.u32(), Max: d.u32(), HasMax: true}
	default:
		d.pos--
		d.fail("invalid limits flag")
		return Limits{}
	}
}

// -----------------------------------------------------------------------------

// Decode reads a binary module.  Custom sections are skipped.
func Decode(b []byte) (m *Module, err error) {
	defer func() {
		if x := recover(); x != nil {
			if de, ok := x.(*DecodeError); ok {
				m, err = nil, de
			} else {
				panic(x)
			}
		}
	}()

	d := &decoder{b: b}

	if !bytes.Equal(d.readBytes(4), magic) {
		d.pos = 0
		d.fail("bad magic number")
	}

	if v := binary.LittleEndian.Uint32(d.readBytes(4)); v != 1 {
		d.pos -= 4
		d.fail("unsupported version %d", v)
	}

	m = &Module{}
	lastID := SectionCustom
	for d.pos < len(d.b) {
		id := SectionID(d.readByte())
		size := int(d.u32())
		end := d.pos + size
		if end > len(d.b) {
			d.fail("section %s overruns the module", id)
		}

		if id == SectionCustom {
			d.pos = end
			continue
		}

		if id <= lastID {
			d.fail("section %s out of order", id)
		}
		lastID = id

		sub := &decoder{b: d.b[:end], pos: d.pos}
		m.Sections = append(m.Sections, sub.section(id))
		if sub.pos != end {
			d.pos = sub.pos
			d.fail("section %s has %d trailing bytes", id, end-sub.pos)
		}

		d.pos = end
	}

	return m, nil
}

// section decodes the payload of one section.
func (d *decoder) section(id SectionID) Section {
	switch id {
	case SectionType:
		s := &TypeSection{}
		for n := d.u32(); n > 0; n-- {
			if d.readByte() != funcTypeForm {
				d.pos--
				d.fail("expected function type")
			}

			ft := FuncType{}
			for p := d.u32(); p > 0; p-- {
				ft.Params = append(ft.Params, d.valType())
			}
			for r := d.u32(); r > 0; r-- {
				ft.Results = append(ft.Results, d.valType())
			}
			s.Types = append(s.Types, ft)
		}
		return s
	case SectionImport:
		s := &ImportSection{}
		for n := d.u32(); n > 0; n-- {
			imp := Import{Module: d.name(), Name: d.name(), Kind: ExternKind(d.readByte())}
			switch imp.Kind {
			case ExternFunc:
				imp.TypeIndex = d.u32()
			case ExternMemory:
				imp.Limits = d.limits()
			default:
				d.fail("unsupported %s import", imp.Kind)
			}
			s.Imports = append(s.Imports, imp)
		}
		return s
	case SectionFunction:
		s := &FunctionSection{}
		for n := d.u32(); n > 0; n-- {
			s.TypeIndices = append(s.TypeIndices, d.u32())
		}
		return s
	case SectionTable:
		s := &TableSection{}
		for n := d.u32(); n > 0; n-- {
			if d.readByte() != funcRefType {
				d.pos--
				d.fail("expected funcref table")
			}
			s.Tables = append(s.Tables, d.limits())
		}
		return s
	case SectionMemory:
		s := &MemorySection{}
		for n := d.u32(); n > 0; n-- {
			s.Memories = append(s.Memories, d.limits())
		}
		return s
	case SectionGlobal:
		s := &GlobalSection{}
		for n := d.u32(); n > 0; n-- {
			g := Global{Type: d.valType()}
			g.Mutable = d.readByte() == 0x01
			g.Init = d.initExpr()
			s.Globals = append(s.Globals, g)
		}
		return s
	case SectionExport:
		s := &ExportSection{}
		for n := d.u32(); n > 0; n-- {
			s.Exports = append(s.Exports, Export{Name: d.name(), Kind: ExternKind(d.readByte()), Index: d.u32()})
		}
		return s
	case SectionStart:
		return &StartSection{Index: d.u32()}
	case SectionElement:
		s := &ElementSection{}
		for n := d.u32(); n > 0; n-- {
			e := Element{Table: d.u32(), Offset: d.initExpr()}
			for f := d.u32(); f > 0; f-- {
				e.Funcs = append(e.Funcs, d.u32())
			}
			s.Elements = append(s.Elements, e)
		}
		return s
	case SectionCode:
		s := &CodeSection{}
		for n := d.u32(); n > 0; n-- {
			s.Bodies = append(s.Bodies, d.funcBody())
		}
		return s
	case SectionData:
		s := &DataSection{}
		for n := d.u32(); n > 0; n-- {
			seg := DataSegment{Memory: d.u32(), Offset: d.initExpr()}
			seg.Data = append([]byte(nil), d.readBytes(int(d.u32()))...)
			s.Segments = append(s.Segments, seg)
		}
		return s
	default:
		d.pos--
		d.fail("unknown section id %d", byte(id))
		return nil
	}
}

// funcBody decodes one length-prefixed function body.
func (d *decoder) funcBody() FuncBody {
	size := int(d.u32())
	end := d.pos + size
	if end > len(d.b) {
		d.fail("function body overruns the code section")
	}

	fb := FuncBody{}
	for runs := d.u32(); runs > 0; runs-- {
		count := d.u32()
		vt := d.valType()
		for ; count > 0; count-- {
			fb.Locals = append(fb.Locals, vt)
		}
	}

	// The final end belongs to the body itself, not to the instruction list.
	depth := 0
	for d.pos < end {
		in := d.instruction()
		switch in.Op {
		case OpBlock, OpLoop, OpIf:
			depth++
		case OpEnd:
			if depth == 0 {
				if d.pos != end {
					d.fail("function body continues after its final end")
				}
				return fb
			}
			depth--
		}

		fb.Code = append(fb.Code, in)
	}

	d.fail("function body is missing its final end")
	return fb
}

// initExpr decodes a constant expression up to and including its end.
func (d *decoder) initExpr() []Instruction {
	var expr []Instruction
	for {
		in := d.instruction()
		if in.Op == OpEnd {
			return expr
		}
		expr = append(expr, in)
	}
}

// instruction decodes one instruction with its immediates.
func (d *decoder) instruction() Instruction {
	op := Opcode(d.readByte())
	info, ok := opsByCode[op]
	if !ok {
		d.pos--
		d.fail("unknown opcode 0x%02x", byte(op))
	}

	in := Instruction{Op: op}
	for _, imm := range info.imms {
		switch imm {
		case ImmIndex:
			in.Args = append(in.Args, d.u32())
		case ImmI32:
			v := d.sleb()
			if v < math.MinInt32 || v > math.MaxInt32 {
				d.fail("i32 constant out of range")
			}
			in.Args = append(in.Args, int32(v))
		case ImmI64:
			in.Args = append(in.Args, d.sleb())
		case ImmF32:
			in.Args = append(in.Args, math.Float32frombits(binary.LittleEndian.Uint32(d.readBytes(4))))
		case ImmF64:
			in.Args = append(in.Args, math.Float64frombits(binary.LittleEndian.Uint64(d.readBytes(8))))
		case ImmBlock:
			bt := BlockType(d.readByte())
			switch ValType(bt) {
			case I32, I64, F32, F64:
			default:
				if bt != BlockEmpty {
					d.pos--
					d.fail("invalid block type 0x%02x", byte(bt))
				}
			}
			in.Args = append(in.Args, bt)
		case ImmLabels:
			var labels []uint32
			for n := d.u32(); n > 0; n-- {
				labels = append(labels, d.u32())
			}
			in.Args = append(in.Args, labels)
		case ImmReserved:
			if d.readByte() != 0x00 {
				d.pos--
				d.fail("reserved byte must be zero")
			}
		}
	}

	return in
}
