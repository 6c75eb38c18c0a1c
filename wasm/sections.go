package wasm

// SectionID is the numeric id of a module section.
type SectionID byte

// Enumeration of section ids.  The numeric order is the canonical order in
// which sections must appear in a module.
const (
	SectionCustom   SectionID = 0
	SectionType     SectionID = 1
	SectionImport   SectionID = 2
	SectionFunction SectionID = 3
	SectionTable    SectionID = 4
	SectionMemory   SectionID = 5
	SectionGlobal   SectionID = 6
	SectionExport   SectionID = 7
	SectionStart    SectionID = 8
	SectionElement  SectionID = 9
	SectionCode     SectionID = 10
	SectionData     SectionID = 11
)

var sectionNames = [...]string{
	"custom", "type", "import", "function", "table", "memory",
	"global", "export", "start", "element", "code", "data",
}

func (id SectionID) String() string {
	if int(id) < len(sectionNames) {
		return sectionNames[id]
	}

	return "<unknown>"
}

// Section is a module section.  Its payload is rendered independently of the
// other sections.
type Section interface {
	ID() SectionID

	// AppendPayload appends the section's payload (without the id byte and
	// length prefix) to b.
	AppendPayload(b []byte) []byte
}

// -----------------------------------------------------------------------------

func appendName(b []byte, name string) []byte {
	b = AppendUleb(b, uint64(len(name)))
	return append(b, name...)
}

func appendLimits(b []byte, l Limits) []byte {
	if l.HasMax {
		b = append(b, 0x01)
		b = AppendUleb(b, uint64(l.Min))
		return AppendUleb(b, uint64(l.Max))
	}

	b = append(b, 0x00)
	return AppendUleb(b, uint64(l.Min))
}

func appendFuncType(b []byte, ft FuncType) []byte {
	b = append(b, funcTypeForm)
	b = AppendUleb(b, uint64(len(ft.Params)))
	for _, p := range ft.Params {
		b = append(b, byte(p))
	}

	b = AppendUleb(b, uint64(len(ft.Results)))
	for _, r := range ft.Results {
		b = append(b, byte(r))
	}

	return b
}

// appendInitExpr appends a constant initializer expression terminated by end.
func appendInitExpr(b []byte, expr []Instruction) []byte {
	for _, in := range expr {
		b = in.AppendTo(b)
	}

	return append(b, byte(OpEnd))
}

// -----------------------------------------------------------------------------

// TypeSection declares the function signatures of the module.
type TypeSection struct {
	Types []FuncType
}

func (*TypeSection) ID() SectionID { return SectionType }

func (s *TypeSection) AppendPayload(b []byte) []byte {
	b = AppendUleb(b, uint64(len(s.Types)))
	for _, ft := range s.Types {
		b = appendFuncType(b, ft)
	}

	return b
}

// Import is an imported entity.  Only function imports carry a TypeIndex;
// memory imports carry Limits.
type Import struct {
	Module, Name string
	Kind         ExternKind
	TypeIndex    uint32
	Limits       Limits
}

// ImportSection declares the imports of the module.
type ImportSection struct {
	Imports []Import
}

func (*ImportSection) ID() SectionID { return SectionImport }

func (s *ImportSection) AppendPayload(b []byte) []byte {
	b = AppendUleb(b, uint64(len(s.Imports)))
	for _, imp := range s.Imports {
		b = appendName(b, imp.Module)
		b = appendName(b, imp.Name)
		b = append(b, byte(imp.Kind))

		switch imp.Kind {
		case ExternFunc:
			b = AppendUleb(b, uint64(imp.TypeIndex))
		case ExternMemory:
			b = appendLimits(b, imp.Limits)
		default:
			panicUnsupportedImport(imp)
		}
	}

	return b
}

// FunctionSection gives the signature index of every defined function.
type FunctionSection struct {
	TypeIndices []uint32
}

func (*FunctionSection) ID() SectionID { return SectionFunction }

func (s *FunctionSection) AppendPayload(b []byte) []byte {
	b = AppendUleb(b, uint64(len(s.TypeIndices)))
	for _, idx := range s.TypeIndices {
		b = AppendUleb(b, uint64(idx))
	}

	return b
}

// TableSection declares funcref tables.
type TableSection struct {
	Tables []Limits
}

func (*TableSection) ID() SectionID { return SectionTable }

func (s *TableSection) AppendPayload(b []byte) []byte {
	b = AppendUleb(b, uint64(len(s.Tables)))
	for _, l := range s.Tables {
		b = append(b, funcRefType)
		b = appendLimits(b, l)
	}

	return b
}

// MemorySection declares linear memories.
type MemorySection struct {
	Memories []Limits
}

func (*MemorySection) ID() SectionID { return SectionMemory }

func (s *MemorySection) AppendPayload(b []byte) []byte {
	b = AppendUleb(b, uint64(len(s.Memories)))
	for _, l := range s.Memories {
		b = appendLimits(b, l)
	}

	return b
}

// Global is a module global with a constant initializer.
type Global struct {
	Type    ValType
	Mutable bool
	Init    []Instruction
}

// GlobalSection declares globals.
type GlobalSection struct {
	Globals []Global
}

func (*GlobalSection) ID() SectionID { return SectionGlobal }

func (s *GlobalSection) AppendPayload(b []byte) []byte {
	b = AppendUleb(b, uint64(len(s.Globals)))
	for _, g := range s.Globals {
		b = append(b, byte(g.Type))
		if g.Mutable {
			b = append(b, 0x01)
		} else {
			b = append(b, 0x00)
		}
		b = appendInitExpr(b, g.Init)
	}

	return b
}

// Export is an exported entity.
type Export struct {
	Name  string
	Kind  ExternKind
	Index uint32
}

// ExportSection declares exports.
type ExportSection struct {
	Exports []Export
}

func (*ExportSection) ID() SectionID { return SectionExport }

func (s *ExportSection) AppendPayload(b []byte) []byte {
	b = AppendUleb(b, uint64(len(s.Exports)))
	for _, exp := range s.Exports {
		b = appendName(b, exp.Name)
		b = append(b, byte(exp.Kind))
		b = AppendUleb(b, uint64(exp.Index))
	}

	return b
}

// StartSection names the function run on instantiation.
type StartSection struct {
	Index uint32
}

func (*StartSection) ID() SectionID { return SectionStart }

func (s *StartSection) AppendPayload(b []byte) []byte {
	return AppendUleb(b, uint64(s.Index))
}

// Element is a table initializer segment.
type Element struct {
	Table  uint32
	Offset []Instruction
	Funcs  []uint32
}

// ElementSection declares table initializers.
type ElementSection struct {
	Elements []Element
}

func (*ElementSection) ID() SectionID { return SectionElement }

func (s *ElementSection) AppendPayload(b []byte) []byte {
	b = AppendUleb(b, uint64(len(s.Elements)))
	for _, e := range s.Elements {
		b = AppendUleb(b, uint64(e.Table))
		b = appendInitExpr(b, e.Offset)
		b = AppendUleb(b, uint64(len(e.Funcs)))
		for _, f := range e.Funcs {
			b = AppendUleb(b, uint64(f))
		}
	}

	return b
}

// FuncBody is the code of one defined function.  Locals lists the types of
// the locals declared after the parameters, one entry per local.
type FuncBody struct {
	Locals []ValType
	Code   []Instruction
}

// localRun is a run of same-typed locals.
type localRun struct {
	count uint32
	typ   ValType
}

// localRuns compresses the local list into runs of equal type.
func (fb *FuncBody) localRuns() []localRun {
	var runs []localRun
	for _, vt := range fb.Locals {
		if n := len(runs); n > 0 && runs[n-1].typ == vt {
			runs[n-1].count++
		} else {
			runs = append(runs, localRun{count: 1, typ: vt})
		}
	}

	return runs
}

// appendBody appends the length-prefixed body.
func (fb *FuncBody) appendBody(b []byte) []byte {
	var body []byte

	runs := fb.localRuns()
	body = AppendUleb(body, uint64(len(runs)))
	for _, run := range runs {
		body = AppendUleb(body, uint64(run.count))
		body = append(body, byte(run.typ))
	}

	for _, in := range fb.Code {
		body = in.AppendTo(body)
	}
	body = append(body, byte(OpEnd))

	b = AppendUleb(b, uint64(len(body)))
	return append(b, body...)
}

// CodeSection holds the bodies of the defined functions.
type CodeSection struct {
	Bodies []FuncBody
}

func (*CodeSection) ID() SectionID { return SectionCode }

func (s *CodeSection) AppendPayload(b []byte) []byte {
	b = AppendUleb(b, uint64(len(s.Bodies)))
	for i := range s.Bodies {
		b = s.Bodies[i].appendBody(b)
	}

	return b
}

// DataSegment initializes a range of linear memory.
type DataSegment struct {
	Memory uint32
	Offset []Instruction
	Data   []byte
}

// DataSection declares memory initializers.
type DataSection struct {
	Segments []DataSegment
}

func (*DataSection) ID() SectionID { return SectionData }

func (s *DataSection) AppendPayload(b []byte) []byte {
	b = AppendUleb(b, uint64(len(s.Segments)))
	for _, seg := range s.Segments {
		b = AppendUleb(b, uint64(seg.Memory))
		b = appendInitExpr(b, seg.Offset)
		b = AppendUleb(b, uint64(len(seg.Data)))
		b = append(b, seg.Data...)
	}

	return b
}
