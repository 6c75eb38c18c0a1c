package wasm

// ImportedFunc is a host function imported by a program.
type ImportedFunc struct {
	Module, Name string
	Type         FuncType
}

// Function is a function defined by a program.
type Function struct {
	// Name is used for exports and diagnostics.
	Name string

	Type   FuncType
	Locals []ValType
	Code   []Instruction

	// Export indicates that the function is exported under its name.
	Export bool
}

// Program is the assembler's input: imports, function definitions and an
// optional memory.  Function indices number the imports first and then the
// definitions in order.
type Program struct {
	Imports   []ImportedFunc
	Functions []Function

	// Memory declares a single linear memory when non-nil.
	Memory *Limits

	// MemoryExport exports the memory under this name when non-empty.
	MemoryExport string

	Data []DataSegment

	// Start is the function index of the start function.
	Start    uint32
	HasStart bool
}

// FuncIndex returns the function index of the named import or definition.
func (p *Program) FuncIndex(name string) (uint32, bool) {
	for i, imp := range p.Imports {
		if imp.Name == name {
			return uint32(i), true
		}
	}

	for i, fn := range p.Functions {
		if fn.Name == name {
			return uint32(len(p.Imports) + i), true
		}
	}

	return 0, false
}

// typeTable de-duplicates signatures in order of first appearance.
type typeTable struct {
	types   []FuncType
	indices map[string]uint32
}

func (tt *typeTable) index(ft FuncType) uint32 {
	key := ft.String()
	if idx, ok := tt.indices[key]; ok {
		return idx
	}

	idx := uint32(len(tt.types))
	tt.types = append(tt.types, ft)
	tt.indices[key] = idx
	return idx
}

// Module lowers the program into its sections.
func (p *Program) Module() *Module {
	tt := &typeTable{indices: make(map[string]uint32)}

	var imports *ImportSection
	if len(p.Imports) > 0 {
		imports = &ImportSection{}
		for _, imp := range p.Imports {
			imports.Imports = append(imports.Imports, Import{
				Module:    imp.Module,
				Name:      imp.Name,
				Kind:      ExternFunc,
				TypeIndex: tt.index(imp.Type),
			})
		}
	}

	var funcs *FunctionSection
	var code *CodeSection
	var exports []Export
	if len(p.Functions) > 0 {
		funcs = &FunctionSection{}
		code = &CodeSection{}

		for i, fn := range p.Functions {
			funcs.TypeIndices = append(funcs.TypeIndices, tt.index(fn.Type))
			code.Bodies = append(code.Bodies, FuncBody{Locals: fn.Locals, Code: fn.Code})

			if fn.Export {
				exports = append(exports, Export{
					Name:  fn.Name,
					Kind:  ExternFunc,
					Index: uint32(len(p.Imports) + i),
				})
			}
		}
	}

	var memory *MemorySection
	if p.Memory != nil {
		memory = &MemorySection{Memories: []Limits{*p.Memory}}

		if p.MemoryExport != "" {
			exports = append(exports, Export{Name: p.MemoryExport, Kind: ExternMemory})
		}
	}

	var types *TypeSection
	if len(tt.types) > 0 {
		types = &TypeSection{Types: tt.types}
	}

	var exportSec *ExportSection
	if len(exports) > 0 {
		exportSec = &ExportSection{Exports: exports}
	}

	var start *StartSection
	if p.HasStart {
		start = &StartSection{Index: p.Start}
	}

	var data *DataSection
	if len(p.Data) > 0 {
		data = &DataSection{Segments: p.Data}
	}

	return NewModule(types, imports, funcs, memory, exportSec, start, code, data)
}

// Encode assembles the program into module bytes.
func (p *Program) Encode() ([]byte, error) {
	return p.Module().Encode()
}
