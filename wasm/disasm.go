package wasm

import (
	"fmt"
	"strings"
)

// Disassemble renders a module as readable text: its imports, exports and
// the instructions of every function body, indented by block nesting.
func Disassemble(m *Module) string {
	sb := &strings.Builder{}

	var types []FuncType
	if ts, ok := m.Section(SectionType).(*TypeSection); ok {
		types = ts.Types
	}

	sigOf := func(idx uint32) string {
		if int(idx) < len(types) {
			return types[idx].String()
		}

		return fmt.Sprintf("<type %d>", idx)
	}

	// Function names come from the imports and the exports.
	names := make(map[uint32]string)
	importCount := uint32(0)
	if is, ok := m.Section(SectionImport).(*ImportSection); ok {
		for _, imp := range is.Imports {
			if imp.Kind != ExternFunc {
				fmt.Fprintf(sb, "import %s %s.%s\n", imp.Kind, imp.Module, imp.Name)
				continue
			}

			fmt.Fprintf(sb, "import func[%d] %s.%s %s\n", importCount, imp.Module, imp.Name, sigOf(imp.TypeIndex))
			names[importCount] = imp.Module + "." + imp.Name
			importCount++
		}
	}

	if es, ok := m.Section(SectionExport).(*ExportSection); ok {
		for _, exp := range es.Exports {
			fmt.Fprintf(sb, "export %s[%d] %q\n", exp.Kind, exp.Index, exp.Name)
			if exp.Kind == ExternFunc {
				names[exp.Index] = exp.Name
			}
		}
	}

	if ms, ok := m.Section(SectionMemory).(*MemorySection); ok {
		for i, l := range ms.Memories {
			if l.HasMax {
				fmt.Fprintf(sb, "memory[%d] pages %d..%d\n", i, l.Min, l.Max)
			} else {
				fmt.Fprintf(sb, "memory[%d] pages %d..\n", i, l.Min)
			}
		}
	}

	if ss, ok := m.Section(SectionStart).(*StartSection); ok {
		fmt.Fprintf(sb, "start func[%d]\n", ss.Index)
	}

	fs, _ := m.Section(SectionFunction).(*FunctionSection)
	cs, _ := m.Section(SectionCode).(*CodeSection)
	if cs == nil {
		return sb.String()
	}

	for i, body := range cs.Bodies {
		idx := importCount + uint32(i)

		sig := ""
		if fs != nil && i < len(fs.TypeIndices) {
			sig = " " + sigOf(fs.TypeIndices[i])
		}

		fmt.Fprintf(sb, "\nfunc[%d]", idx)
		if name, ok := names[idx]; ok {
			fmt.Fprintf(sb, " %s", name)
		}
		sb.WriteString(sig)
		sb.WriteString("\n")

		if len(body.Locals) > 0 {
			locals := make([]string, len(body.Locals))
			for j, vt := range body.Locals {
				locals[j] = vt.String()
			}
			fmt.Fprintf(sb, "  locals: %s\n", strings.Join(locals, " "))
		}

		writeCode(sb, body.Code)
	}

	return sb.String()
}

// writeCode writes an instruction listing, one instruction per line.
func writeCode(sb *strings.Builder, code []Instruction) {
	depth := 1
	for _, in := range code {
		switch in.Op {
		case OpEnd:
			depth--
		case OpElse:
			depth--
		}

		if depth < 1 {
			depth = 1
		}

		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(in.String())
		sb.WriteString("\n")

		switch in.Op {
		case OpBlock, OpLoop, OpIf, OpElse:
			depth++
		}
	}
}

// Listing renders a bare instruction list the same way Disassemble renders a
// function body.
func Listing(code []Instruction) string {
	sb := &strings.Builder{}
	writeCode(sb, code)
	return sb.String()
}
