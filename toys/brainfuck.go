package toys

import (
	"fern/report"
	"fern/wasm"
)

// Brainfuck compiles a Brainfuck program.  The tape is one page of memory and
// the cell pointer lives in local 0.  `.` prints the current cell through
// `js.print_charcode` and `,` stores zero.  Characters other than the eight
// commands are ignored.
func Brainfuck(src string) (prog *wasm.Program, err error) {
	defer func() {
		if err != nil {
			prog = nil
		}
	}()
	defer report.CatchErrors(&err)

	bc := &bfCompiler{src: []rune(src), line: 1, col: 1}
	code, _ := bc.compileCommands(false)

	return &wasm.Program{
		Imports: []wasm.ImportedFunc{{
			Module: "js",
			Name:   "print_charcode",
			Type:   wasm.FuncType{Params: []wasm.ValType{wasm.I32}},
		}},
		Functions: []wasm.Function{{
			Name:   "$main",
			Locals: []wasm.ValType{wasm.I32},
			Code:   code,
		}},
		Memory:       &wasm.Limits{Min: 1, Max: 1, HasMax: true},
		MemoryExport: "memory",
		Start:        1,
		HasStart:     true,
	}, nil
}

// bfCompiler holds the read position in a Brainfuck program.
type bfCompiler struct {
	src       []rune
	ndx       int
	line, col int
}

// Instructions shared by several commands.
var (
	bfLoadCell = []wasm.Instruction{
		wasm.Instr(wasm.OpLocalGet, uint32(0)),
		wasm.Instr(wasm.OpI32Load8U, uint32(0), uint32(0)),
	}
	bfStoreCell = wasm.Instr(wasm.OpI32Store8, uint32(0), uint32(0))
)

// compileCommands compiles commands up to the end of the program or, inside a
// loop, the matching `]`.  It reports whether it stopped at a `]`.
func (bc *bfCompiler) compileCommands(inLoop bool) ([]wasm.Instruction, bool) {
	var code []wasm.Instruction

	for bc.ndx < len(bc.src) {
		c := bc.src[bc.ndx]
		pos := report.Pos{Line: bc.line, Col: bc.col}
		bc.advance()

		switch c {
		case '>':
			code = append(code, bc.movePointer(wasm.OpI32Add)...)
		case '<':
			code = append(code, bc.movePointer(wasm.OpI32Sub)...)
		case '+':
			code = append(code, bc.updateCell(wasm.OpI32Add)...)
		case '-':
			code = append(code, bc.updateCell(wasm.OpI32Sub)...)
		case '.':
			code = append(code, bfLoadCell...)
			code = append(code, wasm.Instr(wasm.OpCall, uint32(0)))
		case ',':
			code = append(code,
				wasm.Instr(wasm.OpLocalGet, uint32(0)),
				wasm.Instr(wasm.OpI32Const, int32(0)),
				bfStoreCell,
			)
		case '[':
			code = append(code, bc.compileLoop(pos)...)
		case ']':
			if !inLoop {
				panic(report.Raise(report.KindSyntax, pos, "unmatched `]`"))
			}

			return code, true
		}
	}

	return code, false
}

// compileLoop compiles the body of a loop whose `[` is at pos.  The loop is
// skipped if the cell is zero on entry and repeats while it is non-zero.
func (bc *bfCompiler) compileLoop(pos report.Pos) []wasm.Instruction {
	code := []wasm.Instruction{wasm.Instr(wasm.OpBlock, wasm.BlockEmpty)}
	code = append(code, bfLoadCell...)
	code = append(code,
		wasm.Instr(wasm.OpI32Eqz),
		wasm.Instr(wasm.OpBrIf, uint32(0)),
		wasm.Instr(wasm.OpLoop, wasm.BlockEmpty),
	)

	body, closed := bc.compileCommands(true)
	if !closed {
		panic(report.Raise(report.KindSyntax, pos, "unclosed `[`"))
	}

	code = append(code, body...)

	code = append(code, bfLoadCell...)
	return append(code,
		wasm.Instr(wasm.OpBrIf, uint32(0)),
		wasm.Instr(wasm.OpEnd),
		wasm.Instr(wasm.OpEnd),
	)
}

func (bc *bfCompiler) movePointer(op wasm.Opcode) []wasm.Instruction {
	return []wasm.Instruction{
		wasm.Instr(wasm.OpLocalGet, uint32(0)),
		wasm.Instr(wasm.OpI32Const, int32(1)),
		wasm.Instr(op),
		wasm.Instr(wasm.OpLocalSet, uint32(0)),
	}
}

func (bc *bfCompiler) updateCell(op wasm.Opcode) []wasm.Instruction {
	code := []wasm.Instruction{wasm.Instr(wasm.OpLocalGet, uint32(0))}
	code = append(code, bfLoadCell...)
	return append(code,
		wasm.Instr(wasm.OpI32Const, int32(1)),
		wasm.Instr(op),
		bfStoreCell,
	)
}

// advance moves past the current character.
func (bc *bfCompiler) advance() {
	if bc.src[bc.ndx] == '\n' {
		bc.line++
		bc.col = 1
	} else {
		bc.col++
	}

	bc.ndx++
}
