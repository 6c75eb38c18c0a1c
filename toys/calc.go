package toys

import (
	"strconv"
	"strings"

	"fern/report"
	"fern/wasm"
)

// calcOps maps the calculator's operators to their opcodes.
var calcOps = map[byte]wasm.Opcode{
	'+': wasm.OpF64Add,
	'-': wasm.OpF64Sub,
	'*': wasm.OpF64Mul,
	'/': wasm.OpF64Div,
}

// Calc compiles a calculator program.  Every line is an operator followed by
// a number and applies to an accumulator that starts at zero.  `#` starts a
// comment.  The exported function `main` prints the result and returns it.
func Calc(text string) (prog *wasm.Program, err error) {
	defer func() {
		if err != nil {
			prog = nil
		}
	}()
	defer report.CatchErrors(&err)

	code := []wasm.Instruction{wasm.Instr(wasm.OpF64Const, 0.0)}
	for i, line := range strings.Split(text, "\n") {
		pos := report.Pos{Line: i + 1, Col: 1}

		if ndx := strings.IndexByte(line, '#'); ndx >= 0 {
			line = line[:ndx]
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		op, ok := calcOps[line[0]]
		if !ok {
			panic(report.Raise(report.KindSyntax, pos, "each line must start with an operator, got `%c`", line[0]))
		}

		operand := strings.TrimSpace(line[1:])
		v, err := strconv.ParseFloat(operand, 64)
		if err != nil {
			panic(report.Raise(report.KindSyntax, pos, "each line must end with a number, got `%s`", operand))
		}

		code = append(code, wasm.Instr(wasm.OpF64Const, v), wasm.Instr(op))
	}

	code = append(code,
		wasm.Instr(wasm.OpLocalTee, uint32(0)),
		wasm.Instr(wasm.OpCall, uint32(0)),
		wasm.Instr(wasm.OpLocalGet, uint32(0)),
	)

	return &wasm.Program{
		Imports: []wasm.ImportedFunc{{
			Module: "js",
			Name:   "print_ln",
			Type:   wasm.FuncType{Params: []wasm.ValType{wasm.F64}},
		}},
		Functions: []wasm.Function{{
			Name:   "main",
			Type:   wasm.FuncType{Results: []wasm.ValType{wasm.F64}},
			Locals: []wasm.ValType{wasm.F64},
			Code:   code,
			Export: true,
		}},
	}, nil
}
