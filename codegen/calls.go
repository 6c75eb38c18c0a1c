package codegen

import (
	"strconv"
	"strings"

	"fern/ast"
	"fern/walk"
	"fern/wasm"
)

// builtinOps maps the builtins that lower to a single opcode after their
// operands to that opcode.
var builtinOps = map[string]wasm.Opcode{
	"add":     wasm.OpF64Add,
	"sub":     wasm.OpF64Sub,
	"mul":     wasm.OpF64Mul,
	"div":     wasm.OpF64Div,
	"min":     wasm.OpF64Min,
	"max":     wasm.OpF64Max,
	"neg":     wasm.OpF64Neg,
	"abs":     wasm.OpF64Abs,
	"sqrt":    wasm.OpF64Sqrt,
	"floor":   wasm.OpF64Floor,
	"ceil":    wasm.OpF64Ceil,
	"trunc":   wasm.OpF64Trunc,
	"nearest": wasm.OpF64Nearest,
	"eq":      wasm.OpF64Eq,
	"ne":      wasm.OpF64Ne,
	"lt":      wasm.OpF64Lt,
	"gt":      wasm.OpF64Gt,
	"le":      wasm.OpF64Le,
	"ge":      wasm.OpF64Ge,
}

// rawInstruction is an opcode a program may call directly.  Its arguments
// are its stack operands.
type rawInstruction struct {
	op     wasm.Opcode
	arity  int
	result valueType
}

// wasmInstructionPrefix is the prefix of the raw instructions programs may
// call.
const wasmInstructionPrefix = walk.InstructionPrefix + "wasm."

// rawInstructions are the f64 instructions that take no immediates.
var rawInstructions = map[string]rawInstruction{
	"f64.abs":      {wasm.OpF64Abs, 1, f64Value},
	"f64.neg":      {wasm.OpF64Neg, 1, f64Value},
	"f64.ceil":     {wasm.OpF64Ceil, 1, f64Value},
	"f64.floor":    {wasm.OpF64Floor, 1, f64Value},
	"f64.trunc":    {wasm.OpF64Trunc, 1, f64Value},
	"f64.nearest":  {wasm.OpF64Nearest, 1, f64Value},
	"f64.sqrt":     {wasm.OpF64Sqrt, 1, f64Value},
	"f64.add":      {wasm.OpF64Add, 2, f64Value},
	"f64.sub":      {wasm.OpF64Sub, 2, f64Value},
	"f64.mul":      {wasm.OpF64Mul, 2, f64Value},
	"f64.div":      {wasm.OpF64Div, 2, f64Value},
	"f64.min":      {wasm.OpF64Min, 2, f64Value},
	"f64.max":      {wasm.OpF64Max, 2, f64Value},
	"f64.copysign": {wasm.OpF64Copysign, 2, f64Value},
	"f64.eq":       {wasm.OpF64Eq, 2, i32Value},
	"f64.ne":       {wasm.OpF64Ne, 2, i32Value},
	"f64.lt":       {wasm.OpF64Lt, 2, i32Value},
	"f64.gt":       {wasm.OpF64Gt, 2, i32Value},
	"f64.le":       {wasm.OpF64Le, 2, i32Value},
	"f64.ge":       {wasm.OpF64Ge, 2, i32Value},
}

// Names of the scratch locals used to lower `mod`.
const (
	modDividend = "$mod.a"
	modDivisor  = "$mod.b"
)

// generateCall generates a call to a builtin, a raw instruction, a host
// function or a user function.
func (g *Generator) generateCall(id ast.NodeID, consumed bool) valueType {
	children := g.tree.At(id).Children
	callee, args := children[0], children[1:]
	name := g.tree.At(callee).Value

	if strings.HasPrefix(name, walk.InstructionPrefix) {
		return g.generateRawInstruction(id, name, args)
	}

	if b, ok := walk.Builtins[name]; ok {
		g.checkBuiltinArity(id, name, b, len(args))
		return g.generateBuiltin(name, args)
	}

	if ndx, ok := walk.LookupHost(name); ok {
		ft := walk.HostFuncs[ndx].Type
		return g.generateFuncCall(id, name, ndx, len(ft.Params), len(ft.Results) > 0, args, consumed)
	}

	target := g.ctx.Lookup(name)
	if target == nil {
		g.errorOn(callee, "unresolved function `%s`", name)
	}

	return g.generateFuncCall(id, name, target.Index, len(target.Params), target.HasResult, args, consumed)
}

// generateFuncCall generates a call instruction to the function at ndx.
func (g *Generator) generateFuncCall(
	id ast.NodeID,
	name string,
	ndx uint32,
	arity int,
	hasResult bool,
	args []ast.NodeID,
	consumed bool,
) valueType {
	if len(args) != arity {
		g.errorOn(id, "function `%s` expects %d arguments, got %d", name, arity, len(args))
	}

	if consumed && !hasResult {
		g.errorOn(id, "`%s` does not return a value", name)
	}

	for _, arg := range args {
		g.generateF64(arg)
	}

	g.emit(wasm.OpCall, ndx)

	if hasResult {
		return f64Value
	}

	return noValue
}

func (g *Generator) checkBuiltinArity(id ast.NodeID, name string, b walk.Builtin, n int) {
	if b.MaxArgs < 0 {
		if n < b.MinArgs {
			g.errorOn(id, "`%s` expects at least %d arguments, got %d", name, b.MinArgs, n)
		}
	} else if n < b.MinArgs || n > b.MaxArgs {
		g.errorOn(id, "`%s` expects %d arguments, got %d", name, b.MinArgs, n)
	}
}

// generateBuiltin lowers a builtin.  The folding builtins combine their
// arguments left to right.
func (g *Generator) generateBuiltin(name string, args []ast.NodeID) valueType {
	if name == "mod" {
		g.generateMod(args[0], args[1])
		return f64Value
	}

	op := builtinOps[name]

	g.generateF64(args[0])
	if len(args) == 1 {
		g.emit(op)
		return f64Value
	}

	for _, arg := range args[1:] {
		g.generateF64(arg)
		g.emit(op)
	}

	switch name {
	case "eq", "ne", "lt", "gt", "le", "ge":
		return i32Value
	}

	return f64Value
}

// generateMod lowers `a mod b` to `a - floor(a / b) * b`.  Both operands are
// evaluated before the scratch locals are written so nested uses cannot
// clobber them.
func (g *Generator) generateMod(a, b ast.NodeID) {
	g.generateF64(a)
	g.generateF64(b)

	dividend := g.ctx.Declare(modDividend)
	divisor := g.ctx.Declare(modDivisor)

	g.emit(wasm.OpLocalSet, divisor)
	g.emit(wasm.OpLocalTee, dividend)
	g.emit(wasm.OpLocalGet, dividend)
	g.emit(wasm.OpLocalGet, divisor)
	g.emit(wasm.OpF64Div)
	g.emit(wasm.OpF64Floor)
	g.emit(wasm.OpLocalGet, divisor)
	g.emit(wasm.OpF64Mul)
	g.emit(wasm.OpF64Sub)
}

// generateRawInstruction generates a direct use of a wasm instruction.
func (g *Generator) generateRawInstruction(id ast.NodeID, name string, args []ast.NodeID) valueType {
	if !strings.HasPrefix(name, wasmInstructionPrefix) {
		g.errorOn(id, "unknown instruction `%s`", name)
	}

	ri, ok := rawInstructions[strings.TrimPrefix(name, wasmInstructionPrefix)]
	if !ok {
		g.errorOn(id, "instruction `%s` cannot be used directly", name)
	}

	if len(args) != ri.arity {
		g.errorOn(id, "instruction `%s` takes %d operands, got %d", name, ri.arity, len(args))
	}

	for _, arg := range args {
		g.generateF64(arg)
	}

	g.emit(ri.op)
	return ri.result
}

// -----------------------------------------------------------------------------

// generateLiteral generates a constant.
func (g *Generator) generateLiteral(id ast.NodeID) valueType {
	text := g.tree.At(id).Value

	switch {
	case text == "true":
		g.emit(wasm.OpI32Const, int32(1))
		return i32Value
	case text == "false":
		g.emit(wasm.OpI32Const, int32(0))
		return i32Value
	case strings.HasPrefix(text, "\"") || strings.HasPrefix(text, "'"):
		g.errorOn(id, "strings are not supported")
	}

	var (
		value float64
		err   error
	)
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		var n uint64
		n, err = strconv.ParseUint(text, 0, 64)
		value = float64(n)
	} else {
		value, err = strconv.ParseFloat(text, 64)
	}

	if err != nil {
		g.errorOn(id, "malformed number `%s`", text)
	}

	g.emit(wasm.OpF64Const, value)
	return f64Value
}
