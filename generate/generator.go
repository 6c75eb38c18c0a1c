package generate

import (
	"fmt"

	"fern/report"
	"fern/wasm"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Generator converts an assembled program into an LLVM module.  Every wasm
// function becomes one LLVM function.  Locals are stack allocations and the
// operand stack is simulated during generation so that no value ever lives on
// a runtime stack.
type Generator struct {
	// prog is the program being converted.
	prog *wasm.Program

	// mod is the LLVM module being generated.
	mod *ir.Module

	// funcs holds the LLVM function of every function index.
	funcs []*ir.Func

	// intrinsics caches the declared LLVM intrinsics by name.
	intrinsics map[string]*ir.Func

	// enclosingFunc is the function being generated.
	enclosingFunc *ir.Func

	// results are the result types of the enclosing function.
	results []wasm.ValType

	// block is the block instructions are appended to.
	block *ir.Block

	// dead is true while generating code no branch can reach.
	dead bool

	// locals holds the allocation of each local slot.
	locals []localSlot

	// stack is the simulated operand stack.
	stack []value.Value

	// frames is the stack of open control frames.
	frames []*controlFrame
}

// localSlot is the storage of one local.
type localSlot struct {
	ptr value.Value
	typ types.Type
}

// Prefix is prepended to the names of the program's functions.  The LLVM
// `main` function is reserved for the entry point that calls the start
// function.
const Prefix = "fern."

// Generate converts a program into an LLVM module.  Instructions with no
// native lowering are assembler errors.
func Generate(prog *wasm.Program) (mod *ir.Module, err error) {
	defer func() {
		if err != nil {
			mod = nil
		}
	}()
	defer report.CatchErrors(&err)

	g := &Generator{
		prog:       prog,
		mod:        ir.NewModule(),
		intrinsics: make(map[string]*ir.Func),
	}

	g.declareFuncs()

	for i, fn := range prog.Functions {
		g.genFunc(g.funcs[len(prog.Imports)+i], fn)
	}

	if prog.HasStart {
		g.genEntry()
	}

	return g.mod, nil
}

// declareFuncs declares every import and defines an empty function for every
// definition so that calls can be generated in any order.
func (g *Generator) declareFuncs() {
	for _, imp := range g.prog.Imports {
		fn := g.mod.NewFunc(imp.Module+"."+imp.Name, convResults(imp.Type.Results), convParams(imp.Type.Params)...)
		fn.Linkage = enum.LinkageExternal
		g.funcs = append(g.funcs, fn)
	}

	for i, def := range g.prog.Functions {
		name := fmt.Sprintf("%s%d.%s", Prefix, len(g.prog.Imports)+i, def.Name)
		if def.Export {
			name = Prefix + def.Name
		}

		fn := g.mod.NewFunc(name, convResults(def.Type.Results), convParams(def.Type.Params)...)
		if !def.Export {
			fn.Linkage = enum.LinkageInternal
		}

		g.funcs = append(g.funcs, fn)
	}
}

// genEntry generates the C entry point: it runs the start function and
// returns zero.
func (g *Generator) genEntry() {
	entry := g.mod.NewFunc("main", types.I32)
	block := entry.NewBlock("entry")
	block.NewCall(g.funcs[g.prog.Start])
	block.NewRet(constant.NewInt(types.I32, 0))
}

// genFunc generates the body of a function.
func (g *Generator) genFunc(llFunc *ir.Func, fn wasm.Function) {
	g.enclosingFunc = llFunc
	g.results = fn.Type.Results
	g.stack = nil
	g.frames = nil
	g.locals = nil
	g.dead = false

	g.block = llFunc.NewBlock("entry")

	// parameters are copied into locals so that they can be assigned
	for _, param := range llFunc.Params {
		ptr := g.block.NewAlloca(param.Type())
		g.block.NewStore(param, ptr)
		g.locals = append(g.locals, localSlot{ptr: ptr, typ: param.Type()})
	}

	for _, vt := range fn.Locals {
		typ := convType(vt)
		ptr := g.block.NewAlloca(typ)
		g.block.NewStore(zeroValue(typ), ptr)
		g.locals = append(g.locals, localSlot{ptr: ptr, typ: typ})
	}

	for _, in := range fn.Code {
		g.genInstr(in)
	}

	if len(g.frames) != 0 {
		report.ICE("%d control frames left open in `%s`", len(g.frames), fn.Name)
	}

	// falling off the end of a function returns the values on the stack
	g.genReturn()
}

// appendBlock appends a new block to the enclosing function.
func (g *Generator) appendBlock() *ir.Block {
	return g.enclosingFunc.NewBlock("")
}

// -----------------------------------------------------------------------------

// push pushes a value onto the simulated stack.
func (g *Generator) push(v value.Value) {
	g.stack = append(g.stack, v)
}

// pop pops a value of the given type off the simulated stack.  Unreachable
// code may pop values that were never pushed.
func (g *Generator) pop(typ types.Type) value.Value {
	floor := 0
	if len(g.frames) > 0 {
		floor = g.frames[len(g.frames)-1].height
	}

	if len(g.stack) <= floor {
		if g.dead {
			return constant.NewUndef(typ)
		}

		report.ICE("operand stack underflow in `%s`", g.enclosingFunc.Name())
	}

	v := g.stack[len(g.stack)-1]
	g.stack = g.stack[:len(g.stack)-1]
	return v
}

// startDeadBlock continues generation in a block no branch reaches.  Used
// after unconditional transfers of control.
func (g *Generator) startDeadBlock() {
	g.block = g.appendBlock()
	g.dead = true
}

// -----------------------------------------------------------------------------

// convType converts a wasm value type to an LLVM type.
func convType(vt wasm.ValType) types.Type {
	switch vt {
	case wasm.I32:
		return types.I32
	case wasm.I64:
		return types.I64
	case wasm.F32:
		return types.Float
	case wasm.F64:
		return types.Double
	}

	report.ICE("no LLVM type for value type 0x%02x", byte(vt))
	return nil
}

func convParams(vts []wasm.ValType) []*ir.Param {
	params := make([]*ir.Param, len(vts))
	for i, vt := range vts {
		params[i] = ir.NewParam(fmt.Sprintf("p%d", i), convType(vt))
	}

	return params
}

func convResults(vts []wasm.ValType) types.Type {
	switch len(vts) {
	case 0:
		return types.Void
	case 1:
		return convType(vts[0])
	}

	report.ICE("functions with multiple results are not supported")
	return nil
}

// zeroValue returns the zero constant of a scalar type.
func zeroValue(typ types.Type) constant.Constant {
	if ft, ok := typ.(*types.FloatType); ok {
		return constant.NewFloat(ft, 0)
	}

	return constant.NewInt(typ.(*types.IntType), 0)
}
