package generate

import (
	"fern/report"
	"fern/wasm"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// f64Compares maps the f64 comparison opcodes to ordered predicates.  `ne`
// is unordered so that it holds for NaN.
var f64Compares = map[wasm.Opcode]enum.FPred{
	wasm.OpF64Eq: enum.FPredOEQ,
	wasm.OpF64Ne: enum.FPredUNE,
	wasm.OpF64Lt: enum.FPredOLT,
	wasm.OpF64Gt: enum.FPredOGT,
	wasm.OpF64Le: enum.FPredOLE,
	wasm.OpF64Ge: enum.FPredOGE,
}

// f64Intrinsics maps the f64 opcodes lowered to LLVM intrinsics to the
// intrinsic's name and arity.
var f64Intrinsics = map[wasm.Opcode]struct {
	name  string
	arity int
}{
	wasm.OpF64Abs:      {"llvm.fabs.f64", 1},
	wasm.OpF64Ceil:     {"llvm.ceil.f64", 1},
	wasm.OpF64Floor:    {"llvm.floor.f64", 1},
	wasm.OpF64Trunc:    {"llvm.trunc.f64", 1},
	wasm.OpF64Nearest:  {"llvm.roundeven.f64", 1},
	wasm.OpF64Sqrt:     {"llvm.sqrt.f64", 1},
	wasm.OpF64Min:      {"llvm.minimum.f64", 2},
	wasm.OpF64Max:      {"llvm.maximum.f64", 2},
	wasm.OpF64Copysign: {"llvm.copysign.f64", 2},
}

// genInstr generates one instruction.
func (g *Generator) genInstr(in wasm.Instruction) {
	switch in.Op {
	case wasm.OpNop:
	case wasm.OpUnreachable:
		g.block.NewUnreachable()
		g.startDeadBlock()
	case wasm.OpBlock:
		g.genBlock(in.Args[0])
	case wasm.OpLoop:
		g.genLoop(in.Args[0])
	case wasm.OpIf:
		g.genIf(in.Args[0])
	case wasm.OpElse:
		g.genElse()
	case wasm.OpEnd:
		g.genEnd()
	case wasm.OpBr:
		g.genBr(indexArg(in))
	case wasm.OpBrIf:
		g.genBrIf(indexArg(in))
	case wasm.OpReturn:
		g.genReturn()
		g.startDeadBlock()
	case wasm.OpCall:
		g.genCall(indexArg(in))
	case wasm.OpDrop:
		g.pop(types.Double)
	case wasm.OpLocalGet:
		slot := g.local(indexArg(in))
		g.push(g.block.NewLoad(slot.typ, slot.ptr))
	case wasm.OpLocalSet:
		slot := g.local(indexArg(in))
		g.block.NewStore(g.pop(slot.typ), slot.ptr)
	case wasm.OpLocalTee:
		slot := g.local(indexArg(in))
		v := g.pop(slot.typ)
		g.block.NewStore(v, slot.ptr)
		g.push(v)
	case wasm.OpI32Const:
		g.push(constant.NewInt(types.I32, int64(intArg(in))))
	case wasm.OpF64Const:
		v, ok := in.Args[0].(float64)
		if !ok {
			report.ICE("`f64.const` expects a float64 immediate, got %T", in.Args[0])
		}
		g.push(constant.NewFloat(types.Double, v))
	case wasm.OpI32Eqz:
		x := g.pop(types.I32)
		g.pushBool(g.block.NewICmp(enum.IPredEQ, x, constant.NewInt(types.I32, 0)))
	case wasm.OpF64Neg:
		g.push(g.block.NewFNeg(g.pop(types.Double)))
	case wasm.OpF64Add, wasm.OpF64Sub, wasm.OpF64Mul, wasm.OpF64Div:
		y, x := g.pop(types.Double), g.pop(types.Double)
		g.push(g.genArith(in.Op, x, y))
	case wasm.OpF64ConvertI32S:
		g.push(g.block.NewSIToFP(g.pop(types.I32), types.Double))
	default:
		if pred, ok := f64Compares[in.Op]; ok {
			y, x := g.pop(types.Double), g.pop(types.Double)
			g.pushBool(g.block.NewFCmp(pred, x, y))
			return
		}

		if intr, ok := f64Intrinsics[in.Op]; ok {
			args := make([]value.Value, intr.arity)
			for i := intr.arity - 1; i >= 0; i-- {
				args[i] = g.pop(types.Double)
			}

			g.push(g.block.NewCall(g.intrinsic(intr.name, intr.arity), args...))
			return
		}

		report.ICE("`%s` has no native lowering", in.Op)
	}
}

// genArith generates a binary f64 arithmetic instruction.
func (g *Generator) genArith(op wasm.Opcode, x, y value.Value) value.Value {
	switch op {
	case wasm.OpF64Add:
		return g.block.NewFAdd(x, y)
	case wasm.OpF64Sub:
		return g.block.NewFSub(x, y)
	case wasm.OpF64Mul:
		return g.block.NewFMul(x, y)
	default:
		return g.block.NewFDiv(x, y)
	}
}

// genCall generates a call to the function at a function index.
func (g *Generator) genCall(ndx uint32) {
	if int(ndx) >= len(g.funcs) {
		report.ICE("call to undefined function %d", ndx)
	}

	callee := g.funcs[ndx]
	args := make([]value.Value, len(callee.Params))
	for i := len(args) - 1; i >= 0; i-- {
		args[i] = g.pop(callee.Params[i].Type())
	}

	call := g.block.NewCall(callee, args...)
	if !callee.Sig.RetType.Equal(types.Void) {
		g.push(call)
	}
}

// pushBool pushes an i1 as a wasm i32.
func (g *Generator) pushBool(b value.Value) {
	g.push(g.block.NewZExt(b, types.I32))
}

// local returns the slot of a local.
func (g *Generator) local(ndx uint32) localSlot {
	if int(ndx) >= len(g.locals) {
		report.ICE("reference to undefined local %d in `%s`", ndx, g.enclosingFunc.Name())
	}

	return g.locals[ndx]
}

// intrinsic declares an f64 LLVM intrinsic on first use.
func (g *Generator) intrinsic(name string, arity int) *ir.Func {
	if fn, ok := g.intrinsics[name]; ok {
		return fn
	}

	params := make([]*ir.Param, arity)
	for i := range params {
		params[i] = ir.NewParam("", types.Double)
	}

	fn := g.mod.NewFunc(name, types.Double, params...)
	g.intrinsics[name] = fn
	return fn
}

// -----------------------------------------------------------------------------

// indexArg returns the index immediate of an instruction.
func indexArg(in wasm.Instruction) uint32 {
	if len(in.Args) == 1 {
		switch v := in.Args[0].(type) {
		case uint32:
			return v
		case int:
			return uint32(v)
		}
	}

	report.ICE("`%s` expects an index immediate, got %v", in.Op, in.Args)
	return 0
}

// intArg returns the integer constant immediate of an instruction.
func intArg(in wasm.Instruction) int32 {
	if len(in.Args) == 1 {
		switch v := in.Args[0].(type) {
		case int32:
			return v
		case int:
			return int32(v)
		}
	}

	report.ICE("`%s` expects an integer immediate, got %v", in.Op, in.Args)
	return 0
}
