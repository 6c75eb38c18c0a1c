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

// frameKind is the kind of structured instruction that opened a frame.
type frameKind int

const (
	frameBlock frameKind = iota
	frameLoop
	frameIf
)

// controlFrame is an open block, loop or if.
type controlFrame struct {
	kind frameKind

	// header is the branch target of a loop.
	header *ir.Block

	// end is the block control reaches after the frame.  It is the branch
	// target of blocks and ifs.
	end *ir.Block

	// elseBlock is the false branch of an if until its `else` is seen.
	elseBlock *ir.Block

	// result holds the value the frame yields, if any.  Every edge into end
	// stores to it first.
	result *localSlot

	// height is the stack height when the frame was opened.
	height int

	// dead is the reachability of the code that opened the frame.
	dead bool
}

// pushFrame opens a control frame.  bt is the block type immediate.
func (g *Generator) pushFrame(kind frameKind, bt interface{}) *controlFrame {
	f := &controlFrame{
		kind:   kind,
		end:    g.appendBlock(),
		height: len(g.stack),
		dead:   g.dead,
	}

	var vt wasm.ValType
	switch v := bt.(type) {
	case wasm.ValType:
		vt = v
	case wasm.BlockType:
		if v != wasm.BlockEmpty {
			vt = wasm.ValType(v)
		}
	default:
		report.ICE("unsupported block type %v", bt)
	}

	if vt != 0 {
		typ := convType(vt)
		f.result = &localSlot{ptr: g.enclosingFunc.Blocks[0].NewAlloca(typ), typ: typ}
	}

	g.frames = append(g.frames, f)
	return f
}

// genBlock opens a block.
func (g *Generator) genBlock(bt interface{}) {
	g.pushFrame(frameBlock, bt)
}

// genLoop opens a loop.  The loop header gets its own basic block so that
// branches can target it.
func (g *Generator) genLoop(bt interface{}) {
	f := g.pushFrame(frameLoop, bt)
	f.header = g.appendBlock()

	g.block.NewBr(f.header)
	g.block = f.header
}

// genIf opens an if.  The condition is the i32 on top of the stack.
func (g *Generator) genIf(bt interface{}) {
	cond := g.truthy(g.pop(types.I32))

	f := g.pushFrame(frameIf, bt)
	thenBlock := g.appendBlock()
	f.elseBlock = g.appendBlock()

	g.block.NewCondBr(cond, thenBlock, f.elseBlock)
	g.block = thenBlock
}

// genElse ends the true branch of the innermost if.
func (g *Generator) genElse() {
	f := g.topFrame()
	if f.kind != frameIf || f.elseBlock == nil {
		report.ICE("`else` without a matching `if`")
	}

	g.exitTo(f)

	g.stack = g.stack[:f.height]
	g.block = f.elseBlock
	g.dead = f.dead
	f.elseBlock = nil
}

// genEnd closes the innermost frame.  An if without an else falls through to
// its end on the false branch.
func (g *Generator) genEnd() {
	f := g.topFrame()
	g.exitTo(f)

	if f.elseBlock != nil {
		f.elseBlock.NewBr(f.end)
	}

	g.frames = g.frames[:len(g.frames)-1]
	g.stack = g.stack[:f.height]
	g.block = f.end
	g.dead = f.dead

	if f.result != nil {
		g.push(g.block.NewLoad(f.result.typ, f.result.ptr))
	}
}

// exitTo falls through from the current block to the end of f.
func (g *Generator) exitTo(f *controlFrame) {
	if g.block.Term != nil {
		return
	}

	if f.result != nil {
		g.block.NewStore(g.pop(f.result.typ), f.result.ptr)
	}

	g.block.NewBr(f.end)
}

// branchTarget returns the block a branch to the given label depth jumps to.
// If the target frame yields a value, the value on top of the stack is stored
// first without being popped.
func (g *Generator) branchTarget(depth uint32) *ir.Block {
	if int(depth) >= len(g.frames) {
		report.ICE("branch to label %d with only %d frames open", depth, len(g.frames))
	}

	f := g.frames[len(g.frames)-1-int(depth)]
	if f.kind == frameLoop {
		return f.header
	}

	if f.result != nil {
		v := g.pop(f.result.typ)
		g.push(v)
		g.block.NewStore(v, f.result.ptr)
	}

	return f.end
}

// genBr generates an unconditional branch.
func (g *Generator) genBr(depth uint32) {
	g.block.NewBr(g.branchTarget(depth))
	g.startDeadBlock()
}

// genBrIf generates a conditional branch.  The condition is the i32 on top of
// the stack.
func (g *Generator) genBrIf(depth uint32) {
	cond := g.truthy(g.pop(types.I32))
	target := g.branchTarget(depth)

	cont := g.appendBlock()
	g.block.NewCondBr(cond, target, cont)
	g.block = cont
}

// genReturn returns the values on top of the stack from the enclosing
// function.
func (g *Generator) genReturn() {
	if g.block.Term != nil {
		return
	}

	if len(g.results) == 0 {
		g.block.NewRet(nil)
		return
	}

	g.block.NewRet(g.pop(convType(g.results[0])))
}

func (g *Generator) topFrame() *controlFrame {
	if len(g.frames) == 0 {
		report.ICE("no open control frame in `%s`", g.enclosingFunc.Name())
	}

	return g.frames[len(g.frames)-1]
}

// truthy converts an i32 to an i1 that is true when the i32 is non-zero.
func (g *Generator) truthy(v value.Value) value.Value {
	return g.block.NewICmp(enum.IPredNE, v, constant.NewInt(types.I32, 0))
}
