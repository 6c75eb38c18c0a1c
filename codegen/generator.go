package codegen

import (
	"fern/ast"
	"fern/report"
	"fern/walk"
	"fern/wasm"
)

// Options controls code generation.
type Options struct {
	// Inline enables inlining of small functions.
	Inline bool

	// InlineThreshold is the weight at which functions stop being inlined.
	InlineThreshold int
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{Inline: true, InlineThreshold: walk.DefaultInlineThreshold}
}

// valueType is the type of the value an expression leaves on the stack.
type valueType int

const (
	noValue valueType = iota
	f64Value
	i32Value
)

// Generator generates the instructions of one function.
type Generator struct {
	// The context of the function being generated.
	ctx *walk.Context

	tree *ast.Tree

	// The instructions generated so far.
	code []wasm.Instruction
}

// Generate runs the inliner, if enabled, over every context under top and
// then generates the instructions of each context into its Instructions.
func Generate(top *walk.Context, opts Options) (err error) {
	defer report.CatchErrors(&err)

	all := top.All()

	if opts.Inline {
		threshold := opts.InlineThreshold
		if threshold <= 0 {
			threshold = walk.DefaultInlineThreshold
		}

		walk.NewInliner(walk.BuildCallGraph(top), threshold).Run(top)
	}

	for _, c := range all {
		g := &Generator{ctx: c, tree: c.Tree}
		g.generateFunction()
	}

	return nil
}

// generateFunction generates the body of the generator's context.
func (g *Generator) generateFunction() {
	stmts := g.tree.At(g.ctx.Body).Children
	for _, stmt := range stmts {
		g.generateExpr(stmt, false)
	}

	// A function with a result may still reach its end through a path that does
	// not return.
	if g.ctx.HasResult && (len(stmts) == 0 || g.tree.Kind(stmts[len(stmts)-1]) != ast.Return) {
		g.emit(wasm.OpUnreachable)
	}

	if n := g.ctx.OpenScopes(); n != 0 {
		report.ICE("%d control scopes left open in %s", n, g.ctx.Name)
	}

	g.ctx.Instructions = g.code
}

// -----------------------------------------------------------------------------

// generateExpr generates any node.  If consumed is true the node must leave
// exactly one value on the stack and its type is returned; otherwise the node
// leaves the stack as it found it and noValue is returned.
func (g *Generator) generateExpr(id ast.NodeID, consumed bool) valueType {
	n := g.tree.At(id)

	var vt valueType
	switch n.Kind {
	case ast.Assign:
		g.requireStatement(id, consumed, "an assignment")
		g.generateAssign(id)
		return noValue
	case ast.Loop:
		g.requireStatement(id, consumed, "a loop")
		g.generateLoop(id)
		return noValue
	case ast.Break, ast.Continue:
		g.requireStatement(id, consumed, "`"+n.Kind.String()+"`")
		g.generateBranch(id)
		return noValue
	case ast.Return:
		g.requireStatement(id, consumed, "`return`")
		g.generateReturn(id)
		return noValue
	case ast.If:
		return g.generateIf(id, consumed)
	case ast.Ident:
		g.emit(wasm.OpLocalGet, g.slotOf(id))
		vt = f64Value
	case ast.Literal:
		vt = g.generateLiteral(id)
	case ast.Group:
		return g.generateExpr(n.Children[0], consumed)
	case ast.Call:
		vt = g.generateCall(id, consumed)
	case ast.Inline:
		return g.generateBlock(n.Children[0], consumed)
	case ast.Index:
		g.errorOn(id, "indexing is not supported")
	case ast.Block:
		return g.generateBlock(id, consumed)
	case ast.Func:
		report.ICE("function definition left in the body of %s", g.ctx.Name)
	default:
		report.ICE("code generation for %s nodes is not implemented", n.Kind)
	}

	if consumed {
		if vt == noValue {
			report.ICE("%s node produced no value", g.tree.Kind(id))
		}

		return vt
	}

	if vt != noValue {
		g.emit(wasm.OpDrop)
	}

	return noValue
}

// requireStatement raises an error if a statement is used as a value.
func (g *Generator) requireStatement(id ast.NodeID, consumed bool, what string) {
	if consumed {
		g.errorOn(id, "%s does not produce a value", what)
	}
}

// generateF64 generates an expression whose value must be an f64.
func (g *Generator) generateF64(id ast.NodeID) {
	g.toF64(g.generateExpr(id, true))
}

// toF64 converts the value on top of the stack to an f64.
func (g *Generator) toF64(vt valueType) {
	if vt == i32Value {
		g.emit(wasm.OpF64ConvertI32S)
	}
}

// generateCond generates an expression used as a condition: the result is an
// i32 that is non-zero for true.
func (g *Generator) generateCond(id ast.NodeID) {
	if g.generateExpr(id, true) == f64Value {
		g.emit(wasm.OpF64Const, 0.0)
		g.emit(wasm.OpF64Ne)
	}
}

// generateBlock generates the statements of a block.  If consumed is true,
// the last statement must be an expression and provides the block's value.
func (g *Generator) generateBlock(id ast.NodeID, consumed bool) valueType {
	stmts := g.tree.At(id).Children
	if consumed && len(stmts) == 0 {
		report.ICE("empty block used as a value")
	}

	for i, stmt := range stmts {
		if consumed && i == len(stmts)-1 {
			return g.generateExpr(stmt, true)
		}

		g.generateExpr(stmt, false)
	}

	return noValue
}

// -----------------------------------------------------------------------------

// generateAssign generates an assignment to a local.
func (g *Generator) generateAssign(id ast.NodeID) {
	target, value := g.tree.Child(id, 0), g.tree.Child(id, 1)
	if g.tree.Kind(target) != ast.Ident {
		g.errorOn(target, "indexing is not supported")
	}

	slot := g.slotOf(target)
	g.generateF64(value)
	g.emit(wasm.OpLocalSet, slot)
}

// generateIf generates a conditional.  A conditional used as a value must
// have both branches, each ending in an expression.
func (g *Generator) generateIf(id ast.NodeID, consumed bool) valueType {
	children := g.tree.At(id).Children
	test, then := children[0], children[1]
	els := ast.NoNode
	if len(children) > 2 {
		els = children[2]
	}

	if consumed && (!g.endsInExpr(then) || els == ast.NoNode || !g.endsInExpr(els)) {
		g.errorOn(id, "a value-producing conditional needs a non-empty alternative")
	}

	g.generateCond(test)

	g.ctx.PushScope(walk.ScopeIf)
	defer g.ctx.PopScope(walk.ScopeIf)

	if consumed {
		g.emit(wasm.OpIf, wasm.F64)
		g.toF64(g.generateBlock(then, true))
		g.emit(wasm.OpElse)
		g.toF64(g.generateBlock(els, true))
		g.emit(wasm.OpEnd)
		return f64Value
	}

	g.emit(wasm.OpIf, wasm.BlockEmpty)
	g.generateBlock(then, false)
	if els != ast.NoNode {
		g.emit(wasm.OpElse)
		g.generateBlock(els, false)
	}
	g.emit(wasm.OpEnd)
	return noValue
}

// endsInExpr reports whether a block is non-empty and ends in an expression.
func (g *Generator) endsInExpr(block ast.NodeID) bool {
	stmts := g.tree.At(block).Children
	return len(stmts) > 0 && g.tree.Kind(stmts[len(stmts)-1]).IsExpr()
}

// generateLoop generates a loop.  The outer block is the target of `break`
// and the inner loop is the target of `continue` and of the back edge.
func (g *Generator) generateLoop(id ast.NodeID) {
	children := g.tree.At(id).Children

	g.emit(wasm.OpBlock, wasm.BlockEmpty)
	g.emit(wasm.OpLoop, wasm.BlockEmpty)
	g.ctx.PushScope(walk.ScopeLoop)

	body := children[0]
	if len(children) == 2 {
		g.generateCond(children[0])
		g.emit(wasm.OpI32Eqz)
		g.emit(wasm.OpBrIf, uint32(1))
		body = children[1]
	}

	g.generateBlock(body, false)
	g.emit(wasm.OpBr, uint32(0))

	g.ctx.PopScope(walk.ScopeLoop)
	g.emit(wasm.OpEnd)
	g.emit(wasm.OpEnd)
}

// generateBranch generates `break` or `continue`.
func (g *Generator) generateBranch(id ast.NodeID) {
	kind := g.tree.Kind(id)

	depth, ok := g.ctx.LoopDepth()
	if !ok {
		g.errorOn(id, "`%s` outside of a loop", kind)
	}

	if kind == ast.Break {
		depth++
	}

	g.emit(wasm.OpBr, uint32(depth))
}

// generateReturn generates a return statement.
func (g *Generator) generateReturn(id ast.NodeID) {
	if g.ctx.Func == ast.NoNode {
		g.errorOn(id, "`return` outside of a function")
	}

	g.generateF64(g.tree.Child(id, 0))
	g.emit(wasm.OpReturn)
}

// -----------------------------------------------------------------------------

// slotOf returns the slot of the local named by an identifier node.
func (g *Generator) slotOf(id ast.NodeID) uint32 {
	name := g.tree.At(id).Value
	slot, ok := g.ctx.Slot(name)
	if !ok {
		g.errorOn(id, "unresolved identifier `%s`", name)
	}

	return slot
}

// emit appends an instruction.
func (g *Generator) emit(op wasm.Opcode, args ...interface{}) {
	g.code = append(g.code, wasm.Instr(op, args...))
}

// errorOn raises a semantic error positioned at a node.
func (g *Generator) errorOn(id ast.NodeID, msg string, args ...interface{}) {
	panic(report.Raise(report.KindSemantic, g.tree.At(id).Pos, msg, args...))
}
