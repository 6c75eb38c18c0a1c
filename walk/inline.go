package walk

import (
	"fmt"

	"fern/ast"
)

// DefaultInlineThreshold is the default size bound for inlined functions.
const DefaultInlineThreshold = 16

// Inliner replaces calls to small functions with copies of their bodies.
type Inliner struct {
	graph     *CallGraph
	threshold int
}

// NewInliner creates an inliner over the functions of a call graph.  Functions
// whose weight is at least threshold are never inlined.
func NewInliner(graph *CallGraph, threshold int) *Inliner {
	return &Inliner{
		graph:     graph,
		threshold: threshold,
	}
}

// Run inlines calls in every context under top.  Callees are processed before
// their callers so that the body copied into a caller, and the weight checked
// against the threshold, already include whatever was inlined into the callee.
func (in *Inliner) Run(top *Context) {
	done := make(map[*Context]bool)

	var visit func(c *Context)
	visit = func(c *Context) {
		if done[c] {
			return
		}

		done[c] = true
		for _, callee := range in.graph.Callees(c) {
			visit(callee)
		}

		in.InlineCalls(c)
	}

	for _, c := range top.All() {
		visit(c)
	}
}

// InlineCalls inlines the eligible calls in the body of c and returns how many
// calls were replaced.  The arguments of a call are inlined before the call
// itself.  Spliced bodies are not inlined into again.
func (in *Inliner) InlineCalls(c *Context) int {
	before := c.inlined
	in.visit(c, c.Body)
	return c.inlined - before
}

func (in *Inliner) visit(c *Context, id ast.NodeID) {
	tree := c.Tree
	if tree.Kind(id) == ast.Inline {
		return
	}

	children := append([]ast.NodeID(nil), tree.At(id).Children...)
	for _, child := range children {
		in.visit(c, child)
	}

	if tree.Kind(id) == ast.Call {
		in.tryInline(c, id)
	}
}

// Weight returns the size of a function body as counted against the inline
// threshold: the nodes of its statements less its parameters.
func Weight(c *Context) int {
	return c.Tree.Count(c.Body) - 1 - len(c.Params)
}

// isEligible reports whether callee can be inlined anywhere.  Eligible
// functions have no nested functions, take part in no call cycle, are light
// enough, and have exactly one return which is their last statement.  The
// weight is measured on the callee's current body.
func (in *Inliner) isEligible(callee *Context) bool {
	tree := callee.Tree
	if callee.Func == ast.NoNode || len(callee.Children) > 0 || !callee.HasResult {
		return false
	}

	if in.graph.InCycle(callee) || Weight(callee) >= in.threshold {
		return false
	}

	stmts := tree.At(callee.Body).Children
	if len(stmts) == 0 || tree.Kind(stmts[len(stmts)-1]) != ast.Return {
		return false
	}

	returns := 0
	tree.Walk(callee.Body, func(id ast.NodeID) bool {
		if tree.Kind(id) == ast.Return {
			returns++
		}

		return true
	})

	return returns == 1
}

// resolvesSame reports whether the body of callee means the same thing when
// spliced into caller: every call must reach the same function and every name
// read must be a local of the callee.
func resolvesSame(caller, callee *Context) bool {
	tree := callee.Tree
	same := true

	callee.walkNames(callee.Body, func(name string) {
		if _, ok := callee.Locals[name]; !ok {
			same = false
		}
	})

	tree.Walk(callee.Body, func(id ast.NodeID) bool {
		n := tree.At(id)
		if n.Kind == ast.Call {
			name := tree.At(n.Children[0]).Value
			if target := callee.Lookup(name); target != caller.Lookup(name) || target == caller {
				same = false
			}
		}

		return same
	})

	return same
}

// tryInline replaces the call at id with an inline node if its callee is
// eligible.  The call node itself becomes the inline node.
func (in *Inliner) tryInline(c *Context, id ast.NodeID) {
	tree := c.Tree
	call := tree.At(id)
	args := append([]ast.NodeID(nil), call.Children[1:]...)
	pos := call.Pos

	callee := c.Lookup(tree.At(call.Children[0]).Value)
	if callee == nil || callee == c || len(args) != len(callee.Params) {
		return
	}

	if !in.isEligible(callee) || !resolvesSame(c, callee) {
		return
	}

	prefix := fmt.Sprintf("$%s%d$", callee.Name, c.inlined)
	c.inlined++

	assignedParams := callee.assignedNames()

	rename := make(map[string]string)
	block := tree.New(ast.Block, "", pos)
	for i, param := range callee.Params {
		arg := args[i]
		if tree.Kind(arg) == ast.Ident && !assignedParams[param] {
			if _, ok := c.Locals[tree.At(arg).Value]; ok {
				rename[param] = tree.At(arg).Value
				continue
			}
		}

		rename[param] = prefix + param
		target := tree.New(ast.Ident, rename[param], tree.At(arg).Pos)
		tree.Append(block, tree.New(ast.Assign, "", tree.At(arg).Pos, target, arg))
	}

	for _, name := range callee.Names[len(callee.Params):] {
		rename[name] = prefix + name
	}

	body := tree.Clone(callee.Body, rename)
	stmts := tree.At(body).Children
	ret := stmts[len(stmts)-1]
	for _, stmt := range stmts[:len(stmts)-1] {
		tree.Append(block, stmt)
	}
	tree.Append(block, tree.Child(ret, 0))

	for _, name := range callee.Names {
		if renamed := rename[name]; renamed == prefix+name {
			c.Declare(renamed)
		}
	}

	node := tree.At(id)
	node.Kind = ast.Inline
	node.Value = callee.Name
	node.Children = []ast.NodeID{block}
}

// assignedNames returns the names assigned anywhere in the body of c.
func (c *Context) assignedNames() map[string]bool {
	tree := c.Tree
	assigned := make(map[string]bool)
	tree.Walk(c.Body, func(id ast.NodeID) bool {
		n := tree.At(id)
		if n.Kind == ast.Assign && tree.Kind(n.Children[0]) == ast.Ident {
			assigned[tree.At(n.Children[0]).Value] = true
		}

		return true
	})

	return assigned
}
