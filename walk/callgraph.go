package walk

import "fern/ast"

// CallGraph records the user functions each context calls directly.
type CallGraph struct {
	callees map[*Context][]*Context
}

// BuildCallGraph builds the call graph of every context under top.
func BuildCallGraph(top *Context) *CallGraph {
	g := &CallGraph{callees: make(map[*Context][]*Context)}

	for _, c := range top.All() {
		seen := make(map[*Context]bool)
		c.Tree.Walk(c.Body, func(id ast.NodeID) bool {
			n := c.Tree.At(id)
			if n.Kind != ast.Call {
				return true
			}

			if callee := c.Lookup(c.Tree.At(n.Children[0]).Value); callee != nil && !seen[callee] {
				seen[callee] = true
				g.callees[c] = append(g.callees[c], callee)
			}

			return true
		})
	}

	return g
}

// Callees returns the functions c calls directly in order of first call.
func (g *CallGraph) Callees(c *Context) []*Context {
	return g.callees[c]
}

// InCycle reports whether c can reach itself through calls.  This covers
// direct recursion as well as mutual recursion through any number of
// functions.
func (g *CallGraph) InCycle(c *Context) bool {
	visited := make(map[*Context]bool)

	var reaches func(from *Context) bool
	reaches = func(from *Context) bool {
		for _, callee := range g.callees[from] {
			if callee == c {
				return true
			}

			if !visited[callee] {
				visited[callee] = true
				if reaches(callee) {
					return true
				}
			}
		}

		return false
	}

	return reaches(c)
}
