package walk

import (
	"fern/ast"
	"fern/report"
	"fern/wasm"
)

// MainName is the name of the implicit top-level function.
const MainName = "$main"

// ScopeKind tags an open control scope.
type ScopeKind int

// Enumeration of scope kinds.
const (
	ScopeIf ScopeKind = iota
	ScopeLoop
)

func (sk ScopeKind) String() string {
	if sk == ScopeLoop {
		return "loop"
	}

	return "if"
}

// Context holds everything known about one function while it is compiled:
// its local slots, its nested functions, its open control scopes and the
// instructions generated for it.  The top-level code of a program is the body
// of an implicit main context.
type Context struct {
	Name string
	Tree *ast.Tree

	// Func is the definition node, or NoNode for the main context.
	Func ast.NodeID

	// Body is the block executed by the function.
	Body ast.NodeID

	Params []string

	// Parent is used to find functions only: a nested function cannot see the
	// locals of its parent.
	Parent   *Context
	Children []*Context

	// Index is the function index in the module.
	Index uint32

	// Locals maps names to slots.  Names lists the names in slot order.
	Locals map[string]uint32
	Names  []string

	// HasResult is true if the function returns a value.
	HasResult bool

	// Exported is true for functions defined at the top level.
	Exported bool

	// Instructions is filled in by the code generator.
	Instructions []wasm.Instruction

	scopes []ScopeKind

	// inlined counts the function bodies spliced into this context and is
	// used to make renamed locals unique.
	inlined int
}

// BuildContexts discovers every function in the tree rooted at root, hoists
// the function definitions out of their blocks, allocates function indices
// breadth first and assigns local slots.  It returns the main context.
func BuildContexts(tree *ast.Tree, root ast.NodeID, alloc *IndexAllocator) (top *Context, err error) {
	defer func() {
		if err != nil {
			top = nil
		}
	}()
	defer report.CatchErrors(&err)

	top = newContext(MainName, tree, ast.NoNode, root, nil)
	top.hoist(root)

	for _, c := range top.All() {
		c.Index = alloc.Next()
		c.assignSlots()
		c.HasResult = c.Func != ast.NoNode && c.containsReturn()
	}

	return top, nil
}

func newContext(name string, tree *ast.Tree, fn, body ast.NodeID, parent *Context) *Context {
	return &Context{
		Name:     name,
		Tree:     tree,
		Func:     fn,
		Body:     body,
		Parent:   parent,
		Locals:   make(map[string]uint32),
		Exported: parent != nil && parent.Parent == nil,
	}
}

// All returns the context and all of its descendants in breadth-first order.
func (c *Context) All() []*Context {
	all := []*Context{c}
	for i := 0; i < len(all); i++ {
		all = append(all, all[i].Children...)
	}

	return all
}

// Type returns the signature of the function.
func (c *Context) Type() wasm.FuncType {
	ft := wasm.FuncType{Params: make([]wasm.ValType, len(c.Params))}
	for i := range ft.Params {
		ft.Params[i] = wasm.F64
	}

	if c.HasResult {
		ft.Results = []wasm.ValType{wasm.F64}
	}

	return ft
}

// LocalTypes returns the types of the locals that are not parameters.
func (c *Context) LocalTypes() []wasm.ValType {
	types := make([]wasm.ValType, len(c.Names)-len(c.Params))
	for i := range types {
		types[i] = wasm.F64
	}

	return types
}

// Lookup finds the function a call from this context to name resolves to.
// Functions nested in this context are searched first, then the functions
// nested in each enclosing context.
func (c *Context) Lookup(name string) *Context {
	for ctx := c; ctx != nil; ctx = ctx.Parent {
		for _, child := range ctx.Children {
			if child.Name == name {
				return child
			}
		}
	}

	return nil
}

// Slot returns the slot of a local.
func (c *Context) Slot(name string) (uint32, bool) {
	slot, ok := c.Locals[name]
	return slot, ok
}

// Declare gives name the next free slot if it does not have one yet.
func (c *Context) Declare(name string) uint32 {
	if slot, ok := c.Locals[name]; ok {
		return slot
	}

	slot := uint32(len(c.Names))
	c.Locals[name] = slot
	c.Names = append(c.Names, name)
	return slot
}

// -----------------------------------------------------------------------------

// PushScope opens a control scope.
func (c *Context) PushScope(kind ScopeKind) {
	c.scopes = append(c.scopes, kind)
}

// PopScope closes the innermost control scope, which must be of the given
// kind.
func (c *Context) PopScope(kind ScopeKind) {
	if len(c.scopes) == 0 {
		report.ICE("pop of %s scope in %s with no open scopes", kind, c.Name)
	}

	if top := c.scopes[len(c.scopes)-1]; top != kind {
		report.ICE("pop of %s scope in %s, but the open scope is %s", kind, c.Name, top)
	}

	c.scopes = c.scopes[:len(c.scopes)-1]
}

// LoopDepth returns the number of scopes opened since the innermost loop.  It
// returns false if there is no enclosing loop.
func (c *Context) LoopDepth() (int, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if c.scopes[i] == ScopeLoop {
			return len(c.scopes) - 1 - i, true
		}
	}

	return 0, false
}

// OpenScopes returns the number of open control scopes.
func (c *Context) OpenScopes() int {
	return len(c.scopes)
}

// -----------------------------------------------------------------------------

// hoist moves the function definitions directly inside the blocks of the
// subtree rooted at id into child contexts of c.  Function bodies are hoisted
// into their own contexts.
func (c *Context) hoist(id ast.NodeID) {
	tree := c.Tree
	if tree.Kind(id) == ast.Block {
		var kept []ast.NodeID
		for _, child := range tree.At(id).Children {
			if tree.Kind(child) == ast.Func {
				c.addFunc(child)
			} else {
				kept = append(kept, child)
			}
		}

		tree.At(id).Children = kept
	}

	for _, child := range tree.At(id).Children {
		c.hoist(child)
	}
}

// addFunc creates the context for a function definition.
func (c *Context) addFunc(fn ast.NodeID) {
	tree := c.Tree
	node := tree.At(fn)
	name := node.Value

	if IsReserved(name) {
		raise(node.Pos, "cannot define a function named `%s`: the name is reserved", name)
	}

	for _, sibling := range c.Children {
		if sibling.Name == name {
			raise(node.Pos, "function `%s` is already defined in this scope", name)
		}
	}

	params, body := node.Children[0], node.Children[1]
	child := newContext(name, tree, fn, body, c)

	seen := make(map[string]bool)
	for _, param := range tree.At(params).Children {
		pname := tree.At(param).Value
		if seen[pname] {
			raise(tree.At(param).Pos, "parameter `%s` of `%s` is listed twice", pname, name)
		}

		seen[pname] = true
		child.Params = append(child.Params, pname)
	}

	c.Children = append(c.Children, child)
	child.hoist(body)
}

// assignSlots gives the parameters the first slots and then every assigned
// name a slot in order of first occurrence.
func (c *Context) assignSlots() {
	for _, param := range c.Params {
		c.Declare(param)
	}

	assigned := c.assignedNames()
	c.walkNames(c.Body, func(name string) {
		if assigned[name] {
			c.Declare(name)
		}
	})
}

// walkNames calls visit for every identifier in the subtree rooted at id in
// pre-order, skipping the callees of calls.
func (c *Context) walkNames(id ast.NodeID, visit func(string)) {
	n := c.Tree.At(id)
	switch n.Kind {
	case ast.Ident:
		visit(n.Value)
		return
	case ast.Call:
		for _, arg := range n.Children[1:] {
			c.walkNames(arg, visit)
		}
		return
	}

	for _, child := range n.Children {
		c.walkNames(child, visit)
	}
}

// containsReturn reports whether the body holds a return statement.
func (c *Context) containsReturn() bool {
	found := false
	c.Tree.Walk(c.Body, func(id ast.NodeID) bool {
		if c.Tree.Kind(id) == ast.Return {
			found = true
		}

		return !found
	})

	return found
}

// raise aborts the current phase with a semantic error.
func raise(pos report.Pos, msg string, args ...interface{}) {
	panic(report.Raise(report.KindSemantic, pos, msg, args...))
}
