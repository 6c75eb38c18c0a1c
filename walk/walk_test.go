package walk

import (
	"strings"
	"testing"

	"fern/ast"
	"fern/report"
	"fern/syntax"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, src string) *Context {
	t.Helper()

	tree, root, err := syntax.ParseSource(src, "t.fern", 1)
	require.NoError(t, err)

	top, err := BuildContexts(tree, root, NewIndexAllocator())
	require.NoError(t, err)
	return top
}

func buildErr(t *testing.T, src string) *report.Error {
	t.Helper()

	tree, root, err := syntax.ParseSource(src, "t.fern", 1)
	require.NoError(t, err)

	top, err := BuildContexts(tree, root, NewIndexAllocator())
	require.Error(t, err)
	assert.Nil(t, top)

	cerr, ok := report.AsError(err)
	require.True(t, ok)
	assert.Equal(t, report.KindSemantic, cerr.Kind)
	return cerr
}

func names(cs []*Context) []string {
	var out []string
	for _, c := range cs {
		out = append(out, c.Name)
	}
	return out
}

const nested = `
func a(x)
    func inner(y)
        return y
    return inner(x)
func b()
    print(1)
if 1
    func c()
        print(2)
print(a(1))`

func TestHoistingAndIndices(t *testing.T) {
	top := build(t, nested)

	assert.Equal(t, []string{MainName, "a", "b", "c", "inner"}, names(top.All()))

	var indices []uint32
	for _, c := range top.All() {
		indices = append(indices, c.Index)
	}
	assert.Equal(t, []uint32{2, 3, 4, 5, 6}, indices)

	// Definitions are removed from their blocks.
	assert.Equal(t, "(block (if 1 (block)) (call print (call a 1)))", top.Tree.Dump(top.Body))

	a := top.Children[0]
	assert.Equal(t, "(block (return (call inner x)))", top.Tree.Dump(a.Body))
	assert.True(t, a.Exported)
	assert.True(t, a.HasResult)
	assert.False(t, a.Children[0].Exported)
	assert.False(t, top.Children[1].HasResult)
	assert.False(t, top.HasResult)
}

func TestLookup(t *testing.T) {
	top := build(t, nested)
	a := top.Children[0]
	inner := a.Children[0]

	assert.Same(t, inner, a.Lookup("inner"))
	assert.Same(t, a, inner.Lookup("a"))
	assert.Same(t, top.Children[1], inner.Lookup("b"))
	assert.Nil(t, top.Lookup("inner"))
	assert.Nil(t, top.Lookup("print"))
}

func TestSlots(t *testing.T) {
	top := build(t, `
func f(p, q)
    r = p + s
    s = 1
    t = q
    r = 2
    return t
x = 1
y = f(x, x)`)

	f := top.Children[0]
	assert.Equal(t, []string{"p", "q", "r", "s", "t"}, f.Names)
	assert.Equal(t, uint32(3), f.Locals["s"])
	assert.Equal(t, []string{"x", "y"}, top.Names)

	assert.Equal(t, "(f64, f64) -> (f64)", f.Type().String())
	assert.Len(t, f.LocalTypes(), 3)
}

func TestUnassignedNamesHaveNoSlot(t *testing.T) {
	top := build(t, "print(z)\nf = 1")
	assert.Equal(t, []string{"f"}, top.Names)

	_, ok := top.Slot("z")
	assert.False(t, ok)
}

func TestContextErrors(t *testing.T) {
	err := buildErr(t, "func f()\n  x = 1\nfunc f()\n  x = 2")
	assert.Equal(t, "function `f` is already defined in this scope", err.Message)
	assert.Equal(t, 3, err.Pos.Line)

	err = buildErr(t, "func print(x)\n  return x")
	assert.Contains(t, err.Message, "reserved")

	err = buildErr(t, "func add(a, b)\n  return a")
	assert.Contains(t, err.Message, "reserved")

	err = buildErr(t, "func f(a, b, a)\n  return a")
	assert.Equal(t, "parameter `a` of `f` is listed twice", err.Message)
}

func TestSameNameInDifferentScopes(t *testing.T) {
	top := build(t, `
func f()
    func g()
        return 1
    return g()
func g()
    return 2`)
	assert.Equal(t, []string{MainName, "f", "g", "g"}, names(top.All()))
}

func TestScopes(t *testing.T) {
	c := &Context{Name: "f"}

	_, ok := c.LoopDepth()
	assert.False(t, ok)

	c.PushScope(ScopeLoop)
	c.PushScope(ScopeIf)
	c.PushScope(ScopeIf)

	depth, ok := c.LoopDepth()
	require.True(t, ok)
	assert.Equal(t, 2, depth)

	c.PopScope(ScopeIf)
	c.PopScope(ScopeIf)
	c.PopScope(ScopeLoop)
	assert.Equal(t, 0, c.OpenScopes())
}

func TestUnbalancedScopesAreInternalErrors(t *testing.T) {
	c := &Context{Name: "f"}

	var err error
	func() {
		defer report.CatchErrors(&err)
		c.PushScope(ScopeIf)
		c.PopScope(ScopeLoop)
	}()

	cerr, ok := report.AsError(err)
	require.True(t, ok)
	assert.Equal(t, report.KindAssembler, cerr.Kind)
}

func TestCallGraphCycles(t *testing.T) {
	top := build(t, `
func even(n)
    return if n == 0 do 1 else odd(n - 1)
func odd(n)
    return if n == 0 do 0 else even(n - 1)
func fact(n)
    return if n < 2 do 1 else n * fact(n - 1)
func leaf(n)
    return n + 1
func caller(n)
    return leaf(n) + leaf(n)`)

	g := BuildCallGraph(top)
	byName := map[string]*Context{}
	for _, c := range top.Children {
		byName[c.Name] = c
	}

	assert.True(t, g.InCycle(byName["even"]))
	assert.True(t, g.InCycle(byName["odd"]))
	assert.True(t, g.InCycle(byName["fact"]))
	assert.False(t, g.InCycle(byName["leaf"]))
	assert.False(t, g.InCycle(byName["caller"]))
	assert.Equal(t, []string{"leaf"}, names(g.Callees(byName["caller"])))
}

// -----------------------------------------------------------------------------

func inlineAll(t *testing.T, src string, threshold int) *Context {
	t.Helper()

	top := build(t, src)
	NewInliner(BuildCallGraph(top), threshold).Run(top)
	return top
}

func TestInlineIndependentCopies(t *testing.T) {
	top := inlineAll(t, `
func sq(x)
    return x * x
print(sq(2))
print(sq(3))`, DefaultInlineThreshold)

	assert.Equal(t,
		"(block (call print (inline sq (block (assign $sq0$x 2) (call mul $sq0$x $sq0$x)))) "+
			"(call print (inline sq (block (assign $sq1$x 3) (call mul $sq1$x $sq1$x)))))",
		top.Tree.Dump(top.Body))

	assert.Equal(t, []string{"$sq0$x", "$sq1$x"}, top.Names)
	assert.NotEqual(t, top.Locals["$sq0$x"], top.Locals["$sq1$x"])
}

func TestInlineSubstitutesBareIdentifiers(t *testing.T) {
	top := inlineAll(t, `
func area(w, h)
    s = w * h
    return s
func bump(v)
    v = v + 1
    return v
a = 2
b = area(a, 4)
c = bump(a)`, DefaultInlineThreshold)

	stmts := top.Tree.At(top.Body).Children
	assert.Equal(t,
		"(assign b (inline area (block (assign $area0$h 4) (assign $area0$s (call mul a $area0$h)) $area0$s)))",
		top.Tree.Dump(stmts[1]))

	// A parameter the callee assigns gets its own copy.
	assert.Equal(t,
		"(assign c (inline bump (block (assign $bump1$v a) (assign $bump1$v (call add $bump1$v 1)) $bump1$v)))",
		top.Tree.Dump(stmts[2]))

	assert.Equal(t, []string{"a", "b", "c", "$area0$h", "$area0$s", "$bump1$v"}, top.Names)

	// The callee itself is untouched.
	area := top.Children[0]
	assert.Equal(t, "(block (assign s (call mul w h)) (return s))", top.Tree.Dump(area.Body))
}

func TestInlineRejections(t *testing.T) {
	src := `
func deep(x)
    y = x * x * x + x * x + x
    z = y * y + y * 2
    return z + y + x
func two(x)
    if x > 0 do return 1
    return 2
func rec(n)
    return if n < 1 do 0 else rec(n - 1)
func outer(x)
    func helper(y)
        return y
    return helper(x)
func early(x)
    return x
    print(x)
print(deep(1))
print(two(1))
print(rec(3))
print(outer(1))
print(early(1))
print(deep(1, 2))`

	top := inlineAll(t, src, DefaultInlineThreshold)
	for _, stmt := range top.Tree.At(top.Body).Children {
		dump := top.Tree.Dump(stmt)
		assert.NotContains(t, dump, "inline", dump)
	}

	// With a large enough threshold the deep function is inlined.
	top = inlineAll(t, src, 100)
	first := top.Tree.At(top.Body).Children[0]
	assert.Contains(t, top.Tree.Dump(first), "(inline deep")
}

func TestInlineWeighsGrownCallees(t *testing.T) {
	src := `
print(mid(2))
func mid(x)
    return leaf(x) + leaf(x) + leaf(x)
func leaf(x)
    return x * x + x`

	// Before inlining, mid is light enough to be inlined.
	before := build(t, src)
	mid := before.Children[0]
	assert.Less(t, Weight(mid), DefaultInlineThreshold)

	top := inlineAll(t, src, DefaultInlineThreshold)
	mid = top.Children[0]

	// The copies of leaf make mid too heavy, so the top level keeps its call.
	assert.Equal(t, 3, strings.Count(top.Tree.Dump(mid.Body), "(inline leaf"))
	assert.GreaterOrEqual(t, Weight(mid), DefaultInlineThreshold)
	assert.Equal(t, "(block (call print (call mid 2)))", top.Tree.Dump(top.Body))
}

func TestInlineCopiesProcessedCallees(t *testing.T) {
	top := inlineAll(t, `
print(twice(3))
func twice(x)
    return inc(x) * 2
func inc(y)
    return y + 1`, DefaultInlineThreshold)

	// twice already holds the copy of inc when it is spliced into the top level.
	dump := top.Tree.Dump(top.Body)
	assert.Contains(t, dump, "(inline twice")
	assert.Contains(t, dump, "(inline inc")
	assert.NotContains(t, dump, "(call inc")
}

func TestInlineKeepsCallsThatResolveDifferently(t *testing.T) {
	top := inlineAll(t, `
func g()
    if 1 do return 1
    return 3
func f()
    return g()
func h()
    func g()
        return 2
    return f()
print(h())`, DefaultInlineThreshold)

	// Spliced into h, the call to g in f would reach h's own g.
	h := top.Children[2]
	assert.Equal(t, "(block (return (call f)))", top.Tree.Dump(h.Body))

	f := top.Children[1]
	assert.Equal(t, "(block (return (call g)))", top.Tree.Dump(f.Body))
}

func TestInlineLeavesFreeNamesAlone(t *testing.T) {
	top := inlineAll(t, `
func f()
    return q
q = 1
print(f())`, DefaultInlineThreshold)

	assert.NotContains(t, top.Tree.Dump(top.Body), "inline")
}

func TestWeight(t *testing.T) {
	top := build(t, "func f(a, b)\n  return a + b")
	// block, return, call, add, a, b less the block and two parameters.
	assert.Equal(t, 3, Weight(top.Children[0]))
	assert.Equal(t, ast.Block, top.Tree.Kind(top.Children[0].Body))
}
