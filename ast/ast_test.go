package ast

import (
	"testing"

	"fern/report"

	"github.com/stretchr/testify/assert"
)

// buildSample builds `x = add(x, y)` inside a block.
func buildSample(t *Tree) NodeID {
	pos := report.Pos{Line: 1, Col: 1}
	call := t.New(Call, "", pos,
		t.New(Ident, "add", pos),
		t.New(Ident, "x", pos),
		t.New(Ident, "y", pos),
	)
	assign := t.New(Assign, "", pos, t.New(Ident, "x", pos), call)
	return t.New(Block, "", pos, assign)
}

func TestDump(t *testing.T) {
	tree := NewTree()
	root := buildSample(tree)

	assert.Equal(t, "(block (assign x (call add x y)))", tree.Dump(root))
	assert.Equal(t, 7, tree.Count(root))
}

func TestCloneRenamesLocalsButNotCallees(t *testing.T) {
	tree := NewTree()
	root := buildSample(tree)

	copied := tree.Clone(root, map[string]string{"x": "$f0$x", "add": "nope"})

	assert.Equal(t, "(block (assign $f0$x (call add $f0$x y)))", tree.Dump(copied))

	// The original is untouched and the copy shares no nodes with it.
	assert.Equal(t, "(block (assign x (call add x y)))", tree.Dump(root))

	seen := map[NodeID]bool{}
	tree.Walk(root, func(id NodeID) bool {
		seen[id] = true
		return true
	})
	tree.Walk(copied, func(id NodeID) bool {
		assert.False(t, seen[id], "node %d is shared", id)
		return true
	})
}

func TestWalkSkipsChildren(t *testing.T) {
	tree := NewTree()
	root := buildSample(tree)

	var kinds []Kind
	tree.Walk(root, func(id NodeID) bool {
		kinds = append(kinds, tree.Kind(id))
		return tree.Kind(id) != Call
	})

	assert.Equal(t, []Kind{Block, Assign, Ident, Call}, kinds)
}

func TestKindProperties(t *testing.T) {
	assert.True(t, Call.IsExpr())
	assert.True(t, If.IsExpr())
	assert.False(t, Assign.IsExpr())
	assert.False(t, Loop.IsExpr())
	assert.Equal(t, "continue", Continue.String())
}
