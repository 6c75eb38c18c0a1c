package ast

import (
	"fmt"
	"strings"

	"fern/report"
)

// NodeID addresses a node in a Tree.
type NodeID int

// NoNode is the null node id.
const NoNode NodeID = -1

// Kind is the variant tag of a node.
type Kind int

// Enumeration of node kinds.
const (
	Block    Kind = iota // statements
	Assign               // [target, value]
	If                   // [test, then, else?]
	Call                 // [callee, args...]
	Ident                // Value is the name
	Literal              // Value is the source text
	Index                // [target, index]
	Loop                 // [body] or [test, body]
	Break                //
	Continue             //
	Return               // [value]
	Func                 // [params, body]; Value is the name
	Group                // [inner]
	Inline               // [block]; Value is the inlined function's name
)

var kindNames = [...]string{
	"block", "assign", "if", "call", "ident", "literal", "index",
	"loop", "break", "continue", "return", "func", "group", "inline",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

// IsExpr reports whether nodes of kind k produce a value.
func (k Kind) IsExpr() bool {
	switch k {
	case If, Call, Ident, Literal, Index, Group, Inline:
		return true
	default:
		return false
	}
}

// Node is a single AST node.  Children are owned exclusively: the tree never
// shares a node between two parents.
type Node struct {
	Kind     Kind
	Value    string
	Pos      report.Pos
	Children []NodeID
}

// Tree is an arena of nodes.  Splicing and hoisting are done by rewriting
// child lists rather than by moving pointers.
type Tree struct {
	Nodes []Node
}

// NewTree creates an empty tree.
func NewTree() *Tree {
	return &Tree{}
}

// New adds a node to the tree and returns its id.
func (t *Tree) New(kind Kind, value string, pos report.Pos, children ...NodeID) NodeID {
	t.Nodes = append(t.Nodes, Node{
		Kind:     kind,
		Value:    value,
		Pos:      pos,
		Children: append([]NodeID(nil), children...),
	})

	return NodeID(len(t.Nodes) - 1)
}

// At returns the node with the given id.  The pointer is only valid until the
// next call to New.
func (t *Tree) At(id NodeID) *Node {
	return &t.Nodes[id]
}

// Kind returns the kind of a node.
func (t *Tree) Kind(id NodeID) Kind {
	return t.Nodes[id].Kind
}

// Child returns the i'th child of a node.
func (t *Tree) Child(id NodeID, i int) NodeID {
	return t.Nodes[id].Children[i]
}

// Append appends a child to a node.
func (t *Tree) Append(id, child NodeID) {
	t.Nodes[id].Children = append(t.Nodes[id].Children, child)
}

// Walk visits the subtree rooted at id in pre-order.  If visit returns false
// the node's children are skipped.
func (t *Tree) Walk(id NodeID, visit func(NodeID) bool) {
	if !visit(id) {
		return
	}

	for _, child := range t.Nodes[id].Children {
		t.Walk(child, visit)
	}
}

// Count returns the number of nodes in the subtree rooted at id.
func (t *Tree) Count(id NodeID) int {
	n := 0
	t.Walk(id, func(NodeID) bool {
		n++
		return true
	})

	return n
}

// Clone deep-copies the subtree rooted at id.  Identifiers found in rename
// are renamed in the copy.  The callee of a call is never renamed since it
// names a function rather than a local.
func (t *Tree) Clone(id NodeID, rename map[string]string) NodeID {
	n := t.Nodes[id]

	children := make([]NodeID, len(n.Children))
	for i, child := range n.Children {
		if n.Kind == Call && i == 0 {
			children[i] = t.New(Ident, t.Nodes[child].Value, t.Nodes[child].Pos)
		} else {
			children[i] = t.Clone(child, rename)
		}
	}

	value := n.Value
	if n.Kind == Ident {
		if newName, ok := rename[value]; ok {
			value = newName
		}
	}

	return t.New(n.Kind, value, n.Pos, children...)
}

// -----------------------------------------------------------------------------

// Dump renders the subtree rooted at id as an s-expression.  Identifiers and
// literals are printed bare; every other node prints as (kind children...).
func (t *Tree) Dump(id NodeID) string {
	sb := &strings.Builder{}
	t.dump(sb, id)
	return sb.String()
}

func (t *Tree) dump(sb *strings.Builder, id NodeID) {
	n := t.Nodes[id]

	switch n.Kind {
	case Ident, Literal:
		sb.WriteString(n.Value)
		return
	case Break, Continue:
		sb.WriteString(n.Kind.String())
		return
	}

	sb.WriteRune('(')
	sb.WriteString(n.Kind.String())
	if n.Kind == Func || n.Kind == Inline {
		sb.WriteRune(' ')
		sb.WriteString(n.Value)
	}

	for _, child := range n.Children {
		sb.WriteRune(' ')
		t.dump(sb, child)
	}
	sb.WriteRune(')')
}
