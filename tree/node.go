// Package tree defines the node type every compiler stage consumes and produces.
package tree

import (
	"fmt"
	"strings"
)

// Kind discriminates leaves from compound nodes.
type Kind int

const (
	// Leaf is an opaque token: a number, a quoted string, an identifier or a sigil.
	Leaf Kind = iota
	// Compound is a head symbol applied to ordered children.
	Compound
)

// Metadata records where a node came from.
type Metadata struct {
	File   string
	Line   int // 1-based
	Column int // 0-based
}

func (m Metadata) String() string {
	file := m.File
	if file == "" {
		file = "<input>"
	}

	return fmt.Sprintf("%s:%d:%d", file, m.Line, m.Column)
}

// Node is either a leaf or a compound node. Transforms never mutate a node
// that another subtree may still reference; they build new nodes instead.
type Node struct {
	Kind  Kind
	Value string // leaf text, or head symbol for compounds
	Args  []*Node
	Meta  Metadata
}

// NewLeaf creates a leaf node.
func NewLeaf(value string, meta Metadata) *Node {
	return &Node{Kind: Leaf, Value: value, Meta: meta}
}

// NewCompound creates a compound node with the given head and children.
func NewCompound(head string, meta Metadata, args ...*Node) *Node {
	if args == nil {
		args = []*Node{}
	}

	return &Node{Kind: Compound, Value: head, Args: args, Meta: meta}
}

// IsLeaf reports whether n is a leaf.
func (n *Node) IsLeaf() bool {
	return n.Kind == Leaf
}

// Is reports whether n is a compound with the given head.
func (n *Node) Is(head string) bool {
	return n.Kind == Compound && n.Value == head
}

// IsLeafValue reports whether n is a leaf holding exactly value.
func (n *Node) IsLeafValue(value string) bool {
	return n.Kind == Leaf && n.Value == value
}

// Arity returns the number of children (0 for leaves).
func (n *Node) Arity() int {
	return len(n.Args)
}

// Clone returns a deep copy that shares nothing with n.
func (n *Node) Clone() *Node {
	if n.Kind == Leaf {
		return NewLeaf(n.Value, n.Meta)
	}

	args := make([]*Node, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.Clone()
	}

	return NewCompound(n.Value, n.Meta, args...)
}

// WithArgs returns a shallow copy of n carrying new children.
func (n *Node) WithArgs(args []*Node) *Node {
	return NewCompound(n.Value, n.Meta, args...)
}

// WithHead returns a copy of the compound n with a different head.
func (n *Node) WithHead(head string) *Node {
	return NewCompound(head, n.Meta, n.Args...)
}

// Equal compares two trees structurally, ignoring metadata.
func Equal(a, b *Node) bool {
	if a.Kind != b.Kind || a.Value != b.Value || len(a.Args) != len(b.Args) {
		return false
	}

	for i := range a.Args {
		if !Equal(a.Args[i], b.Args[i]) {
			return false
		}
	}

	return true
}

// String renders the node as single-line LLL.
func (n *Node) String() string {
	var sb strings.Builder
	n.write(&sb)

	return sb.String()
}

func (n *Node) write(sb *strings.Builder) {
	if n.Kind == Leaf {
		sb.WriteString(n.Value)
		return
	}

	sb.WriteByte('(')
	sb.WriteString(n.Value)

	for _, a := range n.Args {
		sb.WriteByte(' ')
		a.write(sb)
	}

	sb.WriteByte(')')
}
