// Package pattern implements structural matching and template substitution
// over trees, and indexed rule sets built on them.
package pattern

import (
	"strings"

	"github.com/shibukawa/snaplll/tree"
)

// Sigil marks pattern variables.
const Sigil = "$"

// Bindings maps variable names (without the sigil) to matched subtrees.
type Bindings map[string]*tree.Node

// IsVariable reports whether n is a pattern variable leaf such as $x.
func IsVariable(n *tree.Node) bool {
	return n.IsLeaf() && len(n.Value) > len(Sigil) && strings.HasPrefix(n.Value, Sigil)
}

func variableName(n *tree.Node) string {
	return n.Value[len(Sigil):]
}

// Match matches pattern against subject. Compounds must agree on head and
// arity exactly; literal leaves must agree on value; variables match anything.
func Match(pattern, subject *tree.Node) (Bindings, bool) {
	b := Bindings{}
	if !match(pattern, subject, b) {
		return nil, false
	}

	return b, true
}

func match(p, n *tree.Node, b Bindings) bool {
	if p.IsLeaf() {
		if IsVariable(p) {
			b[variableName(p)] = n
			return true
		}

		return n.IsLeaf() && p.Value == n.Value
	}

	if n.IsLeaf() || p.Value != n.Value || len(p.Args) != len(n.Args) {
		return false
	}

	for i := range p.Args {
		if !match(p.Args[i], n.Args[i], b) {
			return false
		}
	}

	return true
}

// Substitute instantiates template. Bound variables are replaced by fresh
// copies of their subtree; unbound ones become prefix+name. Every node of the
// result is newly allocated and carries meta.
func Substitute(template *tree.Node, b Bindings, prefix string, meta tree.Metadata) *tree.Node {
	if template.IsLeaf() {
		if IsVariable(template) {
			name := variableName(template)
			if bound, ok := b[name]; ok {
				return bound.Clone()
			}

			return tree.NewLeaf(prefix+name, meta)
		}

		return tree.NewLeaf(template.Value, meta)
	}

	args := make([]*tree.Node, len(template.Args))
	for i, a := range template.Args {
		args[i] = Substitute(a, b, prefix, meta)
	}

	return tree.NewCompound(template.Value, meta, args...)
}
