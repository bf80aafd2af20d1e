// Package layout assigns storage slots to data declarations.
//
// Each declared path gets an entry holding its base offset, the size
// coefficients used to linearize index expressions, its declaration index
// (or position inside its tuple) and whether it is an intermediate tuple.
// Objects with 2^176 or more slots are addressed by hashing instead.
package layout

import (
	"strings"

	"github.com/shibukawa/snaplll"
	"github.com/shibukawa/snaplll/tree"
	"github.com/shibukawa/snaplll/word"
)

// Entry describes one declared storage path such as "x" or "x.b".
type Entry struct {
	Key    string
	Offset word.Exact
	// Coefficients[0] is the element stride; each following value multiplies
	// in one array dimension from the innermost outwards. The last value is
	// the total slot count.
	Coefficients []word.Exact
	Index        int
	NonFinal     bool
}

// Dims returns the number of index steps the path takes.
func (e *Entry) Dims() int {
	return len(e.Coefficients) - 1
}

// Total returns the number of slots the path occupies.
func (e *Entry) Total() word.Exact {
	return e.Coefficients[len(e.Coefficients)-1]
}

// Infinite reports whether the path is addressed by hashing.
func (e *Entry) Infinite() bool {
	return !e.Total().Less(word.TwoTo176)
}

// Layout is the storage table of one compilation unit.
type Layout struct {
	entries  map[string]*Entry
	order    []string
	offset   word.Exact
	declared int
}

// New creates an empty layout.
func New() *Layout {
	return &Layout{entries: map[string]*Entry{}, offset: word.NewExact(0)}
}

// Declare adds one top-level data declaration.
func (l *Layout) Declare(decl *tree.Node) error {
	index := l.declared
	l.declared++

	next, err := l.declare(decl, "", index, l.offset)
	if err != nil {
		return err
	}

	l.offset = next

	return nil
}

// Lookup returns the entry for a dotted key.
func (l *Layout) Lookup(key string) (*Entry, bool) {
	e, ok := l.entries[key]
	return e, ok
}

// Keys returns declared keys in declaration order.
func (l *Layout) Keys() []string {
	return l.order
}

// Size returns the number of finite slots allocated so far.
func (l *Layout) Size() word.Exact {
	return l.offset
}

func (l *Layout) declare(n *tree.Node, prefix string, index int, offset word.Exact) (word.Exact, error) {
	var (
		nameNode = n
		fields   []*tree.Node
		tuple    bool
	)

	if !n.IsLeaf() && !n.Is("access") {
		tuple = true

		if n.Value == "fun" {
			if len(n.Args) == 0 {
				return offset, snaplll.Errorf(n.Meta, snaplll.ErrStructural, "empty tuple declaration")
			}

			nameNode, fields = n.Args[0], n.Args[1:]
		} else {
			nameNode, fields = tree.NewLeaf(n.Value, n.Meta), n.Args
		}
	}

	name, dims, err := flattenAccess(nameNode)
	if err != nil {
		return offset, err
	}

	key := prefix + name
	if _, exists := l.entries[key]; exists {
		return offset, snaplll.Errorf(n.Meta, snaplll.ErrStructural, "storage variable %q declared twice", key)
	}

	entry := &Entry{Key: key, Offset: offset, Index: index, NonFinal: tuple}
	l.entries[key] = entry
	l.order = append(l.order, key)

	stride := word.NewExact(1)

	if tuple {
		sub := word.NewExact(0)
		for i, f := range fields {
			sub, err = l.declare(f, key+".", i, sub)
			if err != nil {
				return offset, err
			}
		}

		stride = sub
	}

	entry.Coefficients = []word.Exact{stride}
	for i := len(dims) - 1; i >= 0; i-- {
		entry.Coefficients = append(entry.Coefficients, entry.Total().Mul(dims[i]))
	}

	if entry.Infinite() {
		return offset, nil
	}

	return offset.Add(entry.Total()), nil
}

// flattenAccess turns (access (access x 3) 4) into "x", [3 4].
func flattenAccess(n *tree.Node) (string, []word.Exact, error) {
	if n.IsLeaf() {
		if tree.IsNumberLike(n) || strings.Contains(n.Value, ".") {
			return "", nil, snaplll.Errorf(n.Meta, snaplll.ErrStructural, "invalid storage variable name %q", n.Value)
		}

		return n.Value, nil, nil
	}

	if !n.Is("access") || len(n.Args) != 2 {
		return "", nil, snaplll.Errorf(n.Meta, snaplll.ErrStructural, "invalid storage declaration %s", n)
	}

	name, dims, err := flattenAccess(n.Args[0])
	if err != nil {
		return "", nil, err
	}

	size, err := Evaluate(n.Args[1])
	if err != nil {
		return "", nil, err
	}

	return name, append(dims, size), nil
}
