package layout

import (
	"github.com/shibukawa/snaplll"
	"github.com/shibukawa/snaplll/tree"
	"github.com/shibukawa/snaplll/word"
)

// Segment is one declared key along a path and the index expressions applied to it.
type Segment struct {
	Key     string
	Indices []*tree.Node
}

// Path is a parsed storage reference such as self.x[2].b[1].
type Path struct {
	Segments []Segment
	Meta     tree.Metadata
}

// ParsePath recognizes (. self name), (access P i) and (. P field) chains
// rooted at a declared variable. The boolean is false for anything else.
func (l *Layout) ParsePath(n *tree.Node) (Path, bool) {
	switch {
	case n.Is(".") && len(n.Args) == 2 && n.Args[1].IsLeaf():
		field := n.Args[1].Value

		if n.Args[0].IsLeafValue("self") {
			if _, ok := l.entries[field]; ok {
				return Path{Segments: []Segment{{Key: field}}, Meta: n.Meta}, true
			}

			return Path{}, false
		}

		p, ok := l.ParsePath(n.Args[0])
		if !ok {
			return Path{}, false
		}

		key := p.Segments[len(p.Segments)-1].Key + "." + field
		if _, ok := l.entries[key]; !ok {
			return Path{}, false
		}

		p.Segments = append(p.Segments, Segment{Key: key})
		p.Meta = n.Meta

		return p, true
	case n.Is("access") && len(n.Args) == 2:
		p, ok := l.ParsePath(n.Args[0])
		if !ok {
			return Path{}, false
		}

		last := &p.Segments[len(p.Segments)-1]
		last.Indices = append(last.Indices, n.Args[1])
		p.Meta = n.Meta

		return p, true
	}

	return Path{}, false
}

// Slot builds the expression computing the storage key of p. Finite paths
// give a closed-form sum; paths through an infinite key hash
// [declaration index, indices..., field position, indices...] through a
// scratch buffer named by buffer.
func (l *Layout) Slot(p Path, buffer string) (*tree.Node, error) {
	meta := p.Meta

	for i, seg := range p.Segments {
		e := l.entries[seg.Key]
		if len(seg.Indices) != e.Dims() {
			return nil, snaplll.Errorf(meta, snaplll.ErrAddressing,
				"%s takes %d index steps, got %d", seg.Key, e.Dims(), len(seg.Indices))
		}

		if i == len(p.Segments)-1 && e.NonFinal {
			return nil, snaplll.Errorf(meta, snaplll.ErrAddressing, "access not deep enough: %s is a tuple", seg.Key)
		}
	}

	if l.infinite(p) {
		return l.hashedSlot(p, buffer), nil
	}

	var (
		constant = word.NewExact(0)
		terms    []*tree.Node
	)

	for _, seg := range p.Segments {
		e := l.entries[seg.Key]
		constant = constant.Add(e.Offset)

		for k, idx := range seg.Indices {
			coef := e.Coefficients[e.Dims()-1-k]
			if v, err := word.ParseExact(idx.Value); idx.IsLeaf() && err == nil {
				constant = constant.Add(v.Mul(coef))
				continue
			}

			terms = append(terms, scale(idx, coef, meta))
		}
	}

	c, err := constant.Word()
	if err != nil {
		return nil, snaplll.Wrap(meta, snaplll.ErrArithmeticBound, err)
	}

	var result *tree.Node
	if !c.IsZero() || len(terms) == 0 {
		result = word.Leaf(c, meta)
	}

	for _, t := range terms {
		if result == nil {
			result = t
			continue
		}

		result = tree.NewCompound("add", meta, result, t)
	}

	return result, nil
}

// infinite reports whether any key along p is hash-addressed. An infinite
// field takes no slots inside its tuple, so it cannot be packed.
func (l *Layout) infinite(p Path) bool {
	for _, seg := range p.Segments {
		if l.entries[seg.Key].Infinite() {
			return true
		}
	}

	return false
}

func (l *Layout) hashedSlot(p Path, buffer string) *tree.Node {
	meta := p.Meta
	root := l.entries[p.Segments[0].Key]

	words := []*tree.Node{word.IntLeaf(uint64(root.Index), meta)}
	for i, seg := range p.Segments {
		if i > 0 {
			words = append(words, word.IntLeaf(uint64(l.entries[seg.Key].Index), meta))
		}

		words = append(words, seg.Indices...)
	}

	buf := func() *tree.Node { return tree.NewLeaf(buffer, meta) }

	body := make([]*tree.Node, 0, len(words)+1)
	for i, w := range words {
		addr := buf()
		if i > 0 {
			addr = tree.NewCompound("add", meta, buf(), word.IntLeaf(uint64(32*i), meta))
		}

		body = append(body, tree.NewCompound("mstore", meta, addr, w))
	}

	size := word.IntLeaf(uint64(32*len(words)), meta)
	body = append(body, tree.NewCompound("~sha3", meta, buf(), size))

	return tree.NewCompound("with", meta,
		tree.NewLeaf(buffer, meta),
		tree.NewCompound("alloc", meta, size.Clone()),
		tree.NewCompound("seq", meta, body...),
	)
}

func scale(idx *tree.Node, coef word.Exact, meta tree.Metadata) *tree.Node {
	if coef.Cmp(word.NewExact(1)) == 0 {
		return idx
	}

	c, _ := coef.Word()

	return tree.NewCompound("mul", meta, idx, word.Leaf(c, meta))
}
