package rewriter

import (
	"strings"

	"github.com/holiman/uint256"

	"github.com/shibukawa/snaplll"
	"github.com/shibukawa/snaplll/abi"
	"github.com/shibukawa/snaplll/layout"
	"github.com/shibukawa/snaplll/tree"
	"github.com/shibukawa/snaplll/word"
)

// build is a small tree constructor bound to one source location.
type build struct {
	meta tree.Metadata
}

func (b build) c(head string, args ...*tree.Node) *tree.Node {
	return tree.NewCompound(head, b.meta, args...)
}

func (b build) leaf(v string) *tree.Node {
	return tree.NewLeaf(v, b.meta)
}

func (b build) num(v uint64) *tree.Node {
	return word.IntLeaf(v, b.meta)
}

func (b build) word(v *uint256.Int) *tree.Node {
	return word.Leaf(v, b.meta)
}

// expandSelf turns a leaf such as self.x into (. self x) when x is a
// declared storage variable.
func (e *Engine) expandSelf(n *tree.Node) (*tree.Node, bool) {
	if e.prog == nil || !strings.HasPrefix(n.Value, "self.") {
		return n, false
	}

	parts := strings.Split(n.Value, ".")
	if _, ok := e.prog.Layout.Lookup(parts[1]); !ok {
		return n, false
	}

	out := tree.NewLeaf("self", n.Meta)
	for _, p := range parts[1:] {
		out = tree.NewCompound(".", n.Meta, out, tree.NewLeaf(p, n.Meta))
	}

	return out, true
}

// storagePath expands self leaves along an access chain and parses it.
func (e *Engine) storagePath(n *tree.Node) (layout.Path, bool) {
	if e.prog == nil {
		return layout.Path{}, false
	}

	return e.prog.Layout.ParsePath(e.expandChain(n))
}

func (e *Engine) expandChain(n *tree.Node) *tree.Node {
	switch {
	case n.IsLeaf():
		x, _ := e.expandSelf(n)
		return x
	case (n.Is("access") || n.Is(".")) && len(n.Args) == 2:
		return n.WithArgs([]*tree.Node{e.expandChain(n.Args[0]), n.Args[1]})
	}

	return n
}

func (e *Engine) storageRead(n *tree.Node) (*tree.Node, bool, error) {
	p, ok := e.storagePath(n)
	if !ok {
		return n, false, nil
	}

	slot, err := e.prog.Layout.Slot(p, e.names.Name("buf"))
	if err != nil {
		return nil, false, err
	}

	return tree.NewCompound("sload", n.Meta, slot), true, nil
}

func (e *Engine) storageWrite(n *tree.Node) (*tree.Node, bool, error) {
	if len(n.Args) != 2 || n.Args[0].IsLeaf() && !strings.HasPrefix(n.Args[0].Value, "self.") {
		return n, false, nil
	}

	p, ok := e.storagePath(n.Args[0])
	if !ok {
		return n, false, nil
	}

	slot, err := e.prog.Layout.Slot(p, e.names.Name("buf"))
	if err != nil {
		return nil, false, err
	}

	return tree.NewCompound("sstore", n.Meta, slot, n.Args[1]), true, nil
}

// arrayLiteral stores the elements after a length word and yields a
// pointer to the first element.
func (e *Engine) arrayLiteral(n *tree.Node) (*tree.Node, bool, error) {
	b := build{n.Meta}
	buf := e.names.Name("arr")
	count := uint64(len(n.Args))

	body := []*tree.Node{b.c("mstore", b.leaf(buf), b.num(count))}
	for i, a := range n.Args {
		body = append(body, b.c("mstore", b.c("add", b.leaf(buf), b.num(32*uint64(i+1))), a))
	}

	body = append(body, b.c("add", b.leaf(buf), b.num(32)))

	return b.c("with", b.leaf(buf), b.c("alloc", b.num(32*(count+1))), b.c("seq", body...)), true, nil
}

// text stores a string literal as a length-prefixed, right-padded buffer.
func (e *Engine) text(n *tree.Node) (*tree.Node, bool, error) {
	if len(n.Args) != 1 || !n.Args[0].IsLeaf() || !tree.IsQuoted(n.Args[0].Value) {
		return nil, false, snaplll.Errorf(n.Meta, snaplll.ErrStructural, "text expects one string literal")
	}

	b := build{n.Meta}
	raw := []byte(tree.Unquote(n.Args[0].Value))
	buf := e.names.Name("str")
	words := (len(raw) + 31) / 32

	body := []*tree.Node{b.c("mstore", b.leaf(buf), b.num(uint64(len(raw))))}
	for i := 0; i < words; i++ {
		var chunk [32]byte
		copy(chunk[:], raw[32*i:])

		body = append(body, b.c("mstore",
			b.c("add", b.leaf(buf), b.num(32*uint64(i+1))),
			b.word(new(uint256.Int).SetBytes32(chunk[:]))))
	}

	body = append(body, b.c("add", b.leaf(buf), b.num(32)))

	return b.c("with", b.leaf(buf), b.c("alloc", b.num(32*uint64(words+1))), b.c("seq", body...)), true, nil
}

// prefix reduces (prefix (. obj method)) to the method selector shifted
// into the high bytes of a word.
func (e *Engine) prefix(n *tree.Node) (*tree.Node, bool, error) {
	if len(n.Args) != 1 {
		return n, false, nil
	}

	obj, method, ok := splitMember(n.Args[0])
	if !ok {
		return n, false, nil
	}

	fn, err := e.resolve(n.Meta, obj, method, "")
	if err != nil {
		return nil, false, err
	}

	return word.Leaf(abi.PrefixWord(fn.Selector), n.Meta), true, nil
}

// splitMember reads (. obj method) or a leaf obj.method.
func splitMember(n *tree.Node) (*tree.Node, string, bool) {
	if n.Is(".") && len(n.Args) == 2 && n.Args[1].IsLeaf() {
		return n.Args[0], n.Args[1].Value, true
	}

	if n.IsLeaf() && isDottedHead(n.Value) {
		i := strings.LastIndexByte(n.Value, '.')
		return tree.NewLeaf(n.Value[:i], n.Meta), n.Value[i+1:], true
	}

	return nil, "", false
}

// log emits a raw log of up to four topics, or a typed event log when a
// (= type Name) keyword names a declared event.
func (e *Engine) log(n *tree.Node) (*tree.Node, bool, error) {
	b := build{n.Meta}

	var (
		positional []*tree.Node
		data       *tree.Node
		eventName  string
	)

	for _, a := range n.Args {
		if !a.Is("=") || len(a.Args) != 2 || !a.Args[0].IsLeaf() {
			positional = append(positional, a)
			continue
		}

		switch a.Args[0].Value {
		case "data":
			data = a.Args[1]
		case "type":
			eventName = a.Args[1].Value
		default:
			return nil, false, snaplll.Errorf(a.Meta, snaplll.ErrStructural, "unknown log keyword %s", a.Args[0].Value)
		}
	}

	if eventName != "" {
		return e.eventLog(n, eventName, positional)
	}

	if len(positional) > 4 {
		return nil, false, snaplll.Errorf(n.Meta, snaplll.ErrStructural, "log takes at most 4 topics, got %d", len(positional))
	}

	op := "~log" + string(rune('0'+len(positional)))

	if data == nil {
		return b.c(op, append([]*tree.Node{b.num(0), b.num(0)}, positional...)...), true, nil
	}

	d := e.names.Name("data")
	size := b.c("mul", b.num(32), b.c("len", b.leaf(d)))

	return b.c("with", b.leaf(d), data, b.c(op, append([]*tree.Node{b.leaf(d), size}, positional...)...)), true, nil
}

func (e *Engine) eventLog(n *tree.Node, name string, args []*tree.Node) (*tree.Node, bool, error) {
	var ev *abi.Event
	if e.prog != nil {
		ev = e.prog.Events[name]
	}

	if ev == nil {
		return nil, false, snaplll.Errorf(n.Meta, snaplll.ErrStructural, "unknown event %s", name)
	}

	if len(args) != len(ev.ArgTypes) {
		return nil, false, snaplll.Errorf(n.Meta, snaplll.ErrStructural,
			"event %s takes %d arguments, got %d", name, len(ev.ArgTypes), len(args))
	}

	b := build{n.Meta}
	topics := []*tree.Node{b.word(new(uint256.Int).SetBytes32(ev.Topic[:]))}

	var (
		data  []*tree.Node
		types []abi.Type
	)

	for i, a := range args {
		t := ev.ArgTypes[i]

		switch {
		case !ev.Indexed[i]:
			data = append(data, a)
			types = append(types, t)
		case t.IsVariable():
			p := e.names.Name("topic")
			topics = append(topics, b.c("with", b.leaf(p), a, b.c("~sha3", b.leaf(p), b.c("len", b.leaf(p)))))
		default:
			topics = append(topics, a)
		}
	}

	op := "~log" + string(rune('0'+len(topics)))
	packer := &abi.Packer{Names: e.names, Meta: n.Meta}

	out, err := packer.Pack(data, types, nil, func(start, size *tree.Node) *tree.Node {
		return b.c(op, append([]*tree.Node{start, size}, topics...)...)
	})
	if err != nil {
		return nil, false, snaplll.Wrap(n.Meta, snaplll.ErrCallABI, err)
	}

	return out, true, nil
}
