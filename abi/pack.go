package abi

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/shibukawa/snaplll/tree"
	"github.com/shibukawa/snaplll/word"
)

var (
	ErrTooManyArguments = errors.New("too many arguments")
	ErrMissingArguments = errors.New("missing arguments")
	ErrUnsizedArgument  = errors.New("variable-length argument needs an array or string value")
)

// Continuation receives the start and size expressions of a packed region.
type Continuation func(start, size *tree.Node) *tree.Node

// Packer builds argument-packing trees. Temporary names come from Names.
type Packer struct {
	Names *tree.NameGen
	Meta  tree.Metadata
}

// Pack lays out args according to types, optionally behind a 4-byte
// selector, and passes the region to cont.
//
// Without variable-length arguments the region is prefix + 32 bytes per
// argument. Otherwise a head holding each fixed word and an (offset, length)
// pair per variable argument is built first, then copied into a region of
// head size plus payload size, followed by each payload at its offset.
// Offsets count from the first byte after the selector. Lengths are bytes
// for byte strings and items for element arrays. A quoted literal passed as
// a byte string is wrapped in (text ...) so it gets a length word.
func (p *Packer) Pack(args []*tree.Node, types []Type, prefix *[4]byte, cont Continuation) (*tree.Node, error) {
	if len(args) > len(types) {
		return nil, fmt.Errorf("%w: got %d, signature takes %d", ErrTooManyArguments, len(args), len(types))
	}

	if len(args) < len(types) {
		return nil, fmt.Errorf("%w: got %d, signature takes %d", ErrMissingArguments, len(args), len(types))
	}

	variable := 0
	args = append([]*tree.Node(nil), args...)

	for i, t := range types {
		if !t.IsVariable() {
			continue
		}

		variable++

		a := args[i]
		if !a.IsLeaf() || !tree.IsNumberLike(a) {
			continue
		}

		// a string literal has a known length; store it as a text buffer
		if t.Tag == ByteString && tree.IsQuoted(a.Value) {
			args[i] = tree.NewCompound("text", a.Meta, a)
			continue
		}

		return nil, fmt.Errorf("%w: argument %d is %s", ErrUnsizedArgument, i+1, a)
	}

	if variable == 0 {
		return p.packFixed(args, prefix, cont), nil
	}

	return p.packGeneral(args, types, prefix, cont), nil
}

func (p *Packer) packFixed(args []*tree.Node, prefix *[4]byte, cont Continuation) *tree.Node {
	b := builder{p.Meta}
	region := p.Names.Name("args")
	pfx := prefixSize(prefix)
	size := b.num(uint64(pfx + 32*len(args)))

	body := []*tree.Node{}
	if prefix != nil {
		body = append(body, b.c("mstore", b.leaf(region), b.word(PrefixWord(*prefix))))
	}

	for i, a := range args {
		body = append(body, b.c("mstore", b.offset(region, pfx+32*i), a))
	}

	body = append(body, cont(b.leaf(region), size.Clone()))

	return b.c("with", b.leaf(region), b.c("alloc", size), b.c("seq", body...))
}

func (p *Packer) packGeneral(args []*tree.Node, types []Type, prefix *[4]byte, cont Continuation) *tree.Node {
	b := builder{p.Meta}
	pfx := prefixSize(prefix)

	slots := 0
	for _, t := range types {
		slots++
		if t.IsVariable() {
			slots++
		}
	}

	headArgs := 32 * slots
	headSize := pfx + headArgs

	head := p.Names.Name("head")
	region := p.Names.Name("region")
	total := p.Names.Name("size")

	var (
		body     []*tree.Node
		pointers []string
		byteLens []string
		offsets  []*tree.Node
	)

	body = append(body, b.c("set", b.leaf(head), b.c("alloc", b.num(uint64(headSize)))))
	if prefix != nil {
		body = append(body, b.c("mstore", b.leaf(head), b.word(PrefixWord(*prefix))))
	}

	offset := b.num(uint64(headArgs))
	slot := 0

	for i, a := range args {
		at := pfx + 32*slot
		if !types[i].IsVariable() {
			body = append(body, b.c("mstore", b.offset(head, at), a))
			slot++

			continue
		}

		ptr, length, size := p.Names.Name("ptr"), p.Names.Name("len"), p.Names.Name("bytes")
		pointers = append(pointers, ptr)
		byteLens = append(byteLens, size)
		offsets = append(offsets, offset)

		byteCount := b.leaf(length)
		if types[i].Tag == ElementArray {
			byteCount = b.c("mul", b.num(32), b.leaf(length))
		}

		body = append(body,
			b.c("set", b.leaf(ptr), a),
			b.c("set", b.leaf(length), b.c("mload", b.c("sub", b.leaf(ptr), b.num(32)))),
			b.c("set", b.leaf(size), byteCount),
			b.c("mstore", b.offset(head, at), offset.Clone()),
			b.c("mstore", b.offset(head, at+32), b.leaf(length)),
		)

		offset = b.c("add", offset.Clone(), b.leaf(size))
		slot += 2
	}

	body = append(body,
		b.c("set", b.leaf(total), b.plus(pfx, offset)),
		b.c("set", b.leaf(region), b.c("alloc", b.leaf(total))),
		b.c("unsafe_mcopy", b.leaf(region), b.leaf(head), b.num(uint64(headSize))),
	)

	for j, ptr := range pointers {
		dest := b.c("add", b.leaf(region), b.plus(pfx, offsets[j].Clone()))
		body = append(body, b.c("unsafe_mcopy", dest, b.leaf(ptr), b.leaf(byteLens[j])))
	}

	body = append(body, cont(b.leaf(region), b.leaf(total)))

	return b.c("seq", body...)
}

// Unpack builds the callee-side prologue binding each argument name.
// Fixed words are loaded from the call input; variable-length arguments
// become a pointer into the memory copy of the input (msg.data) plus a
// companion __len_<name> variable.
func (p *Packer) Unpack(names []string, types []Type) *tree.Node {
	b := builder{p.Meta}
	body := []*tree.Node{}
	slot := 0

	for i, name := range names {
		at := b.num(uint64(4 + 32*slot))
		if !types[i].IsVariable() {
			body = append(body, b.c("set", b.leaf(name), b.c("calldataload", at)))
			slot++

			continue
		}

		ptr := b.c("add", b.c("get", b.leaf("msg.data")), b.c("add", b.num(4), b.c("calldataload", at)))
		body = append(body,
			b.c("set", b.leaf(name), ptr),
			b.c("set", b.leaf(LengthName(name)), b.c("calldataload", b.num(uint64(4+32*(slot+1))))),
		)
		slot += 2
	}

	return b.c("seq", body...)
}

// LengthName is the variable holding the length of a variable-length argument.
func LengthName(name string) string {
	return "__len_" + name
}

// PrefixWord places a selector in the four high bytes of a word.
func PrefixWord(sel [4]byte) *uint256.Int {
	var buf [32]byte
	copy(buf[:4], sel[:])

	return new(uint256.Int).SetBytes(buf[:])
}

func prefixSize(prefix *[4]byte) int {
	if prefix == nil {
		return 0
	}

	return 4
}

type builder struct {
	meta tree.Metadata
}

func (b builder) c(head string, args ...*tree.Node) *tree.Node {
	return tree.NewCompound(head, b.meta, args...)
}

func (b builder) leaf(v string) *tree.Node {
	return tree.NewLeaf(v, b.meta)
}

func (b builder) num(v uint64) *tree.Node {
	return word.IntLeaf(v, b.meta)
}

func (b builder) word(v *uint256.Int) *tree.Node {
	return word.Leaf(v, b.meta)
}

func (b builder) offset(base string, at int) *tree.Node {
	if at == 0 {
		return b.leaf(base)
	}

	return b.c("add", b.leaf(base), b.num(uint64(at)))
}

func (b builder) plus(n int, e *tree.Node) *tree.Node {
	if n == 0 {
		return e
	}

	return b.c("add", b.num(uint64(n)), e)
}
