package rewriter

import (
	"strings"

	"github.com/shibukawa/snaplll"
	"github.com/shibukawa/snaplll/abi"
	"github.com/shibukawa/snaplll/tree"
)

// CallOptions are the keyword arguments of a dotted call.
type CallOptions struct {
	Gas      *tree.Node // default (sub (gas) 25)
	Value    *tree.Node // default 0
	As       string     // restricts lookup to one extern declaration
	CallCode bool       // (= call code) selects callcode
	OutItems *tree.Node // words returned by an array-returning method
	OutChars *tree.Node // bytes returned by a string-returning method
}

// ParseCallOptions splits args into keyword options and positional arguments
// in a single pass.
func ParseCallOptions(meta tree.Metadata, args []*tree.Node) (CallOptions, []*tree.Node, error) {
	var (
		opts       CallOptions
		positional []*tree.Node
	)

	for _, a := range args {
		if !a.Is("=") || len(a.Args) != 2 || !a.Args[0].IsLeaf() {
			positional = append(positional, a)
			continue
		}

		v := a.Args[1]

		switch a.Args[0].Value {
		case "gas":
			opts.Gas = v
		case "value":
			opts.Value = v
		case "as":
			opts.As = v.Value
		case "call":
			if !v.IsLeafValue("code") {
				return opts, nil, snaplll.Errorf(a.Meta, snaplll.ErrCallABI, "call= only accepts code, got %s", v)
			}

			opts.CallCode = true
		case "outitems":
			opts.OutItems = v
		case "outchars":
			opts.OutChars = v
		default:
			return opts, nil, snaplll.Errorf(a.Meta, snaplll.ErrCallABI, "unknown call keyword %s", a.Args[0].Value)
		}
	}

	b := build{meta}
	if opts.Gas == nil {
		opts.Gas = b.c("sub", b.c("gas"), b.num(25))
	}

	if opts.Value == nil {
		opts.Value = b.num(0)
	}

	return opts, positional, nil
}

// funCall handles (fun (. obj method) args...).
func (e *Engine) funCall(n *tree.Node) (*tree.Node, bool, error) {
	if len(n.Args) == 0 {
		return n, false, nil
	}

	obj, method, ok := splitMember(n.Args[0])
	if !ok {
		return n, false, nil
	}

	return e.call(n, obj, method, n.Args[1:])
}

// dottedCall handles (obj.method args...).
func (e *Engine) dottedCall(n *tree.Node) (*tree.Node, bool, error) {
	i := strings.LastIndexByte(n.Value, '.')
	obj := tree.NewLeaf(n.Value[:i], n.Meta)

	return e.call(n, obj, n.Value[i+1:], n.Args)
}

func (e *Engine) resolve(meta tree.Metadata, obj *tree.Node, method, group string) (*abi.Function, error) {
	if e.prog == nil {
		return nil, snaplll.Errorf(meta, snaplll.ErrCallABI, "no function table for %s", method)
	}

	self := obj.IsLeafValue("self")

	fn, ok := e.prog.LookupFunction(self, group, method)
	if !ok {
		return nil, snaplll.Errorf(meta, snaplll.ErrCallABI, "unknown function %s.%s", obj, method)
	}

	if fn.Ambiguous {
		return nil, snaplll.Errorf(meta, snaplll.ErrCallABI,
			"%s is ambiguous between externs; call it as %s::<selector>", method, method)
	}

	return fn, nil
}

func (e *Engine) call(n *tree.Node, obj *tree.Node, method string, args []*tree.Node) (*tree.Node, bool, error) {
	opts, positional, err := ParseCallOptions(n.Meta, args)
	if err != nil {
		return nil, false, err
	}

	fn, err := e.resolve(n.Meta, obj, method, opts.As)
	if err != nil {
		return nil, false, err
	}

	b := build{n.Meta}

	target := obj
	if obj.IsLeafValue("self") {
		target = b.c("address")
	}

	op := "~call"
	if opts.CallCode {
		op = "~callcode"
	}

	var items *tree.Node

	switch {
	case fn.Return == nil || !fn.Return.IsVariable():
	case fn.Return.Tag == abi.ElementArray:
		if opts.OutItems == nil {
			return nil, false, snaplll.Errorf(n.Meta, snaplll.ErrCallABI, "%s returns an array; pass (= outitems n)", method)
		}

		items = opts.OutItems
	default:
		if opts.OutChars == nil {
			return nil, false, snaplll.Errorf(n.Meta, snaplll.ErrCallABI, "%s returns a string; pass (= outchars n)", method)
		}

		items = opts.OutChars
	}

	cont := func(start, size *tree.Node) *tree.Node {
		invoke := func(out, outSize *tree.Node) *tree.Node {
			return b.c(op, opts.Gas, target, opts.Value, start, size, out, outSize)
		}

		if fn.Return == nil {
			return invoke(b.num(0), b.num(0))
		}

		out := e.names.Name("out")
		if items == nil {
			return b.c("with", b.leaf(out), b.c("alloc", b.num(32)), b.c("seq",
				b.c("pop", invoke(b.leaf(out), b.num(32))),
				b.c("mload", b.leaf(out))))
		}

		// length word at out, payload after it
		length := e.names.Name("outlen")
		bytes := b.leaf(length)
		if fn.Return.Tag == abi.ElementArray {
			bytes = b.c("mul", b.num(32), b.leaf(length))
		}

		return b.c("with", b.leaf(length), items, b.c("with", b.leaf(out), b.c("alloc", b.c("add", b.num(32), bytes)), b.c("seq",
			b.c("mstore", b.leaf(out), b.leaf(length)),
			b.c("pop", invoke(b.c("add", b.leaf(out), b.num(32)), bytes.Clone())),
			b.c("add", b.leaf(out), b.num(32)))))
	}

	packer := &abi.Packer{Names: e.names, Meta: n.Meta}
	sel := fn.Selector

	out, err := packer.Pack(positional, fn.ArgTypes, &sel, cont)
	if err != nil {
		return nil, false, snaplll.Wrap(n.Meta, snaplll.ErrCallABI, err)
	}

	return out, true, nil
}
