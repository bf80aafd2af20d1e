package preprocess

import (
	"github.com/shibukawa/snaplll/abi"
	"github.com/shibukawa/snaplll/tree"
)

type inference struct {
	found        *abi.Type
	inconsistent bool
}

// inferReturn derives a function's return type from its return forms.
// Functions without one return nothing. Mixed kinds fall back to int256
// with a warning.
func (s *scanner) inferReturn(name string, body *tree.Node) *abi.Type {
	in := &inference{}
	in.visit(body)

	if in.inconsistent {
		s.warnings.Add(body.Meta, "function %s returns values of different types; assuming int256", name)

		t := abi.Int256

		return &t
	}

	return in.found
}

func (in *inference) visit(n *tree.Node) {
	if n.IsLeaf() || n.Is("def") {
		return
	}

	if n.Is("return") {
		in.add(returnKind(n))
	}

	for _, a := range n.Args {
		in.visit(a)
	}
}

func (in *inference) add(t abi.Type) {
	if in.found == nil {
		in.found = &t
		return
	}

	if in.found.Name != t.Name {
		in.inconsistent = true
	}
}

// returnKind maps (return x), (return x (= items n)) and
// (return x (= chars n)). Two plain arguments return a run of words.
func returnKind(n *tree.Node) abi.Type {
	if len(n.Args) < 2 {
		return abi.Int256
	}

	if kw := n.Args[1]; kw.Is("=") && len(kw.Args) == 2 && kw.Args[0].IsLeafValue("chars") {
		return abi.Bytes
	}

	return abi.IntArray
}
