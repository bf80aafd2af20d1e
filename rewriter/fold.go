package rewriter

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/shibukawa/snaplll"
	"github.com/shibukawa/snaplll/tree"
	"github.com/shibukawa/snaplll/word"
)

// Fold replaces binary arithmetic on two literals by its result,
// bottom-up. Operations the machine must see at run time (negative
// subtraction, division by zero, signed operands) are left alone.
func Fold(n *tree.Node) (*tree.Node, error) {
	if n.IsLeaf() || n.Is("get") || n.Is("ref") {
		return n, nil
	}

	args := make([]*tree.Node, len(n.Args))
	for i, a := range n.Args {
		f, err := Fold(a)
		if err != nil {
			return nil, err
		}

		args[i] = f
	}

	out := n.WithArgs(args)
	if len(args) != 2 || !word.Foldable(n.Value) || !tree.IsNumberLike(args[0]) || !tree.IsNumberLike(args[1]) {
		return out, nil
	}

	a, err := literal(args[0])
	if err != nil {
		return nil, err
	}

	b, err := literal(args[1])
	if err != nil {
		return nil, err
	}

	v, ok, err := word.FoldBinary(n.Value, a, b)
	if err != nil {
		return nil, snaplll.Wrap(n.Meta, snaplll.ErrArithmeticBound, err)
	}

	if !ok {
		return out, nil
	}

	return word.Leaf(v, n.Meta), nil
}

func literal(n *tree.Node) (*uint256.Int, error) {
	w, err := word.Parse(n.Value)
	if err != nil {
		if errors.Is(err, word.ErrTooLarge) {
			return nil, snaplll.Wrap(n.Meta, snaplll.ErrArithmeticBound, err)
		}

		return nil, snaplll.Wrap(n.Meta, snaplll.ErrValidation, err)
	}

	return w, nil
}
