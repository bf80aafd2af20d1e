package layout

import (
	"github.com/shibukawa/snaplll"
	"github.com/shibukawa/snaplll/tree"
	"github.com/shibukawa/snaplll/word"
)

// Evaluate folds a constant size expression with exact arithmetic. Unlike
// word folding the result is not reduced modulo 2^256.
func Evaluate(n *tree.Node) (word.Exact, error) {
	if n.IsLeaf() {
		v, err := word.ParseExact(n.Value)
		if err != nil {
			return word.Exact{}, snaplll.Errorf(n.Meta, snaplll.ErrStructural, "array size must be a fixed value, got %s", n)
		}

		return v, nil
	}

	if len(n.Args) != 2 {
		return word.Exact{}, snaplll.Errorf(n.Meta, snaplll.ErrStructural, "array size must be a fixed value, got %s", n)
	}

	a, err := Evaluate(n.Args[0])
	if err != nil {
		return word.Exact{}, err
	}

	b, err := Evaluate(n.Args[1])
	if err != nil {
		return word.Exact{}, err
	}

	switch n.Value {
	case "+", "add":
		return a.Add(b), nil
	case "*", "mul":
		return a.Mul(b), nil
	case "-", "sub":
		v, err := a.Sub(b)
		if err != nil {
			return word.Exact{}, snaplll.Wrap(n.Meta, snaplll.ErrArithmeticBound, err)
		}

		return v, nil
	case "/", "div", "sdiv":
		q, _, err := a.QuoRem(b)
		if err != nil {
			return word.Exact{}, snaplll.Wrap(n.Meta, snaplll.ErrArithmeticBound, err)
		}

		return q, nil
	case "^", "**", "exp":
		v, err := a.Pow(b)
		if err != nil {
			return word.Exact{}, snaplll.Wrap(n.Meta, snaplll.ErrArithmeticBound, err)
		}

		return v, nil
	}

	return word.Exact{}, snaplll.Errorf(n.Meta, snaplll.ErrStructural, "array size must be a fixed value, got %s", n)
}
