package word

import (
	"github.com/holiman/uint256"
)

// FoldBinary evaluates a binary arithmetic opcode on two literal words.
// The second result is false when the operation must be left to run time:
// negative subtraction, division by zero and signed operands outside the
// non-negative signed range.
func FoldBinary(op string, a, b *uint256.Int) (*uint256.Int, bool, error) {
	z := new(uint256.Int)

	switch op {
	case "add":
		return z.Add(a, b), true, nil
	case "mul":
		return z.Mul(a, b), true, nil
	case "sub":
		if a.Lt(b) {
			return nil, false, nil
		}

		return z.Sub(a, b), true, nil
	case "div", "mod":
		if b.IsZero() {
			return nil, false, nil
		}

		if op == "div" {
			return z.Div(a, b), true, nil
		}

		return z.Mod(a, b), true, nil
	case "sdiv", "smod":
		limit, _ := TwoTo255.Word()
		if b.IsZero() || !a.Lt(limit) || !b.Lt(limit) {
			return nil, false, nil
		}

		if op == "sdiv" {
			return z.Div(a, b), true, nil
		}

		return z.Mod(a, b), true, nil
	case "exp":
		if err := CheckExponent(FromWord(a), FromWord(b)); err != nil {
			return nil, false, err
		}

		return z.Exp(a, b), true, nil
	}

	return nil, false, nil
}

// Foldable reports whether op is one of the arithmetic opcodes FoldBinary knows.
func Foldable(op string) bool {
	switch op {
	case "add", "mul", "sub", "div", "mod", "sdiv", "smod", "exp":
		return true
	}

	return false
}
