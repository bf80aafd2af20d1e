// Package word implements the two integer domains the compiler needs:
// 256-bit machine words with wraparound and exact unbounded integers.
package word

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/shibukawa/snaplll/tree"
)

var (
	// ErrNotNumeric is returned when a leaf is not a numeric literal.
	ErrNotNumeric = errors.New("not a numeric literal")
	// ErrTooLarge is returned when a value does not fit in 256 bits.
	ErrTooLarge = errors.New("value too large")
	// ErrExponentTooLarge is returned when an exponentiation exceeds the safety bounds.
	ErrExponentTooLarge = errors.New("exponent too large")
	// ErrNegative is returned when an exact subtraction would go below zero.
	ErrNegative = errors.New("negative result")
	// ErrDivisionByZero is returned by exact division with a zero divisor.
	ErrDivisionByZero = errors.New("division by zero")
)

// Bounds used by folding and the storage layout.
var (
	TwoTo256 = Pow2(256)
	TwoTo255 = Pow2(255)
	TwoTo176 = Pow2(176)
	TwoTo224 = Pow2(224)
)

// Parse reads the text of a numeric leaf as a machine word.
func Parse(s string) (*uint256.Int, error) {
	e, err := ParseExact(s)
	if err != nil {
		return nil, err
	}

	return e.Word()
}

// ParseExact reads decimal, 0x-hex and quoted literals without any bound.
// Quoted literals are read as big-endian bytes and may hold at most 32 bytes.
func ParseExact(s string) (Exact, error) {
	switch {
	case tree.IsQuoted(s):
		raw := tree.Unquote(s)
		if len(raw) > 32 {
			return Exact{}, fmt.Errorf("%w: string literal %s longer than 32 bytes", ErrTooLarge, s)
		}

		return FromBig(new(big.Int).SetBytes([]byte(raw))), nil
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		b, ok := new(big.Int).SetString(s[2:], 16)
		if !ok {
			return Exact{}, fmt.Errorf("%w: %q", ErrNotNumeric, s)
		}

		return FromBig(b), nil
	}

	if !tree.IsNumberText(s) {
		return Exact{}, fmt.Errorf("%w: %q", ErrNotNumeric, s)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Exact{}, fmt.Errorf("%w: %q", ErrNotNumeric, s)
	}

	return Exact{d: d}, nil
}

// FromWord converts a machine word to an exact integer.
func FromWord(w *uint256.Int) Exact {
	return FromBig(w.ToBig())
}

// Bytes returns the minimal big-endian encoding of w. Zero encodes as no bytes.
func Bytes(w *uint256.Int) []byte {
	return w.Bytes()
}

// Text renders a word the way the compiler writes literal leaves.
func Text(w *uint256.Int) string {
	return w.Dec()
}

// Leaf builds a numeric leaf for w.
func Leaf(w *uint256.Int, meta tree.Metadata) *tree.Node {
	return tree.NewLeaf(Text(w), meta)
}

// IntLeaf builds a numeric leaf for a small non-negative integer.
func IntLeaf(v uint64, meta tree.Metadata) *tree.Node {
	return tree.NewLeaf(uint256.NewInt(v).Dec(), meta)
}
