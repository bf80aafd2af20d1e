package word

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Exact is a non-negative integer of unbounded size.
type Exact struct {
	d decimal.Decimal
}

// NewExact wraps a small integer.
func NewExact(v uint64) Exact {
	return FromBig(new(big.Int).SetUint64(v))
}

// FromBig wraps a big.Int.
func FromBig(b *big.Int) Exact {
	return Exact{d: decimal.NewFromBigInt(b, 0)}
}

// Pow2 returns 2^n.
func Pow2(n uint) Exact {
	return FromBig(new(big.Int).Lsh(big.NewInt(1), n))
}

func (e Exact) Add(o Exact) Exact {
	return Exact{d: e.d.Add(o.d)}
}

// Sub returns e-o, or ErrNegative when o > e.
func (e Exact) Sub(o Exact) (Exact, error) {
	if e.Cmp(o) < 0 {
		return Exact{}, fmt.Errorf("%w: %s - %s", ErrNegative, e, o)
	}

	return Exact{d: e.d.Sub(o.d)}, nil
}

func (e Exact) Mul(o Exact) Exact {
	return Exact{d: e.d.Mul(o.d)}
}

// QuoRem returns the truncated quotient and remainder.
func (e Exact) QuoRem(o Exact) (Exact, Exact, error) {
	if o.IsZero() {
		return Exact{}, Exact{}, ErrDivisionByZero
	}

	q, r := new(big.Int).QuoRem(e.Big(), o.Big(), new(big.Int))

	return FromBig(q), FromBig(r), nil
}

// Pow computes e^o exactly, refusing operands that would blow up.
func (e Exact) Pow(o Exact) (Exact, error) {
	if err := CheckExponent(e, o); err != nil {
		return Exact{}, err
	}

	return FromBig(new(big.Int).Exp(e.Big(), o.Big(), nil)), nil
}

// CheckExponent applies the folding safety bounds for base^exponent: the
// exponent may have at most five digits, and digits(base) times the exponent
// may not exceed 33333.
func CheckExponent(base, exponent Exact) error {
	if base.Cmp(NewExact(1)) <= 0 {
		return nil
	}

	digits := len(exponent.String())
	if digits > 5 {
		return fmt.Errorf("%w: exponent %s has more than 5 digits", ErrExponentTooLarge, exponent)
	}

	n := exponent.Big().Int64()
	if int64(len(base.String()))*n > 33333 {
		return fmt.Errorf("%w: %s ^ %s", ErrExponentTooLarge, base, exponent)
	}

	return nil
}

func (e Exact) Cmp(o Exact) int {
	return e.d.Cmp(o.d)
}

func (e Exact) Less(o Exact) bool {
	return e.Cmp(o) < 0
}

func (e Exact) IsZero() bool {
	return e.d.IsZero()
}

func (e Exact) Big() *big.Int {
	return e.d.BigInt()
}

// Word converts to a machine word, failing with ErrTooLarge at 2^256 or above.
func (e Exact) Word() (*uint256.Int, error) {
	w, overflow := uint256.FromBig(e.Big())
	if overflow {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, e)
	}

	return w, nil
}

// Uint64 returns the value when it fits, for sizes and indexes.
func (e Exact) Uint64() (uint64, bool) {
	b := e.Big()
	if !b.IsUint64() {
		return 0, false
	}

	return b.Uint64(), true
}

// String returns the decimal representation.
func (e Exact) String() string {
	return e.d.String()
}
