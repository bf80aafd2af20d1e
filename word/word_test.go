package word

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/holiman/uint256"

	"github.com/shibukawa/snaplll/tree"
)

func TestParse(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		{"0", "0"},
		{"42", "42"},
		{"0xff", "255"},
		{`"a"`, "97"},
		{"115792089237316195423570985008687907853269984665640564039457584007913129639935", "115792089237316195423570985008687907853269984665640564039457584007913129639935"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			w, err := Parse(tt.text)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, Text(w))
		})
	}

	_, err := Parse("115792089237316195423570985008687907853269984665640564039457584007913129639936")
	assert.True(t, errors.Is(err, ErrTooLarge))

	_, err = Parse("abc")
	assert.True(t, errors.Is(err, ErrNotNumeric))

	_, err = Parse(`"0123456789012345678901234567890123"`)
	assert.True(t, errors.Is(err, ErrTooLarge))
}

func TestFoldBinary(t *testing.T) {
	tests := []struct {
		op       string
		a, b     uint64
		expected string
		folded   bool
	}{
		{"add", 2, 3, "5", true},
		{"mul", 4, 5, "20", true},
		{"sub", 5, 3, "2", true},
		{"sub", 3, 5, "", false},
		{"div", 7, 2, "3", true},
		{"div", 7, 0, "", false},
		{"mod", 7, 3, "1", true},
		{"sdiv", 9, 3, "3", true},
		{"smod", 9, 0, "", false},
		{"exp", 2, 8, "256", true},
		{"lt", 1, 2, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			v, ok, err := FoldBinary(tt.op, uint256.NewInt(tt.a), uint256.NewInt(tt.b))
			assert.NoError(t, err)
			assert.Equal(t, tt.folded, ok)

			if ok {
				assert.Equal(t, tt.expected, Text(v))
			}
		})
	}

	_, _, err := FoldBinary("exp", uint256.NewInt(10), uint256.NewInt(100000))
	assert.True(t, errors.Is(err, ErrExponentTooLarge))

	// wraparound for add
	top, _ := TwoTo256.Sub(NewExact(1))
	w, err := top.Word()
	assert.NoError(t, err)

	v, ok, err := FoldBinary("add", w, uint256.NewInt(1))
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "0", Text(v))
}

func TestFoldBinaryWordBoundaries(t *testing.T) {
	half := new(uint256.Int).Lsh(uint256.NewInt(1), 255)
	belowHalf := new(uint256.Int).Sub(half, uint256.NewInt(1))
	top := new(uint256.Int).SetAllOne()

	tests := []struct {
		name     string
		op       string
		a, b     *uint256.Int
		expected string
		folded   bool
	}{
		{name: "mul wraps to zero", op: "mul", a: half, b: uint256.NewInt(2), expected: "0", folded: true},
		{
			name: "mul wraps below top", op: "mul", a: top, b: uint256.NewInt(2),
			expected: "115792089237316195423570985008687907853269984665640564039457584007913129639934", folded: true,
		},
		{
			name: "sdiv just below half", op: "sdiv", a: belowHalf, b: uint256.NewInt(1),
			expected: "57896044618658097711785492504343953926634992332820282019728792003956564819967", folded: true,
		},
		{name: "sdiv dividend at half", op: "sdiv", a: half, b: uint256.NewInt(1)},
		{name: "sdiv divisor at half", op: "sdiv", a: uint256.NewInt(9), b: half},
		{name: "smod dividend at half", op: "smod", a: half, b: uint256.NewInt(7)},
		{name: "smod divisor above half", op: "smod", a: uint256.NewInt(9), b: top},
		{
			name: "exp just below the word size", op: "exp", a: uint256.NewInt(2), b: uint256.NewInt(255),
			expected: "57896044618658097711785492504343953926634992332820282019728792003956564819968", folded: true,
		},
		{name: "exp wraps to zero", op: "exp", a: uint256.NewInt(2), b: uint256.NewInt(256), expected: "0", folded: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok, err := FoldBinary(tt.op, tt.a, tt.b)
			assert.NoError(t, err)
			assert.Equal(t, tt.folded, ok)

			if ok {
				assert.Equal(t, tt.expected, Text(v))
			}
		})
	}
}

func TestExact(t *testing.T) {
	a := NewExact(10)

	_, err := NewExact(3).Sub(a)
	assert.True(t, errors.Is(err, ErrNegative))

	q, r, err := a.QuoRem(NewExact(3))
	assert.NoError(t, err)
	assert.Equal(t, "3", q.String())
	assert.Equal(t, "1", r.String())

	_, _, err = a.QuoRem(NewExact(0))
	assert.True(t, errors.Is(err, ErrDivisionByZero))

	p, err := NewExact(2).Pow(NewExact(200))
	assert.NoError(t, err)
	assert.Equal(t, Pow2(200).String(), p.String())

	_, err = TwoTo256.Word()
	assert.True(t, errors.Is(err, ErrTooLarge))

	assert.Equal(t, 0, len(Bytes(uint256.NewInt(0))))
	assert.Equal(t, "7", IntLeaf(7, tree.Metadata{}).String())
}
