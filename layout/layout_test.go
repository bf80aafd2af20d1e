package layout

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/shibukawa/snaplll"
	"github.com/shibukawa/snaplll/lllparser"
)

func declare(t *testing.T, decls ...string) *Layout {
	t.Helper()

	l := New()
	for _, d := range decls {
		assert.NoError(t, l.Declare(lllparser.MustParse(d)))
	}

	return l
}

func slot(t *testing.T, l *Layout, ref string) string {
	t.Helper()

	p, ok := l.ParsePath(lllparser.MustParse(ref))
	assert.True(t, ok)

	n, err := l.Slot(p, "_buf")
	assert.NoError(t, err)

	return n.String()
}

func TestTupleArrayLayout(t *testing.T) {
	// data x[3](a, b[2])
	l := declare(t, "(fun (access x 3) a (access b 2))")

	tests := []struct {
		ref  string
		slot string
	}{
		{"(. (access (. self x) 0) a)", "0"},
		{"(access (. (access (. self x) 0) b) 0)", "1"},
		{"(access (. (access (. self x) 0) b) 1)", "2"},
		{"(. (access (. self x) 1) a)", "3"},
		{"(access (. (access (. self x) 2) b) 1)", "8"},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			assert.Equal(t, tt.slot, slot(t, l, tt.ref))
		})
	}

	x, ok := l.Lookup("x")
	assert.True(t, ok)
	assert.True(t, x.NonFinal)
	assert.Equal(t, "9", x.Total().String())
	assert.Equal(t, "9", l.Size().String())
}

func TestSequentialDeclarations(t *testing.T) {
	l := declare(t, "a", "(access b 10)", "c")

	assert.Equal(t, "0", slot(t, l, "(. self a)"))
	assert.Equal(t, "(add 1 i)", slot(t, l, "(access (. self b) i)"))
	assert.Equal(t, "11", slot(t, l, "(. self c)"))
}

func TestMultiDimensionalCoefficients(t *testing.T) {
	l := declare(t, "(access (access m 3) 4)")

	e, _ := l.Lookup("m")
	assert.Equal(t, 2, e.Dims())
	assert.Equal(t, "12", e.Total().String())
	assert.Equal(t, "(add (mul i 4) j)", slot(t, l, "(access (access (. self m) i) j)"))
	assert.Equal(t, "6", slot(t, l, "(access (access (. self m) 1) 2)"))
}

func TestInfiniteObject(t *testing.T) {
	l := declare(t, "counter", "(access balances (^ 2 200))", "after")

	e, _ := l.Lookup("balances")
	assert.True(t, e.Infinite())
	assert.Equal(t, "2", l.Size().String())
	assert.Equal(t, "1", slot(t, l, "(. self after)"))

	got := slot(t, l, "(access (. self balances) who)")
	assert.Equal(t, "(with _buf (alloc 64) (seq (mstore _buf 1) (mstore (add _buf 32) who) (~sha3 _buf 64)))", got)
}

func TestInfiniteTupleField(t *testing.T) {
	l := declare(t, "(fun (access accounts (^ 2 200)) balance (access nonces 4))")

	got := slot(t, l, "(access (. (access (. self accounts) k) nonces) 3)")
	assert.Equal(t, "(with _buf (alloc 128) (seq (mstore _buf 0) (mstore (add _buf 32) k) (mstore (add _buf 64) 1) (mstore (add _buf 96) 3) (~sha3 _buf 128)))", got)
}

func TestInfiniteFieldInFiniteTuple(t *testing.T) {
	l := declare(t, "(fun x a (access b (^ 2 200)))", "y")

	x, _ := l.Lookup("x")
	assert.False(t, x.Infinite())
	assert.Equal(t, "1", x.Total().String())

	assert.Equal(t, "0", slot(t, l, "(. (. self x) a)"))
	assert.Equal(t, "1", slot(t, l, "(. self y)"))

	got := slot(t, l, "(access (. (. self x) b) 0)")
	assert.Equal(t, "(with _buf (alloc 96) (seq (mstore _buf 0) (mstore (add _buf 32) 1) (mstore (add _buf 64) 0) (~sha3 _buf 96)))", got)
}

func TestAddressingErrors(t *testing.T) {
	l := declare(t, "(fun (access x 3) a (access b 2))")

	tests := []struct {
		name string
		ref  string
	}{
		{"tuple read", "(access (. self x) 0)"},
		{"too few", "(. (. self x) a)"},
		{"too many", "(access (access (. (access (. self x) 0) b) 1) 1)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := l.ParsePath(lllparser.MustParse(tt.ref))
			assert.True(t, ok)

			_, err := l.Slot(p, "_buf")
			assert.True(t, errors.Is(err, snaplll.ErrAddressing))
		})
	}
}

func TestNotAStoragePath(t *testing.T) {
	l := declare(t, "x")

	for _, ref := range []string{"(. self balance)", "(. msg sender)", "(access arr 1)", "(. (. self x) nope)"} {
		_, ok := l.ParsePath(lllparser.MustParse(ref))
		assert.False(t, ok, ref)
	}
}

func TestDeclarationErrors(t *testing.T) {
	l := New()
	assert.NoError(t, l.Declare(lllparser.MustParse("x")))
	assert.True(t, errors.Is(l.Declare(lllparser.MustParse("x")), snaplll.ErrStructural))
	assert.True(t, errors.Is(l.Declare(lllparser.MustParse("(access y n)")), snaplll.ErrStructural))
}

func TestEvaluate(t *testing.T) {
	v, err := Evaluate(lllparser.MustParse("(* (+ 1 2) (^ 2 300))"))
	assert.NoError(t, err)
	assert.Equal(t, 91, len(v.String()))

	_, err = Evaluate(lllparser.MustParse("(- 1 2)"))
	assert.True(t, errors.Is(err, snaplll.ErrArithmeticBound))
}
