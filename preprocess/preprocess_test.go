package preprocess

import (
	"errors"
	"strconv"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/stretchr/testify/require"

	"github.com/shibukawa/snaplll"
	"github.com/shibukawa/snaplll/abi"
	"github.com/shibukawa/snaplll/lllparser"
)

func process(t *testing.T, src string) (*Program, *snaplll.Warnings) {
	t.Helper()

	root, err := lllparser.Parse(src, "test.lll")
	require.NoError(t, err)

	var w snaplll.Warnings
	p, err := Process(root, &w)
	require.NoError(t, err)

	return p, &w
}

func TestNoFunctions(t *testing.T) {
	p, _ := process(t, `(set x 1) (return x)`)
	assert.Equal(t, "(seq (~return 0 (lll (seq (set x 1) (return x)) 0)))", p.Body.String())
}

func TestInitAndShared(t *testing.T) {
	p, _ := process(t, `
		(def (shared) (set a 1))
		(def (init) (sstore 0 (get a)))
		(stop)`)

	assert.Equal(t,
		"(seq (set a 1) (sstore 0 (get a)) (~return 0 (lll (seq (set a 1) (stop)) 0)))",
		p.Body.String())
}

func TestFunctionDispatch(t *testing.T) {
	p, _ := process(t, `(def (double x) (return (* x 2)))`)

	fn := p.Functions["double"]
	require.NotNil(t, fn)
	assert.Equal(t, "double(int256)", fn.Signature())
	assert.Equal(t, "int256", fn.ReturnName())
	assert.Equal(t, fn, p.Functions[fn.DisambiguatedName()])

	expected := "(seq (~return 0 (lll (with __funid (div (calldataload 0) (exp 2 224)) (seq " +
		"(if (eq (get __funid) " + itoa(fn.SelectorValue()) + ") " +
		"(seq (seq (set x (calldataload 4))) (return (* x 2)))))) 0)))"
	assert.Equal(t, expected, p.Body.String())
}

func TestVariableLengthArguments(t *testing.T) {
	p, _ := process(t, `(def (f (: s str) n) (return (len s)))`)

	fn := p.Functions["f"]
	assert.Equal(t, "f(bytes,int256)", fn.Signature())
	assert.Contains(t, p.Body.String(), "(set __len_s (calldataload 36))")
	assert.Contains(t, p.Body.String(), "(set n (calldataload 68))")
	assert.Contains(t, p.Body.String(), "(return __len_s)")
}

func TestReturnTypeInference(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
		warned   bool
	}{
		{name: "void", src: `(def (f) (stop))`, expected: "_"},
		{name: "word", src: `(def (f) (return 1))`, expected: "int256"},
		{name: "items", src: `(def (f) (return x (= items 3)))`, expected: "int256[]"},
		{name: "chars", src: `(def (f) (return x (= chars 3)))`, expected: "bytes"},
		{name: "mixed", src: `(def (f) (seq (return 1) (return x (= chars 3))))`, expected: "int256", warned: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, w := process(t, tt.src)
			assert.Equal(t, tt.expected, p.Functions["f"].ReturnName())
			assert.Equal(t, tt.warned, len(w.List()) > 0)
		})
	}
}

func TestConstantFunction(t *testing.T) {
	p, _ := process(t, `(def (const (get_x)) (return 1))`)
	assert.True(t, p.Functions["get_x"].Constant)
}

func TestEvents(t *testing.T) {
	p, _ := process(t, `(event (Transfer (: from indexed) (: to indexed) value))`)

	ev := p.Events["Transfer"]
	require.NotNil(t, ev)
	assert.Equal(t, []bool{true, true, false}, ev.Indexed)
	assert.Equal(t, "Transfer(int256,int256,int256)", ev.Signature())
}

func TestExterns(t *testing.T) {
	p, w := process(t, `
		(extern token (list
			(: (: balance (list address)) int256)
			(: (: transfer (list address int256)) _)
			"legacy:ii:i"))
		(extern other (list (: (: balance (list int256 int256)) int256)))`)

	assert.Equal(t, 1, len(w.List()))

	legacy := p.Externs["legacy"]
	require.NotNil(t, legacy)
	assert.Equal(t, "legacy(int256,int256)", legacy.Signature())

	assert.Equal(t, "_", p.Externs["transfer"].ReturnName())

	assert.True(t, p.Externs["balance"].Ambiguous)
	assert.False(t, p.ExternGroups["token"]["balance"].Ambiguous)

	exact := abi.NewFunction("balance", nil, []abi.Type{abi.ParseType("address")}, &abi.Int256)
	f, ok := p.LookupFunction(false, "", exact.DisambiguatedName())
	assert.True(t, ok)
	assert.False(t, f.Ambiguous)
}

func TestMacrosAndPriorities(t *testing.T) {
	p, w := process(t, `
		(macro (double $x) (* $x 2))
		(macro (priority 5) (triple $x) (* $x 3))
		(macro (priority 1) (quad $x) (* $x 4))
		(macro (mstore $a $b) (stop))`)

	require.Equal(t, 3, len(p.Macros))
	assert.Equal(t, 0, p.Macros[0].Priority)
	assert.Equal(t, 1, p.Macros[1].Priority)
	assert.Equal(t, 5, p.Macros[2].Priority)
	assert.Equal(t, 1, len(w.List()))
}

func TestTypeTagging(t *testing.T) {
	p, _ := process(t, `
		(type fixed (list a))
		(type real r_)
		(set a (+ r_x b))
		(untyped (set a 1))`)

	assert.True(t, p.TypeNames["fixed"])
	assert.Equal(t,
		"(seq (~return 0 (lll (seq (set (fixed a) (+ (real r_x) b)) (set a 1)) 0)))",
		p.Body.String())
}

func TestStorageDeclarations(t *testing.T) {
	p, _ := process(t, `(data (access balances (^ 2 160)) owner)`)

	_, ok := p.Layout.Lookup("owner")
	assert.True(t, ok)

	e, ok := p.Layout.Lookup("balances")
	assert.True(t, ok)
	assert.Equal(t, 0, e.Index)
}

func TestProcessErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "no body", src: `(def (f x))`},
		{name: "duplicate function", src: `(def (f) (stop)) (def (f) (stop))`},
		{name: "duplicate event", src: `(event (E a)) (event (E b))`},
		{name: "init with arguments", src: `(def (init x) (stop))`},
		{name: "too many indexed", src: `(event (E (: a indexed) (: b indexed) (: c indexed) (: d indexed)))`},
		{name: "bad extern", src: `(extern x y)`},
		{name: "bad parameter", src: `(def (f (g 1)) (stop))`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := lllparser.Parse(tt.src, "test.lll")
			require.NoError(t, err)

			_, err = Process(root, nil)
			assert.True(t, errors.Is(err, snaplll.ErrStructural), "got %v", err)
		})
	}
}

func itoa(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}
