package codegen

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/shibukawa/snaplll"
	"github.com/shibukawa/snaplll/lllparser"
)

const allocOps = "MSIZE SWAP1 MSIZE ADD 1 SWAP1 SUB 0 SWAP1 MSTORE8"

func TestFlatten(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{"opcode", "(stop)", "STOP"},
		{"arguments right to left", "(add 1 2)", "2 1 ADD"},
		{"quoted literal", `(mstore 0 "a")`, "97 0 MSTORE"},
		{"raw opcode prefix", "(~return 0 32)", "32 0 RETURN"},
		{"variables", "(seq (set x 1) (mstore 0 (get x)))", "1 0 MSTORE 0 MLOAD 0 MSTORE"},
		{"reference", "(seq (set x 1) (~return (ref x) 32))", "1 0 MSTORE 32 0 RETURN"},
		{"discarded values", "(seq (add 1 2) (stop))", "2 1 ADD POP STOP"},
		{"unless", "(unless 1 (stop))", "1 $endif_1 JUMPI STOP ~endif_1 JUMPDEST"},
		{"if", "(mstore 0 (if 1 2 3))", "1 ISZERO $else_1 JUMPI 2 $endif_1 JUMP ~else_1 JUMPDEST 3 ~endif_1 JUMPDEST 0 MSTORE"},
		{
			"unbalanced if",
			"(if 1 2 (stop))",
			"1 ISZERO $else_1 JUMPI 2 POP $endif_1 JUMP ~else_1 JUMPDEST STOP ~endif_1 JUMPDEST",
		},
		{"until", "(until 1 (stop))", "~beg_1 JUMPDEST 1 $end_1 JUMPI STOP $beg_1 JUMP ~end_1 JUMPDEST"},
		{"alloc without variables", "(mstore 0 (alloc 32))", "32 " + allocOps + " 0 MSTORE"},
		{"with", "(mstore 0 (with x 5 (get x)))", "5 0 MSTORE 0 MLOAD 0 MSTORE"},
		{
			"with shadows",
			"(seq (set x 1) (with x 2 (pop (get x))) (mstore 0 (get x)))",
			"1 0 MSTORE 2 32 MSTORE 32 MLOAD POP 0 MLOAD 0 MSTORE",
		},
		{
			"alloc prologue",
			"(seq (set x (alloc 32)) (stop))",
			"0 31 MSTORE8 32 " + allocOps + " 0 MSTORE STOP",
		},
		{
			"call data prologue",
			"(mstore 0 (get msg.data))",
			"0 31 MSTORE8 MSIZE CALLDATASIZE 0 MSIZE CALLDATACOPY 0 MSTORE 0 MLOAD 0 MSTORE",
		},
		{
			"array literal",
			"(pop (array_lit 7 8))",
			"64 " + allocOps + " 7 DUP2 MSTORE 8 DUP2 32 ADD MSTORE POP",
		},
		{
			"code region",
			"(~return 0 (lll (stop) 0))",
			"$begincode_1.endcode_1 DUP1 $begincode_1 0 CODECOPY $endcode_1 JUMP ~begincode_1 " +
				"#CODE_BEGIN STOP #CODE_END ~endcode_1 JUMPDEST 0 RETURN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Flatten(lllparser.MustParse(tt.src), nil)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, Format(tokens))
		})
	}
}

func TestFlattenNestedRegionHasOwnVariables(t *testing.T) {
	src := "(seq (set a (alloc 1)) (~return 0 (lll (seq (set b 1) (mstore 0 (alloc 1))) 0)))"

	tokens, err := Flatten(lllparser.MustParse(src), nil)
	assert.NoError(t, err)

	text := Format(tokens)
	// outer prologue covers a, inner prologue covers b; both sit in slot 0
	assert.Equal(t, "0 31 MSTORE8 1 "+allocOps+" 0 MSTORE", text[:len("0 31 MSTORE8 1 "+allocOps+" 0 MSTORE")])
	assert.Contains(t, text, "#CODE_BEGIN 0 31 MSTORE8 1 0 MSTORE ")
}

func TestFlattenErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind error
	}{
		{"argument without value", "(mstore 0 (stop))", snaplll.ErrStructural},
		{"opcode arity", "(mstore 1)", snaplll.ErrStructural},
		{"unknown form", "(frob 1)", snaplll.ErrValidation},
		{"bare identifier", "(mstore 0 x)", snaplll.ErrValidation},
		{"condition without value", "(unless (stop) (stop))", snaplll.ErrStructural},
		{"set without name", "(set (get x) 1)", snaplll.ErrStructural},
		{"literal too large", "(mstore 0 0x10000000000000000000000000000000000000000000000000000000000000000)", snaplll.ErrArithmeticBound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Flatten(lllparser.MustParse(tt.src), nil)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
		})
	}
}

func TestParseTokens(t *testing.T) {
	src := "$begincode_1.endcode_1 DUP1 $begincode_1 0 CODECOPY ~begincode_1 #CODE_BEGIN STOP #CODE_END 0x10 push1"

	tokens, err := ParseTokens(src)
	assert.NoError(t, err)
	assert.Equal(t,
		"$begincode_1.endcode_1 DUP1 $begincode_1 0 CODECOPY ~begincode_1 #CODE_BEGIN STOP #CODE_END 16 PUSH1",
		Format(tokens))

	from, to, ok := tokens[0].Distance()
	assert.True(t, ok)
	assert.Equal(t, "begincode_1", from)
	assert.Equal(t, "endcode_1", to)

	_, _, ok = tokens[2].Distance()
	assert.False(t, ok)

	_, err = ParseTokens("STOP BOGUS")
	assert.True(t, errors.Is(err, ErrBadToken))
}
