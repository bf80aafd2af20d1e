package assembler

import (
	"errors"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/stretchr/testify/require"

	"github.com/shibukawa/snaplll"
	"github.com/shibukawa/snaplll/codegen"
	"github.com/shibukawa/snaplll/lllparser"
)

func assemble(t *testing.T, src string) (string, error) {
	t.Helper()

	tokens, err := codegen.ParseTokens(src)
	require.NoError(t, err)

	code, err := Assemble(tokens)
	if err != nil {
		return "", err
	}

	return Hex(code), nil
}

func TestAssemble(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{"stop", "STOP", "00"},
		{"literals", "0 1 256", "5f6001610100"},
		{"forward label", "$end JUMP ~end JUMPDEST", "6003565b"},
		{"region relative label", "STOP #CODE_BEGIN STOP ~in JUMPDEST $in JUMP #CODE_END", "00005b600156"},
		{
			"code copy",
			"$begincode_1.endcode_1 DUP1 $begincode_1 0 CODECOPY $endcode_1 JUMP ~begincode_1 " +
				"#CODE_BEGIN STOP #CODE_END ~endcode_1 JUMPDEST 0 RETURN",
			"600180600a5f39600b56005b5ff3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := assemble(t, tt.src)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestWidthGrowsWithProgram(t *testing.T) {
	src := "$end JUMP " + strings.Repeat("STOP ", 300) + "~end JUMPDEST"

	tokens, err := codegen.ParseTokens(src)
	require.NoError(t, err)
	assert.Equal(t, 2, Width(tokens))

	got, err := assemble(t, src)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "61013056"), got[:8])
	assert.Equal(t, 2*305, len(got))
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		cause error
	}{
		{"undefined label", "$nowhere JUMP", ErrUndefinedLabel},
		{"duplicate label", "~a STOP ~a", ErrDuplicateLabel},
		{"unbalanced end", "STOP #CODE_END", ErrUnbalancedRegion},
		{"unclosed region", "#CODE_BEGIN STOP", ErrUnbalancedRegion},
		{"negative distance", "~b STOP ~a $a.b", ErrNegativeDistance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := assemble(t, tt.src)
			assert.True(t, errors.Is(err, snaplll.ErrResolution), "got %v", err)
			assert.True(t, errors.Is(err, tt.cause), "got %v", err)
		})
	}

	tokens, err := codegen.ParseTokens("1")
	require.NoError(t, err)

	_, err = Serialize(tokens)
	assert.True(t, errors.Is(err, ErrUnresolved))
}

func TestRoundTrip(t *testing.T) {
	tokens, err := codegen.Flatten(lllparser.MustParse("(stop)"), nil)
	require.NoError(t, err)

	code, err := Assemble(tokens)
	require.NoError(t, err)
	assert.Equal(t, "00", Hex(code))

	back, err := Deserialize(code)
	require.NoError(t, err)
	assert.Equal(t, codegen.Format(tokens), codegen.Format(back))
}

func TestDeserialize(t *testing.T) {
	code, err := DecodeHex("0x6001 610100 00 5b ef")
	require.NoError(t, err)

	tokens, err := Deserialize(code)
	require.NoError(t, err)
	assert.Equal(t, "PUSH1 0x01 PUSH2 0x0100 STOP JUMPDEST 0xef", codegen.Format(tokens))

	again, err := Serialize(tokens)
	require.NoError(t, err)
	assert.Equal(t, code, again)

	_, err = Deserialize([]byte{0x61, 0x01})
	assert.True(t, errors.Is(err, ErrTruncatedPush))
}
