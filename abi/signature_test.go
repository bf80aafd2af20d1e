package abi

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/stretchr/testify/require"
)

func TestFunctionSelector(t *testing.T) {
	f := NewFunction("transfer", []string{"to", "value"}, []Type{ParseType("address"), ParseType("uint256")}, nil)
	assert.Equal(t, uint32(0xa9059cbb), f.SelectorValue())
	assert.Equal(t, "transfer::a9059cbb", f.DisambiguatedName())
	assert.Equal(t, "transfer(address,uint256)", f.Signature())
	assert.Equal(t, "_", f.ReturnName())
}

func TestEventValidation(t *testing.T) {
	tests := []struct {
		name     string
		types    []Type
		indexed  []bool
		expected error
	}{
		{name: "valid", types: []Type{Int256, Bytes}, indexed: []bool{true, true}},
		{name: "indexed array", types: []Type{IntArray}, indexed: []bool{true}, expected: ErrIndexedArray},
		{name: "four indexed", types: []Type{Int256, Int256, Int256, Int256}, indexed: []bool{true, true, true, true}, expected: ErrTooManyIndexed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			names := make([]string, len(tt.types))
			for i := range names {
				names[i] = string(rune('a' + i))
			}

			_, err := NewEvent("E", names, tt.types, tt.indexed)
			if tt.expected == nil {
				assert.NoError(t, err)
			} else {
				assert.IsError(t, err, tt.expected)
			}
		})
	}
}

func TestTransferTopic(t *testing.T) {
	ev, err := NewEvent("Transfer", []string{"from", "to", "value"},
		[]Type{ParseType("address"), ParseType("address"), ParseType("uint256")}, []bool{true, true, false})
	require.NoError(t, err)
	assert.Equal(t, byte(0xdd), ev.Topic[0])
	assert.Equal(t, byte(0xef), ev.Topic[31])
}

func TestSignature(t *testing.T) {
	fns := []*Function{
		NewFunction("g", nil, nil, nil),
		NewFunction("f", []string{"x", "s"}, []Type{Int256, Bytes}, &Int256),
	}

	assert.Equal(t, "extern foo: [f:[int256,bytes]:int256, g:[]:_]", Signature("foo", fns))
	assert.Equal(t, "extern empty: []", Signature("empty", nil))
}

func TestFullSignatureJSON(t *testing.T) {
	f := NewFunction("f", []string{"x"}, []Type{Int256}, &IntArray)
	f.Constant = true

	ev, err := NewEvent("Log", []string{"v"}, []Type{Int256}, []bool{true})
	require.NoError(t, err)

	out, err := FullSignatureJSON([]*Function{f}, []*Event{ev})
	require.NoError(t, err)

	expected := `[
    {
        "name": "f(int256)",
        "type": "function",
        "constant": true,
        "inputs": [
            {
                "name": "x",
                "type": "int256"
            }
        ],
        "outputs": [
            {
                "name": "out",
                "type": "int256[]"
            }
        ]
    },
    {
        "name": "Log(int256)",
        "type": "event",
        "inputs": [
            {
                "name": "v",
                "type": "int256",
                "indexed": true
            }
        ]
    }
]`
	assert.Equal(t, expected, out)
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in       string
		expected Type
	}{
		{in: "", expected: Int256},
		{in: "arr", expected: IntArray},
		{in: "str", expected: Bytes},
		{in: "string", expected: Type{Name: "string", Tag: ByteString}},
		{in: "address[]", expected: Type{Name: "address[]", Tag: ElementArray}},
		{in: "address", expected: Type{Name: "address", Tag: FixedWord}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseType(tt.in))
		})
	}
}
