package evm

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func code(t *testing.T, s string) []byte {
	t.Helper()

	b, err := hex.DecodeString(s)
	require.NoError(t, err)

	return b
}

func TestExecuteReturnsWord(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		input    []byte
		expected uint64
	}{
		// PUSH1 2 PUSH1 3 ADD PUSH0 MSTORE PUSH1 32 PUSH0 RETURN
		{"add", "60026003015f5260205ff3", nil, 5},
		// PUSH1 3 PUSH1 10 SUB ...
		{"sub operand order", "6003600a035f5260205ff3", nil, 7},
		// PUSH0 CALLDATALOAD ...
		{"call data", "5f355f5260205ff3", append(make([]byte, 31), 7), 7},
		// PUSH1 1 PUSH1 2 DUP2 ADD ...
		{"dup", "6001600281015f5260205ff3", nil, 3},
		// PUSH1 2 PUSH1 1 SWAP1 SUB
		{"swap", "6002600190035f5260205ff3", nil, 1},
		// PUSH1 1 PUSH1 6 JUMPI INVALID JUMPDEST ...
		{"conditional jump", "6001600657fe5b60095f5260205ff3", nil, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := New(Context{}, 1000)

			res, err := vm.Execute(code(t, tt.code), tt.input)
			require.NoError(t, err)
			assert.False(t, res.Reverted)
			assert.Equal(t, uint256.NewInt(tt.expected), res.Word())
		})
	}
}

func TestStorageAndLogs(t *testing.T) {
	vm := New(Context{}, 1000)

	// PUSH1 42 PUSH0 SSTORE PUSH1 1 PUSH0 PUSH0 LOG1 STOP
	res, err := vm.Execute(code(t, "602a5f5560015f5fa100"), nil)
	require.NoError(t, err)

	assert.Equal(t, uint256.NewInt(42), vm.SLoad(uint256.NewInt(0)))
	require.Equal(t, 1, len(res.Logs))
	assert.Equal(t, []uint256.Int{*uint256.NewInt(1)}, res.Logs[0].Topics)
	assert.Equal(t, 0, len(res.Logs[0].Data))
	assert.Equal(t, uint64(8), res.GasUsed)
}

func TestRevert(t *testing.T) {
	vm := New(Context{}, 1000)

	res, err := vm.Execute(code(t, "5f5ffd"), nil)
	require.NoError(t, err)
	assert.True(t, res.Reverted)

	_, err = vm.Deploy(code(t, "5f5ffd"))
	assert.True(t, errors.Is(err, ErrReverted))
}

func TestExecuteErrors(t *testing.T) {
	tests := []struct {
		name string
		code string
		err  error
	}{
		{"endless loop", "5b5f56", ErrOutOfGas},
		{"jump past end", "600356", ErrInvalidJump},
		{"jump into push data", "600456605b00", ErrInvalidJump},
		{"underflow", "01", ErrStackUnderflow},
		{"invalid", "fe", ErrInvalidOpcode},
		{"unknown byte", "ef", ErrInvalidOpcode},
		{"memory out of range", "5f19515f", ErrMemoryLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Context{}, 100).Execute(code(t, tt.code), nil)
			assert.True(t, errors.Is(err, tt.err), "got %v", err)
		})
	}
}

func TestContext(t *testing.T) {
	ctx := Context{}
	ctx.Caller.SetUint64(0xcafe)

	// CALLER PUSH0 MSTORE PUSH1 32 PUSH0 RETURN
	res, err := New(ctx, 100).Execute(code(t, "335f5260205ff3"), nil)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(0xcafe), res.Word())
}
