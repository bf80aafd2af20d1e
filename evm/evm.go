// Package evm is a small reference interpreter for the code the compiler
// emits. It runs a single execution context: calls and contract creation
// push 0, every instruction costs one unit of gas, and storage persists on
// the VM between runs.
package evm

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/shibukawa/snaplll/hashing"
	"github.com/shibukawa/snaplll/opcodes"
)

var (
	ErrOutOfGas         = errors.New("out of gas")
	ErrStackUnderflow   = errors.New("stack underflow")
	ErrStackOverflow    = errors.New("stack overflow")
	ErrInvalidJump      = errors.New("invalid jump destination")
	ErrInvalidOpcode    = errors.New("invalid opcode")
	ErrMemoryLimit      = errors.New("memory access out of range")
	ErrReturnDataBounds = errors.New("return data out of bounds")
	ErrReverted         = errors.New("execution reverted")
)

const (
	stackLimit  = 1024
	memoryLimit = 1 << 24
)

// Context is the fixed environment every run sees.
type Context struct {
	Address    uint256.Int
	Caller     uint256.Int
	Origin     uint256.Int
	CallValue  uint256.Int
	GasPrice   uint256.Int
	Coinbase   uint256.Int
	Timestamp  uint256.Int
	Number     uint256.Int
	Difficulty uint256.Int
	GasLimit   uint256.Int
	ChainID    uint256.Int
	Balance    uint256.Int
}

// Log is one recorded LOGn.
type Log struct {
	Topics []uint256.Int
	Data   []byte
}

// Result is the outcome of a run that halted normally or reverted.
type Result struct {
	ReturnData []byte
	Reverted   bool
	Logs       []Log
	GasUsed    uint64
}

// Word reads the first 32 bytes of the returned data, zero-padded.
func (r *Result) Word() *uint256.Int {
	var buf [32]byte
	copy(buf[:], r.ReturnData)

	return new(uint256.Int).SetBytes32(buf[:])
}

// VM holds the context and the storage of one contract.
type VM struct {
	Context Context
	Gas     uint64
	storage map[uint256.Int]uint256.Int
}

// New creates a VM that gives each run a budget of gas instructions.
func New(ctx Context, gas uint64) *VM {
	return &VM{Context: ctx, Gas: gas, storage: map[uint256.Int]uint256.Int{}}
}

// SLoad reads a storage slot.
func (vm *VM) SLoad(key *uint256.Int) *uint256.Int {
	v := vm.storage[*key]
	return &v
}

// Deploy runs init code and returns the runtime code it produced.
func (vm *VM) Deploy(initCode []byte) ([]byte, error) {
	res, err := vm.Execute(initCode, nil)
	if err != nil {
		return nil, err
	}

	if res.Reverted {
		return nil, ErrReverted
	}

	return res.ReturnData, nil
}

// Execute runs code with the given call input.
func (vm *VM) Execute(code, input []byte) (*Result, error) {
	f := &frame{
		vm:        vm,
		code:      code,
		input:     input,
		gas:       vm.Gas,
		jumpdests: jumpdests(code),
	}

	res, err := f.run()
	if err != nil {
		return nil, fmt.Errorf("pc %d: %w", f.pc, err)
	}

	res.GasUsed = vm.Gas - f.gas

	return res, nil
}

func jumpdests(code []byte) map[int]bool {
	out := map[int]bool{}

	for i := 0; i < len(code); i++ {
		switch n := opcodes.PushSize(code[i]); {
		case code[i] == opcodes.JUMPDEST:
			out[i] = true
		case n > 0:
			i += n
		}
	}

	return out
}

type frame struct {
	vm        *VM
	code      []byte
	input     []byte
	pc        int
	gas       uint64
	stack     []uint256.Int
	memory    []byte
	logs      []Log
	jumpdests map[int]bool
}

func (f *frame) push(v *uint256.Int) error {
	if len(f.stack) >= stackLimit {
		return ErrStackOverflow
	}

	f.stack = append(f.stack, *v)

	return nil
}

func (f *frame) pop(n int) ([]uint256.Int, error) {
	if len(f.stack) < n {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrStackUnderflow, n, len(f.stack))
	}

	top := len(f.stack) - n
	out := make([]uint256.Int, n)

	// out[0] is the top of the stack
	for i := range out {
		out[i] = f.stack[len(f.stack)-1-i]
	}

	f.stack = f.stack[:top]

	return out, nil
}

// memRange validates [offset, offset+size) and grows memory to cover it in
// whole words.
func (f *frame) memRange(offset, size *uint256.Int) (int, int, error) {
	if size.IsZero() {
		return 0, 0, nil
	}

	if !offset.IsUint64() || !size.IsUint64() || offset.Uint64()+size.Uint64() > memoryLimit {
		return 0, 0, fmt.Errorf("%w: offset %s size %s", ErrMemoryLimit, offset.Dec(), size.Dec())
	}

	start, n := int(offset.Uint64()), int(size.Uint64())

	if end := (start + n + 31) / 32 * 32; end > len(f.memory) {
		f.memory = append(f.memory, make([]byte, end-len(f.memory))...)
	}

	return start, n, nil
}

// copyPadded copies src[from:from+n] to memory at dst, zero-filling past the
// end of src.
func (f *frame) copyPadded(dst, from, size *uint256.Int, src []byte) error {
	start, n, err := f.memRange(dst, size)
	if err != nil || n == 0 {
		return err
	}

	region := f.memory[start : start+n]
	clear(region)

	if from.IsUint64() && from.Uint64() < uint64(len(src)) {
		copy(region, src[from.Uint64():])
	}

	return nil
}

func (f *frame) run() (*Result, error) {
	for f.pc < len(f.code) {
		if f.gas == 0 {
			return nil, ErrOutOfGas
		}

		f.gas--

		op := f.code[f.pc]

		spec, ok := opcodes.ByCode(op)
		if !ok {
			return nil, fmt.Errorf("%w: 0x%02x", ErrInvalidOpcode, op)
		}

		if n := opcodes.PushSize(op); n >= 0 {
			var buf [32]byte
			if f.pc+1 < len(f.code) {
				copy(buf[32-n:], f.code[f.pc+1:min(f.pc+1+n, len(f.code))])
			}

			if err := f.push(new(uint256.Int).SetBytes32(buf[:])); err != nil {
				return nil, err
			}

			f.pc += 1 + n

			continue
		}

		args, err := f.pop(spec.In)
		if err != nil {
			return nil, err
		}

		res, halted, err := f.step(op, args)
		if err != nil {
			return nil, err
		}

		if halted {
			res.Logs = f.logs
			return res, nil
		}
	}

	return &Result{Logs: f.logs}, nil
}

// step executes one non-push instruction whose inputs are already popped,
// top of stack first. It advances the pc itself.
func (f *frame) step(op byte, a []uint256.Int) (*Result, bool, error) {
	next := f.pc + 1
	z := new(uint256.Int)

	var out []*uint256.Int

	switch {
	case op == opcodes.STOP:
		return &Result{}, true, nil
	case op >= opcodes.DUP1 && op < opcodes.DUP1+16:
		// restore the inputs, then copy the deepest one on top
		for i := len(a) - 1; i >= 0; i-- {
			out = append(out, &a[i])
		}

		out = append(out, &a[len(a)-1])
	case op >= opcodes.SWAP1 && op < opcodes.SWAP1+16:
		a[0], a[len(a)-1] = a[len(a)-1], a[0]
		for i := len(a) - 1; i >= 0; i-- {
			out = append(out, &a[i])
		}
	case op >= opcodes.LOG0 && op <= opcodes.LOG0+4:
		start, n, err := f.memRange(&a[0], &a[1])
		if err != nil {
			return nil, false, err
		}

		f.logs = append(f.logs, Log{
			Topics: append([]uint256.Int(nil), a[2:]...),
			Data:   append([]byte(nil), f.memory[start:start+n]...),
		})
	default:
		v, jump, res, err := f.exec(op, a, z)
		if err != nil || res != nil {
			return res, res != nil, err
		}

		if jump >= 0 {
			next = jump
		}

		if v != nil {
			out = append(out, v)
		}
	}

	for _, v := range out {
		if err := f.push(v); err != nil {
			return nil, false, err
		}
	}

	f.pc = next

	return nil, false, nil
}

// exec handles the fixed-arity opcodes. It returns the pushed value (if
// any), a jump target or -1, and a result when the run halts.
func (f *frame) exec(op byte, a []uint256.Int, z *uint256.Int) (*uint256.Int, int, *Result, error) {
	ctx := &f.vm.Context
	bool256 := func(b bool) *uint256.Int {
		if b {
			return z.SetOne()
		}

		return z.Clear()
	}

	switch spec, _ := opcodes.ByCode(op); spec.Name {
	case "ADD":
		return z.Add(&a[0], &a[1]), -1, nil, nil
	case "MUL":
		return z.Mul(&a[0], &a[1]), -1, nil, nil
	case "SUB":
		return z.Sub(&a[0], &a[1]), -1, nil, nil
	case "DIV":
		return z.Div(&a[0], &a[1]), -1, nil, nil
	case "SDIV":
		return z.SDiv(&a[0], &a[1]), -1, nil, nil
	case "MOD":
		return z.Mod(&a[0], &a[1]), -1, nil, nil
	case "SMOD":
		return z.SMod(&a[0], &a[1]), -1, nil, nil
	case "ADDMOD":
		return z.AddMod(&a[0], &a[1], &a[2]), -1, nil, nil
	case "MULMOD":
		return z.MulMod(&a[0], &a[1], &a[2]), -1, nil, nil
	case "EXP":
		return z.Exp(&a[0], &a[1]), -1, nil, nil
	case "SIGNEXTEND":
		return z.ExtendSign(&a[1], &a[0]), -1, nil, nil
	case "LT":
		return bool256(a[0].Lt(&a[1])), -1, nil, nil
	case "GT":
		return bool256(a[0].Gt(&a[1])), -1, nil, nil
	case "SLT":
		return bool256(a[0].Slt(&a[1])), -1, nil, nil
	case "SGT":
		return bool256(a[0].Sgt(&a[1])), -1, nil, nil
	case "EQ":
		return bool256(a[0].Eq(&a[1])), -1, nil, nil
	case "ISZERO":
		return bool256(a[0].IsZero()), -1, nil, nil
	case "AND":
		return z.And(&a[0], &a[1]), -1, nil, nil
	case "OR":
		return z.Or(&a[0], &a[1]), -1, nil, nil
	case "XOR":
		return z.Xor(&a[0], &a[1]), -1, nil, nil
	case "NOT":
		return z.Not(&a[0]), -1, nil, nil
	case "BYTE":
		return z.Set(&a[1]).Byte(&a[0]), -1, nil, nil
	case "SHL":
		if !a[0].LtUint64(256) {
			return z.Clear(), -1, nil, nil
		}

		return z.Lsh(&a[1], uint(a[0].Uint64())), -1, nil, nil
	case "SHR":
		if !a[0].LtUint64(256) {
			return z.Clear(), -1, nil, nil
		}

		return z.Rsh(&a[1], uint(a[0].Uint64())), -1, nil, nil
	case "SAR":
		if !a[0].LtUint64(256) {
			if a[1].Sign() < 0 {
				return z.SetAllOne(), -1, nil, nil
			}

			return z.Clear(), -1, nil, nil
		}

		return z.SRsh(&a[1], uint(a[0].Uint64())), -1, nil, nil
	case "SHA3":
		start, n, err := f.memRange(&a[0], &a[1])
		if err != nil {
			return nil, -1, nil, err
		}

		h := hashing.Keccak256(f.memory[start : start+n])

		return z.SetBytes32(h[:]), -1, nil, nil
	case "ADDRESS":
		return z.Set(&ctx.Address), -1, nil, nil
	case "BALANCE":
		if a[0].Eq(&ctx.Address) {
			return z.Set(&ctx.Balance), -1, nil, nil
		}

		return z.Clear(), -1, nil, nil
	case "SELFBALANCE":
		return z.Set(&ctx.Balance), -1, nil, nil
	case "ORIGIN":
		return z.Set(&ctx.Origin), -1, nil, nil
	case "CALLER":
		return z.Set(&ctx.Caller), -1, nil, nil
	case "CALLVALUE":
		return z.Set(&ctx.CallValue), -1, nil, nil
	case "GASPRICE":
		return z.Set(&ctx.GasPrice), -1, nil, nil
	case "COINBASE":
		return z.Set(&ctx.Coinbase), -1, nil, nil
	case "TIMESTAMP":
		return z.Set(&ctx.Timestamp), -1, nil, nil
	case "NUMBER":
		return z.Set(&ctx.Number), -1, nil, nil
	case "DIFFICULTY":
		return z.Set(&ctx.Difficulty), -1, nil, nil
	case "GASLIMIT":
		return z.Set(&ctx.GasLimit), -1, nil, nil
	case "CHAINID":
		return z.Set(&ctx.ChainID), -1, nil, nil
	case "BLOCKHASH", "EXTCODESIZE", "RETURNDATASIZE":
		return z.Clear(), -1, nil, nil
	case "CALLDATALOAD":
		var buf [32]byte
		if a[0].IsUint64() && a[0].Uint64() < uint64(len(f.input)) {
			copy(buf[:], f.input[a[0].Uint64():])
		}

		return z.SetBytes32(buf[:]), -1, nil, nil
	case "CALLDATASIZE":
		return z.SetUint64(uint64(len(f.input))), -1, nil, nil
	case "CALLDATACOPY":
		return nil, -1, nil, f.copyPadded(&a[0], &a[1], &a[2], f.input)
	case "CODESIZE":
		return z.SetUint64(uint64(len(f.code))), -1, nil, nil
	case "CODECOPY":
		return nil, -1, nil, f.copyPadded(&a[0], &a[1], &a[2], f.code)
	case "EXTCODECOPY":
		return nil, -1, nil, f.copyPadded(&a[1], &a[2], &a[3], nil)
	case "RETURNDATACOPY":
		if !a[2].IsZero() {
			return nil, -1, nil, ErrReturnDataBounds
		}

		return nil, -1, nil, nil
	case "POP", "JUMPDEST":
		return nil, -1, nil, nil
	case "MLOAD":
		start, _, err := f.memRange(&a[0], uint256.NewInt(32))
		if err != nil {
			return nil, -1, nil, err
		}

		return z.SetBytes32(f.memory[start : start+32]), -1, nil, nil
	case "MSTORE":
		start, _, err := f.memRange(&a[0], uint256.NewInt(32))
		if err != nil {
			return nil, -1, nil, err
		}

		b := a[1].Bytes32()
		copy(f.memory[start:start+32], b[:])

		return nil, -1, nil, nil
	case "MSTORE8":
		start, _, err := f.memRange(&a[0], uint256.NewInt(1))
		if err != nil {
			return nil, -1, nil, err
		}

		f.memory[start] = byte(a[1].Uint64())

		return nil, -1, nil, nil
	case "SLOAD":
		v := f.vm.storage[a[0]]
		return z.Set(&v), -1, nil, nil
	case "SSTORE":
		f.vm.storage[a[0]] = a[1]
		return nil, -1, nil, nil
	case "JUMP":
		dest, err := f.jump(&a[0])
		return nil, dest, nil, err
	case "JUMPI":
		if a[1].IsZero() {
			return nil, -1, nil, nil
		}

		dest, err := f.jump(&a[0])

		return nil, dest, nil, err
	case "PC":
		return z.SetUint64(uint64(f.pc)), -1, nil, nil
	case "MSIZE":
		return z.SetUint64(uint64(len(f.memory))), -1, nil, nil
	case "GAS":
		return z.SetUint64(f.gas), -1, nil, nil
	case "CREATE", "CALL", "CALLCODE", "DELEGATECALL", "STATICCALL":
		return z.Clear(), -1, nil, nil
	case "RETURN", "REVERT":
		start, n, err := f.memRange(&a[0], &a[1])
		if err != nil {
			return nil, -1, nil, err
		}

		data := append([]byte(nil), f.memory[start:start+n]...)

		return nil, -1, &Result{ReturnData: data, Reverted: spec.Name == "REVERT"}, nil
	case "SUICIDE":
		return nil, -1, &Result{}, nil
	}

	return nil, -1, nil, fmt.Errorf("%w: 0x%02x", ErrInvalidOpcode, op)
}

func (f *frame) jump(dest *uint256.Int) (int, error) {
	if !dest.IsUint64() || !f.jumpdests[int(dest.Uint64())] {
		return -1, fmt.Errorf("%w: %s", ErrInvalidJump, dest.Dec())
	}

	return int(dest.Uint64()), nil
}
