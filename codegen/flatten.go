package codegen

import (
	"errors"
	"slices"
	"strings"

	"github.com/holiman/uint256"

	"github.com/shibukawa/snaplll"
	"github.com/shibukawa/snaplll/opcodes"
	"github.com/shibukawa/snaplll/tree"
	"github.com/shibukawa/snaplll/word"
)

// ErrBadToken is returned when token text cannot be read back.
var ErrBadToken = errors.New("bad token")

// state is the flattening context of one code region. Nested lll regions
// run in a different execution context and get their own state.
type state struct {
	names        *tree.NameGen
	vars         map[string]int
	slots        int
	allocUsed    bool
	calldataUsed bool
	code         []Token
}

func newState(names *tree.NameGen) *state {
	return &state{names: names, vars: map[string]int{}}
}

// Flatten linearizes a validated tree into tokens, prefixed with the memory
// prologue the code needs. Labels take their suffixes from names, so pass
// the generator the rewriter used to keep them unique within the unit.
func Flatten(n *tree.Node, names *tree.NameGen) ([]Token, error) {
	if names == nil {
		names = tree.NewNameGen("")
	}

	s := newState(names)
	if _, err := s.flatten(n); err != nil {
		return nil, err
	}

	return s.finalize(n.Meta), nil
}

// flatten emits n and returns how many values it leaves on the stack.
func (s *state) flatten(n *tree.Node) (int, error) {
	if n.IsLeaf() {
		return s.literal(n)
	}

	switch n.Value {
	case "get", "ref", "set":
		return s.variable(n)
	case "with":
		return s.with(n)
	case "seq":
		return s.seq(n)
	case "unless":
		return s.unless(n)
	case "if":
		return s.ifElse(n)
	case "until":
		return s.until(n)
	case "lll":
		return s.lll(n)
	case "alloc":
		return s.alloc(n)
	case "array_lit":
		return s.arrayLiteral(n)
	}

	return s.opcode(n)
}

func (s *state) emit(tokens ...Token) {
	s.code = append(s.code, tokens...)
}

func (s *state) op(name string, m tree.Metadata) {
	s.emit(Op(name, m))
}

func (s *state) num(v uint64, m tree.Metadata) {
	s.emit(Lit(uint256.NewInt(v), m))
}

func (s *state) pops(count int, m tree.Metadata) []Token {
	out := make([]Token, count)
	for i := range out {
		out[i] = Op("POP", m)
	}

	return out
}

// value emits n, which must leave exactly one value.
func (s *state) value(n *tree.Node) error {
	count, err := s.flatten(n)
	if err != nil {
		return err
	}

	if count != 1 {
		return snaplll.Errorf(n.Meta, snaplll.ErrStructural, "%s yields %d values where one is needed", n, count)
	}

	return nil
}

func (s *state) arity(n *tree.Node, want int) error {
	if len(n.Args) != want {
		return snaplll.Errorf(n.Meta, snaplll.ErrStructural, "%s takes %d arguments, got %d", n.Value, want, len(n.Args))
	}

	return nil
}

func (s *state) literal(n *tree.Node) (int, error) {
	if !tree.IsNumberLike(n) {
		return 0, snaplll.Errorf(n.Meta, snaplll.ErrValidation, "unexpected identifier %s", n.Value)
	}

	v, err := word.Parse(n.Value)
	if err != nil {
		if errors.Is(err, word.ErrTooLarge) {
			return 0, snaplll.Wrap(n.Meta, snaplll.ErrArithmeticBound, err)
		}

		return 0, snaplll.Wrap(n.Meta, snaplll.ErrValidation, err)
	}

	s.emit(Lit(v, n.Meta))

	return 1, nil
}

func (s *state) slot(name string) int {
	if k, ok := s.vars[name]; ok {
		return k
	}

	k := s.slots
	s.slots++
	s.vars[name] = k

	return k
}

func (s *state) variable(n *tree.Node) (int, error) {
	want := 1
	if n.Value == "set" {
		want = 2
	}

	if err := s.arity(n, want); err != nil {
		return 0, err
	}

	if !n.Args[0].IsLeaf() {
		return 0, snaplll.Errorf(n.Meta, snaplll.ErrStructural, "%s needs a variable name, got %s", n.Value, n.Args[0])
	}

	name := n.Args[0].Value
	if name == "msg.data" {
		s.calldataUsed = true
	}

	m := n.Meta

	// the value goes first so the slot is on top for MSTORE
	if n.Value == "set" {
		if err := s.value(n.Args[1]); err != nil {
			return 0, err
		}
	}

	s.num(uint64(32*s.slot(name)), m)

	switch n.Value {
	case "set":
		s.op("MSTORE", m)
		return 0, nil
	case "get":
		s.op("MLOAD", m)
	}

	return 1, nil
}

// with binds a fresh slot for the body and restores the outer binding after.
func (s *state) with(n *tree.Node) (int, error) {
	if err := s.arity(n, 3); err != nil {
		return 0, err
	}

	if !n.Args[0].IsLeaf() {
		return 0, snaplll.Errorf(n.Meta, snaplll.ErrStructural, "with needs a variable name, got %s", n.Args[0])
	}

	name := n.Args[0].Value

	if err := s.value(n.Args[1]); err != nil {
		return 0, err
	}

	prev, had := s.vars[name]
	k := s.slots
	s.slots++
	s.vars[name] = k

	s.num(uint64(32*k), n.Meta)
	s.op("MSTORE", n.Meta)

	count, err := s.flatten(n.Args[2])
	if err != nil {
		return 0, err
	}

	if had {
		s.vars[name] = prev
	} else {
		delete(s.vars, name)
	}

	return count, nil
}

func (s *state) seq(n *tree.Node) (int, error) {
	count := 0

	for i, a := range n.Args {
		c, err := s.flatten(a)
		if err != nil {
			return 0, err
		}

		if i < len(n.Args)-1 {
			s.emit(s.pops(c, a.Meta)...)
		} else {
			count = c
		}
	}

	return count, nil
}

func (s *state) unless(n *tree.Node) (int, error) {
	if err := s.arity(n, 2); err != nil {
		return 0, err
	}

	m := n.Meta
	end := "endif" + s.names.Suffix()

	if err := s.value(n.Args[0]); err != nil {
		return 0, err
	}

	s.emit(Ref(end, m), Op("JUMPI", m))

	c, err := s.flatten(n.Args[1])
	if err != nil {
		return 0, err
	}

	s.emit(s.pops(c, m)...)
	s.emit(Def(end, m), Op("JUMPDEST", m))

	return 0, nil
}

// ifElse yields the branch value when both branches agree on the count,
// otherwise drops both.
func (s *state) ifElse(n *tree.Node) (int, error) {
	if err := s.arity(n, 3); err != nil {
		return 0, err
	}

	m := n.Meta
	suffix := s.names.Suffix()
	elseLabel, end := "else"+suffix, "endif"+suffix

	if err := s.value(n.Args[0]); err != nil {
		return 0, err
	}

	s.emit(Op("ISZERO", m), Ref(elseLabel, m), Op("JUMPI", m))

	thenCount, err := s.flatten(n.Args[1])
	if err != nil {
		return 0, err
	}

	mark := len(s.code)
	s.emit(Ref(end, m), Op("JUMP", m), Def(elseLabel, m), Op("JUMPDEST", m))

	elseCount, err := s.flatten(n.Args[2])
	if err != nil {
		return 0, err
	}

	if thenCount != elseCount {
		s.emit(s.pops(elseCount, m)...)
		s.code = slices.Insert(s.code, mark, s.pops(thenCount, m)...)
		thenCount = 0
	}

	s.emit(Def(end, m), Op("JUMPDEST", m))

	return thenCount, nil
}

func (s *state) until(n *tree.Node) (int, error) {
	if err := s.arity(n, 2); err != nil {
		return 0, err
	}

	m := n.Meta
	suffix := s.names.Suffix()
	begin, end := "beg"+suffix, "end"+suffix

	s.emit(Def(begin, m), Op("JUMPDEST", m))

	if err := s.value(n.Args[0]); err != nil {
		return 0, err
	}

	s.emit(Ref(end, m), Op("JUMPI", m))

	c, err := s.flatten(n.Args[1])
	if err != nil {
		return 0, err
	}

	s.emit(s.pops(c, m)...)
	s.emit(Ref(begin, m), Op("JUMP", m), Def(end, m), Op("JUMPDEST", m))

	return 0, nil
}

// lll copies the compiled code of its first argument to the memory address
// given by the second and yields the code length.
func (s *state) lll(n *tree.Node) (int, error) {
	if err := s.arity(n, 2); err != nil {
		return 0, err
	}

	m := n.Meta
	suffix := s.names.Suffix()
	begin, end := "begincode"+suffix, "endcode"+suffix

	s.emit(Ref(begin+"."+end, m), Op("DUP1", m), Ref(begin, m))

	if err := s.value(n.Args[1]); err != nil {
		return 0, err
	}

	s.emit(Op("CODECOPY", m), Ref(end, m), Op("JUMP", m), Def(begin, m), Token{Kind: RegionBegin, Meta: m})

	inner := newState(s.names)
	if _, err := inner.flatten(n.Args[0]); err != nil {
		return 0, err
	}

	s.emit(inner.finalize(n.Args[0].Meta)...)
	s.emit(Token{Kind: RegionEnd, Meta: m}, Def(end, m), Op("JUMPDEST", m))

	return 1, nil
}

// allocate turns the size on top of the stack into a pointer to that many
// fresh bytes by touching the last one.
func (s *state) allocate(m tree.Metadata) {
	s.allocUsed = true
	s.op("MSIZE", m)
	s.op("SWAP1", m)
	s.op("MSIZE", m)
	s.op("ADD", m)
	s.num(1, m)
	s.op("SWAP1", m)
	s.op("SUB", m)
	s.num(0, m)
	s.op("SWAP1", m)
	s.op("MSTORE8", m)
}

func (s *state) alloc(n *tree.Node) (int, error) {
	if err := s.arity(n, 1); err != nil {
		return 0, err
	}

	if err := s.value(n.Args[0]); err != nil {
		return 0, err
	}

	s.allocate(n.Meta)

	return 1, nil
}

// arrayLiteral stores the elements back to back without a length word and
// yields the start pointer.
func (s *state) arrayLiteral(n *tree.Node) (int, error) {
	m := n.Meta

	s.num(uint64(32*len(n.Args)), m)
	s.allocate(m)

	for i, a := range n.Args {
		if err := s.value(a); err != nil {
			return 0, err
		}

		s.op("DUP2", a.Meta)

		if i > 0 {
			s.num(uint64(32*i), a.Meta)
			s.op("ADD", a.Meta)
		}

		s.op("MSTORE", a.Meta)
	}

	return 1, nil
}

func (s *state) opcode(n *tree.Node) (int, error) {
	spec, ok := opcodes.Lookup(strings.TrimPrefix(n.Value, "~"))
	if !ok {
		return 0, snaplll.Errorf(n.Meta, snaplll.ErrValidation, "unknown form %s", n.Value)
	}

	if err := s.arity(n, spec.In); err != nil {
		return 0, err
	}

	for i := len(n.Args) - 1; i >= 0; i-- {
		if err := s.value(n.Args[i]); err != nil {
			return 0, err
		}
	}

	s.emit(Token{Kind: Opcode, Op: spec, Meta: n.Meta})

	return spec.Out, nil
}

// finalize prepends the prologue: moving the free memory pointer past the
// variable slots when memory is allocated, and copying the call input into
// memory when msg.data is read.
func (s *state) finalize(m tree.Metadata) []Token {
	var out []Token

	if (s.allocUsed || s.calldataUsed) && s.slots > 0 {
		out = append(out,
			Lit(uint256.NewInt(0), m),
			Lit(uint256.NewInt(uint64(32*s.slots-1)), m),
			Op("MSTORE8", m))
	}

	if s.calldataUsed {
		out = append(out,
			Op("MSIZE", m),
			Op("CALLDATASIZE", m),
			Lit(uint256.NewInt(0), m),
			Op("MSIZE", m),
			Op("CALLDATACOPY", m),
			Lit(uint256.NewInt(uint64(32*s.vars["msg.data"])), m),
			Op("MSTORE", m))
	}

	return append(out, s.code...)
}
