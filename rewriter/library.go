// Package rewriter expands the sugar layer of a program into plain LLL.
package rewriter

import (
	"github.com/shibukawa/snaplll/pattern"
)

var synonyms = map[string]string{
	"or":   "||",
	"and":  "&&",
	"|":    "~or",
	"&":    "~and",
	"xor":  "~xor",
	"!":    "iszero",
	"not":  "iszero",
	"+":    "add",
	"-":    "sub",
	"*":    "mul",
	"/":    "sdiv",
	"^":    "exp",
	"**":   "exp",
	"%":    "smod",
	"<":    "slt",
	">":    "sgt",
	"$/":   "div",
	"$%":   "mod",
	"$<":   "lt",
	"$>":   "gt",
	"=":    "set",
	"==":   "eq",
	"elif": "if",
}

var setters = map[string]string{
	"+=": "add",
	"-=": "sub",
	"*=": "mul",
	"/=": "sdiv",
	"%=": "smod",
	"^=": "exp",
}

// Rules are tried in order; the first match wins.
var macros = [][2]string{
	{"(seq (seq) $x)", "$x"},

	// control flow
	{"(if $cond $do (else $else))", "(if $cond $do $else)"},
	{"(if (iszero $cond) $do)", "(unless $cond $do)"},
	{"(if $cond $do)", "(unless (iszero $cond) $do)"},
	{"(while $cond $do)", "(until (iszero $cond) $do)"},
	{"(code $code)", "$code"},
	{"(assert $x)", "(unless $x (~invalid))"},

	// logic and comparison
	{"(&& $x $y)", "(if $x $y 0)"},
	{"(|| $x $y)", "(with $1 $x (if $1 $1 $y))"},
	{"(!= $x $y)", "(iszero (eq $x $y))"},
	{"(>= $x $y)", "(iszero (slt $x $y))"},
	{"(<= $x $y)", "(iszero (sgt $x $y))"},
	{"(min $a $b)", "(with $1 $a (with $2 $b (if (slt $1 $2) $1 $2)))"},
	{"(max $a $b)", "(with $1 $a (with $2 $b (if (slt $1 $2) $2 $1)))"},

	// call input, storage and memory arrays
	{"(access msg.data $ind)", "(calldataload (mul 32 $ind))"},
	{"(access self.storage $ind)", "(sload $ind)"},
	{"(set (access self.storage $ind) $val)", "(sstore $ind $val)"},
	{"(access $var $ind)", "(mload (add $var (mul 32 $ind)))"},
	{"(set (access $var $ind) $val)", "(mstore (add $var (mul 32 $ind)) $val)"},
	{"(getch $var $ind)", "(byte 0 (mload (add $var $ind)))"},
	{"(setch $var $ind $val)", "(mstore8 (add $var $ind) $val)"},

	// value transfer and hashing
	{"(send $to $value)", "(~call (sub (gas) 25) $to $value 0 0 0 0)"},
	{"(send $gas $to $value)", "(~call $gas $to $value 0 0 0 0)"},
	{"(sha3 $start (= items $n))", "(~sha3 $start (mul 32 $n))"},
	{"(sha3 $start (= chars $n))", "(~sha3 $start $n)"},
	{"(sha3 $x)", "(seq (set $1 $x) (~sha3 (ref $1) 32))"},
	{"(sha3 $start $len)", "(~sha3 $start (mul 32 $len))"},
	{"(sha256 $x (= chars $n))", "(with $1 (alloc 32) (seq (pop (~call (sub (gas) 25) 2 0 $x $n $1 32)) (mload $1)))"},
	{"(sha256 $x)", "(seq (set $1 $x) (pop (~call (sub (gas) 25) 2 0 (ref $1) 32 (ref $2) 32)) (get $2))"},
	{"(ripemd160 $x (= chars $n))", "(with $1 (alloc 32) (seq (pop (~call (sub (gas) 25) 3 0 $x $n $1 32)) (mload $1)))"},
	{"(ripemd160 $x)", "(seq (set $1 $x) (pop (~call (sub (gas) 25) 3 0 (ref $1) 32 (ref $2) 32)) (get $2))"},
	{
		"(ecrecover $h $v $r $s)",
		"(with $1 (alloc 128) (seq (mstore $1 $h) (mstore (add $1 32) $v) (mstore (add $1 64) $r) (mstore (add $1 96) $s) " +
			"(pop (~call (sub (gas) 25) 1 0 $1 128 $1 32)) (mload $1)))",
	},

	// raw message calls; sizes are in words
	{"(msg $gas $to $val $dataval)", "(seq (set $1 $dataval) (pop (~call $gas $to $val (ref $1) 32 (ref $2) 32)) (get $2))"},
	{"(call $f $dataval)", "(msg (sub (gas) 45) $f 0 $dataval)"},
	{"(msg $gas $to $val $inp $inpsz)", "(seq (pop (~call $gas $to $val $inp (mul 32 $inpsz) (ref $1) 32)) (get $1))"},
	{"(call $f $inp $inpsz)", "(seq (set $1 $inpsz) (msg (sub (gas) (add 25 (get $1))) $f 0 $inp (get $1)))"},
	{
		"(msg $gas $to $val $inp $inpsz $outsz)",
		"(seq (set $1 (mul 32 $outsz)) (set $2 (alloc (get $1))) " +
			"(pop (~call $gas $to $val $inp (mul 32 $inpsz) (get $2) (get $1))) (get $2))",
	},

	// returning
	{"(return $x (= items $n))", "(~return $x (mul 32 $n))"},
	{"(return $x (= chars $n))", "(~return $x $n)"},
	{"(return $start $len)", "(~return $start (mul 32 $len))"},
	{"(return $x)", "(seq (set $1 $x) (~return (ref $1) 32))"},

	// contract creation
	{"(create $code)", "(create 0 $code)"},
	{"(create $value $code)", "(with $1 (msize) (~create $value $1 (lll $code $1)))"},

	// length-prefixed buffers
	{"(array $n)", "(with $1 $n (with $2 (alloc (add 32 (mul 32 $1))) (seq (mstore $2 $1) (add $2 32))))"},
	{"(string $n)", "(with $1 $n (with $2 (alloc (add 32 $1)) (seq (mstore $2 $1) (add $2 32))))"},
	{"(len $x)", "(mload (sub $x 32))"},
	{"(mcopy $to $from $bytes)", "(unsafe_mcopy $to $from $bytes)"},
	{
		"(unsafe_mcopy $to $from $bytes)",
		"(with $1 $to (with $2 $from (with $3 $bytes (until (slt $3 1) (seq " +
			"(mstore $1 (mload $2)) (set $1 (add $1 32)) (set $2 (add $2 32)) (set $3 (sub $3 32)))))))",
	},
	{"(save $loc $start (= items $n))", "(unsafe_save $loc $start $n)"},
	{"(save $loc $start (= chars $n))", "(unsafe_save $loc $start (div (add $n 31) 32))"},
	{
		"(unsafe_save $loc $start $items)",
		"(with $1 $loc (with $2 $start (with $3 $items (with $4 0 (until (iszero (slt $4 $3)) (seq " +
			"(sstore (add $1 $4) (mload (add $2 (mul 32 $4)))) (set $4 (add $4 1))))))))",
	},
	{"(load $loc (= items $n))", "(with $1 $n (with $2 (array $1) (seq (unsafe_load $2 $loc $1) $2)))"},
	{"(load $loc (= chars $n))", "(with $1 $n (with $2 (string $1) (seq (unsafe_load $2 $loc (div (add $1 31) 32)) $2)))"},
	{
		"(unsafe_load $dst $loc $items)",
		"(with $1 $dst (with $2 $loc (with $3 $items (with $4 0 (until (iszero (slt $4 $3)) (seq " +
			"(mstore (add $1 (mul 32 $4)) (sload (add $2 $4))) (set $4 (add $4 1))))))))",
	},

	// execution context
	{"msg.sender", "(caller)"},
	{"msg.value", "(callvalue)"},
	{"msg.gas", "(gas)"},
	{"msg.datasize", "(div (calldatasize) 32)"},
	{"tx.origin", "(origin)"},
	{"tx.gasprice", "(gasprice)"},
	{"tx.gas", "(gas)"},
	{"block.number", "(number)"},
	{"block.timestamp", "(timestamp)"},
	{"block.coinbase", "(coinbase)"},
	{"block.difficulty", "(difficulty)"},
	{"block.gaslimit", "(gaslimit)"},
	{"block.prevhash", "(blockhash (sub (number) 1))"},
	{"self", "(address)"},
	{"self.balance", "(balance (address))"},
	{"stop", "(stop)"},
}

// Library holds the built-in rewrite tables. It is immutable after
// NewLibrary returns and may be shared between engines.
type Library struct {
	synonyms map[string]string
	setters  map[string]string
	macros   *pattern.RuleSet
}

// NewLibrary parses the built-in macro table.
func NewLibrary() *Library {
	return &Library{
		synonyms: synonyms,
		setters:  setters,
		macros:   pattern.MustRuleSet(macros),
	}
}

// Size returns the number of built-in macro rules.
func (l *Library) Size() int {
	return l.macros.Len()
}
