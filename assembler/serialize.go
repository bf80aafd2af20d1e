package assembler

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/shibukawa/snaplll/codegen"
	"github.com/shibukawa/snaplll/opcodes"
)

// Serialize converts dereferenced tokens into machine code.
func Serialize(tokens []codegen.Token) ([]byte, error) {
	var out []byte

	for _, t := range tokens {
		switch t.Kind {
		case codegen.Opcode:
			out = append(out, t.Op.Code)
		case codegen.Data:
			out = append(out, t.Bytes...)
		default:
			return nil, resolutionError(t.Meta, fmt.Errorf("%w: %s", ErrUnresolved, t))
		}
	}

	return out, nil
}

// Assemble dereferences and serializes tokens in one step.
func Assemble(tokens []codegen.Token) ([]byte, error) {
	resolved, err := Dereference(tokens)
	if err != nil {
		return nil, err
	}

	return Serialize(resolved)
}

// Hex renders code as lowercase hex without a prefix.
func Hex(code []byte) string {
	return hex.EncodeToString(code)
}

// DecodeHex reads hex code, tolerating a 0x prefix and whitespace.
func DecodeHex(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")

	return hex.DecodeString(s)
}

// Deserialize maps code back to tokens: one opcode token per instruction and
// one Data token holding the immediate bytes of each PUSH. Bytes that are not
// opcodes become single-byte Data tokens.
func Deserialize(code []byte) ([]codegen.Token, error) {
	var out []codegen.Token

	for i := 0; i < len(code); i++ {
		spec, ok := opcodes.ByCode(code[i])
		if !ok {
			out = append(out, codegen.Token{Kind: codegen.Data, Bytes: []byte{code[i]}})
			continue
		}

		out = append(out, codegen.Token{Kind: codegen.Opcode, Op: spec})

		n := opcodes.PushSize(spec.Code)
		if n <= 0 {
			continue
		}

		if i+n >= len(code) {
			return nil, fmt.Errorf("%w: %s at offset %d needs %d bytes", ErrTruncatedPush, spec.Name, i, n)
		}

		out = append(out, codegen.Token{Kind: codegen.Data, Bytes: append([]byte(nil), code[i+1:i+1+n]...)})
		i += n
	}

	return out, nil
}
