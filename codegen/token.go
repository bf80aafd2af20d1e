// Package codegen linearizes rewritten LLL into a flat token stream with
// symbolic labels.
package codegen

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"github.com/shibukawa/snaplll/opcodes"
	"github.com/shibukawa/snaplll/tree"
	"github.com/shibukawa/snaplll/word"
)

// Kind classifies a token.
type Kind int

const (
	// Opcode is a concrete instruction.
	Opcode Kind = iota
	// Literal is a value still waiting for its PUSH width.
	Literal
	// LabelRef pushes a label position, or the distance between two labels.
	LabelRef
	// LabelDef binds a label to the current position.
	LabelDef
	// RegionBegin opens a nested code region; labels inside are relative to it.
	RegionBegin
	// RegionEnd closes the innermost region.
	RegionEnd
	// Data is raw immediate bytes following a PUSH.
	Data
)

const (
	regionBeginText = "#CODE_BEGIN"
	regionEndText   = "#CODE_END"
)

// Token is one element of the flat stream.
type Token struct {
	Kind  Kind
	Op    opcodes.Spec
	Value *uint256.Int
	Label string // "a" or "a.b" for the distance from a to b
	Bytes []byte
	Meta  tree.Metadata
}

// Op builds an opcode token by mnemonic. It panics on unknown names, which
// only happens for a typo in this package.
func Op(name string, meta tree.Metadata) Token {
	s, ok := opcodes.Lookup(name)
	if !ok {
		panic("codegen: unknown opcode " + name)
	}

	return Token{Kind: Opcode, Op: s, Meta: meta}
}

// Lit builds a literal token.
func Lit(v *uint256.Int, meta tree.Metadata) Token {
	return Token{Kind: Literal, Value: v, Meta: meta}
}

// Ref builds a label reference token.
func Ref(label string, meta tree.Metadata) Token {
	return Token{Kind: LabelRef, Label: label, Meta: meta}
}

// Def builds a label definition token.
func Def(label string, meta tree.Metadata) Token {
	return Token{Kind: LabelDef, Label: label, Meta: meta}
}

// Distance reports whether a reference measures the span between two labels,
// returning both names.
func (t Token) Distance() (from, to string, ok bool) {
	from, to, ok = strings.Cut(t.Label, ".")
	return from, to, ok
}

func (t Token) String() string {
	switch t.Kind {
	case Opcode:
		return t.Op.Name
	case Literal:
		return word.Text(t.Value)
	case LabelRef:
		return "$" + t.Label
	case LabelDef:
		return "~" + t.Label
	case RegionBegin:
		return regionBeginText
	case RegionEnd:
		return regionEndText
	case Data:
		return "0x" + hex.EncodeToString(t.Bytes)
	}

	return fmt.Sprintf("<token %d>", t.Kind)
}

// Format renders tokens separated by single spaces.
func Format(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.String()
	}

	return strings.Join(parts, " ")
}

// ParseTokens reads the text form written by Format. Numbers (decimal or
// 0x-hex) become literals.
func ParseTokens(src string) ([]Token, error) {
	var out []Token

	for _, f := range strings.Fields(src) {
		var meta tree.Metadata

		switch {
		case f == regionBeginText:
			out = append(out, Token{Kind: RegionBegin})
		case f == regionEndText:
			out = append(out, Token{Kind: RegionEnd})
		case strings.HasPrefix(f, "$") && len(f) > 1:
			out = append(out, Ref(f[1:], meta))
		case strings.HasPrefix(f, "~") && len(f) > 1:
			out = append(out, Def(f[1:], meta))
		case tree.IsNumberText(f):
			v, err := word.Parse(f)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrBadToken, err)
			}

			out = append(out, Lit(v, meta))
		default:
			s, ok := opcodes.Lookup(f)
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrBadToken, f)
			}

			out = append(out, Token{Kind: Opcode, Op: s})
		}
	}

	return out, nil
}
