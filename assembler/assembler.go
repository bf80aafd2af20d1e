// Package assembler resolves labels in a flat token stream and converts it
// to machine code and back.
package assembler

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/shibukawa/snaplll"
	"github.com/shibukawa/snaplll/codegen"
	"github.com/shibukawa/snaplll/opcodes"
	"github.com/shibukawa/snaplll/tree"
)

var (
	ErrUndefinedLabel   = errors.New("undefined label")
	ErrDuplicateLabel   = errors.New("label defined twice")
	ErrUnbalancedRegion = errors.New("unbalanced code region")
	ErrNegativeDistance = errors.New("label distance is negative")
	ErrUnresolved       = errors.New("token is not resolved")
	ErrTruncatedPush    = errors.New("push data runs past the end of the code")
)

// keeps 256^w within int
const maxWidth = 7

// Width returns the label width in bytes: the smallest w for which every
// position in the program encoded with w-byte labels fits in w bytes.
func Width(tokens []codegen.Token) int {
	w := 1
	for w < maxWidth && size(tokens, w) >= 1<<(8*w) {
		w++
	}

	return w
}

func size(tokens []codegen.Token, width int) int {
	total := 0
	for _, t := range tokens {
		total += encodedSize(t, width)
	}

	return total
}

func encodedSize(t codegen.Token, width int) int {
	switch t.Kind {
	case codegen.Opcode:
		return 1
	case codegen.Literal:
		return 1 + len(t.Value.Bytes())
	case codegen.LabelRef:
		return 1 + width
	case codegen.Data:
		return len(t.Bytes)
	}

	return 0
}

func resolutionError(meta tree.Metadata, err error) error {
	return snaplll.Wrap(meta, snaplll.ErrResolution, err)
}

// positions binds every label to its offset from the start of its innermost
// code region.
func positions(tokens []codegen.Token, width int) (map[string]int, error) {
	labels := map[string]int{}
	regions := []int{0}
	pos := 0

	for _, t := range tokens {
		switch t.Kind {
		case codegen.LabelDef:
			if _, ok := labels[t.Label]; ok {
				return nil, resolutionError(t.Meta, fmt.Errorf("%w: %s", ErrDuplicateLabel, t.Label))
			}

			labels[t.Label] = pos - regions[len(regions)-1]
		case codegen.RegionBegin:
			regions = append(regions, pos)
		case codegen.RegionEnd:
			if len(regions) == 1 {
				return nil, resolutionError(t.Meta, ErrUnbalancedRegion)
			}

			regions = regions[:len(regions)-1]
		default:
			pos += encodedSize(t, width)
		}
	}

	if len(regions) != 1 {
		return nil, resolutionError(tree.Metadata{}, ErrUnbalancedRegion)
	}

	return labels, nil
}

// Dereference replaces literals and label references by PUSH instructions
// with their immediate data, and drops label and region markers. The result
// holds only Opcode and Data tokens.
func Dereference(tokens []codegen.Token) ([]codegen.Token, error) {
	width := Width(tokens)

	labels, err := positions(tokens, width)
	if err != nil {
		return nil, err
	}

	out := make([]codegen.Token, 0, len(tokens))

	for _, t := range tokens {
		switch t.Kind {
		case codegen.Opcode, codegen.Data:
			out = append(out, t)
		case codegen.Literal:
			out = appendPush(out, t.Value.Bytes(), t.Meta)
		case codegen.LabelRef:
			v, err := labelValue(t, labels)
			if err != nil {
				return nil, err
			}

			buf := uint256.NewInt(uint64(v)).Bytes32()
			out = appendPush(out, buf[32-width:], t.Meta)
		}
	}

	return out, nil
}

func labelValue(t codegen.Token, labels map[string]int) (int, error) {
	lookup := func(name string) (int, error) {
		v, ok := labels[name]
		if !ok {
			return 0, resolutionError(t.Meta, fmt.Errorf("%w: %s", ErrUndefinedLabel, name))
		}

		return v, nil
	}

	from, to, ok := t.Distance()
	if !ok {
		return lookup(t.Label)
	}

	start, err := lookup(from)
	if err != nil {
		return 0, err
	}

	end, err := lookup(to)
	if err != nil {
		return 0, err
	}

	if end < start {
		return 0, resolutionError(t.Meta, fmt.Errorf("%w: %s", ErrNegativeDistance, t.Label))
	}

	return end - start, nil
}

func appendPush(out []codegen.Token, data []byte, meta tree.Metadata) []codegen.Token {
	out = append(out, codegen.Token{Kind: codegen.Opcode, Op: opcodes.Push(len(data)), Meta: meta})
	if len(data) > 0 {
		out = append(out, codegen.Token{Kind: codegen.Data, Bytes: data, Meta: meta})
	}

	return out
}
