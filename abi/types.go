// Package abi describes function and event signatures and builds the trees
// that pack and unpack call arguments.
package abi

import "strings"

// Tag classifies how a value travels through a call.
type Tag int

const (
	// FixedWord is a single 32-byte word.
	FixedWord Tag = iota
	// ByteString is a length-prefixed run of bytes.
	ByteString
	// ElementArray is a length-prefixed run of words.
	ElementArray
)

func (t Tag) String() string {
	switch t {
	case ByteString:
		return "byte-string"
	case ElementArray:
		return "element-array"
	default:
		return "fixed-word"
	}
}

// Type is a canonical type name plus its tag.
type Type struct {
	Name string
	Tag  Tag
}

var (
	Int256   = Type{Name: "int256", Tag: FixedWord}
	Bytes    = Type{Name: "bytes", Tag: ByteString}
	IntArray = Type{Name: "int256[]", Tag: ElementArray}
)

// ParseType maps a surface type name to a Type. "arr" and "str" are
// shorthands; unknown names are kept as custom fixed-word types.
func ParseType(name string) Type {
	switch name {
	case "", "int", "num", "int256":
		return Int256
	case "arr":
		return IntArray
	case "str", "bytes", "string":
		if name == "string" {
			return Type{Name: "string", Tag: ByteString}
		}

		return Bytes
	}

	if strings.HasSuffix(name, "[]") {
		return Type{Name: name, Tag: ElementArray}
	}

	return Type{Name: name, Tag: FixedWord}
}

// ParseShortCode maps the deprecated one-letter codes i, s and a.
func ParseShortCode(c byte) (Type, bool) {
	switch c {
	case 'i':
		return Int256, true
	case 's':
		return Bytes, true
	case 'a':
		return IntArray, true
	}

	return Type{}, false
}

// IsVariable reports whether values of t carry a length.
func (t Type) IsVariable() bool {
	return t.Tag != FixedWord
}

// Names returns the canonical names of types.
func Names(types []Type) []string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.Name
	}

	return names
}
