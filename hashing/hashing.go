// Package hashing derives selectors and topics with Keccak-256.
package hashing

import (
	"encoding/binary"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Keccak256 hashes the concatenation of the given byte slices.
func Keccak256(data ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}

	var out [32]byte
	h.Sum(out[:0])

	return out
}

// Signature renders the canonical "name(type1,type2)" string.
func Signature(name string, types []string) string {
	return name + "(" + strings.Join(types, ",") + ")"
}

// Selector returns the first four bytes of the hash of the signature.
func Selector(name string, types []string) [4]byte {
	h := Keccak256([]byte(Signature(name, types)))

	var sel [4]byte
	copy(sel[:], h[:4])

	return sel
}

// SelectorValue returns the selector as a big-endian integer.
func SelectorValue(name string, types []string) uint32 {
	sel := Selector(name, types)
	return binary.BigEndian.Uint32(sel[:])
}

// EventTopic returns the full hash of an event signature.
func EventTopic(name string, types []string) [32]byte {
	return Keccak256([]byte(Signature(name, types)))
}
