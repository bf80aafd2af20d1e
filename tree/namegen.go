package tree

import "strconv"

// NameGen hands out unique names for one compilation unit. Each unit owns its
// generator, so two compilations in the same process never collide with each
// other and a single unit never reuses a name.
type NameGen struct {
	stem string
	next int
}

// NewNameGen creates a generator whose names start with stem.
func NewNameGen(stem string) *NameGen {
	if stem == "" {
		stem = "_temp"
	}

	return &NameGen{stem: stem}
}

// Prefix returns a fresh hygiene prefix such as "_temp3_".
func (g *NameGen) Prefix() string {
	return g.stem + strconv.Itoa(g.take()) + "_"
}

// Name returns a fresh identifier derived from base, such as "_temp4_len".
func (g *NameGen) Name(base string) string {
	return g.Prefix() + base
}

// Suffix returns a fresh "_N" suffix for labels.
func (g *NameGen) Suffix() string {
	return "_" + strconv.Itoa(g.take())
}

// Reset restarts numbering. Only call it between independent units.
func (g *NameGen) Reset() {
	g.next = 0
}

func (g *NameGen) take() int {
	g.next++
	return g.next
}
