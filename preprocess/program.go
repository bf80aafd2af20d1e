// Package preprocess scans the top level of a program for declarations and
// assembles the dispatch wrapper that the rewrite engine then expands.
package preprocess

import (
	"github.com/shibukawa/snaplll/abi"
	"github.com/shibukawa/snaplll/layout"
	"github.com/shibukawa/snaplll/pattern"
	"github.com/shibukawa/snaplll/tree"
)

// FunctionIDVar holds the selector of the current call inside the dispatcher.
const FunctionIDVar = "__funid"

// Program is the result of preprocessing one compilation unit.
type Program struct {
	// Body is the wrapped program: shared and init code followed by the
	// deployment of the runtime code.
	Body *tree.Node

	// Functions maps both "name" and "name::selector" to the same entry.
	Functions    map[string]*abi.Function
	FunctionList []*abi.Function

	Events    map[string]*abi.Event
	EventList []*abi.Event

	// Externs maps method names (and their disambiguated forms) across
	// every extern declaration. ExternGroups keeps them per declaration.
	Externs      map[string]*abi.Function
	ExternGroups map[string]map[string]*abi.Function

	Macros pattern.Tiers

	// TypeNames are the custom type names declared with (type ...).
	TypeNames map[string]bool

	Layout *layout.Layout
}

func newProgram() *Program {
	return &Program{
		Functions:    map[string]*abi.Function{},
		Events:       map[string]*abi.Event{},
		Externs:      map[string]*abi.Function{},
		ExternGroups: map[string]map[string]*abi.Function{},
		TypeNames:    map[string]bool{},
		Layout:       layout.New(),
	}
}

// LookupFunction resolves a method for a dotted call. An empty group searches
// the program itself when self is true and every extern otherwise.
func (p *Program) LookupFunction(self bool, group, name string) (*abi.Function, bool) {
	switch {
	case self:
		f, ok := p.Functions[name]
		return f, ok
	case group != "":
		f, ok := p.ExternGroups[group][name]
		return f, ok
	default:
		f, ok := p.Externs[name]
		return f, ok
	}
}
