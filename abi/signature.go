package abi

import (
	"encoding/json"
	"sort"
	"strings"
)

// Signature renders the extern line another program pastes in to call
// the given functions:
//
//	extern name: [f:[int256,bytes]:int256, g:[]:_]
func Signature(name string, fns []*Function) string {
	sorted := sortedFunctions(fns)

	var sb strings.Builder
	sb.WriteString("extern ")
	sb.WriteString(name)
	sb.WriteString(": [")

	for i, f := range sorted {
		if i > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(f.Name)
		sb.WriteString(":[")
		sb.WriteString(strings.Join(Names(f.ArgTypes), ","))
		sb.WriteString("]:")
		sb.WriteString(f.ReturnName())
	}

	sb.WriteString("]")

	return sb.String()
}

// Param is one input or output of a full signature entry.
type Param struct {
	Name    string `json:"name" yaml:"name"`
	Type    string `json:"type" yaml:"type"`
	Indexed *bool  `json:"indexed,omitempty" yaml:"indexed,omitempty"`
}

// Entry is a function or event in a full signature.
type Entry struct {
	Name     string  `json:"name" yaml:"name"`
	Type     string  `json:"type" yaml:"type"`
	Constant *bool   `json:"constant,omitempty" yaml:"constant,omitempty"`
	Inputs   []Param `json:"inputs" yaml:"inputs"`
	Outputs  []Param `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// FullSignature lists functions then events, each group sorted by name.
func FullSignature(fns []*Function, events []*Event) []Entry {
	entries := make([]Entry, 0, len(fns)+len(events))

	for _, f := range sortedFunctions(fns) {
		constant := f.Constant
		e := Entry{
			Name:     f.Signature(),
			Type:     "function",
			Constant: &constant,
			Inputs:   make([]Param, len(f.ArgTypes)),
			Outputs:  []Param{},
		}

		for i, t := range f.ArgTypes {
			e.Inputs[i] = Param{Name: argName(f.ArgNames, i), Type: t.Name}
		}

		if f.Return != nil {
			e.Outputs = append(e.Outputs, Param{Name: "out", Type: f.Return.Name})
		}

		entries = append(entries, e)
	}

	sortedEvents := append([]*Event(nil), events...)
	sort.Slice(sortedEvents, func(i, j int) bool { return sortedEvents[i].Name < sortedEvents[j].Name })

	for _, ev := range sortedEvents {
		e := Entry{
			Name:   ev.Signature(),
			Type:   "event",
			Inputs: make([]Param, len(ev.ArgTypes)),
		}

		for i, t := range ev.ArgTypes {
			indexed := ev.Indexed[i]
			e.Inputs[i] = Param{Name: argName(ev.ArgNames, i), Type: t.Name, Indexed: &indexed}
		}

		entries = append(entries, e)
	}

	return entries
}

// FullSignatureJSON renders FullSignature as indented JSON.
func FullSignatureJSON(fns []*Function, events []*Event) (string, error) {
	data, err := json.MarshalIndent(FullSignature(fns, events), "", "    ")
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func sortedFunctions(fns []*Function) []*Function {
	sorted := append([]*Function(nil), fns...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	return sorted
}

func argName(names []string, i int) string {
	if i < len(names) {
		return names[i]
	}

	return ""
}
