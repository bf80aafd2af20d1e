package abi

import (
	"errors"
	"fmt"

	"github.com/shibukawa/snaplll/hashing"
)

var (
	ErrTooManyIndexed = errors.New("events may have at most 3 indexed fields")
	ErrIndexedArray   = errors.New("indexed event fields cannot be arrays")
)

// Function is the metadata of a callable function.
type Function struct {
	Name      string
	ArgNames  []string
	ArgTypes  []Type
	Return    *Type // nil for functions that return nothing
	Selector  [4]byte
	Constant  bool
	Ambiguous bool
}

// NewFunction creates function metadata and derives its selector.
func NewFunction(name string, argNames []string, argTypes []Type, ret *Type) *Function {
	return &Function{
		Name:     name,
		ArgNames: argNames,
		ArgTypes: argTypes,
		Return:   ret,
		Selector: hashing.Selector(name, Names(argTypes)),
	}
}

// Signature returns "name(type,...)".
func (f *Function) Signature() string {
	return hashing.Signature(f.Name, Names(f.ArgTypes))
}

// SelectorValue returns the selector as an integer.
func (f *Function) SelectorValue() uint32 {
	return uint32(f.Selector[0])<<24 | uint32(f.Selector[1])<<16 | uint32(f.Selector[2])<<8 | uint32(f.Selector[3])
}

// DisambiguatedName returns "name::<8 hex digits of the selector>".
func (f *Function) DisambiguatedName() string {
	return fmt.Sprintf("%s::%08x", f.Name, f.SelectorValue())
}

// ReturnName returns the return type name, "_" when there is none.
func (f *Function) ReturnName() string {
	if f.Return == nil {
		return "_"
	}

	return f.Return.Name
}

// Event is the metadata of a log event.
type Event struct {
	Name     string
	ArgNames []string
	ArgTypes []Type
	Indexed  []bool
	Topic    [32]byte
}

// NewEvent creates event metadata, enforcing the indexed-field limits.
func NewEvent(name string, argNames []string, argTypes []Type, indexed []bool) (*Event, error) {
	count := 0

	for i, ix := range indexed {
		if !ix {
			continue
		}

		count++
		if argTypes[i].Tag == ElementArray {
			return nil, fmt.Errorf("%w: %s.%s", ErrIndexedArray, name, argNames[i])
		}
	}

	if count > 3 {
		return nil, fmt.Errorf("%w: %s has %d", ErrTooManyIndexed, name, count)
	}

	return &Event{
		Name:     name,
		ArgNames: argNames,
		ArgTypes: argTypes,
		Indexed:  indexed,
		Topic:    hashing.EventTopic(name, Names(argTypes)),
	}, nil
}

// Signature returns "Name(type,...)".
func (e *Event) Signature() string {
	return hashing.Signature(e.Name, Names(e.ArgTypes))
}
