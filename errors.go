package snaplll

import (
	"errors"
	"fmt"

	"github.com/shibukawa/snaplll/tree"
)

// Error categories. Every compile error unwraps to exactly one of these.
var (
	// ErrStructural indicates a wrong arity or a malformed declaration.
	ErrStructural = errors.New("structural error")
	// ErrArithmeticBound indicates a literal or folded value outside the word range.
	ErrArithmeticBound = errors.New("arithmetic bound exceeded")
	// ErrAddressing indicates a storage path accessed with the wrong shape.
	ErrAddressing = errors.New("storage addressing error")
	// ErrCallABI indicates an unresolvable or ill-formed call.
	ErrCallABI = errors.New("call error")
	// ErrResolution indicates an undefined label during assembly.
	ErrResolution = errors.New("label resolution error")
	// ErrValidation indicates a form that survived rewriting but cannot be compiled.
	ErrValidation = errors.New("invalid form")
	// ErrWarningAsError is used when warnings are promoted to errors.
	ErrWarningAsError = errors.New("warning treated as error")
)

// CompileError is a fatal error tied to a source location.
type CompileError struct {
	Meta    tree.Metadata
	Kind    error
	Message string
	Cause   error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Meta, e.Kind, e.Message)
}

func (e *CompileError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}

	return []error{e.Kind}
}

// Errorf builds a CompileError of the given category.
func Errorf(meta tree.Metadata, kind error, format string, args ...any) error {
	return &CompileError{Meta: meta, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a location and category to an error from a helper package,
// keeping the original error reachable through errors.Is.
func Wrap(meta tree.Metadata, kind error, err error) error {
	var ce *CompileError
	if errors.As(err, &ce) {
		return err
	}

	return &CompileError{Meta: meta, Kind: kind, Message: err.Error(), Cause: err}
}

// Warning is a non-fatal diagnostic.
type Warning struct {
	Meta    tree.Metadata
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: warning: %s", w.Meta, w.Message)
}

// Warnings collects diagnostics for one compilation unit.
type Warnings struct {
	list []Warning
}

// Add records a warning.
func (w *Warnings) Add(meta tree.Metadata, format string, args ...any) {
	w.list = append(w.list, Warning{Meta: meta, Message: fmt.Sprintf(format, args...)})
}

// List returns the recorded warnings in order.
func (w *Warnings) List() []Warning {
	return w.list
}

// AsError returns the first warning as an error, or nil.
func (w *Warnings) AsError() error {
	if len(w.list) == 0 {
		return nil
	}

	first := w.list[0]

	return Errorf(first.Meta, ErrWarningAsError, "%s", first.Message)
}
