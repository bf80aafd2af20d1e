package rewriter

import (
	"errors"
	"strings"

	"github.com/shibukawa/snaplll"
	"github.com/shibukawa/snaplll/opcodes"
	"github.com/shibukawa/snaplll/tree"
	"github.com/shibukawa/snaplll/word"
)

// arity of the forms the code generator understands; -1 is variadic.
var flatForms = map[string]int{
	"seq":       -1,
	"array_lit": -1,
	"unless":    2,
	"if":        3,
	"until":     2,
	"lll":       2,
	"alloc":     1,
	"set":       2,
	"get":       1,
	"ref":       1,
	"with":      3,
}

var reserved = map[string]bool{
	"self":     true,
	"msg":      true,
	"tx":       true,
	"block":    true,
	"contract": true,
}

// Validate checks that n consists only of code generator forms and opcodes
// with their exact arity, that every leaf in value position is an in-range
// literal and that variable names are usable.
func Validate(n *tree.Node) error {
	if n.IsLeaf() {
		return validateLiteral(n)
	}

	head := strings.TrimPrefix(n.Value, "~")

	switch {
	case n.Value == "":
		return snaplll.Errorf(n.Meta, snaplll.ErrValidation, "form has no head symbol")
	case n.Value == ".":
		return snaplll.Errorf(n.Meta, snaplll.ErrValidation, "unresolved member access %s", n)
	}

	if want, ok := flatForms[n.Value]; ok {
		if want >= 0 && len(n.Args) != want {
			return snaplll.Errorf(n.Meta, snaplll.ErrStructural, "%s takes %d arguments, got %d", n.Value, want, len(n.Args))
		}
	} else if spec, ok := opcodes.Lookup(head); ok {
		if opcodes.PushSize(spec.Code) >= 0 || spec.Code == opcodes.JUMPDEST {
			return snaplll.Errorf(n.Meta, snaplll.ErrValidation, "%s cannot be written as a form", n.Value)
		}

		if len(n.Args) != spec.In {
			return snaplll.Errorf(n.Meta, snaplll.ErrStructural, "%s takes %d arguments, got %d", head, spec.In, len(n.Args))
		}
	} else {
		return snaplll.Errorf(n.Meta, snaplll.ErrValidation, "unknown form %s", n.Value)
	}

	args := n.Args
	if namedArgs(n) == 1 {
		if err := validateName(n.Args[0]); err != nil {
			return err
		}

		args = args[1:]
	} else if n.Is("set") || n.Is("with") || n.Is("get") || n.Is("ref") {
		return snaplll.Errorf(n.Meta, snaplll.ErrValidation, "%s needs a variable name, got %s", n.Value, n.Args[0])
	}

	for _, a := range args {
		if err := Validate(a); err != nil {
			return err
		}
	}

	return nil
}

func validateLiteral(n *tree.Node) error {
	if !tree.IsNumberLike(n) {
		return snaplll.Errorf(n.Meta, snaplll.ErrValidation, "unexpected identifier %s", n.Value)
	}

	if _, err := word.Parse(n.Value); err != nil {
		if errors.Is(err, word.ErrTooLarge) {
			return snaplll.Wrap(n.Meta, snaplll.ErrArithmeticBound, err)
		}

		return snaplll.Wrap(n.Meta, snaplll.ErrValidation, err)
	}

	return nil
}

func validateName(n *tree.Node) error {
	name := n.Value

	switch {
	case tree.IsNumberLike(n):
		return snaplll.Errorf(n.Meta, snaplll.ErrValidation, "%s is not a variable name", name)
	case reserved[name]:
		return snaplll.Errorf(n.Meta, snaplll.ErrValidation, "%s is reserved", name)
	case name == "msg.data":
		return nil
	case strings.Contains(name, "."):
		return snaplll.Errorf(n.Meta, snaplll.ErrValidation, "unresolved member access %s", name)
	}

	return nil
}
