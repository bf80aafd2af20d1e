package rewriter

import (
	"strings"

	"github.com/shibukawa/snaplll"
	"github.com/shibukawa/snaplll/pattern"
	"github.com/shibukawa/snaplll/preprocess"
	"github.com/shibukawa/snaplll/tree"
)

// Options tune one engine.
type Options struct {
	FoldConstants bool
	TempPrefix    string
}

// form rewrites a node whose head it is registered for. The boolean is
// false when the node is not of the form after all.
type form func(e *Engine, n *tree.Node) (*tree.Node, bool, error)

// Engine rewrites one compilation unit. It is not safe for concurrent use;
// run one engine per unit.
type Engine struct {
	lib      *Library
	prog     *preprocess.Program
	names    *tree.NameGen
	warnings *snaplll.Warnings
	opts     Options
	forms    map[string]form
}

// New creates an engine for prog. prog may be nil for plain LLL input.
func New(lib *Library, prog *preprocess.Program, warnings *snaplll.Warnings, opts Options) *Engine {
	if warnings == nil {
		warnings = &snaplll.Warnings{}
	}

	e := &Engine{
		lib:      lib,
		prog:     prog,
		names:    tree.NewNameGen(opts.TempPrefix),
		warnings: warnings,
		opts:     opts,
	}

	e.forms = map[string]form{
		"log":       (*Engine).log,
		"array_lit": (*Engine).arrayLiteral,
		"text":      (*Engine).text,
		"fun":       (*Engine).funCall,
		".":         (*Engine).storageRead,
		"access":    (*Engine).storageRead,
		"set":       (*Engine).storageWrite,
		"prefix":    (*Engine).prefix,
	}

	return e
}

// Names exposes the unit's name generator so later stages keep numbering.
func (e *Engine) Names() *tree.NameGen {
	return e.names
}

// Rewrite expands the preprocessed program body into plain LLL, then folds
// constants and validates the result.
func (e *Engine) Rewrite() (*tree.Node, error) {
	return e.RewriteNode(e.prog.Body)
}

// RewriteNode expands n against the engine's program tables.
func (e *Engine) RewriteNode(n *tree.Node) (*tree.Node, error) {
	if e.prog != nil {
		for _, tier := range e.prog.Macros {
			n = e.expandTier(n, tier.Rules)
		}

		n = e.eraseTypes(n)
	}

	n, err := e.rewrite(n)
	if err != nil {
		return nil, err
	}

	return e.Finish(n)
}

// RewriteLLL normalizes variable references of plain LLL input without the
// sugar layer, then folds and validates it.
func (e *Engine) RewriteLLL(n *tree.Node) (*tree.Node, error) {
	return e.Finish(normalize(n))
}

// Finish runs constant folding (when enabled) and validation.
func (e *Engine) Finish(n *tree.Node) (*tree.Node, error) {
	if e.opts.FoldConstants {
		folded, err := Fold(n)
		if err != nil {
			return nil, err
		}

		n = folded
	}

	if err := Validate(n); err != nil {
		return nil, err
	}

	return n, nil
}

// expandTier applies one tier of custom macros until none fires. A rule
// whose template matches its own pattern never terminates.
func (e *Engine) expandTier(n *tree.Node, rules *pattern.RuleSet) *tree.Node {
	for {
		next, changed := e.expandOnce(n, rules)
		if !changed {
			return next
		}

		n = next
	}
}

func (e *Engine) expandOnce(n *tree.Node, rules *pattern.RuleSet) (*tree.Node, bool) {
	changed := false

	for {
		r, ok := rules.Apply(n, e.names.Prefix)
		if !ok {
			break
		}

		n, changed = r, true
	}

	if n.IsLeaf() {
		return n, changed
	}

	args := make([]*tree.Node, len(n.Args))
	childChanged := false

	for i, a := range n.Args {
		var c bool

		args[i], c = e.expandOnce(a, rules)
		childChanged = childChanged || c
	}

	if !childChanged {
		return n, changed
	}

	return n.WithArgs(args), true
}

// eraseTypes unwraps (typename x) markers left by custom types.
func (e *Engine) eraseTypes(n *tree.Node) *tree.Node {
	if n.IsLeaf() || len(e.prog.TypeNames) == 0 {
		return n
	}

	if e.prog.TypeNames[n.Value] && len(n.Args) == 1 {
		return e.eraseTypes(n.Args[0])
	}

	args := make([]*tree.Node, len(n.Args))
	for i, a := range n.Args {
		args[i] = e.eraseTypes(a)
	}

	return n.WithArgs(args)
}

// rewrite settles n top-down: special forms, synonyms, setters and
// built-in macros are applied until nothing fires, then the children are
// rewritten.
func (e *Engine) rewrite(n *tree.Node) (*tree.Node, error) {
	for {
		next, ok, err := e.step(n)
		if err != nil {
			return nil, err
		}

		if !ok {
			break
		}

		n = next
	}

	if n.IsLeaf() {
		return readVariable(n), nil
	}

	if n.Is("get") || n.Is("ref") {
		return n, nil
	}

	args := make([]*tree.Node, len(n.Args))
	copy(args, n.Args)

	for i := namedArgs(n); i < len(args); i++ {
		a, err := e.rewrite(args[i])
		if err != nil {
			return nil, err
		}

		args[i] = a
	}

	return n.WithArgs(args), nil
}

func (e *Engine) step(n *tree.Node) (*tree.Node, bool, error) {
	if n.IsLeaf() {
		if expanded, ok := e.expandSelf(n); ok {
			return expanded, true, nil
		}

		r, ok := e.lib.macros.Apply(n, e.names.Prefix)

		return r, ok, nil
	}

	if f, ok := e.forms[n.Value]; ok {
		r, ok, err := f(e, n)
		if err != nil || ok {
			return r, ok, err
		}
	}

	if syn, ok := e.lib.synonyms[n.Value]; ok {
		return n.WithHead(syn), true, nil
	}

	if op, ok := e.lib.setters[n.Value]; ok && len(n.Args) == 2 {
		target := n.Args[0]
		value := tree.NewCompound(op, n.Meta, target.Clone(), n.Args[1])

		return tree.NewCompound("set", n.Meta, target, value), true, nil
	}

	if r, ok := e.lib.macros.Apply(n, e.names.Prefix); ok {
		return r, true, nil
	}

	if isDottedHead(n.Value) {
		return e.dottedCall(n)
	}

	return n, false, nil
}

// namedArgs returns how many leading arguments of n name a variable
// instead of reading it.
func namedArgs(n *tree.Node) int {
	switch n.Value {
	case "set", "with", "get", "ref":
		if len(n.Args) > 0 && n.Args[0].IsLeaf() {
			return 1
		}
	}

	return 0
}

func readVariable(n *tree.Node) *tree.Node {
	if tree.IsNumberLike(n) {
		return n
	}

	return tree.NewCompound("get", n.Meta, n)
}

// normalize wraps bare identifiers in (get x) throughout plain LLL.
func normalize(n *tree.Node) *tree.Node {
	if n.IsLeaf() {
		return readVariable(n)
	}

	if n.Is("get") || n.Is("ref") {
		return n
	}

	args := make([]*tree.Node, len(n.Args))
	copy(args, n.Args)

	for i := namedArgs(n); i < len(args); i++ {
		args[i] = normalize(args[i])
	}

	return n.WithArgs(args)
}

func isDottedHead(head string) bool {
	if strings.HasPrefix(head, "~") {
		return false
	}

	i := strings.LastIndexByte(head, '.')

	return i > 0 && i < len(head)-1
}
