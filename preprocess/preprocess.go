package preprocess

import (
	"strings"

	"github.com/shibukawa/snaplll"
	"github.com/shibukawa/snaplll/abi"
	"github.com/shibukawa/snaplll/opcodes"
	"github.com/shibukawa/snaplll/tree"
	"github.com/shibukawa/snaplll/word"
)

type scanner struct {
	prog     *Program
	warnings *snaplll.Warnings

	init, shared *tree.Node
	any          []*tree.Node
	finally      []*tree.Node
	branches     []*tree.Node

	selectors map[uint32]string
	typed     map[string]string // variable -> type
	prefixed  map[string]string // name prefix -> type
}

// Process scans the top-level statements of root.
func Process(root *tree.Node, warnings *snaplll.Warnings) (*Program, error) {
	if warnings == nil {
		warnings = &snaplll.Warnings{}
	}

	s := &scanner{
		prog:      newProgram(),
		warnings:  warnings,
		selectors: map[uint32]string{},
		typed:     map[string]string{},
		prefixed:  map[string]string{},
	}

	for _, stmt := range TopLevel(root) {
		if err := s.statement(stmt); err != nil {
			return nil, err
		}
	}

	body := s.assemble(root.Meta)
	s.prog.Body = s.tag(body)

	return s.prog, nil
}

// TopLevel returns the statements of root with nested seq blocks spliced in.
func TopLevel(root *tree.Node) []*tree.Node {
	if !root.Is("seq") {
		return []*tree.Node{root}
	}

	var out []*tree.Node
	for _, a := range root.Args {
		out = append(out, TopLevel(a)...)
	}

	return out
}

func (s *scanner) statement(n *tree.Node) error {
	switch {
	case n.Is("def"):
		return s.def(n)
	case n.Is("event"):
		return s.event(n)
	case n.Is("extern"):
		return s.extern(n)
	case n.Is("macro"):
		return s.macro(n)
	case n.Is("type"):
		return s.typeDecl(n)
	case n.Is("data"):
		for _, d := range n.Args {
			if err := s.prog.Layout.Declare(d); err != nil {
				return err
			}
		}

		return nil
	}

	s.any = append(s.any, n)

	return nil
}

func (s *scanner) def(n *tree.Node) error {
	if len(n.Args) == 0 {
		return snaplll.Errorf(n.Meta, snaplll.ErrStructural, "empty def")
	}

	sig, constant := n.Args[0], false
	if sig.Is("const") && len(sig.Args) == 1 {
		sig, constant = sig.Args[0], true
	}

	name := sig.Value

	if len(n.Args) < 2 {
		return snaplll.Errorf(n.Meta, snaplll.ErrStructural, "function %s has no body", name)
	}

	body := n.Args[1]
	if len(n.Args) > 2 {
		body = tree.NewCompound("seq", n.Meta, n.Args[1:]...)
	}

	switch name {
	case "init", "shared", "any", "finally":
		if len(sig.Args) > 0 {
			return snaplll.Errorf(n.Meta, snaplll.ErrStructural, "%s cannot have arguments", name)
		}

		return s.special(n, name, body)
	}

	var (
		names   []string
		types   []abi.Type
		varArgs = map[string]bool{}
	)

	for _, a := range sig.Args {
		argName, t, err := param(a)
		if err != nil {
			return err
		}

		names = append(names, argName)
		types = append(types, t)

		if t.IsVariable() {
			varArgs[argName] = true
		}
	}

	ret := s.inferReturn(name, body)

	fn := abi.NewFunction(name, names, types, ret)
	fn.Constant = constant

	if _, exists := s.prog.Functions[name]; exists {
		return snaplll.Errorf(n.Meta, snaplll.ErrStructural, "function %s defined twice", name)
	}

	if other, exists := s.selectors[fn.SelectorValue()]; exists {
		return snaplll.Errorf(n.Meta, snaplll.ErrStructural, "selector collision between %s and %s", name, other)
	}

	s.selectors[fn.SelectorValue()] = name
	s.prog.Functions[name] = fn
	s.prog.Functions[fn.DisambiguatedName()] = fn
	s.prog.FunctionList = append(s.prog.FunctionList, fn)

	m := n.Meta
	packer := abi.Packer{Meta: m}
	guard := tree.NewCompound("eq", m,
		tree.NewCompound("get", m, tree.NewLeaf(FunctionIDVar, m)),
		word.IntLeaf(uint64(fn.SelectorValue()), m))

	branch := tree.NewCompound("if", m, guard,
		tree.NewCompound("seq", m, packer.Unpack(names, types), replaceLen(body, varArgs)))
	s.branches = append(s.branches, branch)

	return nil
}

func (s *scanner) special(n *tree.Node, name string, body *tree.Node) error {
	switch name {
	case "init", "shared":
		slot := &s.init
		if name == "shared" {
			slot = &s.shared
		}

		if *slot != nil {
			return snaplll.Errorf(n.Meta, snaplll.ErrStructural, "%s defined twice", name)
		}

		*slot = body
	case "any":
		s.any = append(s.any, body)
	case "finally":
		s.finally = append(s.finally, body)
	}

	return nil
}

// param reads x or (: x type).
func param(a *tree.Node) (string, abi.Type, error) {
	if a.IsLeaf() {
		return a.Value, abi.Int256, nil
	}

	if a.Is(":") && len(a.Args) == 2 && a.Args[0].IsLeaf() {
		t, err := typeOf(a.Args[1])
		return a.Args[0].Value, t, err
	}

	return "", abi.Type{}, snaplll.Errorf(a.Meta, snaplll.ErrStructural, "malformed parameter %s", a)
}

// typeOf reads a type written as a name or as (access elem) for elem[].
func typeOf(n *tree.Node) (abi.Type, error) {
	if n.IsLeaf() {
		return abi.ParseType(n.Value), nil
	}

	if n.Is("access") && len(n.Args) == 1 && n.Args[0].IsLeaf() {
		return abi.ParseType(n.Args[0].Value + "[]"), nil
	}

	return abi.Type{}, snaplll.Errorf(n.Meta, snaplll.ErrStructural, "invalid type %s", n)
}

func (s *scanner) event(n *tree.Node) error {
	if len(n.Args) != 1 {
		return snaplll.Errorf(n.Meta, snaplll.ErrStructural, "event needs exactly one signature")
	}

	sig := n.Args[0]

	var (
		names   []string
		types   []abi.Type
		indexed []bool
	)

	for _, f := range sig.Args {
		name, t, ix, err := eventField(f)
		if err != nil {
			return err
		}

		names = append(names, name)
		types = append(types, t)
		indexed = append(indexed, ix)
	}

	if _, exists := s.prog.Events[sig.Value]; exists {
		return snaplll.Errorf(n.Meta, snaplll.ErrStructural, "event %s defined twice", sig.Value)
	}

	ev, err := abi.NewEvent(sig.Value, names, types, indexed)
	if err != nil {
		return snaplll.Wrap(n.Meta, snaplll.ErrStructural, err)
	}

	s.prog.Events[ev.Name] = ev
	s.prog.EventList = append(s.prog.EventList, ev)

	return nil
}

// eventField reads x, (: x type), (: x indexed) or (: (: x type) indexed).
func eventField(f *tree.Node) (string, abi.Type, bool, error) {
	if f.Is(":") && len(f.Args) == 2 && f.Args[1].IsLeafValue("indexed") {
		name, t, err := param(f.Args[0])
		return name, t, true, err
	}

	name, t, err := param(f)

	return name, t, false, err
}

func (s *scanner) extern(n *tree.Node) error {
	if len(n.Args) != 2 || !n.Args[0].IsLeaf() || !n.Args[1].Is("list") {
		return snaplll.Errorf(n.Meta, snaplll.ErrStructural, "extern expects a name and a (list ...) of methods")
	}

	group := n.Args[0].Value
	if s.prog.ExternGroups[group] == nil {
		s.prog.ExternGroups[group] = map[string]*abi.Function{}
	}

	for _, entry := range n.Args[1].Args {
		fn, err := s.externEntry(entry)
		if err != nil {
			return err
		}

		s.prog.ExternGroups[group][fn.Name] = fn
		s.prog.ExternGroups[group][fn.DisambiguatedName()] = fn

		if existing, ok := s.prog.Externs[fn.Name]; ok && existing.Selector != fn.Selector {
			ambiguous := *existing
			ambiguous.Ambiguous = true
			s.prog.Externs[fn.Name] = &ambiguous
		} else if !ok {
			s.prog.Externs[fn.Name] = fn
		}

		s.prog.Externs[fn.DisambiguatedName()] = fn
	}

	return nil
}

func (s *scanner) externEntry(e *tree.Node) (*abi.Function, error) {
	switch {
	case e.IsLeaf() && tree.IsQuoted(e.Value):
		s.warnings.Add(e.Meta, "the \"method:types:return\" extern format is deprecated; regenerate the signature")
		return shortSignature(e)
	case e.Is(":") && len(e.Args) == 2 && e.Args[0].Is(":"):
		inner := e.Args[0]

		types, err := typeList(inner.Args[1])
		if err != nil {
			return nil, err
		}

		ret, err := returnTypeOf(e.Args[1])
		if err != nil {
			return nil, err
		}

		return abi.NewFunction(inner.Args[0].Value, nil, types, ret), nil
	case e.Is(":") && len(e.Args) == 2:
		types, err := typeList(e.Args[1])
		if err != nil {
			return nil, err
		}

		ret := abi.Int256

		return abi.NewFunction(e.Args[0].Value, nil, types, &ret), nil
	}

	return nil, snaplll.Errorf(e.Meta, snaplll.ErrStructural, "cannot read extern entry %s", e)
}

func typeList(n *tree.Node) ([]abi.Type, error) {
	if !n.Is("list") {
		return nil, snaplll.Errorf(n.Meta, snaplll.ErrStructural, "expected (list ...) of types, got %s", n)
	}

	types := make([]abi.Type, len(n.Args))
	for i, a := range n.Args {
		t, err := typeOf(a)
		if err != nil {
			return nil, err
		}

		types[i] = t
	}

	return types, nil
}

func returnTypeOf(n *tree.Node) (*abi.Type, error) {
	if n.IsLeafValue("_") {
		return nil, nil
	}

	if n.IsLeaf() && len(n.Value) == 1 {
		if t, ok := abi.ParseShortCode(n.Value[0]); ok {
			return &t, nil
		}
	}

	t, err := typeOf(n)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// shortSignature reads "method:ii:i" style entries.
func shortSignature(e *tree.Node) (*abi.Function, error) {
	parts := strings.Split(tree.Unquote(e.Value), ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" {
		return nil, snaplll.Errorf(e.Meta, snaplll.ErrStructural, "malformed extern entry %s", e.Value)
	}

	types := make([]abi.Type, 0, len(parts[1]))
	for i := 0; i < len(parts[1]); i++ {
		t, ok := abi.ParseShortCode(parts[1][i])
		if !ok {
			return nil, snaplll.Errorf(e.Meta, snaplll.ErrStructural, "unknown type code %q in %s", parts[1][i], e.Value)
		}

		types = append(types, t)
	}

	ret := &abi.Int256
	if len(parts) == 3 {
		switch {
		case parts[2] == "_":
			ret = nil
		case len(parts[2]) == 1:
			t, ok := abi.ParseShortCode(parts[2][0])
			if !ok {
				return nil, snaplll.Errorf(e.Meta, snaplll.ErrStructural, "unknown return code in %s", e.Value)
			}

			ret = &t
		default:
			return nil, snaplll.Errorf(e.Meta, snaplll.ErrStructural, "unknown return code in %s", e.Value)
		}
	}

	return abi.NewFunction(parts[0], nil, types, ret), nil
}

func (s *scanner) macro(n *tree.Node) error {
	var (
		pat, tmpl *tree.Node
		priority  int
	)

	switch {
	case len(n.Args) == 2:
		pat, tmpl = n.Args[0], n.Args[1]
	case len(n.Args) == 3 && n.Args[0].Is("priority") && len(n.Args[0].Args) == 1:
		p, err := word.ParseExact(n.Args[0].Args[0].Value)
		if err != nil {
			return snaplll.Wrap(n.Meta, snaplll.ErrStructural, err)
		}

		v, ok := p.Uint64()
		if !ok || v > 1<<31 {
			return snaplll.Errorf(n.Meta, snaplll.ErrStructural, "macro priority %s out of range", p)
		}

		pat, tmpl, priority = n.Args[1], n.Args[2], int(v)
	default:
		return snaplll.Errorf(n.Meta, snaplll.ErrStructural, "macro expects a pattern and a template")
	}

	if pat.IsLeaf() {
		s.warnings.Add(n.Meta, "macro pattern %s is not a form; ignored", pat)
		return nil
	}

	if _, isOp := opcodes.Lookup(pat.Value); isOp || s.prog.Functions[pat.Value] != nil {
		s.warnings.Add(n.Meta, "macro pattern %s shadows a primitive or function; ignored", pat)
		return nil
	}

	s.prog.Macros.Add(priority, pat, tmpl)

	return nil
}

func (s *scanner) typeDecl(n *tree.Node) error {
	if len(n.Args) != 2 || !n.Args[0].IsLeaf() {
		return snaplll.Errorf(n.Meta, snaplll.ErrStructural, "type expects a name and variables")
	}

	name := n.Args[0].Value
	s.prog.TypeNames[name] = true

	if n.Args[1].IsLeaf() {
		s.prefixed[n.Args[1].Value] = name
		return nil
	}

	for _, v := range n.Args[1].Args {
		s.typed[v.Value] = name
	}

	return nil
}

func (s *scanner) assemble(m tree.Metadata) *tree.Node {
	var code []*tree.Node

	if s.shared != nil {
		code = append(code, s.shared.Clone())
	}

	code = append(code, s.any...)
	code = append(code, s.branches...)
	code = append(code, s.finally...)

	runtime := tree.NewCompound("seq", m, code...)
	if len(s.branches) > 0 {
		selector := tree.NewCompound("div", m,
			tree.NewCompound("calldataload", m, word.IntLeaf(0, m)),
			tree.NewCompound("exp", m, word.IntLeaf(2, m), word.IntLeaf(224, m)))
		runtime = tree.NewCompound("with", m, tree.NewLeaf(FunctionIDVar, m), selector, runtime)
	}

	var main []*tree.Node
	if s.shared != nil {
		main = append(main, s.shared)
	}

	if s.init != nil {
		main = append(main, s.init)
	}

	deploy := tree.NewCompound("~return", m,
		word.IntLeaf(0, m),
		tree.NewCompound("lll", m, runtime, word.IntLeaf(0, m)))

	return tree.NewCompound("seq", m, append(main, deploy)...)
}

// replaceLen turns (len x) for a variable-length argument x into the
// argument's companion length variable.
func replaceLen(n *tree.Node, varArgs map[string]bool) *tree.Node {
	if n.IsLeaf() || len(varArgs) == 0 {
		return n
	}

	if n.Is("len") && len(n.Args) == 1 && n.Args[0].IsLeaf() && varArgs[n.Args[0].Value] {
		return tree.NewLeaf(abi.LengthName(n.Args[0].Value), n.Meta)
	}

	args := make([]*tree.Node, len(n.Args))
	for i, a := range n.Args {
		args[i] = replaceLen(a, varArgs)
	}

	return n.WithArgs(args)
}

// tag wraps every typed variable x in (type x) and drops (untyped ...) markers.
func (s *scanner) tag(n *tree.Node) *tree.Node {
	if n.IsLeaf() {
		if len(s.typed) == 0 && len(s.prefixed) == 0 || tree.IsNumberLike(n) {
			return n
		}

		if t, ok := s.typed[n.Value]; ok {
			return tree.NewCompound(t, n.Meta, n)
		}

		for i := len(n.Value) - 1; i >= 1; i-- {
			if t, ok := s.prefixed[n.Value[:i]]; ok {
				return tree.NewCompound(t, n.Meta, n)
			}
		}

		return n
	}

	if n.Is("untyped") && len(n.Args) == 1 {
		return n.Args[0]
	}

	args := make([]*tree.Node, len(n.Args))
	for i, a := range n.Args {
		args[i] = s.tag(a)
	}

	return n.WithArgs(args)
}
