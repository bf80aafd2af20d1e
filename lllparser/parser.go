// Package lllparser reads LLL source text into trees.
package lllparser

import (
	"errors"
	"fmt"
	"slices"

	pc "github.com/shibukawa/parsercombinator"

	"github.com/shibukawa/snaplll/tokenizer"
	"github.com/shibukawa/snaplll/tree"
)

// Sentinel errors
var (
	ErrSyntax      = errors.New("syntax error")
	ErrInvalidHead = errors.New("list head must be a symbol")
)

var expression pc.Parser[Entity]

func primitive(tokenTypes ...tokenizer.TokenType) pc.Parser[Entity] {
	return func(pctx *pc.ParseContext[Entity], tokens []pc.Token[Entity]) (int, []pc.Token[Entity], error) {
		if len(tokens) > 0 && tokens[0].Val.Node == nil && slices.Contains(tokenTypes, tokens[0].Val.Original.Type) {
			return 1, tokens[:1], nil
		}

		return 0, nil, pc.ErrNotMatch
	}
}

var (
	parenOpen    = primitive(tokenizer.OPENED_PARENS)
	parenClose   = primitive(tokenizer.CLOSED_PARENS)
	bracketOpen  = primitive(tokenizer.OPENED_BRACKET)
	bracketClose = primitive(tokenizer.CLOSED_BRACKET)
	braceOpen    = primitive(tokenizer.OPENED_BRACE)
	braceClose   = primitive(tokenizer.CLOSED_BRACE)
	at           = primitive(tokenizer.AT)
	atom         = primitive(tokenizer.ATOM, tokenizer.STRING)
)

func init() {
	inner := pc.Lazy(func() pc.Parser[Entity] { return expression })

	leaf := pc.Trans(atom, func(pctx *pc.ParseContext[Entity], tokens []pc.Token[Entity]) ([]pc.Token[Entity], error) {
		return reduced(tokens[0], tree.NewLeaf(tokens[0].Val.Original.Value, metadata(pctx, tokens[0]))), nil
	})

	list := pc.Trans(
		pc.Seq(parenOpen, pc.ZeroOrMore("list items", inner), parenClose),
		func(pctx *pc.ParseContext[Entity], tokens []pc.Token[Entity]) ([]pc.Token[Entity], error) {
			items := nodes(tokens[1 : len(tokens)-1])
			meta := metadata(pctx, tokens[0])

			// An invalid head is kept as an empty head and reported by validate.
			if len(items) == 0 || !items[0].IsLeaf() || tree.IsQuoted(items[0].Value) {
				return reduced(tokens[0], tree.NewCompound("", meta, items...)), nil
			}

			return reduced(tokens[0], tree.NewCompound(items[0].Value, meta, items[1:]...)), nil
		},
	)

	storageLoad := pc.Trans(
		pc.Seq(bracketOpen, bracketOpen, inner, bracketClose, bracketClose),
		func(pctx *pc.ParseContext[Entity], tokens []pc.Token[Entity]) ([]pc.Token[Entity], error) {
			return reduced(tokens[0], tree.NewCompound("sload", metadata(pctx, tokens[0]), tokens[2].Val.Node)), nil
		},
	)

	memoryLoad := pc.Trans(
		pc.Seq(bracketOpen, inner, bracketClose),
		func(pctx *pc.ParseContext[Entity], tokens []pc.Token[Entity]) ([]pc.Token[Entity], error) {
			return reduced(tokens[0], tree.NewCompound("mload", metadata(pctx, tokens[0]), tokens[1].Val.Node)), nil
		},
	)

	block := pc.Trans(
		pc.Seq(braceOpen, pc.ZeroOrMore("block items", inner), braceClose),
		func(pctx *pc.ParseContext[Entity], tokens []pc.Token[Entity]) ([]pc.Token[Entity], error) {
			return reduced(tokens[0], tree.NewCompound("seq", metadata(pctx, tokens[0]), nodes(tokens[1:len(tokens)-1])...)), nil
		},
	)

	atStorage := pc.Trans(
		pc.Seq(at, at, inner),
		func(pctx *pc.ParseContext[Entity], tokens []pc.Token[Entity]) ([]pc.Token[Entity], error) {
			return reduced(tokens[0], tree.NewCompound("sload", metadata(pctx, tokens[0]), tokens[2].Val.Node)), nil
		},
	)

	atMemory := pc.Trans(
		pc.Seq(at, inner),
		func(pctx *pc.ParseContext[Entity], tokens []pc.Token[Entity]) ([]pc.Token[Entity], error) {
			return reduced(tokens[0], tree.NewCompound("mload", metadata(pctx, tokens[0]), tokens[1].Val.Node)), nil
		},
	)

	expression = pc.Or(leaf, list, storageLoad, memoryLoad, block, atStorage, atMemory)
}

// Parse reads LLL source. Several top-level expressions are wrapped in a seq.
func Parse(src, file string) (*tree.Node, error) {
	tokens, err := tokenize(src, file)
	if err != nil {
		return nil, err
	}

	return ParseTokens(tokens, file)
}

// ParseAll reads LLL source and returns its top-level expressions as written.
func ParseAll(src, file string) ([]*tree.Node, error) {
	tokens, err := tokenize(src, file)
	if err != nil {
		return nil, err
	}

	items, err := parseItems(tokens, file)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		setFile(item, file)

		if err := validate(item); err != nil {
			return nil, err
		}
	}

	return items, nil
}

func tokenize(src, file string) ([]tokenizer.Token, error) {
	tokens, err := tokenizer.NewLLLTokenizer(src, tokenizer.TokenizerOptions{
		SkipWhitespace: true,
		SkipComments:   true,
	}).AllTokens()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSyntax, file, err)
	}

	return tokens, nil
}

// ParseTokens reads already tokenized LLL source.
func ParseTokens(tokens []tokenizer.Token, file string) (*tree.Node, error) {
	items, err := parseItems(tokens, file)
	if err != nil {
		return nil, err
	}

	var root *tree.Node

	switch len(items) {
	case 0:
		root = tree.NewCompound("seq", tree.Metadata{File: file, Line: 1})
	case 1:
		root = items[0]
	default:
		root = tree.NewCompound("seq", items[0].Meta, items...)
	}

	setFile(root, file)

	if err := validate(root); err != nil {
		return nil, err
	}

	return root, nil
}

func parseItems(tokens []tokenizer.Token, file string) ([]*tree.Node, error) {
	entities := toEntities(tokens)
	pctx := pc.NewParseContext[Entity]()

	consumed, parsed, err := pc.ZeroOrMore("program", expression)(pctx, entities)
	if err != nil && !errors.Is(err, pc.ErrNotMatch) {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}

	if consumed < len(entities) {
		bad := entities[consumed].Val.Original
		return nil, fmt.Errorf("%w: %s:%d:%d: unexpected or unbalanced %q", ErrSyntax, file, bad.Position.Line, bad.Position.Column, bad.Value)
	}

	return nodes(parsed), nil
}

// MustParse is Parse for source known to be valid, such as built-in rule tables.
func MustParse(src string) *tree.Node {
	n, err := Parse(src, "<builtin>")
	if err != nil {
		panic(err)
	}

	return n
}

func validate(n *tree.Node) error {
	if n.IsLeaf() {
		return nil
	}

	if n.Value == "" {
		return fmt.Errorf("%w: %w at %s", ErrSyntax, ErrInvalidHead, n.Meta)
	}

	for _, a := range n.Args {
		if err := validate(a); err != nil {
			return err
		}
	}

	return nil
}

func nodes(tokens []pc.Token[Entity]) []*tree.Node {
	results := make([]*tree.Node, 0, len(tokens))
	for _, t := range tokens {
		if t.Val.Node != nil {
			results = append(results, t.Val.Node)
		}
	}

	return results
}

func metadata(_ *pc.ParseContext[Entity], token pc.Token[Entity]) tree.Metadata {
	return tree.Metadata{
		Line:   token.Val.Original.Position.Line,
		Column: token.Val.Original.Position.Column,
	}
}

// setFile stamps the file name on freshly parsed nodes.
func setFile(n *tree.Node, file string) {
	n.Meta.File = file
	for _, a := range n.Args {
		setFile(a, file)
	}
}
