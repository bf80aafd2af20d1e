package lllparser

import (
	pc "github.com/shibukawa/parsercombinator"

	"github.com/shibukawa/snaplll/tokenizer"
	"github.com/shibukawa/snaplll/tree"
)

// Entity is the value carried through the combinators: the raw token, and
// once reduced, the tree node built from it.
type Entity struct {
	Original tokenizer.Token
	Node     *tree.Node
}

func toEntities(tokens []tokenizer.Token) []pc.Token[Entity] {
	results := make([]pc.Token[Entity], 0, len(tokens))

	for _, token := range tokens {
		if token.Type == tokenizer.EOF {
			continue
		}

		results = append(results, pc.Token[Entity]{
			Type: "raw",
			Pos: &pc.Pos{
				Line:  token.Position.Line,
				Col:   token.Position.Column,
				Index: token.Position.Offset,
			},
			Val: Entity{Original: token},
			Raw: token.Value,
		})
	}

	return results
}

func reduced(first pc.Token[Entity], node *tree.Node) []pc.Token[Entity] {
	return []pc.Token[Entity]{
		{
			Type: "node",
			Pos:  first.Pos,
			Val:  Entity{Original: first.Val.Original, Node: node},
			Raw:  first.Raw,
		},
	}
}
