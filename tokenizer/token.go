package tokenizer

import "errors"

// Sentinel errors
var (
	ErrUnterminatedString = errors.New("unterminated string literal")
	ErrUnexpectedCharacter = errors.New("unexpected character")
)

// TokenType represents the type of a token
type TokenType int

const (
	EOF TokenType = iota
	WHITESPACE
	ATOM          // numbers, identifiers, operators, sigils
	STRING        // "text" or 'c'
	OPENED_PARENS // (
	CLOSED_PARENS // )
	OPENED_BRACKET
	CLOSED_BRACKET
	OPENED_BRACE
	CLOSED_BRACE
	AT           // @ memory shorthand
	LINE_COMMENT // ; comment
)

// String returns the string representation of TokenType
func (t TokenType) String() string {
	switch t {
	case EOF:
		return "EOF"
	case WHITESPACE:
		return "WHITESPACE"
	case ATOM:
		return "ATOM"
	case STRING:
		return "STRING"
	case OPENED_PARENS:
		return "OPENED_PARENS"
	case CLOSED_PARENS:
		return "CLOSED_PARENS"
	case OPENED_BRACKET:
		return "OPENED_BRACKET"
	case CLOSED_BRACKET:
		return "CLOSED_BRACKET"
	case OPENED_BRACE:
		return "OPENED_BRACE"
	case CLOSED_BRACE:
		return "CLOSED_BRACE"
	case AT:
		return "AT"
	case LINE_COMMENT:
		return "LINE_COMMENT"
	default:
		return "UNKNOWN"
	}
}

// Position represents a position in the source code.
// Line is 1-based and Column is 0-based.
type Position struct {
	Line   int
	Column int
	Offset int
}

// Token represents a token
type Token struct {
	Type     TokenType
	Value    string
	Position Position
}

// String returns the string representation of Token
func (t Token) String() string {
	return t.Type.String() + ": " + t.Value
}
