package tokenizer

import (
	"fmt"
	"iter"
	"strings"
	"unicode"
)

// TokenIterator uses Go 1.24 iterator pattern
type TokenIterator iter.Seq2[Token, error]

// LLLTokenizer splits LLL source into tokens
type LLLTokenizer struct {
	input   string
	options TokenizerOptions
}

// TokenizerOptions are options for the tokenizer
type TokenizerOptions struct {
	SkipWhitespace bool
	SkipComments   bool
}

// NewLLLTokenizer creates a new LLLTokenizer
func NewLLLTokenizer(input string, options ...TokenizerOptions) *LLLTokenizer {
	opts := TokenizerOptions{}
	if len(options) > 0 {
		opts = options[0]
	}

	return &LLLTokenizer{
		input:   input,
		options: opts,
	}
}

// Tokens returns an iterator of tokens. After an error the iterator stops.
func (t *LLLTokenizer) Tokens() TokenIterator {
	return func(yield func(Token, error) bool) {
		tokenizer := &tokenizer{
			input: t.input,
			line:  1,
		}

		tokenizer.readChar()

		for {
			token, err := tokenizer.nextToken()
			if err != nil {
				yield(Token{}, err)
				return
			}

			if token.Type == EOF {
				yield(token, nil)
				return
			}

			if t.options.SkipWhitespace && token.Type == WHITESPACE {
				continue
			}

			if t.options.SkipComments && token.Type == LINE_COMMENT {
				continue
			}

			if !yield(token, nil) {
				return
			}
		}
	}
}

// AllTokens gets all tokens as a slice
func (t *LLLTokenizer) AllTokens() ([]Token, error) {
	tokens := make([]Token, 0, 64)

	for token, err := range t.Tokens() {
		if err != nil {
			return tokens, err
		}

		tokens = append(tokens, token)
	}

	return tokens, nil
}

type tokenizer struct {
	input    string
	position int
	line     int
	column   int
	current  rune
}

func (t *tokenizer) nextToken() (Token, error) {
	switch t.current {
	case 0:
		return t.single(EOF, ""), nil
	case '(':
		return t.single(OPENED_PARENS, "("), nil
	case ')':
		return t.single(CLOSED_PARENS, ")"), nil
	case '[':
		return t.single(OPENED_BRACKET, "["), nil
	case ']':
		return t.single(CLOSED_BRACKET, "]"), nil
	case '{':
		return t.single(OPENED_BRACE, "{"), nil
	case '}':
		return t.single(CLOSED_BRACE, "}"), nil
	case '@':
		return t.single(AT, "@"), nil
	case '"', '\'':
		return t.readString(t.current)
	case ';':
		return t.readLineComment(), nil
	}

	if unicode.IsSpace(t.current) {
		return t.readWhitespace(), nil
	}

	if unicode.IsControl(t.current) {
		return Token{}, fmt.Errorf("%w: %q at line %d, column %d", ErrUnexpectedCharacter, t.current, t.line, t.column-1)
	}

	return t.readAtom(), nil
}

// readChar reads the next character
func (t *tokenizer) readChar() {
	if t.position >= len(t.input) {
		t.current = 0
		t.position++

		return
	}

	if t.current == '\n' {
		t.line++
		t.column = 0
	}

	t.current = rune(t.input[t.position])
	t.position++
	t.column++
}

func (t *tokenizer) start() Position {
	return Position{Line: t.line, Column: t.column - 1, Offset: t.position - 1}
}

func (t *tokenizer) single(tokenType TokenType, value string) Token {
	token := Token{Type: tokenType, Value: value, Position: t.start()}
	if tokenType != EOF {
		t.readChar()
	}

	return token
}

func (t *tokenizer) readWhitespace() Token {
	var builder strings.Builder

	pos := t.start()

	for t.current != 0 && unicode.IsSpace(t.current) {
		builder.WriteRune(t.current)
		t.readChar()
	}

	return Token{Type: WHITESPACE, Value: builder.String(), Position: pos}
}

func (t *tokenizer) readAtom() Token {
	var builder strings.Builder

	pos := t.start()

	for t.current != 0 && !isDelimiter(t.current) {
		builder.WriteRune(t.current)
		t.readChar()
	}

	return Token{Type: ATOM, Value: builder.String(), Position: pos}
}

// readString keeps the quotes and any escapes verbatim
func (t *tokenizer) readString(delimiter rune) (Token, error) {
	var builder strings.Builder

	pos := t.start()

	builder.WriteRune(delimiter)
	t.readChar()

	for t.current != 0 && t.current != delimiter {
		if t.current == '\\' {
			t.readChar()

			if t.current == 0 {
				break
			}
		}

		builder.WriteRune(t.current)
		t.readChar()
	}

	if t.current == 0 {
		return Token{}, fmt.Errorf("%w: %c at line %d, column %d", ErrUnterminatedString, delimiter, pos.Line, pos.Column)
	}

	builder.WriteRune(delimiter)
	t.readChar()

	return Token{Type: STRING, Value: builder.String(), Position: pos}, nil
}

func (t *tokenizer) readLineComment() Token {
	var builder strings.Builder

	pos := t.start()

	for t.current != 0 && t.current != '\n' {
		builder.WriteRune(t.current)
		t.readChar()
	}

	return Token{Type: LINE_COMMENT, Value: builder.String(), Position: pos}
}

func isDelimiter(c rune) bool {
	switch c {
	case '(', ')', '[', ']', '{', '}', '"', '\'', ';':
		return true
	}

	return unicode.IsSpace(c)
}
