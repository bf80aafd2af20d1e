// Package markdownparser reads literate LLL sources: Markdown documents whose
// ```lll code blocks form the program and whose "Test Cases" section lists
// calls to run against it.
package markdownparser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Sentinel errors
var (
	ErrInvalidFrontMatter = errors.New("invalid front matter")
	ErrNoCode             = errors.New("no lll code block found")
	ErrInvalidTestCase    = errors.New("invalid test case")
)

// Document is a parsed literate LLL file
type Document struct {
	Metadata  map[string]any
	Title     string
	Blocks    []CodeBlock
	TestCases []TestCase
}

// CodeBlock is one ```lll block
type CodeBlock struct {
	Section   string // lowercased level 2 heading the block sits under
	Code      string
	StartLine int // line of the first code line in the original file
}

// Source concatenates the code blocks, padded with empty lines so that each
// block starts on its original line. Positions reported for the result
// therefore point into the Markdown file.
func (d *Document) Source() string {
	var sb strings.Builder

	line := 1
	for _, b := range d.Blocks {
		for line < b.StartLine {
			sb.WriteByte('\n')
			line++
		}

		sb.WriteString(b.Code)
		line += strings.Count(b.Code, "\n")
	}

	return sb.String()
}

// Parse parses a literate LLL document
func Parse(reader io.Reader) (*Document, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	frontMatter, body, offset, err := parseFrontMatter(string(content))
	if err != nil {
		return nil, err
	}

	src := []byte(body)
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	root := md.Parser().Parse(text.NewReader(src))

	doc := &Document{Metadata: frontMatter}
	if title, ok := frontMatter["title"].(string); ok {
		doc.Title = title
	}

	var (
		section string
		current *TestCase
	)

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			heading := extractTextFromHeadingNode(node, src)

			switch {
			case node.Level == 1:
				if doc.Title == "" {
					doc.Title = heading
				}

				section, current = "", nil
			case node.Level == 2:
				section, current = strings.ToLower(heading), nil
			case isTestSection(section):
				current = &TestCase{Name: heading}
			}

		case *ast.FencedCodeBlock:
			if node.Lines().Len() == 0 {
				continue
			}

			code := extractCodeBlockContent(node, src)
			line := lineOf(src, node.Lines().At(0).Start) + offset

			switch getCodeBlockInfo(node, src) {
			case "lll":
				doc.Blocks = append(doc.Blocks, CodeBlock{Section: section, Code: code, StartLine: line})
			case "yaml", "yml":
				if !isTestSection(section) {
					continue
				}

				cases, err := parseTestCases(code, current, line)
				if err != nil {
					return nil, err
				}

				doc.TestCases = append(doc.TestCases, cases...)
				current = nil
			}
		}
	}

	if len(doc.Blocks) == 0 {
		return nil, ErrNoCode
	}

	return doc, nil
}

// extractTextFromHeadingNode extracts text content from a heading AST node
func extractTextFromHeadingNode(heading ast.Node, content []byte) string {
	var result strings.Builder

	_ = ast.Walk(heading, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			segment := node.Segment
			result.Write(content[segment.Start:segment.Stop])
		case *ast.String:
			result.Write(node.Value)
		}

		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(result.String())
}

func getCodeBlockInfo(codeBlock *ast.FencedCodeBlock, content []byte) string {
	if codeBlock.Info == nil {
		return ""
	}

	segment := codeBlock.Info.Segment
	info := strings.Fields(string(content[segment.Start:segment.Stop]))

	if len(info) == 0 {
		return ""
	}

	return strings.ToLower(info[0])
}

// extractCodeBlockContent returns the block lines, each ending in a newline
func extractCodeBlockContent(codeBlock ast.Node, content []byte) string {
	var result strings.Builder

	lines := codeBlock.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		result.Write(line.Value(content))
	}

	out := result.String()
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}

	return out
}

func lineOf(content []byte, offset int) int {
	return bytes.Count(content[:offset], []byte("\n")) + 1
}
