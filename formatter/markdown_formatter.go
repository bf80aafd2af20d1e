package formatter

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	lllBlockStartRe = regexp.MustCompile(`^(\s*)\x60{3}lll\s*$`)
	codeBlockEndRe  = regexp.MustCompile(`^(\s*)\x60{3}\s*$`)
)

// MarkdownFormatter formats LLL code blocks within Markdown files
type MarkdownFormatter struct {
	lllFormatter *LLLFormatter
}

// NewMarkdownFormatter creates a new Markdown formatter
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{
		lllFormatter: NewLLLFormatter(),
	}
}

// Format formats every ```lll block and copies everything else unchanged.
// A block that does not parse is kept as written.
func (f *MarkdownFormatter) Format(markdown string) (string, error) {
	var (
		result      strings.Builder
		block       strings.Builder
		inBlock     bool
		blockIndent string
	)

	scanner := bufio.NewScanner(strings.NewReader(markdown))

	for scanner.Scan() {
		line := scanner.Text()

		if !inBlock {
			if match := lllBlockStartRe.FindStringSubmatch(line); match != nil {
				inBlock = true
				blockIndent = match[1]
				block.Reset()
			}

			result.WriteString(line)
			result.WriteString("\n")

			continue
		}

		if !codeBlockEndRe.MatchString(line) {
			block.WriteString(strings.TrimPrefix(line, blockIndent))
			block.WriteString("\n")

			continue
		}

		inBlock = false
		f.writeBlock(&result, block.String(), blockIndent)
		result.WriteString(line)
		result.WriteString("\n")
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("error reading markdown: %w", err)
	}

	if inBlock {
		result.WriteString(block.String())
	}

	return strings.TrimRight(result.String(), "\n"), nil
}

func (f *MarkdownFormatter) writeBlock(result *strings.Builder, code, indent string) {
	if strings.TrimSpace(code) == "" {
		result.WriteString(code)
		return
	}

	formatted, err := f.lllFormatter.Format(code)
	if err != nil {
		formatted = code
	}

	for _, line := range strings.Split(strings.TrimRight(formatted, "\n"), "\n") {
		if strings.TrimSpace(line) != "" {
			result.WriteString(indent)
			result.WriteString(line)
		}

		result.WriteString("\n")
	}
}

// FormatFromReader formats LLL code blocks from a reader and writes to a writer
func (f *MarkdownFormatter) FormatFromReader(reader io.Reader, writer io.Writer) error {
	input, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	formatted, err := f.Format(string(input))
	if err != nil {
		return fmt.Errorf("failed to format markdown: %w", err)
	}

	_, err = writer.Write([]byte(formatted))

	return err
}

// IsMarkdownFile checks if a file is a Markdown file
func IsMarkdownFile(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ".md"
}
