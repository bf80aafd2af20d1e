package formatter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestMarkdownFormatter_Format(t *testing.T) {
	formatter := NewMarkdownFormatter()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lll block",
			input:    "# Title\n\n```lll\n(seq   (stop))\n```\n\nThat's it!",
			expected: "# Title\n\n```lll\n(seq (stop))\n```\n\nThat's it!",
		},
		{
			name:     "indented block",
			input:    "- item\n\n  ```lll\n  (seq  (stop))\n  ```",
			expected: "- item\n\n  ```lll\n  (seq (stop))\n  ```",
		},
		{
			name:     "broken block is kept",
			input:    "```lll\n(stop\n```",
			expected: "```lll\n(stop\n```",
		},
		{
			name:     "other languages are untouched",
			input:    "```yaml\ncall:   inc\n```",
			expected: "```yaml\ncall:   inc\n```",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatter.Format(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestMarkdownFormatter_FormatFromReader(t *testing.T) {
	var out bytes.Buffer

	err := NewMarkdownFormatter().FormatFromReader(strings.NewReader("```lll\n{1 2}\n```\n"), &out)
	assert.NoError(t, err)
	assert.Equal(t, "```lll\n(seq 1 2)\n```", out.String())
}

func TestIsMarkdownFile(t *testing.T) {
	assert.True(t, IsMarkdownFile("token.md"))
	assert.True(t, IsMarkdownFile("README.MD"))
	assert.False(t, IsMarkdownFile("token.lll"))
}
