package markdownparser

import (
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
)

// parseFrontMatter splits YAML front matter from markdown content. The
// returned offset is the number of lines that precede the remaining content
// in the original text.
func parseFrontMatter(content string) (map[string]any, string, int, error) {
	if !strings.HasPrefix(content, "---\n") {
		return map[string]any{}, content, 0, nil
	}

	endIndex := strings.Index(content[4:], "\n---")
	if endIndex == -1 {
		return nil, "", 0, fmt.Errorf("%w: missing closing ---", ErrInvalidFrontMatter)
	}

	endIndex += 4

	var frontMatter map[string]any

	err := yaml.Unmarshal([]byte(content[4:endIndex]), &frontMatter)
	if err != nil {
		return nil, "", 0, fmt.Errorf("%w: %w", ErrInvalidFrontMatter, err)
	}

	if frontMatter == nil {
		frontMatter = map[string]any{}
	}

	consumed := content[:endIndex+4]

	return frontMatter, content[endIndex+4:], strings.Count(consumed, "\n"), nil
}
