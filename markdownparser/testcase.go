package markdownparser

import (
	"fmt"

	"github.com/goccy/go-yaml"
)

// TestCase is one call against the compiled contract, written as a YAML block
// under a "Test Cases" section.
type TestCase struct {
	Name string `yaml:"name"`
	// Call names the function to invoke. Empty calls the contract without
	// input.
	Call string `yaml:"call"`
	Args []any  `yaml:"args"`
	// Expect is the returned word; nil skips the check.
	Expect  any  `yaml:"expect"`
	Reverts bool `yaml:"reverts"`
	Line    int  `yaml:"-"`
}

func isTestSection(name string) bool {
	switch name {
	case "test", "tests", "test cases", "testcases":
		return true
	}

	return false
}

// parseTestCases reads a YAML block. A mapping fills current, which was
// started by a heading; a sequence lists complete cases.
func parseTestCases(src string, current *TestCase, line int) ([]TestCase, error) {
	var list []TestCase
	if err := yaml.Unmarshal([]byte(src), &list); err == nil {
		for i := range list {
			list[i].Line = line
			if list[i].Name == "" {
				list[i].Name = fmt.Sprintf("case %d", i+1)
			}
		}

		return list, nil
	}

	if current == nil {
		return nil, fmt.Errorf("%w: line %d: a single case needs a heading", ErrInvalidTestCase, line)
	}

	tc := *current
	if err := yaml.Unmarshal([]byte(src), &tc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidTestCase, current.Name, err)
	}

	tc.Line = line

	return []TestCase{tc}, nil
}
