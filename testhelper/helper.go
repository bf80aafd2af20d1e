// Package testhelper holds small helpers shared by package tests.
package testhelper

import (
	"regexp"
	"strings"
	"testing"

	"github.com/shibukawa/snaplll/lllparser"
	"github.com/shibukawa/snaplll/tree"
)

var (
	whiteSpaces = regexp.MustCompile(`(\s+)`)
	leadingTabs = regexp.MustCompile(`^(\t+)`)
)

func replaceTab(match string) string {
	return strings.Repeat("    ", strings.Count(match, "\t"))
}

// TrimIndent drops the first line of src and removes the indentation of the
// second line from every following line. Remaining leading tabs become four
// spaces each.
func TrimIndent(t *testing.T, src string) string {
	t.Helper()

	lines := strings.Split(src, "\n")

	var indent string
	if len(lines) > 1 {
		indent = whiteSpaces.FindString(lines[1])
	}

	for i, line := range lines {
		line = strings.TrimPrefix(line, indent)
		lines[i] = leadingTabs.ReplaceAllStringFunc(line, replaceTab)
	}

	return strings.Join(lines[1:], "\n")
}

// ParseLLL parses src and fails the test on a syntax error.
func ParseLLL(t *testing.T, src string) *tree.Node {
	t.Helper()

	n, err := lllparser.Parse(src, t.Name()+".lll")
	if err != nil {
		t.Fatalf("failed to parse %q: %v", src, err)
	}

	return n
}
