// Package formatter pretty-prints LLL source. Comments are not kept.
package formatter

import (
	"fmt"
	"strings"

	"github.com/shibukawa/snaplll/lllparser"
	"github.com/shibukawa/snaplll/tree"
)

// heads whose first argument stays on the opening line
var keepFirst = map[string]bool{
	"def": true, "set": true, "with": true, "if": true, "unless": true,
	"until": true, "while": true, "macro": true, "event": true, "extern": true,
	"data": true, "lll": true, "elif": true, "mstore": true, "sstore": true,
}

// LLLFormatter formats LLL with one form per line once a form no longer fits
type LLLFormatter struct {
	indentSize int
	width      int
}

// NewLLLFormatter creates a formatter with two-space indentation and an
// 80 column limit
func NewLLLFormatter() *LLLFormatter {
	return &LLLFormatter{
		indentSize: 2,
		width:      80,
	}
}

// Format reformats LLL source. Top-level forms are separated by a blank line.
func (f *LLLFormatter) Format(src string) (string, error) {
	items, err := lllparser.ParseAll(src, "<input>")
	if err != nil {
		return "", fmt.Errorf("failed to parse LLL: %w", err)
	}

	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = f.FormatNode(item)
	}

	return strings.Join(parts, "\n\n") + "\n", nil
}

// FormatNode prints one tree
func (f *LLLFormatter) FormatNode(n *tree.Node) string {
	var sb strings.Builder
	f.write(&sb, n, 0)

	return sb.String()
}

func (f *LLLFormatter) write(sb *strings.Builder, n *tree.Node, depth int) {
	compact := n.String()
	if n.IsLeaf() || len(n.Args) == 0 || depth*f.indentSize+len(compact) <= f.width {
		sb.WriteString(compact)
		return
	}

	sb.WriteString("(")
	sb.WriteString(n.Value)

	args := n.Args
	if keepFirst[n.Value] {
		sb.WriteString(" ")
		sb.WriteString(args[0].String())
		args = args[1:]
	}

	pad := strings.Repeat(" ", (depth+1)*f.indentSize)
	for _, a := range args {
		sb.WriteString("\n")
		sb.WriteString(pad)
		f.write(sb, a, depth+1)
	}

	sb.WriteString(")")
}
