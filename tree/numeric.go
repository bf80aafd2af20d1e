package tree

import "strings"

// IsNumberLike reports whether the leaf is a literal the code generator can
// push: a decimal or 0x-prefixed hex number, or a quoted string/char.
func IsNumberLike(n *Node) bool {
	return n.Kind == Leaf && IsNumberText(n.Value)
}

// IsNumberText is IsNumberLike for raw token text.
func IsNumberText(s string) bool {
	if s == "" {
		return false
	}

	if IsQuoted(s) {
		return true
	}

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if len(s) == 2 {
			return false
		}

		for _, c := range s[2:] {
			if !isHexDigit(c) {
				return false
			}
		}

		return true
	}

	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}

	return true
}

// IsQuoted reports whether s is a quoted string or char literal.
func IsQuoted(s string) bool {
	if len(s) < 2 {
		return false
	}

	q := s[0]

	return (q == '"' || q == '\'') && s[len(s)-1] == q
}

// Unquote strips the quotes of a quoted literal.
func Unquote(s string) string {
	if IsQuoted(s) {
		return s[1 : len(s)-1]
	}

	return s
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
