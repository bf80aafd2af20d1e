package testhelper

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestTrimIndent(t *testing.T) {
	got := TrimIndent(t, `
		(seq
			(stop))
		`)
	assert.Equal(t, "(seq\n    (stop))\n", got)
}

func TestParseLLL(t *testing.T) {
	n := ParseLLL(t, "(add 1 2)")
	assert.Equal(t, "(add 1 2)", n.String())
	assert.Equal(t, "TestParseLLL.lll", n.Meta.File)
}
