package formatter

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/shibukawa/snaplll/lllparser"
	"github.com/shibukawa/snaplll/testhelper"
)

func TestLLLFormatter_Format(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		input    string
		expected string
	}{
		{
			name:     "fits on one line",
			width:    80,
			input:    "(seq   (set x 1)\n (stop))",
			expected: "(seq (set x 1) (stop))\n",
		},
		{
			name:     "top-level forms",
			width:    80,
			input:    "(data x) ; storage\n(def (f) (return 1))",
			expected: "(data x)\n\n(def (f) (return 1))\n",
		},
		{
			name:  "breaks children",
			width: 20,
			input: "(seq (set x 1) (mstore 0 (get x)))",
			expected: testhelper.TrimIndent(t, `
				(seq
				  (set x 1)
				  (mstore 0 (get x)))
				`),
		},
		{
			name:  "keeps signature on the head line",
			width: 30,
			input: "(def (double x) (return (* x 2)))",
			expected: testhelper.TrimIndent(t, `
				(def (double x)
				  (return (* x 2)))
				`),
		},
		{
			name:  "nested",
			width: 20,
			input: "(def (f x) (seq (set y (add x 1)) (return y)))",
			expected: testhelper.TrimIndent(t, `
				(def (f x)
				  (seq
				    (set y
				      (add x 1))
				    (return y)))
				`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &LLLFormatter{indentSize: 2, width: tt.width}

			got, err := f.Format(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)

			again, err := lllparser.Parse(got, "formatted.lll")
			assert.NoError(t, err)
			assert.Equal(t, lllparser.MustParse(tt.input).String(), again.String())
		})
	}
}

func TestLLLFormatter_Errors(t *testing.T) {
	_, err := NewLLLFormatter().Format("(stop")
	assert.True(t, errors.Is(err, lllparser.ErrSyntax))
}
