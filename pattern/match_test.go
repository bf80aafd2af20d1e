package pattern

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/shibukawa/snaplll/lllparser"
	"github.com/shibukawa/snaplll/tree"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		subject  string
		ok       bool
		bindings map[string]string
	}{
		{name: "literal leaf", pattern: "stop", subject: "stop", ok: true, bindings: map[string]string{}},
		{name: "literal mismatch", pattern: "stop", subject: "go", ok: false},
		{name: "literal vs compound", pattern: "stop", subject: "(stop)", ok: false},
		{name: "variable binds compound", pattern: "$x", subject: "(add 1 2)", ok: true, bindings: map[string]string{"x": "(add 1 2)"}},
		{name: "compound", pattern: "(if $c $a (else $b))", subject: "(if 1 2 (else 3))", ok: true, bindings: map[string]string{"c": "1", "a": "2", "b": "3"}},
		{name: "head differs", pattern: "(add $a $b)", subject: "(sub 1 2)", ok: false},
		{name: "arity differs", pattern: "(add $a $b)", subject: "(add 1 2 3)", ok: false},
		{name: "nested literal", pattern: "(access msg.data $i)", subject: "(access msg.data 4)", ok: true, bindings: map[string]string{"i": "4"}},
		{name: "last binding wins", pattern: "(f $x $x)", subject: "(f 1 2)", ok: true, bindings: map[string]string{"x": "2"}},
		{name: "bare sigil is literal", pattern: "$", subject: "x", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := Match(lllparser.MustParse(tt.pattern), lllparser.MustParse(tt.subject))
			assert.Equal(t, tt.ok, ok)

			if !tt.ok {
				return
			}

			got := map[string]string{}
			for k, v := range b {
				got[k] = v.String()
			}

			assert.Equal(t, tt.bindings, got)
		})
	}
}

func TestSubstitute(t *testing.T) {
	template := lllparser.MustParse("(seq (set $1 $x) (~return (ref $1) 32))")
	b := Bindings{"x": lllparser.MustParse("(add 1 2)")}

	got := Substitute(template, b, "_temp7_", tree.Metadata{File: "f", Line: 3})
	assert.Equal(t, "(seq (set _temp7_1 (add 1 2)) (~return (ref _temp7_1) 32))", got.String())
	assert.Equal(t, 3, got.Args[0].Args[0].Meta.Line)
}

func TestSubstituteDoesNotShare(t *testing.T) {
	bound := lllparser.MustParse("(add 1 2)")
	got := Substitute(lllparser.MustParse("(f $x $x)"), Bindings{"x": bound}, "_p_", tree.Metadata{})

	assert.True(t, got.Args[0] != got.Args[1])
	assert.True(t, got.Args[0] != bound)

	got.Args[0].Args[0].Value = "9"
	assert.Equal(t, "1", got.Args[1].Args[0].Value)
	assert.Equal(t, "1", bound.Args[0].Value)
}

func TestIdentityRule(t *testing.T) {
	rules := []struct {
		pattern string
		subject string
	}{
		{"(foo $x)", "(foo (bar 1))"},
		{"(if $c $a (else $b))", "(if (eq x 1) (stop) (else (seq)))"},
		{"(access msg.data $i)", "(access msg.data (add 1 2))"},
		{"$anything", "(deep (nested (tree 1 2) 3))"},
		{"stop", "stop"},
	}

	for _, r := range rules {
		t.Run(r.pattern, func(t *testing.T) {
			p := lllparser.MustParse(r.pattern)
			subject := lllparser.MustParse(r.subject)

			b, ok := Match(p, subject)
			assert.True(t, ok)
			assert.True(t, tree.Equal(subject, Substitute(p, b, "_h_", subject.Meta)))
		})
	}
}
