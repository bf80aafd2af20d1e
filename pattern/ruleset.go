package pattern

import (
	"github.com/shibukawa/snaplll/lllparser"
	"github.com/shibukawa/snaplll/tree"
)

// Rule rewrites nodes matching Pattern into Template.
type Rule struct {
	Pattern  *tree.Node
	Template *tree.Node
	order    int
}

// RuleSet indexes rules by the head of their pattern. Leaf patterns live in a
// wildcard bucket. Candidates come back in declaration order.
type RuleSet struct {
	byHead   map[string][]Rule
	wildcard []Rule
	count    int
}

// NewRuleSet creates an empty rule set.
func NewRuleSet() *RuleSet {
	return &RuleSet{byHead: map[string][]Rule{}}
}

// Add appends a rule.
func (rs *RuleSet) Add(pattern, template *tree.Node) {
	r := Rule{Pattern: pattern, Template: template, order: rs.count}
	rs.count++

	if pattern.IsLeaf() {
		rs.wildcard = append(rs.wildcard, r)
		return
	}

	rs.byHead[pattern.Value] = append(rs.byHead[pattern.Value], r)
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	return rs.count
}

// Candidates returns the rules that may match n, first-declared first.
func (rs *RuleSet) Candidates(n *tree.Node) []Rule {
	var headed []Rule
	if !n.IsLeaf() {
		headed = rs.byHead[n.Value]
	}

	if len(rs.wildcard) == 0 {
		return headed
	}

	if len(headed) == 0 {
		return rs.wildcard
	}

	// merge by declaration order
	merged := make([]Rule, 0, len(headed)+len(rs.wildcard))

	i, j := 0, 0
	for i < len(headed) && j < len(rs.wildcard) {
		if headed[i].order < rs.wildcard[j].order {
			merged = append(merged, headed[i])
			i++
		} else {
			merged = append(merged, rs.wildcard[j])
			j++
		}
	}

	merged = append(merged, headed[i:]...)

	return append(merged, rs.wildcard[j:]...)
}

// Apply rewrites n with the first matching rule. The hygiene prefix is
// requested only when a rule fires.
func (rs *RuleSet) Apply(n *tree.Node, prefix func() string) (*tree.Node, bool) {
	for _, r := range rs.Candidates(n) {
		if b, ok := Match(r.Pattern, n); ok {
			return Substitute(r.Template, b, prefix(), n.Meta), true
		}
	}

	return n, false
}

// Tier is one priority level of rules.
type Tier struct {
	Priority int
	Rules    *RuleSet
}

// Tiers holds disjoint rule sets ordered by ascending priority.
type Tiers []Tier

// Add appends a rule to the tier with the given priority, creating the tier
// in sorted position if needed.
func (ts *Tiers) Add(priority int, pattern, template *tree.Node) {
	for i := range *ts {
		if (*ts)[i].Priority == priority {
			(*ts)[i].Rules.Add(pattern, template)
			return
		}

		if (*ts)[i].Priority > priority {
			rs := NewRuleSet()
			rs.Add(pattern, template)

			*ts = append((*ts)[:i], append(Tiers{{Priority: priority, Rules: rs}}, (*ts)[i:]...)...)

			return
		}
	}

	rs := NewRuleSet()
	rs.Add(pattern, template)
	*ts = append(*ts, Tier{Priority: priority, Rules: rs})
}

// MustRuleSet parses (pattern, template) source pairs into a rule set.
func MustRuleSet(pairs [][2]string) *RuleSet {
	rs := NewRuleSet()
	for _, p := range pairs {
		rs.Add(lllparser.MustParse(p[0]), lllparser.MustParse(p[1]))
	}

	return rs
}
