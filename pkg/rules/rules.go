// Package rules holds the immutable tables that drive application detection:
// ordered domain rules and user-agent signatures.
package rules

import (
	"iter"
	"maps"
	"slices"
	"strings"
)

// Descriptor names an application and the category it belongs to.
type Descriptor struct {
	Name     string `json:"name"`
	Icon     string `json:"icon"`
	Category string `json:"category"`
}

// IsZero reports whether d is the zero descriptor.
func (d Descriptor) IsZero() bool {
	return d == Descriptor{}
}

// Unknown is returned when nothing matches.
var Unknown = Descriptor{Name: "Unknown App", Icon: "❓", Category: "Unknown"}

// Rule maps a set of domains, optionally narrowed by user-agent substrings
// and required header values, to an application.
type Rule struct {
	Domains    []string          `json:"domains"`
	UserAgents []string          `json:"user_agents,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	App        Descriptor        `json:"app"`
}

func (r Rule) normalized() Rule {
	out := Rule{App: r.App}
	for _, d := range r.Domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			out.Domains = append(out.Domains, d)
		}
	}
	for _, ua := range r.UserAgents {
		ua = strings.ToLower(strings.TrimSpace(ua))
		if ua != "" {
			out.UserAgents = append(out.UserAgents, ua)
		}
	}
	if len(r.Headers) > 0 {
		out.Headers = make(map[string]string, len(r.Headers))
		for k, v := range r.Headers {
			out.Headers[strings.ToLower(strings.TrimSpace(k))] = strings.ToLower(v)
		}
	}
	return out
}

func (r Rule) clone() Rule {
	return Rule{
		Domains:    slices.Clone(r.Domains),
		UserAgents: slices.Clone(r.UserAgents),
		Headers:    maps.Clone(r.Headers),
		App:        r.App,
	}
}

// RuleSet is an ordered, immutable list of rules. Earlier rules shadow later
// ones that match the same domain.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet copies rules into a new set, lowercasing match keys and dropping
// blank domain entries.
func NewRuleSet(rules []Rule) *RuleSet {
	rs := &RuleSet{rules: make([]Rule, 0, len(rules))}
	for _, r := range rules {
		rs.rules = append(rs.rules, r.normalized())
	}
	return rs
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// At returns a copy of the i-th rule.
func (rs *RuleSet) At(i int) Rule {
	return rs.rules[i].clone()
}

// All iterates rules in order. The yielded rules are shared and must not be
// modified.
func (rs *RuleSet) All() iter.Seq2[int, Rule] {
	return func(yield func(int, Rule) bool) {
		if rs == nil {
			return
		}
		for i, r := range rs.rules {
			if !yield(i, r) {
				return
			}
		}
	}
}

// Rules returns a deep copy of the rules in order.
func (rs *RuleSet) Rules() []Rule {
	out := make([]Rule, 0, rs.Len())
	for _, r := range rs.All() {
		out = append(out, r.clone())
	}
	return out
}

// Prepend returns a new set with rules placed ahead of the receiver's.
func (rs *RuleSet) Prepend(rules []Rule) *RuleSet {
	combined := make([]Rule, 0, len(rules)+rs.Len())
	combined = append(combined, rules...)
	combined = append(combined, rs.Rules()...)
	return NewRuleSet(combined)
}

// Categories returns the sorted unique categories used by the set.
func (rs *RuleSet) Categories() []string {
	seen := make(map[string]struct{})
	for _, r := range rs.All() {
		seen[r.App.Category] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Signature identifies a client from its User-Agent alone. A signature
// matches when any substring is present and no exclude is present.
type Signature struct {
	Substrings []string
	Exclude    []string
	App        Descriptor
}

// Matches reports whether the lowercased user agent satisfies s.
func (s Signature) Matches(lowerUA string) bool {
	hit := false
	for _, sub := range s.Substrings {
		if strings.Contains(lowerUA, sub) {
			hit = true
			break
		}
	}
	if !hit {
		return false
	}
	for _, ex := range s.Exclude {
		if strings.Contains(lowerUA, ex) {
			return false
		}
	}
	return true
}
