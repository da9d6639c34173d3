// Package appdetect guesses which application produced a flow from its host,
// User-Agent and request headers.
package appdetect

import (
	"maps"
	"net"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/usestring/flowlens/pkg/flow"
	"github.com/usestring/flowlens/pkg/rules"
)

// Stage names the classification step that produced a result.
type Stage string

const (
	StageUserAgent   Stage = "user_agent"
	StageRule        Stage = "rule"
	StageDomainShape Stage = "domain_shape"
	StageDefault     Stage = "default"
)

// Match is a classification result with its provenance.
type Match struct {
	rules.Descriptor
	Stage Stage `json:"stage"`
	// RuleIndex is the matching rule's position, or -1.
	RuleIndex int `json:"rule_index"`
}

type domainShape struct {
	tokens []string
	app    rules.Descriptor
}

var domainShapes = []domainShape{
	{[]string{"cdn", "static", "assets", "img"}, rules.CDNStatic},
	{[]string{"api", "service"}, rules.APIService},
	{[]string{"analytics", "tracking", "metrics", "stats"}, rules.Analytics},
}

// Classifier maps flows to application descriptors. It is safe for
// concurrent use; SetRules swaps the active rule set atomically.
type Classifier struct {
	rules      atomic.Pointer[rules.RuleSet]
	signatures []rules.Signature
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithRules sets the initial rule set.
func WithRules(rs *rules.RuleSet) Option {
	return func(c *Classifier) {
		if rs != nil {
			c.rules.Store(rs)
		}
	}
}

// WithSignatures replaces the user-agent signatures. Match strings are
// lowercased; an empty list disables the user-agent stage.
func WithSignatures(sigs []rules.Signature) Option {
	return func(c *Classifier) {
		c.signatures = make([]rules.Signature, 0, len(sigs))
		for _, s := range sigs {
			c.signatures = append(c.signatures, rules.Signature{
				Substrings: lowerAll(s.Substrings),
				Exclude:    lowerAll(s.Exclude),
				App:        s.App,
			})
		}
	}
}

// New creates a Classifier using the built-in rules and signatures unless
// overridden.
func New(opts ...Option) *Classifier {
	c := &Classifier{signatures: rules.DefaultSignatures()}
	c.rules.Store(rules.Default())
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rules returns the active rule set.
func (c *Classifier) Rules() *rules.RuleSet {
	return c.rules.Load()
}

// SetRules publishes a new rule set. A nil set is ignored.
func (c *Classifier) SetRules(rs *rules.RuleSet) {
	if rs != nil {
		c.rules.Store(rs)
	}
}

// Classify returns the application for a flow. It never returns a zero
// descriptor.
func (c *Classifier) Classify(domain, userAgent string, headers flow.Headers) rules.Descriptor {
	return c.Explain(domain, userAgent, headers).Descriptor
}

// ClassifyFlow classifies using the flow's domain, request User-Agent and
// request headers.
func (c *Classifier) ClassifyFlow(f *flow.Flow) rules.Descriptor {
	return c.Classify(f.Domain, f.UserAgent(), f.RequestHeaders())
}

// Explain classifies and reports which stage decided.
func (c *Classifier) Explain(domain, userAgent string, headers flow.Headers) Match {
	host := NormalizeDomain(domain)
	if host == "" {
		return Match{Descriptor: rules.Unknown, Stage: StageDefault, RuleIndex: -1}
	}

	ua := strings.ToLower(userAgent)
	if ua != "" {
		for _, sig := range c.signatures {
			if sig.Matches(ua) {
				return Match{Descriptor: sig.App, Stage: StageUserAgent, RuleIndex: -1}
			}
		}
	}

	for i, r := range c.rules.Load().All() {
		if !domainMatches(r.Domains, host) {
			continue
		}
		if len(r.UserAgents) > 0 && ua != "" && !containsAny(ua, r.UserAgents) {
			continue
		}
		if len(r.Headers) > 0 && headers != nil && !headersMatch(r.Headers, headers) {
			continue
		}
		return Match{Descriptor: r.App, Stage: StageRule, RuleIndex: i}
	}

	for _, shape := range domainShapes {
		if containsAny(host, shape.tokens) {
			return Match{Descriptor: shape.app, Stage: StageDomainShape, RuleIndex: -1}
		}
	}

	return Match{Descriptor: rules.Unknown, Stage: StageDefault, RuleIndex: -1}
}

// Categories returns every category the classifier can produce, sorted.
func (c *Classifier) Categories() []string {
	seen := map[string]struct{}{
		rules.CategoryInfrastructure: {},
		rules.CategoryAPI:            {},
		rules.CategoryAnalytics:      {},
		rules.CategoryUnknown:        {},
	}
	for _, cat := range c.rules.Load().Categories() {
		seen[cat] = struct{}{}
	}
	for _, s := range c.signatures {
		seen[s.App.Category] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// NormalizeDomain lowercases a host, strips one leading "www." and any
// ":port" suffix. Bare IPv6 addresses are left intact.
func NormalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	if host, port, err := net.SplitHostPort(d); err == nil && isPort(port) {
		d = host
	}
	return strings.TrimPrefix(d, "www.")
}

func isPort(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// domainMatches accepts containment in either direction, so a rule for
// "youtube.com" matches "m.youtube.com" and a bare "youtube" host matches too.
func domainMatches(ruleDomains []string, host string) bool {
	for _, d := range ruleDomains {
		if strings.Contains(host, d) || strings.Contains(d, host) {
			return true
		}
	}
	return false
}

func headersMatch(required map[string]string, headers flow.Headers) bool {
	for name, want := range required {
		if !headers.Has(name) {
			return false
		}
		if !strings.Contains(strings.ToLower(headers.Get(name)), want) {
			return false
		}
	}
	return true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
