package appdetect

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/flowlens/pkg/flow"
	"github.com/usestring/flowlens/pkg/rules"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestClassify(t *testing.T) {
	c := New()

	tests := []struct {
		name      string
		domain    string
		userAgent string
		headers   flow.Headers
		wantName  string
		wantStage Stage
	}{
		{"empty domain", "", chromeUA, nil, "Unknown App", StageDefault},
		{"whitespace domain", "   ", "", nil, "Unknown App", StageDefault},
		{"user agent first", "github.com", chromeUA, nil, "Chrome", StageUserAgent},
		{"rule without ua", "github.com", "", nil, "GitHub", StageRule},
		{"www stripped", "WWW.GitHub.com", "", nil, "GitHub", StageRule},
		{"port stripped", "api.github.com:443", "", nil, "GitHub", StageRule},
		{"subdomain", "m.youtube.com", "", nil, "YouTube", StageRule},
		{"reverse containment", "github", "", nil, "GitHub", StageRule},
		// "t.co" is a substring of "reddit.com", and the Twitter/X rule comes first.
		{"literal substring match", "reddit.com", "", nil, "Twitter/X", StageRule},
		{"ua predicate skips rule", "google.com", "MyCustomClient/1.0", nil, "Unknown App", StageDefault},
		{"ua predicate matches", "google.com", "GoogleOther", nil, "Google Workspace", StageRule},
		{"ua predicate ignored without ua", "google.com", "", nil, "Web Browser", StageRule},
		{"apple system", "mzstatic.com", "itunesstored/1.0 CFNetwork/1408 Darwin/22.0", nil, "macOS System", StageRule},
		{"windows system", "windows.com", "Windows-Update-Agent/10.0", nil, "Windows System", StageRule},
		{"cdn shape", "cdn.example.net", "", nil, "CDN/Static", StageDomainShape},
		{"assets shape", "assets.example.net", "", nil, "CDN/Static", StageDomainShape},
		{"api shape", "api.example.net", "", nil, "API Service", StageDomainShape},
		{"service shape", "payments-service.internal", "", nil, "API Service", StageDomainShape},
		{"analytics shape", "tracking.example.net", "", nil, "Analytics", StageDomainShape},
		{"unknown", "example.net", "", nil, "Unknown App", StageDefault},
		{"wechat client", "example.net", "Mozilla/5.0 (iPhone) MicroMessenger/8.0.40", nil, "WeChat", StageUserAgent},
		{"regional rule", "weixin.qq.com", "", nil, "WeChat", StageRule},
		{"qq rule", "im.qq.com", "", nil, "QQ", StageRule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := c.Explain(tt.domain, tt.userAgent, tt.headers)
			assert.Equal(t, tt.wantName, m.Name)
			assert.Equal(t, tt.wantStage, m.Stage)
			assert.False(t, m.IsZero())
			assert.Equal(t, m.Descriptor, c.Classify(tt.domain, tt.userAgent, tt.headers))
		})
	}
}

func TestClassify_EarlierRuleWins(t *testing.T) {
	c := New(WithSignatures(nil), WithRules(rules.NewRuleSet([]rules.Rule{
		{Domains: []string{"dup.test"}, App: rules.Descriptor{Name: "First", Category: "A"}},
		{Domains: []string{"dup.test"}, App: rules.Descriptor{Name: "Second", Category: "B"}},
	})))

	m := c.Explain("dup.test", "", nil)
	assert.Equal(t, "First", m.Name)
	assert.Equal(t, 0, m.RuleIndex)
}

func TestClassify_HeaderPredicate(t *testing.T) {
	c := New(WithSignatures(nil), WithRules(rules.NewRuleSet([]rules.Rule{
		{
			Domains: []string{"corp.test"},
			Headers: map[string]string{"X-Client": "Desktop"},
			App:     rules.Descriptor{Name: "Corp Desktop", Category: "Internal"},
		},
		{Domains: []string{"corp.test"}, App: rules.Descriptor{Name: "Corp Web", Category: "Internal"}},
	})))

	tests := []struct {
		name    string
		headers flow.Headers
		want    string
	}{
		{"no headers supplied", nil, "Corp Desktop"},
		{"matching value, different case", flow.Headers{{"x-client", "ACME-desktop-3"}}, "Corp Desktop"},
		{"wrong value", flow.Headers{{"X-Client", "mobile"}}, "Corp Web"},
		{"header absent", flow.Headers{{"Accept", "*/*"}}, "Corp Web"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify("corp.test", "", tt.headers).Name)
		})
	}
}

func TestClassifyFlow(t *testing.T) {
	c := New()
	f := flow.New("1", "GET", "https://news.ycombinator.com/item?id=1")
	f.Request = &flow.Message{Headers: flow.Headers{{"User-Agent", "hn-reader/2024"}}}
	assert.Equal(t, "Hacker News", c.ClassifyFlow(f).Name)

	f.Request = nil
	assert.Equal(t, "Hacker News", c.ClassifyFlow(f).Name)
}

func TestSetRules(t *testing.T) {
	c := New(WithSignatures(nil))
	assert.Equal(t, "GitHub", c.Classify("github.com", "", nil).Name)

	c.SetRules(rules.Default().Prepend([]rules.Rule{
		{Domains: []string{"github.com"}, App: rules.Descriptor{Name: "Mirror", Category: "Development"}},
	}))
	assert.Equal(t, "Mirror", c.Classify("github.com", "", nil).Name)

	c.SetRules(nil)
	assert.Equal(t, "Mirror", c.Classify("github.com", "", nil).Name)
}

func TestConcurrentSetRules(t *testing.T) {
	c := New()
	alt := rules.NewRuleSet([]rules.Rule{{Domains: []string{"github.com"}, App: rules.Descriptor{Name: "Alt", Category: "X"}}})

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				if i%2 == 0 {
					c.SetRules(alt)
				} else {
					name := c.Classify("github.com", "", nil).Name
					assert.Contains(t, []string{"GitHub", "Alt"}, name)
				}
			}
		}()
	}
	wg.Wait()
}

func TestCategories(t *testing.T) {
	cats := New().Categories()
	for _, want := range []string{"Infrastructure", "API", "Analytics", "Unknown", "Browser", "Social"} {
		assert.Contains(t, cats, want)
	}
	assert.IsIncreasing(t, cats)
}

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"WWW.Example.COM", "example.com"},
		{" example.com:8080 ", "example.com"},
		{"www.www.example.com", "www.example.com"},
		{"[::1]:443", "::1"},
		{"[::1]", "[::1]"},
		{"2001:db8::1", "2001:db8::1"},
		{"[2001:db8::1]:8443", "2001:db8::1"},
		{"host:abc", "host:abc"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, NormalizeDomain(tt.in))
		})
	}
}
