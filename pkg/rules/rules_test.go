package rules

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRuleSet_NormalizesAndCopies(t *testing.T) {
	in := []Rule{{
		Domains:    []string{" Example.COM ", ""},
		UserAgents: []string{"MyApp"},
		Headers:    map[string]string{"X-Client": "Desktop"},
		App:        Descriptor{"Example", "E", "Test"},
	}}
	rs := NewRuleSet(in)

	in[0].Domains[0] = "mutated"
	in[0].Headers["X-Client"] = "mutated"

	require.Equal(t, 1, rs.Len())
	r := rs.At(0)
	assert.Equal(t, []string{"example.com"}, r.Domains)
	assert.Equal(t, []string{"myapp"}, r.UserAgents)
	assert.Equal(t, map[string]string{"x-client": "desktop"}, r.Headers)

	r.Domains[0] = "changed"
	assert.Equal(t, "example.com", rs.At(0).Domains[0])
}

func TestRuleSet_AllPreservesOrder(t *testing.T) {
	rs := NewRuleSet([]Rule{
		{Domains: []string{"a.com"}, App: Descriptor{"A", "", "X"}},
		{Domains: []string{"a.com"}, App: Descriptor{"B", "", "Y"}},
	})

	var names []string
	for i, r := range rs.All() {
		assert.Equal(t, len(names), i)
		names = append(names, r.App.Name)
	}
	assert.Equal(t, []string{"A", "B"}, names)
}

func TestRuleSet_Prepend(t *testing.T) {
	base := NewRuleSet([]Rule{{Domains: []string{"a.com"}, App: Descriptor{"Base", "", "X"}}})
	rs := base.Prepend([]Rule{{Domains: []string{"a.com"}, App: Descriptor{"Front", "", "Y"}}})

	require.Equal(t, 2, rs.Len())
	assert.Equal(t, "Front", rs.At(0).App.Name)
	assert.Equal(t, "Base", rs.At(1).App.Name)
	assert.Equal(t, 1, base.Len())
}

func TestRuleSet_NilIsEmpty(t *testing.T) {
	var rs *RuleSet
	assert.Equal(t, 0, rs.Len())
	for range rs.All() {
		t.Fatal("nil set should not yield")
	}
}

func TestDefault(t *testing.T) {
	rs := Default()
	assert.Same(t, rs, Default())
	assert.Greater(t, rs.Len(), 40)

	// Duplicate domains are kept in declared order.
	var googleRules, appleRules []string
	for _, r := range rs.All() {
		for _, d := range r.Domains {
			switch d {
			case "google.com":
				googleRules = append(googleRules, r.App.Name)
			case "apple.com":
				appleRules = append(appleRules, r.App.Name)
			}
		}
	}
	assert.Equal(t, []string{"Web Browser", "Google Workspace"}, googleRules)
	assert.Equal(t, []string{"iCloud", "macOS System"}, appleRules)

	cats := rs.Categories()
	assert.Contains(t, cats, "Social")
	assert.Contains(t, cats, "System")
	assert.IsIncreasing(t, cats)
}

func TestDefaultSignatures(t *testing.T) {
	sigs := DefaultSignatures()
	first := func(ua string) string {
		for _, s := range sigs {
			if s.Matches(ua) {
				return s.App.Name
			}
		}
		return ""
	}

	tests := []struct {
		ua   string
		want string
	}{
		{"mozilla/5.0 (windows nt 10.0) applewebkit/537.36 (khtml, like gecko) chrome/120.0 safari/537.36 edg/120.0", "Edge"},
		{"mozilla/5.0 (windows nt 10.0) applewebkit/537.36 (khtml, like gecko) chrome/120.0 safari/537.36 opr/105.0", "Opera"},
		{"mozilla/5.0 (windows nt 10.0) applewebkit/537.36 (khtml, like gecko) chrome/120.0 safari/537.36", "Chrome"},
		{"mozilla/5.0 (macintosh; intel mac os x 14_0) applewebkit/605.1.15 (khtml, like gecko) version/17.0 safari/605.1.15", "Safari"},
		{"mozilla/5.0 (x11; linux x86_64; rv:121.0) gecko/20100101 firefox/121.0", "Firefox"},
		{"mozilla/5.0 (iphone) applewebkit/605.1.15 mobile/15e148 micromessenger/8.0.40 safari/604.1", "WeChat"},
		{"curl/8.4.0", "cURL"},
		{"postmanruntime/7.36.0", "Postman"},
		{"go-http-client/1.1", "Go HTTP Client"},
		{"something else", ""},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, first(tt.ua))
		})
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModePrepend, m)

	m, err = ParseMode(" REPLACE ")
	require.NoError(t, err)
	assert.Equal(t, ModeReplace, m)

	_, err = ParseMode("merge")
	assert.Error(t, err)
}

func TestLoadFile_YAMLPrepend(t *testing.T) {
	rs, err := LoadFile(filepath.Join("testdata", "override.yaml"), Default(), ModePrepend)
	require.NoError(t, err)

	assert.Equal(t, Default().Len()+2, rs.Len())
	assert.Equal(t, "Internal Git Mirror", rs.At(0).App.Name)

	acme := rs.At(1)
	assert.Equal(t, map[string]string{"x-tenant": "acme"}, acme.Headers)
	assert.Equal(t, Unknown.Icon, acme.App.Icon)
}

func TestLoadFile_JSONReplace(t *testing.T) {
	rs, err := LoadFile(filepath.Join("testdata", "override.json"), Default(), ModeReplace)
	require.NoError(t, err)

	require.Equal(t, 1, rs.Len())
	assert.Equal(t, []string{"examplebot"}, rs.At(0).UserAgents)
}

func TestLoadFile_Invalid(t *testing.T) {
	_, err := LoadFile(filepath.Join("testdata", "invalid.yaml"), Default(), ModePrepend)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Messages)
	assert.Contains(t, err.Error(), "invalid.yaml")
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"), nil, ModePrepend)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_MalformedJSON(t *testing.T) {
	_, err := Parse("rules.json", []byte("{rules:"))
	require.Error(t, err)
}

func TestSchema(t *testing.T) {
	data, err := Schema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "rules")
}
