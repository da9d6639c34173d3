package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/flowlens/internal/capture"
	"github.com/usestring/flowlens/internal/store"
)

func groupKeys(groups []store.Group) []string {
	keys := make([]string, len(groups))
	for i, g := range groups {
		keys[i] = g.Key
	}
	return keys
}

func TestToolGroupEntries(t *testing.T) {
	handler := ToolGroupEntries(newTestDeps(t, seededSource()))

	tests := []struct {
		name       string
		input      GroupEntriesInput
		wantKeys   []string
		wantCounts []int
	}{
		{
			name:       "default facet is category",
			input:      GroupEntriesInput{},
			wantKeys:   []string{"Development", "API", "Infrastructure", "News"},
			wantCounts: []int{2, 1, 1, 1},
		},
		{
			name:       "by app",
			input:      GroupEntriesInput{By: "app"},
			wantKeys:   []string{"GitHub", "API Service", "CDN/Static", "Hacker News"},
			wantCounts: []int{2, 1, 1, 1},
		},
		{
			name:       "filtered by resource type",
			input:      GroupEntriesInput{By: "app", ResourceType: "script-or-data"},
			wantKeys:   []string{"API Service", "CDN/Static", "GitHub"},
			wantCounts: []int{1, 1, 1},
		},
		{
			name:       "wildcard host by method",
			input:      GroupEntriesInput{SessionID: "s1", By: "method", Host: "*.example.net"},
			wantKeys:   []string{"GET", "POST"},
			wantCounts: []int{1, 1},
		},
		{
			name:       "limit",
			input:      GroupEntriesInput{By: "resource_type", Limit: 1},
			wantKeys:   []string{"script-or-data"},
			wantCounts: []int{3},
		},
		{
			name:       "no matches",
			input:      GroupEntriesInput{App: "Slack"},
			wantKeys:   []string{},
			wantCounts: []int{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := handler(context.Background(), nil, tt.input)
			require.NoError(t, err)
			assert.Equal(t, "s1", out.SessionID)
			assert.Equal(t, 5, out.TotalCount)
			assert.Equal(t, tt.wantKeys, groupKeys(out.Groups))

			counts := make([]int, len(out.Groups))
			for i, g := range out.Groups {
				counts[i] = g.Count
			}
			assert.Equal(t, tt.wantCounts, counts)
		})
	}
}

func TestToolGroupEntries_Examples(t *testing.T) {
	handler := ToolGroupEntries(newTestDeps(t, seededSource()))

	_, out, err := handler(context.Background(), nil, GroupEntriesInput{By: "app"})
	require.NoError(t, err)
	require.NotEmpty(t, out.Groups)
	assert.Equal(t, []string{"e1", "e2"}, out.Groups[0].EntryIDs)

	_, out, err = handler(context.Background(), nil, GroupEntriesInput{By: "app", Examples: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, out.Groups[0].EntryIDs)
}

func TestToolGroupEntries_Errors(t *testing.T) {
	handler := ToolGroupEntries(newTestDeps(t, seededSource()))

	tests := []struct {
		name  string
		input GroupEntriesInput
		code  string
	}{
		{"unknown facet", GroupEntriesInput{By: "color"}, ErrCodeInvalidInput},
		{"unknown resource type", GroupEntriesInput{ResourceType: "xhr"}, ErrCodeInvalidInput},
		{"negative limit", GroupEntriesInput{Limit: -1}, ErrCodeInvalidInput},
		{"unknown session", GroupEntriesInput{SessionID: "nope"}, ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := handler(context.Background(), nil, tt.input)
			requireCode(t, err, tt.code)
		})
	}
}

func TestToolSessionsList(t *testing.T) {
	src := seededSource()
	d := newTestDeps(t, src)

	_, out, err := ToolSessionsList(d)(context.Background(), nil, SessionsListInput{})
	require.NoError(t, err)
	require.Len(t, out.Sessions, 1)
	assert.Equal(t, SessionInfo{SessionID: "s1", Name: "session s1", EntryCount: 5}, out.Sessions[0])

	_, _, err = ToolGroupEntries(d)(context.Background(), nil, GroupEntriesInput{SessionID: "s1"})
	require.NoError(t, err)

	_, out, err = ToolSessionsList(d)(context.Background(), nil, SessionsListInput{})
	require.NoError(t, err)
	assert.Equal(t, 5, out.Sessions[0].IndexedCount)

	src.err = &capture.APIError{StatusCode: 500, Message: "boom"}
	_, _, err = ToolSessionsList(d)(context.Background(), nil, SessionsListInput{})
	requireCode(t, err, ErrCodeCaptureError)
}

func TestToolSessionsList_NoSource(t *testing.T) {
	_, _, err := ToolSessionsList(newTestDeps(t, nil))(context.Background(), nil, SessionsListInput{})
	requireCode(t, err, ErrCodeCaptureError)
}

func TestToolCatalog(t *testing.T) {
	_, out, err := ToolCatalog(newTestDeps(t, nil))(context.Background(), nil, CatalogInput{})
	require.NoError(t, err)
	assert.Contains(t, out.Categories, "Development")
	assert.Contains(t, out.Categories, "Unknown")
	assert.Len(t, out.ResourceTypes, 9)
	assert.Equal(t, []string{"category", "app", "resource_type", "host", "method"}, out.Facets)
	assert.Positive(t, out.RuleCount)
}
