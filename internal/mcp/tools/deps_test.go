package tools

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/usestring/flowlens/internal/capture"
	"github.com/usestring/flowlens/internal/config"
	"github.com/usestring/flowlens/internal/enrich"
	"github.com/usestring/flowlens/internal/query"
	"github.com/usestring/flowlens/internal/store"
	"github.com/usestring/flowlens/pkg/flow"
)

// fakeSource serves fixed sessions. Flows registered with extra are
// fetchable but not listed in any session.
type fakeSource struct {
	mu       sync.Mutex
	sessions map[string][]string
	flows    map[string]*flow.Flow
	active   string
	err      error
	fetchErr error
}

func newFakeSource() *fakeSource {
	return &fakeSource{sessions: map[string][]string{}, flows: map[string]*flow.Flow{}}
}

func (f *fakeSource) add(sessionID string, fl *flow.Flow) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[sessionID] = append(f.sessions[sessionID], fl.ID)
	f.flows[fl.ID] = fl
}

func (f *fakeSource) extra(fl *flow.Flow) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flows[fl.ID] = fl
}

func (f *fakeSource) ListSessions(context.Context) ([]capture.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]capture.Session, 0, len(f.sessions))
	for id, ids := range f.sessions {
		out = append(out, capture.Session{ID: id, Name: "session " + id, EntryIDs: append([]string(nil), ids...)})
	}
	return out, nil
}

func (f *fakeSource) GetSession(_ context.Context, id string) (*capture.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if id == capture.ActiveID && f.active != "" {
		id = f.active
	}
	ids, ok := f.sessions[id]
	if !ok {
		return nil, &capture.APIError{StatusCode: 404, Message: "session not found"}
	}
	return &capture.Session{ID: id, EntryIDs: append([]string(nil), ids...)}, nil
}

func (f *fakeSource) FetchFlows(_ context.Context, _ string, ids []string, _ int) ([]*flow.Flow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*flow.Flow
	for _, id := range ids {
		if fl, ok := f.flows[id]; ok {
			out = append(out, fl)
		}
	}
	return out, nil
}

func (f *fakeSource) FetchFlow(_ context.Context, _ string, id string) (*flow.Flow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if fl, ok := f.flows[id]; ok {
		return fl, nil
	}
	return nil, &capture.APIError{StatusCode: 404, Message: "entry not found"}
}

func makeFlow(id, rawURL, method, contentType string, body string) *flow.Flow {
	f := flow.New(id, method, rawURL)
	f.Request = &flow.Message{}
	f.Response = &flow.Message{Headers: flow.Headers{{"Content-Type", contentType}}}
	if body != "" {
		f.Response.Body = flow.TextBody(body)
	}
	return f
}

func testConfig() *config.Config {
	return &config.Config{
		FreshnessThreshold: time.Minute,
		FetchWorkers:       4,
		HexViewMaxLines:    10,
		DefaultGroupLimit:  config.DefaultGroupLimitValue,
	}
}

// newTestDeps wires tool dependencies around src. A nil src builds a store
// without a capture source.
func newTestDeps(t *testing.T, src *fakeSource) *Deps {
	t.Helper()
	cfg := testConfig()
	enricher := enrich.New(nil, nil)

	var source store.Source
	if src != nil {
		source = src
	}
	return &Deps{
		Source:   source,
		Store:    store.New(source, enricher, nil, cfg),
		Enricher: enricher,
		Query:    query.NewEngine(),
		Config:   cfg,
	}
}

// seededSource holds one session, s1, which is also the active session.
func seededSource() *fakeSource {
	src := newFakeSource()
	src.active = "s1"
	src.add("s1", makeFlow("e1", "https://github.com/golang/go", "GET", "text/html", "<p>Go &amp; friends</p>"))
	src.add("s1", makeFlow("e2", "https://api.github.com/repos", "GET", "application/json", `{"name":"\u4f60\u597d"}`))
	src.add("s1", makeFlow("e3", "https://news.ycombinator.com/news", "GET", "text/html", ""))
	src.add("s1", makeFlow("e4", "https://cdn.example.net/app.js", "GET", "application/javascript", ""))
	src.add("s1", makeFlow("e5", "https://api.example.net/v1/items", "POST", "application/json", ""))
	return src
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var coded *CodedError
	require.True(t, errors.As(err, &coded), "expected CodedError, got %v", err)
	require.Equal(t, code, coded.Code)
}
