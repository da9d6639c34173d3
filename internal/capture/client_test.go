package capture

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/flowlens/pkg/appdetect"
	"github.com/usestring/flowlens/pkg/flow"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func b64(s string) *string {
	enc := base64.StdEncoding.EncodeToString([]byte(s))
	return &enc
}

func testEntry(id string) Entry {
	return Entry{
		ID:              id,
		URL:             "https://api.github.com/repos/" + id,
		HTTPVersion:     "h2",
		TransactionType: TransactionRequest,
		Request: Request{
			Method:  strPtr("GET"),
			Headers: flow.Headers{{"user-agent", "curl/8.4.0"}},
		},
		Response: &Response{
			StatusCode: intPtr(200),
			Headers:    flow.Headers{{"content-type", "application/json"}},
			Body:       b64(`{"ok":true}`),
		},
		HTTP2:   &HTTP2Info{ConnectionID: "c1", StreamID: 3},
		Timings: Timings{StartedAt: 1700000000000},
	}
}

// fakeAPI serves sessions and entries from memory.
func fakeAPI(t *testing.T, sessions []Session, entries map[string]Entry) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /sessions", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sessions)
	})
	mux.HandleFunc("GET /sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		for _, s := range sessions {
			if s.ID == r.PathValue("id") {
				_ = json.NewEncoder(w).Encode(s)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"session not found"}`))
	})
	mux.HandleFunc("GET /sessions/{id}/entries/{entry}", func(w http.ResponseWriter, r *http.Request) {
		e, ok := entries[r.PathValue("entry")]
		if !ok {
			http.Error(w, "no such entry", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(e)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Sessions(t *testing.T) {
	srv := fakeAPI(t, []Session{{ID: "s1", Name: "First", EntryIDs: []string{"e1", "e2"}}}, nil)
	c := New(WithBaseURL(srv.URL + "/"))
	assert.Equal(t, srv.URL, c.BaseURL())

	sessions, err := c.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "First", sessions[0].Name)

	s, err := c.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e2"}, s.EntryIDs)
}

func TestClient_APIError(t *testing.T) {
	srv := fakeAPI(t, nil, nil)
	c := New(WithBaseURL(srv.URL))

	_, err := c.GetSession(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "session not found", apiErr.Message)

	_, err = c.GetEntry(context.Background(), "s1", "missing")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "no such entry", apiErr.Message)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL), WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}))
	_, err := c.ListSessions(context.Background())
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
}

func TestToFlow(t *testing.T) {
	e := testEntry("e1")
	f := ToFlow(&e)

	assert.Equal(t, "e1", f.ID)
	assert.Equal(t, "GET", f.Method)
	assert.Equal(t, "api.github.com", f.Domain)
	assert.Equal(t, "/repos/e1", f.Path)
	assert.Equal(t, 200, f.StatusCode)
	assert.Equal(t, "application/json", f.ContentType)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), f.StartedAt)
	assert.Equal(t, "curl/8.4.0", f.UserAgent())
	assert.Equal(t, []string{TagHTTP2}, f.Tags)

	assert.True(t, f.Request.Body.IsAbsent())
	assert.Equal(t, flow.BodyBytes, f.Response.Body.Kind())
	assert.Equal(t, `{"ok":true}`, string(f.Response.Body.Bytes()))
}

func TestToFlow_NoResponse(t *testing.T) {
	e := Entry{
		ID:              "e2",
		URL:             "https://example.com/upload",
		TransactionType: TransactionPushPromise,
		IsWebSocket:     true,
		Request: Request{
			Method:  strPtr("POST"),
			Headers: flow.Headers{{"Content-Type", "text/plain"}},
			Body:    b64("hi"),
		},
	}
	f := ToFlow(&e)
	assert.Nil(t, f.Response)
	assert.Equal(t, "text/plain", f.ContentType)
	assert.Equal(t, []string{TagWebSocket, TagPushPromise}, f.Tags)
	assert.Equal(t, "hi", string(f.Request.Body.Bytes()))
}

func TestToFlow_BadBodyKeptAsText(t *testing.T) {
	e := testEntry("e3")
	e.Response.Body = strPtr("%%%not-base64")
	f := ToFlow(&e)

	require.NotNil(t, f.Response)
	assert.Equal(t, flow.BodyText, f.Response.Body.Kind())
	assert.Equal(t, "%%%not-base64", string(f.Response.Body.Bytes()))
	assert.Equal(t, "api.github.com", f.Domain)
	assert.Equal(t, 200, f.StatusCode)
}

func TestFetchFlows_BadBodyStillClassified(t *testing.T) {
	bad := testEntry("e1")
	bad.Response.Body = strPtr("%%%not-base64")
	bad.Request.Headers = nil
	srv := fakeAPI(t, nil, map[string]Entry{"e1": bad})

	flows, err := New(WithBaseURL(srv.URL)).FetchFlows(context.Background(), "s1", []string{"e1"}, 1)
	require.NoError(t, err)
	require.Len(t, flows, 1)
	require.NotNil(t, flows[0])
	assert.Equal(t, "GitHub", appdetect.New().ClassifyFlow(flows[0]).Name)
}

func TestFetchFlow_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/gone") {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"entry not found"}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	t.Cleanup(srv.Close)
	c := New(WithBaseURL(srv.URL))

	_, err := c.FetchFlow(context.Background(), "s1", "gone")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	_, err = c.FetchFlow(context.Background(), "s1", "e1")
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "boom", apiErr.Message)
}

func TestFetchFlows(t *testing.T) {
	entries := map[string]Entry{
		"e1": testEntry("e1"),
		"e3": testEntry("e3"),
	}
	srv := fakeAPI(t, nil, entries)

	var calls atomic.Int32
	base := srv.Client().Transport
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		return base.RoundTrip(r)
	})}

	c := New(WithBaseURL(srv.URL), WithHTTPClient(hc))
	flows, err := c.FetchFlows(context.Background(), "s1", []string{"e1", "e2", "e3"}, 2)
	require.NoError(t, err)
	require.Len(t, flows, 3)

	assert.Equal(t, "e1", flows[0].ID)
	assert.Nil(t, flows[1], "missing entry is skipped")
	assert.Equal(t, "e3", flows[2].ID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchFlows_Cancelled(t *testing.T) {
	srv := fakeAPI(t, nil, map[string]Entry{"e1": testEntry("e1")})
	c := New(WithBaseURL(srv.URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.FetchFlows(ctx, "s1", []string{"e1"}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
