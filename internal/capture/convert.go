package capture

import (
	"context"
	"encoding/base64"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/usestring/flowlens/pkg/flow"
)

// Tags attached to converted flows.
const (
	TagWebSocket   = "websocket"
	TagPushPromise = "push_promise"
	TagHTTP2       = "http2"
)

// ToFlow converts an entry into a flow. Bodies are base64-decoded into byte
// bodies; a missing body stays absent. A body that is not valid base64 is
// kept as text so the flow is still enriched and indexed.
func ToFlow(e *Entry) *flow.Flow {
	method := ""
	if e.Request.Method != nil {
		method = *e.Request.Method
	}

	f := flow.New(e.ID, method, e.URL)
	if e.Timings.StartedAt > 0 {
		f.StartedAt = time.UnixMilli(e.Timings.StartedAt).UTC()
	}

	f.Request = &flow.Message{Headers: e.Request.Headers, Body: decodeBody(e.ID, flow.DirRequest, e.Request.Body)}

	if e.Response != nil {
		f.Response = &flow.Message{Headers: e.Response.Headers, Body: decodeBody(e.ID, flow.DirResponse, e.Response.Body)}
		if e.Response.StatusCode != nil {
			f.StatusCode = *e.Response.StatusCode
		}
		f.ContentType = e.Response.Headers.Get("Content-Type")
	}
	if f.ContentType == "" {
		f.ContentType = e.Request.Headers.Get("Content-Type")
	}

	if e.IsWebSocket {
		f.AddTag(TagWebSocket)
	}
	if e.TransactionType == TransactionPushPromise {
		f.AddTag(TagPushPromise)
	}
	if e.HTTP2 != nil {
		f.AddTag(TagHTTP2)
	}
	return f
}

func decodeBody(entryID string, dir flow.Direction, encoded *string) flow.Body {
	if encoded == nil {
		return flow.NoBody()
	}
	data, err := base64.StdEncoding.DecodeString(*encoded)
	if err != nil {
		slog.Debug("entry body is not base64, keeping it as text",
			slog.String("entry_id", entryID),
			slog.String("direction", string(dir)),
			slog.String("error", err.Error()),
		)
		return flow.TextBody(*encoded)
	}
	return flow.BytesBody(data)
}

// FetchFlow fetches and converts a single entry. Unlike FetchFlows it
// reports why an entry could not be fetched.
func (c *Client) FetchFlow(ctx context.Context, sessionID, entryID string) (*flow.Flow, error) {
	entry, err := c.GetEntry(ctx, sessionID, entryID)
	if err != nil {
		return nil, err
	}
	return ToFlow(entry), nil
}

// FetchFlows fetches and converts entries with at most workers requests in
// flight. The result is index-aligned with entryIDs; entries that could not
// be fetched are nil and logged at debug level, since an entry can disappear
// between listing and fetching. Only context cancellation fails the batch.
func (c *Client) FetchFlows(ctx context.Context, sessionID string, entryIDs []string, workers int) ([]*flow.Flow, error) {
	flows := make([]*flow.Flow, len(entryIDs))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, entryID := range entryIDs {
		g.Go(func() error {
			f, err := c.FetchFlow(ctx, sessionID, entryID)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				slog.Debug("failed to fetch entry",
					slog.String("session_id", sessionID),
					slog.String("entry_id", entryID),
					slog.String("error", err.Error()),
				)
				return nil
			}
			flows[i] = f
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return flows, nil
}
