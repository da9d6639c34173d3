package tools

import (
	"context"
	"errors"
	"log/slog"

	"github.com/usestring/flowlens/internal/config"
	"github.com/usestring/flowlens/internal/enrich"
	"github.com/usestring/flowlens/internal/query"
	"github.com/usestring/flowlens/internal/store"
)

// Deps contains all dependencies needed by tool handlers.
type Deps struct {
	Source   store.Source
	Store    *store.Store
	Enricher *enrich.Enricher
	Query    *query.Engine
	Config   *config.Config
}

// refresh brings a session up to date before a read. A store without a
// capture source serves what it already holds.
func (d *Deps) refresh(ctx context.Context, sessionID string) error {
	err := d.Store.RefreshIfStale(ctx, sessionID)
	if err == nil || errors.Is(err, store.ErrNoSource) {
		return nil
	}
	return WrapCaptureError(err)
}

// FetchFlow returns an indexed record for entryID, falling back to a direct
// fetch from the capture source when the store has not seen it. Fetched
// flows are enriched but not indexed.
func (d *Deps) FetchFlow(ctx context.Context, sessionID, entryID string) (store.Record, bool, error) {
	if err := d.refresh(ctx, sessionID); err != nil {
		slog.Warn("serving entry without refresh",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}
	if rec, ok := d.Store.Get(entryID); ok {
		return rec, true, nil
	}
	if d.Source == nil {
		return store.Record{}, false, ErrNotFound("entry", entryID)
	}

	fetched, err := d.Source.FetchFlow(ctx, d.Store.ResolveSession(sessionID), entryID)
	if err != nil {
		return store.Record{}, false, WrapCaptureError(err)
	}
	if fetched == nil {
		return store.Record{}, false, ErrNotFound("entry", entryID)
	}

	f := d.Enricher.Enrich(fetched)
	return store.Record{Flow: f, ResourceType: d.Enricher.RequestType(f).Tag}, false, nil
}

func sessionOrActive(id string) string {
	if id == "" {
		return "active"
	}
	return id
}
