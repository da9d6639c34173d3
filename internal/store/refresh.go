package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// refreshStrategy indicates how to handle a session refresh.
type refreshStrategy int

const (
	strategyAppendOnly refreshStrategy = iota
	strategyRebuild
)

func (r refreshStrategy) String() string {
	if r == strategyRebuild {
		return "rebuild"
	}
	return "append_only"
}

// ErrNoSource is returned by refresh operations on a Store without a
// capture source.
var ErrNoSource = errors.New("store has no capture source")

// RefreshSession fetches a session's new entries, enriches and indexes them.
// Concurrent refreshes of the same session share one fetch, and the whole
// refresh is bounded by the configured refresh timeout.
func (s *Store) RefreshSession(ctx context.Context, sessionID string) error {
	if s.source == nil {
		return ErrNoSource
	}

	refreshCtx := ctx
	if s.config.RefreshTimeout > 0 {
		var cancel context.CancelFunc
		refreshCtx, cancel = context.WithTimeout(ctx, s.config.RefreshTimeout)
		defer cancel()
	}

	_, err, _ := s.refreshGroup.Do(sessionID, func() (any, error) {
		return nil, s.doRefresh(refreshCtx, sessionID)
	})
	return err
}

// RefreshIfStale refreshes when the session was never synced or its last
// sync is older than the freshness threshold.
func (s *Store) RefreshIfStale(ctx context.Context, sessionID string) error {
	state := s.sessionStateCopy(sessionID)
	if state == nil || state.lastSyncAt.IsZero() {
		return s.RefreshSession(ctx, sessionID)
	}
	if time.Since(state.lastSyncAt) > s.config.FreshnessThreshold {
		return s.RefreshSession(ctx, sessionID)
	}
	return nil
}

// StartBackgroundRefresh periodically refreshes every session until ctx is
// cancelled. A non-positive refresh interval disables it.
func (s *Store) StartBackgroundRefresh(ctx context.Context) {
	if s.source == nil || s.config.RefreshInterval <= 0 {
		slog.Info("background refresh disabled")
		return
	}

	slog.Info("starting background refresh for all sessions",
		slog.Duration("interval", s.config.RefreshInterval),
	)

	go func() {
		ticker := time.NewTicker(s.config.RefreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("stopping background refresh")
				return
			case <-ticker.C:
				s.refreshAllSessions(ctx)
			}
		}
	}()
}

func (s *Store) refreshAllSessions(ctx context.Context) {
	sessions, err := s.source.ListSessions(ctx)
	if err != nil {
		slog.Warn("failed to list sessions for background refresh",
			slog.String("error", err.Error()),
		)
		return
	}

	for _, session := range sessions {
		if err := s.RefreshSession(ctx, session.ID); err != nil {
			slog.Warn("background refresh failed",
				slog.String("session_id", session.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (s *Store) doRefresh(ctx context.Context, requestedID string) (err error) {
	start := time.Now()
	defer func() {
		if s.metrics == nil {
			return
		}
		s.metrics.RefreshSeconds.Observe(time.Since(start).Seconds())
		if err != nil {
			s.metrics.RefreshErrors.Inc()
		}
	}()

	session, err := s.source.GetSession(ctx, requestedID)
	if err != nil {
		return fmt.Errorf("fetching session: %w", err)
	}
	sessionID := session.ID
	if sessionID == "" {
		sessionID = requestedID
	}
	if sessionID != requestedID {
		s.setAlias(requestedID, sessionID)
	}

	current := session.EntryIDs
	state := s.sessionStateCopy(sessionID)
	strategy := detectRefreshStrategy(current, state)

	var toFetch []string
	switch strategy {
	case strategyAppendOnly:
		if state != nil && state.lastEntryIDsLen < len(current) {
			toFetch = current[state.lastEntryIDsLen:]
		}
	case strategyRebuild:
		toFetch = tail(current, s.config.BootstrapTailLimit)
	}

	if len(toFetch) == 0 {
		if strategy == strategyRebuild {
			s.replaceSession(sessionID, nil)
		}
		s.updateSessionState(sessionID, current)
		slog.Debug("refresh completed with no new entries",
			slog.String("session_id", sessionID),
			slog.String("strategy", strategy.String()),
			slog.Int("total_entries", len(current)),
		)
		return nil
	}

	flows, err := s.source.FetchFlows(ctx, sessionID, toFetch, s.config.FetchWorkers)
	if err != nil {
		return fmt.Errorf("fetching entries: %w", err)
	}

	added, err := s.Ingest(ctx, sessionID, flows)
	if err != nil {
		return fmt.Errorf("ingesting entries: %w", err)
	}
	if strategy == strategyRebuild {
		s.replaceSession(sessionID, flows)
	}

	s.updateSessionState(sessionID, current)

	slog.Info("refresh completed",
		slog.String("session_id", sessionID),
		slog.String("strategy", strategy.String()),
		slog.Int("fetched", len(toFetch)),
		slog.Int("added", added),
		slog.Int("total_entries", len(current)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}

// detectRefreshStrategy picks append-only when the entry list only grew and
// the previous tail is still in place; anything else rebuilds.
func detectRefreshStrategy(current []string, state *sessionState) refreshStrategy {
	if state == nil || state.lastSyncAt.IsZero() {
		return strategyRebuild
	}
	if len(current) < state.lastEntryIDsLen {
		return strategyRebuild
	}
	if state.lastEntryIDsLen > 0 && current[state.lastEntryIDsLen-1] != state.lastTailEntryID {
		return strategyRebuild
	}
	return strategyAppendOnly
}

// tail returns the last limit IDs; a non-positive limit keeps all.
func tail(ids []string, limit int) []string {
	if limit <= 0 || len(ids) <= limit {
		return ids
	}
	return ids[len(ids)-limit:]
}

func (s *Store) setAlias(alias, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aliases[alias] = sessionID
}

func (s *Store) updateSessionState(sessionID string, entryIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		state = &sessionState{}
		s.sessions[sessionID] = state
	}
	state.lastEntryIDsLen = len(entryIDs)
	state.lastTailEntryID = ""
	if len(entryIDs) > 0 {
		state.lastTailEntryID = entryIDs[len(entryIDs)-1]
	}
	state.lastSyncAt = time.Now()
}

// sessionStateCopy resolves aliases and returns a copy, or nil.
func (s *Store) sessionStateCopy(sessionID string) *sessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.sessions[s.resolveLocked(sessionID)]
	if !ok {
		return nil
	}
	cp := *state
	return &cp
}

// LastSyncTime returns the last sync time for a session.
func (s *Store) LastSyncTime(sessionID string) time.Time {
	if state := s.sessionStateCopy(sessionID); state != nil {
		return state.lastSyncAt
	}
	return time.Time{}
}
