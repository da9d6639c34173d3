// Package store keeps enriched flows in memory and indexes them by
// application, category, host, method and resource type using Roaring
// bitmaps.
//
// Flows are enriched once at ingestion. Sessions are refreshed from a
// capture source either on demand or by a background ticker.
package store

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/singleflight"

	"github.com/usestring/flowlens/internal/capture"
	"github.com/usestring/flowlens/internal/config"
	"github.com/usestring/flowlens/internal/enrich"
	"github.com/usestring/flowlens/internal/metrics"
	"github.com/usestring/flowlens/pkg/flow"
	"github.com/usestring/flowlens/pkg/reqtype"
)

// Source is the capture backend a Store reads from. *capture.Client
// implements it.
type Source interface {
	ListSessions(ctx context.Context) ([]capture.Session, error)
	GetSession(ctx context.Context, sessionID string) (*capture.Session, error)
	FetchFlows(ctx context.Context, sessionID string, entryIDs []string, workers int) ([]*flow.Flow, error)
	// FetchFlow fetches one entry and reports why it could not.
	FetchFlow(ctx context.Context, sessionID, entryID string) (*flow.Flow, error)
}

// sessionState tracks refresh state for a single session.
type sessionState struct {
	lastEntryIDsLen int
	lastTailEntryID string
	lastSyncAt      time.Time
}

// Record is a stored flow together with facets computed at ingestion.
type Record struct {
	Flow         *flow.Flow
	ResourceType reqtype.Tag
}

// Store is safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	idToDoc   map[string]uint32
	docToFlow []Record

	idxCategory map[string]*roaring.Bitmap
	idxApp      map[string]*roaring.Bitmap
	idxHost     map[string]*roaring.Bitmap
	idxMethod   map[string]*roaring.Bitmap
	idxType     map[string]*roaring.Bitmap
	idxSession  map[string]*roaring.Bitmap

	sessions map[string]*sessionState
	// aliases maps a requested session ID such as "active" to the ID the
	// backend resolved it to.
	aliases map[string]string

	refreshGroup singleflight.Group

	source   Source
	enricher *enrich.Enricher
	metrics  *metrics.Collector
	config   *config.Config
}

// New creates a Store. source may be nil when flows are only ingested
// directly; metrics may be nil.
func New(source Source, enricher *enrich.Enricher, m *metrics.Collector, cfg *config.Config) *Store {
	if enricher == nil {
		enricher = enrich.New(nil, nil)
	}
	if cfg == nil {
		cfg = &config.Config{}
	}
	return &Store{
		idToDoc:     make(map[string]uint32),
		docToFlow:   make([]Record, 0, 1024),
		idxCategory: make(map[string]*roaring.Bitmap),
		idxApp:      make(map[string]*roaring.Bitmap),
		idxHost:     make(map[string]*roaring.Bitmap),
		idxMethod:   make(map[string]*roaring.Bitmap),
		idxType:     make(map[string]*roaring.Bitmap),
		idxSession:  make(map[string]*roaring.Bitmap),
		sessions:    make(map[string]*sessionState),
		aliases:     make(map[string]string),
		source:      source,
		enricher:    enricher,
		metrics:     m,
		config:      cfg,
	}
}

// Enricher returns the enricher used at ingestion.
func (s *Store) Enricher() *enrich.Enricher {
	return s.enricher
}

// Ingest enriches flows and adds them to a session. Flows already stored
// under the same ID are not enriched again but still join the session.
// Nil flows are skipped. It returns the number of flows newly stored.
func (s *Store) Ingest(ctx context.Context, sessionID string, flows []*flow.Flow) (int, error) {
	fresh := make([]*flow.Flow, 0, len(flows))
	s.mu.RLock()
	for _, f := range flows {
		if f == nil {
			continue
		}
		if _, exists := s.idToDoc[f.ID]; !exists {
			fresh = append(fresh, f)
		}
	}
	s.mu.RUnlock()

	enriched, err := s.enricher.EnrichAll(ctx, fresh)
	if err != nil {
		return 0, fmt.Errorf("enriching flows: %w", err)
	}
	types := make([]reqtype.Tag, len(enriched))
	for i, f := range enriched {
		types[i] = s.enricher.RequestType(f).Tag
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for i, f := range enriched {
		if _, exists := s.idToDoc[f.ID]; exists {
			continue
		}
		s.index(Record{Flow: f, ResourceType: types[i]})
		added++
	}

	bm := s.sessionBitmapLocked(sessionID)
	for _, f := range flows {
		if f == nil {
			continue
		}
		bm.Add(s.idToDoc[f.ID])
	}

	if s.metrics != nil {
		s.metrics.StoredFlows.Set(float64(len(s.docToFlow)))
	}
	return added, nil
}

// hostKey lowercases a host and drops a ":port" suffix, so flows built
// without flow.New group under the same host.
func hostKey(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

// index stores a record and updates every facet. Callers hold s.mu.
func (s *Store) index(rec Record) uint32 {
	docID := uint32(len(s.docToFlow))
	f := rec.Flow

	s.idToDoc[f.ID] = docID
	s.docToFlow = append(s.docToFlow, rec)

	addToBitmap(s.idxCategory, f.AppCategory, docID)
	addToBitmap(s.idxApp, f.AppName, docID)
	addToBitmap(s.idxHost, hostKey(f.Domain), docID)
	addToBitmap(s.idxMethod, strings.ToUpper(f.Method), docID)
	addToBitmap(s.idxType, string(rec.ResourceType), docID)
	return docID
}

// replaceSession resets a session's membership to exactly the given flows.
func (s *Store) replaceSession(sessionID string, flows []*flow.Flow) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bm := roaring.New()
	for _, f := range flows {
		if f == nil {
			continue
		}
		if docID, ok := s.idToDoc[f.ID]; ok {
			bm.Add(docID)
		}
	}
	s.idxSession[sessionID] = bm
}

func (s *Store) sessionBitmapLocked(sessionID string) *roaring.Bitmap {
	bm, ok := s.idxSession[sessionID]
	if !ok {
		bm = roaring.New()
		s.idxSession[sessionID] = bm
	}
	return bm
}

// Get returns a stored record by entry ID.
func (s *Store) Get(entryID string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docID, ok := s.idToDoc[entryID]
	if !ok {
		return Record{}, false
	}
	return s.docToFlow[docID], true
}

// Count returns the number of stored flows.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docToFlow)
}

// ResolveSession maps an alias such as "active" to the backend session ID
// it last resolved to. Unknown IDs are returned unchanged.
func (s *Store) ResolveSession(sessionID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolveLocked(sessionID)
}

func (s *Store) resolveLocked(sessionID string) string {
	if resolved, ok := s.aliases[sessionID]; ok {
		return resolved
	}
	return sessionID
}

// SessionSize returns how many flows belong to a session.
func (s *Store) SessionSize(sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if bm, ok := s.idxSession[s.resolveLocked(sessionID)]; ok {
		return int(bm.GetCardinality())
	}
	return 0
}

func addToBitmap(index map[string]*roaring.Bitmap, key string, docID uint32) {
	if key == "" {
		return
	}
	bm, exists := index[key]
	if !exists {
		bm = roaring.New()
		index[key] = bm
	}
	bm.Add(docID)
}
