package store

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// Facet names an indexed dimension.
type Facet string

const (
	FacetCategory     Facet = "category"
	FacetApp          Facet = "app"
	FacetHost         Facet = "host"
	FacetMethod       Facet = "method"
	FacetResourceType Facet = "resource_type"
)

// Facets lists every facet in display order.
var Facets = []Facet{FacetCategory, FacetApp, FacetResourceType, FacetHost, FacetMethod}

// ParseFacet validates a facet name. Empty selects FacetCategory.
func ParseFacet(s string) (Facet, error) {
	if s == "" {
		return FacetCategory, nil
	}
	f := Facet(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Facets, f) {
		return "", fmt.Errorf("unknown facet %q", s)
	}
	return f, nil
}

// Filter narrows a session to flows matching every non-empty field. Host
// accepts a "*.example.com" pattern matching the domain and its subdomains.
type Filter struct {
	Category     string
	App          string
	Host         string
	Method       string
	ResourceType string
}

// Group is one facet value and the flows carrying it.
type Group struct {
	Key      string   `json:"key"`
	Count    int      `json:"count"`
	EntryIDs []string `json:"entry_ids"`
}

// GroupOptions bounds the output of GroupBy.
type GroupOptions struct {
	// Limit caps the number of groups; zero means unlimited.
	Limit int
	// Examples caps EntryIDs per group; zero means none.
	Examples int
}

// GroupBy groups a session's flows that pass filter by facet. Groups are
// ordered by descending count, then key. Example entry IDs are in ingestion
// order.
func (s *Store) GroupBy(sessionID string, by Facet, filter Filter, opts GroupOptions) ([]Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index, err := s.facetIndexLocked(by)
	if err != nil {
		return nil, err
	}
	base := s.selectLocked(sessionID, filter)
	if base.IsEmpty() {
		return []Group{}, nil
	}

	groups := make([]Group, 0, len(index))
	for key, bm := range index {
		n := int(base.AndCardinality(bm))
		if n == 0 {
			continue
		}
		groups = append(groups, Group{Key: key, Count: n})
	}

	slices.SortFunc(groups, func(a, b Group) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Key, b.Key)
	})
	if opts.Limit > 0 && len(groups) > opts.Limit {
		groups = groups[:opts.Limit]
	}

	for i := range groups {
		groups[i].EntryIDs = []string{}
		if opts.Examples <= 0 {
			continue
		}
		it := roaring.And(base, index[groups[i].Key]).Iterator()
		for it.HasNext() && len(groups[i].EntryIDs) < opts.Examples {
			groups[i].EntryIDs = append(groups[i].EntryIDs, s.docToFlow[it.Next()].Flow.ID)
		}
	}
	return groups, nil
}

// Select returns the records of a session that pass filter, in ingestion
// order.
func (s *Store) Select(sessionID string, filter Filter) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bm := s.selectLocked(sessionID, filter)
	out := make([]Record, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, s.docToFlow[it.Next()])
	}
	return out
}

// selectLocked returns a fresh bitmap that callers may modify.
func (s *Store) selectLocked(sessionID string, filter Filter) *roaring.Bitmap {
	sess, ok := s.idxSession[s.resolveLocked(sessionID)]
	if !ok {
		return roaring.New()
	}
	result := sess.Clone()

	narrow := func(bm *roaring.Bitmap) {
		if bm == nil {
			result.Clear()
			return
		}
		result.And(bm)
	}
	if filter.Category != "" {
		narrow(s.idxCategory[filter.Category])
	}
	if filter.App != "" {
		narrow(s.idxApp[filter.App])
	}
	if filter.Host != "" {
		narrow(s.hostBitmapLocked(hostKey(filter.Host)))
	}
	if filter.Method != "" {
		narrow(s.idxMethod[strings.ToUpper(filter.Method)])
	}
	if filter.ResourceType != "" {
		narrow(s.idxType[filter.ResourceType])
	}
	return result
}

// hostBitmapLocked supports a "*.example.com" prefix matching example.com
// and all of its subdomains. Without the prefix, matches exactly.
func (s *Store) hostBitmapLocked(host string) *roaring.Bitmap {
	if !strings.HasPrefix(host, "*.") {
		return s.idxHost[host]
	}

	baseDomain := host[2:]
	if baseDomain == "" {
		return nil
	}

	suffix := "." + baseDomain
	result := roaring.New()
	for key, bm := range s.idxHost {
		if key == baseDomain || strings.HasSuffix(key, suffix) {
			result.Or(bm)
		}
	}
	return result
}

func (s *Store) facetIndexLocked(f Facet) (map[string]*roaring.Bitmap, error) {
	switch f {
	case FacetCategory:
		return s.idxCategory, nil
	case FacetApp:
		return s.idxApp, nil
	case FacetHost:
		return s.idxHost, nil
	case FacetMethod:
		return s.idxMethod, nil
	case FacetResourceType:
		return s.idxType, nil
	}
	return nil, fmt.Errorf("unknown facet %q", f)
}
