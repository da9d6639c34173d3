// Package cache provides caching utilities for lazily computed enrichment.
package cache

import (
	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/usestring/flowlens/pkg/decode"
	"github.com/usestring/flowlens/pkg/flow"
)

// Key identifies a decode report. Digest covers the content type and body
// so that a flow whose body changed under the same ID misses the cache.
type Key struct {
	FlowID string
	Dir    flow.Direction
	Digest uint64
}

// NewKey builds a Key, hashing the content type and canonical body.
func NewKey(flowID string, dir flow.Direction, contentType, body string) Key {
	d := xxhash.New()
	_, _ = d.WriteString(contentType)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(body)
	return Key{FlowID: flowID, Dir: dir, Digest: d.Sum64()}
}

// DecodeCache provides thread-safe LRU caching for decode reports.
type DecodeCache struct {
	cache *lru.Cache[Key, decode.Report]
}

// NewDecodeCache creates a new LRU cache with the specified maximum number of items.
func NewDecodeCache(maxItems int) (*DecodeCache, error) {
	c, err := lru.New[Key, decode.Report](maxItems)
	if err != nil {
		return nil, err
	}
	return &DecodeCache{cache: c}, nil
}

// Get retrieves a report by key.
func (c *DecodeCache) Get(key Key) (decode.Report, bool) {
	return c.cache.Get(key)
}

// Put adds or updates a report.
func (c *DecodeCache) Put(key Key, report decode.Report) {
	c.cache.Add(key, report)
}

// Len returns the current number of items in the cache.
func (c *DecodeCache) Len() int {
	return c.cache.Len()
}

// Purge drops every cached report.
func (c *DecodeCache) Purge() {
	c.cache.Purge()
}
