package lrucache

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

// LRUCache is a least-recently-used cache for any type
// that's able to be indexed by DomainHash. A cache with
// capacity zero stores nothing.
type LRUCache struct {
	cache *lru.Cache
}

// New creates a new LRUCache
func New(capacity int) *LRUCache {
	if capacity <= 0 {
		return &LRUCache{}
	}
	cache, err := lru.New(capacity)
	if err != nil {
		panic(err)
	}
	return &LRUCache{cache: cache}
}

// Add adds an entry to the LRUCache
func (c *LRUCache) Add(key *externalapi.DomainHash, value interface{}) {
	if c.cache == nil {
		return
	}
	c.cache.Add(*key, value)
}

// Get returns the entry for the given key, or (nil, false) otherwise
func (c *LRUCache) Get(key *externalapi.DomainHash) (interface{}, bool) {
	if c.cache == nil {
		return nil, false
	}
	return c.cache.Get(*key)
}

// Has returns whether the LRUCache contains the given key
func (c *LRUCache) Has(key *externalapi.DomainHash) bool {
	if c.cache == nil {
		return false
	}
	return c.cache.Contains(*key)
}

// Remove removes the entry for the the given key. Does nothing if
// the entry does not exist
func (c *LRUCache) Remove(key *externalapi.DomainHash) {
	if c.cache == nil {
		return
	}
	c.cache.Remove(*key)
}

// Clear removes all entries
func (c *LRUCache) Clear() {
	if c.cache == nil {
		return
	}
	c.cache.Purge()
}
