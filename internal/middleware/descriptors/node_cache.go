package descriptors

import (
	"github.com/deploymenttheory/go-pff/internal/interfaces"
)

// nodeCache is a bounded IndexNodeCache with first-in first-out
// eviction. Eviction order is deterministic so that repeated builds over
// the same file behave identically.
type nodeCache struct {
	entries    map[uint64]any
	order      []uint64
	maxEntries int
}

// NewIndexNodeCache creates a node cache holding at most maxEntries
// values.
func NewIndexNodeCache(maxEntries int) interfaces.IndexNodeCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &nodeCache{
		entries:    make(map[uint64]any),
		maxEntries: maxEntries,
	}
}

// Get retrieves a cached value by key.
func (c *nodeCache) Get(key uint64) (any, bool) {
	value, ok := c.entries[key]
	return value, ok
}

// Put stores a value under the given key, evicting the oldest entry
// when the cache is full.
func (c *nodeCache) Put(key uint64, value any) {
	if _, ok := c.entries[key]; !ok {
		if len(c.order) >= c.maxEntries {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = value
}

// Clear removes all cached entries.
func (c *nodeCache) Clear() {
	c.entries = make(map[uint64]any)
	c.order = nil
}
