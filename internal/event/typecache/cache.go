// Package typecache memoizes assignability decisions for a single handler.
//
// A Cache maps the concrete type of a posted event to whether that type is
// assignable to the handler's declared type. Descriptors are immutable, so a
// stored decision is never invalidated.
package typecache

import (
	"sync"

	"github.com/dshills/typebus/internal/event/typeinfo"
)

type entry struct {
	key   *typeinfo.Descriptor
	value bool
}

// Cache is a descriptor-keyed boolean map, bucketed by Descriptor.Hash.
// It is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	buckets map[uint64][]entry
	size    int
}

// New creates a cache sized for roughly capacity distinct event types.
func New(capacity int) *Cache {
	if capacity < 0 {
		capacity = 0
	}
	return &Cache{buckets: make(map[uint64][]entry, capacity)}
}

// Get returns the cached decision for key.
func (c *Cache) Get(key *typeinfo.Descriptor) (value, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.getLocked(key)
}

func (c *Cache) getLocked(key *typeinfo.Descriptor) (value, ok bool) {
	for _, e := range c.buckets[key.Hash()] {
		if e.key == key || e.key.Equal(key) {
			return e.value, true
		}
	}
	return false, false
}

// Put stores a decision. A key that is already present keeps its first value.
func (c *Cache) Put(key *typeinfo.Descriptor, value bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.putLocked(key, value)
}

func (c *Cache) putLocked(key *typeinfo.Descriptor, value bool) bool {
	if v, ok := c.getLocked(key); ok {
		return v
	}
	h := key.Hash()
	c.buckets[h] = append(c.buckets[h], entry{key: key, value: value})
	c.size++
	return value
}

// Resolve returns the cached decision for key, computing and storing it on a
// miss. hit reports whether the value came from the cache. compute runs
// without the lock held and may run more than once under contention; the
// first stored result wins.
func (c *Cache) Resolve(key *typeinfo.Descriptor, compute func() bool) (value, hit bool) {
	if v, ok := c.Get(key); ok {
		return v, true
	}

	v := compute()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.putLocked(key, v), false
}

// Len returns the number of cached decisions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.size
}
