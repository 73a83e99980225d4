package cache

import (
	"container/list"
	"sync"

	"thumbgrid/internal/metrics"
)

// DefaultMemoryEntries is the memory tier capacity when none is configured.
const DefaultMemoryEntries = 32

type memoryEntry struct {
	key   Key
	thumb *Thumbnail
}

// MemoryCache is a fixed-capacity LRU of decoded thumbnails. All methods are
// safe for concurrent use.
type MemoryCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = most recently used
	items    map[Key]*list.Element
}

// NewMemoryCache creates an LRU holding at most capacity thumbnails.
// Non-positive capacities fall back to DefaultMemoryEntries.
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = DefaultMemoryEntries
	}
	return &MemoryCache{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[Key]*list.Element, capacity),
	}
}

// Get returns the thumbnail for key and marks it most recently used.
func (c *MemoryCache) Get(key Key) (*Thumbnail, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		metrics.CacheLookupsTotal.WithLabelValues("memory", "miss").Inc()
		return nil, false
	}
	c.order.MoveToFront(elem)
	metrics.CacheLookupsTotal.WithLabelValues("memory", "hit").Inc()
	return elem.Value.(*memoryEntry).thumb, true
}

// PutIfAbsent stores thumb under key unless the key is already present, in
// which case the existing entry keeps its value and becomes the most
// recently used. It reports whether thumb was inserted. Inserting past capacity evicts the least recently used entry.
func (c *MemoryCache) PutIfAbsent(key Key, thumb *Thumbnail) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		return false
	}

	c.items[key] = c.order.PushFront(&memoryEntry{key: key, thumb: thumb})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*memoryEntry).key)
		metrics.MemoryCacheEvictions.Inc()
	}
	return true
}

// Len returns the number of cached thumbnails.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Capacity returns the maximum number of entries.
func (c *MemoryCache) Capacity() int {
	return c.capacity
}

// Clear drops every entry.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[Key]*list.Element, c.capacity)
}
