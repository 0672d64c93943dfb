package texture

import (
	"fmt"

	"nitro-vn/internal/logging"
)

// DefaultBudgetMB is used when the config does not size the cache.
const DefaultBudgetMB = 256

type cacheEntry struct {
	texture  *Texture
	size     int
	pinCount int
}

// Stats is a snapshot of the cache counters.
type Stats struct {
	Entries     int
	UsedBytes   int
	BudgetBytes int
	Hits        uint64
	Misses      uint64
	Evictions   uint64
	// OverBudgetAdmits counts inserts that went through despite the budget
	// because every entry was pinned.
	OverBudgetAdmits uint64
}

// HitRate returns hits / (hits + misses).
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

func (s Stats) String() string {
	return fmt.Sprintf("cache: %d entries, %.1fMB / %.1fMB, hit rate %.1f%%, evictions %d",
		s.Entries,
		float64(s.UsedBytes)/1024/1024,
		float64(s.BudgetBytes)/1024/1024,
		s.HitRate()*100,
		s.Evictions)
}

// Cache is a byte-budgeted LRU of decoded textures. Get refreshes recency;
// Peek does not, so the renderer can look textures up mid-frame without
// disturbing eviction order. Pins protect entries for the current frame and
// are cleared wholesale by UnpinAll at frame end.
type Cache struct {
	entries map[string]*cacheEntry
	// lru holds keys from least to most recently used.
	lru         []string
	budgetBytes int
	usedBytes   int

	hits             uint64
	misses           uint64
	evictions        uint64
	overBudgetAdmits uint64

	log *logging.Logger
}

// NewCache creates a cache with a budget in megabytes. The logger may be
// nil.
func NewCache(budgetMB int, log *logging.Logger) *Cache {
	if budgetMB <= 0 {
		budgetMB = DefaultBudgetMB
	}
	return &Cache{
		entries:     make(map[string]*cacheEntry),
		budgetBytes: budgetMB * 1024 * 1024,
		log:         log,
	}
}

// Get returns the texture for key, refreshing its recency. Hit and miss
// counters advance.
func (c *Cache) Get(key string) (*Texture, bool) {
	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.touch(key)
	return entry.texture, true
}

// Peek returns the texture without touching the LRU order or counters.
func (c *Cache) Peek(key string) (*Texture, bool) {
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return entry.texture, true
}

// Contains reports presence without counting.
func (c *Cache) Contains(key string) bool {
	_, ok := c.entries[key]
	return ok
}

// Insert stores a texture, evicting least-recently-used unpinned entries
// until the budget holds. When everything left is pinned the entry is
// admitted anyway with a warning; a frame must never block on the cache.
func (c *Cache) Insert(key string, tex *Texture) {
	size := tex.SizeBytes()

	if old, ok := c.entries[key]; ok {
		c.usedBytes -= old.size
		delete(c.entries, key)
		c.removeLRU(key)
	}

	for c.usedBytes+size > c.budgetBytes {
		if !c.evictOne() {
			c.overBudgetAdmits++
			if c.log != nil {
				c.log.Logf(logging.ComponentResource, logging.LevelWarning,
					"texture cache over budget (%.1fMB/%.1fMB) with all entries pinned; admitting %s",
					float64(c.usedBytes+size)/1024/1024, float64(c.budgetBytes)/1024/1024, key)
			}
			break
		}
	}

	c.entries[key] = &cacheEntry{texture: tex, size: size}
	c.usedBytes += size
	c.lru = append(c.lru, key)
}

// Pin raises the entry's pin count so it survives eviction this frame.
func (c *Cache) Pin(key string) {
	if entry, ok := c.entries[key]; ok {
		entry.pinCount++
	}
}

// Unpin lowers the pin count, stopping at zero.
func (c *Cache) Unpin(key string) {
	if entry, ok := c.entries[key]; ok && entry.pinCount > 0 {
		entry.pinCount--
	}
}

// UnpinAll zeroes every pin count; called at frame end.
func (c *Cache) UnpinAll() {
	for _, entry := range c.entries {
		entry.pinCount = 0
	}
}

// Remove drops one entry.
func (c *Cache) Remove(key string) {
	if entry, ok := c.entries[key]; ok {
		c.usedBytes -= entry.size
		delete(c.entries, key)
		c.removeLRU(key)
	}
}

// Clear drops everything. Counters survive so hit rates stay meaningful
// across scene loads.
func (c *Cache) Clear() {
	c.entries = make(map[string]*cacheEntry)
	c.lru = nil
	c.usedBytes = 0
}

// UsedBytes returns current usage.
func (c *Cache) UsedBytes() int { return c.usedBytes }

// BudgetBytes returns the configured budget.
func (c *Cache) BudgetBytes() int { return c.budgetBytes }

// Len returns the entry count.
func (c *Cache) Len() int { return len(c.entries) }

// Stats snapshots the counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Entries:          len(c.entries),
		UsedBytes:        c.usedBytes,
		BudgetBytes:      c.budgetBytes,
		Hits:             c.hits,
		Misses:           c.misses,
		Evictions:        c.evictions,
		OverBudgetAdmits: c.overBudgetAdmits,
	}
}

func (c *Cache) touch(key string) {
	c.removeLRU(key)
	c.lru = append(c.lru, key)
}

func (c *Cache) removeLRU(key string) {
	for i, k := range c.lru {
		if k == key {
			c.lru = append(c.lru[:i], c.lru[i+1:]...)
			return
		}
	}
}

// evictOne drops the least recently used unpinned entry.
func (c *Cache) evictOne() bool {
	for _, key := range c.lru {
		entry := c.entries[key]
		if entry == nil || entry.pinCount > 0 {
			continue
		}
		c.usedBytes -= entry.size
		delete(c.entries, key)
		c.removeLRU(key)
		c.evictions++
		return true
	}
	return false
}
