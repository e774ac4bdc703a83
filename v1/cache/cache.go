package cache

import (
	"sync/atomic"
	"time"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultQueryEntries = 1000
	DefaultQueryTTL     = 5 * time.Minute
	DefaultCountEntries = 500
	DefaultCountTTL     = time.Minute
)

// Config bounds one cache.
type Config struct {
	// MaxEntries is the capacity; the least recently used entry is evicted beyond it.
	MaxEntries int `yaml:"max_entries"`
	// TTL is measured from the write. Reads do not extend it.
	TTL time.Duration `yaml:"ttl"`
}

// Stats is a point-in-time snapshot of one cache.
type Stats struct {
	Hits    uint64
	Misses  uint64
	HitRate float64
	Size    int
}

// Cache is a size and time bounded LRU keyed by caller-chosen strings.
type Cache[V any] struct {
	lru    *expirable.LRU[string, V]
	hits   atomic.Uint64
	misses atomic.Uint64
}

// New returns an empty cache. Non-positive values in cfg take def's values.
func New[V any](cfg, def Config) *Cache[V] {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = def.MaxEntries
	}
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	return &Cache[V]{lru: expirable.NewLRU[string, V](cfg.MaxEntries, nil, cfg.TTL)}
}

// Get returns the value stored under key if it has not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	v, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Put stores value under key, replacing any previous value and restarting its TTL.
func (c *Cache[V]) Put(key string, value V) {
	c.lru.Add(key, value)
}

func (c *Cache[V]) Invalidate(key string) {
	c.lru.Remove(key)
}

func (c *Cache[V]) InvalidateAll() {
	c.lru.Purge()
}

func (c *Cache[V]) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()

	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{
		Hits:    hits,
		Misses:  misses,
		HitRate: rate,
		Size:    c.lru.Len(),
	}
}

// Caches bundles the two caches that sit in front of drivers.
type Caches struct {
	Queries *Cache[*database.Result]
	Counts  *Cache[int64]
}

// NewCaches builds the query-result and count caches.
func NewCaches(queries, counts Config) *Caches {
	return &Caches{
		Queries: New[*database.Result](queries, Config{MaxEntries: DefaultQueryEntries, TTL: DefaultQueryTTL}),
		Counts:  New[int64](counts, Config{MaxEntries: DefaultCountEntries, TTL: DefaultCountTTL}),
	}
}

// InvalidateAll empties both caches, e.g. after a write that touches many tables.
func (c *Caches) InvalidateAll() {
	c.Queries.InvalidateAll()
	c.Counts.InvalidateAll()
}

// Stats returns a snapshot per cache, keyed "queries" and "counts".
func (c *Caches) Stats() map[string]Stats {
	return map[string]Stats{
		"queries": c.Queries.Stats(),
		"counts":  c.Counts.Stats(),
	}
}
