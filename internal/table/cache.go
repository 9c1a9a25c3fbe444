package table

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheCapacity is the number of tables the loader keeps in memory.
const DefaultCacheCapacity = 20

// Cache is an LRU cache of loaded tables. Hits return deep copies, so a
// caller mutating its table never corrupts the cached one. The cache is
// in-memory only and discarded on process exit.
//
// The cache is safe for concurrent use: the underlying LRU carries its own
// lock and the stat counters are atomic, so handlers serving parallel
// requests share one cache.
type Cache struct {
	lru    *lru.Cache[string, *Table]
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache creates a table cache with the given capacity.
func NewCache(capacity int, logger *slog.Logger) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	inner, err := lru.New[string, *Table](capacity)
	if err != nil {
		// lru.New only fails on non-positive capacity, guarded above.
		panic(err)
	}
	return &Cache{
		lru:    inner,
		logger: logger.With(slog.String("component", "table_cache")),
	}
}

// Get returns a deep copy of the cached table for key, bumping its recency.
func (c *Cache) Get(key string) (*Table, bool) {
	t, ok := c.lru.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return t.Clone(), true
}

// Add stores a deep copy of the table under key, evicting the least
// recently used entry when the cache is full.
func (c *Cache) Add(key string, t *Table) {
	if evicted := c.lru.Add(key, t.Clone()); evicted {
		c.logger.Debug("evicted least recently used table", slog.Int("entries", c.lru.Len()))
	}
}

// Len returns the number of cached tables.
func (c *Cache) Len() int { return c.lru.Len() }

// Purge drops every cached table.
func (c *Cache) Purge() { c.lru.Purge() }

// Stats returns hit and miss counts since creation.
func (c *Cache) Stats() (hits, misses int64) { return c.hits.Load(), c.misses.Load() }

// FileKey derives the cache key for a single file from its path and
// modification time, so an edited file never serves stale rows.
func FileKey(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	return hashKey(fmt.Sprintf("%s|%d", path, info.ModTime().UnixNano())), nil
}

// CombinedKey derives the cache key for the merged table of a metric group
// within a directory.
func CombinedKey(dir, metric string) string {
	return hashKey(fmt.Sprintf("combined|%s|%s", dir, metric))
}

func hashKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
