package cache

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPut(t *testing.T) {
	c := New[int](Config{MaxEntries: 10, TTL: time.Minute}, Config{})

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Put("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	c.Put("a", 2)
	v, _ = c.Get("a")
	assert.Equal(t, 2, v)

	stats := c.Stats()
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 1e-9)
	assert.Equal(t, 1, stats.Size)
}

func TestLRUEviction(t *testing.T) {
	c := New[string](Config{MaxEntries: 2, TTL: time.Minute}, Config{})

	c.Put("a", "A")
	c.Put("b", "B")
	_, _ = c.Get("a") // a is now most recently used
	c.Put("c", "C")

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Stats().Size)
}

func TestTTL(t *testing.T) {
	ttl := 200 * time.Millisecond
	c := New[int](Config{MaxEntries: 10, TTL: ttl}, Config{})

	c.Put("k", 1)
	time.Sleep(ttl / 4)
	_, ok := c.Get("k")
	assert.True(t, ok)

	time.Sleep(ttl)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestInvalidate(t *testing.T) {
	c := New[int](Config{MaxEntries: 10, TTL: time.Minute}, Config{})
	c.Put("a", 1)
	c.Put("b", 2)

	c.Invalidate("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Stats().Size)

	c.InvalidateAll()
	assert.Equal(t, 0, c.Stats().Size)
}

func TestEmptyStats(t *testing.T) {
	c := New[int](Config{}, Config{MaxEntries: 1, TTL: time.Second})
	assert.Equal(t, Stats{}, c.Stats())
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int](Config{MaxEntries: 50, TTL: time.Minute}, Config{})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := strconv.Itoa(i % 60)
				if _, ok := c.Get(key); !ok {
					c.Put(key, g)
				}
			}
		}(g)
	}
	wg.Wait()

	stats := c.Stats()
	assert.Equal(t, uint64(8*200), stats.Hits+stats.Misses)
	assert.LessOrEqual(t, stats.Size, 50)
}

func TestCaches(t *testing.T) {
	caches := NewCaches(Config{}, Config{MaxEntries: 5})

	res := database.NewResult([]string{"n"}, []database.Row{{"n": int64(1)}})
	caches.Queries.Put("SELECT 1", res)
	caches.Counts.Put("users", 42)

	got, ok := caches.Queries.Get("SELECT 1")
	require.True(t, ok)
	assert.Same(t, res, got)

	n, ok := caches.Counts.Get("users")
	require.True(t, ok)
	assert.Equal(t, int64(42), n)

	stats := caches.Stats()
	assert.Equal(t, 1, stats["queries"].Size)
	assert.Equal(t, 1, stats["counts"].Size)

	caches.InvalidateAll()
	assert.Equal(t, 0, caches.Queries.Stats().Size)
	assert.Equal(t, 0, caches.Counts.Stats().Size)
}
