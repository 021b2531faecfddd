package services

import (
	"slices"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/codyseavey/pokefolio/backend/internal/metrics"
	"github.com/codyseavey/pokefolio/backend/internal/models"
)

const (
	// DefaultSearchCacheTTL is how long a cached result counts as fresh.
	DefaultSearchCacheTTL = 5 * time.Minute
	// DefaultSearchCacheEntries bounds the number of cached result sets.
	DefaultSearchCacheEntries = 20
)

type searchCacheEntry struct {
	cards    []models.Card
	storedAt time.Time
}

// SearchCacheHit is a copy of a cached result set.
type SearchCacheHit struct {
	Cards    []models.Card
	StoredAt time.Time
	IsFresh  bool
}

// SearchCache keeps recent search results keyed by request. Reads never
// reorder entries and every write re-stamps its entry, so the LRU order is
// the timestamp order and capacity eviction always drops the oldest entry.
type SearchCache struct {
	mu    sync.Mutex
	items *lru.Cache[string, searchCacheEntry]
	ttl   time.Duration
	now   func() time.Time
}

// NewSearchCache creates a cache. Non-positive arguments fall back to the
// defaults; a nil clock uses time.Now.
func NewSearchCache(capacity int, ttl time.Duration, now func() time.Time) *SearchCache {
	if capacity <= 0 {
		capacity = DefaultSearchCacheEntries
	}
	if ttl <= 0 {
		ttl = DefaultSearchCacheTTL
	}
	if now == nil {
		now = time.Now
	}

	items, err := lru.NewWithEvict(capacity, func(string, searchCacheEntry) {
		metrics.SearchCacheEvictions.Inc()
	})
	if err != nil {
		// Only reachable with a non-positive size, which is guarded above
		panic(err)
	}

	return &SearchCache{items: items, ttl: ttl, now: now}
}

// Get returns a copy of the cached cards and whether they are still fresh.
// A stale hit is only reported; refreshing it is up to the caller.
func (c *SearchCache) Get(key string) (SearchCacheHit, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items.Peek(key)
	if !ok {
		metrics.SearchCacheLookups.WithLabelValues("miss").Inc()
		return SearchCacheHit{}, false
	}

	fresh := c.now().Sub(entry.storedAt) <= c.ttl
	if fresh {
		metrics.SearchCacheLookups.WithLabelValues("fresh").Inc()
	} else {
		metrics.SearchCacheLookups.WithLabelValues("stale").Inc()
	}

	return SearchCacheHit{
		Cards:    cloneCards(entry.cards),
		StoredAt: entry.storedAt,
		IsFresh:  fresh,
	}, true
}

// Put stores a copy of cards under key, stamped with the current time.
// Empty result sets are cached like any other.
func (c *SearchCache) Put(key string, cards []models.Card) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Add on an existing key updates in place and moves it to the front
	c.items.Add(key, searchCacheEntry{cards: cloneCards(cards), storedAt: c.now()})
}

// Len reports the number of cached result sets.
func (c *SearchCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.Len()
}

func cloneCards(cards []models.Card) []models.Card {
	if cards == nil {
		return []models.Card{}
	}
	return slices.Clone(cards)
}
