package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/codyseavey/pokefolio/backend/internal/models"
)

// fakeClock is a manually advanced clock for cache tests.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestSearchCacheFreshness(t *testing.T) {
	clock := newFakeClock()
	cache := NewSearchCache(20, 5*time.Minute, clock.Now)

	cache.Put("k", []models.Card{{ID: "sv1-1"}})

	tests := []struct {
		name      string
		advance   time.Duration
		wantFresh bool
	}{
		{"immediately", 0, true},
		{"just under ttl", 5*time.Minute - time.Second, true},
		{"exactly ttl", time.Second, true},
		{"past ttl", time.Millisecond, false},
	}

	for _, tt := range tests {
		clock.Advance(tt.advance)
		hit, ok := cache.Get("k")
		if !ok {
			t.Fatalf("%s: expected a hit", tt.name)
		}
		if hit.IsFresh != tt.wantFresh {
			t.Errorf("%s: IsFresh = %v, want %v", tt.name, hit.IsFresh, tt.wantFresh)
		}
	}
}

func TestSearchCacheMiss(t *testing.T) {
	cache := NewSearchCache(20, time.Minute, nil)
	if _, ok := cache.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestSearchCacheReturnsCopy(t *testing.T) {
	cache := NewSearchCache(20, time.Minute, nil)
	cards := []models.Card{{ID: "a", Name: "Pikachu"}}
	cache.Put("k", cards)

	// Mutating the caller's slice must not leak into the cache
	cards[0].Name = "changed"

	hit, _ := cache.Get("k")
	if hit.Cards[0].Name != "Pikachu" {
		t.Errorf("cache stored a reference, got name %q", hit.Cards[0].Name)
	}

	// Nor may mutating a returned hit
	hit.Cards[0].Name = "also changed"
	again, _ := cache.Get("k")
	if again.Cards[0].Name != "Pikachu" {
		t.Errorf("Get returned a reference, got name %q", again.Cards[0].Name)
	}
}

func TestSearchCacheEmptyResultIsCached(t *testing.T) {
	cache := NewSearchCache(20, time.Minute, nil)
	cache.Put("empty", nil)

	hit, ok := cache.Get("empty")
	if !ok {
		t.Fatal("empty results should be cached")
	}
	if len(hit.Cards) != 0 {
		t.Errorf("expected no cards, got %d", len(hit.Cards))
	}
}

func TestSearchCacheEvictsOldest(t *testing.T) {
	clock := newFakeClock()
	cache := NewSearchCache(20, 5*time.Minute, clock.Now)

	for i := 0; i < 20; i++ {
		cache.Put(fmt.Sprintf("k%d", i), []models.Card{{ID: fmt.Sprintf("c%d", i)}})
		clock.Advance(time.Second)
	}

	// Reading the oldest entry must not protect it from eviction
	if _, ok := cache.Get("k0"); !ok {
		t.Fatal("k0 should still be cached")
	}

	cache.Put("k20", nil)

	if cache.Len() != 20 {
		t.Errorf("Len() = %d, want 20", cache.Len())
	}
	if _, ok := cache.Get("k0"); ok {
		t.Error("oldest entry k0 should have been evicted")
	}
	for i := 1; i <= 20; i++ {
		if _, ok := cache.Get(fmt.Sprintf("k%d", i)); !ok {
			t.Errorf("k%d should still be cached", i)
		}
	}
}

func TestSearchCacheOverwriteRestamps(t *testing.T) {
	clock := newFakeClock()
	cache := NewSearchCache(2, 5*time.Minute, clock.Now)

	cache.Put("a", nil)
	clock.Advance(time.Second)
	cache.Put("b", nil)
	clock.Advance(time.Second)
	// Refreshing a makes b the oldest
	cache.Put("a", []models.Card{{ID: "x"}})
	clock.Advance(time.Second)
	cache.Put("c", nil)

	if _, ok := cache.Get("b"); ok {
		t.Error("b should have been evicted as the oldest entry")
	}
	hit, ok := cache.Get("a")
	if !ok || len(hit.Cards) != 1 {
		t.Errorf("a should hold the overwritten value, got ok=%v cards=%d", ok, len(hit.Cards))
	}
}
