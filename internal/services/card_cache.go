package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codyseavey/pokefolio/backend/internal/metrics"
	"github.com/codyseavey/pokefolio/backend/internal/models"
)

// DefaultCardCacheEntries bounds the in-memory card-detail tier.
const DefaultCardCacheEntries = 500

// CardAPI is the subset of the remote card API the services depend on.
type CardAPI interface {
	SearchCards(ctx context.Context, params url.Values) (*models.CardSearchResult, error)
	GetCard(ctx context.Context, id string) (*models.Card, error)
	GetSets(ctx context.Context) ([]models.CardSet, error)
	GetTypes(ctx context.Context) ([]string, error)
	GetRarities(ctx context.Context) ([]string, error)
	GetSupertypes(ctx context.Context) ([]string, error)
}

// CardCache is the card-detail cache: an in-memory LRU in front of the
// cards table. A nil db keeps it memory-only.
type CardCache struct {
	api CardAPI
	db  *gorm.DB

	mu  sync.Mutex
	mem *lru.Cache[string, models.Card]
}

func NewCardCache(api CardAPI, db *gorm.DB, size int) *CardCache {
	if size <= 0 {
		size = DefaultCardCacheEntries
	}
	mem, err := lru.New[string, models.Card](size)
	if err != nil {
		panic(err)
	}
	return &CardCache{api: api, db: db, mem: mem}
}

// GetCachedCard looks a card up in memory, then in the database.
func (c *CardCache) GetCachedCard(id string) (*models.Card, bool) {
	c.mu.Lock()
	card, ok := c.mem.Get(id)
	c.mu.Unlock()
	if ok {
		metrics.CardCacheLookups.WithLabelValues("memory").Inc()
		return &card, true
	}

	if c.db != nil {
		var stored models.Card
		if err := c.db.First(&stored, "id = ?", id).Error; err == nil {
			metrics.CardCacheLookups.WithLabelValues("database").Inc()
			c.remember(stored)
			return &stored, true
		}
	}

	metrics.CardCacheLookups.WithLabelValues("miss").Inc()
	return nil, false
}

// PutCachedCard stores a card in both tiers, replacing older data.
func (c *CardCache) PutCachedCard(card *models.Card) error {
	if card == nil || card.ID == "" {
		return errors.New("card without id")
	}
	c.remember(*card)

	if c.db == nil {
		return nil
	}
	err := c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(card).Error
	if err != nil {
		return fmt.Errorf("failed to persist card %s: %w", card.ID, err)
	}
	return nil
}

// RememberCards fills the memory tier with search results so a follow-up
// detail lookup does not hit the API.
func (c *CardCache) RememberCards(cards []models.Card) {
	for _, card := range cards {
		c.remember(card)
	}
}

// CardDetails returns a cached card or fetches and caches it.
// It returns ErrCardNotFound when the API does not know the id.
func (c *CardCache) CardDetails(ctx context.Context, id string) (*models.Card, error) {
	if card, ok := c.GetCachedCard(id); ok {
		return card, nil
	}
	return c.RefreshCard(ctx, id)
}

// RefreshCard always fetches the card from the API and overwrites the cache.
func (c *CardCache) RefreshCard(ctx context.Context, id string) (*models.Card, error) {
	card, err := c.api.GetCard(ctx, id)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, fmt.Errorf("%w: %s", ErrCardNotFound, id)
	}

	if err := c.PutCachedCard(card); err != nil {
		// The card is still usable even if it could not be persisted
		log.Printf("Card cache: %v", err)
	}
	return card, nil
}

func (c *CardCache) remember(card models.Card) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem.Add(card.ID, card)
}
