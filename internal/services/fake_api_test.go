package services

import (
	"context"
	"net/url"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/codyseavey/pokefolio/backend/internal/models"
)

// fakeCardAPI is an in-memory CardAPI. search decides the result of each
// SearchCards call; cards serves GetCard.
type fakeCardAPI struct {
	mu       sync.Mutex
	search   func(ctx context.Context, params url.Values) (*models.CardSearchResult, error)
	cards    map[string]*models.Card
	getErr   error
	queries  []string
	getCalls int

	sets       []models.CardSet
	types      []string
	rarities   []string
	supertypes []string
}

func (f *fakeCardAPI) SearchCards(ctx context.Context, params url.Values) (*models.CardSearchResult, error) {
	f.mu.Lock()
	f.queries = append(f.queries, params.Get("q"))
	search := f.search
	f.mu.Unlock()

	if search == nil {
		return &models.CardSearchResult{}, nil
	}
	return search(ctx, params)
}

func (f *fakeCardAPI) GetCard(ctx context.Context, id string) (*models.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	card, ok := f.cards[id]
	if !ok {
		return nil, nil
	}
	cp := *card
	return &cp, nil
}

func (f *fakeCardAPI) GetSets(ctx context.Context) ([]models.CardSet, error) {
	return f.sets, nil
}

func (f *fakeCardAPI) GetTypes(ctx context.Context) ([]string, error) {
	return f.types, nil
}

func (f *fakeCardAPI) GetRarities(ctx context.Context) ([]string, error) {
	return f.rarities, nil
}

func (f *fakeCardAPI) GetSupertypes(ctx context.Context) ([]string, error) {
	return f.supertypes, nil
}

func (f *fakeCardAPI) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func (f *fakeCardAPI) GetCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls
}

var _ CardAPI = (*PokemonTCGService)(nil)

// testServices wires the persistence services against an in-memory
// database and a fake API.
type testServices struct {
	api        *fakeCardAPI
	db         *gorm.DB
	clock      *fakeClock
	cards      *CardCache
	aggregator *PriceAggregator
	settings   *SettingsService
	collection *CollectionService
	wishlist   *WishlistService
	decks      *DeckService
	prices     *PriceService
	dashboard  *DashboardService
}

func newTestServices(t *testing.T, cards ...*models.Card) *testServices {
	t.Helper()
	api := &fakeCardAPI{cards: map[string]*models.Card{}}
	for _, c := range cards {
		api.cards[c.ID] = c
	}

	clock := newFakeClock()
	db := newTestDB(t)
	cache := NewCardCache(api, db, 50)
	aggregator := NewPriceAggregator(NewCurrencyConverter(), clock.Now)
	settings := NewSettingsService(db, aggregator, DefaultSettings())
	collection := NewCollectionService(db, cache, aggregator, settings)
	collection.now = clock.Now
	wishlist := NewWishlistService(db, cache, aggregator, settings, collection)
	wishlist.now = clock.Now
	decks := NewDeckService(db, cache)
	decks.now = clock.Now
	prices := NewPriceService(db, cache, aggregator, settings)
	prices.now = clock.Now

	return &testServices{
		api:        api,
		db:         db,
		clock:      clock,
		cards:      cache,
		aggregator: aggregator,
		settings:   settings,
		collection: collection,
		wishlist:   wishlist,
		decks:      decks,
		prices:     prices,
		dashboard:  NewDashboardService(collection, wishlist, settings),
	}
}

// setCard replaces what the fake API returns for a card.
func (f *fakeCardAPI) setCard(card *models.Card) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cards[card.ID] = card
}

// pricedCard returns a card with only a Cardmarket quote, so its EUR
// aggregate is low/trend/avg30.
func pricedCard(id, name string, low, trend, avg30 float64) *models.Card {
	return &models.Card{
		ID:             id,
		Name:           name,
		Number:         "1",
		Rarity:         "Common",
		SetID:          "sv1",
		SetName:        "Scarlet & Violet",
		SetReleaseDate: "2023/03/31",
		SetTotal:       198,
		Cardmarket: &models.CardmarketMarket{
			LowPrice:   models.Float(low),
			TrendPrice: models.Float(trend),
			Avg30:      models.Float(avg30),
		},
	}
}
