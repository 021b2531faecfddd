package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codyseavey/pokefolio/backend/internal/config"
	"github.com/codyseavey/pokefolio/backend/internal/database"
	"github.com/codyseavey/pokefolio/backend/internal/models"
	"github.com/codyseavey/pokefolio/backend/internal/services"
)

const upstreamCard = `{
  "id": "sv1-1",
  "name": "Sprigatito",
  "number": "13",
  "supertype": "Pokémon",
  "subtypes": ["Basic"],
  "rarity": "Common",
  "set": {"id": "sv1", "name": "Scarlet & Violet", "series": "Scarlet & Violet", "total": 258, "releaseDate": "2023/03/31"},
  "cardmarket": {"prices": {"lowPrice": 1.0, "trendPrice": 2.0, "avg30": 3.0}}
}`

// newTestRouter wires the full stack against a fake card API server.
func newTestRouter(t *testing.T, upstream http.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	api := services.NewPokemonTCGService(services.PokemonTCGOptions{
		BaseURL:           server.URL,
		RequestsPerSecond: 1000,
		Burst:             100,
		Timeout:           5 * time.Second,
	})
	cards := services.NewCardCache(api, db, 100)
	aggregator := services.NewPriceAggregator(services.NewCurrencyConverter(), time.Now)
	settings := services.NewSettingsService(db, aggregator, services.DefaultSettings())
	collection := services.NewCollectionService(db, cards, aggregator, settings)
	wishlist := services.NewWishlistService(db, cards, aggregator, settings, collection)
	dashboard := services.NewDashboardService(collection, wishlist, settings)
	prices := services.NewPriceService(db, cards, aggregator, settings)
	search := services.NewSearchService(api, services.NewSearchCache(20, 5*time.Minute, time.Now), cards, 48)
	t.Cleanup(search.Close)

	return SetupRouter(config.ServerConfig{AllowedOrigins: []string{"http://localhost:5173"}}, Services{
		Search:     search,
		Cards:      cards,
		Reference:  services.NewReferenceService(api),
		OCR:        services.NewOCRMatcher(api, services.StaticRecognizer{}, 10),
		Collection: collection,
		Wishlist:   wishlist,
		Decks:      services.NewDeckService(db, cards),
		Settings:   settings,
		Converter:  aggregator.Converter(),
		Dashboard:  dashboard,
		Snapshots:  services.NewSnapshotService(db, dashboard),
		Prices:     prices,
		Worker:     services.NewPriceWorker(prices, settings),
	})
}

func cardUpstream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/cards/sv1-1":
		_, _ = w.Write([]byte(`{"data": ` + upstreamCard + `}`))
	case r.URL.Path == "/cards":
		_, _ = w.Write([]byte(`{"data": [` + upstreamCard + `], "page": 1, "pageSize": 48, "count": 1, "totalCount": 1}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": {"message": "Not found"}}`))
	}
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, cardUpstream)
	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSearchCards(t *testing.T) {
	router := newTestRouter(t, cardUpstream)

	w := doJSON(t, router, http.MethodGet, "/api/cards/search?q=sprig", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var outcome services.SearchOutcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
	require.Len(t, outcome.Cards, 1)
	assert.Equal(t, "Sprigatito", outcome.Cards[0].Name)
	assert.False(t, outcome.FromCache)

	w = doJSON(t, router, http.MethodGet, "/api/cards/search?q=sprig", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
	assert.True(t, outcome.FromCache)
}

func TestSearchAccessDenied(t *testing.T) {
	router := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	w := doJSON(t, router, http.MethodGet, "/api/cards/search?q=sprig", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "access denied")
}

func TestSearchUpstreamFailure(t *testing.T) {
	router := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	w := doJSON(t, router, http.MethodGet, "/api/cards/search?q=sprig", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGetCard(t *testing.T) {
	router := newTestRouter(t, cardUpstream)

	w := doJSON(t, router, http.MethodGet, "/api/cards/sv1-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://pokemontcg.io/card/sv1-1")

	w = doJSON(t, router, http.MethodGet, "/api/cards/nope-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIdentifyFromText(t *testing.T) {
	router := newTestRouter(t, cardUpstream)

	w := doJSON(t, router, http.MethodPost, "/api/cards/identify", gin.H{"text": "<b>Sprigatito</b> HP 60"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result services.ScanResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.NotEmpty(t, result.Cards)
	assert.Equal(t, "sv1-1", result.Cards[0].ID)

	w = doJSON(t, router, http.MethodPost, "/api/cards/identify", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCollectionFlow(t *testing.T) {
	router := newTestRouter(t, cardUpstream)

	w := doJSON(t, router, http.MethodPost, "/api/collection", gin.H{"card_id": "sv1-1", "quantity": 2})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/collection", nil)
	var items []models.CollectionItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)

	w = doJSON(t, router, http.MethodGet, "/api/collection/dashboard", nil)
	var dashboard models.Dashboard
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dashboard))
	assert.InDelta(t, 4, dashboard.CollectionValue, 1e-9)

	w = doJSON(t, router, http.MethodPost, "/api/collection/refresh-prices", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"updated":1`)

	w = doJSON(t, router, http.MethodDelete, "/api/collection/sv1-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, http.MethodDelete, "/api/collection/sv1-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCollectionRejectsInvalidQuantity(t *testing.T) {
	router := newTestRouter(t, cardUpstream)

	w := doJSON(t, router, http.MethodPost, "/api/collection", gin.H{"card_id": "sv1-1", "quantity": -3})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettingsEndpoints(t *testing.T) {
	router := newTestRouter(t, cardUpstream)

	w := doJSON(t, router, http.MethodPut, "/api/settings", gin.H{"currency": "JPY"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPut, "/api/settings", gin.H{"usd_rate": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPut, "/api/settings", gin.H{"currency": "usd", "valuation_mode": "highest"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"currency":"USD"`)

	w = doJSON(t, router, http.MethodGet, "/api/currency/convert?amount=0.92&from=EUR&to=USD", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var conv struct {
		Amount float64 `json:"amount"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conv))
	assert.InDelta(t, 1, conv.Amount, 1e-9)
}

func TestDeckEndpoints(t *testing.T) {
	router := newTestRouter(t, cardUpstream)

	w := doJSON(t, router, http.MethodPost, "/api/decks", gin.H{"name": "Grass"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.DeckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.Deck.ID)
	assert.Len(t, created.Warnings, 1, "empty deck is not 60 cards")

	w = doJSON(t, router, http.MethodPost, "/api/decks/"+created.Deck.ID+"/cards", gin.H{"card_id": "sv1-1", "quantity": 9})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.DeckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	require.Len(t, updated.Deck.Cards, 1)
	assert.Equal(t, 4, updated.Deck.Cards[0].Quantity)

	w = doJSON(t, router, http.MethodGet, "/api/decks/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "# Grass (standard)"))

	w = doJSON(t, router, http.MethodDelete, "/api/decks/"+created.Deck.ID+"/cards/sv1-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Empty(t, updated.Deck.Cards)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, cardUpstream)
	doJSON(t, router, http.MethodGet, "/health", nil)

	w := doJSON(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pokefolio_http_requests_total")
}

func TestValueHistory(t *testing.T) {
	router := newTestRouter(t, cardUpstream)

	w := doJSON(t, router, http.MethodGet, "/api/collection/value-history", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var history models.ValueHistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Equal(t, "month", history.Period)
	assert.Empty(t, history.Snapshots)
	assert.Nil(t, history.Latest)

	w = doJSON(t, router, http.MethodPost, "/api/collection", gin.H{"card_id": "sv1-1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = doJSON(t, router, http.MethodPost, "/api/collection/snapshot", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/collection/value-history?period=all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history.Snapshots, 1)
	require.NotNil(t, history.Latest)
	assert.InDelta(t, 2, history.Latest.TotalValue, 1e-9)
}
