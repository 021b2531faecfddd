package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCardJSON = `{
  "id": "sv3pt5-25",
  "name": "Pikachu",
  "number": "25",
  "supertype": "Pokémon",
  "subtypes": ["Basic"],
  "types": ["Lightning"],
  "rarity": "Common",
  "artist": "Kagemaru Himeno",
  "regulationMark": "G",
  "set": {"id": "sv3pt5", "name": "151", "series": "Scarlet & Violet", "printedTotal": 165, "total": 207, "releaseDate": "2023/09/22"},
  "images": {"small": "https://images.example/25.png", "large": "https://images.example/25_hires.png"},
  "tcgplayer": {"url": "https://tcgplayer.example/25", "updatedAt": "2024/05/01", "prices": {"normal": {"low": 0.1, "mid": 0.3, "high": 2.5, "market": 0.25}}},
  "cardmarket": {"url": "https://cardmarket.example/25", "updatedAt": "2024/05/01", "prices": {"lowPrice": 0.05, "trendPrice": 0.2}}
}`

func newTestTCGService(t *testing.T, handler http.HandlerFunc, apiKey string) *PokemonTCGService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewPokemonTCGService(PokemonTCGOptions{
		BaseURL:           server.URL,
		APIKey:            apiKey,
		RequestsPerSecond: 1000,
		Burst:             100,
	})
}

func TestPokemonTCGSearchCards(t *testing.T) {
	var gotQuery url.Values
	var gotKey string
	svc := newTestTCGService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cards", r.URL.Path)
		gotQuery = r.URL.Query()
		gotKey = r.Header.Get("X-Api-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": [` + sampleCardJSON + `], "page": 1, "pageSize": 48, "count": 1, "totalCount": 60}`))
	}, "secret-key")

	params := url.Values{}
	params.Set("q", `name:*"Pikachu"*`)
	params.Set("pageSize", "48")

	result, err := svc.SearchCards(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, `name:*"Pikachu"*`, gotQuery.Get("q"))
	assert.Equal(t, "48", gotQuery.Get("pageSize"))
	assert.Equal(t, "secret-key", gotKey)

	require.Len(t, result.Cards, 1)
	assert.Equal(t, 60, result.TotalCount)
	assert.True(t, result.HasMore)

	card := result.Cards[0]
	assert.Equal(t, "sv3pt5-25", card.ID)
	assert.Equal(t, "Pikachu", card.Name)
	assert.Equal(t, "sv3pt5", card.SetID)
	assert.Equal(t, "Scarlet & Violet", card.SetSeries)
	assert.Equal(t, 207, card.SetTotal)
	assert.Equal(t, "G", card.RegulationMark)
	assert.Equal(t, []string{"Lightning"}, card.Types)

	require.NotNil(t, card.TCGPlayer)
	normal := card.TCGPlayer.Prices["normal"]
	require.NotNil(t, normal.Market)
	assert.InDelta(t, 0.25, *normal.Market, 1e-9)

	require.NotNil(t, card.Cardmarket)
	require.NotNil(t, card.Cardmarket.TrendPrice)
	assert.InDelta(t, 0.2, *card.Cardmarket.TrendPrice, 1e-9)
	assert.Nil(t, card.Cardmarket.Avg30)
}

func TestPokemonTCGNoKeyHeaderWhenUnset(t *testing.T) {
	svc := newTestTCGService(t, func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["X-Api-Key"]
		assert.False(t, present, "X-Api-Key should not be sent without a key")
		_, _ = w.Write([]byte(`{"data": []}`))
	}, "")

	_, err := svc.GetTypes(context.Background())
	require.NoError(t, err)
}

func TestPokemonTCGGetCard(t *testing.T) {
	svc := newTestTCGService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cards/sv3pt5-25":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data": ` + sampleCardJSON + `}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}, "")

	card, err := svc.GetCard(context.Background(), "sv3pt5-25")
	require.NoError(t, err)
	require.NotNil(t, card)
	assert.Equal(t, "Pikachu", card.Name)

	missing, err := svc.GetCard(context.Background(), "nope-1")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPokemonTCGErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"forbidden", http.StatusForbidden, ErrAccessDenied},
		{"server error", http.StatusInternalServerError, ErrAPIFailure},
		{"rate limited", http.StatusTooManyRequests, ErrAPIFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestTCGService(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}, "")

			_, err := svc.SearchCards(context.Background(), url.Values{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPokemonTCGMalformedBody(t *testing.T) {
	svc := newTestTCGService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": [`))
	}, "")

	_, err := svc.SearchCards(context.Background(), url.Values{})
	assert.ErrorIs(t, err, ErrAPIFailure)
}

func TestPokemonTCGCancelledContext(t *testing.T) {
	svc := newTestTCGService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": []}`))
	}, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.SearchCards(ctx, url.Values{})
	assert.ErrorIs(t, err, ErrAborted)
}

func TestPokemonTCGGetSets(t *testing.T) {
	svc := newTestTCGService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sets", r.URL.Path)
		assert.Equal(t, "-releaseDate", r.URL.Query().Get("orderBy"))
		assert.Equal(t, "250", r.URL.Query().Get("pageSize"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": [
			{"id": "sv3pt5", "name": "151", "series": "Scarlet & Violet", "total": 207, "releaseDate": "2023/09/22", "images": {"symbol": "s.png", "logo": "l.png"}},
			{"id": "base1", "name": "Base", "series": "Base", "total": 102, "releaseDate": "1999/01/09"}
		]}`))
	}, "")

	sets, err := svc.GetSets(context.Background())
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, "sv3pt5", sets[0].ID)
	assert.Equal(t, "s.png", sets[0].SymbolURL)
	assert.Equal(t, 102, sets[1].Total)
}

func TestPokemonTCGReferenceLists(t *testing.T) {
	svc := newTestTCGService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/types":
			_, _ = w.Write([]byte(`{"data": ["Fire", "Water"]}`))
		case "/rarities":
			_, _ = w.Write([]byte(`{"data": ["Common", "Rare"]}`))
		case "/supertypes":
			_, _ = w.Write([]byte(`{"data": ["Energy", "Pokémon", "Trainer"]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}, "")

	ctx := context.Background()
	types, err := svc.GetTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fire", "Water"}, types)

	rarities, err := svc.GetRarities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Common", "Rare"}, rarities)

	supertypes, err := svc.GetSupertypes(ctx)
	require.NoError(t, err)
	assert.Len(t, supertypes, 3)
}
