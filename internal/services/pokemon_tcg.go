package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/codyseavey/pokefolio/backend/internal/metrics"
	"github.com/codyseavey/pokefolio/backend/internal/models"
)

const (
	pokemonTCGBaseURL = "https://api.pokemontcg.io/v2"
	// setsPageSize fetches every set in one request.
	setsPageSize = 250
)

// PokemonTCGOptions configures the API client. Zero values use defaults.
type PokemonTCGOptions struct {
	BaseURL           string
	APIKey            string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
}

// PokemonTCGService talks to the public Pokemon TCG API. Requests are never
// retried; callers decide what to do with a failure.
type PokemonTCGService struct {
	client  *resty.Client
	limiter *rate.Limiter
}

func NewPokemonTCGService(opts PokemonTCGOptions) *PokemonTCGService {
	if opts.BaseURL == "" {
		opts.BaseURL = pokemonTCGBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}
	if opts.Burst <= 0 {
		opts.Burst = 4
	}

	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")
	if opts.APIKey != "" {
		client.SetHeader("X-Api-Key", opts.APIKey)
	}

	return &PokemonTCGService{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
	}
}

type pokemonSearchResponse struct {
	Data       []pokemonCard `json:"data"`
	TotalCount int           `json:"totalCount"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	Count      int           `json:"count"`
}

type pokemonCard struct {
	TCGPlayer      *pokemonTCGPrice   `json:"tcgplayer"`
	Cardmarket     *pokemonCardmarket `json:"cardmarket"`
	Set            pokemonSet         `json:"set"`
	Images         pokemonImages      `json:"images"`
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Number         string             `json:"number"`
	Supertype      string             `json:"supertype"`
	Subtypes       []string           `json:"subtypes"`
	Types          []string           `json:"types"`
	Rarity         string             `json:"rarity"`
	Artist         string             `json:"artist"`
	RegulationMark string             `json:"regulationMark"`
}

type pokemonSet struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Series       string           `json:"series"`
	PrintedTotal int              `json:"printedTotal"`
	Total        int              `json:"total"`
	ReleaseDate  string           `json:"releaseDate"`
	Images       pokemonSetImages `json:"images"`
}

type pokemonSetImages struct {
	Symbol string `json:"symbol"`
	Logo   string `json:"logo"`
}

type pokemonImages struct {
	Small string `json:"small"`
	Large string `json:"large"`
}

type pokemonTCGPrice struct {
	Prices    map[string]pokemonPriceSet `json:"prices"`
	URL       string                     `json:"url"`
	UpdatedAt string                     `json:"updatedAt"`
}

type pokemonPriceSet struct {
	Low    *float64 `json:"low"`
	Mid    *float64 `json:"mid"`
	High   *float64 `json:"high"`
	Market *float64 `json:"market"`
}

type pokemonCardmarket struct {
	URL       string `json:"url"`
	UpdatedAt string `json:"updatedAt"`
	Prices    struct {
		LowPrice   *float64 `json:"lowPrice"`
		TrendPrice *float64 `json:"trendPrice"`
		Avg30      *float64 `json:"avg30"`
	} `json:"prices"`
}

// SearchCards runs a /cards search with the given query parameters.
func (s *PokemonTCGService) SearchCards(ctx context.Context, params url.Values) (*models.CardSearchResult, error) {
	var searchResp pokemonSearchResponse
	if _, err := s.get(ctx, "cards", "/cards", params, &searchResp); err != nil {
		return nil, err
	}

	cards := make([]models.Card, len(searchResp.Data))
	for i, pc := range searchResp.Data {
		cards[i] = convertToCard(pc)
	}

	return &models.CardSearchResult{
		Cards:      cards,
		TotalCount: searchResp.TotalCount,
		HasMore:    searchResp.TotalCount > searchResp.Page*searchResp.PageSize,
	}, nil
}

// GetCard fetches a single card. It returns nil, nil when the card does not exist.
func (s *PokemonTCGService) GetCard(ctx context.Context, id string) (*models.Card, error) {
	var response struct {
		Data pokemonCard `json:"data"`
	}
	status, err := s.get(ctx, "card", "/cards/"+url.PathEscape(id), nil, &response)
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	card := convertToCard(response.Data)
	return &card, nil
}

// GetSets lists every set, newest first.
func (s *PokemonTCGService) GetSets(ctx context.Context) ([]models.CardSet, error) {
	params := url.Values{}
	params.Set("orderBy", "-releaseDate")
	params.Set("pageSize", fmt.Sprint(setsPageSize))

	var response struct {
		Data []pokemonSet `json:"data"`
	}
	if _, err := s.get(ctx, "sets", "/sets", params, &response); err != nil {
		return nil, err
	}

	sets := make([]models.CardSet, len(response.Data))
	for i, ps := range response.Data {
		sets[i] = models.CardSet{
			ID:          ps.ID,
			Name:        ps.Name,
			Series:      ps.Series,
			Total:       ps.Total,
			ReleaseDate: ps.ReleaseDate,
			SymbolURL:   ps.Images.Symbol,
			LogoURL:     ps.Images.Logo,
		}
	}
	return sets, nil
}

func (s *PokemonTCGService) GetTypes(ctx context.Context) ([]string, error) {
	return s.getStrings(ctx, "types", "/types")
}

func (s *PokemonTCGService) GetRarities(ctx context.Context) ([]string, error) {
	return s.getStrings(ctx, "rarities", "/rarities")
}

func (s *PokemonTCGService) GetSupertypes(ctx context.Context) ([]string, error) {
	return s.getStrings(ctx, "supertypes", "/supertypes")
}

func (s *PokemonTCGService) getStrings(ctx context.Context, endpoint, path string) ([]string, error) {
	var response struct {
		Data []string `json:"data"`
	}
	if _, err := s.get(ctx, endpoint, path, nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// get performs one rate-limited GET and decodes a 200 body into result.
// The HTTP status is returned alongside the error so callers can special-case it.
func (s *PokemonTCGService) get(ctx context.Context, endpoint, path string, params url.Values, result any) (int, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			metrics.CardAPIRequestsTotal.WithLabelValues(endpoint, "aborted").Inc()
			return 0, fmt.Errorf("%w: %v", ErrAborted, ctx.Err())
		}
		return 0, fmt.Errorf("%w: rate limiter: %v", ErrAPIFailure, err)
	}

	start := time.Now()
	req := s.client.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetResult(result)
	if len(params) > 0 {
		req.SetQueryParamsFromValues(params)
	}
	resp, err := req.Get(path)
	metrics.CardAPILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
			metrics.CardAPIRequestsTotal.WithLabelValues(endpoint, "aborted").Inc()
			return 0, fmt.Errorf("%w: %v", ErrAborted, err)
		}
		metrics.CardAPIRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		log.Printf("Pokemon TCG API: %s request failed: %v", endpoint, err)
		return 0, fmt.Errorf("%w: %v", ErrAPIFailure, err)
	}

	switch status := resp.StatusCode(); status {
	case http.StatusOK:
		metrics.CardAPIRequestsTotal.WithLabelValues(endpoint, "ok").Inc()
		return status, nil
	case http.StatusForbidden:
		metrics.CardAPIRequestsTotal.WithLabelValues(endpoint, "denied").Inc()
		return status, ErrAccessDenied
	case http.StatusNotFound:
		metrics.CardAPIRequestsTotal.WithLabelValues(endpoint, "not_found").Inc()
		return status, fmt.Errorf("%w: status %d", ErrCardNotFound, status)
	default:
		metrics.CardAPIRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return status, fmt.Errorf("%w: status %d", ErrAPIFailure, status)
	}
}

func convertToCard(pc pokemonCard) models.Card {
	card := models.Card{
		ID:             pc.ID,
		Name:           pc.Name,
		Number:         pc.Number,
		Supertype:      pc.Supertype,
		Subtypes:       pc.Subtypes,
		Types:          pc.Types,
		Rarity:         pc.Rarity,
		Artist:         pc.Artist,
		RegulationMark: pc.RegulationMark,
		SetID:          pc.Set.ID,
		SetName:        pc.Set.Name,
		SetSeries:      pc.Set.Series,
		SetReleaseDate: pc.Set.ReleaseDate,
		SetTotal:       pc.Set.Total,
		ImageURL:       pc.Images.Small,
		ImageURLLarge:  pc.Images.Large,
	}
	if card.SetTotal == 0 {
		card.SetTotal = pc.Set.PrintedTotal
	}

	if pc.TCGPlayer != nil {
		market := &models.TCGPlayerMarket{
			URL:       pc.TCGPlayer.URL,
			UpdatedAt: pc.TCGPlayer.UpdatedAt,
			Prices:    make(map[string]models.TCGPlayerPriceBand, len(pc.TCGPlayer.Prices)),
		}
		for variant, p := range pc.TCGPlayer.Prices {
			market.Prices[variant] = models.TCGPlayerPriceBand{
				Low:    p.Low,
				Mid:    p.Mid,
				High:   p.High,
				Market: p.Market,
			}
		}
		card.TCGPlayer = market
	}

	if pc.Cardmarket != nil {
		card.Cardmarket = &models.CardmarketMarket{
			URL:        pc.Cardmarket.URL,
			UpdatedAt:  pc.Cardmarket.UpdatedAt,
			LowPrice:   pc.Cardmarket.Prices.LowPrice,
			TrendPrice: pc.Cardmarket.Prices.TrendPrice,
			Avg30:      pc.Cardmarket.Prices.Avg30,
		}
	}

	return card
}
