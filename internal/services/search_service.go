package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/codyseavey/pokefolio/backend/internal/metrics"
	"github.com/codyseavey/pokefolio/backend/internal/models"
)

// backgroundRefreshTimeout bounds a stale-entry refresh that has no caller
// waiting on it.
const backgroundRefreshTimeout = 30 * time.Second

// SearchOutcome is the result of one search submission.
type SearchOutcome struct {
	Cards      []models.Card `json:"cards"`
	TotalCount int           `json:"total_count"`
	Query      string        `json:"query"`
	FromCache  bool          `json:"from_cache"`
	Stale      bool          `json:"stale"`
	// Aborted is set when a newer submission superseded this one.
	Aborted bool `json:"aborted"`
}

// SearchService is the search session: at most one text search is in
// flight, a newer submission cancels the older one, and results go
// through the result cache.
type SearchService struct {
	api      CardAPI
	cache    *SearchCache
	cards    *CardCache
	pageSize int

	mu     sync.Mutex
	seq    uint64
	active uint64
	cancel context.CancelFunc

	wg sync.WaitGroup
}

func NewSearchService(api CardAPI, cache *SearchCache, cards *CardCache, pageSize int) *SearchService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &SearchService{api: api, cache: cache, cards: cards, pageSize: pageSize}
}

// Search runs a filtered search. A fresh cache hit short-circuits; a stale
// hit is returned at once while a background refresh overwrites it.
// A search cancelled by a newer one reports Aborted with a nil error.
func (s *SearchService) Search(ctx context.Context, filter models.SearchFilter) (*SearchOutcome, error) {
	query := BuildSearchQueryWithPageSize(filter, s.pageSize)
	s.abortActive()

	if hit, ok := s.cache.Get(query.CacheKey); ok {
		s.cards.RememberCards(hit.Cards)
		outcome := &SearchOutcome{
			Cards:      hit.Cards,
			TotalCount: len(hit.Cards),
			Query:      query.Query,
			FromCache:  true,
			Stale:      !hit.IsFresh,
		}
		if !hit.IsFresh {
			s.refreshInBackground(query)
		}
		return outcome, nil
	}

	runCtx, id, cancel := s.begin(ctx)
	defer s.end(id, cancel)

	return s.fetch(runCtx, query)
}

func (s *SearchService) fetch(ctx context.Context, query SearchQuery) (*SearchOutcome, error) {
	result, err := s.api.SearchCards(ctx, query.Params)
	if err != nil {
		if errors.Is(err, ErrAborted) {
			metrics.SearchesAborted.Inc()
			return &SearchOutcome{Query: query.Query, Aborted: true, Cards: []models.Card{}}, nil
		}
		log.Printf("Search: %q failed: %v", query.Query, err)
		return nil, err
	}

	s.cards.RememberCards(result.Cards)
	s.cache.Put(query.CacheKey, result.Cards)

	cards := result.Cards
	if cards == nil {
		cards = []models.Card{}
	}
	return &SearchOutcome{Cards: cards, TotalCount: result.TotalCount, Query: query.Query}, nil
}

// refreshInBackground re-fetches a stale entry. It counts as the active
// search, so a newer submission cancels it like any other.
func (s *SearchService) refreshInBackground(query SearchQuery) {
	parent, timeoutCancel := context.WithTimeout(context.Background(), backgroundRefreshTimeout)
	runCtx, id, cancel := s.begin(parent)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer timeoutCancel()
		defer s.end(id, cancel)

		if _, err := s.fetch(runCtx, query); err != nil {
			log.Printf("Search: background refresh of %q failed: %v", query.Query, err)
		}
	}()
}

func (s *SearchService) begin(parent context.Context) (context.Context, uint64, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	s.active = s.seq
	s.cancel = cancel
	return ctx, s.seq, cancel
}

func (s *SearchService) end(id uint64, cancel context.CancelFunc) {
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == id {
		s.cancel = nil
	}
}

func (s *SearchService) abortActive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Close cancels any in-flight search and waits for background refreshes.
func (s *SearchService) Close() {
	s.abortActive()
	s.wg.Wait()
}
