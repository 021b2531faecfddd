package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/codyseavey/pokefolio/backend/internal/models"
)

// FeaturedSetLimit is the number of newest sets shown on the start page.
const FeaturedSetLimit = 18

// ReferenceService loads the filter enumerations once and keeps them.
type ReferenceService struct {
	api CardAPI

	mu   sync.RWMutex
	data *models.ReferenceData
}

func NewReferenceService(api CardAPI) *ReferenceService {
	return &ReferenceService{api: api}
}

// Get returns the cached reference data, loading it on first use.
func (s *ReferenceService) Get(ctx context.Context) (*models.ReferenceData, error) {
	s.mu.RLock()
	data := s.data
	s.mu.RUnlock()
	if data != nil {
		return data, nil
	}
	return s.Refresh(ctx)
}

// Refresh reloads sets, types, rarities and supertypes in parallel.
func (s *ReferenceService) Refresh(ctx context.Context) (*models.ReferenceData, error) {
	var (
		sets       []models.CardSet
		types      []string
		rarities   []string
		supertypes []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sets, err = s.api.GetSets(gctx)
		return err
	})
	g.Go(func() (err error) {
		types, err = s.api.GetTypes(gctx)
		return err
	})
	g.Go(func() (err error) {
		rarities, err = s.api.GetRarities(gctx)
		return err
	})
	g.Go(func() (err error) {
		supertypes, err = s.api.GetSupertypes(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load reference data: %w", err)
	}

	data := &models.ReferenceData{
		Sets:         nonNilSets(sets),
		Series:       distinctSeries(sets),
		Types:        nonNilStrings(types),
		Rarities:     nonNilStrings(rarities),
		Supertypes:   nonNilStrings(supertypes),
		Regulations:  models.RegulationMarks,
		FeaturedSets: featuredSets(sets),
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return data, nil
}

// distinctSeries returns the sorted, non-empty series names of sets.
func distinctSeries(sets []models.CardSet) []string {
	seen := make(map[string]bool)
	series := []string{}
	for _, set := range sets {
		if set.Series == "" || seen[set.Series] {
			continue
		}
		seen[set.Series] = true
		series = append(series, set.Series)
	}
	sort.Strings(series)
	return series
}

func featuredSets(sets []models.CardSet) []models.CardSet {
	if len(sets) > FeaturedSetLimit {
		sets = sets[:FeaturedSetLimit]
	}
	return nonNilSets(sets)
}

func nonNilSets(sets []models.CardSet) []models.CardSet {
	if sets == nil {
		return []models.CardSet{}
	}
	return sets
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
