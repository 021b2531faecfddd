package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codyseavey/pokefolio/backend/internal/metrics"
	"github.com/codyseavey/pokefolio/backend/internal/models"
)

// RefreshSummary reports one pass over the collection and wishlist.
type RefreshSummary struct {
	Updated    int       `json:"updated"`
	Missing    int       `json:"missing"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// PriceService re-reads current market prices for stored entries. Cards
// are fetched one at a time so the API rate limit is never exceeded.
type PriceService struct {
	db         *gorm.DB
	cards      *CardCache
	aggregator *PriceAggregator
	settings   *SettingsService
	now        func() time.Time

	running sync.Mutex
}

func NewPriceService(db *gorm.DB, cards *CardCache, aggregator *PriceAggregator, settings *SettingsService) *PriceService {
	return &PriceService{db: db, cards: cards, aggregator: aggregator, settings: settings, now: time.Now}
}

// DueForRefresh reports whether the configured interval has passed since
// the last refresh. Without a previous refresh nothing is scheduled.
func DueForRefresh(settings *models.Settings, now time.Time) bool {
	if settings == nil || settings.LastPriceUpdate == nil {
		return false
	}
	interval := time.Duration(settings.PriceIntervalDays) * 24 * time.Hour
	return now.Sub(*settings.LastPriceUpdate) >= interval
}

// RefreshAll refreshes every collection entry, then every wishlist entry,
// and records the refresh time. An entry whose card cannot be fetched is
// counted and skipped; a rejected key or a cancelled context stops the pass.
func (s *PriceService) RefreshAll(ctx context.Context) (*RefreshSummary, error) {
	s.running.Lock()
	defer s.running.Unlock()

	settings, err := s.settings.Get()
	if err != nil {
		return nil, err
	}

	var collection []models.CollectionItem
	if err := s.db.Order("added_at ASC").Find(&collection).Error; err != nil {
		return nil, fmt.Errorf("failed to load collection: %w", err)
	}
	var wishlist []models.WishlistItem
	if err := s.db.Order("added_at ASC").Find(&wishlist).Error; err != nil {
		return nil, fmt.Errorf("failed to load wishlist: %w", err)
	}

	summary := &RefreshSummary{StartedAt: s.now()}
	if len(collection) == 0 && len(wishlist) == 0 {
		summary.FinishedAt = summary.StartedAt
		return summary, nil
	}
	log.Printf("Price refresh: updating %d collection and %d wishlist entries", len(collection), len(wishlist))

	for i := range collection {
		item := &collection[i]
		if err := s.refreshMarket(ctx, item.CardID, &item.MarketData, settings.Currency, summary); err != nil {
			return summary, err
		}
		item.UpdatedAt = s.now()
		if err := s.db.Omit(clause.Associations).Save(item).Error; err != nil {
			return summary, fmt.Errorf("failed to save collection entry %s: %w", item.CardID, err)
		}
	}
	for i := range wishlist {
		item := &wishlist[i]
		if err := s.refreshMarket(ctx, item.CardID, &item.MarketData, settings.Currency, summary); err != nil {
			return summary, err
		}
		item.UpdatedAt = s.now()
		if err := s.db.Omit(clause.Associations).Save(item).Error; err != nil {
			return summary, fmt.Errorf("failed to save wishlist entry %s: %w", item.CardID, err)
		}
	}

	summary.FinishedAt = s.now()
	if err := s.settings.MarkPriceUpdate(summary.FinishedAt); err != nil {
		return summary, err
	}
	metrics.PriceRefreshDuration.Observe(summary.FinishedAt.Sub(summary.StartedAt).Seconds())
	log.Printf("Price refresh: %d updated, %d without prices, %d failed", summary.Updated, summary.Missing, summary.Failed)
	return summary, nil
}

// RefreshEntry refreshes the collection and wishlist entries of one card.
func (s *PriceService) RefreshEntry(ctx context.Context, cardID string) (*RefreshSummary, error) {
	s.running.Lock()
	defer s.running.Unlock()

	settings, err := s.settings.Get()
	if err != nil {
		return nil, err
	}

	var owned []models.CollectionItem
	if err := s.db.Where("card_id = ?", cardID).Limit(1).Find(&owned).Error; err != nil {
		return nil, err
	}
	var wished []models.WishlistItem
	if err := s.db.Where("card_id = ?", cardID).Limit(1).Find(&wished).Error; err != nil {
		return nil, err
	}
	if len(owned) == 0 && len(wished) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, cardID)
	}

	summary := &RefreshSummary{StartedAt: s.now()}
	card, err := s.fetchCard(ctx, cardID, summary)
	if err != nil || card == nil {
		summary.FinishedAt = s.now()
		return summary, err
	}

	for i := range owned {
		s.applyMarket(card, &owned[i].MarketData, settings.Currency, summary)
		owned[i].UpdatedAt = s.now()
		if err := s.db.Omit(clause.Associations).Save(&owned[i]).Error; err != nil {
			return summary, fmt.Errorf("failed to save collection entry %s: %w", cardID, err)
		}
	}
	for i := range wished {
		s.applyMarket(card, &wished[i].MarketData, settings.Currency, summary)
		wished[i].UpdatedAt = s.now()
		if err := s.db.Omit(clause.Associations).Save(&wished[i]).Error; err != nil {
			return summary, fmt.Errorf("failed to save wishlist entry %s: %w", cardID, err)
		}
	}
	summary.FinishedAt = s.now()
	return summary, nil
}

// refreshMarket fetches the card and replaces the entry's market block.
func (s *PriceService) refreshMarket(ctx context.Context, cardID string, data *models.MarketData, currency string, summary *RefreshSummary) error {
	card, err := s.fetchCard(ctx, cardID, summary)
	if err != nil || card == nil {
		return err
	}
	s.applyMarket(card, data, currency, summary)
	return nil
}

// fetchCard returns the current card, or nil when the entry is skipped. A
// non-nil error stops the refresh.
func (s *PriceService) fetchCard(ctx context.Context, cardID string, summary *RefreshSummary) (*models.Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAborted, err)
	}

	card, err := s.cards.RefreshCard(ctx, cardID)
	switch {
	case err == nil:
		return card, nil
	case errors.Is(err, ErrCardNotFound):
		summary.Missing++
		metrics.PriceRefreshTotal.WithLabelValues("missing").Inc()
		return nil, nil
	case errors.Is(err, ErrAccessDenied), errors.Is(err, ErrAborted):
		metrics.PriceRefreshTotal.WithLabelValues("failed").Inc()
		return nil, err
	default:
		log.Printf("Price refresh: failed to fetch %s: %v", cardID, err)
		summary.Failed++
		metrics.PriceRefreshTotal.WithLabelValues("failed").Inc()
		return nil, nil
	}
}

// applyMarket stores the new aggregate. History only grows when an
// average exists.
func (s *PriceService) applyMarket(card *models.Card, data *models.MarketData, currency string, summary *RefreshSummary) {
	market, sources := s.aggregator.MarketPrice(card, currency)
	data.Market = market
	data.MarketSources = sources
	if market.Average != nil {
		data.PriceHistory = append(data.PriceHistory, market)
	}

	if market.HasData() {
		summary.Updated++
		metrics.PriceRefreshTotal.WithLabelValues("updated").Inc()
	} else {
		summary.Missing++
		metrics.PriceRefreshTotal.WithLabelValues("missing").Inc()
	}
}
