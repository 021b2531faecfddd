package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codyseavey/pokefolio/backend/internal/models"
)

const (
	defaultLanguage = "English"
	defaultEdition  = "standard"
)

// CollectionService manages owned cards. There is one entry per card id;
// adding a card that is already owned merges into the existing entry.
type CollectionService struct {
	db         *gorm.DB
	cards      *CardCache
	aggregator *PriceAggregator
	settings   *SettingsService
	now        func() time.Time
}

func NewCollectionService(db *gorm.DB, cards *CardCache, aggregator *PriceAggregator, settings *SettingsService) *CollectionService {
	return &CollectionService{db: db, cards: cards, aggregator: aggregator, settings: settings, now: time.Now}
}

// List returns every entry with its card, oldest first.
func (s *CollectionService) List() ([]models.CollectionItem, error) {
	var items []models.CollectionItem
	if err := s.db.Preload("Card").Order("added_at ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list collection: %w", err)
	}
	return items, nil
}

func (s *CollectionService) Get(cardID string) (*models.CollectionItem, error) {
	var item models.CollectionItem
	err := s.db.Preload("Card").First(&item, "card_id = ?", cardID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: collection %s", ErrEntryNotFound, cardID)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Add records owned copies of a card. For a card already owned the
// quantity is added and the supplied condition, language and edition
// replace the stored ones.
func (s *CollectionService) Add(ctx context.Context, req models.AddToCollectionRequest) (*models.CollectionItem, error) {
	card, err := s.cards.CardDetails(ctx, req.CardID)
	if err != nil {
		return nil, err
	}
	if err := s.cards.PutCachedCard(card); err != nil {
		return nil, err
	}

	settings, err := s.settings.Get()
	if err != nil {
		return nil, err
	}

	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}
	now := s.now()

	var item models.CollectionItem
	err = s.db.First(&item, "card_id = ?", card.ID).Error
	switch {
	case err == nil:
		item.Quantity += quantity
		applyIfSet(&item.Condition, req.Condition)
		applyIfSet(&item.Language, req.Language)
		applyIfSet(&item.Edition, req.Edition)
		if req.PurchasePrice != nil {
			item.PurchasePrice = req.PurchasePrice
			item.PurchaseDate = req.PurchaseDate
			item.PurchaseHistory = append(item.PurchaseHistory, models.PurchaseRecord{
				Price: *req.PurchasePrice, Quantity: quantity, Date: req.PurchaseDate,
			})
		}
		if req.TargetPrice != nil {
			item.TargetPrice = req.TargetPrice
			item.TargetPriceCurrency = settings.Currency
		}
		applyIfSet(&item.Priority, req.Priority)
		if req.Notes != "" {
			item.Notes = req.Notes
		}
		item.UpdatedAt = now

	case errors.Is(err, gorm.ErrRecordNotFound):
		market, sources := s.aggregator.MarketPrice(card, settings.Currency)
		item = models.CollectionItem{
			CardID:        card.ID,
			Quantity:      quantity,
			Condition:     models.ConditionNearMint,
			Language:      defaultLanguage,
			Edition:       defaultEdition,
			PurchasePrice: req.PurchasePrice,
			PurchaseDate:  req.PurchaseDate,
			Priority:      models.PriorityMedium,
			Notes:         req.Notes,
			MarketData:    newMarketData(market, sources),
			AddedAt:       now,
			UpdatedAt:     now,
		}
		applyIfSet(&item.Condition, req.Condition)
		applyIfSet(&item.Language, req.Language)
		applyIfSet(&item.Edition, req.Edition)
		applyIfSet(&item.Priority, req.Priority)
		if req.PurchasePrice != nil {
			item.PurchaseHistory = []models.PurchaseRecord{{
				Price: *req.PurchasePrice, Quantity: quantity, Date: req.PurchaseDate,
			}}
		}
		if req.TargetPrice != nil {
			item.TargetPrice = req.TargetPrice
			item.TargetPriceCurrency = settings.Currency
		}

	default:
		return nil, fmt.Errorf("failed to load collection entry: %w", err)
	}

	if err := s.db.Omit(clause.Associations).Save(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to save collection entry: %w", err)
	}
	log.Printf("Collection: %s now at %d copies", card.ID, item.Quantity)

	item.Card = *card
	return &item, nil
}

// Update replaces the editable fields of an entry. A nil target price
// clears the target.
func (s *CollectionService) Update(cardID string, req models.UpdateCollectionRequest) (*models.CollectionItem, error) {
	item, err := s.Get(cardID)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Get()
	if err != nil {
		return nil, err
	}

	item.Quantity = req.Quantity
	applyIfSet(&item.Condition, req.Condition)
	applyIfSet(&item.Language, req.Language)
	applyIfSet(&item.Edition, req.Edition)
	if req.PurchasePrice != nil {
		item.PurchasePrice = req.PurchasePrice
		item.PurchaseDate = req.PurchaseDate
		item.PurchaseHistory = append(item.PurchaseHistory, models.PurchaseRecord{
			Price: *req.PurchasePrice, Quantity: req.Quantity, Date: req.PurchaseDate,
		})
	}
	if req.TargetPrice != nil {
		item.TargetPrice = req.TargetPrice
		item.TargetPriceCurrency = settings.Currency
	} else {
		item.TargetPrice = nil
		item.TargetPriceCurrency = ""
	}
	applyIfSet(&item.Priority, req.Priority)
	item.Notes = req.Notes
	item.UpdatedAt = s.now()

	if err := s.db.Omit(clause.Associations).Save(item).Error; err != nil {
		return nil, fmt.Errorf("failed to save collection entry: %w", err)
	}
	return item, nil
}

func (s *CollectionService) Remove(cardID string) error {
	result := s.db.Delete(&models.CollectionItem{}, "card_id = ?", cardID)
	if result.Error != nil {
		return fmt.Errorf("failed to remove collection entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: collection %s", ErrEntryNotFound, cardID)
	}
	return nil
}

// newMarketData seeds an entry's market block. The first history point is
// only recorded when an average exists.
func newMarketData(market models.AggregatedPrice, sources []models.PriceSource) models.MarketData {
	data := models.MarketData{
		Market:        market,
		MarketSources: sources,
		PriceHistory:  []models.AggregatedPrice{},
	}
	if market.Average != nil {
		data.PriceHistory = append(data.PriceHistory, market)
	}
	return data
}

// applyIfSet overwrites dst with a non-blank v.
func applyIfSet[T ~string](dst *T, v T) {
	if strings.TrimSpace(string(v)) != "" {
		*dst = v
	}
}
