package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codyseavey/pokefolio/backend/internal/models"
)

type WishlistService struct {
	db         *gorm.DB
	cards      *CardCache
	aggregator *PriceAggregator
	settings   *SettingsService
	collection *CollectionService
	now        func() time.Time
}

func NewWishlistService(db *gorm.DB, cards *CardCache, aggregator *PriceAggregator, settings *SettingsService, collection *CollectionService) *WishlistService {
	return &WishlistService{
		db:         db,
		cards:      cards,
		aggregator: aggregator,
		settings:   settings,
		collection: collection,
		now:        time.Now,
	}
}

// List returns the wishlist with high priority entries first, then oldest first.
func (s *WishlistService) List() ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := s.db.Preload("Card").
		Order("CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END").
		Order("added_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlist: %w", err)
	}
	return items, nil
}

func (s *WishlistService) Get(cardID string) (*models.WishlistItem, error) {
	var item models.WishlistItem
	err := s.db.Preload("Card").First(&item, "card_id = ?", cardID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: wishlist %s", ErrEntryNotFound, cardID)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Add puts a card on the wishlist. Wishing for a card already listed
// updates the existing entry instead.
func (s *WishlistService) Add(ctx context.Context, req models.WishlistRequest) (*models.WishlistItem, error) {
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

	now := s.now()
	var item models.WishlistItem
	err = s.db.First(&item, "card_id = ?", card.ID).Error
	switch {
	case err == nil:
		s.apply(&item, req, settings.Currency)
		item.UpdatedAt = now
	case errors.Is(err, gorm.ErrRecordNotFound):
		market, sources := s.aggregator.MarketPrice(card, settings.Currency)
		item = models.WishlistItem{
			CardID:     card.ID,
			Quantity:   1,
			Priority:   models.PriorityMedium,
			MarketData: newMarketData(market, sources),
			AddedAt:    now,
			UpdatedAt:  now,
		}
		s.apply(&item, req, settings.Currency)
	default:
		return nil, fmt.Errorf("failed to load wishlist entry: %w", err)
	}

	if err := s.db.Omit(clause.Associations).Save(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to save wishlist entry: %w", err)
	}
	log.Printf("Wishlist: added %s (%s)", card.ID, card.Name)

	item.Card = *card
	return &item, nil
}

// Update changes quantity, target, priority or notes of a listed card.
func (s *WishlistService) Update(cardID string, req models.WishlistRequest) (*models.WishlistItem, error) {
	item, err := s.Get(cardID)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Get()
	if err != nil {
		return nil, err
	}

	s.apply(item, req, settings.Currency)
	if req.TargetPrice == nil {
		item.TargetPrice = nil
		item.TargetPriceCurrency = ""
	}
	item.UpdatedAt = s.now()

	if err := s.db.Omit(clause.Associations).Save(item).Error; err != nil {
		return nil, fmt.Errorf("failed to save wishlist entry: %w", err)
	}
	return item, nil
}

func (s *WishlistService) Remove(cardID string) error {
	result := s.db.Delete(&models.WishlistItem{}, "card_id = ?", cardID)
	if result.Error != nil {
		return fmt.Errorf("failed to remove wishlist entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: wishlist %s", ErrEntryNotFound, cardID)
	}
	return nil
}

// MoveToCollection adds the wished copies to the collection and drops the
// wishlist entry.
func (s *WishlistService) MoveToCollection(ctx context.Context, cardID string) (*models.CollectionItem, error) {
	item, err := s.Get(cardID)
	if err != nil {
		return nil, err
	}

	owned, err := s.collection.Add(ctx, models.AddToCollectionRequest{
		CardID:   item.CardID,
		Quantity: item.Quantity,
		Notes:    item.Notes,
	})
	if err != nil {
		return nil, err
	}
	if err := s.Remove(cardID); err != nil {
		return nil, err
	}
	log.Printf("Wishlist: moved %s to collection", cardID)
	return owned, nil
}

func (s *WishlistService) apply(item *models.WishlistItem, req models.WishlistRequest, currency string) {
	if req.Quantity > 0 {
		item.Quantity = req.Quantity
	}
	if req.TargetPrice != nil {
		item.TargetPrice = req.TargetPrice
		item.TargetPriceCurrency = currency
	}
	applyIfSet(&item.Priority, req.Priority)
	if req.Notes != nil {
		item.Notes = *req.Notes
	}
}
