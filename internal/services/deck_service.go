package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/codyseavey/pokefolio/backend/internal/models"
)

const defaultDeckFormat = "standard"

type DeckService struct {
	db    *gorm.DB
	cards *CardCache
	now   func() time.Time
}

func NewDeckService(db *gorm.DB, cards *CardCache) *DeckService {
	return &DeckService{db: db, cards: cards, now: time.Now}
}

func (s *DeckService) List() ([]models.Deck, error) {
	var decks []models.Deck
	if err := s.db.Order("created_at ASC").Find(&decks).Error; err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	return decks, nil
}

func (s *DeckService) Get(id string) (*models.Deck, error) {
	var deck models.Deck
	err := s.db.First(&deck, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: deck %s", ErrEntryNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if deck.Cards == nil {
		deck.Cards = []models.DeckCard{}
	}
	return &deck, nil
}

func (s *DeckService) Create(req models.DeckRequest) (*models.Deck, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: deck name is required", ErrInvalidRequest)
	}
	deck := models.Deck{
		ID:     uuid.New().String(),
		Name:   name,
		Format: req.Format,
		Notes:  strings.TrimSpace(req.Notes),
		Cards:  []models.DeckCard{},
	}
	if deck.Format == "" {
		deck.Format = defaultDeckFormat
	}
	if err := s.db.Create(&deck).Error; err != nil {
		return nil, fmt.Errorf("failed to create deck: %w", err)
	}
	log.Printf("Decks: created %q (%s)", deck.Name, deck.ID)
	return &deck, nil
}

// Update renames a deck and replaces its format and notes.
func (s *DeckService) Update(id string, req models.DeckRequest) (*models.Deck, error) {
	deck, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		deck.Name = name
	}
	if req.Format != "" {
		deck.Format = req.Format
	}
	deck.Notes = strings.TrimSpace(req.Notes)
	return deck, s.save(deck)
}

func (s *DeckService) Delete(id string) error {
	result := s.db.Delete(&models.Deck{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete deck: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: deck %s", ErrEntryNotFound, id)
	}
	return nil
}

// AddCard adds copies of a card to one category of a deck. The line is
// capped at four copies, or 99 for basic energy.
func (s *DeckService) AddCard(ctx context.Context, deckID string, req models.DeckCardRequest) (*models.Deck, error) {
	deck, err := s.Get(deckID)
	if err != nil {
		return nil, err
	}
	card, err := s.cards.CardDetails(ctx, req.CardID)
	if err != nil {
		return nil, err
	}

	category := req.Category
	if category == "" {
		category = models.DeckCategoryMain
	}
	quantity := max(1, min(models.MaxCopiesPerCard, req.Quantity))
	limit := maxCopies(card.IsBasicEnergy())

	if line := findDeckCard(deck, card.ID, category); line != nil {
		line.Quantity = min(limit, line.Quantity+quantity)
	} else {
		deck.Cards = append(deck.Cards, models.DeckCard{
			CardID:    card.ID,
			Name:      card.Name,
			Quantity:  min(limit, quantity),
			Category:  category,
			SetName:   card.SetName,
			Number:    card.Number,
			Supertype: card.Supertype,
			Subtypes:  card.Subtypes,
		})
	}

	if err := s.save(deck); err != nil {
		return nil, err
	}
	log.Printf("Decks: added %s to %q (%s)", card.Name, deck.Name, category)
	return deck, nil
}

// SetCardQuantity changes a line's quantity. Zero or less removes it.
func (s *DeckService) SetCardQuantity(deckID, cardID string, category models.DeckCategory, quantity int) (*models.Deck, error) {
	deck, err := s.Get(deckID)
	if err != nil {
		return nil, err
	}
	line := findDeckCard(deck, cardID, category)
	if line == nil {
		return nil, fmt.Errorf("%w: %s in deck %s", ErrEntryNotFound, cardID, deckID)
	}

	if quantity <= 0 {
		kept := deck.Cards[:0]
		for _, c := range deck.Cards {
			if c.CardID != cardID || c.Category != category {
				kept = append(kept, c)
			}
		}
		deck.Cards = kept
	} else {
		line.Quantity = min(maxCopies(line.IsBasicEnergy()), quantity)
	}
	return deck, s.save(deck)
}

// ValidateDeck lists the rule violations of a deck. An empty list means the
// deck is legal.
func ValidateDeck(deck *models.Deck) []string {
	warnings := []string{}
	if n := deck.CountCategory(models.DeckCategoryMain); n != models.DeckSize {
		warnings = append(warnings, fmt.Sprintf("A standard deck needs exactly %d cards in the main deck (has %d).", models.DeckSize, n))
	}
	for _, c := range deck.Cards {
		if c.Category != models.DeckCategoryMain || c.IsBasicEnergy() {
			continue
		}
		if c.Quantity > models.MaxCopiesPerCard {
			warnings = append(warnings, fmt.Sprintf("%s exceeds the limit of %d copies.", c.Name, models.MaxCopiesPerCard))
		}
	}
	return warnings
}

// ExportDeckList renders decks as plain text lists grouped by category.
func ExportDeckList(decks []models.Deck) string {
	var b strings.Builder
	sections := []struct {
		category models.DeckCategory
		title    string
	}{
		{models.DeckCategoryMain, "Main deck"},
		{models.DeckCategorySide, "Sideboard"},
		{models.DeckCategoryExtra, "Extra"},
	}

	for _, deck := range decks {
		fmt.Fprintf(&b, "# %s (%s)\n", deck.Name, deck.Format)
		for i, section := range sections {
			var lines []models.DeckCard
			for _, c := range deck.Cards {
				if c.Category == section.category {
					lines = append(lines, c)
				}
			}
			// the main heading is always printed
			if len(lines) == 0 && i > 0 {
				continue
			}
			sort.SliceStable(lines, func(a, b int) bool { return lines[a].Name < lines[b].Name })
			fmt.Fprintf(&b, "## %s\n", section.title)
			for _, c := range lines {
				fmt.Fprintf(&b, "%dx %s (%s %s)\n", c.Quantity, c.Name, c.SetName, c.Number)
			}
		}
		if deck.Notes != "" {
			fmt.Fprintf(&b, "## Notes\n%s\n", deck.Notes)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (s *DeckService) save(deck *models.Deck) error {
	deck.UpdatedAt = s.now()
	if err := s.db.Save(deck).Error; err != nil {
		return fmt.Errorf("failed to save deck: %w", err)
	}
	return nil
}

func findDeckCard(deck *models.Deck, cardID string, category models.DeckCategory) *models.DeckCard {
	for i := range deck.Cards {
		if deck.Cards[i].CardID == cardID && deck.Cards[i].Category == category {
			return &deck.Cards[i]
		}
	}
	return nil
}

func maxCopies(basicEnergy bool) int {
	if basicEnergy {
		return models.MaxBasicEnergyCopies
	}
	return models.MaxCopiesPerCard
}
