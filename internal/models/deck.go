package models

import (
	"time"
)

type DeckCategory string

const (
	DeckCategoryMain  DeckCategory = "main"
	DeckCategorySide  DeckCategory = "side"
	DeckCategoryExtra DeckCategory = "extra"
)

const (
	// DeckSize is the exact main deck size of a standard deck.
	DeckSize = 60
	// MaxCopiesPerCard applies to everything except basic energy.
	MaxCopiesPerCard = 4
	// MaxBasicEnergyCopies caps basic energy when adding to a deck.
	MaxBasicEnergyCopies = 99
)

type Deck struct {
	ID        string     `json:"id" gorm:"primaryKey"`
	Name      string     `json:"name" gorm:"not null"`
	Format    string     `json:"format"`
	Notes     string     `json:"notes"`
	Cards     []DeckCard `json:"cards" gorm:"serializer:json"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// DeckCard is one card line of a deck within a category.
type DeckCard struct {
	CardID    string       `json:"card_id"`
	Name      string       `json:"name"`
	Quantity  int          `json:"quantity"`
	Category  DeckCategory `json:"category"`
	SetName   string       `json:"set_name"`
	Number    string       `json:"number"`
	Supertype string       `json:"supertype"`
	Subtypes  []string     `json:"subtypes"`
}

// IsBasicEnergy mirrors Card.IsBasicEnergy for a stored deck line.
func (d DeckCard) IsBasicEnergy() bool {
	c := Card{Supertype: d.Supertype, Subtypes: d.Subtypes}
	return c.IsBasicEnergy()
}

// CountCategory sums the quantities in one category.
func (d *Deck) CountCategory(category DeckCategory) int {
	total := 0
	for _, c := range d.Cards {
		if c.Category == category {
			total += c.Quantity
		}
	}
	return total
}

type DeckRequest struct {
	Name   string `json:"name" binding:"required"`
	Format string `json:"format"`
	Notes  string `json:"notes"`
}

type DeckCardRequest struct {
	CardID   string       `json:"card_id" binding:"required"`
	Quantity int          `json:"quantity"`
	Category DeckCategory `json:"category" binding:"omitempty,oneof=main side extra"`
}

// DeckResponse wraps a deck with its validation warnings.
type DeckResponse struct {
	Deck     Deck     `json:"deck"`
	Warnings []string `json:"warnings"`
}
