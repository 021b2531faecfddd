package models

import (
	"time"
)

type Condition string

const (
	ConditionMint         Condition = "mint"
	ConditionNearMint     Condition = "nearMint"
	ConditionLightPlay    Condition = "lightPlay"
	ConditionModeratePlay Condition = "moderatePlay"
	ConditionHeavyPlay    Condition = "heavyPlay"
	ConditionDamaged      Condition = "damaged"
)

// AllConditions returns the conditions in display order.
func AllConditions() []Condition {
	return []Condition{
		ConditionMint,
		ConditionNearMint,
		ConditionLightPlay,
		ConditionModeratePlay,
		ConditionHeavyPlay,
		ConditionDamaged,
	}
}

// Label returns the display label, or the raw value for unknown conditions.
func (c Condition) Label() string {
	switch c {
	case ConditionMint:
		return "Mint"
	case ConditionNearMint:
		return "Near Mint"
	case ConditionLightPlay:
		return "Light Play"
	case ConditionModeratePlay:
		return "Moderate Play"
	case ConditionHeavyPlay:
		return "Heavy Play"
	case ConditionDamaged:
		return "Damaged"
	}
	return string(c)
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// PurchaseRecord is one acquisition of a collected card.
type PurchaseRecord struct {
	Price    float64    `json:"price"`
	Quantity int        `json:"quantity"`
	Date     *time.Time `json:"date,omitempty"`
}

// MarketData is shared by collection and wishlist entries: the raw sources,
// their aggregate in the settings currency and the aggregate history.
type MarketData struct {
	Market        AggregatedPrice   `json:"market" gorm:"serializer:json"`
	MarketSources []PriceSource     `json:"market_sources" gorm:"serializer:json"`
	PriceHistory  []AggregatedPrice `json:"price_history" gorm:"serializer:json"`
}

// CollectionItem is an owned card. There is one item per card id.
type CollectionItem struct {
	CardID              string           `json:"card_id" gorm:"primaryKey"`
	Card                Card             `json:"card" gorm:"foreignKey:CardID"`
	Quantity            int              `json:"quantity" gorm:"default:1"`
	Condition           Condition        `json:"condition" gorm:"default:'nearMint'"`
	Language            string           `json:"language"`
	Edition             string           `json:"edition" gorm:"default:'standard'"`
	PurchasePrice       *float64         `json:"purchase_price"`
	PurchaseDate        *time.Time       `json:"purchase_date"`
	PurchaseHistory     []PurchaseRecord `json:"purchase_history" gorm:"serializer:json"`
	TargetPrice         *float64         `json:"target_price"`
	TargetPriceCurrency string           `json:"target_price_currency"`
	Priority            Priority         `json:"priority" gorm:"default:'medium'"`
	Notes               string           `json:"notes"`
	MarketData          `gorm:"embedded"`
	AddedAt             time.Time `json:"added_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// WishlistItem is a card the user wants, optionally with a target price.
type WishlistItem struct {
	CardID              string   `json:"card_id" gorm:"primaryKey"`
	Card                Card     `json:"card" gorm:"foreignKey:CardID"`
	Quantity            int      `json:"quantity" gorm:"default:1"`
	TargetPrice         *float64 `json:"target_price"`
	TargetPriceCurrency string   `json:"target_price_currency"`
	Priority            Priority `json:"priority" gorm:"default:'medium'"`
	Notes               string   `json:"notes"`
	MarketData          `gorm:"embedded"`
	AddedAt             time.Time `json:"added_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type AddToCollectionRequest struct {
	CardID        string     `json:"card_id" binding:"required"`
	Quantity      int        `json:"quantity" binding:"omitempty,min=1,max=9999"`
	Condition     Condition  `json:"condition"`
	Language      string     `json:"language"`
	Edition       string     `json:"edition"`
	PurchasePrice *float64   `json:"purchase_price" binding:"omitempty,gte=0"`
	PurchaseDate  *time.Time `json:"purchase_date"`
	TargetPrice   *float64   `json:"target_price" binding:"omitempty,gte=0"`
	Priority      Priority   `json:"priority" binding:"omitempty,oneof=high medium low"`
	Notes         string     `json:"notes"`
}

type UpdateCollectionRequest struct {
	Quantity      int        `json:"quantity" binding:"required,min=1,max=9999"`
	Condition     Condition  `json:"condition"`
	Language      string     `json:"language"`
	Edition       string     `json:"edition"`
	PurchasePrice *float64   `json:"purchase_price" binding:"omitempty,gte=0"`
	PurchaseDate  *time.Time `json:"purchase_date"`
	TargetPrice   *float64   `json:"target_price" binding:"omitempty,gte=0"`
	Priority      Priority   `json:"priority" binding:"omitempty,oneof=high medium low"`
	Notes         string     `json:"notes"`
}

type WishlistRequest struct {
	CardID      string   `json:"card_id"`
	Quantity    int      `json:"quantity" binding:"omitempty,min=1,max=9999"`
	TargetPrice *float64 `json:"target_price" binding:"omitempty,gte=0"`
	Priority    Priority `json:"priority" binding:"omitempty,oneof=high medium low"`
	Notes       *string  `json:"notes"`
}
