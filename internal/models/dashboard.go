package models

import (
	"time"
)

type Dashboard struct {
	Currency        string               `json:"currency"`
	ValuationMode   ValuationMode        `json:"valuation_mode"`
	ValuationLabel  string               `json:"valuation_label"`
	CollectionValue float64              `json:"collection_value"`
	WishlistValue   float64              `json:"wishlist_value"`
	FormattedValue  string               `json:"formatted_value"`
	SetsOwned       int                  `json:"sets_owned"`
	CardsOwned      int                  `json:"cards_owned"`
	UniqueCards     int                  `json:"unique_cards"`
	WishlistCards   int                  `json:"wishlist_cards"`
	LastPriceUpdate *time.Time           `json:"last_price_update"`
	SetProgress     []SetProgress        `json:"set_progress"`
	Rarities        []DistributionBucket `json:"rarities"`
	Conditions      []DistributionBucket `json:"conditions"`
	Alerts          []PriceAlert         `json:"alerts"`
}

type SetProgress struct {
	SetID       string `json:"set_id"`
	SetName     string `json:"set_name"`
	ReleaseDate string `json:"release_date"`
	Owned       int    `json:"owned"`
	Total       int    `json:"total"`
	Percent     int    `json:"percent"`
}

type DistributionBucket struct {
	Label   string `json:"label"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

// PriceAlert fires when the current value drops to or below the target price.
type PriceAlert struct {
	CardID      string  `json:"card_id"`
	Name        string  `json:"name"`
	Source      string  `json:"source"` // "collection" or "wishlist"
	Current     float64 `json:"current"`
	TargetPrice float64 `json:"target_price"`
	Message     string  `json:"message"`
}
