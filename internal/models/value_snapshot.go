package models

import (
	"time"
)

// CollectionValueSnapshot stores daily collection value for historical tracking
type CollectionValueSnapshot struct {
	ID            uint          `json:"id" gorm:"primaryKey;autoIncrement"`
	SnapshotDate  time.Time     `json:"snapshot_date" gorm:"uniqueIndex;not null"`
	TotalCards    int           `json:"total_cards"`
	UniqueCards   int           `json:"unique_cards"`
	TotalValue    float64       `json:"total_value"`
	WishlistValue float64       `json:"wishlist_value"`
	Currency      string        `json:"currency"`
	ValuationMode ValuationMode `json:"valuation_mode"`
	CreatedAt     time.Time     `json:"created_at"`
}

// ValueHistoryResponse is the API response for value history
type ValueHistoryResponse struct {
	Snapshots []CollectionValueSnapshot `json:"snapshots"`
	Period    string                    `json:"period"` // "week", "month", "3month", "year", "all"
	// Latest may fall outside the period
	Latest *CollectionValueSnapshot `json:"latest"`
}
