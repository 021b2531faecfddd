package models

import (
	"time"
)

// Settings is the single persisted row of user preferences.
type Settings struct {
	ID                uint          `json:"-" gorm:"primaryKey"`
	Currency          string        `json:"currency"`
	ValuationMode     ValuationMode `json:"valuation_mode"`
	USDRate           float64       `json:"usd_rate"`
	GBPRate           float64       `json:"gbp_rate"`
	PriceIntervalDays int           `json:"price_interval_days"`
	LastPriceUpdate   *time.Time    `json:"last_price_update"`
	Notes             string        `json:"notes"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// SettingsUpdate carries a partial settings change. Nil fields are untouched.
type SettingsUpdate struct {
	Currency          *string        `json:"currency"`
	ValuationMode     *ValuationMode `json:"valuation_mode"`
	USDRate           *float64       `json:"usd_rate"`
	GBPRate           *float64       `json:"gbp_rate"`
	PriceIntervalDays *int           `json:"price_interval_days" binding:"omitempty,min=1,max=365"`
	Notes             *string        `json:"notes"`
}
