package models

import (
	"strings"
	"time"
)

// Currency codes understood by the converter. EUR is the pivot.
const (
	CurrencyEUR = "EUR"
	CurrencyUSD = "USD"
	CurrencyGBP = "GBP"
)

// AllCurrencies returns the supported currency codes, pivot first.
func AllCurrencies() []string {
	return []string{CurrencyEUR, CurrencyUSD, CurrencyGBP}
}

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValuationMode selects which statistic values a collection.
type ValuationMode string

const (
	ValuationLowest  ValuationMode = "lowest"
	ValuationAverage ValuationMode = "average"
	ValuationHighest ValuationMode = "highest"
)

// IsValid reports whether the mode is one of the known statistics.
func (m ValuationMode) IsValid() bool {
	switch m {
	case ValuationLowest, ValuationAverage, ValuationHighest:
		return true
	}
	return false
}

// Label is the human-readable name of the mode.
func (m ValuationMode) Label() string {
	switch m {
	case ValuationLowest:
		return "Lowest price"
	case ValuationHighest:
		return "Highest price"
	default:
		return "Average price"
	}
}

// PriceSource is one marketplace quote in its own currency. Nil fields mean
// the marketplace did not report that statistic.
type PriceSource struct {
	Source   string   `json:"source"`
	Currency string   `json:"currency"`
	Low      *float64 `json:"low"`
	Average  *float64 `json:"average"`
	High     *float64 `json:"high"`
}

// AggregatedPrice summarizes several sources in one target currency.
// Nil means "no data", which is not the same as a zero price.
type AggregatedPrice struct {
	Lowest     *float64  `json:"lowest"`
	Average    *float64  `json:"average"`
	Highest    *float64  `json:"highest"`
	Currency   string    `json:"currency"`
	ComputedAt time.Time `json:"computed_at"`
}

// Value returns the statistic selected by mode.
func (p AggregatedPrice) Value(mode ValuationMode) *float64 {
	switch mode {
	case ValuationLowest:
		return p.Lowest
	case ValuationHighest:
		return p.Highest
	default:
		return p.Average
	}
}

// HasData reports whether any statistic is present.
func (p AggregatedPrice) HasData() bool {
	return p.Lowest != nil || p.Average != nil || p.Highest != nil
}

// Float returns a pointer to v, for building optional price fields.
func Float(v float64) *float64 {
	return &v
}
