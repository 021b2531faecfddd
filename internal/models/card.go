package models

import (
	"time"
)

// Card is the normalized summary of one card from the Pokemon TCG API.
// Market blocks are kept verbatim so prices can be re-aggregated later
// without another round-trip.
type Card struct {
	ID             string            `json:"id" gorm:"primaryKey"`
	Name           string            `json:"name" gorm:"not null;index"`
	Number         string            `json:"number"`
	Supertype      string            `json:"supertype"`
	Subtypes       []string          `json:"subtypes" gorm:"serializer:json"`
	Types          []string          `json:"types" gorm:"serializer:json"`
	Rarity         string            `json:"rarity"`
	Artist         string            `json:"artist"`
	RegulationMark string            `json:"regulation_mark"`
	SetID          string            `json:"set_id" gorm:"index"`
	SetName        string            `json:"set_name"`
	SetSeries      string            `json:"set_series"`
	SetReleaseDate string            `json:"set_release_date"`
	SetTotal       int               `json:"set_total"`
	ImageURL       string            `json:"image_url"`
	ImageURLLarge  string            `json:"image_url_large"`
	TCGPlayer      *TCGPlayerMarket  `json:"tcgplayer,omitempty" gorm:"serializer:json"`
	Cardmarket     *CardmarketMarket `json:"cardmarket,omitempty" gorm:"serializer:json"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// TCGPlayerMarket holds the per-variant USD quotes (normal, holofoil, ...).
type TCGPlayerMarket struct {
	URL       string                        `json:"url"`
	UpdatedAt string                        `json:"updated_at"`
	Prices    map[string]TCGPlayerPriceBand `json:"prices"`
}

// TCGPlayerPriceBand fields are pointers because the API omits them freely.
type TCGPlayerPriceBand struct {
	Low    *float64 `json:"low,omitempty"`
	Mid    *float64 `json:"mid,omitempty"`
	High   *float64 `json:"high,omitempty"`
	Market *float64 `json:"market,omitempty"`
}

// CardmarketMarket holds the EUR quotes reported by Cardmarket.
type CardmarketMarket struct {
	URL        string   `json:"url"`
	UpdatedAt  string   `json:"updated_at"`
	LowPrice   *float64 `json:"low_price,omitempty"`
	TrendPrice *float64 `json:"trend_price,omitempty"`
	Avg30      *float64 `json:"avg30,omitempty"`
}

// IsBasicEnergy reports whether deck copy limits are lifted for this card.
func (c *Card) IsBasicEnergy() bool {
	if c.Supertype != "Energy" {
		return false
	}
	for _, s := range c.Subtypes {
		if s == "Basic" {
			return true
		}
	}
	return false
}

// DetailsURL links to the public card page.
func (c *Card) DetailsURL() string {
	return "https://pokemontcg.io/card/" + c.ID
}

type CardSearchResult struct {
	Cards      []Card `json:"cards"`
	TotalCount int    `json:"total_count"`
	HasMore    bool   `json:"has_more"`
}

// CardSet is a reference entry from the /sets endpoint.
type CardSet struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Series      string `json:"series"`
	Total       int    `json:"total"`
	ReleaseDate string `json:"release_date"`
	SymbolURL   string `json:"symbol_url"`
	LogoURL     string `json:"logo_url"`
}
