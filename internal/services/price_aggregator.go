package services

import (
	"math"
	"sort"
	"time"

	"github.com/codyseavey/pokefolio/backend/internal/models"
)

// Marketplace source names.
const (
	SourceTCGPlayerPrefix = "TCGplayer"
	SourceCardmarket      = "Cardmarket"
)

// PriceAggregator folds per-marketplace quotes into one summary in a target
// currency.
type PriceAggregator struct {
	converter *CurrencyConverter
	now       func() time.Time
}

// NewPriceAggregator creates an aggregator. A nil clock uses time.Now.
func NewPriceAggregator(converter *CurrencyConverter, now func() time.Time) *PriceAggregator {
	if now == nil {
		now = time.Now
	}
	return &PriceAggregator{converter: converter, now: now}
}

// Converter returns the converter used for aggregation.
func (a *PriceAggregator) Converter() *CurrencyConverter {
	return a.converter
}

// AggregatePriceSources converts every present statistic to target and
// reduces lows to their minimum, highs to their maximum and averages to their
// arithmetic mean. Absent statistics contribute nothing.
func (a *PriceAggregator) AggregatePriceSources(sources []models.PriceSource, target string) models.AggregatedPrice {
	target = models.NormalizeCurrency(target)

	var lowest, highest *float64
	var averageSum float64
	averageCount := 0

	for _, src := range sources {
		if v, ok := a.convert(src.Low, src.Currency, target); ok {
			if lowest == nil || v < *lowest {
				lowest = models.Float(v)
			}
		}
		if v, ok := a.convert(src.Average, src.Currency, target); ok {
			averageSum += v
			averageCount++
		}
		if v, ok := a.convert(src.High, src.Currency, target); ok {
			if highest == nil || v > *highest {
				highest = models.Float(v)
			}
		}
	}

	var average *float64
	if averageCount > 0 {
		average = models.Float(averageSum / float64(averageCount))
	}

	return models.AggregatedPrice{
		Lowest:     lowest,
		Average:    average,
		Highest:    highest,
		Currency:   target,
		ComputedAt: a.now(),
	}
}

func (a *PriceAggregator) convert(v *float64, from, to string) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	return a.converter.Convert(*v, from, to)
}

// ExtractMarketPrices turns the market blocks of a card into price sources:
// one USD source per TCGplayer variant, then one EUR Cardmarket source.
// Variants are ordered by name so results are stable.
func ExtractMarketPrices(card *models.Card) []models.PriceSource {
	sources := []models.PriceSource{}
	if card == nil {
		return sources
	}

	if card.TCGPlayer != nil && len(card.TCGPlayer.Prices) > 0 {
		variants := make([]string, 0, len(card.TCGPlayer.Prices))
		for variant := range card.TCGPlayer.Prices {
			variants = append(variants, variant)
		}
		sort.Strings(variants)

		for _, variant := range variants {
			band := card.TCGPlayer.Prices[variant]
			sources = append(sources, models.PriceSource{
				Source:   SourceTCGPlayerPrefix + " " + variant,
				Currency: models.CurrencyUSD,
				Low:      band.Low,
				Average:  firstPresent(band.Market, band.Mid),
				High:     band.High,
			})
		}
	}

	if cm := card.Cardmarket; cm != nil && (cm.LowPrice != nil || cm.TrendPrice != nil || cm.Avg30 != nil) {
		sources = append(sources, models.PriceSource{
			Source:   SourceCardmarket,
			Currency: models.CurrencyEUR,
			Low:      firstPresent(cm.LowPrice, cm.TrendPrice),
			Average:  cm.TrendPrice,
			High:     firstPresent(cm.Avg30, cm.TrendPrice),
		})
	}

	return sources
}

// MarketPrice extracts the sources of a card and aggregates them in target.
func (a *PriceAggregator) MarketPrice(card *models.Card, target string) (models.AggregatedPrice, []models.PriceSource) {
	sources := ExtractMarketPrices(card)
	return a.AggregatePriceSources(sources, target), sources
}

func firstPresent(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
