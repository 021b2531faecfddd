package services

import (
	"fmt"
	"math"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codyseavey/pokefolio/backend/internal/models"
)

// EntryValue is the value of quantity copies at the selected statistic.
// Missing prices count as zero.
func EntryValue(price models.AggregatedPrice, mode models.ValuationMode, quantity int) float64 {
	v := price.Value(mode)
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0
	}
	return *v * float64(quantity)
}

// revalueEntries converts every target price into currency and rebuilds
// every market aggregate from its stored sources.
func revalueEntries(tx *gorm.DB, aggregator *PriceAggregator, currency string) error {
	err := revalueTable(tx, "collection", func(item *models.CollectionItem) string {
		revalueMarket(aggregator, &item.MarketData, &item.TargetPrice, &item.TargetPriceCurrency, currency)
		return item.CardID
	})
	if err != nil {
		return err
	}
	return revalueTable(tx, "wishlist", func(item *models.WishlistItem) string {
		revalueMarket(aggregator, &item.MarketData, &item.TargetPrice, &item.TargetPriceCurrency, currency)
		return item.CardID
	})
}

// revalueTable applies revalue to every row of T and saves it. revalue
// returns the card id used in error messages.
func revalueTable[T models.CollectionItem | models.WishlistItem](tx *gorm.DB, kind string, revalue func(*T) string) error {
	var entries []T
	if err := tx.Find(&entries).Error; err != nil {
		return fmt.Errorf("load %s: %w", kind, err)
	}
	for i := range entries {
		id := revalue(&entries[i])
		if err := tx.Omit(clause.Associations).Save(&entries[i]).Error; err != nil {
			return fmt.Errorf("save %s entry %s: %w", kind, id, err)
		}
	}
	return nil
}

// revalueMarket moves one entry into currency. Entries without stored
// sources keep their aggregate.
func revalueMarket(aggregator *PriceAggregator, market *models.MarketData, target **float64, targetCurrency *string, currency string) {
	*target, *targetCurrency = convertTarget(aggregator.Converter(), *target, *targetCurrency, currency)
	if len(market.MarketSources) > 0 {
		market.Market = aggregator.AggregatePriceSources(market.MarketSources, currency)
	}
}

// convertTarget moves a target price into currency. Targets without a
// recorded currency are left alone.
func convertTarget(converter *CurrencyConverter, target *float64, from, to string) (*float64, string) {
	if target == nil || from == "" || from == to {
		return target, from
	}
	converted, ok := converter.Convert(*target, from, to)
	if !ok {
		return nil, ""
	}
	return models.Float(converted), to
}
