package services

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/codyseavey/pokefolio/backend/internal/metrics"
	"github.com/codyseavey/pokefolio/backend/internal/models"
)

const setProgressLimit = 10

type DashboardService struct {
	collection *CollectionService
	wishlist   *WishlistService
	settings   *SettingsService
}

func NewDashboardService(collection *CollectionService, wishlist *WishlistService, settings *SettingsService) *DashboardService {
	return &DashboardService{collection: collection, wishlist: wishlist, settings: settings}
}

// Build summarizes the stored collection and wishlist and refreshes the
// collection gauges.
func (s *DashboardService) Build() (*models.Dashboard, error) {
	settings, err := s.settings.Get()
	if err != nil {
		return nil, err
	}
	collection, err := s.collection.List()
	if err != nil {
		return nil, err
	}
	wishlist, err := s.wishlist.List()
	if err != nil {
		return nil, err
	}

	dashboard := BuildDashboard(settings, collection, wishlist)
	metrics.CollectionCardsTotal.Set(float64(dashboard.CardsOwned))
	metrics.CollectionValue.WithLabelValues(dashboard.Currency).Set(dashboard.CollectionValue)
	return dashboard, nil
}

// BuildDashboard computes the dashboard figures from already loaded entries.
func BuildDashboard(settings *models.Settings, collection []models.CollectionItem, wishlist []models.WishlistItem) *models.Dashboard {
	mode := settings.ValuationMode
	d := &models.Dashboard{
		Currency:        settings.Currency,
		ValuationMode:   mode,
		ValuationLabel:  mode.Label(),
		LastPriceUpdate: settings.LastPriceUpdate,
		UniqueCards:     len(collection),
		Alerts:          []models.PriceAlert{},
	}

	total := decimal.Zero
	sets := map[string]bool{}
	for _, item := range collection {
		total = total.Add(decimal.NewFromFloat(EntryValue(item.Market, mode, item.Quantity)))
		d.CardsOwned += item.Quantity
		if item.Card.SetID != "" {
			sets[item.Card.SetID] = true
		}
	}
	d.SetsOwned = len(sets)

	// each wishlist entry counts one copy
	wishValue := decimal.Zero
	for _, item := range wishlist {
		wishValue = wishValue.Add(decimal.NewFromFloat(EntryValue(item.Market, mode, 1)))
		d.WishlistCards += item.Quantity
	}

	d.CollectionValue = total.Round(2).InexactFloat64()
	d.WishlistValue = wishValue.Round(2).InexactFloat64()
	d.FormattedValue = FormatMoney(total, settings.Currency)
	d.SetProgress = setProgress(collection)
	d.Rarities = distribution(collection, func(item models.CollectionItem) string {
		return item.Card.Rarity
	})
	d.Conditions = distribution(collection, func(item models.CollectionItem) string {
		return item.Condition.Label()
	})
	d.Alerts = priceAlerts(settings, collection, wishlist)
	return d
}

func setProgress(collection []models.CollectionItem) []models.SetProgress {
	bySet := map[string]*models.SetProgress{}
	for _, item := range collection {
		card := item.Card
		if card.SetID == "" {
			continue
		}
		p, ok := bySet[card.SetID]
		if !ok {
			p = &models.SetProgress{
				SetID:       card.SetID,
				SetName:     card.SetName,
				ReleaseDate: card.SetReleaseDate,
				Total:       card.SetTotal,
			}
			bySet[card.SetID] = p
		}
		p.Owned += item.Quantity
	}

	progress := make([]models.SetProgress, 0, len(bySet))
	for _, p := range bySet {
		if p.Total > 0 {
			p.Percent = min(100, percent(p.Owned, p.Total))
		}
		progress = append(progress, *p)
	}
	// API release dates are yyyy/mm/dd, so string order is date order
	sort.Slice(progress, func(i, j int) bool {
		if progress[i].ReleaseDate != progress[j].ReleaseDate {
			return progress[i].ReleaseDate > progress[j].ReleaseDate
		}
		return progress[i].SetID < progress[j].SetID
	})
	if len(progress) > setProgressLimit {
		progress = progress[:setProgressLimit]
	}
	return progress
}

// distribution counts copies per label, largest bucket first.
func distribution(collection []models.CollectionItem, label func(models.CollectionItem) string) []models.DistributionBucket {
	counts := map[string]int{}
	total := 0
	for _, item := range collection {
		key := label(item)
		if key == "" {
			key = "Unknown"
		}
		counts[key] += item.Quantity
		total += item.Quantity
	}

	buckets := make([]models.DistributionBucket, 0, len(counts))
	for key, count := range counts {
		buckets = append(buckets, models.DistributionBucket{Label: key, Count: count, Percent: percent(count, total)})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Label < buckets[j].Label
	})
	return buckets
}

// priceAlerts lists entries whose current value is at or below the target.
// Entries without a current value never alert.
func priceAlerts(settings *models.Settings, collection []models.CollectionItem, wishlist []models.WishlistItem) []models.PriceAlert {
	mode := settings.ValuationMode
	alerts := []models.PriceAlert{}

	for _, item := range collection {
		if item.TargetPrice == nil {
			continue
		}
		current := EntryValue(item.Market, mode, item.Quantity)
		if current == 0 || current > *item.TargetPrice {
			continue
		}
		alerts = append(alerts, models.PriceAlert{
			CardID:      item.CardID,
			Name:        item.Card.Name,
			Source:      "collection",
			Current:     current,
			TargetPrice: *item.TargetPrice,
			Message: fmt.Sprintf("%s is at %s, below your target of %s.", item.Card.Name,
				FormatMoneyFloat(current, settings.Currency), FormatMoneyFloat(*item.TargetPrice, settings.Currency)),
		})
	}

	for _, item := range wishlist {
		if item.TargetPrice == nil {
			continue
		}
		current := EntryValue(item.Market, mode, 1)
		if current == 0 || current > *item.TargetPrice {
			continue
		}
		alerts = append(alerts, models.PriceAlert{
			CardID:      item.CardID,
			Name:        item.Card.Name,
			Source:      "wishlist",
			Current:     current,
			TargetPrice: *item.TargetPrice,
			Message: fmt.Sprintf("%s is available for %s (target %s).", item.Card.Name,
				FormatMoneyFloat(current, settings.Currency), FormatMoneyFloat(*item.TargetPrice, settings.Currency)),
		})
	}
	return alerts
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
