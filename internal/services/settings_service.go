package services

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/codyseavey/pokefolio/backend/internal/models"
)

const (
	settingsRowID            = 1
	DefaultPriceIntervalDays = 7
)

// DefaultSettings are used when nothing is stored yet.
func DefaultSettings() models.Settings {
	return models.Settings{
		ID:                settingsRowID,
		Currency:          models.CurrencyEUR,
		ValuationMode:     models.ValuationAverage,
		USDRate:           DefaultUSDRate,
		GBPRate:           DefaultGBPRate,
		PriceIntervalDays: DefaultPriceIntervalDays,
	}
}

// SettingsService owns the single settings row and keeps the shared
// currency converter in sync with the stored rates.
type SettingsService struct {
	db         *gorm.DB
	aggregator *PriceAggregator
	defaults   models.Settings

	mu sync.Mutex
}

func NewSettingsService(db *gorm.DB, aggregator *PriceAggregator, defaults models.Settings) *SettingsService {
	defaults.ID = settingsRowID
	return &SettingsService{db: db, aggregator: aggregator, defaults: defaults}
}

// Get returns the stored settings, creating them from the defaults on first use.
func (s *SettingsService) Get() (*models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *SettingsService) loadLocked() (*models.Settings, error) {
	var settings models.Settings
	err := s.db.First(&settings, settingsRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = s.defaults
		if err := s.db.Create(&settings).Error; err != nil {
			return nil, fmt.Errorf("failed to create settings: %w", err)
		}
		log.Printf("Settings: initialized defaults (currency %s, valuation %s)", settings.Currency, settings.ValuationMode)
	} else if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	s.applyRates(settings)
	return &settings, nil
}

// Update validates and applies a partial change. Changing the currency or
// a rate converts every target price and re-aggregates every market price.
func (s *SettingsService) Update(upd models.SettingsUpdate) (*models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	next := *current

	if upd.Currency != nil {
		code := models.NormalizeCurrency(*upd.Currency)
		if !IsSupportedCurrency(code) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCurrency, *upd.Currency)
		}
		next.Currency = code
	}
	if upd.ValuationMode != nil {
		if !upd.ValuationMode.IsValid() {
			return nil, fmt.Errorf("%w: valuation mode %q", ErrInvalidSettings, *upd.ValuationMode)
		}
		next.ValuationMode = *upd.ValuationMode
	}
	if upd.USDRate != nil {
		if !validRate(*upd.USDRate) {
			return nil, fmt.Errorf("%w: USD %v", ErrInvalidRate, *upd.USDRate)
		}
		next.USDRate = *upd.USDRate
	}
	if upd.GBPRate != nil {
		if !validRate(*upd.GBPRate) {
			return nil, fmt.Errorf("%w: GBP %v", ErrInvalidRate, *upd.GBPRate)
		}
		next.GBPRate = *upd.GBPRate
	}
	if upd.PriceIntervalDays != nil {
		if *upd.PriceIntervalDays < 1 {
			return nil, fmt.Errorf("%w: price interval %d", ErrInvalidSettings, *upd.PriceIntervalDays)
		}
		next.PriceIntervalDays = *upd.PriceIntervalDays
	}
	if upd.Notes != nil {
		next.Notes = *upd.Notes
	}

	revalue := next.Currency != current.Currency ||
		next.USDRate != current.USDRate ||
		next.GBPRate != current.GBPRate

	s.applyRates(next)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&next).Error; err != nil {
			return err
		}
		if revalue {
			return revalueEntries(tx, s.aggregator, next.Currency)
		}
		return nil
	})
	if err != nil {
		s.applyRates(*current)
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}

	if revalue {
		log.Printf("Settings: revalued entries in %s (USD %.4f, GBP %.4f)", next.Currency, next.USDRate, next.GBPRate)
	}
	return &next, nil
}

// Reset restores the defaults, keeping the last price update time.
func (s *SettingsService) Reset() (*models.Settings, error) {
	d := s.defaults
	notes := d.Notes
	return s.Update(models.SettingsUpdate{
		Currency:          &d.Currency,
		ValuationMode:     &d.ValuationMode,
		USDRate:           &d.USDRate,
		GBPRate:           &d.GBPRate,
		PriceIntervalDays: &d.PriceIntervalDays,
		Notes:             &notes,
	})
}

// MarkPriceUpdate records when prices were last refreshed.
func (s *SettingsService) MarkPriceUpdate(at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.loadLocked(); err != nil {
		return err
	}
	return s.db.Model(&models.Settings{}).
		Where("id = ?", settingsRowID).
		Update("last_price_update", at).Error
}

func (s *SettingsService) applyRates(settings models.Settings) {
	converter := s.aggregator.Converter()
	if err := converter.SetRate(models.CurrencyUSD, settings.USDRate); err != nil {
		log.Printf("Settings: ignoring stored USD rate: %v", err)
	}
	if err := converter.SetRate(models.CurrencyGBP, settings.GBPRate); err != nil {
		log.Printf("Settings: ignoring stored GBP rate: %v", err)
	}
}

func validRate(rate float64) bool {
	return !math.IsNaN(rate) && !math.IsInf(rate, 0) && rate > 0
}
