package services

import (
	"fmt"
	"math"
	"sync"

	"github.com/codyseavey/pokefolio/backend/internal/models"
)

// Default quote rates: one unit of the quote currency in EUR.
const (
	DefaultUSDRate = 0.92
	DefaultGBPRate = 1.16
)

// CurrencyConverter converts amounts through the EUR pivot using a small,
// user-editable rate table.
type CurrencyConverter struct {
	mu    sync.RWMutex
	rates map[string]float64
}

// NewCurrencyConverter returns a converter seeded with the default rates.
func NewCurrencyConverter() *CurrencyConverter {
	return &CurrencyConverter{
		rates: map[string]float64{
			models.CurrencyEUR: 1,
			models.CurrencyUSD: DefaultUSDRate,
			models.CurrencyGBP: DefaultGBPRate,
		},
	}
}

// Convert converts amount from one currency to another. It reports false when
// the amount is not a finite number. Identical codes pass the amount through
// untouched; codes outside the table are treated as the pivot.
func (c *CurrencyConverter) Convert(amount float64, from, to string) (float64, bool) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, false
	}

	from = models.NormalizeCurrency(from)
	to = models.NormalizeCurrency(to)
	if from == to {
		return amount, true
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	pivot := amount * c.rateLocked(from)
	return pivot / c.rateLocked(to), true
}

// SetRate replaces the rate of a quote currency. Non-finite, zero or negative
// rates are rejected and the previous rate is kept. The pivot cannot be changed.
func (c *CurrencyConverter) SetRate(code string, rate float64) error {
	code = models.NormalizeCurrency(code)
	if code == models.CurrencyEUR {
		return fmt.Errorf("%w: %s is the pivot currency", ErrInvalidRate, code)
	}
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRate, rate)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.rates[code]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCurrency, code)
	}
	c.rates[code] = rate
	return nil
}

// Rate returns the current rate of code, or 1 for unknown codes.
func (c *CurrencyConverter) Rate(code string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rateLocked(models.NormalizeCurrency(code))
}

// Rates returns a snapshot of the rate table.
func (c *CurrencyConverter) Rates() map[string]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]float64, len(c.rates))
	for k, v := range c.rates {
		out[k] = v
	}
	return out
}

func (c *CurrencyConverter) rateLocked(code string) float64 {
	if rate, ok := c.rates[code]; ok {
		return rate
	}
	return 1
}

// IsSupportedCurrency reports whether code is in the rate table.
func IsSupportedCurrency(code string) bool {
	code = models.NormalizeCurrency(code)
	for _, c := range models.AllCurrencies() {
		if c == code {
			return true
		}
	}
	return false
}
