package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/codyseavey/pokefolio/backend/internal/database"
	"github.com/codyseavey/pokefolio/backend/internal/models"
	"github.com/codyseavey/pokefolio/backend/internal/services"
)

func newRefreshPricesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh-prices",
		Short: "Refresh market prices of every collection and wishlist entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := database.Open(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("database.Open(%s) > %w", cfg.Database.Path, err)
			}

			api := newCardAPI(cfg)
			aggregator := services.NewPriceAggregator(services.NewCurrencyConverter(), time.Now)
			settings := services.NewSettingsService(db, aggregator, models.Settings{
				Currency:          cfg.Settings.Currency,
				ValuationMode:     models.ValuationMode(cfg.Settings.ValuationMode),
				USDRate:           cfg.Settings.USDRate,
				GBPRate:           cfg.Settings.GBPRate,
				PriceIntervalDays: cfg.Settings.PriceIntervalDays,
			})
			prices := services.NewPriceService(db, services.NewCardCache(api, db, cfg.Search.CardCacheMax), aggregator, settings)

			summary, err := prices.RefreshAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("prices.RefreshAll() > %w", err)
			}

			out := cmd.OutOrStdout()
			_, _ = color.New(color.FgGreen).Fprintf(out, "updated %d\n", summary.Updated)
			if summary.Missing > 0 {
				_, _ = color.New(color.FgYellow).Fprintf(out, "no price data for %d\n", summary.Missing)
			}
			if summary.Failed > 0 {
				_, _ = color.New(color.FgRed).Fprintf(out, "failed %d\n", summary.Failed)
			}
			return nil
		},
	}
}
