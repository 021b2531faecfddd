package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/codyseavey/pokefolio/backend/internal/models"
	"github.com/codyseavey/pokefolio/backend/internal/services"
)

func newSearchCommand() *cobra.Command {
	var filter models.SearchFilter

	cmd := &cobra.Command{
		Use:   "search [name]",
		Short: "Search cards by name and filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter.Query = strings.Join(args, " ")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			api := newCardAPI(cfg)
			cache := services.NewSearchCache(cfg.Search.CacheEntries, cfg.Search.CacheTTL, time.Now)
			search := services.NewSearchService(api, cache, services.NewCardCache(api, nil, cfg.Search.CardCacheMax), cfg.Search.PageSize)
			defer search.Close()

			outcome, err := search.Search(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("search.Search(%q) > %w", filter.Query, err)
			}
			printCards(cmd.OutOrStdout(), outcome.Cards)
			if outcome.TotalCount > len(outcome.Cards) {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "showing %d of %d cards\n", len(outcome.Cards), outcome.TotalCount)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.SetID, "set", "", "set id, e.g. sv1")
	cmd.Flags().StringVar(&filter.Series, "series", "", "series name")
	cmd.Flags().StringVar(&filter.Type, "type", "", "energy type")
	cmd.Flags().StringVar(&filter.Supertype, "supertype", "", "Pokémon, Trainer or Energy")
	cmd.Flags().StringVar(&filter.Rarity, "rarity", "", "rarity")
	cmd.Flags().StringVar(&filter.Regulation, "regulation", "", "regulation mark")
	cmd.Flags().StringVar(&filter.Artist, "artist", "", "artist name")
	cmd.Flags().StringVar(&filter.Year, "year", "", "release year")
	cmd.Flags().StringVar(&filter.Sort, "sort", "", "sort order")
	return cmd
}

func printCards(w io.Writer, cards []models.Card) {
	if len(cards) == 0 {
		_, _ = color.New(color.FgRed).Fprintln(w, "No cards found")
		return
	}
	for _, card := range cards {
		_, _ = color.New(color.FgGreen).Fprintf(w, "%-16s", card.ID)
		_, _ = fmt.Fprintf(w, " %s (%s %s)\n", card.Name, card.SetName, card.Number)
	}
}
