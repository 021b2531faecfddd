package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/codyseavey/pokefolio/backend/internal/services"
)

func newIdentifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "identify [recognized text]",
		Short: "Match OCR text against the card database; reads stdin without arguments",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if text == "" {
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("io.ReadAll() > %w", err)
				}
				text = string(raw)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			matcher := services.NewOCRMatcher(newCardAPI(cfg), services.StaticRecognizer{}, cfg.Scan.MaxResults)
			result, err := matcher.FindCards(cmd.Context(), text)
			if err != nil {
				return fmt.Errorf("matcher.FindCards() > %w", err)
			}

			out := cmd.OutOrStdout()
			if len(result.Phrases) > 0 {
				_, _ = fmt.Fprintf(out, "phrases: %s\n", strings.Join(result.Phrases, ", "))
			}
			if result.NumberFallback != "" {
				_, _ = color.New(color.FgYellow).Fprintf(out, "matched by collector number %s\n", result.NumberFallback)
			}
			printCards(out, result.Cards)
			return nil
		},
	}
}
