package main

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/codyseavey/pokefolio/backend/internal/models"
	"github.com/codyseavey/pokefolio/backend/internal/services"
)

func newConvertCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <amount> <from> <to>",
		Short: "Convert an amount between EUR, USD and GBP",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("strconv.ParseFloat(%q) > %w", args[0], err)
			}
			from := models.NormalizeCurrency(args[1])
			to := models.NormalizeCurrency(args[2])
			for _, code := range []string{from, to} {
				if !slices.Contains(models.AllCurrencies(), code) {
					return fmt.Errorf("%w: %s", services.ErrUnknownCurrency, code)
				}
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			converter, err := newConverter(cfg)
			if err != nil {
				return err
			}

			converted, ok := converter.Convert(amount, from, to)
			if !ok {
				return fmt.Errorf("cannot convert %v", amount)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s = ", services.FormatMoneyFloat(amount, from))
			_, _ = color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), services.FormatMoneyFloat(converted, to))
			return nil
		},
	}
}
