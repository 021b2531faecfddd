package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codyseavey/pokefolio/backend/internal/config"
	"github.com/codyseavey/pokefolio/backend/internal/services"
)

var (
	configFile string
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if _, fprintfErr := fmt.Fprintf(os.Stderr, "failed to execute a command: %+v\n", err); fprintfErr != nil {
			panic(fmt.Errorf("failed to output an error: %w. Reason: %w", err, fprintfErr))
		}
		os.Exit(1)
	}
	os.Exit(0)
}

func newRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:           "pokefolio",
		Short:         "Search, identify and price Pokemon cards from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCommand.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	rootCommand.AddCommand(
		newSearchCommand(),
		newIdentifyCommand(),
		newConvertCommand(),
		newRefreshPricesCommand(),
	)
	return rootCommand
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("config.Load() > %w", err)
	}
	return cfg, nil
}

func newCardAPI(cfg *config.Config) *services.PokemonTCGService {
	return services.NewPokemonTCGService(services.PokemonTCGOptions{
		BaseURL:           cfg.API.BaseURL,
		APIKey:            cfg.API.Key,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Burst:             cfg.API.Burst,
		Timeout:           cfg.API.Timeout,
	})
}

// newConverter seeds a converter with the configured default rates.
func newConverter(cfg *config.Config) (*services.CurrencyConverter, error) {
	converter := services.NewCurrencyConverter()
	if err := converter.SetRate("USD", cfg.Settings.USDRate); err != nil {
		return nil, err
	}
	if err := converter.SetRate("GBP", cfg.Settings.GBPRate); err != nil {
		return nil, err
	}
	return converter, nil
}
