package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	API      APIConfig      `mapstructure:"api"`
	Search   SearchConfig   `mapstructure:"search"`
	Scan     ScanConfig     `mapstructure:"scan"`
	Settings SettingsConfig `mapstructure:"settings"`
}

type ServerConfig struct {
	Port             string   `mapstructure:"port" validate:"required,numeric"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	FrontendDistPath string   `mapstructure:"frontend_dist_path"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// APIConfig configures the Pokemon TCG API client. An empty key means the
// public rate limits apply.
type APIConfig struct {
	BaseURL           string        `mapstructure:"base_url" validate:"required,url"`
	Key               string        `mapstructure:"key"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gt=0"`
	Burst             int           `mapstructure:"burst" validate:"min=1"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type SearchConfig struct {
	PageSize     int           `mapstructure:"page_size" validate:"min=1,max=250"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl" validate:"gt=0"`
	CacheEntries int           `mapstructure:"cache_entries" validate:"min=1"`
	CardCacheMax int           `mapstructure:"card_cache_entries" validate:"min=1"`
}

type ScanConfig struct {
	MaxResults int `mapstructure:"max_results" validate:"min=8,max=10"`
}

// SettingsConfig seeds the persisted user settings on first start.
type SettingsConfig struct {
	Currency          string  `mapstructure:"currency" validate:"oneof=EUR USD GBP"`
	ValuationMode     string  `mapstructure:"valuation_mode" validate:"oneof=lowest average highest"`
	USDRate           float64 `mapstructure:"usd_rate" validate:"gt=0"`
	GBPRate           float64 `mapstructure:"gbp_rate" validate:"gt=0"`
	PriceIntervalDays int     `mapstructure:"price_interval_days" validate:"min=1,max=365"`
}

// Load reads configuration from an optional config file, POKEFOLIO_* environment
// variables and defaults. An empty configFile searches the usual locations.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.pokefolio")
	}

	v.SetEnvPrefix("POKEFOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("server.frontend_dist_path", "")

	v.SetDefault("database.path", "./pokefolio.db")

	v.SetDefault("api.base_url", "https://api.pokemontcg.io/v2")
	v.SetDefault("api.key", "")
	v.SetDefault("api.requests_per_second", 2.0)
	v.SetDefault("api.burst", 4)
	v.SetDefault("api.timeout", "30s")

	v.SetDefault("search.page_size", 48)
	v.SetDefault("search.cache_ttl", "5m")
	v.SetDefault("search.cache_entries", 20)
	v.SetDefault("search.card_cache_entries", 500)

	v.SetDefault("scan.max_results", 10)

	v.SetDefault("settings.currency", "EUR")
	v.SetDefault("settings.valuation_mode", "average")
	v.SetDefault("settings.usd_rate", 0.92)
	v.SetDefault("settings.gbp_rate", 1.16)
	v.SetDefault("settings.price_interval_days", 7)
}

// Validate checks the struct tags and reports every failing field by its
// config key.
func Validate(cfg *Config) error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		key := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s (got %v)", key, fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s (got %v)", key, fe.Tag(), fe.Value()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
