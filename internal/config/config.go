package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	PostgresURL         string `mapstructure:"POSTGRES_URL"`
	RedisAddr           string `mapstructure:"REDIS_ADDR"`
	ServerPort          string `mapstructure:"SERVER_PORT"`
	MarketplaceURL      string `mapstructure:"MARKETPLACE_URL"`
	InputFile           string `mapstructure:"INPUT_FILE"`
	OutputDir           string `mapstructure:"OUTPUT_DIR"`
	MaxPages            int    `mapstructure:"MAX_PAGES"`
	ProximityThreshold  int    `mapstructure:"PROXIMITY_THRESHOLD_PX"`
	RankMode            string `mapstructure:"RANK_MODE"` // "absolute" or "class"
	TrackWorkers        int    `mapstructure:"TRACK_WORKERS"`
	MaxRetries          int    `mapstructure:"MAX_RETRIES"`
	FetchTimeout        int    `mapstructure:"FETCH_TIMEOUT"` // seconds
	PageDelay           int    `mapstructure:"PAGE_DELAY"`    // seconds between result pages
	RequestsPerMinute   int    `mapstructure:"REQUESTS_PER_MINUTE"`
	DeduplicationHours  int    `mapstructure:"DEDUPLICATION_HOURS"`
	UseBrowser          bool   `mapstructure:"USE_BROWSER"`
}

// Load reads configuration from file or environment variables.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present.
	// This allows configuration purely through environment variables.
	_ = viper.ReadInConfig()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("MARKETPLACE_URL", "https://www.amazon.co.jp/")
	viper.SetDefault("INPUT_FILE", "input.csv")
	viper.SetDefault("OUTPUT_DIR", "output")
	viper.SetDefault("MAX_PAGES", 3)
	viper.SetDefault("PROXIMITY_THRESHOLD_PX", 200)
	viper.SetDefault("RANK_MODE", "absolute")
	viper.SetDefault("TRACK_WORKERS", 4)
	viper.SetDefault("MAX_RETRIES", 2)
	viper.SetDefault("FETCH_TIMEOUT", 30)
	viper.SetDefault("PAGE_DELAY", 2)
	viper.SetDefault("REQUESTS_PER_MINUTE", 20)
	viper.SetDefault("DEDUPLICATION_HOURS", 12)
	viper.SetDefault("USE_BROWSER", true)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.RankMode != "absolute" && cfg.RankMode != "class" {
		return nil, fmt.Errorf("invalid RANK_MODE %q: want absolute or class", cfg.RankMode)
	}
	if cfg.MaxPages < 1 {
		return nil, fmt.Errorf("MAX_PAGES must be at least 1, got %d", cfg.MaxPages)
	}
	return &cfg, nil
}
