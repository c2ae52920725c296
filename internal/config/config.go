// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Crawler CrawlerConfig `mapstructure:"crawler"`
	DB      DBConfig      `mapstructure:"db"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig governs access to the upstream ranked-game API.
type APIConfig struct {
	BaseURL                string `mapstructure:"base_url"`
	Key                    string `mapstructure:"key"`
	TimeoutSeconds         int    `mapstructure:"timeout_seconds"`
	CallDelayMs            int    `mapstructure:"call_delay_ms"`
	MaxAttempts            int    `mapstructure:"max_attempts"`
	BackoffFallbackSeconds int    `mapstructure:"backoff_fallback_seconds"`
}

// CrawlerConfig governs the crawl pipeline itself.
type CrawlerConfig struct {
	Region               string `mapstructure:"region"`
	MatchIDsPerPlayer    int    `mapstructure:"match_ids_per_player"`
	ParticipantsPerMatch int    `mapstructure:"participants_per_match"`
	PrimaryQueue         string `mapstructure:"primary_queue"`
	// SeedPages caps low-tier paging per division; 0 pages until the
	// upstream returns an empty page.
	SeedPages int `mapstructure:"seed_pages"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	Provider string `mapstructure:"provider"`
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// MetricsConfig controls the Prometheus listener.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "https://api.rankedarena.gg")
	// Registered empty so AutomaticEnv can fill them from CRAWLER_API_KEY
	// and CRAWLER_DB_DSN without a config file.
	v.SetDefault("api.key", "")
	v.SetDefault("db.dsn", "")
	v.SetDefault("api.timeout_seconds", 15)
	v.SetDefault("api.call_delay_ms", 1250)
	v.SetDefault("api.max_attempts", 3)
	v.SetDefault("api.backoff_fallback_seconds", 5)
	v.SetDefault("crawler.region", "global")
	v.SetDefault("crawler.match_ids_per_player", 20)
	v.SetDefault("crawler.participants_per_match", 8)
	v.SetDefault("crawler.primary_queue", "RANKED")
	v.SetDefault("crawler.seed_pages", 1)
	v.SetDefault("db.provider", "postgres")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.addr", ":9120")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must be set")
	}
	if c.API.Key == "" {
		return fmt.Errorf("api.key must be set")
	}
	if c.API.TimeoutSeconds <= 0 {
		return fmt.Errorf("api.timeout_seconds must be > 0")
	}
	if c.API.CallDelayMs < 0 {
		return fmt.Errorf("api.call_delay_ms must be >= 0")
	}
	if c.API.MaxAttempts <= 0 {
		return fmt.Errorf("api.max_attempts must be > 0")
	}
	if c.Crawler.MatchIDsPerPlayer <= 0 {
		return fmt.Errorf("crawler.match_ids_per_player must be > 0")
	}
	if c.Crawler.ParticipantsPerMatch <= 0 {
		return fmt.Errorf("crawler.participants_per_match must be > 0")
	}
	if c.Crawler.PrimaryQueue == "" {
		return fmt.Errorf("crawler.primary_queue must be set")
	}
	if c.Crawler.SeedPages < 0 {
		return fmt.Errorf("crawler.seed_pages must be >= 0 (0 pages until exhausted)")
	}
	switch c.DB.Provider {
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set when db.provider is postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown db.provider %q", c.DB.Provider)
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr must be set when metrics are enabled")
	}
	return nil
}

// RequestTimeout converts the API timeout config into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// CallDelay converts the inter-call delay config into a duration.
func (c Config) CallDelay() time.Duration {
	return time.Duration(c.API.CallDelayMs) * time.Millisecond
}

// BackoffFallback converts the throttle-backoff fallback into a duration.
func (c Config) BackoffFallback() time.Duration {
	return time.Duration(c.API.BackoffFallbackSeconds) * time.Second
}
