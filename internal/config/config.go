// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"time"

	apperrors "github.com/trendora/searchsync/pkg/errors"

	pkgconfig "github.com/trendora/searchsync/pkg/config"
)

// Config holds all configuration for the search sync service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"SEARCHSYNC_HTTP_PORT" envDefault:"8020"`

	// Index locales. The first entry must be the default locale, whose
	// documents carry raw untranslated names.
	Locales       []string `env:"SEARCHSYNC_LOCALES" envDefault:"en,ar" envSeparator:","`
	DefaultLocale string   `env:"SEARCHSYNC_DEFAULT_LOCALE" envDefault:"en"`

	// Search backend (elasticsearch or memory)
	SearchBackend     string `env:"SEARCH_BACKEND" envDefault:"elasticsearch"`
	SearchURL         string `env:"SEARCH_URL"`
	SearchAPIKey      string `env:"SEARCH_API_KEY"`
	SearchIndexPrefix string `env:"SEARCH_INDEX_PREFIX" envDefault:"products"`

	// PostgreSQL catalog store
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"catalog"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"catalog_secret"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"catalog"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	// Kafka
	KafkaBrokers  []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	ConsumerGroup string   `env:"SEARCHSYNC_CONSUMER_GROUP" envDefault:"searchsync"`

	// Redis (facet cache and consumer idempotency)
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	FacetCacheTTL time.Duration `env:"SEARCHSYNC_FACET_CACHE_TTL" envDefault:"10m"`

	// Bulk reindex throttling
	ReindexRPS   float64 `env:"SEARCHSYNC_REINDEX_RPS" envDefault:"0.1"`
	ReindexBurst int     `env:"SEARCHSYNC_REINDEX_BURST" envDefault:"1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load searchsync config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants. The elasticsearch backend
// refuses to start without credentials; a half-configured sync service
// silently dropping writes is worse than one that fails fast.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if len(c.Locales) == 0 {
		return apperrors.Misconfigured("SEARCHSYNC_LOCALES")
	}
	if !c.hasLocale(c.DefaultLocale) {
		return fmt.Errorf("default locale %q is not in the locale list", c.DefaultLocale)
	}

	switch c.SearchBackend {
	case "elasticsearch":
		var missing []string
		if c.SearchURL == "" {
			missing = append(missing, "SEARCH_URL")
		}
		if c.SearchAPIKey == "" {
			missing = append(missing, "SEARCH_API_KEY")
		}
		if len(missing) > 0 {
			return apperrors.Misconfigured(missing...)
		}
	case "memory":
	default:
		return fmt.Errorf("unknown search backend %q", c.SearchBackend)
	}

	return nil
}

func (c *Config) hasLocale(locale string) bool {
	for _, l := range c.Locales {
		if l == locale {
			return true
		}
	}
	return false
}

// PostgresDSN returns the catalog database connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSLMode,
	)
}
