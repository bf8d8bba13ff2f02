package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load populates cfg from environment variables using `env` struct tags.
//
// Example:
//
//	type Config struct {
//	    HTTPPort int      `env:"HTTP_PORT" envDefault:"8080"`
//	    Locales  []string `env:"SEARCH_LOCALES" envDefault:"en" envSeparator:","`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}
