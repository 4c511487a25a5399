package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// User store backends.
const (
	StoreMongo  = "mongo"
	StoreSheets = "sheets"
	StoreMemory = "memory"
)

// Config holds the server-level configuration. Component-specific settings
// (SMTP, Twilio, Google Sheets) are parsed by their own packages.
type Config struct {
	HTTPAddr  string `env:"HTTP_ADDR"  envDefault:":8080"`
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	UserStore string `env:"USER_STORE" envDefault:"mongo"`
	MongoURL  string `env:"MONGO_URL"`
	DBName    string `env:"DB_NAME"    envDefault:"lockedin"`
}

// Load parses the configuration from environment variables.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.UserStore {
	case StoreMongo:
		if c.MongoURL == "" {
			return fmt.Errorf("missing MONGO_URL environment variable")
		}
	case StoreSheets, StoreMemory:
	default:
		return fmt.Errorf("unknown USER_STORE %q", c.UserStore)
	}

	return nil
}
