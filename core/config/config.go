// Package config loads the service configuration from the environment and
// the genesis document that seeds the ledger.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the service configuration.
type Config struct {
	ServiceName     string `env:"FEELEDGER_SERVICE_NAME" envDefault:"feeledger"`
	TracingEndpoint string `env:"FEELEDGER_TRACING_ENDPOINT"`
	Genesis         string `env:"FEELEDGER_GENESIS"`
	LoggingLevel    string `env:"FEELEDGER_LOGGING_LEVEL" envDefault:"warning"`
	LoggingFormat   string `env:"FEELEDGER_LOGGING_FORMAT" envDefault:"text"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load returns the configuration read from the environment.
func Load() (*Config, error) {
	cfg := new(Config)
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
