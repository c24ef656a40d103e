// Package config loads service settings from the environment, with an
// optional .env file for local runs.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/eaglebank/transfer-service/internal/transfer"
	"github.com/joho/godotenv"
)

// Transfer log backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type Config struct {
	Port            string `env:"PORT" envDefault:"8085"`
	DatabaseURL     string `env:"DATABASE_URL"`
	RedisAddr       string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisDB         int    `env:"REDIS_DB" envDefault:"0"`
	TransferStore   string `env:"TRANSFER_STORE"`
	AccountSeedFile string `env:"ACCOUNT_SEED_FILE"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
	JWTSecret       string `env:"JWT_SECRET,required,notEmpty"`

	RetryMaxAttempts int           `env:"TRANSFER_RETRY_MAX_ATTEMPTS" envDefault:"51"`
	RetryDelay       time.Duration `env:"TRANSFER_RETRY_DELAY" envDefault:"1ms"`
}

// Load reads envFile (if present) and then the process environment.
// Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.TransferStore == "" {
		cfg.TransferStore = StoreMemory
		if cfg.DatabaseURL != "" {
			cfg.TransferStore = StorePostgres
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.TransferStore {
	case StoreMemory, StoreRedis:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("TRANSFER_STORE=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown TRANSFER_STORE %q", c.TransferStore)
	}
	if err := c.RetryPolicy().Validate(); err != nil {
		return fmt.Errorf("transfer retry settings: %w", err)
	}
	return nil
}

// RetryPolicy is the executor policy described by the TRANSFER_RETRY_* keys.
func (c *Config) RetryPolicy() transfer.RetryPolicy {
	policy := transfer.DefaultRetryPolicy()
	policy.MaxAttempts = c.RetryMaxAttempts
	policy.RetryDelay = c.RetryDelay
	return policy
}
