package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	ListenAddr    string `env:"LISTEN_ADDR" envDefault:":8080"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	EncryptionKey string `env:"ENCRYPTION_KEY"`
	SessionSecret string `env:"SESSION_SECRET,required"`

	PostgresURL string `env:"POSTGRES_URL,required"`
	RedisAddr   string `env:"REDIS_ADDR" envDefault:"localhost:6379"`

	SiigoAPIURL       string        `env:"SIIGO_API_URL" envDefault:"https://api.siigo.com"`
	SiigoTimeout      time.Duration `env:"SIIGO_TIMEOUT" envDefault:"15s"`
	SiigoPageInterval time.Duration `env:"SIIGO_PAGE_INTERVAL" envDefault:"500ms"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
