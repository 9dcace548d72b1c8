package utils

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all environment-driven settings
type Config struct {
	BotToken    string        `env:"BOT_TOKEN"`
	DatabaseURL string        `env:"DATABASE_URL"`
	Port        string        `env:"PORT" envDefault:"8080"`
	MinBet      int64         `env:"MIN_BET" envDefault:"500"`
	IdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"3m"`
}

// LoadConfig reads configuration from a .env file (if present) and the
// process environment
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.MinBet <= 0 {
		return nil, fmt.Errorf("MIN_BET must be positive, got %d", cfg.MinBet)
	}

	return cfg, nil
}
