package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, parsed from the environment. A .env
// file is loaded beforehand via godotenv/autoload in main.
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Room defaults. Per-room timeout can be overridden at creation.
	TurnTimeoutSec int `env:"TURN_TIMEOUT_SEC" envDefault:"15"`
	CountdownMs    int `env:"COUNTDOWN_MS" envDefault:"3000"`
	DealerDelayMs  int `env:"DEALER_DELAY_MS" envDefault:"4000"`

	// RedisAddr enables the round-history queue when set.
	RedisAddr      string `env:"REDIS_ADDR"`
	HistorianQueue string `env:"HISTORIAN_QUEUE_NAME" envDefault:"blackjack_rounds"`

	// DatabaseURL is only consumed by the historian process.
	DatabaseURL string `env:"DATABASE_URL"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// TurnTimeout returns the default per-turn limit as a duration.
func (c Config) TurnTimeout() time.Duration {
	return time.Duration(c.TurnTimeoutSec) * time.Second
}

// Countdown returns the pre-deal countdown as a duration.
func (c Config) Countdown() time.Duration {
	return time.Duration(c.CountdownMs) * time.Millisecond
}

// DealerDelay returns the house think-delay between dealer steps.
func (c Config) DealerDelay() time.Duration {
	return time.Duration(c.DealerDelayMs) * time.Millisecond
}
