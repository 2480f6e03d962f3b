package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	AppURL      string `env:"APP_URL"`
	Port        string `env:"PORT" default:"3000"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	MaxWebSocketConnections int `env:"MAX_WEBSOCKET_CONNECTIONS" default:"1000"`
	MaxConnectionsPerIP     int `env:"MAX_CONNECTIONS_PER_IP" default:"100"`

	// RevealCorrectAnswers controls whether the pollCreated broadcast to all
	// connections carries the options' correct flags. The originator's ack
	// always carries them.
	RevealCorrectAnswers bool `env:"REVEAL_CORRECT_ANSWERS" default:"true"`

	PersistenceTimeout time.Duration `env:"PERSISTENCE_TIMEOUT" default:"5s"`
	TeacherTokenTTL    time.Duration `env:"TEACHER_TOKEN_TTL" default:"12h"`

	LoginRateLimit float64 `env:"LOGIN_RATE_LIMIT" default:"1"`
	LoginRateBurst int     `env:"LOGIN_RATE_BURST" default:"5"`
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := []struct {
		name  string
		value string
	}{
		{"DATABASE_URL", cfg.DatabaseURL},
		{"REDIS_URL", cfg.RedisURL},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}

	if cfg.MaxWebSocketConnections <= 0 {
		return errors.New("MAX_WEBSOCKET_CONNECTIONS must be positive")
	}
	if cfg.MaxConnectionsPerIP <= 0 {
		return errors.New("MAX_CONNECTIONS_PER_IP must be positive")
	}
	if cfg.PersistenceTimeout <= 0 {
		return errors.New("PERSISTENCE_TIMEOUT must be positive")
	}
	if cfg.TeacherTokenTTL <= 0 {
		return errors.New("TEACHER_TOKEN_TTL must be positive")
	}
	if cfg.LoginRateLimit <= 0 || cfg.LoginRateBurst <= 0 {
		return errors.New("LOGIN_RATE_LIMIT and LOGIN_RATE_BURST must be positive")
	}

	return nil
}
