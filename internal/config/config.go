package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, read from the environment (a .env
// file is loaded into the environment first by main).
type Config struct {
	Port         string `env:"PORT" envDefault:"5175"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	ClientOrigin string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	Production   bool   // derived from NODE_ENV
	NodeEnv      string `env:"NODE_ENV" envDefault:"development"`

	// Event source
	Source       string        `env:"HISTORY_SOURCE" envDefault:"remote"` // remote | static
	BaseURL      string        `env:"HISTORY_BASE_URL" envDefault:"https://hisotry-events.app01.xyzapps.xyz"`
	StaticFile   string        `env:"HISTORY_STATIC_FILE"` // empty → bundled sample corpus
	CorpusSize   int           `env:"HISTORY_CORPUS_SIZE" envDefault:"16726"`
	Timeout      time.Duration `env:"HISTORY_TIMEOUT" envDefault:"10s"`
	MaxRetries   uint          `env:"HISTORY_MAX_RETRIES" envDefault:"3"`
	RetryBackoff time.Duration `env:"HISTORY_RETRY_BACKOFF" envDefault:"200ms"`
	CachePath    string        `env:"CACHE_PATH"` // empty disables the SQLite cache
	CacheTTL     time.Duration `env:"CACHE_TTL" envDefault:"24h"`

	// Sessions
	SessionSecret string        `env:"SESSION_SECRET" envDefault:"dev_secret_change_me"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"2h"`
	CookieName    string        `env:"COOKIE_NAME" envDefault:"history_session"`
	DailySalt     string        `env:"DAILY_SALT" envDefault:"local_dev_salt"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	c.Production = c.NodeEnv == "production"
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Source {
	case "remote", "static":
	default:
		return fmt.Errorf("HISTORY_SOURCE must be remote or static, got %q", c.Source)
	}
	if c.Source == "remote" && c.CorpusSize <= 0 {
		return errors.New("HISTORY_CORPUS_SIZE must be positive")
	}
	if c.Production && c.SessionSecret == "dev_secret_change_me" {
		return errors.New("SESSION_SECRET must be set in production")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	return nil
}
