package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Ledger    LedgerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Telegram  TelegramConfig
	Documents DocumentConfig
	PairCode  PairCodeConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port         string        `env:"PORT,default=8080"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT,default=10s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT,default=10s"`
}

type DatabaseConfig struct {
	// Driver is either "sqlite3" or "postgres".
	Driver string `env:"DB_DRIVER,default=sqlite3"`
	DSN    string `env:"DB_DSN,default=file:crowdfund.db?_foreign_keys=on&_busy_timeout=5000"`
}

type LedgerConfig struct {
	Target  string        `env:"LEDGER_TARGET,default=localhost:8082"`
	Timeout time.Duration `env:"LEDGER_TIMEOUT,default=15s"`
}

type AuthConfig struct {
	JWTSecret   string `env:"JWT_SECRET"`
	AdminAPIKey string `env:"ADMIN_API_KEY"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `env:"RATE_LIMIT_RPS,default=20"`
	BurstSize         int `env:"RATE_LIMIT_BURST,default=40"`
}

type TelegramConfig struct {
	BotToken string `env:"TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `env:"TELEGRAM_CHAT_ID"`
}

type DocumentConfig struct {
	Dir     string `env:"DOCUMENT_DIR,default=./documents"`
	BaseURL string `env:"DOCUMENT_BASE_URL,default=/documents"`
}

type PairCodeConfig struct {
	TTL           time.Duration `env:"PAIR_CODE_TTL,default=15m"`
	PurgeSchedule string        `env:"PAIR_CODE_PURGE_SCHEDULE,default=@every 1m"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL,default=info"`
	Format string `env:"LOG_FORMAT,default=text"`
}

// Load reads an optional .env file and decodes the environment into Config.
func Load(files ...string) (*Config, error) {
	// a missing .env is fine, the environment may already be populated
	_ = godotenv.Load(files...)

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Ledger.Target == "" {
		return errors.New("LEDGER_TARGET is required")
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.BurstSize <= 0 {
		return errors.New("rate limit values must be positive")
	}
	return nil
}
