package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"

	"github.com/meridianbank/core/internal/domain"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	JWTExpiryH  int    `env:"JWT_EXPIRY_HOURS" envDefault:"24"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	// Currency policy: the set of currencies transfers may be initiated in.
	// A user's preferred currency is accepted even when outside this set.
	AllowedTransferCurrencies []string `env:"ALLOWED_TRANSFER_CURRENCIES" envDefault:"USD,EUR,GBP"`

	SMTPHost     string `env:"SMTP_HOST" envDefault:"localhost"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME" envDefault:""`
	SMTPPassword string `env:"SMTP_PASSWORD" envDefault:""`
	SMTPFrom     string `env:"SMTP_FROM" envDefault:"no-reply@meridianbank.example"`

	NotifyIntervalS   int `env:"NOTIFY_INTERVAL_S" envDefault:"5"`
	NotifyMaxAttempts int `env:"NOTIFY_MAX_ATTEMPTS" envDefault:"5"`
	NotifyBatchSize   int `env:"NOTIFY_BATCH_SIZE" envDefault:"25"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// CurrencyAllowed reports whether cur is inside the configured transfer set.
func (c *Config) CurrencyAllowed(cur domain.Currency) bool {
	for _, a := range c.AllowedTransferCurrencies {
		if domain.Currency(a) == cur {
			return true
		}
	}
	return false
}
