// Package config loads process configuration from the environment.
package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

type Config struct {
	// HTTPAddr is the listen address of the API server.
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	// StoreDriver selects the persistence backend: "postgres" or "memory".
	StoreDriver string `envconfig:"STORE_DRIVER" default:"postgres"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// WebhookVerifyToken answers Meta's subscription handshake.
	WebhookVerifyToken string `envconfig:"WEBHOOK_VERIFY_TOKEN" default:"replyping_verify"`

	WhatsAppToken   string `envconfig:"WHATSAPP_TOKEN"`
	WhatsAppPhoneID string `envconfig:"WHATSAPP_PHONE_ID"`
	InstagramToken  string `envconfig:"INSTAGRAM_TOKEN"`
	InstagramPageID string `envconfig:"INSTAGRAM_PAGE_ID"`

	// TelegramToken enables the optional Telegram delivery side-channel.
	TelegramToken string `envconfig:"TELEGRAM_TOKEN"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("replyping", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}
	if cfg.StoreDriver == "postgres" && cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required with the postgres store")
	}
	return &cfg, nil
}
