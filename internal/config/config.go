// Package config содержит логику чтения конфигурации сервиса маркетплейса.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config содержит параметры конфигурации сервиса маркетплейса.
type Config struct {
	RunAddress            string `env:"RUN_ADDRESS"`
	DatabaseURI           string `env:"DATABASE_URI"`
	MailRelayAddress      string `env:"MAIL_RELAY_ADDRESS"`
	PaymentGatewayAddress string `env:"PAYMENT_GATEWAY_ADDRESS"`
	PaymentAPIKey         string `env:"PAYMENT_API_KEY"`
	PaymentPublishableKey string `env:"PAYMENT_PUBLISHABLE_KEY"`
	AuthSecret            string `env:"AUTH_SECRET"`
	ActivationSecret      string `env:"ACTIVATION_SECRET"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных
// окружения. Файл .env, если он есть рядом с бинарником, подгружается
// до разбора окружения.
func Parse() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envMailRelay := cfg.MailRelayAddress
	envPaymentGateway := cfg.PaymentGatewayAddress

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.MailRelayAddress, "m", "", "mail relay address")
	flag.StringVar(&cfg.PaymentGatewayAddress, "p", "", "payment gateway address")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envMailRelay != "" {
		cfg.MailRelayAddress = envMailRelay
	}
	if envPaymentGateway != "" {
		cfg.PaymentGatewayAddress = envPaymentGateway
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = "marketplace-secret"
	}
	if cfg.ActivationSecret == "" {
		cfg.ActivationSecret = cfg.AuthSecret
	}

	return cfg, nil
}
