// Package config holds the application configuration, parsed from
// environment variables.
package config

// Config holds all configuration for the application.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	Server      ServerConfig
	Database    DatabaseConfig
	MercadoPago MercadoPagoConfig `envPrefix:"MP_"`
	Notify      NotifyConfig      `envPrefix:"NOTIFY_"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port    string `env:"PORT" envDefault:"8080"`
	GinMode string `env:"GIN_MODE" envDefault:"debug"` // "debug", "release", or "test"
}

// DatabaseConfig holds the sqlite database location.
type DatabaseConfig struct {
	Path string `env:"DATABASE_PATH" envDefault:"donations.db"`
}

// MercadoPagoConfig holds the payment provider credentials and URLs.
type MercadoPagoConfig struct {
	AccessToken     string `env:"ACCESS_TOKEN"`
	WebhookSecret   string `env:"WEBHOOK_SECRET"`
	BackURLBase     string `env:"BACK_URL_BASE" envDefault:"https://doar.example.org"`
	NotificationURL string `env:"NOTIFICATION_URL"`
	Currency        string `env:"CURRENCY" envDefault:"BRL"`
}

// NotifyConfig holds the optional backoffice notification endpoint.
// With an empty BaseURL the notifier is disabled.
type NotifyConfig struct {
	BaseURL string `env:"BASE_URL"`
	APIKey  string `env:"API_KEY"`
}
