package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	payPalSandboxURL = "https://api-m.sandbox.paypal.com"
	payPalLiveURL    = "https://api-m.paypal.com"
)

// Config holds every setting the service needs. It is loaded once in main and
// handed to each component at construction time.
type Config struct {
	AppPort  string `mapstructure:"APP_PORT"`
	Env      string `mapstructure:"ENV"`
	AppURL   string `mapstructure:"APP_URL"`
	AppName  string `mapstructure:"BRAND_NAME"`
	TimeZone string `mapstructure:"TIME_ZONE"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`

	PayPalMode         string `mapstructure:"PAYPAL_MODE"`
	PayPalClientID     string `mapstructure:"PAYPAL_CLIENT_ID"`
	PayPalClientSecret string `mapstructure:"PAYPAL_CLIENT_SECRET"`
	PayPalAPIBaseURL   string `mapstructure:"PAYPAL_API_BASE_URL"`
	StripeSecretKey    string `mapstructure:"STRIPE_SECRET_KEY"`

	HomeCurrency       string  `mapstructure:"HOME_CURRENCY"`
	SettlementCurrency string  `mapstructure:"SETTLEMENT_CURRENCY"`
	SettlementRate     float64 `mapstructure:"SETTLEMENT_RATE"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	BrevoAPIKey     string `mapstructure:"BREVO_API_KEY"`
	EmailSender     string `mapstructure:"EMAIL_SENDER"`
	EmailSenderName string `mapstructure:"EMAIL_SENDER_NAME"`

	RateLimitPerMin   int    `mapstructure:"RATE_LIMIT_PER_MIN"`
	CronRatingSweep   string `mapstructure:"CRON_RATING_SWEEP"`
	CronStalePayments string `mapstructure:"CRON_STALE_PAYMENTS"`
}

// Load reads .env (if present) and the process environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("Warning: .env file not found, reading from system environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()

	defaults := map[string]interface{}{
		"APP_PORT":             "8080",
		"ENV":                  "development",
		"APP_URL":              "http://localhost:3000",
		"BRAND_NAME":           "Fi-Khidmatik",
		"TIME_ZONE":            "Africa/Casablanca",
		"DATABASE_URL":         "",
		"JWT_SECRET":           "",
		"PAYPAL_MODE":          "sandbox",
		"PAYPAL_CLIENT_ID":     "",
		"PAYPAL_CLIENT_SECRET": "",
		"PAYPAL_API_BASE_URL":  "",
		"STRIPE_SECRET_KEY":    "",
		"HOME_CURRENCY":        "MAD",
		"SETTLEMENT_CURRENCY":  "USD",
		"SETTLEMENT_RATE":      10.0,
		"REDIS_ADDR":           "",
		"REDIS_PASSWORD":       "",
		"REDIS_DB":             0,
		"BREVO_API_KEY":        "",
		"EMAIL_SENDER":         "",
		"EMAIL_SENDER_NAME":    "",
		"RATE_LIMIT_PER_MIN":   120,
		"CRON_RATING_SWEEP":    "0 3 * * *",
		"CRON_STALE_PAYMENTS":  "*/30 * * * *",
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	if c.SettlementRate <= 0 {
		return fmt.Errorf("SETTLEMENT_RATE must be positive, got %v", c.SettlementRate)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// PayPalBaseURL returns the explicit override, or the sandbox/live host for PAYPAL_MODE.
func (c *Config) PayPalBaseURL() string {
	if c.PayPalAPIBaseURL != "" {
		return c.PayPalAPIBaseURL
	}
	if c.PayPalMode == "live" {
		return payPalLiveURL
	}
	return payPalSandboxURL
}

func (c *Config) PayPalConfigured() bool {
	return c.PayPalClientID != "" && c.PayPalClientSecret != ""
}

func (c *Config) RedisConfigured() bool {
	return c.RedisAddr != ""
}
