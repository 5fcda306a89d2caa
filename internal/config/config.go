// Package config reads the process environment (optionally seeded from .env) into a Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Env        string
	Port       string
	DSN        string
	BaseURL    string
	SessionKey string
	JWTSecret  string
	PageSize   int
	Currency   string

	GoogleClientID     string
	GoogleClientSecret string

	PayPalClientID string
	PayPalSecret   string
	PayPalAPIURL   string

	StripeSecretKey     string
	StripeWebhookSecret string

	SMTPHost    string
	SMTPPort    int
	SMTPUser    string
	SMTPPass    string
	SenderEmail string

	TelegramToken   string
	TelegramChatIDs string

	AdminEmail    string
	AdminPassword string
}

const (
	devSessionKey    = "dev-insecure"
	devAdminPassword = "123456"
)

// Load reads .env when present and then the environment. Outside development the secrets have no
// fallback; Validate reports the ones left unset.
func Load() *Config {
	_ = godotenv.Load()

	c := &Config{
		Env:        strings.ToLower(getenv("APP_ENV", "development")),
		Port:       getenv("PORT", "8080"),
		DSN:        dsn(),
		BaseURL:    strings.TrimRight(getenv("BASE_URL", "http://localhost:8080"), "/"),
		SessionKey: os.Getenv("SESSION_KEY"),
		PageSize:   atoi(os.Getenv("PAGE_SIZE"), 12),
		Currency:   getenv("CURRENCY", "USD"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),

		PayPalClientID: os.Getenv("PAYPAL_CLIENT_ID"),
		PayPalSecret:   os.Getenv("PAYPAL_APP_SECRET"),
		PayPalAPIURL:   getenv("PAYPAL_API_URL", "https://api-m.sandbox.paypal.com"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),

		SMTPHost:    os.Getenv("SMTP_HOST"),
		SMTPPort:    atoi(os.Getenv("SMTP_PORT"), 587),
		SMTPUser:    os.Getenv("SMTP_USER"),
		SMTPPass:    os.Getenv("SMTP_PASS"),
		SenderEmail: os.Getenv("SENDER_EMAIL"),

		TelegramToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatIDs: getenv("TELEGRAM_CHAT_IDS", os.Getenv("TELEGRAM_CHAT_ID")),

		AdminEmail:    getenv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
	}
	if c.IsDev() {
		if c.SessionKey == "" {
			c.SessionKey = devSessionKey
		}
		if c.JWTSecret == "" {
			c.JWTSecret = c.SessionKey
		}
		if c.AdminPassword == "" {
			c.AdminPassword = devAdminPassword
		}
	}
	return c
}

var ErrMissingSecret = errors.New("required secret is not set")

// Validate refuses a non-development config whose signing keys or admin password are unset or
// still the development values.
func (c *Config) Validate() error {
	if c.IsDev() {
		return nil
	}
	var missing []string
	if c.SessionKey == "" || c.SessionKey == devSessionKey {
		missing = append(missing, "SESSION_KEY")
	}
	if c.JWTSecret == "" || c.JWTSecret == devSessionKey {
		missing = append(missing, "JWT_SECRET")
	}
	if c.AdminPassword == "" || c.AdminPassword == devAdminPassword {
		missing = append(missing, "ADMIN_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w in %s: %s", ErrMissingSecret, c.Env, strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.Env == "" || c.Env == "development" || c.Env == "dev"
}

func (c *Config) PayPalEnabled() bool { return c.PayPalClientID != "" && c.PayPalSecret != "" }
func (c *Config) StripeEnabled() bool { return c.StripeSecretKey != "" }
func (c *Config) SMTPEnabled() bool   { return c.SMTPHost != "" && c.SMTPUser != "" && c.SMTPPass != "" }
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && strings.TrimSpace(c.TelegramChatIDs) != ""
}
func (c *Config) GoogleEnabled() bool { return c.GoogleClientID != "" && c.GoogleClientSecret != "" }

// dsn honours DB_DSN and otherwise assembles one from DB_* with POSTGRES_* fallbacks.
func dsn() string {
	if v := strings.TrimSpace(os.Getenv("DB_DSN")); v != "" {
		return v
	}
	host := getenv("DB_HOST", "localhost")
	port := getenv("DB_PORT", "5432")
	user := getenv("DB_USER", getenv("POSTGRES_USER", "postgres"))
	pass := getenv("DB_PASSWORD", getenv("POSTGRES_PASSWORD", "postgres"))
	name := getenv("DB_NAME", getenv("POSTGRES_DB", "prostore"))
	ssl := getenv("DB_SSLMODE", "disable")
	return "host=" + host + " user=" + user + " password=" + pass + " dbname=" + name + " port=" + port + " sslmode=" + ssl
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
