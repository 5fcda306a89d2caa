package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"DB_DSN", "DB_HOST", "DB_USER", "POSTGRES_USER", "DB_NAME", "POSTGRES_DB", "PAGE_SIZE", "JWT_SECRET", "SESSION_KEY", "APP_ENV", "ADMIN_PASSWORD"} {
		t.Setenv(k, "")
	}
	c := Load()
	assert.Equal(t, 12, c.PageSize)
	assert.True(t, c.IsDev())
	assert.Equal(t, c.SessionKey, c.JWTSecret)
	assert.NotEmpty(t, c.AdminPassword)
	assert.NoError(t, c.Validate())
	assert.Contains(t, c.DSN, "host=localhost")
	assert.Contains(t, c.DSN, "dbname=prostore")
	assert.False(t, c.StripeEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://x")
	t.Setenv("PAGE_SIZE", "3")
	t.Setenv("APP_ENV", "Production")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_IDS", "1,2")
	c := Load()
	assert.Equal(t, "postgres://x", c.DSN)
	assert.Equal(t, 3, c.PageSize)
	assert.False(t, c.IsDev())
	assert.True(t, c.TelegramEnabled())
}

func TestLoad_ProductionHasNoSecretFallbacks(t *testing.T) {
	for _, k := range []string{"SESSION_KEY", "JWT_SECRET", "ADMIN_PASSWORD"} {
		t.Setenv(k, "")
	}
	t.Setenv("APP_ENV", "production")

	c := Load()
	assert.Empty(t, c.SessionKey)
	assert.Empty(t, c.JWTSecret)
	assert.Empty(t, c.AdminPassword)

	err := c.Validate()
	require.ErrorIs(t, err, ErrMissingSecret)
	assert.Contains(t, err.Error(), "SESSION_KEY, JWT_SECRET, ADMIN_PASSWORD")
}

func TestValidate(t *testing.T) {
	dev := &Config{Env: "development"}
	assert.NoError(t, dev.Validate())

	prod := &Config{Env: "production", SessionKey: "s3cret", JWTSecret: "j3t", AdminPassword: "strong-pass"}
	assert.NoError(t, prod.Validate())

	prod.SessionKey = "dev-insecure"
	assert.ErrorIs(t, prod.Validate(), ErrMissingSecret)

	prod.SessionKey, prod.JWTSecret = "s3cret", ""
	assert.ErrorIs(t, prod.Validate(), ErrMissingSecret)
}

func TestAtoi(t *testing.T) {
	assert.Equal(t, 5, atoi("abc", 5))
	assert.Equal(t, 5, atoi("-1", 5))
	assert.Equal(t, 7, atoi(" 7 ", 5))
}
