package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/quotes")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.GetHTTPAddr())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.GetCORSOrigins())
	assert.Equal(t, 15, cfg.GetQuoteDefaultValidityDays())
	assert.Equal(t, 7, cfg.GetQuoteDefaultExtensionDays())
	assert.Equal(t, 10*time.Second, cfg.GetConversionTimeout())
	assert.Equal(t, 10*time.Minute, cfg.GetDirectoryCacheTTL())
	assert.False(t, cfg.IsMinIOEnabled())
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/quotes")
	t.Setenv("JWT_ACCESS_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsWildcardWithCredentials(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/quotes")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("CORS_ORIGINS", "*")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "true")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadEmailRequiresTransport(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/quotes")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("EMAIL_ENABLED", "true")
	t.Setenv("BREVO_API_KEY", "")
	t.Setenv("SMTP_HOST", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadEmailOverSMTP(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/quotes")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("EMAIL_ENABLED", "true")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("EMAIL_FROM_ADDRESS", "quotes@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.GetEmailEnabled())
	assert.Equal(t, "smtp.example.com", cfg.GetSMTPHost())
	assert.Equal(t, 2525, cfg.GetSMTPPort())
	assert.Equal(t, "Marketplace", cfg.GetEmailFromName())
}
