package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "./resume_bot.db", cfg.DatabasePath)
	assert.Equal(t, 10*time.Minute, cfg.ResetCodeTTL)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "smtp.gmail.com", cfg.SMTP.Host)
	assert.True(t, cfg.MailInAppFallback)
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RESET_CODE_TTL", "2m")
	t.Setenv("SMTP_USERNAME", "bot@example.com")
	t.Setenv("SMTP_FROM", "")
	t.Setenv("MAIL_INAPP_FALLBACK", "false")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("REDIS_ADDR", "127.0.0.1:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, 2*time.Minute, cfg.ResetCodeTTL)
	assert.Equal(t, "bot@example.com", cfg.SMTP.From)
	assert.False(t, cfg.MailInAppFallback)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, "127.0.0.1:6379", cfg.RedisAddr)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"PORT", "eighty"},
		{"SESSION_TTL", "forever"},
		{"MAIL_INAPP_FALLBACK", "maybe"},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.key)
		})
	}
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}
