package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"TELCAL_OPENAI_MODEL", "TELCAL_HTTP_PORT", "TELCAL_SESSION_TTL_MINUTES",
		"TELCAL_PROFILE_TTL_MINUTES", "TELCAL_MAINTENANCE_MODE", "TELCAL_BASE_URL",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadFromEnv()

	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, 30*time.Minute, cfg.ProfileTTL)
	assert.False(t, cfg.MaintenanceMode)
	assert.Equal(t, "http://localhost:8080/oauth/callback", cfg.RedirectURL())
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("TELCAL_OPENAI_MODEL", "gpt-5-mini")
	t.Setenv("TELCAL_HTTP_PORT", "9090")
	t.Setenv("TELCAL_MAINTENANCE_MODE", "true")
	t.Setenv("TELCAL_ADMIN_USER_ID", "42")
	t.Setenv("TELCAL_BASE_URL", "https://bot.example.com/")
	t.Setenv("TELCAL_SESSION_TTL_MINUTES", "not-a-number")

	cfg := LoadFromEnv()

	assert.Equal(t, "gpt-5-mini", cfg.OpenAIModel)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.True(t, cfg.MaintenanceMode)
	assert.Equal(t, "42", cfg.AdminUserID)
	assert.Equal(t, "https://bot.example.com/oauth/callback", cfg.RedirectURL())
	assert.Equal(t, time.Hour, cfg.SessionTTL, "invalid int falls back to default")
}

func TestValidate(t *testing.T) {
	credentials := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(credentials, []byte(`{}`), 0600))

	valid := func() *Config {
		return &Config{
			TelegramBotToken:      "token",
			TelegramAppID:         1,
			TelegramAppHash:       "hash",
			OpenAIAPIKey:          "sk",
			AssemblyAIAPIKey:      "aai",
			EncryptionKey:         "secret",
			GoogleCredentialsFile: credentials,
			SessionTTL:            time.Hour,
			ProfileTTL:            time.Minute,
		}
	}

	t.Run("complete config passes", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing keys are listed together", func(t *testing.T) {
		cfg := valid()
		cfg.OpenAIAPIKey = ""
		cfg.EncryptionKey = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TELCAL_OPENAI_API_KEY")
		assert.Contains(t, err.Error(), "TELCAL_ENCRYPTION_KEY")
	})

	t.Run("missing credentials file", func(t *testing.T) {
		cfg := valid()
		cfg.GoogleCredentialsFile = filepath.Join(t.TempDir(), "absent.json")
		assert.Error(t, cfg.Validate())
	})
}
