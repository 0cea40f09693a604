package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                   "production",
		Port:                  "8080",
		DBDriver:              "postgres",
		DBPassword:            "secure-password",
		DBSSLMode:             "require",
		SessionSecret:         "secure-secret-at-least-32-chars-long",
		SessionTTLHours:       24,
		CaptionProvider:       "huggingface",
		CaptionTimeoutSeconds: 10,
		HuggingFaceAPIToken:   "hf_token",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError string
	}{
		{"valid production", func(*Config) {}, ""},
		{"missing port", func(c *Config) { c.Port = "" }, "PORT"},
		{"default secret in production", func(c *Config) { c.SessionSecret = defaultSessionSecret }, "SESSION_SECRET"},
		{"short secret in production", func(c *Config) { c.SessionSecret = "short" }, "at least 32"},
		{"short secret in development", func(c *Config) { c.Env = "development"; c.SessionSecret = "short" }, ""},
		{"sqlite in production", func(c *Config) { c.DBDriver = "sqlite" }, "DB_DRIVER"},
		{"unknown driver", func(c *Config) { c.Env = "development"; c.DBDriver = "mysql" }, "DB_DRIVER"},
		{"weak db password", func(c *Config) { c.DBPassword = "password" }, "DB_PASSWORD"},
		{"ssl disabled", func(c *Config) { c.DBSSLMode = "disable" }, "DB_SSLMODE"},
		{"missing hf token", func(c *Config) { c.HuggingFaceAPIToken = "" }, "HUGGING_FACE_API_TOKEN"},
		{"stub needs no token", func(c *Config) { c.HuggingFaceAPIToken = ""; c.CaptionProvider = "stub" }, ""},
		{"unknown provider", func(c *Config) { c.CaptionProvider = "openai" }, "CAPTION_PROVIDER"},
		{"zero timeout", func(c *Config) { c.CaptionTimeoutSeconds = 0 }, "CAPTION_TIMEOUT_SECONDS"},
		{"zero session ttl", func(c *Config) { c.SessionTTLHours = 0 }, "SESSION_TTL_HOURS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestConfig_Durations(t *testing.T) {
	c := validConfig()
	assert.Equal(t, 24*time.Hour, c.SessionTTL())
	assert.Equal(t, 10*time.Second, c.CaptionTimeout())
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_DRIVER", "  SQLite ")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("CAPTION_PROVIDER", "Stub")
	t.Setenv("CAPTION_TIMEOUT_SECONDS", "3")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "stub", c.CaptionProvider)
	assert.Equal(t, 3*time.Second, c.CaptionTimeout())
	assert.Equal(t, "8375", c.Port)
	assert.True(t, strings.HasPrefix(c.CaptionModel, "nlpconnect/"))
}

func TestLoadConfig_DotEnv(t *testing.T) {
	defer viper.Reset()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SESSION_TTL_HOURS=5\nCAPTION_PROVIDER=stub\n"), 0o600))
	t.Chdir(dir)

	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_DRIVER", "sqlite")
	// Registered for cleanup, then cleared so the .env value applies.
	t.Setenv("SESSION_TTL_HOURS", "")
	require.NoError(t, os.Unsetenv("SESSION_TTL_HOURS"))
	t.Setenv("CAPTION_PROVIDER", "huggingface")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Hour, c.SessionTTL())
	assert.Equal(t, "huggingface", c.CaptionProvider, "the real environment wins over .env")
}
