package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "5050", config.Server.Port)
	assert.Equal(t, "sqlite://igserve.db", config.Database.URL)
	assert.Equal(t, "https://www.instagram.com", config.Instagram.BaseURL)
	assert.Equal(t, 30, config.RateLimit.RequestsPerMinute)
	assert.False(t, config.Server.TrustProxy)
	assert.NoError(t, config.Validate())
	assert.False(t, config.HasInstagramCredentials())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("DATABASE_URL", "postgres://user:secret@db:5432/geo?sslmode=disable")
	t.Setenv("INSTA_USERNAME", "reel_fan")
	t.Setenv("INSTA_PASSWORD", "hunter2")
	t.Setenv("IGSERVE_INSTAGRAM_TIMEOUT", "10s")
	t.Setenv("IGSERVE_SESSION_KEYRING", "true")
	t.Setenv("IGSERVE_REQUESTS_PER_MINUTE", "0")
	t.Setenv("IGSERVE_LOG_FORMAT", "json")
	t.Setenv("IGSERVE_TRUST_PROXY", "true")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())

	assert.Equal(t, "8081", config.Server.Port)
	assert.Equal(t, "postgres://user:secret@db:5432/geo?sslmode=disable", config.Database.URL)
	assert.Equal(t, "reel_fan", config.Instagram.Username)
	assert.Equal(t, "hunter2", config.Instagram.Password)
	assert.Equal(t, 10*time.Second, config.Instagram.Timeout)
	assert.True(t, config.Session.UseKeyring)
	assert.Equal(t, 0, config.RateLimit.RequestsPerMinute)
	assert.Equal(t, "json", config.Logging.Format)
	assert.True(t, config.Server.TrustProxy)
	assert.True(t, config.HasInstagramCredentials())

	// untouched values keep their defaults
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, 15*time.Second, config.Server.ReadTimeout)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "igserve.yaml")
	content := `
server:
  port: "9000"
instagram:
  username: from_file
  timeout: 5s
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	config := DefaultConfig()
	require.NoError(t, config.LoadFromFile(path))

	assert.Equal(t, "9000", config.Server.Port)
	assert.Equal(t, "from_file", config.Instagram.Username)
	assert.Equal(t, 5*time.Second, config.Instagram.Timeout)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "sqlite://igserve.db", config.Database.URL)
}

func TestLoadFromFileMissing(t *testing.T) {
	config := DefaultConfig()
	err := config.LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = "http" }, true},
		{"port out of range", func(c *Config) { c.Server.Port = "70000" }, true},
		{"empty database url", func(c *Config) { c.Database.URL = "  " }, true},
		{"no connect attempts", func(c *Config) { c.Database.ConnectAttempts = 0 }, true},
		{"password without username", func(c *Config) { c.Instagram.Password = "x" }, true},
		{"negative rate", func(c *Config) { c.RateLimit.RequestsPerMinute = -1 }, true},
		{"zero burst", func(c *Config) { c.RateLimit.BurstSize = 0 }, true},
		{"rate limit disabled with zero burst", func(c *Config) {
			c.RateLimit.RequestsPerMinute = 0
			c.RateLimit.BurstSize = 0
		}, false},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "Validate() = %v", err)
		})
	}
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "igserve.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"7000\"\nlogging:\n  level: warn\n"), 0600))

	t.Setenv("PORT", "7100")

	config, err := Load(path, map[string]interface{}{"log-level": "error"})
	require.NoError(t, err)

	assert.Equal(t, "7100", config.Server.Port)
	assert.Equal(t, "error", config.Logging.Level)
}

func TestMasked(t *testing.T) {
	config := DefaultConfig()
	config.Instagram.Password = "hunter2"
	config.Database.URL = "postgres://user:secret@db:5432/geo"

	masked := config.Masked()

	assert.Equal(t, "********", masked.Instagram.Password)
	assert.Equal(t, "postgres://***@db:5432/geo", masked.Database.URL)
	assert.Equal(t, "hunter2", config.Instagram.Password)
}

func TestMaskDatabaseURL(t *testing.T) {
	assert.Equal(t, "sqlite://igserve.db", MaskDatabaseURL("sqlite://igserve.db"))
	assert.Equal(t, "postgresql://***@localhost/app", MaskDatabaseURL("postgresql://a:b@localhost/app"))
}
