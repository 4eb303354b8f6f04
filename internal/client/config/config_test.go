package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/hbd/internal/client/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, "http://localhost:8417", c.ServerURL)
	assert.Equal(t, models.SchemeKey, c.Scheme())
	assert.Equal(t, "hbd.db", c.DatabasePath)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	assert.Equal(t, 1.0, c.RateLimit)
	assert.Equal(t, 5, c.RateBurst)
	assert.Equal(t, "info", c.LogLevel)
	require.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"scheme is normalized", func(c *Config) { c.AuthScheme = " TOKEN " }, false},
		{"unknown scheme", func(c *Config) { c.AuthScheme = "basic" }, true},
		{"no url scheme", func(c *Config) { c.ServerURL = "localhost:8417" }, true},
		{"empty db", func(c *Config) { c.DatabasePath = "" }, true},
		{"zero interval", func(c *Config) { c.OnlineCheckInterval = 0 }, true},
		{"negative burst", func(c *Config) { c.RateBurst = -1 }, true},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaults()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}

	c := defaults()
	c.AuthScheme = " TOKEN "
	require.NoError(t, c.Validate())
	require.Equal(t, models.SchemeToken, c.Scheme())
}

func TestLoadConfig_Precedence(t *testing.T) {
	t.Chdir(t.TempDir())

	require.NoError(t, os.WriteFile(".env", []byte("HBD_DEFAULT_BOT_API_KEY=from-dotenv\nHBD_LOG_LEVEL=error\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("HBD_DEFAULT_BOT_API_KEY") })
	t.Setenv("HBD_LOG_LEVEL", "warn")
	t.Setenv("HBD_SERVER_URL", "http://env:1")
	t.Setenv("HBD_REQUEST_TIMEOUT", "4s")

	cfgFile := writeTempJSON(t, "", "", map[string]any{
		"server_url":  "http://json:2",
		"auth_scheme": "token",
	})

	cfg, err := LoadConfig([]string{"-c", cfgFile, "-a", "https://flag:3", "-i", "7"})
	require.NoError(t, err)

	want := defaults()
	want.ServerURL = "https://flag:3"
	want.AuthScheme = "token"
	want.OnlineCheckInterval = 7 * time.Second
	want.RequestTimeout = 4 * time.Second
	want.DefaultBotAPIKey = "from-dotenv"
	want.LogLevel = "warn"

	assert.Empty(t, cmp.Diff(want, cfg))
}

func TestLoadConfig_InvalidResult(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := LoadConfig([]string{"-s", "basic"})
	require.ErrorIs(t, err, models.ErrUnknownScheme)
}

func TestLoadConfig_BadEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HBD_RATE_BURST", "many")

	_, err := LoadConfig(nil)
	require.Error(t, err)
}

func TestLoadDotEnv_Missing(t *testing.T) {
	require.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "nope.env")))
}
