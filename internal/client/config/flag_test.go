package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected  *Config
		name      string
		args      []string
		expectErr bool
	}{
		{name: "all flags", args: []string{"-a", "http://127.0.0.1:9090", "-s", "token", "-d", "/tmp/x.db", "-i", "10", "-l", "debug"},
			expected: &Config{ServerURL: "http://127.0.0.1:9090", AuthScheme: "token", DatabasePath: "/tmp/x.db", OnlineCheckInterval: 10 * time.Second, LogLevel: "debug"}},
		{name: "unrelated flags ignored", args: []string{"-c", "cfg.json", "-x", "-i", "5"},
			expected: &Config{OnlineCheckInterval: 5 * time.Second}},
		{name: "incorrect check interval", args: []string{"-a", "http://127.0.0.1:9090", "-i", "abc"}, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}

			err := parseFlags(config, tt.args)
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}

func TestParseFlags_KeepsIntervalWithoutFlag(t *testing.T) {
	config := &Config{OnlineCheckInterval: 1500 * time.Millisecond}
	require.NoError(t, parseFlags(config, []string{"-l", "warn"}))
	assert.Equal(t, 1500*time.Millisecond, config.OnlineCheckInterval)
}
