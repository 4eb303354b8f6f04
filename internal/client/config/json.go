package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/hbd/internal/flagx"
	"github.com/dmitrijs2005/hbd/internal/timex"
)

// JSONConfig is a DTO used exclusively for JSON unmarshalling. Intervals use
// timex.Duration so they can be written as "3s" or as nanoseconds.
type JSONConfig struct {
	ServerURL           string         `json:"server_url"`
	AuthScheme          string         `json:"auth_scheme"`
	DatabasePath        string         `json:"db_path"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	RateLimit           float64        `json:"rate_limit"`
	RateBurst           int            `json:"rate_burst"`
	DefaultBotAPIKey    string         `json:"default_bot_api_key"`
	LogLevel            string         `json:"log_level"`
}

// parseJSON overlays cfg with the fields present in the file named by -c or
// -config. Absent or zero fields keep the current values.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.ServerURL, jc.ServerURL)
	setString(&cfg.AuthScheme, jc.AuthScheme)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.DefaultBotAPIKey, jc.DefaultBotAPIKey)
	setString(&cfg.LogLevel, jc.LogLevel)
	if jc.OnlineCheckInterval.Duration != 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.RateLimit != 0 {
		cfg.RateLimit = jc.RateLimit
	}
	if jc.RateBurst != 0 {
		cfg.RateBurst = jc.RateBurst
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
