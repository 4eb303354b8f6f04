// Package config loads runtime configuration for the hbd CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables with the HBD_ prefix, after a .env file in the
//     working directory has been loaded (existing variables win over it).
//  3. Optional JSON file selected with -c or -config.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   backend base URL
//	-s string   auth scheme (key|token)
//	-d string   local database path
//	-i int      online status check interval (seconds)
//	-l string   log level
//
// # JSON schema
//
//	{
//	  "server_url": "http://localhost:8417",
//	  "auth_scheme": "key",
//	  "db_path": "hbd.db",
//	  "online_check_interval": "3s",
//	  "request_timeout": "10s",
//	  "rate_limit": 1,
//	  "rate_burst": 5,
//	  "default_bot_api_key": "",
//	  "log_level": "info"
//	}
//
// # Environment
//
// HBD_SERVER_URL, HBD_AUTH_SCHEME, HBD_DB_PATH, HBD_ONLINE_CHECK_INTERVAL,
// HBD_REQUEST_TIMEOUT, HBD_RATE_LIMIT, HBD_RATE_BURST,
// HBD_DEFAULT_BOT_API_KEY, HBD_LOG_LEVEL.
package config
