// Package config loads runtime configuration for the marketplace CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment: variables from an optional .env file (joho/godotenv),
//     overridden by the real process environment.
//  3. Optional JSON file selected via flags: -c or -config.
//  4. Command-line flags, which override earlier values.
//
// Environment variables
//
//	MARKET_API_URL          backend base URL
//	MARKET_REQUEST_TIMEOUT  per-request timeout, e.g. "30s"
//	MARKET_SEARCH_DEBOUNCE  free-text search debounce, e.g. "500ms"
//	MARKET_DB_PATH          SQLite file holding the session tokens
//	MARKET_LOG_LEVEL        debug, info, warn or error
//	MARKET_LOG_FORMAT       text or json
//	MARKET_CHAT_API_KEY     hosted chat API key when the backend omits it
//
// Supported flags
//
//	-a string         backend base URL
//	-t duration       request timeout
//	-d duration       search debounce
//	-db string        token database path
//	-l string         log level
//	-log-format text  log format
//
// # JSON schema
//
// Durations use timex.Duration, so they can be strings like "30s" or integer
// nanoseconds:
//
//	{
//	  "api_base_url": "https://market.example.ac.uk",
//	  "request_timeout": "30s",
//	  "search_debounce": "500ms",
//	  "database_path": "market.db",
//	  "log_level": "info",
//	  "log_format": "text",
//	  "chat_api_key": ""
//	}
//
// The base URL is normalised by stripping trailing slashes after all sources
// have been applied.
package config
