package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	envAPIURL         = "MARKET_API_URL"
	envRequestTimeout = "MARKET_REQUEST_TIMEOUT"
	envSearchDebounce = "MARKET_SEARCH_DEBOUNCE"
	envDBPath         = "MARKET_DB_PATH"
	envLogLevel       = "MARKET_LOG_LEVEL"
	envLogFormat      = "MARKET_LOG_FORMAT"
	envChatAPIKey     = "MARKET_CHAT_API_KEY"
)

// parseEnv overlays Config with MARKET_* variables. Values in dotenvPath are
// used only where the process environment leaves a variable unset or empty.
// A missing dotenv file is ignored; an unreadable one or a malformed duration
// panics, like the other loaders.
func parseEnv(cfg *Config, dotenvPath string) {
	fileVars := map[string]string{}
	if dotenvPath != "" {
		m, err := godotenv.Read(dotenvPath)
		switch {
		case err == nil:
			fileVars = m
		case errors.Is(err, fs.ErrNotExist):
		default:
			panic(err)
		}
	}

	get := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fileVars[key]
	}

	setString := func(dst *string, key string) {
		if v := get(key); v != "" {
			*dst = v
		}
	}
	setDuration := func(dst *time.Duration, key string) {
		v := get(key)
		if v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		*dst = d
	}

	setString(&cfg.APIBaseURL, envAPIURL)
	setDuration(&cfg.RequestTimeout, envRequestTimeout)
	setDuration(&cfg.SearchDebounce, envSearchDebounce)
	setString(&cfg.DatabasePath, envDBPath)
	setString(&cfg.LogLevel, envLogLevel)
	setString(&cfg.LogFormat, envLogFormat)
	setString(&cfg.ChatAPIKey, envChatAPIKey)
}
