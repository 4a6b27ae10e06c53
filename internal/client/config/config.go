package config

import (
	"strings"
	"time"
)

// Config holds runtime settings for the marketplace CLI.
type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	SearchDebounce time.Duration
	DatabasePath   string
	LogLevel       string
	LogFormat      string
	ChatAPIKey     string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:8000"
	c.RequestTimeout = 30 * time.Second
	c.SearchDebounce = 500 * time.Millisecond
	c.DatabasePath = "market.db"
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.ChatAPIKey = ""
}

func (c *Config) normalize() {
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
}

// LoadConfig constructs a Config, applies defaults, then overlays the
// environment (including ./.env), a JSON file and command-line flags. Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg, ".env")
	parseJson(cfg)
	parseFlags(cfg)
	cfg.normalize()
	return cfg
}
