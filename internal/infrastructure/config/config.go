// Package config loads service configuration from the environment,
// optionally overlaid from a YAML or TOML file.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" toml:"server"`
	Generation GenerationConfig `yaml:"generation" toml:"generation"`
	Marketing  MarketingConfig  `yaml:"marketing" toml:"marketing"`
	Editor     EditorConfig     `yaml:"editor" toml:"editor"`
	Logging    LogConfig        `yaml:"logging" toml:"logging"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit" toml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8080" yaml:"port" toml:"port"`
	Host string `envconfig:"HOST" default:"0.0.0.0" yaml:"host" toml:"host"`
}

// GenerationConfig points at the AI email generation service
type GenerationConfig struct {
	BaseURL string        `envconfig:"GENERATION_URL" default:"http://localhost:9100" yaml:"base_url" toml:"base_url"`
	Timeout time.Duration `envconfig:"GENERATION_TIMEOUT" default:"90s" yaml:"timeout" toml:"timeout"`
}

// MarketingConfig points at the campaign persistence backend
type MarketingConfig struct {
	BaseURL string        `envconfig:"MARKETING_URL" default:"http://localhost:9200" yaml:"base_url" toml:"base_url"`
	Timeout time.Duration `envconfig:"MARKETING_TIMEOUT" default:"30s" yaml:"timeout" toml:"timeout"`
}

// EditorConfig carries the preview interaction constants. The shipped
// values match the dashboard webview's capture script.
type EditorConfig struct {
	DebounceWindow     time.Duration `envconfig:"EDITOR_DEBOUNCE" default:"300ms" yaml:"debounce_window" toml:"debounce_window"`
	LongPressThreshold time.Duration `envconfig:"EDITOR_LONG_PRESS" default:"500ms" yaml:"long_press_threshold" toml:"long_press_threshold"`
	HintDuration       time.Duration `envconfig:"EDITOR_HINT_DURATION" default:"3500ms" yaml:"hint_duration" toml:"hint_duration"`
	HistoryDepth       int           `envconfig:"EDITOR_HISTORY_DEPTH" default:"20" yaml:"history_depth" toml:"history_depth"`
	MaxAssetBytes      int64         `envconfig:"EDITOR_MAX_ASSET_BYTES" default:"2097152" yaml:"max_asset_bytes" toml:"max_asset_bytes"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"50" yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"100" yaml:"burst" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled" toml:"enabled"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Host: "0.0.0.0",
		},
		Generation: GenerationConfig{
			BaseURL: "http://localhost:9100",
			Timeout: 90 * time.Second,
		},
		Marketing: MarketingConfig{
			BaseURL: "http://localhost:9200",
			Timeout: 30 * time.Second,
		},
		Editor: EditorConfig{
			DebounceWindow:     300 * time.Millisecond,
			LongPressThreshold: 500 * time.Millisecond,
			HintDuration:       3500 * time.Millisecond,
			HistoryDepth:       20,
			MaxAssetBytes:      2 << 20,
		},
		Logging: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
			Enabled:           true,
		},
	}
}
