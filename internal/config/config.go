package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/raphaelgruber/skinsync/internal/catalog"
	"github.com/raphaelgruber/skinsync/internal/client"
	"github.com/raphaelgruber/skinsync/internal/service"
	"github.com/raphaelgruber/skinsync/internal/wiki"
)

// Config holds all configuration values.
// Precedence: defaults, then the YAML file, then SKINSYNC_* variables.
// Command-line flags are applied on top by the CLI.
type Config struct {
	// Remote API
	APIURL         string        `yaml:"api_url" env:"SKINSYNC_API_URL"`
	UserAgent      string        `yaml:"user_agent" env:"SKINSYNC_USER_AGENT"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"SKINSYNC_REQUEST_TIMEOUT"`
	MaxImageBytes  int64         `yaml:"max_image_bytes" env:"SKINSYNC_MAX_IMAGE_BYTES"`
	Throttle       time.Duration `yaml:"throttle" env:"SKINSYNC_THROTTLE"`

	// Fetch
	Dest       string   `yaml:"dest" env:"SKINSYNC_DEST"`
	Backup     bool     `yaml:"backup" env:"SKINSYNC_BACKUP"`
	Characters []string `yaml:"characters" env:"SKINSYNC_CHARACTERS" envSeparator:","`

	// Rescale
	Source string `yaml:"source" env:"SKINSYNC_SOURCE"`
	Width  int    `yaml:"width" env:"SKINSYNC_WIDTH"`

	// Logging
	LogFile  string `yaml:"log_file" env:"SKINSYNC_LOG_FILE"`
	LogLevel string `yaml:"log_level" env:"SKINSYNC_LOG_LEVEL"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIURL:         wiki.DefaultAPIURL,
		UserAgent:      client.DefaultUserAgent,
		RequestTimeout: client.DefaultTimeout,
		MaxImageBytes:  client.DefaultMaxBytes,
		Throttle:       service.DefaultThrottle,

		Dest:   filepath.Join("assets", "characters"),
		Backup: true,

		Source: filepath.Join("..", "client", "assets", "characters"),
		Width:  service.DefaultWidth,

		LogLevel: "WARN",
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, and the environment, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks that the values are usable.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.APIURL) == "" {
		errs = append(errs, errors.New("api_url is required"))
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		errs = append(errs, errors.New("user_agent is required"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout))
	}
	if c.MaxImageBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_image_bytes must be positive, got %d", c.MaxImageBytes))
	}
	if c.Throttle < 0 {
		errs = append(errs, fmt.Errorf("throttle must not be negative, got %s", c.Throttle))
	}
	if c.Width <= 0 {
		errs = append(errs, fmt.Errorf("width must be positive, got %d", c.Width))
	}
	if _, ok := parseLogLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("log_level must be one of DEBUG, INFO, WARN, ERROR, got %q", c.LogLevel))
	}
	if len(c.Characters) > 0 {
		if err := c.Catalog().Validate(); err != nil {
			errs = append(errs, fmt.Errorf("characters: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Catalog returns the configured characters, or the built-in catalog.
func (c Config) Catalog() catalog.Catalog {
	if len(c.Characters) == 0 {
		return catalog.Default()
	}
	return catalog.FromNames(c.Characters)
}

// Level returns the parsed log level.
func (c Config) Level() slog.Level {
	level, _ := parseLogLevel(c.LogLevel)
	return level
}

// GetEnv returns the value of key, or defaultVal when unset or empty.
func GetEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// parseLogLevel maps a level name to its slog level. Unknown names report
// false and map to INFO; Validate rejects them before Level is used.
func parseLogLevel(s string) (slog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO":
		return slog.LevelInfo, true
	case "WARN", "WARNING":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
