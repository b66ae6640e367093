// Copyright 2026 The TicTic Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/tictic-dev/tictic-go/tictic"
)

// Environment variables read by Resolve.
const (
	EnvAPIKey  = "TICTIC_API_KEY"
	EnvBaseURL = "TICTIC_BASE_URL"
	EnvConfig  = "TICTIC_CONFIG"
)

// DefaultHTTPTimeout bounds each API request.
const DefaultHTTPTimeout = 30 * time.Second

// File is the on-disk configuration. Durations use Go syntax ("2s",
// "1m30s"). String values may reference the environment with ${VAR} or
// ${VAR:-default}.
type File struct {
	// APIKey authenticates requests. Prefer TICTIC_API_KEY, or a
	// ${VAR} reference, over a literal key.
	APIKey string `yaml:"api_key" json:"api_key" toml:"api_key"`

	// BaseURL is the API origin.
	BaseURL string `yaml:"base_url" json:"base_url" toml:"base_url"`

	// Session configures the connect poll loop.
	Session SessionFile `yaml:"session" json:"session" toml:"session"`

	// HTTP configures the HTTP client.
	HTTP HTTPFile `yaml:"http" json:"http" toml:"http"`
}

// SessionFile configures the connect poll loop.
type SessionFile struct {
	// PollInterval is the delay between status checks. Default: 2s
	PollInterval string `yaml:"poll_interval" json:"poll_interval" toml:"poll_interval"`

	// MaxAttempts is the number of status checks before giving up.
	// Default: 60
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts" toml:"max_attempts"`
}

// HTTPFile configures the HTTP client.
type HTTPFile struct {
	// Timeout bounds each request. Default: 30s
	Timeout string `yaml:"timeout" json:"timeout" toml:"timeout"`
}

// Options carries the explicit values that take precedence over every
// other source. Empty fields are unset.
type Options struct {
	// ConfigPath names the config file. Falls back to TICTIC_CONFIG.
	ConfigPath string

	APIKey  string
	BaseURL string

	// Getenv reads the environment. Defaults to os.Getenv.
	Getenv func(string) string
}

// Config is the resolved client configuration.
type Config struct {
	APIKey       string
	BaseURL      string
	PollInterval time.Duration
	MaxAttempts  int
	HTTPTimeout  time.Duration

	// APIKeySource names where APIKey came from: "flag", "env", "file",
	// or empty when no key is configured.
	APIKeySource string

	// ConfigPath is the file that was read, if any.
	ConfigPath string
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		BaseURL:      tictic.DefaultBaseURL,
		PollInterval: tictic.DefaultPollInterval,
		MaxAttempts:  tictic.DefaultMaxPollAttempts,
		HTTPTimeout:  DefaultHTTPTimeout,
	}
}

// Load reads and parses a config file. Files ending in .json or .jsonc
// are parsed as JSON with comments and trailing commas, .toml as TOML,
// anything else as YAML. Unknown keys are rejected in every format.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var file File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&file); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".toml":
		meta, err := toml.Decode(string(data), &file)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("parsing %s: unknown key %q", path, undecoded[0].String())
		}
	default:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		// A file with no documents decodes to io.EOF: empty config.
		if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	return &file, nil
}

// Resolve layers explicit options, environment, config file, and
// defaults, then validates the result. A missing API key is not an error
// here; commands that need one call RequireAPIKey.
func Resolve(options Options) (*Config, error) {
	getenv := options.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	cfg := Default()

	cfg.ConfigPath = options.ConfigPath
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = getenv(EnvConfig)
	}
	if cfg.ConfigPath != "" {
		file, err := Load(cfg.ConfigPath)
		if err != nil {
			return nil, err
		}
		if err := cfg.applyFile(file, getenv); err != nil {
			return nil, err
		}
	}

	if value := getenv(EnvAPIKey); value != "" {
		cfg.APIKey, cfg.APIKeySource = value, "env"
	}
	if value := getenv(EnvBaseURL); value != "" {
		cfg.BaseURL = value
	}

	if options.APIKey != "" {
		cfg.APIKey, cfg.APIKeySource = options.APIKey, "flag"
	}
	if options.BaseURL != "" {
		cfg.BaseURL = options.BaseURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFile merges non-empty file values over the defaults.
func (c *Config) applyFile(file *File, getenv func(string) string) error {
	var errs []error

	if value := expandVars(file.APIKey, getenv); value != "" {
		c.APIKey, c.APIKeySource = value, "file"
	}
	if value := expandVars(file.BaseURL, getenv); value != "" {
		c.BaseURL = value
	}
	if file.Session.PollInterval != "" {
		interval, err := time.ParseDuration(file.Session.PollInterval)
		if err != nil {
			errs = append(errs, fmt.Errorf("session.poll_interval: %w", err))
		}
		c.PollInterval = interval
	}
	if file.Session.MaxAttempts != 0 {
		c.MaxAttempts = file.Session.MaxAttempts
	}
	if file.HTTP.Timeout != "" {
		timeout, err := time.ParseDuration(file.HTTP.Timeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("http.timeout: %w", err))
		}
		c.HTTPTimeout = timeout
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s: %w", c.ConfigPath, errors.Join(errs...))
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if parsed, err := url.Parse(c.BaseURL); err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("base_url must be an http or https URL, got %q", c.BaseURL))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("session.poll_interval must be positive, got %s", c.PollInterval))
	}
	if c.MaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("session.max_attempts must be positive, got %d", c.MaxAttempts))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("http.timeout must be positive, got %s", c.HTTPTimeout))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// RequireAPIKey returns an error naming every way to supply a key when
// none is configured.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.APIKey) != "" {
		return nil
	}
	return &tictic.ConfigurationError{
		Field:   "APIKey",
		Message: "API key required; pass --api-key, set " + EnvAPIKey + ", or add api_key to the config file",
	}
}

// ClientConfig converts the resolved settings into library configuration.
// The renderer and state observer are left for the caller to set.
func (c *Config) ClientConfig(logger *slog.Logger) tictic.Config {
	return tictic.Config{
		APIKey:          c.APIKey,
		BaseURL:         c.BaseURL,
		HTTPClient:      &http.Client{Timeout: c.HTTPTimeout},
		Logger:          logger,
		PollInterval:    c.PollInterval,
		MaxPollAttempts: c.MaxAttempts,
	}
}

// AuthConfig converts the resolved settings into signup configuration.
func (c *Config) AuthConfig(logger *slog.Logger) tictic.AuthConfig {
	return tictic.AuthConfig{
		BaseURL:    c.BaseURL,
		HTTPClient: &http.Client{Timeout: c.HTTPTimeout},
		Logger:     logger,
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns.
func expandVars(s string, getenv func(string) string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}
