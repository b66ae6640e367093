// Copyright 2026 The TicTic Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tictic-dev/tictic-go/tictic"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// fakeEnv returns a Getenv backed by a map.
func fakeEnv(values map[string]string) func(string) string {
	return func(name string) string { return values[name] }
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.BaseURL != tictic.DefaultBaseURL {
		t.Errorf("unexpected base URL: %s", cfg.BaseURL)
	}
	if cfg.PollInterval != 2*time.Second || cfg.MaxAttempts != 60 || cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		path := writeConfig(t, "tictic.yaml", `
api_key: k_yaml
base_url: http://localhost:8080
session:
  poll_interval: 500ms
  max_attempts: 10
http:
  timeout: 5s
`)
		file, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if file.APIKey != "k_yaml" || file.BaseURL != "http://localhost:8080" {
			t.Errorf("unexpected file: %+v", file)
		}
		if file.Session.PollInterval != "500ms" || file.Session.MaxAttempts != 10 || file.HTTP.Timeout != "5s" {
			t.Errorf("unexpected nested values: %+v", file)
		}
	})

	t.Run("jsonc with comments", func(t *testing.T) {
		path := writeConfig(t, "tictic.jsonc", `{
  // Local fake server.
  "base_url": "http://127.0.0.1:9000",
  "session": {"max_attempts": 3,},
}`)
		file, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if file.BaseURL != "http://127.0.0.1:9000" || file.Session.MaxAttempts != 3 {
			t.Errorf("unexpected file: %+v", file)
		}
	})

	t.Run("toml", func(t *testing.T) {
		path := writeConfig(t, "tictic.toml", `
api_key = "k_toml"

[session]
poll_interval = "250ms"
max_attempts = 4
`)
		file, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if file.APIKey != "k_toml" || file.Session.PollInterval != "250ms" || file.Session.MaxAttempts != 4 {
			t.Errorf("unexpected file: %+v", file)
		}
	})

	t.Run("empty yaml", func(t *testing.T) {
		path := writeConfig(t, "tictic.yaml", "# nothing configured\n")
		file, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if *file != (File{}) {
			t.Errorf("expected empty file, got %+v", file)
		}
	})

	t.Run("unknown keys rejected", func(t *testing.T) {
		for name, content := range map[string]string{
			"tictic.yaml": "apikey: typo\n",
			"tictic.json": `{"apikey": "typo"}`,
			"tictic.toml": "apikey = \"typo\"\n",
		} {
			path := writeConfig(t, name, content)
			if _, err := Load(path); err == nil {
				t.Errorf("%s: expected error for unknown key", name)
			}
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected not-exist error, got %v", err)
		}
	})
}

func TestResolvePrecedence(t *testing.T) {
	path := writeConfig(t, "tictic.yaml", `
api_key: k_file
base_url: http://file.example
session:
  poll_interval: 1s
`)

	tests := []struct {
		name       string
		options    Options
		env        map[string]string
		wantKey    string
		wantSource string
		wantURL    string
	}{
		{
			name:       "file only",
			options:    Options{ConfigPath: path},
			wantKey:    "k_file",
			wantSource: "file",
			wantURL:    "http://file.example",
		},
		{
			name:       "env over file",
			options:    Options{ConfigPath: path},
			env:        map[string]string{EnvAPIKey: "k_env", EnvBaseURL: "http://env.example"},
			wantKey:    "k_env",
			wantSource: "env",
			wantURL:    "http://env.example",
		},
		{
			name:       "flag over env",
			options:    Options{ConfigPath: path, APIKey: "k_flag", BaseURL: "http://flag.example"},
			env:        map[string]string{EnvAPIKey: "k_env", EnvBaseURL: "http://env.example"},
			wantKey:    "k_flag",
			wantSource: "flag",
			wantURL:    "http://flag.example",
		},
		{
			name:       "config path from env",
			env:        map[string]string{EnvConfig: path},
			wantKey:    "k_file",
			wantSource: "file",
			wantURL:    "http://file.example",
		},
		{
			name:    "defaults",
			wantURL: tictic.DefaultBaseURL,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			options := test.options
			options.Getenv = fakeEnv(test.env)
			cfg, err := Resolve(options)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if cfg.APIKey != test.wantKey || cfg.APIKeySource != test.wantSource {
				t.Errorf("API key: got %q from %q, want %q from %q", cfg.APIKey, cfg.APIKeySource, test.wantKey, test.wantSource)
			}
			if cfg.BaseURL != test.wantURL {
				t.Errorf("base URL: got %q, want %q", cfg.BaseURL, test.wantURL)
			}
		})
	}

	t.Run("file durations kept under env overrides", func(t *testing.T) {
		cfg, err := Resolve(Options{ConfigPath: path, Getenv: fakeEnv(map[string]string{EnvAPIKey: "k_env"})})
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if cfg.PollInterval != time.Second {
			t.Errorf("unexpected poll interval: %s", cfg.PollInterval)
		}
		if cfg.MaxAttempts != tictic.DefaultMaxPollAttempts {
			t.Errorf("unexpected max attempts: %d", cfg.MaxAttempts)
		}
	})
}

func TestResolveExpandsVariables(t *testing.T) {
	path := writeConfig(t, "tictic.yaml", `
api_key: ${SECRET_STORE_KEY}
base_url: ${STAGING_URL:-http://staging.example}
`)
	cfg, err := Resolve(Options{ConfigPath: path, Getenv: fakeEnv(map[string]string{"SECRET_STORE_KEY": "k_secret"})})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if cfg.APIKey != "k_secret" {
		t.Errorf("unexpected API key: %q", cfg.APIKey)
	}
	if cfg.BaseURL != "http://staging.example" {
		t.Errorf("unexpected base URL: %q", cfg.BaseURL)
	}
}

func TestResolveErrors(t *testing.T) {
	t.Run("explicit file missing", func(t *testing.T) {
		_, err := Resolve(Options{ConfigPath: filepath.Join(t.TempDir(), "absent.yaml"), Getenv: fakeEnv(nil)})
		if err == nil {
			t.Fatal("expected error for missing config file")
		}
	})

	t.Run("bad duration", func(t *testing.T) {
		path := writeConfig(t, "tictic.yaml", "session:\n  poll_interval: soon\n")
		_, err := Resolve(Options{ConfigPath: path, Getenv: fakeEnv(nil)})
		if err == nil || !strings.Contains(err.Error(), "session.poll_interval") {
			t.Errorf("expected poll_interval error, got %v", err)
		}
	})

	t.Run("validation collects every problem", func(t *testing.T) {
		path := writeConfig(t, "tictic.yaml", "session:\n  poll_interval: -1s\n  max_attempts: -2\n")
		_, err := Resolve(Options{ConfigPath: path, BaseURL: "ftp://example", Getenv: fakeEnv(nil)})
		if err == nil {
			t.Fatal("expected validation error")
		}
		for _, fragment := range []string{"base_url", "session.poll_interval", "session.max_attempts"} {
			if !strings.Contains(err.Error(), fragment) {
				t.Errorf("error %q should mention %s", err, fragment)
			}
		}
	})
}

func TestRequireAPIKey(t *testing.T) {
	cfg := Default()
	err := cfg.RequireAPIKey()
	var configErr *tictic.ConfigurationError
	if !errors.As(err, &configErr) || !strings.Contains(configErr.Message, EnvAPIKey) {
		t.Errorf("expected configuration error naming %s, got %v", EnvAPIKey, err)
	}

	cfg.APIKey = "k1"
	if err := cfg.RequireAPIKey(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestClientConfig(t *testing.T) {
	cfg := &Config{
		APIKey:       "k1",
		BaseURL:      "http://localhost:8080",
		PollInterval: 250 * time.Millisecond,
		MaxAttempts:  4,
		HTTPTimeout:  3 * time.Second,
	}
	clientConfig := cfg.ClientConfig(nil)
	if clientConfig.APIKey != "k1" || clientConfig.BaseURL != "http://localhost:8080" {
		t.Errorf("unexpected client config: %+v", clientConfig)
	}
	if clientConfig.PollInterval != 250*time.Millisecond || clientConfig.MaxPollAttempts != 4 {
		t.Errorf("unexpected poll policy: %s, %d", clientConfig.PollInterval, clientConfig.MaxPollAttempts)
	}
	if clientConfig.HTTPClient == nil || clientConfig.HTTPClient.Timeout != 3*time.Second {
		t.Errorf("unexpected HTTP client: %+v", clientConfig.HTTPClient)
	}
	if _, err := tictic.NewClient(clientConfig); err != nil {
		t.Errorf("NewClient rejected resolved config: %v", err)
	}

	authConfig := cfg.AuthConfig(nil)
	if authConfig.BaseURL != "http://localhost:8080" || authConfig.HTTPClient.Timeout != 3*time.Second {
		t.Errorf("unexpected auth config: %+v", authConfig)
	}
}
