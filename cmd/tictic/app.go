// Copyright 2026 The TicTic Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/tictic-dev/tictic-go/cmd/tictic/cli"
	"github.com/tictic-dev/tictic-go/lib/config"
	"github.com/tictic-dev/tictic-go/lib/qrcode"
	"github.com/tictic-dev/tictic-go/tictic"
)

// app carries the process boundary: standard streams, the environment,
// and the QR renderer. Tests substitute every field.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string

	// renderer overrides the terminal QR renderer when set.
	renderer tictic.Renderer
}

func newApp() *app {
	return &app{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
	}
}

// globalParams are the connection flags every command accepts.
type globalParams struct {
	ConfigPath string `flag:"config" desc:"config file: YAML, TOML (.toml) or JSONC (.json, .jsonc) (default $TICTIC_CONFIG)"`
	APIKey     string `flag:"api-key" desc:"API key (default $TICTIC_API_KEY)"`
	BaseURL    string `flag:"base-url" desc:"API origin (default $TICTIC_BASE_URL or https://api.tictic.dev)"`
	Verbose    bool   `flag:"verbose,v" desc:"log every API request"`
}

// pollParams override the connect poll policy from the config file.
type pollParams struct {
	PollInterval time.Duration `flag:"poll-interval" desc:"delay between session status checks (default 2s)"`
	MaxAttempts  int           `flag:"max-attempts" desc:"status checks before giving up (default 60)"`
}

func (a *app) resolve(params globalParams) (*config.Config, *slog.Logger, error) {
	logger := cli.NewCommandLogger(a.stderr, params.Verbose)
	cfg, err := config.Resolve(config.Options{
		ConfigPath: params.ConfigPath,
		APIKey:     params.APIKey,
		BaseURL:    params.BaseURL,
		Getenv:     a.getenv,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("configuration resolved",
		"base_url", cfg.BaseURL,
		"api_key_source", cfg.APIKeySource,
		"config_path", cfg.ConfigPath,
	)
	return cfg, logger, nil
}

// newClient resolves configuration and builds an authenticated client.
// With jsonOutput set the QR code goes to stderr, leaving stdout to the
// JSON result.
func (a *app) newClient(params globalParams, poll pollParams, jsonOutput bool) (*tictic.Client, error) {
	cfg, logger, err := a.resolve(params)
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	if poll.PollInterval > 0 {
		cfg.PollInterval = poll.PollInterval
	}
	if poll.MaxAttempts > 0 {
		cfg.MaxAttempts = poll.MaxAttempts
	}

	clientConfig := cfg.ClientConfig(logger)
	qrOutput := a.stdout
	if jsonOutput {
		qrOutput = a.stderr
	}
	clientConfig.Renderer = a.qrRenderer(qrOutput)
	return tictic.NewClient(clientConfig)
}

func (a *app) newAuthClient(params globalParams) (*tictic.AuthClient, error) {
	cfg, logger, err := a.resolve(params)
	if err != nil {
		return nil, err
	}
	return tictic.NewAuthClient(cfg.AuthConfig(logger))
}

func (a *app) qrRenderer(w io.Writer) tictic.Renderer {
	if a.renderer != nil {
		return a.renderer
	}
	if file, ok := w.(*os.File); ok {
		return qrcode.ForTerminal(file)
	}
	renderer, err := qrcode.New(qrcode.Config{Writer: w})
	if err != nil {
		return nil
	}
	return renderer
}
