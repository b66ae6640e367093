// Copyright 2026 The TicTic Authors
// SPDX-License-Identifier: Apache-2.0

// Package config resolves TicTic client settings for command-line tools.
//
// Settings come from four layers, highest precedence first:
//
//  1. Explicit values (command-line flags) passed in [Options]
//  2. Environment variables: TICTIC_API_KEY, TICTIC_BASE_URL
//  3. A config file named by --config or TICTIC_CONFIG
//  4. Built-in defaults
//
// The config file is YAML, TOML when its name ends in .toml, or JSON
// with comments when it ends in .json or .jsonc. There is no discovery: without --config or
// TICTIC_CONFIG no file is read. Unknown keys are rejected so that a typo
// does not silently fall back to a default.
//
// The tictic library itself never reads the environment. This package
// is the boundary where that happens; [Config.ClientConfig] converts the
// resolved settings into a tictic.Config.
package config
