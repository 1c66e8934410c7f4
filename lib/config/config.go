// Copyright 2026 The Slackline Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the slackline
// bridge.
//
// Configuration is loaded from a single YAML file specified by the
// --config flag or the SLACKLINE_CONFIG environment variable. There is
// no automatic discovery — unlike most concerns, the config file itself
// is optional: every field has a working default, and a missing path
// simply yields Default().
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the bridge configuration.
type Config struct {
	// API configures the side-channel HTTP client.
	API APIConfig `yaml:"api"`

	// Keepalive configures the ping/pong liveness probe.
	Keepalive KeepaliveConfig `yaml:"keepalive"`

	// HistoryCount is the number of messages fetched per
	// channels_history request. Default: 30.
	HistoryCount int `yaml:"history_count"`
}

// APIConfig configures the workspace API endpoint and credentials.
type APIConfig struct {
	// BaseURL is the root of the workspace HTTP API.
	// Default: https://slack.com/api
	BaseURL string `yaml:"base_url"`

	// TokenEnv names the environment variable holding the session
	// token. The token itself never appears in the config file.
	// Default: SLACK_TOKEN.
	TokenEnv string `yaml:"token_env"`
}

// KeepaliveConfig configures the periodic liveness probe on the
// realtime socket.
type KeepaliveConfig struct {
	// Interval between pings. Default: 10s.
	Interval time.Duration `yaml:"interval"`

	// Timeout is how long to wait for the matching pong before the
	// connection is declared dead and rebuilt. Default: 5s.
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:  "https://slack.com/api",
			TokenEnv: "SLACK_TOKEN",
		},
		Keepalive: KeepaliveConfig{
			Interval: 10 * time.Second,
			Timeout:  5 * time.Second,
		},
		HistoryCount: 30,
	}
}

// Load resolves the config path from the explicit flag value or the
// SLACKLINE_CONFIG environment variable, in that order. An empty path
// from both sources returns Default().
func Load(flagPath string) (*Config, error) {
	path := flagPath
	if path == "" {
		path = os.Getenv("SLACKLINE_CONFIG")
	}
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path. Fields
// absent from the file keep their defaults. Environment variables do
// not override file values — the file is the single source of truth.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}
	if c.API.TokenEnv == "" {
		return fmt.Errorf("api.token_env must not be empty")
	}
	if c.Keepalive.Interval <= 0 {
		return fmt.Errorf("keepalive.interval must be positive, got %v", c.Keepalive.Interval)
	}
	if c.Keepalive.Timeout <= 0 {
		return fmt.Errorf("keepalive.timeout must be positive, got %v", c.Keepalive.Timeout)
	}
	if c.HistoryCount <= 0 {
		return fmt.Errorf("history_count must be positive, got %d", c.HistoryCount)
	}
	return nil
}
