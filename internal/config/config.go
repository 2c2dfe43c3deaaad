// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

// Package config loads the TOML configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// DefaultSelfUpdateRepo is the GitHub slug releases are fetched from.
const DefaultSelfUpdateRepo = "janderssonse/sysup"

// Config holds user-tunable settings.
type Config struct {
	// Backends restricts which package managers run; empty means all
	// available ones.
	Backends []string `toml:"backends"`

	// DryRun makes every run a no-op preview by default.
	DryRun bool `toml:"dry_run"`

	// SelfUpdateRepo is the GitHub owner/repo slug for self-update.
	SelfUpdateRepo string `toml:"self_update_repo"`

	// LogDir overrides the run log directory.
	LogDir string `toml:"log_dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		SelfUpdateRepo: DefaultSelfUpdateRepo,
	}
}

// DefaultPath returns the config file location, honoring XDG_CONFIG_HOME.
func DefaultPath() string {
	if cfg := os.Getenv("XDG_CONFIG_HOME"); cfg != "" {
		return filepath.Join(cfg, "sysup", "config.toml")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/etc", "sysup", "config.toml")
	}

	return filepath.Join(home, ".config", "sysup", "config.toml")
}

// Load reads the config at path, falling back to defaults when the file
// does not exist. An empty path selects DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}

		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.SelfUpdateRepo == "" {
		cfg.SelfUpdateRepo = DefaultSelfUpdateRepo
	}

	return cfg, nil
}
