// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for authgate.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.authgate/config.toml
//   - ~/.authgate/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete authgate configuration.
type Config struct {
	// Version of the config schema.
	Version string `toml:"version" json:"version"`

	// Server configuration (the remote authentication service)
	Server ServerConfig `toml:"server" json:"server"`

	// Storage configuration (local session persistence)
	Storage StorageConfig `toml:"storage" json:"storage"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// ServerConfig describes the remote authentication service.
type ServerConfig struct {
	// BaseURL is the root URL of the authentication service.
	// Endpoint paths (e.g. /api/auth/login) are appended to it.
	BaseURL string `toml:"base_url" json:"base_url"`
	// TimeoutSecs is the HTTP request timeout in seconds.
	// Valid range is 5-120; values outside the range are clamped.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// StorageConfig describes local persistence.
type StorageConfig struct {
	// DataDir is where the session database lives (empty = ~/.authgate).
	DataDir string `toml:"data_dir" json:"data_dir"`
}

// UIConfig contains UI preferences.
type UIConfig struct {
	// Theme selects the color theme: "dark", "light", or "auto".
	Theme string `toml:"theme" json:"theme"`
	// ShowHelpHint shows the "? for help" hint in the footer.
	ShowHelpHint bool `toml:"show_help_hint" json:"show_help_hint"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Timeout clamping bounds, in seconds.
const (
	MinTimeoutSecs     = 5
	DefaultTimeoutSecs = 30
	MaxTimeoutSecs     = 120
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		Server: ServerConfig{
			BaseURL:     "http://localhost:8080",
			TimeoutSecs: DefaultTimeoutSecs,
		},
		Storage: StorageConfig{
			DataDir: "",
		},
		UI: UIConfig{
			Theme:        "auto",
			ShowHelpHint: true,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// Dir returns the authgate configuration directory (~/.authgate).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".authgate"), nil
}

// TOMLPath returns the path to the TOML config file.
func TOMLPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// JSONPath returns the path to the JSON config file.
func JSONPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DataDir resolves the storage directory, falling back to the config dir.
func (c *Config) DataDir() (string, error) {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir, nil
	}
	return Dir()
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration from disk, preferring TOML over JSON,
// falling back to defaults when no file exists. Environment overrides are
// applied last, then the result is validated (with clamping).
func Load() (*Config, error) {
	cfg := DefaultConfig()

	tomlPath, pathErr := TOMLPath()
	tomlExists := false
	if pathErr == nil {
		if _, err := os.Stat(tomlPath); err == nil {
			tomlExists = true
			if _, err := toml.DecodeFile(tomlPath, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", tomlPath, err)
			}
		}
	}

	// JSON is only consulted when no TOML file exists.
	if !tomlExists {
		if jsonPath, err := JSONPath(); err == nil {
			if data, readErr := os.ReadFile(jsonPath); readErr == nil {
				if decErr := json.Unmarshal(data, cfg); decErr != nil {
					return nil, fmt.Errorf("failed to parse %s: %w", jsonPath, decErr)
				}
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies AUTHGATE_* environment variables on top of the
// file-based configuration.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("AUTHGATE_SERVER_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("AUTHGATE_TIMEOUT_SECS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.Server.TimeoutSecs = secs
		}
	}
	if v := os.Getenv("AUTHGATE_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("AUTHGATE_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ErrInvalidBaseURL indicates the configured server URL is unusable.
var ErrInvalidBaseURL = errors.New("invalid server base URL")

// Validate checks the configuration and clamps out-of-range values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.Server.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidBaseURL, u.Scheme)
	}

	if c.Server.TimeoutSecs < MinTimeoutSecs {
		c.Server.TimeoutSecs = MinTimeoutSecs
	}
	if c.Server.TimeoutSecs > MaxTimeoutSecs {
		c.Server.TimeoutSecs = MaxTimeoutSecs
	}

	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		c.UI.Theme = "auto"
	}

	return nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration to the TOML config file, creating the
// config directory if needed.
func (c *Config) Save() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	path := filepath.Join(dir, "config.toml")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// GLOBAL ACCESS
// =============================================================================

var (
	globalMu     sync.RWMutex
	globalConfig *Config
)

// Global returns the process-wide configuration, loading it on first use.
// If loading fails the defaults are used.
func Global() *Config {
	globalMu.RLock()
	if globalConfig != nil {
		defer globalMu.RUnlock()
		return globalConfig
	}
	globalMu.RUnlock()

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			cfg = DefaultConfig()
		}
		globalConfig = cfg
	}
	return globalConfig
}

// SetGlobal replaces the process-wide configuration.
func SetGlobal(c *Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalConfig = c
}

// ReloadGlobal re-reads the configuration from disk and replaces the
// process-wide configuration on success.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// ResetGlobalForTesting clears the global config so tests start clean.
func ResetGlobalForTesting() {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalConfig = nil
}
