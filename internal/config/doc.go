// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for authgate.
//
// # Configuration Sources
//
// Configuration is resolved in order of precedence:
//
//  1. Environment variables (AUTHGATE_SERVER_URL, AUTHGATE_TIMEOUT_SECS,
//     AUTHGATE_DATA_DIR, AUTHGATE_THEME)
//  2. ~/.authgate/config.toml
//  3. ~/.authgate/config.json (only when no TOML file exists)
//  4. Built-in defaults
//
// # Hot Reload
//
// A Watcher can be attached to the config directory; it debounces change
// events and replaces the global configuration on successful reload.
package config
