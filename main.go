// authgate TUI - a terminal client for the email-OTP authentication service.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/jeranaias/authgate-tui/internal/api"
	"github.com/jeranaias/authgate-tui/internal/authflow"
	"github.com/jeranaias/authgate-tui/internal/config"
	"github.com/jeranaias/authgate-tui/internal/session"
	"github.com/jeranaias/authgate-tui/internal/ui"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	for _, arg := range os.Args[1:] {
		switch arg {
		case "--version", "-v":
			fmt.Printf("authgate %s (%s, %s)\n", Version, GitCommit, BuildDate)
			return
		case "--help", "-h":
			printUsage()
			return
		default:
			fmt.Fprintf(os.Stderr, "unknown flag: %s\n", arg)
			printUsage()
			os.Exit(2)
		}
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "authgate requires an interactive terminal")
		os.Exit(1)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Global()

	// Route request logging away from the TUI's screen.
	if logFile := openLogFile(); logFile != nil {
		defer logFile.Close()
		log.SetOutput(logFile)
	}

	// Reload config on file changes; failures here are not fatal.
	if watcher, err := config.NewWatcher(nil); err == nil {
		if err := watcher.Watch(); err == nil {
			defer watcher.Close()
		} else {
			watcher.Close()
		}
	}

	dataDir, err := cfg.DataDir()
	if err != nil {
		return err
	}
	store := session.Open(dataDir)
	defer store.Close()

	client := api.New(cfg.Server.BaseURL,
		api.WithTimeout(time.Duration(cfg.Server.TimeoutSecs)*time.Second))

	ctrl := authflow.New(client, store)

	program := tea.NewProgram(ui.New(ctrl, cfg), tea.WithAltScreen())
	_, err = program.Run()
	return err
}

// openLogFile opens ~/.authgate/authgate.log for request logging. Returns
// nil when the directory is unavailable; logging then stays on stderr.
func openLogFile() *os.File {
	dir, err := config.Dir()
	if err != nil {
		return nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil
	}
	f, err := os.OpenFile(dir+"/authgate.log", os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil
	}
	return f
}

func printUsage() {
	fmt.Println(`authgate - terminal client for the authentication service

Usage:
  authgate            start the interactive client
  authgate --version  print version information
  authgate --help     show this help

Configuration:
  ~/.authgate/config.toml (see also AUTHGATE_SERVER_URL, AUTHGATE_TIMEOUT_SECS,
  AUTHGATE_DATA_DIR, AUTHGATE_THEME)`)
}
