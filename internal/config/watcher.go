// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce is how long to wait after the last change event
// before reloading. Editors write config files in bursts.
const DefaultWatchDebounce = 500 * time.Millisecond

// Watcher reloads the global configuration when the config file changes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onReload func(*Config)
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewWatcher creates a watcher for the config directory. onReload may be
// nil; when set it is called with the freshly loaded config after each
// successful reload.
func NewWatcher(onReload func(*Config)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		watcher:  fsw,
		debounce: DefaultWatchDebounce,
		onReload: onReload,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Watch starts watching the config directory for changes.
func (w *Watcher) Watch() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	go w.processEvents()
	return nil
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.cancel()
	return w.watcher.Close()
}

// processEvents debounces write events on config files and reloads.
func (w *Watcher) processEvents() {
	var timer *time.Timer
	for {
		select {
		case <-w.ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.isConfigFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("config watcher: %v", err)
		}
	}
}

// isConfigFile reports whether path is one of the config files.
func (w *Watcher) isConfigFile(path string) bool {
	base := filepath.Base(path)
	return base == "config.toml" || base == "config.json"
}

// reload re-reads the config and notifies the callback.
func (w *Watcher) reload() {
	if err := ReloadGlobal(); err != nil {
		log.Printf("config reload failed: %v", err)
		return
	}
	if w.onReload != nil {
		w.onReload(Global())
	}
}
