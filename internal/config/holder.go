// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	svlog "github.com/scale-vision/runtime/internal/log"
)

// ConfigHolder wraps a Loader with an atomically-swapped snapshot, a file
// watcher that triggers reloads, and a fan-out of reload notifications.
// Mirrors the teacher's ConfigHolder (snapshot-pointer swap + fsnotify +
// listener channels), trimmed to file-only config (no ENV merge layer).
type ConfigHolder struct {
	reloadOpMu sync.Mutex
	current    atomic.Pointer[LoadedConfig]
	loader     *Loader
	watcher    *fsnotify.Watcher
	configDir  string
	configFile string
	logger     zerolog.Logger

	listenersMu sync.RWMutex
	listeners   []chan<- AppConfig
}

// NewConfigHolder loads the initial config and returns a ready holder.
func NewConfigHolder(path string) (*ConfigHolder, error) {
	loader := NewLoader(path)
	loaded, err := loader.Load()
	if err != nil {
		return nil, err
	}
	h := &ConfigHolder{
		loader: loader,
		logger: svlog.WithComponent("config"),
	}
	h.current.Store(&loaded)
	return h, nil
}

// Get returns the currently active configuration.
func (h *ConfigHolder) Get() AppConfig {
	loaded := h.current.Load()
	if loaded == nil {
		return Defaults()
	}
	return loaded.Config
}

// Path returns the config file path backing this holder.
func (h *ConfigHolder) Path() string {
	return h.loader.Path()
}

// Checksum returns the checksum of the currently active config file.
func (h *ConfigHolder) Checksum() string {
	loaded := h.current.Load()
	if loaded == nil {
		return ""
	}
	return loaded.Checksum
}

// ReloadIfChanged polls the backing file, swapping in a new validated
// config if its mtime advanced and the checksum actually differs; the
// decision engine's observation window is discarded by the caller whenever
// this returns changed=true (spec §4.10 / §9).
func (h *ConfigHolder) ReloadIfChanged(ctx context.Context) (AppConfig, bool, error) {
	h.reloadOpMu.Lock()
	defer h.reloadOpMu.Unlock()

	loaded, changed, err := h.loader.ReloadIfChanged()
	if err != nil {
		h.logger.Error().Err(err).Str("event", "config.reload_failed").Msg("config reload failed")
		return h.Get(), false, err
	}
	if !changed {
		return loaded.Config, false, nil
	}

	h.current.Store(&loaded)
	h.logger.Info().Str("event", "config.reload_success").Msg("configuration reloaded")
	h.notify(loaded.Config)
	return loaded.Config, true, nil
}

// StartWatcher watches the config file's directory for writes/renames
// (covers atomic replace via rename) and triggers ReloadIfChanged on change.
func (h *ConfigHolder) StartWatcher(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	h.watcher = watcher
	h.configDir = filepath.Dir(path)
	h.configFile = filepath.Base(path)

	if err := watcher.Add(h.configDir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}

	go h.watchLoop(ctx)
	return nil
}

func (h *ConfigHolder) watchLoop(ctx context.Context) {
	var debounce *time.Timer
	const debounceWindow = 250 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			_ = h.watcher.Close()
			return
		case ev, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != h.configFile {
				continue
			}
			if !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceWindow, func() {
				if _, _, err := h.ReloadIfChanged(ctx); err != nil {
					h.logger.Error().Err(err).Str("event", "config.watch_reload_failed").Msg("reload after file change failed")
				}
			})
		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Str("event", "config.watcher_error").Msg("watcher error")
		}
	}
}

// Stop closes the file watcher, if running.
func (h *ConfigHolder) Stop() {
	if h.watcher != nil {
		_ = h.watcher.Close()
	}
}

// RegisterListener registers a channel notified (non-blocking) on every
// successful reload.
func (h *ConfigHolder) RegisterListener(ch chan<- AppConfig) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()
	h.listeners = append(h.listeners, ch)
}

func (h *ConfigHolder) notify(cfg AppConfig) {
	h.listenersMu.RLock()
	defer h.listenersMu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- cfg:
		default:
			h.logger.Warn().Str("event", "config.listener_skip").Msg("skipped reload listener: channel full")
		}
	}
}

// WriteRaw rewrites the whole config file atomically (spec §6's "whole-file
// edit"). The new content must parse and validate; on success it triggers
// an immediate reload so the holder's in-memory snapshot matches the file.
func (h *ConfigHolder) WriteRaw(ctx context.Context, path string, raw []byte) error {
	var cfg AppConfig
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if err := renameio.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	_, _, err := h.ReloadIfChanged(ctx)
	return err
}
