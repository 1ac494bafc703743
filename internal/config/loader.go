// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// LoadedConfig pairs a validated AppConfig with the checksum and mtime of
// the file it was loaded from.
type LoadedConfig struct {
	Config   AppConfig
	Checksum string
	Path     string
	MTime    time.Time
}

// Loader reads, strictly decodes, and validates the JSON config file at a
// fixed path. Safe for concurrent use.
type Loader struct {
	mu     sync.Mutex
	path   string
	loaded *LoadedConfig
}

// NewLoader creates a Loader for the given config file path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

func checksum(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Load reads the file fresh, decodes it strictly (extra keys rejected),
// validates it, and remembers {config, checksum, mtime}.
func (l *Loader) Load() (LoadedConfig, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadLocked()
}

func (l *Loader) loadLocked() (LoadedConfig, error) {
	payload, err := os.ReadFile(l.path)
	if err != nil {
		return LoadedConfig{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := Defaults()
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return LoadedConfig{}, fmt.Errorf("parse config file %s: %w", l.path, err)
	}

	if err := Validate(cfg); err != nil {
		return LoadedConfig{}, fmt.Errorf("validate config file %s: %w", l.path, err)
	}

	info, err := os.Stat(l.path)
	if err != nil {
		return LoadedConfig{}, fmt.Errorf("stat config file: %w", err)
	}

	loaded := LoadedConfig{
		Config:   cfg,
		Checksum: checksum(payload),
		Path:     l.path,
		MTime:    info.ModTime(),
	}
	l.loaded = &loaded
	return loaded, nil
}

// ReloadIfChanged returns the cached config unchanged (changed=false) if the
// file's mtime has not advanced since the last Load/ReloadIfChanged; else it
// reloads and reports whether the checksum actually differs.
func (l *Loader) ReloadIfChanged() (LoadedConfig, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.loaded == nil {
		loaded, err := l.loadLocked()
		return loaded, true, err
	}

	info, err := os.Stat(l.path)
	if err != nil {
		return *l.loaded, false, fmt.Errorf("stat config file: %w", err)
	}
	if !info.ModTime().After(l.loaded.MTime) {
		return *l.loaded, false, nil
	}

	oldChecksum := l.loaded.Checksum
	loaded, err := l.loadLocked()
	if err != nil {
		return LoadedConfig{}, false, err
	}
	return loaded, loaded.Checksum != oldChecksum, nil
}

// Path returns the config file path this Loader reads from.
func (l *Loader) Path() string {
	return l.path
}

// Current returns the last successfully loaded config, if any.
func (l *Loader) Current() (LoadedConfig, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.loaded == nil {
		return LoadedConfig{}, false
	}
	return *l.loaded, true
}
