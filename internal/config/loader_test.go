// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, dir string, cfg AppConfig) string {
	t.Helper()
	path := filepath.Join(dir, "config.json")
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoader_LoadValid(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, Defaults())

	l := NewLoader(path)
	loaded, err := l.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Checksum == "" {
		t.Error("expected non-empty checksum")
	}
	if loaded.Config.Mode != "test" {
		t.Errorf("expected mode=test, got %s", loaded.Config.Mode)
	}
}

func TestLoader_RejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"mode":"test","bogus_field":true}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	l := NewLoader(path)
	if _, err := l.Load(); err == nil {
		t.Fatal("expected error for unknown top-level field")
	}
}

func TestLoader_ReloadIfChanged_NoChangeWhenMtimeStable(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, Defaults())

	l := NewLoader(path)
	if _, err := l.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	_, changed, err := l.ReloadIfChanged()
	if err != nil {
		t.Fatalf("ReloadIfChanged: %v", err)
	}
	if changed {
		t.Error("expected changed=false when file untouched")
	}
}

func TestLoader_ReloadIfChanged_DetectsContentChange(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, Defaults())

	l := NewLoader(path)
	if _, err := l.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	cfg := Defaults()
	cfg.Decision.MinConfidence = 0.9
	data, _ := json.Marshal(cfg)
	// Ensure the mtime strictly advances on filesystems with coarse
	// timestamp resolution.
	future := time.Now().Add(2 * time.Second)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	loaded, changed, err := l.ReloadIfChanged()
	if err != nil {
		t.Fatalf("ReloadIfChanged: %v", err)
	}
	if !changed {
		t.Fatal("expected changed=true after content+mtime change")
	}
	if loaded.Config.Decision.MinConfidence != 0.9 {
		t.Errorf("expected reloaded min_confidence=0.9, got %v", loaded.Config.Decision.MinConfidence)
	}
}
