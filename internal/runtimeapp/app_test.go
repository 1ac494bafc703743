// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package runtimeapp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/scale-vision/runtime/internal/config"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	doc := map[string]any{
		"ingestion": map[string]any{
			"source": "file",
			"file":   map[string]any{"path": filepath.Join(t.TempDir(), "missing.ppm"), "allow_missing": true},
		},
		"output":    map[string]any{"backend": "test"},
		"inference": map[string]any{"backend": "stub"},
		"http":      map[string]any{"enabled": true, "bind": "127.0.0.1", "port": 18181},
	}
	path := filepath.Join(t.TempDir(), "config.json")
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNew_BuildsEverySubsystem(t *testing.T) {
	holder, err := config.NewConfigHolder(writeTestConfig(t))
	if err != nil {
		t.Fatal(err)
	}

	app, err := New(holder, "")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if app.State().Backend() == nil {
		t.Error("expected a non-nil inference backend")
	}
	if app.State().Mapper() == nil {
		t.Error("expected a non-nil mapper")
	}
	if app.State().Engine() == nil {
		t.Error("expected a non-nil decision engine")
	}
}

func TestApp_RunStopsOnContextCancel(t *testing.T) {
	holder, err := config.NewConfigHolder(writeTestConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	app, err := New(holder, "")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected Run to return nil on context cancel, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestApplyReload_SwapsMapperAndEngineNotBackendWhenUnchanged(t *testing.T) {
	holder, err := config.NewConfigHolder(writeTestConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	app, err := New(holder, "")
	if err != nil {
		t.Fatal(err)
	}

	originalEngine := app.State().Engine()
	originalBackend := app.State().Backend()

	reloaded := holder.Get()
	reloaded.Decision.MinConfidence = 0.99
	app.applyReload(reloaded)

	if app.State().Engine() == originalEngine {
		t.Error("expected decision engine to be rebuilt on reload")
	}
	if app.State().Backend() != originalBackend {
		t.Error("expected backend to be left alone when inference config did not change")
	}
}

func TestApplyReload_SwapsBackendWhenSelectionChanges(t *testing.T) {
	holder, err := config.NewConfigHolder(writeTestConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	app, err := New(holder, "")
	if err != nil {
		t.Fatal(err)
	}

	originalBackend := app.State().Backend()

	reloaded := holder.Get()
	reloaded.Inference.StubClasses = []string{"apple", "banana"}
	reloaded.Inference.ModelPath = "/tmp/changed-model-path.onnx"
	app.applyReload(reloaded)

	if app.State().Backend() == originalBackend {
		t.Error("expected backend to be rebuilt when model_path changed")
	}
}
