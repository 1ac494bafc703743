// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package version

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuildID_DeterministicForSameTree(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("write readme: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main"), 0o644); err != nil {
		t.Fatalf("write main.go: %v", err)
	}

	id1, err := BuildID(dir)
	if err != nil {
		t.Fatalf("BuildID: %v", err)
	}
	id2, err := BuildID(dir)
	if err != nil {
		t.Fatalf("BuildID: %v", err)
	}
	if id1 != id2 {
		t.Errorf("expected deterministic build id, got %s != %s", id1, id2)
	}
	if len(id1) != 4 {
		t.Errorf("expected 4-digit build id, got %q", id1)
	}
}

func TestBuildID_ChangesWithContent(t *testing.T) {
	dir := t.TempDir()
	mainPath := filepath.Join(dir, "main.go")
	if err := os.WriteFile(mainPath, []byte("package main"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	id1, err := BuildID(dir)
	if err != nil {
		t.Fatalf("BuildID: %v", err)
	}

	if err := os.WriteFile(mainPath, []byte("package main // changed"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	id2, err := BuildID(dir)
	if err != nil {
		t.Fatalf("BuildID: %v", err)
	}

	if id1 == id2 {
		t.Error("expected build id to change when file content changes")
	}
}

func TestBuildID_ErrorsOnEmptyTree(t *testing.T) {
	dir := t.TempDir()
	if _, err := BuildID(dir); err == nil {
		t.Fatal("expected error for tree with no seed files")
	}
}

func TestAppVersion_FallsBackWithoutSourceTree(t *testing.T) {
	got := AppVersion(filepath.Join(os.TempDir(), "definitely-does-not-exist-xyz"))
	if got != Version {
		t.Errorf("expected fallback to Version=%s, got %s", Version, got)
	}
}
