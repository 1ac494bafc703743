// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigure_WritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Output: &buf, Service: "test-svc", Version: "v0"})

	Base().Info().Str("event", "unit.test").Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON line, got error: %v (line=%s)", err, buf.String())
	}
	if entry["service"] != "test-svc" {
		t.Errorf("expected service=test-svc, got %v", entry["service"])
	}
	if entry["event"] != "unit.test" {
		t.Errorf("expected event=unit.test, got %v", entry["event"])
	}
}

func TestSetLevel_InvalidLevelReturnsError(t *testing.T) {
	Configure(Config{})
	if err := SetLevel("not-a-level"); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestSetLevel_Valid(t *testing.T) {
	Configure(Config{})
	if err := SetLevel("debug"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Output: &buf})
	WithComponent("ingestion").Info().Msg("ok")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["component"] != "ingestion" {
		t.Errorf("expected component=ingestion, got %v", entry["component"])
	}
}

func TestMiddleware_SetsRequestIDHeader(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Output: &buf})

	handler := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if RequestIDFromContext(r.Context()) == "" {
			t.Error("expected request id in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID response header to be set")
	}
	if !strings.Contains(buf.String(), "request.handled") {
		t.Errorf("expected request.handled log line, got %s", buf.String())
	}
}

func TestRollingWriter_RotatesAtMaxBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runtime.log")

	w, err := newRollingWriter(path, 16, 2)
	if err != nil {
		t.Fatalf("newRollingWriter: %v", err)
	}
	defer w.Close()

	for i := 0; i < 5; i++ {
		if _, err := w.Write([]byte("0123456789\n")); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("expected rotated backup %s.1 to exist: %v", path, err)
	}
}
