// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cmd

import (
	"strings"
	"testing"

	"github.com/scale-vision/runtime/internal/config"
)

func TestDefaultUIURL_RewritesWildcardBind(t *testing.T) {
	tests := []struct {
		bind string
		want string
	}{
		{"0.0.0.0", "http://127.0.0.1:8080/"},
		{"::", "http://127.0.0.1:8080/"},
		{"192.168.1.5", "http://192.168.1.5:8080/"},
	}
	for _, tt := range tests {
		cfg := config.AppConfig{HTTP: config.HTTPConfig{Bind: tt.bind, Port: 8080}}
		if got := defaultUIURL(cfg); got != tt.want {
			t.Errorf("defaultUIURL(%q) = %q, want %q", tt.bind, got, tt.want)
		}
	}
}

func TestWaitPageHTML_EmbedsTargetAndHealthURL(t *testing.T) {
	page := waitPageHTML("http://127.0.0.1:8080/")
	if !strings.Contains(page, `"http://127.0.0.1:8080"`) {
		t.Error("expected base URL (trailing slash trimmed) embedded in page")
	}
	if !strings.Contains(page, `"http://127.0.0.1:8080/health"`) {
		t.Error("expected health URL embedded in page")
	}
}
