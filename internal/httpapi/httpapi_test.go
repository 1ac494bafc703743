// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/scale-vision/runtime/internal/config"
	"github.com/scale-vision/runtime/internal/decision"
	"github.com/scale-vision/runtime/internal/health"
	"github.com/scale-vision/runtime/internal/inference"
	"github.com/scale-vision/runtime/internal/mapper"
	"github.com/scale-vision/runtime/internal/state"
	"github.com/scale-vision/runtime/internal/types"
)

func newTestServer(t *testing.T) (*Server, *state.RuntimeState) {
	t.Helper()

	doc := map[string]any{
		"ingestion": map[string]any{"source": "file"},
		"output":    map[string]any{"backend": "test"},
		"inference": map[string]any{"backend": "stub"},
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	holder, err := config.NewConfigHolder(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg := holder.Get()

	tracker := health.NewTracker()
	backend := inference.NewStubBackend([]string{"apple", "banana"}, 3)
	if err := backend.Load(); err != nil {
		t.Fatal(err)
	}
	st := state.New(tracker, holder, backend, mapper.New(cfg.Mapping), decision.NewEngine(cfg.Decision))

	return New(st, holder, ""), st
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response body: %v (body=%s)", err, rr.Body.String())
	}
}

func TestHandleHealth_ReadyWhenNoDegradation(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	s.handleHealth(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
	var resp healthResponse
	decodeJSON(t, rr, &resp)
	if !resp.Ready || resp.Degraded {
		t.Errorf("expected ready and not degraded, got %+v", resp)
	}
}

func TestHandleHealth_ServiceUnavailableWhenDegraded(t *testing.T) {
	s, st := newTestServer(t)
	st.Health.SetDegraded("INFERENCE_RUNTIME_FAILED")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	s.handleHealth(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when degraded, got %d", rr.Code)
	}
}

func TestHandleLastDecision_EmptyBeforeAnyDecision(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/last-decision", nil)
	rr := httptest.NewRecorder()
	s.handleLastDecision(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != "{}\n" {
		t.Errorf("expected empty object before any decision, got %q", rr.Body.String())
	}
}

func TestHandleIngestionStatus_ReflectsUpdates(t *testing.T) {
	s, st := newTestServer(t)

	st.UpdateIngestionStatus(types.IngestionStatus{Source: "camera", Drops: 7, OK: true})
	req := httptest.NewRequest(http.MethodGet, "/ingestion/status", nil)
	rr := httptest.NewRecorder()
	s.handleIngestionStatus(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
	var got types.IngestionStatus
	decodeJSON(t, rr, &got)
	if got.Source != "camera" || got.Drops != 7 || !got.OK {
		t.Errorf("expected the updated ingestion status, got %+v", got)
	}
}

func TestHandleUIStatus_ReportsBackendAndMapping(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/ui/status", nil)
	rr := httptest.NewRecorder()
	s.handleUIStatus(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp uiStatusResponse
	decodeJSON(t, rr, &resp)
	if resp.InferenceBackend != "stub" {
		t.Errorf("expected inference_backend=stub, got %q", resp.InferenceBackend)
	}
	if resp.OutputBackend != "test" {
		t.Errorf("expected output_backend=test, got %q", resp.OutputBackend)
	}
}

func TestHandleUIMapping_ReturnsEntries(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/ui/mapping", nil)
	rr := httptest.NewRecorder()
	s.handleUIMapping(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
}

func TestHandleUIConfigGet_ReturnsOutputSection(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/ui/config", nil)
	rr := httptest.NewRecorder()
	s.handleUIConfigGet(rr, req)

	var resp config.OutputConfig
	decodeJSON(t, rr, &resp)
	if resp.Backend != "test" {
		t.Errorf("expected backend=test, got %q", resp.Backend)
	}
}

func TestHandleUIConfigRawGet_ReturnsFileBytes(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/ui/config/raw", nil)
	rr := httptest.NewRecorder()
	s.handleUIConfigRawGet(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
	var doc map[string]any
	decodeJSON(t, rr, &doc)
	if _, ok := doc["ingestion"]; !ok {
		t.Error("expected raw config to contain the ingestion section")
	}
}

func TestHandleUICameraDevices_ReturnsList(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/ui/camera/devices", nil)
	rr := httptest.NewRecorder()
	s.handleUICameraDevices(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
}

func TestHandleUICameraFrame_UnavailableBeforeAnyFrame(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/ui/camera/frame", nil)
	rr := httptest.NewRecorder()
	s.handleUICameraFrame(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 before any frame has arrived, got %d", rr.Code)
	}
}
