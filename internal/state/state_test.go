// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package state

import (
	"testing"

	"github.com/scale-vision/runtime/internal/config"
	"github.com/scale-vision/runtime/internal/decision"
	"github.com/scale-vision/runtime/internal/health"
	"github.com/scale-vision/runtime/internal/inference"
	"github.com/scale-vision/runtime/internal/mapper"
	"github.com/scale-vision/runtime/internal/types"
)

func TestRuntimeState_DecisionAndIngestionRoundtrip(t *testing.T) {
	s := New(health.NewTracker(), nil, inference.NewStubBackend(nil, 3), mapper.New(config.MappingConfig{}), decision.NewEngine(config.DecisionConfig{}))

	if s.LastDecision() != nil {
		t.Fatal("expected nil last decision initially")
	}
	ev := types.DecisionEvent{RequestID: "r1", State: types.StateObserving}
	s.UpdateLastDecision(ev)
	if got := s.LastDecision(); got == nil || got.RequestID != "r1" {
		t.Errorf("expected round-tripped decision, got %+v", got)
	}

	status := types.IngestionStatus{Source: "file", OK: true}
	s.UpdateIngestionStatus(status)
	if got := s.IngestionStatus(); got.Source != "file" || !got.OK {
		t.Errorf("expected round-tripped ingestion status, got %+v", got)
	}
}

func TestRuntimeState_SwapsBackendAndMapper(t *testing.T) {
	s := New(health.NewTracker(), nil, inference.NewStubBackend(nil, 3), mapper.New(config.MappingConfig{}), decision.NewEngine(config.DecisionConfig{}))

	newBackend := inference.NewStubBackend([]string{"a"}, 1)
	s.SetBackend(newBackend)
	if s.Backend().Name() != "stub" {
		t.Errorf("expected stub backend name, got %s", s.Backend().Name())
	}

	newMapper := mapper.New(config.MappingConfig{Classes: map[string]config.MappingEntry{"a": {Code: "1"}}})
	s.SetMapper(newMapper)
	if s.Mapper().Checksum() != newMapper.Checksum() {
		t.Error("expected mapper swap to take effect")
	}
}

func TestRuntimeState_SwapsEngine(t *testing.T) {
	s := New(health.NewTracker(), nil, inference.NewStubBackend(nil, 3), mapper.New(config.MappingConfig{}), decision.NewEngine(config.DecisionConfig{}))

	original := s.Engine()
	if original == nil {
		t.Fatal("expected non-nil initial engine")
	}

	replacement := decision.NewEngine(config.DecisionConfig{MinConfidence: 0.9})
	s.SetEngine(replacement)
	if s.Engine() != replacement {
		t.Error("expected engine swap to take effect")
	}
	if s.Engine() == original {
		t.Error("expected engine swap to replace the original engine")
	}
}

func TestRuntimeState_Snapshot(t *testing.T) {
	s := New(health.NewTracker(), nil, inference.NewStubBackend(nil, 3), mapper.New(config.MappingConfig{}), decision.NewEngine(config.DecisionConfig{}))
	snap := s.Snapshot()
	if !snap.Health.Ready {
		t.Error("expected healthy snapshot by default")
	}
}
