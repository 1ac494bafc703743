// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package state holds the process-wide runtime snapshot shared by the
// control loop and the HTTP surface: last decision, ingestion status,
// current config, and the swappable inference backend (spec §4.9).
package state

import (
	"sync"

	"github.com/scale-vision/runtime/internal/config"
	"github.com/scale-vision/runtime/internal/decision"
	"github.com/scale-vision/runtime/internal/health"
	"github.com/scale-vision/runtime/internal/inference"
	"github.com/scale-vision/runtime/internal/mapper"
	"github.com/scale-vision/runtime/internal/types"
)

// Snapshot is the read-only view exposed to HTTP handlers (spec §6's
// /ui/status, /last-decision, /ingestion/status).
type Snapshot struct {
	LastDecision    *types.DecisionEvent
	IngestionStatus types.IngestionStatus
	Health          types.HealthState
	MappingChecksum string
}

// RuntimeState is the single process-wide mutable hub threaded through
// the control loop, ingestion runner, and HTTP handlers. Grounded on
// original_source/state.py's RuntimeState; Python's two
// threading.Lock fields become one sync.RWMutex guarding the decision
// and ingestion-status fields, plus separate RWMutexes guarding the
// hot-swappable inference backend, mapper and decision engine (config
// reload can replace them while the control loop is mid-cycle) and the
// last ingested frame.
type RuntimeState struct {
	Health *health.Tracker
	Config *config.ConfigHolder

	mu              sync.RWMutex
	lastDecision    *types.DecisionEvent
	ingestionStatus types.IngestionStatus

	inferenceMu sync.RWMutex
	backend     inference.Backend

	mapperMu sync.RWMutex
	mapper   *mapper.Mapper

	engineMu sync.RWMutex
	engine   *decision.Engine

	frameMu   sync.RWMutex
	lastFrame *types.Frame
}

// New constructs a RuntimeState. backend, initialMapper, and
// initialEngine may be replaced later via SetBackend/SetMapper/SetEngine
// (e.g. on config reload).
func New(healthTracker *health.Tracker, holder *config.ConfigHolder, backend inference.Backend, initialMapper *mapper.Mapper, initialEngine *decision.Engine) *RuntimeState {
	return &RuntimeState{
		Health:  healthTracker,
		Config:  holder,
		backend: backend,
		mapper:  initialMapper,
		engine:  initialEngine,
	}
}

func (s *RuntimeState) UpdateLastDecision(ev types.DecisionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastDecision = &ev
}

func (s *RuntimeState) LastDecision() *types.DecisionEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastDecision
}

func (s *RuntimeState) UpdateIngestionStatus(status types.IngestionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ingestionStatus = status
}

func (s *RuntimeState) IngestionStatus() types.IngestionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ingestionStatus
}

// Backend returns the currently active inference backend.
func (s *RuntimeState) Backend() inference.Backend {
	s.inferenceMu.RLock()
	defer s.inferenceMu.RUnlock()
	return s.backend
}

// SetBackend hot-swaps the inference backend, used by the control loop
// when a configured real backend fails to load and fallback_to_stub
// kicks in, or when config reload changes the backend selection.
func (s *RuntimeState) SetBackend(b inference.Backend) {
	s.inferenceMu.Lock()
	defer s.inferenceMu.Unlock()
	s.backend = b
}

// Mapper returns the currently active class-id mapper.
func (s *RuntimeState) Mapper() *mapper.Mapper {
	s.mapperMu.RLock()
	defer s.mapperMu.RUnlock()
	return s.mapper
}

// SetMapper hot-swaps the mapper, used after a config reload changes
// the mapping table.
func (s *RuntimeState) SetMapper(m *mapper.Mapper) {
	s.mapperMu.Lock()
	defer s.mapperMu.Unlock()
	s.mapper = m
}

// Engine returns the currently active decision engine.
func (s *RuntimeState) Engine() *decision.Engine {
	s.engineMu.RLock()
	defer s.engineMu.RUnlock()
	return s.engine
}

// SetEngine hot-swaps the decision engine. Config reload rebuilds the
// engine from the new thresholds/cooldowns and installs it here,
// discarding whatever observation window the previous engine had
// accumulated (spec §9: reload_if_changed resets episode state).
func (s *RuntimeState) SetEngine(e *decision.Engine) {
	s.engineMu.Lock()
	defer s.engineMu.Unlock()
	s.engine = e
}

// UpdateLastFrame records the most recently ingested frame, used by the
// /ui/camera/frame and /ui/camera/stream handlers for a live preview.
func (s *RuntimeState) UpdateLastFrame(f types.Frame) {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	s.lastFrame = &f
}

// LastFrame returns the most recently ingested frame, or nil if none has
// arrived yet.
func (s *RuntimeState) LastFrame() *types.Frame {
	s.frameMu.RLock()
	defer s.frameMu.RUnlock()
	return s.lastFrame
}

// Snapshot returns a consistent read-only view for HTTP handlers.
func (s *RuntimeState) Snapshot() Snapshot {
	return Snapshot{
		LastDecision:    s.LastDecision(),
		IngestionStatus: s.IngestionStatus(),
		Health:          s.Health.Snapshot(),
		MappingChecksum: s.Mapper().Checksum(),
	}
}
