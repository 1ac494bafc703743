// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package health tracks the set of active degradation reasons for the
// pipeline and derives the {ready, degraded} pair every stage reports
// into and every HTTP health check reads from.
package health

import (
	"sync"

	"github.com/scale-vision/runtime/internal/log"
	"github.com/scale-vision/runtime/internal/types"
)

// Tracker holds the set of active degradation reasons. Zero value is not
// usable; construct with NewTracker.
type Tracker struct {
	mu      sync.RWMutex
	ready   bool
	reasons map[string]struct{}
	details map[string]string
}

// NewTracker creates a Tracker that starts ready and non-degraded.
func NewTracker() *Tracker {
	return &Tracker{
		ready:   true,
		reasons: make(map[string]struct{}),
		details: make(map[string]string),
	}
}

// SetReady updates the top-level readiness flag (independent of reasons).
func (t *Tracker) SetReady(ready bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ready = ready
}

// SetDegraded adds reason to the active set. The degraded flag itself is
// derived from reasons being non-empty (see Snapshot), so there is no
// separate "clear all" bit to desynchronize.
func (t *Tracker) SetDegraded(reason string) {
	if reason == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.reasons[reason]; !exists {
		t.reasons[reason] = struct{}{}
		log.Base().Warn().Str("event", "health.degraded").Str("reason", reason).Msg("health reason set")
	}
}

// ClearReason removes reason from the active set, if present.
func (t *Tracker) ClearReason(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.reasons[reason]; exists {
		delete(t.reasons, reason)
		log.Base().Info().Str("event", "health.cleared").Str("reason", reason).Msg("health reason cleared")
	}
}

// SetDetail attaches a free-form diagnostic string to a reason key.
func (t *Tracker) SetDetail(key, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.details[key] = value
}

// Snapshot returns an immutable copy of the current health state.
// Invariant: Degraded == (len(Reasons) > 0).
func (t *Tracker) Snapshot() types.HealthState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	reasons := make([]string, 0, len(t.reasons))
	for r := range t.reasons {
		reasons = append(reasons, r)
	}
	details := make(map[string]string, len(t.details))
	for k, v := range t.details {
		details[k] = v
	}
	return types.HealthState{
		Ready:    t.ready,
		Degraded: len(reasons) > 0,
		Reasons:  reasons,
		Details:  details,
	}
}

// AnyReasonWithPrefix reports whether any active reason starts with prefix.
// Used by the control loop to evaluate "ingestion_ok" (spec §4.8).
func (t *Tracker) AnyReasonWithPrefix(prefix string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for r := range t.reasons {
		if len(r) >= len(prefix) && r[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}
