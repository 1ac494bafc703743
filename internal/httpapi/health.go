// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package httpapi

import (
	"net/http"

	"github.com/scale-vision/runtime/internal/version"
)

// healthResponse mirrors original_source/api.py's health() handler body.
type healthResponse struct {
	Ready    bool              `json:"ready"`
	Degraded bool              `json:"degraded"`
	Reasons  []string          `json:"reasons"`
	Details  map[string]string `json:"details"`
	Version  string            `json:"version"`
	BuildID  string            `json:"build_id"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.state.Health.Snapshot()
	buildID, err := version.BuildID(".")
	if err != nil {
		buildID = ""
	}

	status := http.StatusOK
	if !snap.Ready || snap.Degraded {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, healthResponse{
		Ready:    snap.Ready,
		Degraded: snap.Degraded,
		Reasons:  snap.Reasons,
		Details:  snap.Details,
		Version:  version.Version,
		BuildID:  buildID,
	})
}

func (s *Server) handleLastDecision(w http.ResponseWriter, r *http.Request) {
	ev := s.state.LastDecision()
	if ev == nil {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleIngestionStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state.IngestionStatus())
}
