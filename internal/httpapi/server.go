// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package httpapi implements the process's HTTP surface (spec §6):
// health/metrics/last-decision/ingestion-status for operators, and the
// /ui/* routes backing the browser console (status, mapping, config
// edit, camera preview, ad-hoc predict). Grounded on internal/api's
// chi-based routing idiom and internal/api/middleware's canonical
// ingress stack, under a fresh type so it carries none of the
// DVR/EPG/HDHomeRun surface that package exists for.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scale-vision/runtime/internal/api/middleware"
	"github.com/scale-vision/runtime/internal/config"
	"github.com/scale-vision/runtime/internal/state"
)

// Server is the process's HTTP surface. It holds no mutable state of its
// own; every handler reads through RuntimeState/ConfigHolder, both of
// which are already safe for concurrent use.
type Server struct {
	state      *state.RuntimeState
	holder     *config.ConfigHolder
	ffmpegPath string
}

// New constructs a Server. ffmpegPath is passed to camera/predict video
// handlers that shell out to ffmpeg for frame capture/extraction; an
// empty string falls back to "ffmpeg" on $PATH.
func New(st *state.RuntimeState, holder *config.ConfigHolder, ffmpegPath string) *Server {
	return &Server{state: st, holder: holder, ffmpegPath: ffmpegPath}
}

// Router builds the chi router for this server, with the canonical
// middleware stack applied.
func (s *Server) Router(stackCfg middleware.StackConfig) *chi.Mux {
	r := middleware.NewRouter(stackCfg)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/last-decision", s.handleLastDecision)
	r.Get("/ingestion/status", s.handleIngestionStatus)

	r.Get("/ui/status", s.handleUIStatus)
	r.Get("/ui/mapping", s.handleUIMapping)
	r.Get("/ui/config", s.handleUIConfigGet)
	r.Post("/ui/config", s.handleUIConfigPost)
	r.Get("/ui/config/raw", s.handleUIConfigRawGet)
	r.Post("/ui/config/raw", s.handleUIConfigRawPost)
	r.Post("/ui/service/restart", s.handleUIServiceRestart)
	r.Get("/ui/camera/devices", s.handleUICameraDevices)
	r.Get("/ui/camera/frame", s.handleUICameraFrame)
	r.Get("/ui/camera/stream", s.handleUICameraStream)
	r.Post("/ui/predict", s.handleUIPredict)

	return r
}

// ListenAndServe is a small convenience wrapper so callers don't need to
// reach into chi/http directly.
func (s *Server) ListenAndServe(addr string, stackCfg middleware.StackConfig) error {
	return http.ListenAndServe(addr, s.Router(stackCfg))
}
