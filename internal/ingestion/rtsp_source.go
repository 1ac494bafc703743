// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ingestion

import "image"

// RtspSource is a permanent-failure placeholder (spec §4.2): RTSP
// ingestion is not implemented, and Open always reports failure so the
// Runner surfaces INGESTION_OPEN_FAILED instead of silently idling.
// Grounded on original_source/ingestion/rtsp_backend.py's
// RtspIngestionBackend, which is the same stub in the original.
type RtspSource struct{}

func NewRtspSource() *RtspSource { return &RtspSource{} }

func (s *RtspSource) Name() string { return "rtsp" }

func (s *RtspSource) Open() bool { return false }

func (s *RtspSource) Read() (image.Image, bool) { return nil, false }

func (s *RtspSource) Close() {}
