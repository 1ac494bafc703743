// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ingestion

import (
	"context"
	"image"
	"strconv"
	"time"

	"github.com/scale-vision/runtime/internal/config"
)

// CameraSource reads from a local v4l2 device (or a caller-supplied
// ffmpeg input spec for alternative capture backends), reconnecting
// with a linear backoff (backoff_ms times the reconnection count, capped
// at max_backoff_ms) on failure. Grounded on
// original_source/ingestion/camera_backend.py's CameraIngestionBackend;
// ffmpeg's "-f v4l2" input stands in for cv2.VideoCapture, since no
// camera-capture library is carried by the pack.
type CameraSource struct {
	cfg    config.CameraConfig
	ffmpeg string
	width  int
	height int
	fps    int

	decoder         *ffmpegRawDecoder
	opened          bool
	nextReconnectAt time.Time
	reconnections   int
}

func NewCameraSource(cfg config.CameraConfig, ffmpegBin string, width, height, fps int) *CameraSource {
	return &CameraSource{cfg: cfg, ffmpeg: ffmpegBin, width: width, height: height, fps: fps}
}

func (s *CameraSource) Name() string { return "camera" }

func (s *CameraSource) Reconnections() int { return s.reconnections }

func (s *CameraSource) Open() bool {
	if s.opened {
		return true
	}
	if s.cfg.Reconnect.Enabled && time.Now().Before(s.nextReconnectAt) {
		return false
	}

	s.decoder = newFFmpegRawDecoder(s.ffmpeg, s.width, s.height)
	args := []string{"-f", "v4l2"}
	if s.fps > 0 {
		args = append(args, "-framerate", strconv.Itoa(s.fps))
	}
	args = append(args, "-i", s.cfg.Device)
	if s.cfg.Backend == "gstreamer" && s.cfg.GstreamerPipeline != "" {
		args = []string{"-f", "lavfi", "-i", s.cfg.GstreamerPipeline}
	}

	if err := s.decoder.start(context.Background(), args); err != nil {
		s.scheduleReconnect()
		return false
	}
	s.opened = true
	return true
}

func (s *CameraSource) Read() (image.Image, bool) {
	if !s.opened && !s.Open() {
		return nil, false
	}
	frame, err := s.decoder.readFrame()
	if err != nil {
		s.Close()
		s.scheduleReconnect()
		return nil, false
	}
	return frame, true
}

func (s *CameraSource) Close() {
	if s.decoder != nil {
		s.decoder.stop()
	}
	s.opened = false
}

func (s *CameraSource) scheduleReconnect() {
	if !s.cfg.Reconnect.Enabled {
		return
	}
	s.reconnections++
	backoff := s.cfg.Reconnect.BackoffMs * s.reconnections
	if backoff > s.cfg.Reconnect.MaxBackoffMs {
		backoff = s.cfg.Reconnect.MaxBackoffMs
	}
	s.nextReconnectAt = time.Now().Add(time.Duration(backoff) * time.Millisecond)
}
