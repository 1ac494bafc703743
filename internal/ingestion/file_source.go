// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ingestion

import (
	"context"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/scale-vision/runtime/internal/config"
)

// FileSource replays a single image or video file, looping and
// pacing to real time per config. Grounded on
// original_source/ingestion/file_backend.py's FileIngestionBackend;
// ffmpeg (via ffmpegRawDecoder) stands in for cv2.VideoCapture/cv2.imread
// since no image/video decode library is carried by the pack.
type FileSource struct {
	cfg    config.FileSourceConfig
	ffmpeg string
	width  int
	height int

	decoder   *ffmpegRawDecoder
	synthetic bool
	opened    bool
	lastTick  time.Time
	fps       int
}

// NewFileSource constructs a FileSource. fps is the configured target
// playback rate used for realtime pacing; the source file's own frame
// rate is not consulted.
func NewFileSource(cfg config.FileSourceConfig, ffmpegBin string, width, height, fps int) *FileSource {
	return &FileSource{cfg: cfg, ffmpeg: ffmpegBin, width: width, height: height, fps: fps}
}

func (s *FileSource) Name() string { return "file" }

func (s *FileSource) UsingSynthetic() bool { return s.synthetic }

func (s *FileSource) Open() bool {
	if s.opened {
		return true
	}
	if _, err := os.Stat(s.cfg.Path); err != nil {
		if !s.cfg.AllowMissing {
			return false
		}
		s.synthetic = true
		s.opened = true
		return true
	}

	s.synthetic = false
	s.decoder = newFFmpegRawDecoder(s.ffmpeg, s.width, s.height)
	args := []string{}
	if s.cfg.StartMs > 0 {
		args = append(args, "-ss", msToSeconds(s.cfg.StartMs))
	}
	args = append(args, "-i", s.cfg.Path)
	if s.cfg.DurationMs > 0 {
		args = append(args, "-t", msToSeconds(s.cfg.DurationMs))
	}
	if err := s.decoder.start(context.Background(), args); err != nil {
		return false
	}
	s.opened = true
	return true
}

func (s *FileSource) Read() (image.Image, bool) {
	if !s.opened && !s.Open() {
		return nil, false
	}

	if s.synthetic {
		s.sleepForRealtime()
		return blackFrame(s.width, s.height), true
	}

	frame, err := s.decoder.readFrame()
	if err != nil {
		s.decoder.stop()
		s.opened = false
		if s.cfg.Loop {
			return s.Read()
		}
		return nil, false
	}
	s.sleepForRealtime()
	return frame, true
}

func (s *FileSource) Close() {
	if s.decoder != nil {
		s.decoder.stop()
	}
	s.opened = false
}

func (s *FileSource) sleepForRealtime() {
	if s.cfg.ReplayMode != "realtime" || s.fps <= 0 {
		return
	}
	interval := time.Second / time.Duration(s.fps)
	if !s.lastTick.IsZero() {
		if elapsed := time.Since(s.lastTick); elapsed < interval {
			time.Sleep(interval - elapsed)
		}
	}
	s.lastTick = time.Now()
}

// msToSeconds formats a millisecond offset as the fractional-seconds
// string ffmpeg's -ss/-t flags expect.
func msToSeconds(ms int) string {
	return fmt.Sprintf("%.3f", float64(ms)/1000.0)
}

func blackFrame(w, h int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}
