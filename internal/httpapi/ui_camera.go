// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package httpapi

import (
	"errors"
	"fmt"
	"image/jpeg"
	"net/http"
	"path/filepath"
	"sort"
	"time"

	"github.com/scale-vision/runtime/internal/ingestion"
)

func (s *Server) handleUICameraDevices(w http.ResponseWriter, r *http.Request) {
	matches, _ := filepath.Glob("/dev/video*")
	sort.Strings(matches)
	writeJSON(w, http.StatusOK, map[string]any{"devices": matches})
}

// handleUICameraFrame returns a single JPEG snapshot of the most recently
// ingested frame, for the browser console's camera preview.
func (s *Server) handleUICameraFrame(w http.ResponseWriter, r *http.Request) {
	frame := s.state.LastFrame()
	if frame == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("no frame available yet"))
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	_ = jpeg.Encode(w, ingestion.FrameToImage(*frame), &jpeg.Options{Quality: 85})
}

// handleUICameraStream serves an MJPEG multipart stream, polling the
// latest frame at a fixed interval. Kept deliberately simple: this is a
// diagnostic preview, not a production low-latency video path.
func (s *Server) handleUICameraStream(w http.ResponseWriter, r *http.Request) {
	const boundary = "scalevisionframe"
	w.Header().Set("Content-Type", fmt.Sprintf("multipart/x-mixed-replace; boundary=%s", boundary))

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	var lastFrameID uint64
	haveFrame := false

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			frame := s.state.LastFrame()
			if frame == nil || (haveFrame && frame.FrameID == lastFrameID) {
				continue
			}
			lastFrameID = frame.FrameID
			haveFrame = true

			fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\n\r\n", boundary)
			if err := jpeg.Encode(w, ingestion.FrameToImage(*frame), &jpeg.Options{Quality: 80}); err != nil {
				return
			}
			fmt.Fprint(w, "\r\n")
			flusher.Flush()
		}
	}
}
