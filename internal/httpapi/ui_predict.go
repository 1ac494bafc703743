// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package httpapi

import (
	"context"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/scale-vision/runtime/internal/config"
	"github.com/scale-vision/runtime/internal/decision"
	"github.com/scale-vision/runtime/internal/ingestion"
	"github.com/scale-vision/runtime/internal/types"
)

const maxUploadBytes = 64 << 20 // 64 MiB

// maxSampledFrames bounds the /ui/predict video path to at most this many
// sampled frames (spec §6).
const maxSampledFrames = 30

type predictResult struct {
	ClassID    string           `json:"class_id"`
	Confidence float32          `json:"confidence"`
	Margin     float32          `json:"margin"`
	QualityOK  bool             `json:"quality_ok"`
	Emitted    bool             `json:"emitted"`
	ReasonCode types.ReasonCode `json:"reason_code"`
	Code       string           `json:"code,omitempty"`
}

type predictResponse struct {
	Kind          string            `json:"kind"` // "image" or "video"
	FramesSampled int               `json:"frames_sampled,omitempty"`
	TopK          []types.ClassProb `json:"top_k"`
	Result        predictResult     `json:"result"`
}

// handleUIPredict classifies a single uploaded image or short video (spec
// §6's "on-demand single-file predict"). Images: decode, normalize,
// predict, quality-gate, single decision. Videos: sample up to
// maxSampledFrames frames at stride round(fps/4), accumulate per-class
// probability sums, and report the aggregated top-k alongside the last
// sampled frame's own result/decision.
func (s *Server) handleUIPredict(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("missing multipart field \"file\""))
		return
	}
	defer file.Close()

	backend := s.state.Backend()
	if backend == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("inference backend unavailable"))
		return
	}

	cfg := s.holder.Get()

	if isVideoUpload(header.Filename) {
		s.predictVideo(w, r, file, cfg)
		return
	}
	s.predictImage(w, file, cfg)
}

func isVideoUpload(filename string) bool {
	ext := strings.ToLower(filename)
	for _, suffix := range []string{".mp4", ".mov", ".avi", ".mkv", ".webm"} {
		if strings.HasSuffix(ext, suffix) {
			return true
		}
	}
	return false
}

func (s *Server) predictImage(w http.ResponseWriter, file io.Reader, cfg config.AppConfig) {
	img, _, err := image.Decode(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	raw, err := ingestion.Normalize(img, cfg.Ingestion.Normalize.Width, cfg.Ingestion.Normalize.Height)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	frame := types.Frame{
		Width:  cfg.Ingestion.Normalize.Width,
		Height: cfg.Ingestion.Normalize.Height,
		Image:  raw,
		Source: "ui_predict",
	}

	result, err := s.state.Backend().Predict(frame)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	res := s.decideOnce(result, cfg)
	writeJSON(w, http.StatusOK, predictResponse{Kind: "image", TopK: result.TopK, Result: res})
}

func (s *Server) predictVideo(w http.ResponseWriter, r *http.Request, file io.Reader, cfg config.AppConfig) {
	tmp, err := os.CreateTemp("", "scale-vision-predict-*.upload")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	fps := cfg.Ingestion.Normalize.FPS
	if fps <= 0 {
		fps = 15
	}
	stride := int(math.Round(float64(fps) / 4.0))
	if stride < 1 {
		stride = 1
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	frames, err := ingestion.ExtractFrames(ctx, s.ffmpegPath, tmp.Name(), cfg.Ingestion.Normalize.Width, cfg.Ingestion.Normalize.Height, stride, maxSampledFrames)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sums := make(map[string]float64)
	var lastResult types.InferenceResult
	backend := s.state.Backend()

	for _, img := range frames {
		raw, err := ingestion.Normalize(img, cfg.Ingestion.Normalize.Width, cfg.Ingestion.Normalize.Height)
		if err != nil {
			continue
		}
		frame := types.Frame{Width: cfg.Ingestion.Normalize.Width, Height: cfg.Ingestion.Normalize.Height, Image: raw, Source: "ui_predict"}
		result, err := backend.Predict(frame)
		if err != nil {
			continue
		}
		lastResult = result
		for _, cp := range result.TopK {
			sums[cp.ClassID] += float64(cp.Prob)
		}
	}

	if len(sums) == 0 {
		writeError(w, http.StatusInternalServerError, errors.New("no frames could be classified"))
		return
	}

	aggregated := make([]types.ClassProb, 0, len(sums))
	for classID, sum := range sums {
		aggregated = append(aggregated, types.ClassProb{ClassID: classID, Prob: float32(sum / float64(len(frames)))})
	}
	sort.Slice(aggregated, func(i, j int) bool { return aggregated[i].Prob > aggregated[j].Prob })
	if len(aggregated) > cfg.Inference.TopK {
		aggregated = aggregated[:cfg.Inference.TopK]
	}

	res := s.decideOnce(lastResult, cfg)
	writeJSON(w, http.StatusOK, predictResponse{Kind: "video", FramesSampled: len(frames), TopK: aggregated, Result: res})
}

// decideOnce applies the quality gate and the decision engine's
// confidence/margin thresholds to a single InferenceResult, without
// touching the persistent DecisionEngine's episode state — an ad-hoc
// classification must not perturb the live camera's observation window.
func (s *Server) decideOnce(result types.InferenceResult, cfg config.AppConfig) predictResult {
	qualityOK := decision.QualityGate(result, 0.5, 0.5)
	top1 := result.Top1()
	top2 := result.Top2()
	margin := top1.Prob - top2.Prob

	emitted := qualityOK && top1.ClassID != "" &&
		float64(top1.Prob) >= cfg.Decision.MinConfidence &&
		float64(margin) >= cfg.Decision.MinMargin

	reason := types.ReasonObserving
	switch {
	case !qualityOK:
		reason = types.ReasonQualityGate
	case top1.ClassID == "":
		reason = types.ReasonNoPrediction
	case emitted:
		reason = types.ReasonEmit
	}

	var code string
	if emitted {
		mapResult := s.state.Mapper().MapClass(top1.ClassID)
		if mapResult.Code == "" {
			emitted = false
			reason = types.ReasonCode(mapResult.Reason)
		} else {
			code = mapResult.Code
		}
	}

	return predictResult{
		ClassID:    top1.ClassID,
		Confidence: top1.Prob,
		Margin:     margin,
		QualityOK:  qualityOK,
		Emitted:    emitted,
		ReasonCode: reason,
		Code:       code,
	}
}
