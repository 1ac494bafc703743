// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package inference

import (
	"math/rand"
	"sort"

	"github.com/scale-vision/runtime/internal/types"
)

var defaultClasses = []string{"apple_red", "banana", "orange"}

// StubBackend produces deterministic-per-frame-id pseudo-random class
// probabilities, used when inference.backend=="stub" or as the
// fallback_to_stub path when a real backend fails to load. Grounded on
// original_source/inference/stub_backend.py's StubInferenceBackend.
type StubBackend struct {
	classes []string
	topK    int
}

// NewStubBackend constructs a StubBackend. An empty classes list falls
// back to the same three placeholder classes the original uses.
func NewStubBackend(classes []string, topK int) *StubBackend {
	if len(classes) == 0 {
		classes = defaultClasses
	}
	if topK <= 0 || topK > len(classes) {
		topK = len(classes)
	}
	return &StubBackend{classes: classes, topK: topK}
}

func (b *StubBackend) Name() string { return "stub" }

func (b *StubBackend) Load() error { return nil }

func (b *StubBackend) Predict(frame types.Frame) (types.InferenceResult, error) {
	rng := rand.New(rand.NewSource(int64(frame.FrameID))) // #nosec G404 -- deterministic fixture, not security sensitive

	scores := make([]float64, len(b.classes))
	var total float64
	for i := range b.classes {
		scores[i] = rng.Float64()
		total += scores[i]
	}
	if total == 0 {
		total = 1.0
	}

	ranked := make([]types.ClassProb, len(b.classes))
	for i, cid := range b.classes {
		ranked[i] = types.ClassProb{ClassID: cid, Prob: float32(scores[i] / total)}
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Prob > ranked[j].Prob })

	return types.InferenceResult{
		TopK:       ranked[:b.topK],
		QualityOK:  true,
		BlurScore:  float32(rng.Float64()) * 0.2,
		GlareScore: float32(rng.Float64()) * 0.2,
	}, nil
}
