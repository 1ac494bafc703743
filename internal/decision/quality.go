// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package decision implements the three-state (IDLE/OBSERVING/COOLDOWN,
// LOCKED reported transiently) weighted-vote decision engine (spec §4.4).
package decision

import "github.com/scale-vision/runtime/internal/types"

// QualityGate reports whether an inference result is sharp and
// well-lit enough to feed the vote. Grounded on
// original_source/decision/quality.py's quality_gate.
func QualityGate(result types.InferenceResult, blurThreshold, glareThreshold float64) bool {
	if !result.QualityOK {
		return false
	}
	if float64(result.BlurScore) > blurThreshold {
		return false
	}
	if float64(result.GlareScore) > glareThreshold {
		return false
	}
	return true
}
