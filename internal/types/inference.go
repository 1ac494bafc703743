// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package types

// InferenceResult is what an InferenceBackend produces for one Frame.
// TopK is sorted by Prob descending and has length <= the configured top_k.
type InferenceResult struct {
	TopK       []ClassProb
	QualityOK  bool
	BlurScore  float32
	GlareScore float32
	Aux        map[string]any
}

// Top1 returns the highest-probability class, or the zero value if TopK is empty.
func (r InferenceResult) Top1() ClassProb {
	if len(r.TopK) == 0 {
		return ClassProb{}
	}
	return r.TopK[0]
}

// Top2 returns the second-highest-probability class, or a zero-prob sentinel.
func (r InferenceResult) Top2() ClassProb {
	if len(r.TopK) < 2 {
		return ClassProb{}
	}
	return r.TopK[1]
}
