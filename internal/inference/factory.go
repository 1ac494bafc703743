// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package inference

import (
	"fmt"

	"github.com/scale-vision/runtime/internal/config"
)

// NewBackend selects a Backend for cfg.Backend. Only "stub" is
// implemented directly; any other configured backend name is accepted
// (a real ONNX/TF/YOLO adapter is out of spec scope per spec.md §1's
// Non-goals) and degrades to the stub when cfg.FallbackToStub is set,
// or otherwise returns an error so the caller can decide whether to
// run degraded or fail startup.
func NewBackend(cfg config.InferenceConfig) (Backend, error) {
	switch cfg.Backend {
	case "", "stub":
		return NewStubBackend(cfg.StubClasses, cfg.TopK), nil
	default:
		if cfg.FallbackToStub {
			return NewStubBackend(cfg.StubClasses, cfg.TopK), nil
		}
		return nil, fmt.Errorf("inference: backend %q not implemented and fallback_to_stub is false", cfg.Backend)
	}
}
