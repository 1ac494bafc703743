// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package inference defines the InferenceBackend contract and the stub
// implementation used when no external model is configured (spec §4.3).
package inference

import (
	"github.com/scale-vision/runtime/internal/types"
)

// Backend classifies a single normalized frame. Grounded on
// original_source/inference/base.py's InferenceBackend ABC.
type Backend interface {
	Name() string
	Load() error
	Predict(frame types.Frame) (types.InferenceResult, error)
}

// LoadError wraps a failure from Backend.Load (spec's INFERENCE_LOAD_FAILED).
type LoadError struct{ Err error }

func (e *LoadError) Error() string { return "inference: load failed: " + e.Err.Error() }
func (e *LoadError) Unwrap() error { return e.Err }

// RuntimeError wraps a failure from Backend.Predict (INFERENCE_RUNTIME_FAILED).
type RuntimeError struct{ Err error }

func (e *RuntimeError) Error() string { return "inference: predict failed: " + e.Err.Error() }
func (e *RuntimeError) Unwrap() error { return e.Err }
