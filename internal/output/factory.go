// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package output

import (
	"fmt"

	"github.com/scale-vision/runtime/internal/config"
)

// NewBackend selects a Backend for cfg.Backend.
func NewBackend(cfg config.OutputConfig) (Backend, error) {
	switch cfg.Backend {
	case "", "test":
		return NewTestBackend(), nil
	case "serial":
		return NewSerialBackend(cfg.Serial), nil
	case "hid":
		return NewHidBackend(), nil
	default:
		return nil, fmt.Errorf("output: unknown backend %q", cfg.Backend)
	}
}
