// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package output implements the OutputBackend contract and its three
// variants: a test sink for local/dev runs, a raw serial writer for
// scale/label-printer integration, and a HID stub (spec §4.6).
package output

import "github.com/scale-vision/runtime/internal/types"

// Backend delivers a decided product code to the physical peripheral.
// Grounded on original_source/output/base.py's OutputBackend ABC.
type Backend interface {
	Name() string
	Start() error
	Send(cmd types.OutputCommand) error
	Stop() error
}
