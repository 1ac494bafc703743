// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package output

import (
	"github.com/scale-vision/runtime/internal/log"
	"github.com/scale-vision/runtime/internal/types"
)

// HidBackend logs what it would send to a HID-keyboard-emulation
// scale/scanner device rather than actually writing to one (no USB HID
// library is carried by the pack or teacher). Grounded on
// original_source/output/hid_stub.py's HidOutputStub, which is the
// same no-op placeholder in the original.
type HidBackend struct{}

func NewHidBackend() *HidBackend { return &HidBackend{} }

func (b *HidBackend) Name() string { return "hid" }

func (b *HidBackend) Start() error { return nil }

func (b *HidBackend) Send(cmd types.OutputCommand) error {
	log.Base().Info().Str("event", "output.hid_stub_emit").Str("request_id", cmd.RequestID).Str("code", cmd.Code).Msg("hid stub emit")
	return nil
}

func (b *HidBackend) Stop() error { return nil }
