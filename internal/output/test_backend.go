// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package output

import (
	"sync"

	"github.com/scale-vision/runtime/internal/log"
	"github.com/scale-vision/runtime/internal/types"
)

// TestBackend records every command it receives instead of writing to
// hardware; used for local runs and integration tests. Grounded on
// original_source/output/test_backend.py's TestOutputBackend.
type TestBackend struct {
	mu   sync.Mutex
	sent []types.OutputCommand
}

func NewTestBackend() *TestBackend { return &TestBackend{} }

func (b *TestBackend) Name() string { return "test" }

func (b *TestBackend) Start() error { return nil }

func (b *TestBackend) Send(cmd types.OutputCommand) error {
	b.mu.Lock()
	b.sent = append(b.sent, cmd)
	b.mu.Unlock()
	log.Base().Info().Str("event", "output.test_emit").Str("request_id", cmd.RequestID).Str("code", cmd.Code).Msg("test backend emit")
	return nil
}

func (b *TestBackend) Stop() error { return nil }

// Sent returns a copy of every command received so far.
func (b *TestBackend) Sent() []types.OutputCommand {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]types.OutputCommand, len(b.sent))
	copy(out, b.sent)
	return out
}
