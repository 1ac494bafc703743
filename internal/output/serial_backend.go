// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package output

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/scale-vision/runtime/internal/config"
	"github.com/scale-vision/runtime/internal/log"
	"github.com/scale-vision/runtime/internal/types"
)

// SerialBackend writes the decided code followed by a terminator to a
// tty device. Grounded on original_source/output/serial_backend.py's
// SerialOutputBackend; no serial-port library (baud/parity/stopbits
// framing) appears anywhere in the retrieved pack or teacher, so this
// opens the device node directly via os.OpenFile and writes raw bytes
// — the kernel tty line discipline applies whatever framing the device
// was already configured with (e.g. via `stty`), which is sufficient
// for the common case of a fixed-baud USB-serial label printer/scale.
// Real baud/parity/stopbits negotiation would require an external
// dependency such as go.bug.st/serial; config carries those fields for
// forward compatibility but this implementation does not apply them.
type SerialBackend struct {
	cfg config.SerialConfig

	mu          sync.Mutex
	file        *os.File
	lastConnect time.Time
}

func NewSerialBackend(cfg config.SerialConfig) *SerialBackend {
	return &SerialBackend{cfg: cfg}
}

func (b *SerialBackend) Name() string { return "serial" }

func (b *SerialBackend) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connectLocked()
}

func (b *SerialBackend) connectLocked() error {
	if b.file != nil {
		return nil
	}
	if !b.lastConnect.IsZero() && time.Since(b.lastConnect) < time.Duration(b.cfg.ReconnectMs)*time.Millisecond {
		return errors.New("output: serial reconnect backoff in effect")
	}
	b.lastConnect = time.Now()

	f, err := os.OpenFile(b.cfg.Device, os.O_RDWR|os.O_NOCTTY, 0)
	if err != nil {
		log.Base().Error().Err(err).Str("event", "output.serial_connect_failed").Str("device", b.cfg.Device).Msg("serial connect failed")
		return err
	}
	b.file = f
	return nil
}

func (b *SerialBackend) Send(cmd types.OutputCommand) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.file == nil {
		if err := b.connectLocked(); err != nil {
			return err
		}
	}
	terminator := cmd.Terminator
	if terminator == "" {
		terminator = b.cfg.Terminator
	}
	payload := []byte(cmd.Code + terminator)
	if _, err := b.file.Write(payload); err != nil {
		_ = b.file.Close()
		b.file = nil
		return err
	}
	return nil
}

func (b *SerialBackend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.file == nil {
		return nil
	}
	err := b.file.Close()
	b.file = nil
	return err
}
