// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ingestion

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/scale-vision/runtime/internal/log"
	"github.com/scale-vision/runtime/internal/procgroup"
)

// killGrace bounds how long a decode process gets to exit after SIGTERM
// before procgroup escalates to SIGKILL. These are short-lived decode
// processes, not long-running segmenters, so there is no reason to wait
// long for a clean exit.
const killGrace = 2 * time.Second

// ffmpegRawDecoder runs a single ffmpeg process that decodes a file or
// camera device to a stream of rawvideo BGR24 frames on stdout, scaled
// to width x height so the downstream Normalize step is a pure
// pass-through in the common case. Grounded on the teacher's
// internal/pipeline/exec/ffmpeg.Runner process-lifecycle idiom
// (exec.Cmd + procgroup.Set + stderr ring), simplified to a single
// short-lived decode instead of an HLS segmenter supervisor.
type ffmpegRawDecoder struct {
	binPath string
	width   int
	height  int

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdout *bufio.Reader
}

func newFFmpegRawDecoder(binPath string, width, height int) *ffmpegRawDecoder {
	if binPath == "" {
		binPath = "ffmpeg"
	}
	return &ffmpegRawDecoder{binPath: binPath, width: width, height: height}
}

// start launches ffmpeg with the given input-side arguments (everything
// before "-i" is fixed; inputArgs supplies "-i <source>" and any
// input-specific flags such as "-f v4l2" or "-ss").
func (d *ffmpegRawDecoder) start(ctx context.Context, inputArgs []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	args := append([]string{"-hide_banner", "-loglevel", "error"}, inputArgs...)
	args = append(args,
		"-vf", fmt.Sprintf("scale=%d:%d", d.width, d.height),
		"-f", "rawvideo",
		"-pix_fmt", "bgr24",
		"pipe:1",
	)

	cmd := exec.CommandContext(ctx, d.binPath, args...)
	procgroup.Set(cmd)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start: %w", err)
	}

	d.cmd = cmd
	d.stdout = bufio.NewReaderSize(stdout, d.width*d.height*3)
	log.Base().Debug().Str("event", "ffmpeg.start").Strs("args", args).Msg("ffmpeg decoder started")
	return nil
}

// readFrame blocks until exactly one width*height*3 BGR24 frame has been
// read from ffmpeg's stdout, or returns an error (including io.EOF once
// the source is exhausted).
func (d *ffmpegRawDecoder) readFrame() (*bgrImage, error) {
	d.mu.Lock()
	stdout := d.stdout
	w, h := d.width, d.height
	d.mu.Unlock()

	if stdout == nil {
		return nil, fmt.Errorf("ffmpeg decoder not started")
	}

	buf := make([]byte, w*h*3)
	if _, err := io.ReadFull(stdout, buf); err != nil {
		return nil, err
	}
	return &bgrImage{w: w, h: h, pix: buf}, nil
}

func (d *ffmpegRawDecoder) stop() {
	d.mu.Lock()
	cmd := d.cmd
	d.cmd = nil
	d.stdout = nil
	d.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return
	}
	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()
	_ = procgroup.Terminate(cmd, waitCh, killGrace)
}
