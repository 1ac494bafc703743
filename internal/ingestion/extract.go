// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ingestion

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strconv"

	"github.com/scale-vision/runtime/internal/procgroup"
)

// ExtractFrames decodes up to maxFrames frames from filePath, sampled
// every stride-th source frame and scaled to width x height, for the
// /ui/predict video-upload path (spec §6: "sample up to 30 frames at
// stride round(fps/4)"). Grounded on the same ffmpeg rawvideo pipe idiom
// as ffmpegRawDecoder, adapted for a single bounded one-shot decode
// instead of an indefinite live stream.
func ExtractFrames(ctx context.Context, ffmpegPath, filePath string, width, height, stride, maxFrames int) ([]image.Image, error) {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if stride < 1 {
		stride = 1
	}
	if maxFrames < 1 {
		maxFrames = 1
	}

	vf := fmt.Sprintf("select='not(mod(n\\,%d))',scale=%d:%d", stride, width, height)
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", filePath,
		"-vf", vf,
		"-vsync", "vfr",
		"-frames:v", strconv.Itoa(maxFrames),
		"-f", "rawvideo",
		"-pix_fmt", "bgr24",
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	procgroup.Set(cmd)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start: %w", err)
	}

	frameSize := width * height * 3
	reader := bufio.NewReaderSize(stdout, frameSize)

	var frames []image.Image
	for len(frames) < maxFrames {
		buf := make([]byte, frameSize)
		if _, err := io.ReadFull(reader, buf); err != nil {
			break
		}
		frames = append(frames, &bgrImage{w: width, h: height, pix: buf})
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()
	_ = procgroup.Terminate(cmd, waitCh, killGrace)

	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames decoded from %s", filePath)
	}
	return frames, nil
}
