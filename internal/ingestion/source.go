// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ingestion

import (
	"image"
	"image/color"

	"github.com/scale-vision/runtime/internal/types"
)

// Source is a single frame producer (spec §4.2's IngestionBackend).
// Open/Read/Close mirror the original's lifecycle; Read returns
// (nil, false) whenever no frame is currently available, which the
// Runner treats as a transient read failure, not a fatal error.
type Source interface {
	Name() string
	Open() bool
	Read() (image.Image, bool)
	Close()
}

// Reconnectable is implemented by sources that track reconnection
// attempts (camera only; spec §7's ingestion.reconnections).
type Reconnectable interface {
	Reconnections() int
}

// Synthetic is implemented by sources that can fall back to a generated
// placeholder frame (file source's allow_missing path).
type Synthetic interface {
	UsingSynthetic() bool
}

// bgrImage wraps a raw BGR24, row-major pixel buffer as an image.Image
// so it can flow through Normalize without an intermediate copy into a
// stdlib color model. Grounded on the raw numpy array the Python
// backends hand to cv2/normalize_frame.
type bgrImage struct {
	w, h int
	pix  []byte
}

func (b *bgrImage) ColorModel() color.Model { return color.RGBAModel }

func (b *bgrImage) Bounds() image.Rectangle { return image.Rect(0, 0, b.w, b.h) }

func (b *bgrImage) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= b.w || y >= b.h {
		return color.RGBA{}
	}
	i := (y*b.w + x) * 3
	return color.RGBA{R: b.pix[i+2], G: b.pix[i+1], B: b.pix[i], A: 0xff}
}

// FrameToImage wraps a Frame's raw BGR24 buffer as an image.Image, for
// handlers (the UI's camera snapshot/stream and ad-hoc predict upload)
// that need to re-encode a Frame into a standard image format.
func FrameToImage(f types.Frame) image.Image {
	return &bgrImage{w: f.Width, h: f.Height, pix: f.Image}
}
