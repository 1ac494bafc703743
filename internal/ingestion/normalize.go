// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ingestion

import (
	"errors"
	"image"
	"image/draw"

	ximage "golang.org/x/image/draw"
)

// ErrNilFrame is returned by Normalize when given a nil source image.
var ErrNilFrame = errors.New("ingestion: frame is nil")

// Normalize resizes src to width x height using bilinear interpolation and
// returns the raw 8-bit BGR pixel buffer (spec §3's Frame.image layout).
// Grounded on original_source/.../ingestion/normalization.py's
// `cv2.resize`; golang.org/x/image/draw (pack member jmylchreest-tvarr)
// is the only resize library anywhere in the retrieved dependency pack.
func Normalize(src image.Image, width, height int) ([]byte, error) {
	if src == nil {
		return nil, ErrNilFrame
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	ximage.ApproximateBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	out := make([]byte, width*height*3)
	i := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := dst.At(x, y).RGBA()
			// BGR order, 8-bit: spec §3 `H×W×3, 8-bit BGR`.
			out[i] = byte(b >> 8)
			out[i+1] = byte(g >> 8)
			out[i+2] = byte(r >> 8)
			i += 3
		}
	}
	return out, nil
}
