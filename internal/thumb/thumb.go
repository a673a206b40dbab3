// Package thumb downscales captured images into preview thumbnails.
//
// Stored image records carry the thumbnail, never the full-resolution bytes;
// the thumbnail's fingerprint is registered in the hash index so a paste-back
// of preview bytes still resolves to the original record.
package thumb

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// MaxEdge is the longest edge of a generated thumbnail, in pixels.
const MaxEdge = 256

// Downscale decodes pngBytes and returns a PNG whose longest edge is at most
// MaxEdge, preserving aspect ratio. Images already within bounds are returned
// unchanged (no re-encode).
func Downscale(pngBytes []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= MaxEdge && h <= MaxEdge {
		return pngBytes, nil
	}

	if w >= h {
		h = h * MaxEdge / w
		w = MaxEdge
	} else {
		w = w * MaxEdge / h
		h = MaxEdge
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	var out bytes.Buffer
	if err := png.Encode(&out, dst); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return out.Bytes(), nil
}
