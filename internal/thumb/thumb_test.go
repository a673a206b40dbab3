package thumb

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeBounds(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func TestSmallImagePassesThroughUnchanged(t *testing.T) {
	in := encodePNG(t, 100, 80)
	out, err := Downscale(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestWideImageScalesToMaxEdge(t *testing.T) {
	out, err := Downscale(encodePNG(t, 1024, 512))
	require.NoError(t, err)
	w, h := decodeBounds(t, out)
	assert.Equal(t, MaxEdge, w)
	assert.Equal(t, MaxEdge/2, h)
}

func TestTallImageScalesToMaxEdge(t *testing.T) {
	out, err := Downscale(encodePNG(t, 300, 600))
	require.NoError(t, err)
	w, h := decodeBounds(t, out)
	assert.Equal(t, MaxEdge, h)
	assert.Equal(t, 128, w)
}

func TestExtremeAspectRatioKeepsPositiveDimensions(t *testing.T) {
	out, err := Downscale(encodePNG(t, 2000, 1))
	require.NoError(t, err)
	w, h := decodeBounds(t, out)
	assert.Equal(t, MaxEdge, w)
	assert.GreaterOrEqual(t, h, 1)
}

func TestInvalidBytesReturnError(t *testing.T) {
	_, err := Downscale([]byte("not a png"))
	assert.Error(t, err)
}
