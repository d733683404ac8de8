package imageinfo

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDetect_PNG(t *testing.T) {
	info, err := Detect(pngBytes(t, 64, 48))
	require.NoError(t, err)
	assert.Equal(t, Info{MimeType: "image/png", Width: 64, Height: 48}, info)
}

func TestDetect_Errors(t *testing.T) {
	_, err := Detect(nil)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Detect([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFit(t *testing.T) {
	raw := pngBytes(t, 400, 100)
	info, err := Detect(raw)
	require.NoError(t, err)

	same, sameInfo, err := Fit(raw, info, 512)
	require.NoError(t, err)
	assert.Equal(t, raw, same)
	assert.Equal(t, info, sameInfo)

	small, smallInfo, err := Fit(raw, info, 200)
	require.NoError(t, err)
	assert.Equal(t, Info{MimeType: "image/jpeg", Width: 200, Height: 50}, smallInfo)

	again, err := Detect(small)
	require.NoError(t, err)
	assert.Equal(t, smallInfo, again)
}
