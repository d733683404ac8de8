package imageinfo

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	ErrEmpty       = errors.New("image is empty")
	ErrUnsupported = errors.New("unsupported image format")
)

type Info struct {
	MimeType string
	Width    int
	Height   int
}

// Detect reads the format and pixel size from the image header without
// decoding the pixels.
func Detect(raw []byte) (Info, error) {
	if len(raw) == 0 {
		return Info{}, ErrEmpty
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	return Info{MimeType: "image/" + format, Width: cfg.Width, Height: cfg.Height}, nil
}

// Fit downscales raw so its longer side is at most maxSide, re-encoding as
// JPEG. Images already within bounds are returned unchanged.
func Fit(raw []byte, info Info, maxSide int) ([]byte, Info, error) {
	if maxSide <= 0 || (info.Width <= maxSide && info.Height <= maxSide) {
		return raw, info, nil
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, Info{}, fmt.Errorf("decode image: %w", err)
	}

	w, h := info.Width, info.Height
	if w >= h {
		h = max(1, h*maxSide/w)
		w = maxSide
	} else {
		w = max(1, w*maxSide/h)
		h = maxSide
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: 85}); err != nil {
		return nil, Info{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return out.Bytes(), Info{MimeType: "image/jpeg", Width: w, Height: h}, nil
}
