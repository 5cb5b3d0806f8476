// Package imaging shrinks submitted images to emoji size.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	apperrors "github.com/tukib/snakebot/internal/errors"
)

const (
	// EmojiSize is the bounding box of a custom emoji.
	EmojiSize = 256
	// MaxDimension bounds the width and height of a source image. Larger
	// images are refused before their pixels are decoded.
	MaxDimension = 4096
)

// Thumbnail decodes src, scales it to fit within size x size keeping the
// aspect ratio and encodes the result as PNG. Images already inside the box
// are re-encoded unscaled.
func Thumbnail(src []byte, size int) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}
	if cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		return nil, apperrors.ValidationError(fmt.Sprintf("Image is larger than %dx%d", MaxDimension, MaxDimension)).
			WithField("width", cfg.Width).
			WithField("height", cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	b := img.Bounds()
	w, h := fit(b.Dx(), b.Dy(), size)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func fit(w, h, size int) (int, int) {
	if w <= size && h <= size {
		return w, h
	}
	if w >= h {
		return size, max(1, h*size/w)
	}
	return max(1, w*size/h), size
}
