package imaging

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tukib/snakebot/internal/errors"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodedSize(t *testing.T, b []byte) (int, int) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	return cfg.Width, cfg.Height
}

func TestThumbnail(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"landscape", 1024, 512, 256, 128},
		{"portrait", 300, 600, 128, 256},
		{"square", 512, 512, 256, 256},
		{"already small", 64, 32, 64, 32},
		{"sliver", 2000, 3, 256, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Thumbnail(encodePNG(t, tt.w, tt.h), EmojiSize)
			require.NoError(t, err)
			w, h := decodedSize(t, out)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestThumbnail_JPEGInput(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 400))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	out, err := Thumbnail(buf.Bytes(), EmojiSize)
	require.NoError(t, err)
	w, h := decodedSize(t, out)
	assert.Equal(t, 256, w)
	assert.Equal(t, 256, h)
}

func TestThumbnail_RejectsGarbage(t *testing.T) {
	_, err := Thumbnail([]byte("definitely not an image"), EmojiSize)
	assert.Error(t, err)
}

// pngHeader returns a PNG signature and IHDR chunk declaring w x h RGBA
// pixels, with no image data behind it.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // truecolor with alpha

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestThumbnail_RejectsOversizedDimensions(t *testing.T) {
	tests := []struct {
		name string
		w, h uint32
	}{
		{"huge square", 30000, 30000},
		{"wide", MaxDimension + 1, 16},
		{"tall", 16, MaxDimension + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Thumbnail(pngHeader(tt.w, tt.h), EmojiSize)
			require.Error(t, err)
			assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		})
	}
}

func TestThumbnail_HeaderOnlyWithinBoundIsNotValidation(t *testing.T) {
	_, err := Thumbnail(pngHeader(64, 64), EmojiSize)
	require.Error(t, err)
	assert.NotEqual(t, apperrors.KindValidation, apperrors.KindOf(err))
}
