package common

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

var (
	light = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	dark  = color.RGBA{R: 10, G: 20, B: 30, A: 255}
)

func pixelAt(t TextureStagingData, x, y uint32) color.RGBA {
	i := (y*t.Width + x) * 4
	return color.RGBA{R: t.Pixels[i], G: t.Pixels[i+1], B: t.Pixels[i+2], A: t.Pixels[i+3]}
}

func TestCheckerboard(t *testing.T) {
	tex := Checkerboard(8, 2, light, dark)
	require.Len(t, tex.Pixels, 8*8*4)
	assert.Equal(t, light, pixelAt(tex, 0, 0))
	assert.Equal(t, light, pixelAt(tex, 3, 3))
	assert.Equal(t, dark, pixelAt(tex, 4, 0))
	assert.Equal(t, dark, pixelAt(tex, 0, 4))
	assert.Equal(t, light, pixelAt(tex, 7, 7))

	// Zero cells is one cell.
	tex = Checkerboard(4, 0, light, dark)
	assert.Equal(t, light, pixelAt(tex, 3, 3))
}

func toImage(tex TextureStagingData) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, int(tex.Width), int(tex.Height)))
	copy(img.Pix, tex.Pixels)
	return img
}

func TestDecodeEncodedImages(t *testing.T) {
	want := Checkerboard(16, 4, light, dark)

	var pngBuf, bmpBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, toImage(want)))
	require.NoError(t, bmp.Encode(&bmpBuf, toImage(want)))

	for name, data := range map[string][]byte{"png": pngBuf.Bytes(), "bmp": bmpBuf.Bytes()} {
		t.Run(name, func(t *testing.T) {
			tex := &ImportedTexture{Name: name, Data: data}
			got, err := tex.Decode()
			require.NoError(t, err)
			assert.Equal(t, 16, tex.Width)
			assert.Equal(t, want, got)
		})
	}
}

func TestDecodeFromPath(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, toImage(Checkerboard(4, 2, light, dark))))
	path := filepath.Join(t.TempDir(), "check.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	got, err := (&ImportedTexture{Path: path}).Decode()
	require.NoError(t, err)
	assert.Equal(t, uint32(4), got.Height)

	_, err = (&ImportedTexture{Name: "junk", Data: []byte("not an image")}).Decode()
	assert.Error(t, err)
	_, err = (&ImportedTexture{}).Decode()
	assert.EqualError(t, err, "texture has neither data nor path")
}
