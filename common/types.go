// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// TextureStagingData holds RGBA pixel data for a texture binding pending GPU upload.
type TextureStagingData struct {
	// Pixels is the RGBA8 pixel data, 4 bytes per pixel, row-major.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
// Zero fields fall back to the renderer defaults.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode outside the [0, 1] range.
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp bound the level of detail.
	LodMinClamp, LodMaxClamp float32
	// Compare is set for comparison samplers only.
	Compare wgpu.CompareFunction
	// MaxAnisotropy is the anisotropic filtering clamp.
	MaxAnisotropy uint16
}

// DiffuseSamplerStagingData is the sampler the textured sandbox pipelines pair with their diffuse texture:
// clamped addressing, linear magnification and nearest minification.
var DiffuseSamplerStagingData = SamplerStagingData{
	AddressModeU: wgpu.AddressModeClampToEdge,
	AddressModeV: wgpu.AddressModeClampToEdge,
	AddressModeW: wgpu.AddressModeClampToEdge,
	MagFilter:    wgpu.FilterModeLinear,
	MinFilter:    wgpu.FilterModeNearest,
	MipmapFilter: wgpu.MipmapFilterModeNearest,
}

// ImportedTexture is an image to be decoded into TextureStagingData.
// Either Data (raw encoded bytes) or Path must be set.
type ImportedTexture struct {
	// Name is an identifier for this texture (e.g. "diffuse").
	Name string

	// Path is the file path for textures on disk.
	Path string

	// Data contains raw encoded image bytes (PNG, JPEG, BMP, TIFF or WebP).
	Data []byte

	// Width is the texture width in pixels (populated after Decode).
	Width int

	// Height is the texture height in pixels (populated after Decode).
	Height int
}

// Decode decodes the texture to RGBA pixel data ready for upload.
// PNG and JPEG come from the standard library; BMP, TIFF and WebP from golang.org/x/image.
//
// Returns:
//   - TextureStagingData: the decoded RGBA8 pixels and dimensions
//   - error: error if the source is missing or cannot be decoded
func (t *ImportedTexture) Decode() (TextureStagingData, error) {
	if t == nil {
		return TextureStagingData{}, errors.New("texture is nil")
	}

	var img image.Image
	var err error

	switch {
	case len(t.Data) > 0:
		img, _, err = image.Decode(bytes.NewReader(t.Data))
		if err != nil {
			return TextureStagingData{}, fmt.Errorf("failed to decode embedded image %q: %w", t.Name, err)
		}
	case t.Path != "":
		file, fileErr := os.Open(t.Path)
		if fileErr != nil {
			return TextureStagingData{}, fmt.Errorf("failed to open texture file %s: %w", t.Path, fileErr)
		}
		defer file.Close()

		img, _, err = image.Decode(file)
		if err != nil {
			return TextureStagingData{}, fmt.Errorf("failed to decode texture file %s: %w", t.Path, err)
		}
	default:
		return TextureStagingData{}, errors.New("texture has neither data nor path")
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	t.Width = bounds.Dx()
	t.Height = bounds.Dy()

	return TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(t.Width),
		Height: uint32(t.Height),
	}, nil
}

// Checkerboard builds a size x size RGBA8 texture of cells x cells alternating squares, the
// placeholder the textured sandbox draws when no image is given.
//
// Parameters:
//   - size: the edge length in pixels
//   - cells: the number of squares per edge, at least 1
//   - a, b: the two colours, a at the top-left
//
// Returns:
//   - TextureStagingData: the pixels
func Checkerboard(size, cells uint32, a, b color.RGBA) TextureStagingData {
	cells = max(cells, 1)
	cell := max(size/cells, 1)
	pix := make([]byte, 0, size*size*4)
	for y := range size {
		for x := range size {
			c := a
			if (x/cell+y/cell)%2 == 1 {
				c = b
			}
			pix = append(pix, c.R, c.G, c.B, c.A)
		}
	}
	return TextureStagingData{Pixels: pix, Width: size, Height: size}
}
