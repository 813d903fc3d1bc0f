package assets

import (
	"fmt"
	"image"
	"os"

	// Register decoders for the texture formats we accept.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"

	"golang.org/x/image/draw"
)

// TextureData is the texture input contract: tightly packed 8-bit RGBA
// pixels, no mipmaps.
type TextureData struct {
	Pixels []byte
	Width  uint32
	Height uint32
}

// LoadTexture decodes an image file (PNG, JPEG or BMP) and converts it to
// RGBA8 regardless of its source encoding.
func LoadTexture(path string) (*TextureData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture %q: %w", path, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode texture %q: %w", path, err)
	}

	td := FromImage(img)
	if len(td.Pixels) == 0 {
		return nil, fmt.Errorf("texture %q (%s) has no pixels", path, format)
	}
	return td, nil
}

// FromImage converts any decoded image into the RGBA8 contract.
func FromImage(img image.Image) *TextureData {
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return &TextureData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}
}
