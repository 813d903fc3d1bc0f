package assets

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromImageTightlyPacked(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(2, 1, color.NRGBA{B: 255, A: 255})

	td := FromImage(img)
	assert.Equal(t, uint32(3), td.Width)
	assert.Equal(t, uint32(2), td.Height)
	require.Len(t, td.Pixels, 3*2*4)

	// Top-left texel is red.
	assert.Equal(t, byte(255), td.Pixels[0])
	assert.Equal(t, byte(0), td.Pixels[1])
	// Bottom-right texel is blue.
	last := (1*3 + 2) * 4
	assert.Equal(t, byte(255), td.Pixels[last+2])
	assert.Equal(t, byte(255), td.Pixels[last+3])
}

func TestFromImageNonZeroOrigin(t *testing.T) {
	img := image.NewRGBA(image.Rect(5, 5, 9, 8))
	td := FromImage(img)
	assert.Equal(t, uint32(4), td.Width)
	assert.Equal(t, uint32(3), td.Height)
	assert.Len(t, td.Pixels, 4*3*4)
}

func TestLoadTexturePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tex.png")

	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(1, 1, color.NRGBA{G: 200, A: 255})
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	td, err := LoadTexture(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), td.Width)
	assert.Equal(t, uint32(2), td.Height)
	assert.Equal(t, byte(200), td.Pixels[(1*2+1)*4+1])
}

func TestLoadTextureMissingFile(t *testing.T) {
	_, err := LoadTexture(filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}

func TestLoadTextureGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	_, err := LoadTexture(path)
	assert.Error(t, err)
}
