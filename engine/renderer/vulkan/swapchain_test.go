package vulkan

import (
	"math"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
)

func TestChooseSurfaceFormatPrefersSRGB(t *testing.T) {
	formats := []vk.SurfaceFormat{
		{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}
	got := chooseSurfaceFormat(formats)
	assert.Equal(t, vk.FormatB8g8r8a8Srgb, got.Format)
	assert.Equal(t, vk.ColorSpaceSrgbNonlinear, got.ColorSpace)
}

func TestChooseSurfaceFormatSecondChoice(t *testing.T) {
	formats := []vk.SurfaceFormat{
		{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatR8g8b8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}
	got := chooseSurfaceFormat(formats)
	assert.Equal(t, vk.FormatR8g8b8a8Srgb, got.Format)
}

func TestChooseSurfaceFormatFallsBackToFirst(t *testing.T) {
	formats := []vk.SurfaceFormat{
		{Format: vk.FormatR5g6b5UnormPack16, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}
	got := chooseSurfaceFormat(formats)
	assert.Equal(t, vk.FormatR5g6b5UnormPack16, got.Format)
}

func TestChoosePresentMode(t *testing.T) {
	assert.Equal(t, vk.PresentModeMailbox, choosePresentMode([]vk.PresentMode{
		vk.PresentModeFifo, vk.PresentModeMailbox, vk.PresentModeImmediate,
	}))
	assert.Equal(t, vk.PresentModeFifo, choosePresentMode([]vk.PresentMode{
		vk.PresentModeFifo, vk.PresentModeImmediate,
	}))
	assert.Equal(t, vk.PresentModeFifo, choosePresentMode(nil))
}

func TestChooseExtentUsesSurfaceExtent(t *testing.T) {
	caps := vk.SurfaceCapabilities{
		CurrentExtent: vk.Extent2D{Width: 800, Height: 600},
	}
	got := chooseExtent(caps, 1920, 1080)
	assert.Equal(t, uint32(800), got.Width)
	assert.Equal(t, uint32(600), got.Height)
}

func TestChooseExtentClampsWhenFlexible(t *testing.T) {
	caps := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32},
		MinImageExtent: vk.Extent2D{Width: 320, Height: 240},
		MaxImageExtent: vk.Extent2D{Width: 1280, Height: 720},
	}

	got := chooseExtent(caps, 4000, 100)
	assert.Equal(t, uint32(1280), got.Width)
	assert.Equal(t, uint32(240), got.Height)

	got = chooseExtent(caps, 640, 480)
	assert.Equal(t, uint32(640), got.Width)
	assert.Equal(t, uint32(480), got.Height)
}

func TestChooseImageCount(t *testing.T) {
	caps := vk.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 4}

	// Zero request defaults to min+1.
	assert.Equal(t, uint32(3), chooseImageCount(caps, 0))
	// Requests clamp to the surface bounds.
	assert.Equal(t, uint32(2), chooseImageCount(caps, 1))
	assert.Equal(t, uint32(4), chooseImageCount(caps, 9))
	assert.Equal(t, uint32(3), chooseImageCount(caps, 3))

	// Zero max means unbounded.
	unbounded := vk.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 0}
	assert.Equal(t, uint32(8), chooseImageCount(unbounded, 8))
}

func TestNextFrameSlot(t *testing.T) {
	slot := uint32(0)
	seen := make([]uint32, 0, 2*MaxFramesInFlight)
	for i := 0; i < 2*MaxFramesInFlight; i++ {
		seen = append(seen, slot)
		slot = nextFrameSlot(slot)
	}
	assert.Equal(t, []uint32{0, 1, 0, 1}, seen)
	assert.Equal(t, uint32(0), slot)
}
