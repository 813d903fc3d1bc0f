package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera holds the view and projection state uploaded once per frame.
// Projection uses a Vulkan clip space, so Y is flipped relative to the
// OpenGL convention mathgl produces.
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3

	FovDegrees float32
	NearPlane  float32
	FarPlane   float32

	aspect float32
}

func NewCamera(fovDegrees, nearPlane, farPlane float32) *Camera {
	return &Camera{
		Position:   mgl32.Vec3{0, 0, -8},
		Target:     mgl32.Vec3{0, 0, 0},
		Up:         mgl32.Vec3{0, 1, 0},
		FovDegrees: fovDegrees,
		NearPlane:  nearPlane,
		FarPlane:   farPlane,
		aspect:     1,
	}
}

// SetAspect updates the projection aspect ratio. Called on every swapchain
// rebuild so the projection tracks the window.
func (c *Camera) SetAspect(width, height uint32) {
	if height == 0 {
		return
	}
	c.aspect = float32(width) / float32(height)
}

func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

func (c *Camera) Projection() mgl32.Mat4 {
	proj := mgl32.Perspective(mgl32.DegToRad(c.FovDegrees), c.aspect, c.NearPlane, c.FarPlane)
	proj[5] *= -1
	return proj
}
