package scene

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"prism/engine/core"
)

const (
	// PushBlockSize is the byte size of the per-draw push constant block:
	// model matrix at 0, normal matrix as three padded columns at 64 and
	// the texture blend factor at 112, padded to the guaranteed minimum
	// push constant range.
	PushBlockSize = 128

	// CameraBlockSize is the byte size of the per-frame camera uniform:
	// view matrix at 0, projection matrix at 64.
	CameraBlockSize = 128

	// blendFadeRate is how fast the texture blend factor moves toward its
	// target, in units per second.
	blendFadeRate = 1.0
)

// State carries everything the renderer needs to draw the scene: the model
// transform driven by keyboard input, a deterministic time-based spin and
// the texture blend factor. Update is pure in elapsed time, so two runs
// with the same event stream and the same total elapsed time produce the
// same transforms regardless of how the time was partitioned into frames.
type State struct {
	Camera *Camera

	translation  mgl32.Vec3
	angle        float64
	rotationRate float64

	blend       float32
	blendTarget float32
}

func NewState(camera *Camera, rotationRate, textureBlend float32) *State {
	return &State{
		Camera:       camera,
		rotationRate: float64(rotationRate),
		blend:        textureBlend,
		blendTarget:  textureBlend,
	}
}

// ApplyEvent folds one input event into the scene. Movement events
// accumulate translation along the given axis; the toggle event flips the
// fade target between fully textured and flat color.
func (s *State) ApplyEvent(ev core.Event) {
	switch ev.Type {
	case core.EventMoveAxis:
		switch ev.Axis {
		case core.AxisX:
			s.translation[0] += ev.Delta
		case core.AxisY:
			s.translation[1] += ev.Delta
		case core.AxisZ:
			s.translation[2] += ev.Delta
		}
	case core.EventToggleBlend:
		if s.blendTarget > 0.5 {
			s.blendTarget = 0
		} else {
			s.blendTarget = 1
		}
	}
}

// Update advances the spin and the blend fade by delta seconds.
func (s *State) Update(delta float64) {
	s.angle = math.Mod(s.angle+s.rotationRate*delta, 2*math.Pi)

	step := float32(blendFadeRate * delta)
	if s.blend < s.blendTarget {
		s.blend = minf(s.blend+step, s.blendTarget)
	} else if s.blend > s.blendTarget {
		s.blend = maxf(s.blend-step, s.blendTarget)
	}
}

func (s *State) Translation() mgl32.Vec3 { return s.translation }
func (s *State) Angle() float64          { return s.angle }
func (s *State) Blend() float32          { return s.blend }

// ModelMatrix is the object-to-world transform: spin around Y, then the
// accumulated keyboard translation.
func (s *State) ModelMatrix() mgl32.Mat4 {
	rot := mgl32.HomogRotate3DY(float32(s.angle))
	return mgl32.Translate3D(s.translation[0], s.translation[1], s.translation[2]).Mul4(rot)
}

// NormalMatrix is the transform applied to vertex normals. The model
// transform is a rotation plus a translation, so the upper-left 3x3 of the
// model matrix is already the correct normal transform.
func (s *State) NormalMatrix() mgl32.Mat3 {
	return s.ModelMatrix().Mat3()
}

// PushData encodes the per-draw push constant block. The mat3 columns are
// padded to vec4 per std430 alignment rules.
func (s *State) PushData() [PushBlockSize]byte {
	var out [PushBlockSize]byte

	model := s.ModelMatrix()
	putMat4(out[0:64], model)

	normal := s.NormalMatrix()
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			putF32(out[64+col*16+row*4:], normal.At(row, col))
		}
	}

	putF32(out[112:], s.blend)
	return out
}

// CameraData encodes the per-frame camera uniform block.
func (s *State) CameraData() [CameraBlockSize]byte {
	var out [CameraBlockSize]byte
	putMat4(out[0:64], s.Camera.View())
	putMat4(out[64:128], s.Camera.Projection())
	return out
}

func putMat4(dst []byte, m mgl32.Mat4) {
	for i := 0; i < 16; i++ {
		putF32(dst[i*4:], m[i])
	}
}

func putF32(dst []byte, v float32) {
	binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
