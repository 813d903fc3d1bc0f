package scene

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prism/engine/core"
)

func testState(rotationRate float32) *State {
	camera := NewCamera(60, 0.1, 100)
	camera.SetAspect(1280, 720)
	return NewState(camera, rotationRate, 0)
}

func f32At(block []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(block[offset:]))
}

func TestUpdateZeroDeltaIsIdentity(t *testing.T) {
	s := testState(1)
	before := s.ModelMatrix()
	s.Update(0)
	assert.Equal(t, before, s.ModelMatrix())
}

func TestRotationDependsOnlyOnTotalTime(t *testing.T) {
	// The same total elapsed time must yield the same spin however it is
	// split into frames.
	a := testState(1.5)
	b := testState(1.5)

	a.Update(2.0)
	for i := 0; i < 40; i++ {
		b.Update(0.05)
	}

	assert.InDelta(t, a.Angle(), b.Angle(), 1e-9)
}

func TestRotationWraps(t *testing.T) {
	s := testState(1)
	s.Update(4 * math.Pi)
	assert.InDelta(t, 0, s.Angle(), 1e-6)
}

func TestTranslationAccumulates(t *testing.T) {
	s := testState(0)

	s.ApplyEvent(core.Event{Type: core.EventMoveAxis, Axis: core.AxisX, Delta: 0.25})
	s.ApplyEvent(core.Event{Type: core.EventMoveAxis, Axis: core.AxisX, Delta: 0.25})
	s.ApplyEvent(core.Event{Type: core.EventMoveAxis, Axis: core.AxisY, Delta: -0.5})
	s.ApplyEvent(core.Event{Type: core.EventMoveAxis, Axis: core.AxisZ, Delta: 1})

	tr := s.Translation()
	assert.Equal(t, float32(0.5), tr.X())
	assert.Equal(t, float32(-0.5), tr.Y())
	assert.Equal(t, float32(1), tr.Z())

	// Translation lands in the model matrix's fourth column.
	model := s.ModelMatrix()
	assert.Equal(t, float32(0.5), model.At(0, 3))
	assert.Equal(t, float32(-0.5), model.At(1, 3))
	assert.Equal(t, float32(1), model.At(2, 3))
}

func TestBlendFadesTowardTarget(t *testing.T) {
	s := testState(0)
	assert.Equal(t, float32(0), s.Blend())

	s.ApplyEvent(core.Event{Type: core.EventToggleBlend})
	s.Update(0.5)
	assert.InDelta(t, 0.5, float64(s.Blend()), 1e-6)

	// Clamped at the target, never past it.
	s.Update(10)
	assert.Equal(t, float32(1), s.Blend())

	s.ApplyEvent(core.Event{Type: core.EventToggleBlend})
	s.Update(10)
	assert.Equal(t, float32(0), s.Blend())
}

func TestPushDataLayout(t *testing.T) {
	s := testState(0)
	s.ApplyEvent(core.Event{Type: core.EventMoveAxis, Axis: core.AxisX, Delta: 2})

	block := s.PushData()
	require.Len(t, block[:], PushBlockSize)

	// Identity rotation: the model matrix diagonal is 1.
	assert.Equal(t, float32(1), f32At(block[:], 0))
	assert.Equal(t, float32(1), f32At(block[:], 5*4))
	// Translation column (column-major mat4: column 3 starts at byte 48).
	assert.Equal(t, float32(2), f32At(block[:], 48))

	// Normal matrix columns are vec4 padded starting at 64.
	assert.Equal(t, float32(1), f32At(block[:], 64))
	assert.Equal(t, float32(1), f32At(block[:], 64+16+4))
	assert.Equal(t, float32(1), f32At(block[:], 64+32+8))

	// Blend factor at 112.
	assert.Equal(t, float32(0), f32At(block[:], 112))
}

func TestPushDataBlendValue(t *testing.T) {
	s := testState(0)
	s.ApplyEvent(core.Event{Type: core.EventToggleBlend})
	s.Update(10)

	block := s.PushData()
	assert.Equal(t, float32(1), f32At(block[:], 112))
}

func TestCameraDataLayout(t *testing.T) {
	s := testState(0)
	block := s.CameraData()
	require.Len(t, block[:], CameraBlockSize)

	view := s.Camera.View()
	proj := s.Camera.Projection()
	for i := 0; i < 16; i++ {
		assert.Equal(t, view[i], f32At(block[:], i*4), "view element %d", i)
		assert.Equal(t, proj[i], f32At(block[:], 64+i*4), "projection element %d", i)
	}
}

func TestProjectionFlipsY(t *testing.T) {
	camera := NewCamera(60, 0.1, 100)
	camera.SetAspect(1280, 720)
	proj := camera.Projection()
	assert.Negative(t, proj.At(1, 1))
}

func TestNormalMatrixMatchesRotation(t *testing.T) {
	s := testState(1)
	s.Update(0.7)
	s.ApplyEvent(core.Event{Type: core.EventMoveAxis, Axis: core.AxisZ, Delta: 3})

	normal := s.NormalMatrix()
	model := s.ModelMatrix()
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			assert.InDelta(t, model.At(row, col), normal.At(row, col), 1e-6)
		}
	}
}
