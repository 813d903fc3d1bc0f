package geometry

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The pipeline's vertex input description and the shaders both assume this
// exact layout. If the struct changes shape, this fails before any GPU does.
func TestVertexLayout(t *testing.T) {
	assert.Equal(t, uint32(44), VertexStride)
	assert.Equal(t, uint32(0), PositionOffset)
	assert.Equal(t, uint32(12), ColorOffset)
	assert.Equal(t, uint32(24), NormalOffset)
	assert.Equal(t, uint32(36), UVOffset)
}

func TestVertexBytes(t *testing.T) {
	vertices := []Vertex{
		{Position: mgl32.Vec3{1, 2, 3}},
		{Position: mgl32.Vec3{4, 5, 6}},
	}
	raw := VertexBytes(vertices)
	assert.Len(t, raw, 2*int(VertexStride))

	assert.Nil(t, VertexBytes(nil))
}

func TestIndexBytes(t *testing.T) {
	raw := IndexBytes([]uint32{0, 1, 2})
	assert.Len(t, raw, 12)

	assert.Nil(t, IndexBytes(nil))
}

func TestValidate(t *testing.T) {
	triangle := func() *MeshData {
		return &MeshData{
			Vertices: []Vertex{{}, {}, {}},
			Indices:  []uint32{0, 1, 2},
		}
	}

	require.NoError(t, triangle().Validate())

	m := triangle()
	m.Vertices = nil
	assert.Error(t, m.Validate())

	m = triangle()
	m.Indices = []uint32{0, 1}
	assert.Error(t, m.Validate())

	m = triangle()
	m.Indices = []uint32{0, 1, 3}
	assert.Error(t, m.Validate())

	m = triangle()
	m.Indices = nil
	assert.Error(t, m.Validate())
}

func TestBoundingBox(t *testing.T) {
	m := &MeshData{
		Vertices: []Vertex{
			{Position: mgl32.Vec3{-1, 5, 0}},
			{Position: mgl32.Vec3{2, -3, 4}},
			{Position: mgl32.Vec3{0, 0, -2}},
		},
	}
	min, max := m.BoundingBox()
	assert.Equal(t, mgl32.Vec3{-1, -3, -2}, min)
	assert.Equal(t, mgl32.Vec3{2, 5, 4}, max)
}

func TestComputeNormals(t *testing.T) {
	// Counterclockwise triangle in the XY plane faces +Z.
	m := &MeshData{
		Vertices: []Vertex{
			{Position: mgl32.Vec3{0, 0, 0}},
			{Position: mgl32.Vec3{1, 0, 0}},
			{Position: mgl32.Vec3{0, 1, 0}},
		},
		Indices: []uint32{0, 1, 2},
	}
	m.ComputeNormals()

	for _, v := range m.Vertices {
		assert.InDelta(t, 0.0, float64(v.Normal.X()), 1e-6)
		assert.InDelta(t, 0.0, float64(v.Normal.Y()), 1e-6)
		assert.InDelta(t, 1.0, float64(v.Normal.Z()), 1e-6)
	}
}

func TestComputeNormalsSharedVertex(t *testing.T) {
	// Two faces meeting at a right angle; the shared edge vertices get the
	// normalized average of both face normals.
	m := &MeshData{
		Vertices: []Vertex{
			{Position: mgl32.Vec3{0, 0, 0}},
			{Position: mgl32.Vec3{1, 0, 0}},
			{Position: mgl32.Vec3{0, 1, 0}},
			{Position: mgl32.Vec3{0, 0, 1}},
		},
		// First faces +Z, second faces +Y.
		Indices: []uint32{0, 1, 2, 0, 3, 1},
	}
	m.ComputeNormals()

	shared := m.Vertices[1].Normal
	assert.InDelta(t, shared.Y(), shared.Z(), 1e-6)
	assert.InDelta(t, 1.0, float64(shared.Len()), 1e-6)
}
