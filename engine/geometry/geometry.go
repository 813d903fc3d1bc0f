package geometry

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is the fixed vertex record consumed by the graphics pipeline.
// Field order matters: it defines the attribute locations (0..3) and byte
// offsets the shaders declare. Changing it requires a coordinated change to
// shaders/mesh.vert.
type Vertex struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

// Byte layout of Vertex, shared with the pipeline's vertex input description
// and asserted by tests so the Go struct and the shader interface cannot
// drift apart.
const (
	VertexStride   = uint32(unsafe.Sizeof(Vertex{}))
	PositionOffset = uint32(unsafe.Offsetof(Vertex{}.Position))
	ColorOffset    = uint32(unsafe.Offsetof(Vertex{}.Color))
	NormalOffset   = uint32(unsafe.Offsetof(Vertex{}.Normal))
	UVOffset       = uint32(unsafe.Offsetof(Vertex{}.UV))
)

// MeshData is the mesh input contract: non-empty vertices plus triangle
// indices, three per triangle, all in bounds.
type MeshData struct {
	Vertices []Vertex
	Indices  []uint32
}

func (m *MeshData) Validate() error {
	if len(m.Vertices) == 0 {
		return fmt.Errorf("mesh has no vertices")
	}
	if len(m.Indices) == 0 {
		return fmt.Errorf("mesh has no indices")
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("mesh index count %d is not a multiple of 3", len(m.Indices))
	}
	limit := uint32(len(m.Vertices))
	for i, idx := range m.Indices {
		if idx >= limit {
			return fmt.Errorf("mesh index %d at position %d out of range (vertex count %d)", idx, i, limit)
		}
	}
	return nil
}

// BoundingBox reports the axis-aligned extents of the mesh.
func (m *MeshData) BoundingBox() (min, max mgl32.Vec3) {
	if len(m.Vertices) == 0 {
		return
	}
	min = m.Vertices[0].Position
	max = m.Vertices[0].Position
	for _, v := range m.Vertices[1:] {
		for i := 0; i < 3; i++ {
			if v.Position[i] < min[i] {
				min[i] = v.Position[i]
			}
			if v.Position[i] > max[i] {
				max[i] = v.Position[i]
			}
		}
	}
	return
}

// ComputeNormals derives per-vertex normals from face geometry by averaging
// the normals of every triangle a vertex participates in. Used when the
// source mesh carries no normals of its own.
func (m *MeshData) ComputeNormals() {
	for i := range m.Vertices {
		m.Vertices[i].Normal = mgl32.Vec3{}
	}
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a := &m.Vertices[m.Indices[i]]
		b := &m.Vertices[m.Indices[i+1]]
		c := &m.Vertices[m.Indices[i+2]]
		n := b.Position.Sub(a.Position).Cross(c.Position.Sub(a.Position))
		a.Normal = a.Normal.Add(n)
		b.Normal = b.Normal.Add(n)
		c.Normal = c.Normal.Add(n)
	}
	for i := range m.Vertices {
		if m.Vertices[i].Normal.Len() > 0 {
			m.Vertices[i].Normal = m.Vertices[i].Normal.Normalize()
		}
	}
}

// VertexBytes reinterprets the vertex slice as its raw device representation.
func VertexBytes(vertices []Vertex) []byte {
	if len(vertices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), len(vertices)*int(VertexStride))
}

// IndexBytes reinterprets the index slice as its raw device representation.
func IndexBytes(indices []uint32) []byte {
	if len(indices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&indices[0])), len(indices)*4)
}
