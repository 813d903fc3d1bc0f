package assets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quadOBJ = `
# a unit quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1 4/4/1
`

func TestParseOBJQuad(t *testing.T) {
	mesh, err := ParseOBJ(strings.NewReader(quadOBJ))
	require.NoError(t, err)

	require.Len(t, mesh.Vertices, 4)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, mesh.Indices)

	v := mesh.Vertices[2]
	assert.Equal(t, float32(1), v.Position.X())
	assert.Equal(t, float32(1), v.Position.Y())
	assert.Equal(t, float32(1), v.UV.X())
	assert.Equal(t, float32(1), v.UV.Y())
	assert.Equal(t, float32(1), v.Normal.Z())

	// Default vertex color is white.
	assert.Equal(t, float32(1), v.Color.X())
}

func TestParseOBJNegativeIndices(t *testing.T) {
	src := `
v 0 0 0
v 1 0 0
v 0 1 0
f -3 -2 -1
`
	mesh, err := ParseOBJ(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, mesh.Vertices, 3)
	assert.Equal(t, []uint32{0, 1, 2}, mesh.Indices)
}

func TestParseOBJComputesMissingNormals(t *testing.T) {
	src := `
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`
	mesh, err := ParseOBJ(strings.NewReader(src))
	require.NoError(t, err)

	for _, v := range mesh.Vertices {
		assert.InDelta(t, 1.0, float64(v.Normal.Z()), 1e-6)
	}
}

func TestParseOBJPlanarUVFallback(t *testing.T) {
	src := `
v 0 0 0
v 2 0 0
v 0 4 0
f 1 2 3
`
	mesh, err := ParseOBJ(strings.NewReader(src))
	require.NoError(t, err)

	for _, v := range mesh.Vertices {
		assert.GreaterOrEqual(t, v.UV.X(), float32(0))
		assert.LessOrEqual(t, v.UV.X(), float32(1))
		assert.GreaterOrEqual(t, v.UV.Y(), float32(0))
		assert.LessOrEqual(t, v.UV.Y(), float32(1))
	}
	assert.Equal(t, float32(1), mesh.Vertices[1].UV.X())
	assert.Equal(t, float32(1), mesh.Vertices[2].UV.Y())
}

func TestParseOBJSharedCornersDeduplicated(t *testing.T) {
	src := `
v 0 0 0
v 1 0 0
v 0 1 0
v 1 1 0
f 1 2 3
f 2 4 3
`
	mesh, err := ParseOBJ(strings.NewReader(src))
	require.NoError(t, err)
	assert.Len(t, mesh.Vertices, 4)
	assert.Len(t, mesh.Indices, 6)
}

func TestParseOBJErrors(t *testing.T) {
	cases := map[string]string{
		"vertex out of range": "v 0 0 0\nf 1 2 3\n",
		"short face":          "v 0 0 0\nv 1 0 0\nf 1 2\n",
		"bad component":       "v 0 zero 0\n",
		"no faces":            "v 0 0 0\n",
		"empty corner":        "v 0 0 0\nf // // //\n",
	}
	for name, src := range cases {
		_, err := ParseOBJ(strings.NewReader(src))
		assert.Error(t, err, name)
	}
}
