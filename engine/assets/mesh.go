package assets

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"prism/engine/geometry"
)

// LoadMesh reads a Wavefront OBJ file and produces the renderer's mesh input
// contract. Supported statements: v, vt, vn, f (convex polygons are fan
// triangulated). Missing normals are derived from face geometry, missing
// texture coordinates from a planar projection of position, and vertex color
// defaults to white.
func LoadMesh(path string) (*geometry.MeshData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mesh %q: %w", path, err)
	}
	defer f.Close()

	mesh, err := ParseOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mesh %q: %w", path, err)
	}
	return mesh, nil
}

// objRef is a single face corner: position/texcoord/normal indices, zero
// meaning absent.
type objRef struct {
	v, vt, vn int
}

func ParseOBJ(r io.Reader) (*geometry.MeshData, error) {
	var (
		positions []mgl32.Vec3
		texcoords []mgl32.Vec2
		normals   []mgl32.Vec3

		mesh       geometry.MeshData
		seen       = map[objRef]uint32{}
		hasNormals = true
		hasUVs     = true
	)

	resolve := func(ref objRef) (uint32, error) {
		if idx, ok := seen[ref]; ok {
			return idx, nil
		}
		if ref.v < 1 || ref.v > len(positions) {
			return 0, fmt.Errorf("face references vertex %d of %d", ref.v, len(positions))
		}
		vert := geometry.Vertex{
			Position: positions[ref.v-1],
			Color:    mgl32.Vec3{1, 1, 1},
		}
		if ref.vt >= 1 && ref.vt <= len(texcoords) {
			vert.UV = texcoords[ref.vt-1]
		} else {
			hasUVs = false
		}
		if ref.vn >= 1 && ref.vn <= len(normals) {
			vert.Normal = normals[ref.vn-1]
		} else {
			hasNormals = false
		}
		idx := uint32(len(mesh.Vertices))
		mesh.Vertices = append(mesh.Vertices, vert)
		seen[ref] = idx
		return idx, nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			p, err := parseVec3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			positions = append(positions, p)
		case "vt":
			uv, err := parseVec2(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			texcoords = append(texcoords, uv)
		case "vn":
			n, err := parseVec3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			normals = append(normals, n)
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face with fewer than 3 corners", lineNo)
			}
			refs := make([]objRef, 0, len(fields)-1)
			for _, corner := range fields[1:] {
				ref, err := parseFaceCorner(corner, len(positions), len(texcoords), len(normals))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				refs = append(refs, ref)
			}
			// Fan triangulation of convex polygons.
			for i := 1; i+1 < len(refs); i++ {
				for _, ref := range []objRef{refs[0], refs[i], refs[i+1]} {
					idx, err := resolve(ref)
					if err != nil {
						return nil, fmt.Errorf("line %d: %w", lineNo, err)
					}
					mesh.Indices = append(mesh.Indices, idx)
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if err := mesh.Validate(); err != nil {
		return nil, err
	}

	if !hasNormals {
		mesh.ComputeNormals()
	}
	if !hasUVs {
		planarProjectUVs(&mesh)
	}

	return &mesh, nil
}

func parseFaceCorner(s string, vCount, vtCount, vnCount int) (objRef, error) {
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return objRef{}, fmt.Errorf("malformed face corner %q", s)
	}
	var ref objRef
	for i, part := range parts {
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return objRef{}, fmt.Errorf("malformed face corner %q: %w", s, err)
		}
		// Negative OBJ indices count back from the end of the list.
		switch i {
		case 0:
			if n < 0 {
				n = vCount + n + 1
			}
			ref.v = n
		case 1:
			if n < 0 {
				n = vtCount + n + 1
			}
			ref.vt = n
		case 2:
			if n < 0 {
				n = vnCount + n + 1
			}
			ref.vn = n
		}
	}
	if ref.v == 0 {
		return objRef{}, fmt.Errorf("face corner %q has no vertex index", s)
	}
	return ref, nil
}

func parseVec3(fields []string) (mgl32.Vec3, error) {
	if len(fields) < 3 {
		return mgl32.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(fields))
	}
	var out mgl32.Vec3
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return mgl32.Vec3{}, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

func parseVec2(fields []string) (mgl32.Vec2, error) {
	if len(fields) < 2 {
		return mgl32.Vec2{}, fmt.Errorf("expected 2 components, got %d", len(fields))
	}
	var out mgl32.Vec2
	for i := 0; i < 2; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return mgl32.Vec2{}, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

// planarProjectUVs maps vertex X/Y onto [0,1] using the mesh bounding box,
// giving untextured models stable coordinates to sample with.
func planarProjectUVs(mesh *geometry.MeshData) {
	min, max := mesh.BoundingBox()
	span := max.Sub(min)
	for i := range mesh.Vertices {
		p := mesh.Vertices[i].Position.Sub(min)
		var uv mgl32.Vec2
		if span.X() > 0 {
			uv[0] = p.X() / span.X()
		}
		if span.Y() > 0 {
			uv[1] = p.Y() / span.Y()
		}
		mesh.Vertices[i].UV = uv
	}
}
