package terrain

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/griffinteller/torus-terrain/pkg/formats"
	"github.com/griffinteller/torus-terrain/pkg/math"
	"github.com/griffinteller/torus-terrain/pkg/strip"
	"github.com/griffinteller/torus-terrain/pkg/torus"
)

// BuildTorus creates a closed mesh of the whole torus with rows rows around
// the tube. Rows and columns wrap by index; no vertex is duplicated.
func BuildTorus(shape torus.Shape, rows int) (*Mesh, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	layout, err := torus.Plan{AspectRatio: shape.AspectRatio, Rows: rows, Closed: true}.Layout()
	if err != nil {
		return nil, err
	}
	return build(shape, layout, torus.ClosedUVs(layout), strip.Topology{WrapRows: true, WrapColumns: true})
}

// BuildQuad creates the mesh of one quad of a torus split into grid quads.
// Every quad has rows rows; border rows and columns sit on the quad edges and
// are shared, by position, with the neighbouring quads.
func BuildQuad(shape torus.Shape, rows int, grid, quad torus.Tile) (*Mesh, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	layout, err := torus.Plan{AspectRatio: shape.AspectRatio, Rows: rows, Grid: grid, Quad: quad}.Layout()
	if err != nil {
		return nil, err
	}
	return build(shape, layout, torus.QuadUVs(grid, quad, layout), strip.Topology{})
}

func build(shape torus.Shape, layout torus.RowLayout, uvs []r2.Vec, topo strip.Topology) (*Mesh, error) {
	tris, err := strip.Triangulate(layout, topo)
	if err != nil {
		return nil, fmt.Errorf("triangulating: %w", err)
	}

	vertices := make([]Vertex, len(uvs))
	for i, uv := range uvs {
		vertices[i] = Vertex{
			Position: math.FromR3(shape.UVToPosition(uv.X, uv.Y)),
			Normal:   math.FromR3(torus.UVToNormal(uv.X, uv.Y)),
			TexCoord: math.FromR2(uv),
		}
	}
	indices := make([]uint32, 0, 3*len(tris))
	for _, t := range tris {
		indices = append(indices, t[0], t[1], t[2])
	}

	m := &Mesh{Vertices: vertices, Indices: indices}
	m.RecalculateBounds()
	return m, nil
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IndexWidth returns 16 when every vertex is addressable with 16-bit
// indices, else 32.
func (m *Mesh) IndexWidth() int {
	if len(m.Vertices) <= MaxIndex16 {
		return 16
	}
	return 32
}

// Indices16 returns the indices narrowed to 16 bits.
func (m *Mesh) Indices16() ([]uint16, error) {
	if m.IndexWidth() != 16 {
		return nil, fmt.Errorf("%w: %d", ErrTooManyVertices, len(m.Vertices))
	}
	out := make([]uint16, len(m.Indices))
	for i, idx := range m.Indices {
		out[i] = uint16(idx)
	}
	return out, nil
}

// RecalculateBounds recomputes the bounding box from the vertices.
func (m *Mesh) RecalculateBounds() {
	if len(m.Vertices) == 0 {
		m.Bounds = Bounds{}
		return
	}
	b := Bounds{Min: m.Vertices[0].Position, Max: m.Vertices[0].Position}
	for _, v := range m.Vertices[1:] {
		b.Min = b.Min.Min(v.Position)
		b.Max = b.Max.Max(v.Position)
	}
	m.Bounds = b
}

// RecalculateNormals sets each vertex normal to the area-weighted average of
// the faces around it.
func (m *Mesh) RecalculateNormals() {
	sums := make([]math.Vec3, len(m.Vertices))
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		pa := m.Vertices[a].Position
		face := m.Vertices[b].Position.Sub(pa).Cross(m.Vertices[c].Position.Sub(pa))
		sums[a] = sums[a].Add(face)
		sums[b] = sums[b].Add(face)
		sums[c] = sums[c].Add(face)
	}
	for i := range m.Vertices {
		m.Vertices[i].Normal = sums[i].Normalize()
	}
}

// SmoothNormals averages normals of vertices that share a position, within
// and across meshes. It joins the seams of quad meshes and the duplicated
// seam vertices inside one mesh.
func SmoothNormals(meshes ...*Mesh) {
	const epsilon float32 = 0.0001

	type ref struct{ mesh, vertex int }
	posMap := make(map[[3]int64][]ref)
	for mi, m := range meshes {
		for vi := range m.Vertices {
			p := m.Vertices[vi].Position
			key := [3]int64{
				int64(p.X / epsilon),
				int64(p.Y / epsilon),
				int64(p.Z / epsilon),
			}
			posMap[key] = append(posMap[key], ref{mi, vi})
		}
	}

	for _, refs := range posMap {
		if len(refs) < 2 {
			continue
		}
		var sum math.Vec3
		for _, r := range refs {
			sum = sum.Add(meshes[r.mesh].Vertices[r.vertex].Normal)
		}
		avg := sum.Normalize()
		for _, r := range refs {
			meshes[r.mesh].Vertices[r.vertex].Normal = avg
		}
	}
}

// OBJ converts the mesh for export.
func (m *Mesh) OBJ(name string) *formats.OBJ {
	o := &formats.OBJ{
		Name:      name,
		Positions: make([]math.Vec3, len(m.Vertices)),
		Normals:   make([]math.Vec3, len(m.Vertices)),
		TexCoords: make([]math.Vec2, len(m.Vertices)),
		Indices:   m.Indices,
	}
	for i, v := range m.Vertices {
		o.Positions[i] = v.Position
		o.Normals[i] = v.Normal
		o.TexCoords[i] = v.TexCoord
	}
	return o
}
