package terrain

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/griffinteller/torus-terrain/pkg/math"
	"github.com/griffinteller/torus-terrain/pkg/torus"
)

var testShape = torus.Shape{AspectRatio: 2.5, MajorRadius: 5}

// tubeDistance returns the distance of p from the tube's center circle.
func tubeDistance(s torus.Shape, p math.Vec3) float64 {
	rho := gomath.Hypot(float64(p.X), float64(p.Z)) - s.MajorRadius
	return gomath.Hypot(rho, float64(p.Y))
}

func TestBuildTorus(t *testing.T) {
	m, err := BuildTorus(testShape, 16)
	if err != nil {
		t.Fatalf("BuildTorus() error = %v", err)
	}
	layout, _ := torus.Plan{AspectRatio: testShape.AspectRatio, Rows: 16, Closed: true}.Layout()
	if len(m.Vertices) != layout.Total() {
		t.Errorf("got %d vertices, want %d", len(m.Vertices), layout.Total())
	}
	if m.TriangleCount() != 2*layout.Total() {
		t.Errorf("got %d triangles, want %d", m.TriangleCount(), 2*layout.Total())
	}
	if m.IndexWidth() != 16 {
		t.Errorf("IndexWidth() = %d, want 16", m.IndexWidth())
	}
	for i, v := range m.Vertices {
		if d := tubeDistance(testShape, v.Position); gomath.Abs(d-testShape.MinorRadius()) > 1e-4 {
			t.Fatalf("vertex %d is %v from the tube center, want %v", i, d, testShape.MinorRadius())
		}
	}
	size := m.Bounds.Size()
	want := float32(2 * (testShape.MajorRadius + testShape.MinorRadius()))
	tube := float32(2 * testShape.MinorRadius())
	if gomath.Abs(float64(size.X-want)) > 0.05 || gomath.Abs(float64(size.Y-tube)) > 0.05 {
		t.Errorf("Bounds.Size() = %v, want about (%v, %v, %v)", size, want, tube, want)
	}
}

func TestRecalculateNormalsOutward(t *testing.T) {
	m, err := BuildTorus(testShape, 24)
	if err != nil {
		t.Fatal(err)
	}
	m.RecalculateNormals()
	for i, v := range m.Vertices {
		want := math.FromR3(torus.UVToNormal(float64(v.TexCoord.X), float64(v.TexCoord.Y)))
		if d := v.Normal.Dot(want); d < 0.95 {
			t.Fatalf("vertex %d normal %v deviates from %v (dot %v)", i, v.Normal, want, d)
		}
	}
}

func TestBuildQuadSharesEdges(t *testing.T) {
	grid := torus.Tile{X: 2, Y: 2}
	a, err := BuildQuad(testShape, 6, grid, torus.Tile{X: 0, Y: 0})
	if err != nil {
		t.Fatal(err)
	}
	b, err := BuildQuad(testShape, 6, grid, torus.Tile{X: 1, Y: 0})
	if err != nil {
		t.Fatal(err)
	}
	layout, _ := torus.Plan{AspectRatio: testShape.AspectRatio, Rows: 6, Grid: grid}.Layout()
	for row, cols := range layout {
		last := a.Vertices[layout.Index(row, cols-1)].Position
		first := b.Vertices[layout.Index(row, 0)].Position
		if last != first {
			t.Errorf("row %d: quad edge %v != neighbour edge %v", row, last, first)
		}
	}
	if _, err := BuildQuad(testShape, 6, grid, torus.Tile{X: 2, Y: 0}); !errors.Is(err, torus.ErrInvalidTile) {
		t.Errorf("BuildQuad() outside grid error = %v, want %v", err, torus.ErrInvalidTile)
	}
}

func TestDataHeightmap(t *testing.T) {
	d, err := NewData(testShape, torus.Tile{X: 3, Y: 2}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Generate(2); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(d.Meshes()) != 6 {
		t.Fatalf("got %d meshes, want 6", len(d.Meshes()))
	}
	if d.Mesh(2, 1) == nil {
		t.Fatal("Mesh(2, 1) = nil")
	}

	flat := HeightFunc(func(u, v float64) float32 { return 1 })
	d.ApplyHeightmap(flat, Displacement{Scale: 0.25, Offset: 0.1})
	want := testShape.MinorRadius() + 0.35
	for _, m := range d.Meshes() {
		for i, v := range m.Vertices {
			if got := tubeDistance(testShape, v.Position); gomath.Abs(got-want) > 1e-4 {
				t.Fatalf("vertex %d at tube distance %v, want %v", i, got, want)
			}
		}
	}

	// Quads (0, 0) and (1, 0) share their column edge.
	a, b := d.Mesh(0, 0), d.Mesh(1, 0)
	layout, _ := torus.Plan{AspectRatio: testShape.AspectRatio, Rows: 5, Grid: d.Grid}.Layout()
	for row, cols := range layout {
		na := a.Vertices[layout.Index(row, cols-1)].Normal
		nb := b.Vertices[layout.Index(row, 0)].Normal
		if na != nb {
			t.Errorf("row %d: seam normals differ: %v vs %v", row, na, nb)
		}
	}
}

func TestNewDataRejects(t *testing.T) {
	if _, err := NewData(testShape, torus.Tile{X: 0, Y: 1}, 4); !errors.Is(err, torus.ErrInvalidTile) {
		t.Errorf("NewData() error = %v, want %v", err, torus.ErrInvalidTile)
	}
	if _, err := NewData(testShape, torus.Tile{X: 1, Y: 1}, 1); !errors.Is(err, torus.ErrInvalidRows) {
		t.Errorf("NewData() error = %v, want %v", err, torus.ErrInvalidRows)
	}
}

func TestIndices16(t *testing.T) {
	small := &Mesh{Vertices: make([]Vertex, 3), Indices: []uint32{0, 1, 2}}
	got, err := small.Indices16()
	if err != nil || len(got) != 3 || got[2] != 2 {
		t.Errorf("Indices16() = %v, %v", got, err)
	}
	big := &Mesh{Vertices: make([]Vertex, MaxIndex16+1)}
	if big.IndexWidth() != 32 {
		t.Errorf("IndexWidth() = %d, want 32", big.IndexWidth())
	}
	if _, err := big.Indices16(); !errors.Is(err, ErrTooManyVertices) {
		t.Errorf("Indices16() error = %v, want %v", err, ErrTooManyVertices)
	}
}

func TestMeshOBJ(t *testing.T) {
	m, err := BuildQuad(testShape, 4, torus.Tile{X: 1, Y: 1}, torus.Tile{})
	if err != nil {
		t.Fatal(err)
	}
	o := m.OBJ("quad")
	if err := o.Validate(); err != nil {
		t.Fatalf("OBJ().Validate() error = %v", err)
	}
	if len(o.Positions) != len(m.Vertices) || len(o.Indices) != len(m.Indices) {
		t.Errorf("OBJ has %d positions and %d indices, want %d and %d",
			len(o.Positions), len(o.Indices), len(m.Vertices), len(m.Indices))
	}
}
