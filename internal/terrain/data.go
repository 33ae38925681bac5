package terrain

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/griffinteller/torus-terrain/pkg/torus"
)

// Data is a torus split into a grid of quad meshes, stored row-major.
type Data struct {
	Shape torus.Shape
	Grid  torus.Tile
	Rows  int // rows per quad

	meshes []*Mesh
}

// NewData returns an empty grid of grid.X by grid.Y quads.
func NewData(shape torus.Shape, grid torus.Tile, rows int) (*Data, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if grid.X < 1 || grid.Y < 1 {
		return nil, fmt.Errorf("%w: grid %dx%d", torus.ErrInvalidTile, grid.X, grid.Y)
	}
	if rows < 2 {
		return nil, fmt.Errorf("%w: %d rows per quad", torus.ErrInvalidRows, rows)
	}
	return &Data{
		Shape:  shape,
		Grid:   grid,
		Rows:   rows,
		meshes: make([]*Mesh, grid.X*grid.Y),
	}, nil
}

func (d *Data) index(i, j int) int {
	if i < 0 || j < 0 || i >= d.Grid.X || j >= d.Grid.Y {
		panic(fmt.Sprintf("terrain: quad (%d, %d) outside %dx%d grid", i, j, d.Grid.X, d.Grid.Y))
	}
	return j*d.Grid.X + i
}

// Mesh returns the mesh of quad (i, j), or nil if it has not been built.
func (d *Data) Mesh(i, j int) *Mesh {
	return d.meshes[d.index(i, j)]
}

// SetMesh stores the mesh of quad (i, j).
func (d *Data) SetMesh(i, j int, m *Mesh) {
	d.meshes[d.index(i, j)] = m
}

// Meshes returns every stored mesh in row-major order, skipping empty
// quads.
func (d *Data) Meshes() []*Mesh {
	out := make([]*Mesh, 0, len(d.meshes))
	for _, m := range d.meshes {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// Generate builds every quad mesh, workers at a time. workers <= 0 uses
// GOMAXPROCS.
func (d *Data) Generate(workers int) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for j := 0; j < d.Grid.Y; j++ {
		for i := 0; i < d.Grid.X; i++ {
			g.Go(func() error {
				m, err := BuildQuad(d.Shape, d.Rows, d.Grid, torus.Tile{X: i, Y: j})
				if err != nil {
					return fmt.Errorf("quad (%d, %d): %w", i, j, err)
				}
				d.meshes[j*d.Grid.X+i] = m
				return nil
			})
		}
	}
	return g.Wait()
}

// ApplyHeightmap displaces every quad and smooths normals across quad seams.
func (d *Data) ApplyHeightmap(src HeightSource, disp Displacement) {
	meshes := d.Meshes()
	for _, m := range meshes {
		ApplyHeightmap(m, d.Shape, src, disp)
	}
	SmoothNormals(meshes...)
}

// VertexCount returns the total number of vertices over all quads.
func (d *Data) VertexCount() int {
	n := 0
	for _, m := range d.Meshes() {
		n += len(m.Vertices)
	}
	return n
}
