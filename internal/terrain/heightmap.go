package terrain

import (
	gomath "math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/griffinteller/torus-terrain/pkg/math"
	"github.com/griffinteller/torus-terrain/pkg/torus"
)

// HeightSource returns a height for a parametric point. *noise.Raster
// implements it with wrapped bilinear sampling.
type HeightSource interface {
	Sample(u, v float64) float32
}

// HeightFunc adapts a function to HeightSource.
type HeightFunc func(u, v float64) float32

// Sample implements HeightSource.
func (f HeightFunc) Sample(u, v float64) float32 {
	return f(u, v)
}

// Displacement maps a sampled height h to a tube radius of
// minor + h*Scale + Offset.
type Displacement struct {
	Scale  float64
	Offset float64
}

// ApplyHeightmap moves every vertex along the tube normal at its texture
// coordinate to the displaced radius, then recomputes normals and bounds.
func ApplyHeightmap(m *Mesh, shape torus.Shape, src HeightSource, d Displacement) {
	minor := shape.MinorRadius()
	for i := range m.Vertices {
		v := &m.Vertices[i]
		u, w := float64(v.TexCoord.X), float64(v.TexCoord.Y)
		h := float64(src.Sample(u, w))
		radius := minor + h*d.Scale + d.Offset

		sin, cos := gomath.Sincos(torus.Wrap(u) * torus.Tau)
		center := r3.Vec{X: shape.MajorRadius * cos, Z: shape.MajorRadius * sin}
		v.Position = math.FromR3(r3.Add(center, r3.Scale(radius, torus.UVToNormal(u, w))))
	}
	m.RecalculateNormals()
	m.RecalculateBounds()
}
