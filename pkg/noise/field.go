package noise

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/griffinteller/torus-terrain/pkg/torus"
)

// Field is one gradient per node of an open row layout, in flat order.
type Field struct {
	Layout    torus.RowLayout
	Gradients []r3.Vec
	Structure []torus.RowSpan
}

// GenerateField draws a random tangent gradient for every node of layout.
//
// Nodes are placed on the unit reference torus of directions: column j of row
// i sits at longitude 2πj/(cols-1) and latitude 2πi/(rows-1). The gradient is
// the longitude tangent rotated about the surface normal by a uniform random
// angle, so it stays unit length and tangent to the surface.
//
// With seamless set, once every node has been drawn the last column of each
// row is overwritten with its first column and the last row with the first
// row, so the duplicated seam nodes are exact copies.
func GenerateField(layout torus.RowLayout, src Source, seamless bool) (*Field, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	rows := len(layout)
	if seamless && layout[rows-1] != layout[0] {
		return nil, fmt.Errorf("%w: %d vs %d vertices", ErrSeamMismatch, layout[rows-1], layout[0])
	}

	grads := make([]r3.Vec, layout.Total())
	k := 0
	for i, cols := range layout {
		phi := torus.Tau * float64(i) / float64(rows-1)
		sinPhi, cosPhi := math.Sincos(phi)
		for j := 0; j < cols; j++ {
			theta := torus.Tau * float64(j) / float64(cols-1)
			sinTheta, cosTheta := math.Sincos(theta)
			normal := r3.Vec{X: cosPhi * cosTheta, Y: sinPhi, Z: cosPhi * sinTheta}
			tangent := r3.Vec{X: -sinTheta, Z: cosTheta}
			angle := src.Float64() * torus.Tau
			grads[k] = r3.NewRotation(angle, normal).Rotate(tangent)
			k++
		}
	}

	f := &Field{Layout: layout, Gradients: grads, Structure: layout.Structure()}
	if seamless {
		f.closeSeams()
	}
	return f, nil
}

func (f *Field) closeSeams() {
	for _, span := range f.Structure {
		first := int(span.Offset)
		f.Gradients[first+int(span.Count)-1] = f.Gradients[first]
	}
	last := f.Structure[len(f.Structure)-1]
	copy(f.Gradients[last.Offset:last.Offset+last.Count], f.Gradients[:f.Layout[0]])
}

// Rows returns the number of rows.
func (f *Field) Rows() int {
	return len(f.Layout)
}

// Gradient returns the gradient of (row, col).
func (f *Field) Gradient(row, col int) r3.Vec {
	return f.Gradients[int(f.Structure[row].Offset)+col]
}

// UV returns the parametric coordinates of (row, col). Seam nodes sit at
// u = 1 and v = 1.
func (f *Field) UV(row, col int) r2.Vec {
	return torus.NodeUV(torus.Tile{X: 1, Y: 1}, torus.Tile{}, f.Layout, row, col)
}
