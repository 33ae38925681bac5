// Package terrain builds torus surface meshes: a single closed torus or a
// grid of quad meshes that tile it, displaced by a height field.
package terrain

import (
	"errors"

	"github.com/griffinteller/torus-terrain/pkg/math"
)

// ErrTooManyVertices is returned when 16-bit indices are requested for a
// mesh that needs 32-bit ones.
var ErrTooManyVertices = errors.New("mesh has too many vertices for 16-bit indices")

// MaxIndex16 is the largest vertex count addressable with 16-bit indices.
const MaxIndex16 = 1<<16 - 1

// Vertex represents a mesh vertex with all attributes.
type Vertex struct {
	Position math.Vec3
	Normal   math.Vec3
	TexCoord math.Vec2 // torus parametric (u, v)
}

// Mesh holds the complete mesh data ready for export.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Bounds   Bounds
}

// Bounds holds the axis-aligned bounding box of a mesh.
type Bounds struct {
	Min math.Vec3
	Max math.Vec3
}

// Size returns the extent of the box.
func (b Bounds) Size() math.Vec3 {
	return b.Max.Sub(b.Min)
}
