package math

import "gonum.org/v1/gonum/spatial/r2"

// Vec2 is a 2D vector, used for texture coordinates.
type Vec2 struct {
	X, Y float32
}

// FromR2 narrows a float64 vector.
func FromR2(v r2.Vec) Vec2 {
	return Vec2{float32(v.X), float32(v.Y)}
}

// R2 widens v to float64.
func (v Vec2) R2() r2.Vec {
	return r2.Vec{X: float64(v.X), Y: float64(v.Y)}
}
