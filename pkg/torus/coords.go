package torus

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Tau is a full turn in radians.
const Tau = 2 * math.Pi

// AngularToPosition maps a longitude/latitude pair (radians) to a point on the
// surface. The point (R + r cos lat, r sin lat, 0) is rotated about +Y by
// -longitude.
func (s Shape) AngularToPosition(longitude, latitude float64) r3.Vec {
	minor := s.MinorRadius()
	rho := s.MajorRadius + minor*math.Cos(latitude)
	return r3.Vec{
		X: rho * math.Cos(longitude),
		Y: minor * math.Sin(latitude),
		Z: rho * math.Sin(longitude),
	}
}

// UVToPosition maps parametric coordinates to a point on the surface.
// Coordinates are wrapped into [0, 1) first, so UVToPosition(1, v) is
// bit-identical to UVToPosition(0, v).
func (s Shape) UVToPosition(u, v float64) r3.Vec {
	return s.AngularToPosition(Wrap(u)*Tau, Wrap(v)*Tau)
}

// UVToNormal returns the outward unit normal at the parametric point. It does
// not depend on the radii.
func UVToNormal(u, v float64) r3.Vec {
	theta := Wrap(u) * Tau
	phi := Wrap(v) * Tau
	return r3.Vec{
		X: math.Cos(phi) * math.Cos(theta),
		Y: math.Sin(phi),
		Z: math.Cos(phi) * math.Sin(theta),
	}
}

// PositionToUV is the inverse of UVToPosition for points on (or near) the
// surface. The result is in [0, 1).
func (s Shape) PositionToUV(p r3.Vec) (u, v float64) {
	u = Wrap(math.Atan2(p.Z, p.X) / Tau)
	rho := math.Hypot(p.X, p.Z)
	v = Wrap(math.Atan2(p.Y, rho-s.MajorRadius) / Tau)
	return u, v
}

// Wrap maps x into [0, 1).
func Wrap(x float64) float64 {
	w := x - math.Floor(x)
	if w >= 1 {
		// x was a tiny negative number and the subtraction rounded up.
		return 0
	}
	return w
}
