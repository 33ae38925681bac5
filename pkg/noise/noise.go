// Package noise synthesizes seamless gradient noise over the irregular torus
// grid produced by package torus.
//
// Every grid node carries a random unit gradient tangent to the surface. A
// node adds a ramp, gradient·(p - node), faded to zero at a fixed influence
// radius, into every raster pixel p it reaches. Summing the ramps of all nodes
// gives continuous noise. Layers at increasing row densities can be summed
// into the same raster with Compositor.
package noise

import "errors"

// Noise errors.
var (
	ErrInvalidRaster    = errors.New("invalid raster")
	ErrSeamMismatch     = errors.New("last row does not match first row")
	ErrLayoutMismatch   = errors.New("field and kernel disagree on row count")
	ErrBufferUndersized = errors.New("dispatch buffer missing or undersized")
	ErrInvalidBuffer    = errors.New("dispatch buffer inconsistent")
	ErrInvalidLevels    = errors.New("invalid level range")
	ErrUnknownBackend   = errors.New("unknown backend")
	ErrFallbackToCPU    = errors.New("noise: falling back to CPU synthesis")
)

// Source supplies uniformly distributed numbers in [0, 1). *rand.Rand from
// math/rand/v2 satisfies it.
type Source interface {
	Float64() float64
}
