// Package torus describes the torus surface: its shape, the mapping between
// parametric and ambient coordinates, and the irregular row layout used to
// tessellate it.
//
// Conventions: Y is the axis of revolution. Longitude (u) runs around the
// ring, latitude (v) runs around the tube. Both parametric coordinates live in
// [0, 1) and wrap, so u = 1 and v = 1 address the same points as 0.
package torus

import (
	"errors"
	"fmt"
	"math"
)

// Torus errors.
var (
	ErrInvalidShape = errors.New("invalid torus shape")
	ErrInvalidRows  = errors.New("invalid row count")
	ErrInvalidTile  = errors.New("invalid tile")

	ErrLayoutTooLarge = errors.New("layout exceeds 32-bit node addressing")
)

// Shape holds the parameters of a ring torus.
type Shape struct {
	AspectRatio float64 // major radius : minor radius, must be > 1
	MajorRadius float64 // distance from the axis to the tube center
}

// NewShape returns a validated shape.
func NewShape(aspectRatio, majorRadius float64) (Shape, error) {
	s := Shape{AspectRatio: aspectRatio, MajorRadius: majorRadius}
	if err := s.Validate(); err != nil {
		return Shape{}, err
	}
	return s, nil
}

// Normalized returns the shape scaled so the minor radius is 1.
func Normalized(aspectRatio float64) Shape {
	return Shape{AspectRatio: aspectRatio, MajorRadius: aspectRatio}
}

// Validate reports whether the shape describes a ring torus.
func (s Shape) Validate() error {
	if err := validateAspect(s.AspectRatio); err != nil {
		return err
	}
	if !(s.MajorRadius > 0) || math.IsInf(s.MajorRadius, 0) {
		return fmt.Errorf("%w: major radius %v must be positive", ErrInvalidShape, s.MajorRadius)
	}
	return nil
}

// MinorRadius returns the tube radius.
func (s Shape) MinorRadius() float64 {
	return s.MajorRadius / s.AspectRatio
}

func validateAspect(aspect float64) error {
	if !(aspect > 1) || math.IsInf(aspect, 0) {
		return fmt.Errorf("%w: aspect ratio %v must be greater than 1", ErrInvalidShape, aspect)
	}
	return nil
}
