package noise

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/griffinteller/torus-terrain/pkg/torus"
)

// Kernel holds the parameters of one synthesis pass. Synthesis always works
// on the torus with unit minor radius; only the aspect ratio matters.
type Kernel struct {
	Shape  torus.Shape
	Rows   int
	Radius float64 // influence radius in ambient space

	// SpanV is the half-height of a node's pixel-row window, in v.
	SpanV float64
	// SpanU bounds how far in u a node can reach; it never exceeds 0.5.
	SpanU float64
}

// NewKernel returns the kernel for a layout of rows rows on a torus of the
// given aspect ratio. The influence radius is the chord spanned by one row
// step on the unit tube circle, so rows must be at least 3.
func NewKernel(aspectRatio float64, rows int) (Kernel, error) {
	shape := torus.Normalized(aspectRatio)
	if err := shape.Validate(); err != nil {
		return Kernel{}, err
	}
	if rows < 3 {
		return Kernel{}, fmt.Errorf("%w: synthesis needs at least 3 rows, got %d", torus.ErrInvalidRows, rows)
	}

	radius := torus.ChordLength(torus.Tau/float64(rows-1)) * shape.MinorRadius()
	unit := radius / shape.MinorRadius()
	k := Kernel{
		Shape:  shape,
		Rows:   rows,
		Radius: radius,
		SpanV:  math.Acos(clamp(1-unit*unit/2, -1, 1)) / torus.Tau,
		SpanU:  0.5,
	}

	// Two points of the surface are at least as far apart as their
	// projections onto the innermost ring.
	inner := shape.MajorRadius - shape.MinorRadius()
	if c := radius * radius / (2 * inner * inner); c < 2 {
		k.SpanU = min(0.5, math.Acos(1-c)/torus.Tau)
	}
	return k, nil
}

// Weight returns the contribution of a node at distance dist whose ramp has
// value dot: dot at distance 0, easing to 0 at the influence radius with a
// cubic Hermite curve.
func (k Kernel) Weight(dot, dist float64) float64 {
	t := dist / k.Radius
	if t >= 1 {
		return 0
	}
	return dot * (1 - smoothStep(t))
}

// window returns the inclusive range of pixel rows a node at v can reach.
func (k Kernel) window(v float64, height int) (lo, hi int) {
	lo = max(0, int(math.Floor((v-k.SpanV)*float64(height))))
	hi = min(int(math.Ceil((v+k.SpanV)*float64(height))), height-1)
	return lo, hi
}

func smoothStep(t float64) float64 {
	t = clamp(t, 0, 1)
	return t * t * (3 - 2*t)
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// pixelGrid evaluates pixel positions from per-column and per-row tables.
type pixelGrid struct {
	width, height int
	major, minor  float64
	cosU, sinU    []float64
	cosV, sinV    []float64
}

func newPixelGrid(s torus.Shape, width, height int) *pixelGrid {
	g := &pixelGrid{
		width:  width,
		height: height,
		major:  s.MajorRadius,
		minor:  s.MinorRadius(),
		cosU:   make([]float64, width),
		sinU:   make([]float64, width),
		cosV:   make([]float64, height),
		sinV:   make([]float64, height),
	}
	for x := range width {
		g.sinU[x], g.cosU[x] = math.Sincos(float64(x) / float64(width) * torus.Tau)
	}
	for y := range height {
		g.sinV[y], g.cosV[y] = math.Sincos(float64(y) / float64(height) * torus.Tau)
	}
	return g
}

func (g *pixelGrid) at(x, y int) r3.Vec {
	rho := g.major + g.minor*g.cosV[y]
	return r3.Vec{X: rho * g.cosU[x], Y: g.minor * g.sinV[y], Z: rho * g.sinU[x]}
}

func checkJob(f *Field, k Kernel, dst *Raster) error {
	if err := dst.Validate(); err != nil {
		return err
	}
	if f.Rows() != k.Rows {
		return fmt.Errorf("%w: field has %d rows, kernel %d", ErrLayoutMismatch, f.Rows(), k.Rows)
	}
	return nil
}
