package noise

import (
	"fmt"
	"math"

	"github.com/griffinteller/torus-terrain/pkg/torus"
)

// Raster is a row-major single-channel float image. Pixel (x, y) represents
// the parametric point (x/Width, y/Height).
type Raster struct {
	Width  int
	Height int
	Pix    []float32
}

// NewRaster allocates a zeroed raster.
func NewRaster(width, height int) (*Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidRaster, width, height)
	}
	return &Raster{Width: width, Height: height, Pix: make([]float32, width*height)}, nil
}

// Validate checks that the pixel buffer matches the dimensions.
func (r *Raster) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil", ErrInvalidRaster)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidRaster, r.Width, r.Height)
	}
	if len(r.Pix) != r.Width*r.Height {
		return fmt.Errorf("%w: %d pixels for %dx%d", ErrInvalidRaster, len(r.Pix), r.Width, r.Height)
	}
	return nil
}

// Clear zeroes every pixel.
func (r *Raster) Clear() {
	clear(r.Pix)
}

// At returns pixel (x, y). Coordinates wrap in both directions.
func (r *Raster) At(x, y int) float32 {
	x = wrapIndex(x, r.Width)
	y = wrapIndex(y, r.Height)
	return r.Pix[y*r.Width+x]
}

// Set stores pixel (x, y). Coordinates wrap in both directions.
func (r *Raster) Set(x, y int, v float32) {
	x = wrapIndex(x, r.Width)
	y = wrapIndex(y, r.Height)
	r.Pix[y*r.Width+x] = v
}

// Sample interpolates bilinearly at parametric (u, v). Coordinates wrap, so
// Sample(1, v) equals Sample(0, v).
func (r *Raster) Sample(u, v float64) float32 {
	fx := torus.Wrap(u) * float64(r.Width)
	fy := torus.Wrap(v) * float64(r.Height)
	x0, y0 := math.Floor(fx), math.Floor(fy)
	tx, ty := float32(fx-x0), float32(fy-y0)
	x, y := int(x0), int(y0)

	a := r.At(x, y)
	b := r.At(x+1, y)
	c := r.At(x, y+1)
	d := r.At(x+1, y+1)
	top := a + (b-a)*tx
	bottom := c + (d-c)*tx
	return top + (bottom-top)*ty
}

// AddRaster adds o into r pixel by pixel.
func (r *Raster) AddRaster(o *Raster) error {
	if o.Width != r.Width || o.Height != r.Height {
		return fmt.Errorf("%w: adding %dx%d to %dx%d", ErrInvalidRaster, o.Width, o.Height, r.Width, r.Height)
	}
	for i, v := range o.Pix {
		r.Pix[i] += v
	}
	return nil
}

// MinMax returns the smallest and largest pixel values.
func (r *Raster) MinMax() (lo, hi float32) {
	if len(r.Pix) == 0 {
		return 0, 0
	}
	lo, hi = r.Pix[0], r.Pix[0]
	for _, v := range r.Pix[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	c := *r
	c.Pix = append([]float32(nil), r.Pix...)
	return &c
}

func wrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
