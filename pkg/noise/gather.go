package noise

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/griffinteller/torus-terrain/pkg/torus"
)

// Sampler evaluates the noise of a field at individual points instead of
// splatting whole nodes. Pixel reproduces Splat one pixel at a time, which is
// the shape of a per-pixel GPU kernel; Sample evaluates arbitrary parametric
// points, for example mesh vertices.
//
// A pixel receives a node when the pixel row lies in the node's window and
// every pixel the walk of Splat crosses on its way from the node is inside
// the radius. Along a pixel row the distance grows with the u offset up to
// half a turn and shrinks after it, so a pixel within half a turn only needs
// its own distance checked. A pixel beyond half a turn also needs the two
// pixels around the node's antipode inside the radius, which only happens on
// thin tori where the hole is narrower than the radius.
//
// Sample may be called concurrently. Pixel may not.
type Sampler struct {
	field   *Field
	kernel  Kernel
	nodes   []r3.Vec
	windows [][2]int
	height  int
}

// NewSampler prepares f for evaluation with k.
func NewSampler(f *Field, k Kernel) (*Sampler, error) {
	if f.Rows() != k.Rows {
		return nil, ErrLayoutMismatch
	}
	s := &Sampler{field: f, kernel: k, nodes: make([]r3.Vec, 0, len(f.Gradients))}
	for i, cols := range f.Layout {
		for j := 0; j < cols; j++ {
			uv := f.UV(i, j)
			s.nodes = append(s.nodes, k.Shape.UVToPosition(uv.X, uv.Y))
		}
	}
	return s, nil
}

// columns returns the candidate column range of a row of n nodes for a
// point at u. Once SpanU comes within slack of half a turn a node may reach
// past its antipode, and every column is a candidate.
func (s *Sampler) columns(n int, u, slack float64) (lo, hi int) {
	h := s.kernel.SpanU
	if h+slack >= 0.5 {
		return 0, n - 1
	}
	span := float64(n - 1)
	lo = max(0, int(math.Floor((u-h)*span))-1)
	hi = min(n-1, int(math.Ceil((u+h)*span))+1)
	return lo, hi
}

// Sample returns the noise at parametric (u, v), wrapped into [0, 1).
func (s *Sampler) Sample(u, v float64) float64 {
	u, v = torus.Wrap(u), torus.Wrap(v)
	k := s.kernel
	p := k.Shape.UVToPosition(u, v)
	rows := float64(s.field.Rows() - 1)

	var sum float64
	for i, cols := range s.field.Layout {
		if math.Abs(v-float64(i)/rows) > k.SpanV {
			continue
		}
		lo, hi := s.columns(cols, u, 0)
		for j := lo; j <= hi; j++ {
			idx := int(s.field.Structure[i].Offset) + j
			nu := float64(j) / float64(cols-1)
			if du := u - nu; math.Abs(du) > 0.5 {
				a := k.Shape.UVToPosition(antipode(nu, du), v)
				if r3.Norm(r3.Sub(a, s.nodes[idx])) >= k.Radius {
					continue
				}
			}
			sum += s.contribution(idx, p)
		}
	}
	return sum
}

// antipode returns the u half a turn from nu on the side of the offset du.
func antipode(nu, du float64) float64 {
	if du > 0 {
		return nu + 0.5
	}
	return nu - 0.5
}

func (s *Sampler) contribution(idx int, p r3.Vec) float64 {
	d := r3.Sub(p, s.nodes[idx])
	dist := r3.Norm(d)
	if dist >= s.kernel.Radius {
		return 0
	}
	return s.kernel.Weight(r3.Dot(s.field.Gradients[idx], d), dist)
}

// passes reports whether the walk of a node at nu along pixel row y gets
// past the node's antipode on the side of du.
func (s *Sampler) passes(grid *pixelGrid, y int, node r3.Vec, nu, du float64) bool {
	a := antipode(nu, du) * float64(grid.width)
	for _, x := range [2]int{int(math.Floor(a)), int(math.Ceil(a))} {
		x = min(max(x, 0), grid.width-1)
		if r3.Norm(r3.Sub(grid.at(x, y), node)) >= s.kernel.Radius {
			return false
		}
	}
	return true
}

func (s *Sampler) prepareWindows(height int) {
	if s.height == height && s.windows != nil {
		return
	}
	s.height = height
	s.windows = make([][2]int, s.field.Rows())
	for i := range s.windows {
		lo, hi := s.kernel.window(s.field.UV(i, 0).Y, height)
		s.windows[i] = [2]int{lo, hi}
	}
}

// pixel returns the noise of pixel (x, y) of a width×height raster.
func (s *Sampler) pixel(grid *pixelGrid, x, y int) float64 {
	p := grid.at(x, y)
	w := float64(grid.width)
	u := float64(x) / w

	var sum float64
	for i, cols := range s.field.Layout {
		if y < s.windows[i][0] || y > s.windows[i][1] {
			continue
		}
		lo, hi := s.columns(cols, u, 1/w)
		for j := lo; j <= hi; j++ {
			idx := int(s.field.Structure[i].Offset) + j
			nu := float64(j) / float64(cols-1)
			if du := u - nu; math.Abs(du) > 0.5 && !s.passes(grid, y, s.nodes[idx], nu, du) {
				continue
			}
			sum += s.contribution(idx, p)
		}
	}
	return sum
}

// Pixel returns the noise of pixel (x, y) of a width×height raster.
func (s *Sampler) Pixel(width, height, x, y int) float64 {
	s.prepareWindows(height)
	grid := newPixelGrid(s.kernel.Shape, width, height)
	return s.pixel(grid, x, y)
}

// Render adds the noise of every pixel into dst, one pixel row per task.
// workers <= 0 uses GOMAXPROCS.
func (s *Sampler) Render(dst *Raster, workers int) error {
	if err := checkJob(s.field, s.kernel, dst); err != nil {
		return err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	s.prepareWindows(dst.Height)
	grid := newPixelGrid(s.kernel.Shape, dst.Width, dst.Height)

	var g errgroup.Group
	g.SetLimit(workers)
	for y := range dst.Height {
		g.Go(func() error {
			line := dst.Pix[y*dst.Width : (y+1)*dst.Width]
			for x := range line {
				line[x] += float32(s.pixel(grid, x, y))
			}
			return nil
		})
	}
	return g.Wait()
}
