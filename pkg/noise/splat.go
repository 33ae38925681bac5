package noise

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"
)

// Splat adds the contribution of every node of f into dst.
//
// Each node visits the pixel rows of its window. Within a row it walks left
// from the column nearest the node and then right, stopping each walk at the
// first pixel whose distance reaches the influence radius or at the raster
// edge. Walks never wrap; the seam is covered by the duplicated nodes at
// u = 1 and v = 1.
func Splat(f *Field, k Kernel, dst *Raster) error {
	if err := checkJob(f, k, dst); err != nil {
		return err
	}
	grid := newPixelGrid(k.Shape, dst.Width, dst.Height)
	splatRows(f, k, grid, dst.Pix, 0, 0, f.Rows())
	return nil
}

// SplatParallel is Splat with grid rows divided into contiguous chunks, one
// per worker. Each chunk splats into its own partial raster covering only the
// pixel rows it can reach; partials are added into dst in chunk order, so the
// result depends on workers but not on scheduling.
func SplatParallel(f *Field, k Kernel, dst *Raster, workers int) error {
	if err := checkJob(f, k, dst); err != nil {
		return err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	rows := f.Rows()
	workers = min(workers, rows)
	if workers == 1 {
		return Splat(f, k, dst)
	}

	grid := newPixelGrid(k.Shape, dst.Width, dst.Height)
	type partial struct {
		y0  int
		pix []float32
	}
	parts := make([]partial, workers)

	var g errgroup.Group
	g.SetLimit(workers)
	for w := range workers {
		lo, hi := rows*w/workers, rows*(w+1)/workers
		if lo == hi {
			continue
		}
		g.Go(func() error {
			y0, _ := k.window(f.UV(lo, 0).Y, dst.Height)
			_, y1 := k.window(f.UV(hi-1, 0).Y, dst.Height)
			pix := make([]float32, (y1-y0+1)*dst.Width)
			splatRows(f, k, grid, pix, y0, lo, hi)
			parts[w] = partial{y0: y0, pix: pix}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, p := range parts {
		base := p.y0 * dst.Width
		for i, v := range p.pix {
			dst.Pix[base+i] += v
		}
	}
	return nil
}

// splatRows splats grid rows [lo, hi) into pix, whose first line is pixel
// row y0.
func splatRows(f *Field, k Kernel, grid *pixelGrid, pix []float32, y0, lo, hi int) {
	w := grid.width
	for i := lo; i < hi; i++ {
		for j := 0; j < f.Layout[i]; j++ {
			uv := f.UV(i, j)
			node := k.Shape.UVToPosition(uv.X, uv.Y)
			grad := f.Gradient(i, j)
			mid := int(math.Round(clamp(uv.X, 0, 1) * float64(w)))

			bottom, top := k.window(uv.Y, grid.height)
			for y := bottom; y <= top; y++ {
				line := pix[(y-y0)*w : (y-y0+1)*w]
				visit := func(x int) bool {
					d := r3.Sub(grid.at(x, y), node)
					dist := r3.Norm(d)
					if dist >= k.Radius {
						return false
					}
					line[x] += float32(k.Weight(r3.Dot(grad, d), dist))
					return true
				}
				for x := mid - 1; x >= 0; x-- {
					if !visit(x) {
						break
					}
				}
				for x := mid; x < w; x++ {
					if !visit(x) {
						break
					}
				}
			}
		}
	}
}
