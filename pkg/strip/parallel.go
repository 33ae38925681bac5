package strip

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// TriangulateParallel is Triangulate with row pairs spread over workers
// goroutines. Each pair writes its own, precomputed range of the result, so
// the output is identical to Triangulate. workers <= 0 uses GOMAXPROCS.
func TriangulateParallel(layout []int, topo Topology, workers int) ([]Triangle, error) {
	pairs, err := pairings(layout, topo)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	starts := make([]int, len(pairs)+1)
	for i, p := range pairs {
		starts[i+1] = starts[i] + PairCount(p.bottom.Count, p.top.Count, topo.WrapColumns)
	}
	tris := make([]Triangle, starts[len(pairs)])

	var g errgroup.Group
	g.SetLimit(workers)
	for i, p := range pairs {
		g.Go(func() error {
			lo, hi := starts[i], starts[i+1]
			_, err := Pair(tris[lo:lo:hi], p.bottom, p.top, topo.WrapColumns)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tris, nil
}
