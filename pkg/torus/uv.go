package torus

import "gonum.org/v1/gonum/spatial/r2"

// NodeUV returns the parametric coordinates of (row, col) in an open layout
// covering quad of grid. The first and last column of a row, and the first
// and last row, sit on the tile edges.
func NodeUV(grid, quad Tile, layout RowLayout, row, col int) r2.Vec {
	if grid == (Tile{}) {
		grid = Tile{X: 1, Y: 1}
	}
	rows := len(layout)
	cols := layout[row]
	return r2.Vec{
		X: (float64(quad.X) + float64(col)/float64(cols-1)) / float64(grid.X),
		Y: (float64(quad.Y) + float64(row)/float64(rows-1)) / float64(grid.Y),
	}
}

// QuadUVs returns the parametric coordinates of every node of an open layout,
// in flat order.
func QuadUVs(grid, quad Tile, layout RowLayout) []r2.Vec {
	uvs := make([]r2.Vec, 0, layout.Total())
	for row, cols := range layout {
		for col := 0; col < cols; col++ {
			uvs = append(uvs, NodeUV(grid, quad, layout, row, col))
		}
	}
	return uvs
}

// ClosedUVs returns the parametric coordinates of every node of a closed
// layout. Rows and columns are spread over [0, 1) without touching 1.
func ClosedUVs(layout RowLayout) []r2.Vec {
	uvs := make([]r2.Vec, 0, layout.Total())
	rows := float64(len(layout))
	for row, cols := range layout {
		for col := 0; col < cols; col++ {
			uvs = append(uvs, r2.Vec{
				X: float64(col) / float64(cols),
				Y: float64(row) / rows,
			})
		}
	}
	return uvs
}
