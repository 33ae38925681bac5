package torus

import (
	"fmt"
	"math"
)

// MinColumns is the smallest number of distinct vertices a row may have.
// Rows that wrap with an overlapping seam column store one more.
const MinColumns = 2

// Tile addresses one quad of a torus subdivided into a grid of quads, or the
// dimensions of that grid. X runs along longitude, Y along latitude.
type Tile struct {
	X, Y int
}

// RowLayout is the vertex count of every latitude row, in row order.
type RowLayout []int

// RowSpan locates one row inside a flat node array.
type RowSpan struct {
	Count  int32
	Offset int32
}

// Rows returns the number of rows.
func (l RowLayout) Rows() int {
	return len(l)
}

// Total returns the number of vertices in all rows.
func (l RowLayout) Total() int {
	n := 0
	for _, c := range l {
		n += c
	}
	return n
}

// Offset returns the flat index of the first vertex of row.
func (l RowLayout) Offset(row int) int {
	n := 0
	for _, c := range l[:row] {
		n += c
	}
	return n
}

// Index returns the flat index of (row, col).
func (l RowLayout) Index(row, col int) int {
	return l.Offset(row) + col
}

// Structure returns the (count, offset) table that makes flat lookup
// possible from the row alone. l must be valid.
func (l RowLayout) Structure() []RowSpan {
	spans := make([]RowSpan, len(l))
	offset := 0
	for i, c := range l {
		spans[i] = RowSpan{Count: int32(c), Offset: int32(offset)}
		offset += c
	}
	return spans
}

// Validate checks that every row has at least MinColumns vertices and that
// every flat index fits in an int32.
func (l RowLayout) Validate() error {
	if len(l) < 2 {
		return fmt.Errorf("%w: layout has %d rows, need at least 2", ErrInvalidRows, len(l))
	}
	var total int64
	for i, c := range l {
		if c < MinColumns {
			return fmt.Errorf("%w: row %d has %d vertices, need at least %d", ErrInvalidRows, i, c, MinColumns)
		}
		total += int64(c)
	}
	if total > math.MaxInt32 {
		return fmt.Errorf("%w: %d vertices", ErrLayoutTooLarge, total)
	}
	return nil
}

// ChordLength returns the straight-line distance between two points of a unit
// circle separated by angle. This is the base of an isosceles triangle with
// apex angle `angle` and unit legs, sin(a) / sin((pi-a)/2), written in the
// form that stays finite at a = pi.
func ChordLength(angle float64) float64 {
	return 2 * math.Sin(angle/2)
}

// Plan describes a row layout request.
type Plan struct {
	AspectRatio float64
	Rows        int  // vertex rows in the layout (per tile when tiled)
	Grid        Tile // quads around the torus; zero means a single quad
	Quad        Tile // which quad of Grid the layout belongs to
	Closed      bool // rows and columns wrap by index; no duplicated seam vertices
}

func (p Plan) grid() Tile {
	if p.Grid == (Tile{}) {
		return Tile{X: 1, Y: 1}
	}
	return p.Grid
}

// Validate checks the plan parameters.
func (p Plan) Validate() error {
	if err := validateAspect(p.AspectRatio); err != nil {
		return err
	}
	if p.Rows < 2 {
		return fmt.Errorf("%w: %d rows, need at least 2", ErrInvalidRows, p.Rows)
	}
	g := p.grid()
	if g.X < 1 || g.Y < 1 {
		return fmt.Errorf("%w: grid %dx%d", ErrInvalidTile, g.X, g.Y)
	}
	if p.Quad.X < 0 || p.Quad.Y < 0 || p.Quad.X >= g.X || p.Quad.Y >= g.Y {
		return fmt.Errorf("%w: quad (%d, %d) outside %dx%d grid", ErrInvalidTile, p.Quad.X, p.Quad.Y, g.X, g.Y)
	}
	if p.Closed && g != (Tile{X: 1, Y: 1}) {
		return fmt.Errorf("%w: closed layouts cannot be tiled", ErrInvalidTile)
	}
	return nil
}

// RowSeparation returns the latitude step between adjacent rows in radians.
func (p Plan) RowSeparation() float64 {
	if p.Closed {
		return Tau / float64(p.Rows)
	}
	return Tau / float64(p.grid().Y*(p.Rows-1))
}

// Layout computes the vertex count of every row so that edges along a row are
// about as long as the spacing between rows.
//
// Open layouts carry one extra, overlapping column per row (the seam vertex is
// stored twice) and place rows on both tile edges; the last row of a layout
// that spans the full latitude circle repeats row 0. Row latitudes are derived
// from the global row index, so adjacent tiles agree on their shared row.
func (p Plan) Layout() (RowLayout, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	g := p.grid()
	sep := p.RowSeparation()
	lin := ChordLength(sep)
	rowWidth := Tau / float64(g.X)

	cols := make(RowLayout, p.Rows)
	if p.Closed {
		for row := range cols {
			theta := float64(row) * sep
			cols[row] = columnsFor(p.AspectRatio, theta, rowWidth, lin)
		}
		return cols, nil
	}

	span := p.Rows - 1
	around := g.Y * span
	for row := range cols {
		global := (p.Quad.Y*span + row) % around
		theta := float64(global) * sep
		cols[row] = columnsFor(p.AspectRatio, theta, rowWidth, lin) + 1
	}
	return cols, nil
}

func columnsFor(aspect, theta, rowWidth, lin float64) int {
	n := int(math.Round((aspect + math.Cos(theta)) * rowWidth / lin))
	return max(MinColumns, n)
}

// RowsForEdgeLength returns the number of rows around the tube that gives
// edges of about the requested length.
func RowsForEdgeLength(s Shape, edge float64) (int, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	minor := s.MinorRadius()
	if !(edge > 0) {
		return 0, fmt.Errorf("%w: edge length %v must be positive", ErrInvalidRows, edge)
	}
	if edge >= 2*minor {
		return 2, nil
	}
	angle := 2 * math.Asin(edge/(2*minor))
	return max(2, int(math.Ceil(Tau/angle))), nil
}
