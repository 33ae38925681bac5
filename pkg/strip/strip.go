// Package strip triangulates the band between two rows of vertices whose
// counts differ.
//
// The sparser row of each pair drives: every driver vertex is fanned to a
// contiguous range of the denser row, and consecutive driver vertices are
// joined by a closing triangle. All triangles are wound counter-clockwise when
// rows advance along +v and columns along +u, which makes them face outward on
// the torus.
package strip

import (
	"errors"
	"fmt"
)

// ErrDegenerateRow is returned for rows that cannot form an edge.
var ErrDegenerateRow = errors.New("row has fewer than 2 vertices")

// Triangle is three vertex indices.
type Triangle [3]uint32

// Row locates a row of vertices in a flat vertex array.
type Row struct {
	Offset int
	Count  int
}

// Topology selects which directions of the grid wrap by index.
type Topology struct {
	WrapRows    bool // connect the last row back to row 0
	WrapColumns bool // connect the last column of every row back to column 0
}

// PairCount returns the number of triangles Pair emits for rows of n0 and n1
// vertices.
func PairCount(n0, n1 int, closed bool) int {
	if closed {
		return n0 + n1
	}
	return n0 + n1 - 2
}

// Pair appends the triangles joining bottom to top to dst. Top is the row
// that follows bottom in +v. With closed set, the last column of each row is
// joined to its first.
func Pair(dst []Triangle, bottom, top Row, closed bool) ([]Triangle, error) {
	if bottom.Count < 2 {
		return dst, fmt.Errorf("%w: bottom row has %d", ErrDegenerateRow, bottom.Count)
	}
	if top.Count < 2 {
		return dst, fmt.Errorf("%w: top row has %d", ErrDegenerateRow, top.Count)
	}

	driver, dense, flip := bottom, top, false
	if bottom.Count > top.Count {
		driver, dense, flip = top, bottom, true
	}
	emit := func(a, b, c int) {
		if flip {
			b, c = c, b
		}
		dst = append(dst, Triangle{uint32(a), uint32(b), uint32(c)})
	}

	d, n0 := driver.Offset, driver.Count
	D, n1 := dense.Offset, dense.Count

	if closed {
		// Start one row back so the range stays increasing across the seam.
		last := n1*(n0-1)/n0 + 1 - n1
		for i := 0; i < n0; i++ {
			next := n1*i/n0 + 1
			for j := last; j < next; j++ {
				emit(d+i, D+(j+n1)%n1, D+(j+1+n1)%n1)
			}
			emit(d+i, D+next%n1, d+(i+1)%n0)
			last = next
		}
		return dst, nil
	}

	last := 0
	for i := 0; i < n0; i++ {
		next := min((n1-1)*i/(n0-1)+1, n1-1)
		for j := last; j < next; j++ {
			emit(d+i, D+j, D+j+1)
		}
		if i < n0-1 {
			emit(d+i, D+next, d+i+1)
		}
		last = next
	}
	return dst, nil
}

// Rows returns the flat position of every row of layout.
func Rows(layout []int) []Row {
	rows := make([]Row, len(layout))
	offset := 0
	for i, n := range layout {
		rows[i] = Row{Offset: offset, Count: n}
		offset += n
	}
	return rows
}

type pairing struct {
	bottom, top Row
}

func pairings(layout []int, topo Topology) ([]pairing, error) {
	if len(layout) < 2 {
		return nil, fmt.Errorf("strip: need at least 2 rows, got %d", len(layout))
	}
	rows := Rows(layout)
	for i, r := range rows {
		if r.Count < 2 {
			return nil, fmt.Errorf("%w: row %d has %d", ErrDegenerateRow, i, r.Count)
		}
	}
	pairs := make([]pairing, 0, len(rows))
	for i := 0; i+1 < len(rows); i++ {
		pairs = append(pairs, pairing{rows[i], rows[i+1]})
	}
	if topo.WrapRows {
		pairs = append(pairs, pairing{rows[len(rows)-1], rows[0]})
	}
	return pairs, nil
}

// Count returns the number of triangles Triangulate produces.
func Count(layout []int, topo Topology) (int, error) {
	pairs, err := pairings(layout, topo)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range pairs {
		n += PairCount(p.bottom.Count, p.top.Count, topo.WrapColumns)
	}
	return n, nil
}

// Triangulate returns the triangles of every adjacent row pair of layout.
func Triangulate(layout []int, topo Topology) ([]Triangle, error) {
	pairs, err := pairings(layout, topo)
	if err != nil {
		return nil, err
	}
	n := 0
	for _, p := range pairs {
		n += PairCount(p.bottom.Count, p.top.Count, topo.WrapColumns)
	}
	tris := make([]Triangle, 0, n)
	for _, p := range pairs {
		tris, err = Pair(tris, p.bottom, p.top, topo.WrapColumns)
		if err != nil {
			return nil, err
		}
	}
	return tris, nil
}
