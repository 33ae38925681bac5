package torus

import (
	"errors"
	"math"
	"slices"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestPlanLayoutKnownSequence(t *testing.T) {
	got, err := Plan{AspectRatio: 2, Rows: 5}.Layout()
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	want := RowLayout{14, 10, 5, 10, 14}
	if !slices.Equal(got, want) {
		t.Errorf("Layout() = %v, want %v", got, want)
	}
}

func TestPlanLayoutClosed(t *testing.T) {
	got, err := Plan{AspectRatio: 2, Rows: 4, Closed: true}.Layout()
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	want := RowLayout{13, 9, 4, 9}
	if !slices.Equal(got, want) {
		t.Errorf("Layout() = %v, want %v", got, want)
	}
}

func TestPlanLayoutOuterExceedsInner(t *testing.T) {
	for _, aspect := range []float64{1.05, 1.5, 2, 4, 10} {
		layout, err := Plan{AspectRatio: aspect, Rows: 17}.Layout()
		if err != nil {
			t.Fatalf("aspect %v: Layout() error = %v", aspect, err)
		}
		outer, inner := layout[0], layout[8]
		if outer <= inner {
			t.Errorf("aspect %v: outer row %d not greater than inner row %d", aspect, outer, inner)
		}
		if layout[0] != layout[len(layout)-1] {
			t.Errorf("aspect %v: last row %d does not repeat row 0 (%d)", aspect, layout[len(layout)-1], layout[0])
		}
		if err := layout.Validate(); err != nil {
			t.Errorf("aspect %v: Validate() error = %v", aspect, err)
		}
	}
}

func TestPlanLayoutTilesAgree(t *testing.T) {
	grid := Tile{X: 3, Y: 4}
	const rows = 6
	for y := 0; y < grid.Y; y++ {
		cur, err := Plan{AspectRatio: 3, Rows: rows, Grid: grid, Quad: Tile{X: 1, Y: y}}.Layout()
		if err != nil {
			t.Fatalf("quad %d: Layout() error = %v", y, err)
		}
		next, err := Plan{AspectRatio: 3, Rows: rows, Grid: grid, Quad: Tile{X: 1, Y: (y + 1) % grid.Y}}.Layout()
		if err != nil {
			t.Fatalf("quad %d: Layout() error = %v", y+1, err)
		}
		if cur[rows-1] != next[0] {
			t.Errorf("quad %d: top row %d != next quad bottom row %d", y, cur[rows-1], next[0])
		}
	}
}

func TestPlanRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		plan Plan
		want error
	}{
		{"one row", Plan{AspectRatio: 2, Rows: 1}, ErrInvalidRows},
		{"aspect one", Plan{AspectRatio: 1, Rows: 5}, ErrInvalidShape},
		{"aspect NaN", Plan{AspectRatio: math.NaN(), Rows: 5}, ErrInvalidShape},
		{"quad outside", Plan{AspectRatio: 2, Rows: 5, Grid: Tile{2, 2}, Quad: Tile{2, 0}}, ErrInvalidTile},
		{"negative grid", Plan{AspectRatio: 2, Rows: 5, Grid: Tile{-1, 2}}, ErrInvalidTile},
		{"closed tiled", Plan{AspectRatio: 2, Rows: 5, Grid: Tile{2, 1}, Closed: true}, ErrInvalidTile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.plan.Layout()
			if !errors.Is(err, tt.want) {
				t.Errorf("Layout() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRowLayoutAddressing(t *testing.T) {
	layout := RowLayout{3, 5, 4}
	if got := layout.Total(); got != 12 {
		t.Errorf("Total() = %d, want 12", got)
	}
	if got := layout.Index(2, 1); got != 9 {
		t.Errorf("Index(2, 1) = %d, want 9", got)
	}
	want := []RowSpan{{3, 0}, {5, 3}, {4, 8}}
	if got := layout.Structure(); !slices.Equal(got, want) {
		t.Errorf("Structure() = %v, want %v", got, want)
	}
	if err := (RowLayout{3, 1}).Validate(); !errors.Is(err, ErrInvalidRows) {
		t.Errorf("Validate() error = %v, want %v", err, ErrInvalidRows)
	}
	if err := (RowLayout{1 << 30, 1 << 30, 2}).Validate(); !errors.Is(err, ErrLayoutTooLarge) {
		t.Errorf("Validate() past int32 offsets error = %v, want %v", err, ErrLayoutTooLarge)
	}
	if err := (RowLayout{1 << 30, 1<<30 - 1}).Validate(); err != nil {
		t.Errorf("Validate() at the int32 limit error = %v", err)
	}
}

func TestChordLength(t *testing.T) {
	for _, a := range []float64{0.1, 0.5, 1, 2, 3} {
		got := ChordLength(a)
		want := math.Sin(a) / math.Sin((math.Pi-a)/2)
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("ChordLength(%v) = %v, want %v", a, got, want)
		}
	}
	if got := ChordLength(math.Pi); math.Abs(got-2) > 1e-12 {
		t.Errorf("ChordLength(pi) = %v, want 2", got)
	}
}

func TestRowsForEdgeLength(t *testing.T) {
	s := Shape{AspectRatio: 2, MajorRadius: 2}
	got, err := RowsForEdgeLength(s, 0.9)
	if err != nil {
		t.Fatalf("RowsForEdgeLength() error = %v", err)
	}
	if got != 7 {
		t.Errorf("RowsForEdgeLength() = %d, want 7", got)
	}
	if _, err := RowsForEdgeLength(s, 0); !errors.Is(err, ErrInvalidRows) {
		t.Errorf("RowsForEdgeLength(0) error = %v, want %v", err, ErrInvalidRows)
	}
}

func TestUVToPositionWraps(t *testing.T) {
	s := Shape{AspectRatio: 2.5, MajorRadius: 5}
	for i := 0; i <= 16; i++ {
		x := float64(i) / 16
		if a, b := s.UVToPosition(0, x), s.UVToPosition(1, x); a != b {
			t.Errorf("UVToPosition(0, %v) = %v, UVToPosition(1, %v) = %v", x, a, x, b)
		}
		if a, b := s.UVToPosition(x, 0), s.UVToPosition(x, 1); a != b {
			t.Errorf("UVToPosition(%v, 0) = %v, UVToPosition(%v, 1) = %v", x, a, x, b)
		}
		if a, b := s.UVToPosition(x, -0.25), s.UVToPosition(x, 0.75); r3.Norm(r3.Sub(a, b)) > 1e-12 {
			t.Errorf("UVToPosition(%v, -0.25) = %v, want %v", x, a, b)
		}
	}
}

func TestAngularToPosition(t *testing.T) {
	s := Shape{AspectRatio: 2, MajorRadius: 4}
	tests := []struct {
		lon, lat float64
		want     r3.Vec
	}{
		{0, 0, r3.Vec{X: 6}},
		{0, math.Pi, r3.Vec{X: 2}},
		{0, math.Pi / 2, r3.Vec{X: 4, Y: 2}},
		{math.Pi / 2, 0, r3.Vec{Z: 6}},
	}
	for _, tt := range tests {
		got := s.AngularToPosition(tt.lon, tt.lat)
		if r3.Norm(r3.Sub(got, tt.want)) > 1e-12 {
			t.Errorf("AngularToPosition(%v, %v) = %v, want %v", tt.lon, tt.lat, got, tt.want)
		}
	}
}

func TestPositionToUVRoundTrip(t *testing.T) {
	s := Shape{AspectRatio: 3, MajorRadius: 1.5}
	for i := 0; i < 10; i++ {
		for j := 0; j < 10; j++ {
			u, v := float64(i)/10, float64(j)/10
			gu, gv := s.PositionToUV(s.UVToPosition(u, v))
			du := math.Abs(gu - u)
			dv := math.Abs(gv - v)
			if math.Min(du, 1-du) > 1e-9 || math.Min(dv, 1-dv) > 1e-9 {
				t.Errorf("PositionToUV(UVToPosition(%v, %v)) = (%v, %v)", u, v, gu, gv)
			}
		}
	}
}

func TestUVToNormalIsOutward(t *testing.T) {
	s := Shape{AspectRatio: 2, MajorRadius: 2}
	const h = 1e-4
	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			u, v := float64(i)/8, float64(j)/8
			n := UVToNormal(u, v)
			if math.Abs(r3.Norm(n)-1) > 1e-12 {
				t.Errorf("UVToNormal(%v, %v) length = %v", u, v, r3.Norm(n))
			}
			// Stepping along the normal must leave the tube.
			p := r3.Add(s.UVToPosition(u, v), r3.Scale(h, n))
			rho := math.Hypot(p.X, p.Z) - s.MajorRadius
			if math.Hypot(rho, p.Y) <= s.MinorRadius() {
				t.Errorf("UVToNormal(%v, %v) = %v points inward", u, v, n)
			}
		}
	}
}

func TestWrap(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0}, {1, 0}, {1.25, 0.25}, {-0.25, 0.75}, {-1e-18, 0}, {3, 0},
	}
	for _, tt := range tests {
		if got := Wrap(tt.in); got != tt.want {
			t.Errorf("Wrap(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestQuadUVsCoverTile(t *testing.T) {
	layout := RowLayout{4, 3, 4}
	uvs := QuadUVs(Tile{2, 2}, Tile{1, 0}, layout)
	if len(uvs) != layout.Total() {
		t.Fatalf("QuadUVs() returned %d coords, want %d", len(uvs), layout.Total())
	}
	first, last := uvs[0], uvs[len(uvs)-1]
	if first.X != 0.5 || first.Y != 0 {
		t.Errorf("first uv = %v, want (0.5, 0)", first)
	}
	if last.X != 1 || last.Y != 0.5 {
		t.Errorf("last uv = %v, want (1, 0.5)", last)
	}
}

func TestClosedUVsStayBelowOne(t *testing.T) {
	layout := RowLayout{5, 3, 4}
	for _, uv := range ClosedUVs(layout) {
		if uv.X < 0 || uv.X >= 1 || uv.Y < 0 || uv.Y >= 1 {
			t.Errorf("uv %v outside [0, 1)", uv)
		}
	}
}

func TestShapeValidate(t *testing.T) {
	if _, err := NewShape(2, 4); err != nil {
		t.Errorf("NewShape(2, 4) error = %v", err)
	}
	if _, err := NewShape(0.5, 4); !errors.Is(err, ErrInvalidShape) {
		t.Errorf("NewShape(0.5, 4) error = %v, want %v", err, ErrInvalidShape)
	}
	if _, err := NewShape(2, 0); !errors.Is(err, ErrInvalidShape) {
		t.Errorf("NewShape(2, 0) error = %v, want %v", err, ErrInvalidShape)
	}
	if got := Normalized(3).MinorRadius(); got != 1 {
		t.Errorf("Normalized(3).MinorRadius() = %v, want 1", got)
	}
}
