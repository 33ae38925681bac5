package noise

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/griffinteller/torus-terrain/pkg/torus"
)

// Uniforms are the scalar parameters of one dispatch.
type Uniforms struct {
	UVRowSeparation float32 // v distance between adjacent rows, 1/(rows-1)
	InfluenceRadius float32
	AspectRatio     float32
	Rows            int32
	Width           int32
	Height          int32
	Clear           bool // zero the texture before accumulating
}

// Buffers is the data handed to a GPU kernel for one level: a (count,
// offset) pair per row, three floats per gradient in flat node order, and
// the uniforms. The gradient of (row, col) starts at 3*(offset+col).
//
// Buffers are allocated once for the largest level and repacked for every
// level; Pack never grows them.
type Buffers struct {
	Structure []int32
	Gradients []float32
	Uniforms  Uniforms
}

// NewBuffers allocates buffers for up to rows rows and nodes nodes.
func NewBuffers(rows, nodes int) *Buffers {
	return &Buffers{
		Structure: make([]int32, 0, 2*rows),
		Gradients: make([]float32, 0, 3*nodes),
	}
}

// Pack fills b with f and the parameters of k for a width×height target.
func (b *Buffers) Pack(f *Field, k Kernel, width, height int, clearTexture bool) error {
	if f.Rows() != k.Rows {
		return fmt.Errorf("%w: field has %d rows, kernel %d", ErrLayoutMismatch, f.Rows(), k.Rows)
	}
	if err := checkAddressable(f.Layout); err != nil {
		return err
	}
	needS, needG := 2*f.Rows(), 3*len(f.Gradients)
	if cap(b.Structure) < needS {
		return fmt.Errorf("%w: structure holds %d rows, need %d", ErrBufferUndersized, cap(b.Structure)/2, f.Rows())
	}
	if cap(b.Gradients) < needG {
		return fmt.Errorf("%w: gradients hold %d nodes, need %d", ErrBufferUndersized, cap(b.Gradients)/3, len(f.Gradients))
	}

	b.Structure = b.Structure[:needS]
	for i, span := range f.Structure {
		b.Structure[2*i] = span.Count
		b.Structure[2*i+1] = span.Offset
	}
	b.Gradients = b.Gradients[:needG]
	for i, g := range f.Gradients {
		b.Gradients[3*i] = float32(g.X)
		b.Gradients[3*i+1] = float32(g.Y)
		b.Gradients[3*i+2] = float32(g.Z)
	}
	b.Uniforms = Uniforms{
		UVRowSeparation: float32(1 / float64(f.Rows()-1)),
		InfluenceRadius: float32(k.Radius),
		AspectRatio:     float32(k.Shape.AspectRatio),
		Rows:            int32(f.Rows()),
		Width:           int32(width),
		Height:          int32(height),
		Clear:           clearTexture,
	}
	return nil
}

// Validate checks that the buffers are complete for their uniforms.
func (b *Buffers) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil", ErrBufferUndersized)
	}
	u := b.Uniforms
	if u.Rows < 3 {
		return fmt.Errorf("%w: %d rows", ErrInvalidBuffer, u.Rows)
	}
	if u.Width <= 0 || u.Height <= 0 {
		return fmt.Errorf("%w: target %dx%d", ErrInvalidBuffer, u.Width, u.Height)
	}
	if !(u.InfluenceRadius > 0) || !(u.AspectRatio > 1) {
		return fmt.Errorf("%w: radius %v, aspect ratio %v", ErrInvalidBuffer, u.InfluenceRadius, u.AspectRatio)
	}
	if len(b.Structure) < 2*int(u.Rows) {
		return fmt.Errorf("%w: structure has %d entries, need %d", ErrBufferUndersized, len(b.Structure), 2*u.Rows)
	}
	nodes := len(b.Gradients) / 3
	next := 0
	for i := range int(u.Rows) {
		count, offset := int(b.Structure[2*i]), int(b.Structure[2*i+1])
		if count < 2 || offset != next {
			return fmt.Errorf("%w: row %d has count %d at offset %d", ErrInvalidBuffer, i, count, offset)
		}
		next += count
	}
	if next > nodes {
		return fmt.Errorf("%w: gradients hold %d nodes, need %d", ErrBufferUndersized, nodes, next)
	}
	return nil
}

// FieldFromBuffers rebuilds the field a kernel would see from b.
func FieldFromBuffers(b *Buffers) (*Field, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	rows := int(b.Uniforms.Rows)
	layout := make(torus.RowLayout, rows)
	for i := range layout {
		layout[i] = int(b.Structure[2*i])
	}
	grads := make([]r3.Vec, layout.Total())
	for i := range grads {
		grads[i] = r3.Vec{
			X: float64(b.Gradients[3*i]),
			Y: float64(b.Gradients[3*i+1]),
			Z: float64(b.Gradients[3*i+2]),
		}
	}
	return &Field{Layout: layout, Gradients: grads, Structure: layout.Structure()}, nil
}

// checkAddressable reports whether every gradient component of l can be
// indexed with an int32, as the kernels do.
func checkAddressable(l torus.RowLayout) error {
	if err := l.Validate(); err != nil {
		return err
	}
	if n := 3 * int64(l.Total()); n > math.MaxInt32 {
		return fmt.Errorf("%w: %d gradient components", torus.ErrLayoutTooLarge, n)
	}
	return nil
}
