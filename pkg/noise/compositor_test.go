package noise

import (
	"errors"
	"math"
	"slices"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/griffinteller/torus-terrain/pkg/torus"
)

func TestCompositorSingleLevelMatchesSplat(t *testing.T) {
	const level = 4
	_, _, want := splatLevel(t, 2, 21, LevelRows(level), 64, 32)

	got, _ := NewRaster(64, 32)
	c := &Compositor{AspectRatio: 2, StartLevel: level, EndLevel: level, Seamless: true}
	if err := c.Run(newSource(21), got); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !slices.Equal(got.Pix, want.Pix) {
		t.Errorf("single level differs from Splat by %v", maxDiff(got, want))
	}
}

func TestCompositorAccumulates(t *testing.T) {
	src := newSource(5)
	want, _ := NewRaster(48, 24)
	for level := 2; level <= 4; level++ {
		rows := LevelRows(level)
		f, err := GenerateField(mustLayout(t, 2, rows), src, true)
		if err != nil {
			t.Fatal(err)
		}
		k, err := NewKernel(2, rows)
		if err != nil {
			t.Fatal(err)
		}
		if err := Splat(f, k, want); err != nil {
			t.Fatal(err)
		}
	}

	got, _ := NewRaster(48, 24)
	for i := range got.Pix {
		got.Pix[i] = 100
	}
	c := &Compositor{AspectRatio: 2, StartLevel: 2, EndLevel: 4, Seamless: true}
	if err := c.Run(newSource(5), got); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !slices.Equal(got.Pix, want.Pix) {
		t.Errorf("compositor differs from summed levels by %v", maxDiff(got, want))
	}
}

type refusingBackend struct {
	calls int
}

func (r *refusingBackend) Name() string { return "refusing" }

func (r *refusingBackend) Dispatch(job *Job, dst *Raster) error {
	r.calls++
	if err := job.Buffers.Validate(); err != nil {
		return err
	}
	return ErrFallbackToCPU
}

func TestCompositorFallsBack(t *testing.T) {
	want, _ := NewRaster(32, 16)
	c := &Compositor{AspectRatio: 2.5, StartLevel: 2, EndLevel: 3, Seamless: true}
	if err := c.Run(newSource(8), want); err != nil {
		t.Fatal(err)
	}

	core, logs := observer.New(zapcore.DebugLevel)
	refusing := &refusingBackend{}
	got, _ := NewRaster(32, 16)
	c.Backend = refusing
	c.Logger = zap.New(core)
	if err := c.Run(newSource(8), got); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if refusing.calls != 2 {
		t.Errorf("backend called %d times, want 2", refusing.calls)
	}
	if !slices.Equal(got.Pix, want.Pix) {
		t.Errorf("fallback result differs by %v", maxDiff(got, want))
	}
	if n := logs.FilterMessage("backend fell back").Len(); n != 2 {
		t.Errorf("logged %d fallbacks, want 2", n)
	}
	if n := logs.FilterMessage("level synthesized").Len(); n != 2 {
		t.Errorf("logged %d levels, want 2", n)
	}
}

type failingBackend struct{}

func (failingBackend) Name() string { return "failing" }

func (failingBackend) Dispatch(*Job, *Raster) error { return errors.New("device lost") }

func TestCompositorReturnsBackendErrors(t *testing.T) {
	dst, _ := NewRaster(8, 8)
	c := &Compositor{AspectRatio: 2, StartLevel: 2, EndLevel: 2, Backend: failingBackend{}}
	if err := c.Run(newSource(1), dst); err == nil {
		t.Error("Run() succeeded with a failing backend")
	}
}

func TestCompositorRejectsLevels(t *testing.T) {
	dst, _ := NewRaster(8, 8)
	for _, lv := range [][2]int{{1, 3}, {4, 3}, {2, MaxLevel + 1}} {
		c := &Compositor{AspectRatio: 2, StartLevel: lv[0], EndLevel: lv[1]}
		if err := c.Run(newSource(1), dst); !errors.Is(err, ErrInvalidLevels) {
			t.Errorf("levels %v: error = %v, want %v", lv, err, ErrInvalidLevels)
		}
	}
}

func TestCompositorRejectsOversizedLevels(t *testing.T) {
	dst, _ := NewRaster(8, 8)
	c := &Compositor{AspectRatio: 3, StartLevel: 15, EndLevel: 15}
	if err := c.Run(newSource(1), dst); !errors.Is(err, torus.ErrLayoutTooLarge) {
		t.Errorf("Run() error = %v, want %v", err, torus.ErrLayoutTooLarge)
	}
}

func TestBuffersRejectOverflowingOffsets(t *testing.T) {
	k, err := NewKernel(2, 3)
	if err != nil {
		t.Fatal(err)
	}
	f := &Field{Layout: torus.RowLayout{1 << 29, 1 << 29, 2}}
	b := NewBuffers(3, 0)
	if err := b.Pack(f, k, 8, 8, true); !errors.Is(err, torus.ErrLayoutTooLarge) {
		t.Errorf("Pack() error = %v, want %v", err, torus.ErrLayoutTooLarge)
	}
}

func TestCompositorGatherBackend(t *testing.T) {
	want, _ := NewRaster(40, 20)
	c := &Compositor{AspectRatio: 2, StartLevel: 2, EndLevel: 3, Seamless: true}
	if err := c.Run(newSource(4), want); err != nil {
		t.Fatal(err)
	}
	got, _ := NewRaster(40, 20)
	c.Backend = &Gather{Workers: 2}
	if err := c.Run(newSource(4), got); err != nil {
		t.Fatal(err)
	}
	if d := maxDiff(got, want); d > 1e-4 {
		t.Errorf("gather compositor differs by %v", d)
	}
}

func TestBuffersPack(t *testing.T) {
	f, k, _ := splatLevel(t, 2, 2, 8, 16, 16)
	b := NewBuffers(f.Rows(), len(f.Gradients))
	if err := b.Pack(f, k, 16, 8, true); err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	u := b.Uniforms
	if u.Rows != 8 || u.Width != 16 || u.Height != 8 || !u.Clear {
		t.Errorf("Uniforms = %+v", u)
	}
	if math.Abs(float64(u.UVRowSeparation)-1.0/7) > 1e-7 {
		t.Errorf("UVRowSeparation = %v, want 1/7", u.UVRowSeparation)
	}
	if got, want := b.Structure[2*3+1], f.Structure[3].Offset; got != want {
		t.Errorf("row 3 offset = %d, want %d", got, want)
	}

	back, err := FieldFromBuffers(b)
	if err != nil {
		t.Fatalf("FieldFromBuffers() error = %v", err)
	}
	if !slices.Equal(back.Layout, f.Layout) {
		t.Errorf("layout = %v, want %v", back.Layout, f.Layout)
	}
	for i, g := range f.Gradients {
		h := back.Gradients[i]
		if math.Abs(g.X-h.X) > 1e-6 || math.Abs(g.Y-h.Y) > 1e-6 || math.Abs(g.Z-h.Z) > 1e-6 {
			t.Fatalf("gradient %d = %v, want %v", i, h, g)
		}
	}
}

func TestBuffersUndersized(t *testing.T) {
	f, k, _ := splatLevel(t, 2, 2, 8, 16, 16)
	b := NewBuffers(f.Rows(), len(f.Gradients)-1)
	if err := b.Pack(f, k, 16, 16, false); !errors.Is(err, ErrBufferUndersized) {
		t.Errorf("Pack() error = %v, want %v", err, ErrBufferUndersized)
	}

	b = NewBuffers(f.Rows(), len(f.Gradients))
	if err := b.Pack(f, k, 16, 16, false); err != nil {
		t.Fatal(err)
	}
	b.Gradients = b.Gradients[:len(b.Gradients)-3]
	if err := b.Validate(); !errors.Is(err, ErrBufferUndersized) {
		t.Errorf("Validate() error = %v, want %v", err, ErrBufferUndersized)
	}
	var missing *Buffers
	if err := missing.Validate(); !errors.Is(err, ErrBufferUndersized) {
		t.Errorf("nil Validate() error = %v, want %v", err, ErrBufferUndersized)
	}
}

func TestRegistry(t *testing.T) {
	names := Backends()
	for _, want := range []string{"cpu", "gather"} {
		if !slices.Contains(names, want) {
			t.Errorf("Backends() = %v, missing %q", names, want)
		}
	}
	b, err := NewBackend("cpu")
	if err != nil || b.Name() != "cpu" {
		t.Errorf("NewBackend(cpu) = %v, %v", b, err)
	}
	if _, err := NewBackend("vulkan-someday"); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("NewBackend() error = %v, want %v", err, ErrUnknownBackend)
	}
}
