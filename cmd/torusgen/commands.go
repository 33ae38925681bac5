package main

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/griffinteller/torus-terrain/internal/accel/glcompute"
	"github.com/griffinteller/torus-terrain/internal/accel/wgsl"
	"github.com/griffinteller/torus-terrain/internal/config"
	"github.com/griffinteller/torus-terrain/internal/logger"
	"github.com/griffinteller/torus-terrain/internal/terrain"
	"github.com/griffinteller/torus-terrain/pkg/formats"
	"github.com/griffinteller/torus-terrain/pkg/noise"
	"github.com/griffinteller/torus-terrain/pkg/torus"
)

func workers(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// newBackend creates the configured noise backend.
func newBackend(cfg *config.Config) (noise.Backend, error) {
	b, err := noise.NewBackend(cfg.Noise.Backend)
	if err != nil {
		return nil, err
	}
	switch b := b.(type) {
	case *noise.CPU:
		b.Workers = workers(cfg.Noise.Workers)
	case *noise.Gather:
		b.Workers = workers(cfg.Noise.Workers)
	case *glcompute.Backend:
		b.Logger = logger.Named("gl")
	}
	return b, nil
}

// synthesize runs the configured noise levels into a new raster.
func synthesize(cfg *config.Config) (*noise.Raster, error) {
	dst, err := noise.NewRaster(cfg.Noise.Width, cfg.Noise.Height)
	if err != nil {
		return nil, err
	}
	backend, err := newBackend(cfg)
	if err != nil {
		return nil, err
	}
	if gl, ok := backend.(*glcompute.Backend); ok {
		defer gl.Close()
	}

	c := &noise.Compositor{
		AspectRatio: cfg.Shape.AspectRatio,
		StartLevel:  cfg.Noise.StartLevel,
		EndLevel:    cfg.Noise.EndLevel,
		Seamless:    cfg.Noise.Seamless,
		Backend:     backend,
		Fallback:    &noise.CPU{Workers: workers(cfg.Noise.Workers)},
		Logger:      logger.Named("noise"),
	}

	start := time.Now()
	src := rand.New(rand.NewPCG(cfg.Noise.Seed, 0))
	if err := c.Run(src, dst); err != nil {
		return nil, err
	}
	lo, hi := dst.MinMax()
	logger.Info("height texture synthesized",
		zap.Int("width", dst.Width),
		zap.Int("height", dst.Height),
		zap.Int("start_level", c.StartLevel),
		zap.Int("end_level", c.EndLevel),
		zap.Float32("min", lo),
		zap.Float32("max", hi),
		zap.Duration("took", time.Since(start)))
	return dst, nil
}

func writeHeights(cfg *config.Config, r *noise.Raster) (string, error) {
	if strings.EqualFold(cfg.Output.HeightImage, "tiff") {
		path := cfg.OutputPath(".tiff")
		return path, formats.WriteHeightTIFFFile(path, r)
	}
	var flags formats.THFFlags
	if cfg.Noise.Seamless {
		flags |= formats.THFSeamless
	}
	path := cfg.OutputPath(".thf")
	return path, formats.WriteTHFFile(path, formats.NewTHF(r, flags))
}

func prepareOutput(cfg *config.Config) error {
	return os.MkdirAll(cfg.Output.Dir, 0755)
}

func cmdMesh(cfg *config.Config, _ []string) error {
	rows, err := cfg.MeshRows()
	if err != nil {
		return err
	}
	m, err := terrain.BuildTorus(cfg.TorusShape(), rows)
	if err != nil {
		return err
	}
	m.RecalculateNormals()

	if err := prepareOutput(cfg); err != nil {
		return err
	}
	path := cfg.OutputPath(".obj")
	if err := formats.WriteOBJFile(path, m.OBJ(cfg.Output.Name)); err != nil {
		return err
	}
	logger.Info("mesh written",
		zap.String("path", path),
		zap.Int("rows", rows),
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("triangles", m.TriangleCount()),
		zap.Int("index_width", m.IndexWidth()))
	fmt.Println(path)
	return nil
}

// normalized wraps a raster so that its samples span [-1, 1].
func normalized(r *noise.Raster) terrain.HeightFunc {
	lo, hi := r.MinMax()
	mid, half := (lo+hi)/2, (hi-lo)/2
	if half == 0 {
		half = 1
	}
	return func(u, v float64) float32 {
		return (r.Sample(u, v) - mid) / half
	}
}

func cmdTerrain(cfg *config.Config, _ []string) error {
	rows, err := cfg.QuadRows()
	if err != nil {
		return err
	}
	heights, err := synthesize(cfg)
	if err != nil {
		return err
	}

	grid := torus.Tile{X: cfg.Mesh.GridX, Y: cfg.Mesh.GridY}
	data, err := terrain.NewData(cfg.TorusShape(), grid, rows)
	if err != nil {
		return err
	}
	if err := data.Generate(workers(cfg.Mesh.Workers)); err != nil {
		return err
	}
	minor := cfg.TorusShape().MinorRadius()
	data.ApplyHeightmap(normalized(heights), terrain.Displacement{
		Scale:  cfg.Terrain.HeightScale * minor,
		Offset: cfg.Terrain.HeightOffset * minor,
	})

	if err := prepareOutput(cfg); err != nil {
		return err
	}
	for j := 0; j < grid.Y; j++ {
		for i := 0; i < grid.X; i++ {
			name := fmt.Sprintf("%s_%d_%d", cfg.Output.Name, i, j)
			path := filepath.Join(cfg.Output.Dir, name+".obj")
			if err := formats.WriteOBJFile(path, data.Mesh(i, j).OBJ(name)); err != nil {
				return err
			}
			fmt.Println(path)
		}
	}
	path, err := writeHeights(cfg, heights)
	if err != nil {
		return err
	}
	fmt.Println(path)

	logger.Info("terrain written",
		zap.String("dir", cfg.Output.Dir),
		zap.Int("quads", grid.X*grid.Y),
		zap.Int("rows_per_quad", rows),
		zap.Int("vertices", data.VertexCount()))
	return nil
}

func cmdNoise(cfg *config.Config, _ []string) error {
	heights, err := synthesize(cfg)
	if err != nil {
		return err
	}
	if err := prepareOutput(cfg); err != nil {
		return err
	}
	path, err := writeHeights(cfg, heights)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func cmdShader(cfg *config.Config, _ []string) error {
	if err := prepareOutput(cfg); err != nil {
		return err
	}
	wgslPath := cfg.OutputPath(".wgsl")
	if err := os.WriteFile(wgslPath, []byte(wgsl.Source()), 0644); err != nil {
		return err
	}
	fmt.Println(wgslPath)

	words, err := wgsl.CompileSPIRV()
	if err != nil {
		return err
	}
	spv := make([]byte, 0, 4*len(words))
	for _, w := range words {
		spv = binary.LittleEndian.AppendUint32(spv, w)
	}
	spvPath := cfg.OutputPath(".spv")
	if err := os.WriteFile(spvPath, spv, 0644); err != nil {
		return err
	}
	fmt.Println(spvPath)
	logger.Info("shader written", zap.Int("spirv_words", len(words)))
	return nil
}

func cmdInfo(cfg *config.Config, args []string) error {
	if len(args) > 0 {
		return describeHeightFile(args[0])
	}

	rows, err := cfg.MeshRows()
	if err != nil {
		return err
	}
	quadRows, err := cfg.QuadRows()
	if err != nil {
		return err
	}
	shape := cfg.TorusShape()
	closed, err := torus.Plan{AspectRatio: shape.AspectRatio, Rows: rows, Closed: true}.Layout()
	if err != nil {
		return err
	}
	grid := torus.Tile{X: cfg.Mesh.GridX, Y: cfg.Mesh.GridY}
	quad, err := torus.Plan{AspectRatio: shape.AspectRatio, Rows: quadRows, Grid: grid}.Layout()
	if err != nil {
		return err
	}

	fmt.Printf("Shape:    aspect %.3g, major %.3g, minor %.3g\n",
		shape.AspectRatio, shape.MajorRadius, shape.MinorRadius())
	fmt.Printf("Closed:   %d rows, %d vertices, %d triangles\n",
		closed.Rows(), closed.Total(), 2*closed.Total())
	fmt.Printf("Columns:  %v\n", []int(closed))
	fmt.Printf("Quad:     %dx%d grid, quad (0,0) %d vertices, columns %v\n",
		grid.X, grid.Y, quad.Total(), []int(quad))
	fmt.Println()
	fmt.Println("Noise levels:")
	for level := cfg.Noise.StartLevel; level <= cfg.Noise.EndLevel; level++ {
		layout, err := torus.Plan{AspectRatio: shape.AspectRatio, Rows: noise.LevelRows(level)}.Layout()
		if err != nil {
			return err
		}
		k, err := noise.NewKernel(shape.AspectRatio, layout.Rows())
		if err != nil {
			return err
		}
		fmt.Printf("  %-3d %6d rows %9d nodes  radius %.4f\n", level, layout.Rows(), layout.Total(), k.Radius)
	}
	fmt.Println()
	fmt.Printf("Backends: %s\n", strings.Join(noise.Backends(), ", "))
	return nil
}

func describeHeightFile(path string) error {
	var r *noise.Raster
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		var err error
		if r, err = formats.ReadHeightTIFFFile(path); err != nil {
			return err
		}
		fmt.Printf("File:     %s (16-bit TIFF)\n", path)
	default:
		h, err := formats.ParseTHFFile(path)
		if err != nil {
			return err
		}
		fmt.Printf("File:     %s (THF %s, seamless %v)\n", path, h.Version, h.Flags&formats.THFSeamless != 0)
		r = h.Raster()
	}
	lo, hi := r.MinMax()
	fmt.Printf("Size:     %dx%d\n", r.Width, r.Height)
	fmt.Printf("Range:    %.4f .. %.4f\n", lo, hi)
	return nil
}
