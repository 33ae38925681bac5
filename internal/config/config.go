// Package config handles generator configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/griffinteller/torus-terrain/internal/logger"
	"github.com/griffinteller/torus-terrain/pkg/noise"
	"github.com/griffinteller/torus-terrain/pkg/torus"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all generator settings.
type Config struct {
	Shape   ShapeConfig   `yaml:"shape"`
	Mesh    MeshConfig    `yaml:"mesh"`
	Terrain TerrainConfig `yaml:"terrain"`
	Noise   NoiseConfig   `yaml:"noise"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// ShapeConfig holds the torus dimensions.
type ShapeConfig struct {
	AspectRatio float64 `yaml:"aspect_ratio"` // major radius / minor radius
	MajorRadius float64 `yaml:"major_radius"`
}

// MeshConfig holds tessellation settings.
type MeshConfig struct {
	Rows       int     `yaml:"rows"`        // rows per quad, or around the closed mesh
	EdgeLength float64 `yaml:"edge_length"` // when set, overrides rows
	GridX      int     `yaml:"grid_x"`      // quads around the axis
	GridY      int     `yaml:"grid_y"`      // quads around the tube
	Workers    int     `yaml:"workers"`     // 0 = GOMAXPROCS
}

// TerrainConfig holds heightmap displacement settings.
type TerrainConfig struct {
	HeightScale  float64 `yaml:"height_scale"`
	HeightOffset float64 `yaml:"height_offset"`
}

// NoiseConfig holds height texture synthesis settings.
type NoiseConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	StartLevel int    `yaml:"start_level"`
	EndLevel   int    `yaml:"end_level"`
	Seamless   bool   `yaml:"seamless"`
	Seed       uint64 `yaml:"seed"`
	Backend    string `yaml:"backend"` // cpu, gather or gl
	Workers    int    `yaml:"workers"` // 0 = GOMAXPROCS
}

// OutputConfig holds export settings.
type OutputConfig struct {
	Dir         string `yaml:"dir"`
	Name        string `yaml:"name"`         // base file name
	HeightImage string `yaml:"height_image"` // thf or tiff
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Shape: ShapeConfig{
			AspectRatio: 2,
			MajorRadius: 10,
		},
		Mesh: MeshConfig{
			Rows:  32,
			GridX: 2,
			GridY: 2,
		},
		Terrain: TerrainConfig{
			HeightScale:  0.5,
			HeightOffset: 0,
		},
		Noise: NoiseConfig{
			Width:      500,
			Height:     500,
			StartLevel: 3,
			EndLevel:   7,
			Seamless:   true,
			Seed:       0,
			Backend:    "cpu",
		},
		Output: OutputConfig{
			Dir:         ".",
			Name:        "torus",
			HeightImage: "thf",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks the settings that the generator cannot recover from.
func (c *Config) Validate() error {
	shape := torus.Shape{AspectRatio: c.Shape.AspectRatio, MajorRadius: c.Shape.MajorRadius}
	if err := shape.Validate(); err != nil {
		return fmt.Errorf("%w: shape: %w", ErrInvalidConfig, err)
	}
	if c.Mesh.EdgeLength < 0 || (c.Mesh.EdgeLength == 0 && c.Mesh.Rows < 2) {
		return fmt.Errorf("%w: mesh needs rows >= 2 or a positive edge length", ErrInvalidConfig)
	}
	if c.Mesh.GridX < 1 || c.Mesh.GridY < 1 {
		return fmt.Errorf("%w: mesh grid %dx%d", ErrInvalidConfig, c.Mesh.GridX, c.Mesh.GridY)
	}
	if c.Noise.Width <= 0 || c.Noise.Height <= 0 {
		return fmt.Errorf("%w: noise texture %dx%d", ErrInvalidConfig, c.Noise.Width, c.Noise.Height)
	}
	if c.Noise.StartLevel < 2 || c.Noise.EndLevel < c.Noise.StartLevel || c.Noise.EndLevel > noise.MaxLevel {
		return fmt.Errorf("%w: noise levels %d-%d", ErrInvalidConfig, c.Noise.StartLevel, c.Noise.EndLevel)
	}
	if !logger.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.Logging.Level)
	}
	switch strings.ToLower(c.Output.HeightImage) {
	case "thf", "tiff":
	default:
		return fmt.Errorf("%w: height image format %q", ErrInvalidConfig, c.Output.HeightImage)
	}
	return nil
}

// TorusShape returns the configured shape.
func (c *Config) TorusShape() torus.Shape {
	return torus.Shape{AspectRatio: c.Shape.AspectRatio, MajorRadius: c.Shape.MajorRadius}
}

// MeshRows returns the rows around the tube of the closed mesh, derived from
// the edge length when one is set.
func (c *Config) MeshRows() (int, error) {
	if c.Mesh.EdgeLength > 0 {
		return torus.RowsForEdgeLength(c.TorusShape(), c.Mesh.EdgeLength)
	}
	return c.Mesh.Rows, nil
}

// QuadRows returns the rows of one tiled quad. With an edge length set, the
// rows around the tube are split over GridY quads that share their edge rows.
func (c *Config) QuadRows() (int, error) {
	if c.Mesh.EdgeLength <= 0 {
		return c.Mesh.Rows, nil
	}
	total, err := torus.RowsForEdgeLength(c.TorusShape(), c.Mesh.EdgeLength)
	if err != nil {
		return 0, err
	}
	grid := max(1, c.Mesh.GridY)
	return (total+grid-1)/grid + 1, nil
}

// OutputPath returns the path of an output file with the given extension.
func (c *Config) OutputPath(ext string) string {
	return filepath.Join(c.Output.Dir, c.Output.Name+ext)
}
