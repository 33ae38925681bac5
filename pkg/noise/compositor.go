package noise

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/griffinteller/torus-terrain/pkg/torus"
)

// MaxLevel is the finest supported level, 2^MaxLevel rows.
const MaxLevel = 16

// Compositor sums noise levels into one raster. Level L uses a layout of 2^L
// rows, so each level doubles the frequency of the previous one.
type Compositor struct {
	AspectRatio float64
	StartLevel  int // at least 2
	EndLevel    int // inclusive
	Seamless    bool

	Backend  Backend // nil means &CPU{}
	Fallback Backend // used when Backend returns ErrFallbackToCPU; nil means &CPU{}
	Logger   *zap.Logger
}

// LevelRows returns the row count of level.
func LevelRows(level int) int {
	return 1 << level
}

func (c *Compositor) validate() error {
	if c.StartLevel < 2 || c.EndLevel < c.StartLevel || c.EndLevel > MaxLevel {
		return fmt.Errorf("%w: levels %d..%d, need 2 <= start <= end <= %d",
			ErrInvalidLevels, c.StartLevel, c.EndLevel, MaxLevel)
	}
	return nil
}

// Run synthesizes every level from StartLevel to EndLevel into dst, drawing
// all gradients from src in level order. dst is cleared by the first level
// and accumulated by the rest. Levels run one after another.
func (c *Compositor) Run(src Source, dst *Raster) error {
	if err := c.validate(); err != nil {
		return err
	}
	if err := dst.Validate(); err != nil {
		return err
	}
	log := c.Logger
	if log == nil {
		log = zap.NewNop()
	}
	backend := c.Backend
	if backend == nil {
		backend = &CPU{}
	}
	fallback := c.Fallback
	if fallback == nil {
		fallback = &CPU{}
	}

	layouts := make([]torus.RowLayout, 0, c.EndLevel-c.StartLevel+1)
	maxRows, maxNodes := 0, 0
	for level := c.StartLevel; level <= c.EndLevel; level++ {
		layout, err := torus.Plan{AspectRatio: c.AspectRatio, Rows: LevelRows(level)}.Layout()
		if err != nil {
			return fmt.Errorf("level %d: %w", level, err)
		}
		if err := checkAddressable(layout); err != nil {
			return fmt.Errorf("level %d: %w", level, err)
		}
		layouts = append(layouts, layout)
		maxRows = max(maxRows, len(layout))
		maxNodes = max(maxNodes, layout.Total())
	}
	buffers := NewBuffers(maxRows, maxNodes)

	for i, layout := range layouts {
		level := c.StartLevel + i
		start := time.Now()

		field, err := GenerateField(layout, src, c.Seamless)
		if err != nil {
			return fmt.Errorf("level %d: %w", level, err)
		}
		kernel, err := NewKernel(c.AspectRatio, len(layout))
		if err != nil {
			return fmt.Errorf("level %d: %w", level, err)
		}
		job := &Job{Level: level, Field: field, Kernel: kernel, Buffers: buffers, Clear: i == 0}
		if err := buffers.Pack(field, kernel, dst.Width, dst.Height, job.Clear); err != nil {
			return fmt.Errorf("level %d: %w", level, err)
		}

		used := backend
		err = backend.Dispatch(job, dst)
		if errors.Is(err, ErrFallbackToCPU) {
			log.Warn("backend fell back",
				zap.String("backend", backend.Name()),
				zap.String("fallback", fallback.Name()),
				zap.Int("level", level),
				zap.Error(err))
			used = fallback
			err = fallback.Dispatch(job, dst)
		}
		if err != nil {
			return fmt.Errorf("level %d on %s: %w", level, used.Name(), err)
		}

		log.Debug("level synthesized",
			zap.String("backend", used.Name()),
			zap.Int("level", level),
			zap.Int("rows", len(layout)),
			zap.Int("nodes", len(field.Gradients)),
			zap.Float64("radius", kernel.Radius),
			zap.Duration("took", time.Since(start)))
	}
	return nil
}
